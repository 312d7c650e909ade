package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad"
	"github.com/unicitynetwork/triviad/internal/clock"
	"github.com/unicitynetwork/triviad/internal/svcfields"
	triviadmcp "github.com/unicitynetwork/triviad/mcp"
)

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("TRIVIAD_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "triviad")

	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			svcfields.WithSubsystem(baseLogger, "cli.root").Error("command failed", "error", err)
		}
		return 1
	}
	return 0
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}

const (
	listenKey            = "listen"
	mcpPathKey           = "mcp-path"
	metricsListenKey     = "metrics-listen"
	questionsKey         = "questions"
	watchQuestionsKey    = "watch-questions"
	winningStreakKey     = "winning-streak"
	questionExpiryKey    = "question-expiry"
	sweepIntervalKey     = "sweep-interval"
	paymentModeKey       = "payment-mode"
	dayPassHoursKey      = "day-pass-hours"
	paymentTimeoutKey    = "payment-timeout"
	localPaymentDelayKey = "local-payment-delay"
	adminPasswordKey     = "admin-password"
	dataDirKey           = "data-dir"
	logLevelKey          = "log-level"
)

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "triviad",
		Short:         "triviad serves payment-gated trivia tools over MCP",
		SilenceErrors: true,
		Example: `
  # Free mode with the embedded catalog
  triviad

  # Simulated payment gating and Prometheus metrics
  triviad --payment-mode local --metrics-listen :9102

  # Operator catalog with hot reload
  triviad --questions /etc/triviad/questions.yaml --watch-questions
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if err := loadConfigFile(configPath); err != nil {
				return err
			}
			logger := baseLogger
			if level, ok := pslog.ParseLevel(strings.TrimSpace(viper.GetString(logLevelKey))); ok {
				logger = logger.LogLevel(level)
			}
			cfg := configFromViper()
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (defaults to $HOME/.triviad/triviad.yaml)")

	flags := cmd.Flags()
	flags.StringP("listen", "l", triviad.DefaultListen, "listen address for the MCP server")
	flags.String("mcp-path", triviad.DefaultMCPPath, "HTTP path for the streamable MCP endpoint")
	flags.String("metrics-listen", triviad.DefaultMetricsListen, "metrics listen address (Prometheus scrape endpoint; empty disables)")
	flags.String("questions", "", "questions YAML file replacing the embedded catalog")
	flags.Bool("watch-questions", false, "reload the questions file when it changes on disk")
	flags.Int("winning-streak", triviad.DefaultWinningStreak, "consecutive correct answers required for an award")
	flags.Duration("question-expiry", triviad.DefaultQuestionExpiry, "age past which an unanswered question is discarded")
	flags.Duration("sweep-interval", triviad.DefaultSweepInterval, "interval between stale-question sweeps")
	flags.String("payment-mode", triviad.PaymentModeOff, "payment gating mode (off, local)")
	flags.Int("day-pass-hours", triviad.DefaultDayPassHours, "hours of access granted per confirmed payment")
	flags.Duration("payment-timeout", triviad.DefaultPaymentTimeout, "how long payment confirmations may be awaited")
	flags.Duration("local-payment-delay", triviad.DefaultLocalPaymentDelay, "auto-approval delay for the local payment bridge")
	flags.String("admin-password", "", "admin password for get_wallet_balance (empty disables the tool)")
	flags.String("data-dir", "", "data directory containing the wallet token files")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	mustBindFlag(listenKey, "TRIVIAD_LISTEN", flags.Lookup("listen"))
	mustBindFlag(mcpPathKey, "TRIVIAD_MCP_PATH", flags.Lookup("mcp-path"))
	mustBindFlag(metricsListenKey, "TRIVIAD_METRICS_LISTEN", flags.Lookup("metrics-listen"))
	mustBindFlag(questionsKey, "TRIVIAD_QUESTIONS", flags.Lookup("questions"))
	mustBindFlag(watchQuestionsKey, "TRIVIAD_WATCH_QUESTIONS", flags.Lookup("watch-questions"))
	mustBindFlag(winningStreakKey, "TRIVIAD_WINNING_STREAK", flags.Lookup("winning-streak"))
	mustBindFlag(questionExpiryKey, "TRIVIAD_QUESTION_EXPIRY", flags.Lookup("question-expiry"))
	mustBindFlag(sweepIntervalKey, "TRIVIAD_SWEEP_INTERVAL", flags.Lookup("sweep-interval"))
	mustBindFlag(paymentModeKey, "TRIVIAD_PAYMENT_MODE", flags.Lookup("payment-mode"))
	mustBindFlag(dayPassHoursKey, "TRIVIAD_DAY_PASS_HOURS", flags.Lookup("day-pass-hours"))
	mustBindFlag(paymentTimeoutKey, "TRIVIAD_PAYMENT_TIMEOUT", flags.Lookup("payment-timeout"))
	mustBindFlag(localPaymentDelayKey, "TRIVIAD_LOCAL_PAYMENT_DELAY", flags.Lookup("local-payment-delay"))
	mustBindFlag(adminPasswordKey, "TRIVIAD_ADMIN_PASSWORD", flags.Lookup("admin-password"))
	mustBindFlag(dataDirKey, "TRIVIAD_DATA_DIR", flags.Lookup("data-dir"))
	mustBindFlag(logLevelKey, "TRIVIAD_LOG_LEVEL", flags.Lookup("log-level"))

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func mustBindFlag(key, env string, flag *pflag.Flag) {
	if flag == nil {
		panic(fmt.Sprintf("flag for %q is not defined", key))
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
	if err := viper.BindEnv(key, env); err != nil {
		panic(err)
	}
}

func loadConfigFile(path string) error {
	if strings.TrimSpace(path) != "" {
		viper.SetConfigFile(path)
		return viper.ReadInConfig()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, ".triviad", "triviad.yaml"))
	if err := viper.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func configFromViper() triviad.Config {
	return triviad.Config{
		Listen:            viper.GetString(listenKey),
		MCPPath:           viper.GetString(mcpPathKey),
		MetricsListen:     viper.GetString(metricsListenKey),
		QuestionsFile:     viper.GetString(questionsKey),
		WatchQuestions:    viper.GetBool(watchQuestionsKey),
		WinningStreak:     viper.GetInt(winningStreakKey),
		QuestionExpiry:    viper.GetDuration(questionExpiryKey),
		SweepInterval:     viper.GetDuration(sweepIntervalKey),
		PaymentMode:       viper.GetString(paymentModeKey),
		DayPassHours:      viper.GetInt(dayPassHoursKey),
		PaymentTimeout:    viper.GetDuration(paymentTimeoutKey),
		LocalPaymentDelay: viper.GetDuration(localPaymentDelayKey),
		AdminPassword:     viper.GetString(adminPasswordKey),
		DataDir:           viper.GetString(dataDirKey),
	}
}

func runServer(ctx context.Context, cfg triviad.Config, logger pslog.Logger) error {
	lifecycleLog := svcfields.WithSubsystem(logger, "server.lifecycle.init")
	lifecycleLog.Info("welcome to triviad", "pid", os.Getpid(), "payment_mode", cfg.PaymentMode)

	catalog := triviad.DefaultCatalog()
	if strings.TrimSpace(cfg.QuestionsFile) != "" {
		questions, err := triviad.LoadQuestionsFile(cfg.QuestionsFile)
		if err != nil {
			return err
		}
		catalog, err = triviad.NewCatalog(questions)
		if err != nil {
			return err
		}
		lifecycleLog.Info("loaded questions file", "path", cfg.QuestionsFile, "count", len(questions))
		if cfg.WatchQuestions {
			watchLog := svcfields.WithSubsystem(logger, "catalog.watch")
			if err := triviad.WatchQuestionsFile(ctx, catalog, cfg.QuestionsFile, watchLog); err != nil {
				return fmt.Errorf("watch questions file: %w", err)
			}
		}
	}

	var metrics *triviad.Metrics
	if strings.TrimSpace(cfg.MetricsListen) != "" {
		registry := prometheus.NewRegistry()
		metrics = triviad.NewMetrics(registry)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.MetricsListen, Handler: mux}
		metricsLog := svcfields.WithSubsystem(logger, "server.metrics")
		go func() {
			metricsLog.Info("metrics listener started", "listen", cfg.MetricsListen)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsLog.Error("metrics listener failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	clk := clock.Real{}
	sessions := triviad.NewSessionStore(cfg.QuestionExpiry, clk)
	sweeper := triviad.NewSweeper(sessions, cfg.SweepInterval, clk, svcfields.WithSubsystem(logger, "session.sweeper"), metrics)
	go sweeper.Run(ctx)

	var gate *triviad.AccessGate
	if cfg.PaymentMode == triviad.PaymentModeLocal {
		bridge := triviad.NewLocalBridge(cfg.LocalPaymentDelay, clk, svcfields.WithSubsystem(logger, "payment.bridge.local"))
		var err error
		gate, err = triviad.NewAccessGate(triviad.AccessGateConfig{
			Bridge:         bridge,
			PassDuration:   cfg.DayPassDuration(),
			PaymentTimeout: cfg.PaymentTimeout,
			Clock:          clk,
			Logger:         svcfields.WithSubsystem(logger, "payment.gate"),
			Metrics:        metrics,
		})
		if err != nil {
			return err
		}
	}

	var wallet triviad.WalletInspector
	if strings.TrimSpace(cfg.DataDir) != "" {
		wallet = triviad.NewFileWallet(cfg.DataDir, svcfields.WithSubsystem(logger, "wallet"))
	}

	svc, err := triviadmcp.NewServer(triviadmcp.NewServerRequest{
		Config: triviadmcp.Config{
			Listen:        cfg.Listen,
			MCPPath:       cfg.MCPPath,
			WinningStreak: cfg.WinningStreak,
			AdminPassword: cfg.AdminPassword,
		},
		Logger:   logger,
		Catalog:  catalog,
		Sessions: sessions,
		Gate:     gate,
		Wallet:   wallet,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
