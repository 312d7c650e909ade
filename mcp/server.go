// Package mcp exposes the trivia engine as MCP tools over streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad"
	"github.com/unicitynetwork/triviad/internal/svcfields"
	"github.com/unicitynetwork/triviad/internal/version"
)

// Config controls the MCP facade runtime behavior.
type Config struct {
	Listen        string
	MCPPath       string
	WinningStreak int
	AdminPassword string
}

// Server is the MCP facade service contract.
type Server interface {
	Run(context.Context) error
}

// NewServerRequest wraps constructor inputs. Catalog and Sessions are
// required; a nil Gate runs the server ungated (free mode) and a nil Wallet
// disables the wallet balance tool.
type NewServerRequest struct {
	Config   Config
	Logger   pslog.Logger
	Catalog  *triviad.Catalog
	Sessions *triviad.SessionStore
	Gate     *triviad.AccessGate
	Wallet   triviad.WalletInspector
	Rand     triviad.Rand
	Metrics  *triviad.Metrics
}

type server struct {
	cfg          Config
	logger       pslog.Logger
	lifecycleLog pslog.Logger
	toolLog      pslog.Logger

	catalog  *triviad.Catalog
	sessions *triviad.SessionStore
	gate     *triviad.AccessGate
	wallet   triviad.WalletInspector
	rand     triviad.Rand
	metrics  *triviad.Metrics

	httpServer  *http.Server
	mcpHTTPPath string
}

// NewServer constructs the trivia MCP facade service.
func NewServer(req NewServerRequest) (Server, error) {
	cfg := req.Config
	applyDefaults(&cfg)
	if req.Catalog == nil {
		return nil, errors.New("mcp server requires a question catalog")
	}
	if req.Sessions == nil {
		return nil, errors.New("mcp server requires a session store")
	}

	logger := req.Logger
	if logger == nil {
		logger = pslog.NewStructured(os.Stderr).With("app", "triviad")
	}
	rng := req.Rand
	if rng == nil {
		rng = triviad.SystemRand{}
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		lifecycleLog: svcfields.WithSubsystem(logger, "server.lifecycle.mcp"),
		toolLog:      svcfields.WithSubsystem(logger, "mcp.tools"),
		catalog:      req.Catalog,
		sessions:     req.Sessions,
		gate:         req.Gate,
		wallet:       req.Wallet,
		rand:         rng,
		metrics:      req.Metrics,
		mcpHTTPPath:  cleanHTTPPath(cfg.MCPPath),
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Listen,
		Handler: s.buildMux(),
	}
	return s, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = triviad.DefaultListen
	}
	if strings.TrimSpace(cfg.MCPPath) == "" {
		cfg.MCPPath = triviad.DefaultMCPPath
	}
	if cfg.WinningStreak <= 0 {
		cfg.WinningStreak = triviad.DefaultWinningStreak
	}
}

func cleanHTTPPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return triviad.DefaultMCPPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (s *server) paymentEnabled() bool {
	return s.gate != nil
}

func (s *server) Run(ctx context.Context) error {
	s.lifecycleLog.Info("starting trivia MCP server",
		"listen", s.cfg.Listen,
		"mcp_path", s.mcpHTTPPath,
		"questions", s.catalog.Len(),
		"winning_streak", s.cfg.WinningStreak,
		"payment_enabled", s.paymentEnabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), triviad.DefaultShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) buildMux() *http.ServeMux {
	mcpSrv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "trivia",
		Version: version.Current(),
	}, &mcpsdk.ServerOptions{
		Instructions: serverInstructions(s.cfg, s.paymentEnabled()),
	})
	s.registerTools(mcpSrv)

	streamable := mcpsdk.NewStreamableHTTPHandler(func(_ *http.Request) *mcpsdk.Server {
		return mcpSrv
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(s.mcpHTTPPath, streamable)
	return mux
}

func serverInstructions(cfg Config, paymentEnabled bool) string {
	var b strings.Builder
	b.WriteString("Trivia tool server. Ask for a question with get_question, then check the ")
	b.WriteString("user's reply with check_answer. Each user has at most one question in ")
	fmt.Fprintf(&b, "flight; %d correct answers in a row earn an award. ", cfg.WinningStreak)
	if paymentEnabled {
		b.WriteString("Access requires a day pass: when get_question reports payment_required, ")
		b.WriteString("tell the user to approve the payment in their wallet and confirm with ")
		b.WriteString("confirm_payment using the returned correlation id.")
	} else {
		b.WriteString("Payment is not required on this server.")
	}
	return b.String()
}

func (s *server) registerTools(srv *mcpsdk.Server) {
	descriptions := buildToolDescriptions()
	desc := func(name string) string {
		description, ok := descriptions[name]
		if !ok {
			panic(fmt.Sprintf("missing MCP tool description for %q", name))
		}
		return description
	}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetCategories,
		Description: desc(toolGetCategories),
	}, withStructuredToolErrors(s.handleGetCategoriesTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetQuestion,
		Description: desc(toolGetQuestion),
	}, withStructuredToolErrors(s.handleGetQuestionTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCheckAnswer,
		Description: desc(toolCheckAnswer),
	}, withStructuredToolErrors(s.handleCheckAnswerTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetScore,
		Description: desc(toolGetScore),
	}, withStructuredToolErrors(s.handleGetScoreTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolCheckAccess,
		Description: desc(toolCheckAccess),
	}, withStructuredToolErrors(s.handleCheckAccessTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolConfirmPayment,
		Description: desc(toolConfirmPayment),
	}, withStructuredToolErrors(s.handleConfirmPaymentTool))
	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        toolGetWalletBalance,
		Description: desc(toolGetWalletBalance),
	}, withStructuredToolErrors(s.handleGetWalletBalanceTool))
}

// logStateOperation mirrors per-tool state logging: every mutation of
// session state is logged with the normalized user id and the state sizes.
func (s *server) logStateOperation(operation, userID string, extra ...any) {
	questions, scores := s.sessions.Sizes()
	fields := append([]any{
		"operation", operation,
		"user_id", userID,
		"active_questions", questions,
		"tracked_scores", scores,
	}, extra...)
	s.toolLog.Debug("trivia state operation", fields...)
}
