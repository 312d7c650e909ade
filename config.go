package triviad

import (
	"fmt"
	"strings"
	"time"
)

// Payment modes accepted by Config.PaymentMode.
const (
	// PaymentModeOff runs the server ungated (free mode).
	PaymentModeOff = "off"
	// PaymentModeLocal simulates the payment network in-process for development.
	PaymentModeLocal = "local"
)

const (
	// DefaultListen is the default TCP endpoint the MCP server binds to.
	DefaultListen = ":3001"
	// DefaultMCPPath is the HTTP path serving the streamable MCP endpoint.
	DefaultMCPPath = "/mcp"
	// DefaultMetricsListen is the default metrics endpoint (Prometheus scrape).
	// Empty disables metrics unless explicitly configured.
	DefaultMetricsListen = ""
	// DefaultWinningStreak is the number of consecutive correct answers that
	// earns an award and resets the streak.
	DefaultWinningStreak = 10
	// DefaultDayPassHours controls how long a confirmed payment grants access.
	DefaultDayPassHours = 24
	// DefaultPaymentTimeout bounds how long a payment confirmation may be awaited.
	DefaultPaymentTimeout = 5 * time.Minute
	// DefaultQuestionExpiry is the age past which an unanswered question is stale.
	DefaultQuestionExpiry = 15 * time.Minute
	// DefaultSweepInterval sets the tick frequency for stale-question sweeps.
	DefaultSweepInterval = 5 * time.Minute
	// DefaultLocalPaymentDelay is how long the local bridge waits before
	// auto-approving a simulated payment.
	DefaultLocalPaymentDelay = 5 * time.Second
	// DefaultShutdownTimeout caps graceful HTTP shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config carries the full triviad runtime configuration. Zero values are
// replaced by defaults in ApplyDefaults.
type Config struct {
	Listen        string
	MCPPath       string
	MetricsListen string

	// QuestionsFile optionally replaces the embedded catalog. When
	// WatchQuestions is set the file is reloaded on change.
	QuestionsFile  string
	WatchQuestions bool

	WinningStreak  int
	QuestionExpiry time.Duration
	SweepInterval  time.Duration

	PaymentMode       string
	DayPassHours      int
	PaymentTimeout    time.Duration
	LocalPaymentDelay time.Duration

	// AdminPassword guards get_wallet_balance. Empty disables the tool.
	AdminPassword string
	// DataDir is where the wallet token files live (<DataDir>/tokens).
	DataDir string
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = DefaultListen
	}
	if strings.TrimSpace(c.MCPPath) == "" {
		c.MCPPath = DefaultMCPPath
	}
	if strings.TrimSpace(c.PaymentMode) == "" {
		c.PaymentMode = PaymentModeOff
	}
	if c.WinningStreak <= 0 {
		c.WinningStreak = DefaultWinningStreak
	}
	if c.DayPassHours <= 0 {
		c.DayPassHours = DefaultDayPassHours
	}
	if c.PaymentTimeout <= 0 {
		c.PaymentTimeout = DefaultPaymentTimeout
	}
	if c.QuestionExpiry <= 0 {
		c.QuestionExpiry = DefaultQuestionExpiry
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.LocalPaymentDelay <= 0 {
		c.LocalPaymentDelay = DefaultLocalPaymentDelay
	}
}

// Validate reports configuration errors that defaults cannot repair.
func (c Config) Validate() error {
	switch strings.TrimSpace(c.PaymentMode) {
	case PaymentModeOff, PaymentModeLocal:
	default:
		return fmt.Errorf("payment mode %q is not supported (use %q or %q)", c.PaymentMode, PaymentModeOff, PaymentModeLocal)
	}
	return nil
}

// DayPassDuration converts the configured day-pass hours to a duration.
func (c Config) DayPassDuration() time.Duration {
	return time.Duration(c.DayPassHours) * time.Hour
}
