package triviad

import (
	"testing"
	"time"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Parallel()
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Listen != DefaultListen {
		t.Fatalf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
	if cfg.MCPPath != DefaultMCPPath {
		t.Fatalf("MCPPath = %q, want %q", cfg.MCPPath, DefaultMCPPath)
	}
	if cfg.PaymentMode != PaymentModeOff {
		t.Fatalf("PaymentMode = %q, want %q", cfg.PaymentMode, PaymentModeOff)
	}
	if cfg.WinningStreak != DefaultWinningStreak {
		t.Fatalf("WinningStreak = %d, want %d", cfg.WinningStreak, DefaultWinningStreak)
	}
	if cfg.QuestionExpiry != DefaultQuestionExpiry {
		t.Fatalf("QuestionExpiry = %v, want %v", cfg.QuestionExpiry, DefaultQuestionExpiry)
	}
	if cfg.PaymentTimeout != DefaultPaymentTimeout {
		t.Fatalf("PaymentTimeout = %v, want %v", cfg.PaymentTimeout, DefaultPaymentTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() after defaults: %v", err)
	}
}

func TestConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Listen:        ":9999",
		WinningStreak: 3,
		PaymentMode:   PaymentModeLocal,
	}
	cfg.ApplyDefaults()
	if cfg.Listen != ":9999" {
		t.Fatalf("Listen = %q, want :9999", cfg.Listen)
	}
	if cfg.WinningStreak != 3 {
		t.Fatalf("WinningStreak = %d, want 3", cfg.WinningStreak)
	}
	if cfg.PaymentMode != PaymentModeLocal {
		t.Fatalf("PaymentMode = %q, want %q", cfg.PaymentMode, PaymentModeLocal)
	}
}

func TestConfigValidateRejectsUnknownPaymentMode(t *testing.T) {
	t.Parallel()
	cfg := Config{PaymentMode: "stripe"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown payment mode")
	}
}

func TestConfigDayPassDuration(t *testing.T) {
	t.Parallel()
	cfg := Config{DayPassHours: 24}
	if got := cfg.DayPassDuration(); got != 24*time.Hour {
		t.Fatalf("DayPassDuration() = %v, want 24h", got)
	}
}
