package main

import (
	"testing"

	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad"
)

func TestRootCommandFlagDefaults(t *testing.T) {
	root := newRootCommand(pslog.NoopLogger())
	cases := []struct {
		name string
		want string
	}{
		{"listen", triviad.DefaultListen},
		{"mcp-path", triviad.DefaultMCPPath},
		{"payment-mode", triviad.PaymentModeOff},
		{"winning-streak", "10"},
		{"day-pass-hours", "24"},
		{"payment-timeout", "5m0s"},
		{"question-expiry", "15m0s"},
		{"sweep-interval", "5m0s"},
		{"local-payment-delay", "5s"},
		{"log-level", "info"},
	}
	for _, tc := range cases {
		flag := root.Flags().Lookup(tc.name)
		if flag == nil {
			t.Fatalf("flag --%s is not defined", tc.name)
		}
		if flag.DefValue != tc.want {
			t.Fatalf("flag --%s default = %q, want %q", tc.name, flag.DefValue, tc.want)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Fatal("persistent flag --config is not defined")
	}
}

func TestRootCommandHasVersionSubcommand(t *testing.T) {
	root := newRootCommand(pslog.NoopLogger())
	for _, sub := range root.Commands() {
		if sub.Name() == "version" {
			return
		}
	}
	t.Fatal("version subcommand not registered")
}
