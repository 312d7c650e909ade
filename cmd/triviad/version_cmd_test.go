package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommandPrintsModuleAndVersion(t *testing.T) {
	cmd := newVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "triviad") {
		t.Fatalf("version output %q does not name the module", out)
	}
	if len(strings.Fields(out)) != 2 {
		t.Fatalf("version output %q, want \"<module> <version>\"", out)
	}
}
