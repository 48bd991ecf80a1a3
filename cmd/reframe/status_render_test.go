package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "pid 42", false)
	if !strings.Contains(line, "Daemon:") || !strings.Contains(line, "[OK] pid 42") {
		t.Fatalf("unexpected line %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI codes, got %q", line)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Daemon", statusError, "stopped", true)
	if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected red wrapping, got %q", line)
	}
}

func TestDisplayStatus(t *testing.T) {
	cases := map[string]string{
		"pending":  "Pending",
		"review":   "Review",
		" failed ": "Failed",
	}
	for input, expected := range cases {
		if got := displayStatus(input); got != expected {
			t.Fatalf("displayStatus(%q) = %q, expected %q", input, got, expected)
		}
	}
}
