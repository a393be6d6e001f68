package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewAppliesLevel(t *testing.T) {
	logger, err := New(Config{Level: "warn", Format: FormatJSON}, "ledger")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("expected warn to be enabled")
	}
}

func TestNewConsoleFormat(t *testing.T) {
	if _, err := New(Config{Level: "debug", Format: FormatConsole}, ""); err != nil {
		t.Fatalf("new console logger: %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}, "ledger"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(Config{Level: "info", Format: "xml"}, "ledger"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
