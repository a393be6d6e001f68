package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int    `env:"WAYBILL_TEST_PORT" envDefault:"123"`
	Name string `env:"WAYBILL_TEST_NAME"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("WAYBILL_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvFromIgnoresProcessEnv(t *testing.T) {
	t.Setenv("WAYBILL_TEST_NAME", "from-process")

	var cfg envTestConfig
	if err := ParseEnvFrom(&cfg, map[string]string{"WAYBILL_TEST_PORT": "9"}); err != nil {
		t.Fatalf("parse env from: %v", err)
	}
	if cfg.Port != 9 {
		t.Fatalf("port = %d, want 9", cfg.Port)
	}
	if cfg.Name != "" {
		t.Fatalf("name = %q, want empty", cfg.Name)
	}
}
