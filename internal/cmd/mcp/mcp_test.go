package mcp

import (
	"context"
	"flag"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("mcp", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "localhost:8090" {
		t.Fatalf("addr = %q, want localhost:8090", cfg.Addr)
	}
	if cfg.HTTPAddr != "localhost:8081" {
		t.Fatalf("http addr = %q, want localhost:8081", cfg.HTTPAddr)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("transport = %q, want stdio", cfg.Transport)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("WAYBILL_LEDGER_TOKEN", "tok")
	t.Setenv("WAYBILL_MCP_TRANSPORT", "http")
	cfg, err := ParseConfig(flag.NewFlagSet("mcp", flag.ContinueOnError), []string{"-addr", "ledger:9000"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "ledger:9000" || cfg.Token != "tok" || cfg.Transport != "http" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	err := Run(context.Background(), Config{Addr: "localhost:0", Transport: "carrier-pigeon"})
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("err = %v, want not supported", err)
	}
}
