package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/server"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestBuildServiceDefaults(t *testing.T) {
	testlog.Start(t)
	svc, err := buildService(options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if names := svc.Registry().Names(); len(names) != 3 {
		t.Fatalf("names=%v", names)
	}
}

func TestBuildServiceFlagsOverrideConfig(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "server.toml")
	if err := os.WriteFile(cfgPath, []byte("read_buffer = 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := buildService(options{configPath: cfgPath}); !errors.Is(err, server.ErrInvalidReadBuffer) {
		t.Fatalf("expected ErrInvalidReadBuffer, got %v", err)
	}

	catalogPath := filepath.Join(dir, "catalog.toml")
	if err := config.WriteTemplate(catalogPath, "catalog", false); err != nil {
		t.Fatalf("template: %v", err)
	}
	svc, err := buildService(options{listenAddr: "127.0.0.1:0", catalogPath: catalogPath})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, ok := svc.Registry().Code("lights"); !ok {
		t.Fatalf("catalog registry missing lights")
	}
}
