package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/protocol/schema"
	"github.com/danmuck/edgewire/internal/server"
	"github.com/rs/zerolog/log"
)

type options struct {
	configPath  string
	listenAddr  string
	adminAddr   string
	catalogPath string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "server config path (toml)")
	flag.StringVar(&opts.listenAddr, "listen", "", "ingest listen address (overrides config)")
	flag.StringVar(&opts.adminAddr, "admin", "", "admin http address (overrides config)")
	flag.StringVar(&opts.catalogPath, "catalog", "", "message catalog path (overrides config)")
	flag.Parse()

	logging.ConfigureRuntime()

	svc, err := buildService(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "wirectl: %v\n", err)
		os.Exit(1)
	}
}

// buildService resolves config file, flag overrides and catalog into a Service.
func buildService(opts options) (*server.Service, error) {
	cfg := server.DefaultServiceConfig()
	if path := strings.TrimSpace(opts.configPath); path != "" {
		loaded, err := server.LoadServiceConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(opts.listenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(opts.adminAddr); v != "" {
		cfg.AdminAddr = v
	}
	if v := strings.TrimSpace(opts.catalogPath); v != "" {
		cfg.CatalogPath = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var reg *schema.Registry
	if cfg.CatalogPath != "" {
		loaded, err := config.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		reg = loaded
		log.Info().Str("path", cfg.CatalogPath).Strs("schemas", reg.Names()).Msg("wirectl catalog loaded")
	}
	return server.NewService(cfg, reg, nil), nil
}
