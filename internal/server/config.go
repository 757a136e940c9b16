package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/edgewire/internal/protocol/dispatch"
)

var (
	ErrInvalidListenAddr  = errors.New("server: invalid listen address")
	ErrInvalidReadBuffer  = errors.New("server: invalid read buffer size")
	ErrInvalidReadTimeout = errors.New("server: invalid read timeout")
)

// ServiceConfig configures the ingest listener and admin surface.
// A zero ReadTimeout disables per-read deadlines.
type ServiceConfig struct {
	ListenAddr  string
	AdminAddr   string
	ReadTimeout time.Duration
	ReadBuffer  int
	CatalogPath string
	CorsOrigins []string
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:  ":9999",
		AdminAddr:   "",
		ReadTimeout: 60 * time.Second,
		ReadBuffer:  dispatch.DefaultReadBuffer,
	}
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrInvalidListenAddr
	}
	if c.ReadBuffer <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReadBuffer, c.ReadBuffer)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidReadTimeout, c.ReadTimeout)
	}
	return nil
}

type fileConfig struct {
	ListenAddr    string   `toml:"listen_addr"`
	AdminAddr     string   `toml:"admin_addr"`
	ReadTimeout   string   `toml:"read_timeout"`
	ReadTimeoutMS int64    `toml:"read_timeout_ms"`
	ReadBuffer    int      `toml:"read_buffer"`
	Catalog       string   `toml:"catalog"`
	CorsOrigins   []string `toml:"cors_origins"`
}

// LoadServiceConfig overlays keys present in the file onto DefaultServiceConfig.
func LoadServiceConfig(path string) (ServiceConfig, error) {
	cfg := DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServiceConfig{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return ServiceConfig{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("read_timeout_ms") {
		cfg.ReadTimeout = time.Duration(raw.ReadTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("read_buffer") {
		cfg.ReadBuffer = raw.ReadBuffer
	}
	if meta.IsDefined("catalog") {
		cfg.CatalogPath = strings.TrimSpace(raw.Catalog)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if err := cfg.Validate(); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
