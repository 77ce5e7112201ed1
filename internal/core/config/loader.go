package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	coreerrors "modscan/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML config and applies defaults. Relative paths are
// resolved against the config file's directory. Callers run Validate once
// env and flag overrides have been layered on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode config"),
			coreerrors.CtxPath, path)
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Registry.Driver) == "" {
		cfg.Registry.Driver = DriverManifest
	}
	if strings.TrimSpace(cfg.Registry.ManifestDir) == "" {
		cfg.Registry.ManifestDir = "modules"
	}
	if len(cfg.Registry.ManifestPatterns) == 0 {
		cfg.Registry.ManifestPatterns = []string{"*.toml"}
	}
	if strings.TrimSpace(cfg.Registry.DBPath) == "" {
		cfg.Registry.DBPath = "data/catalog.db"
	}
	if cfg.Registry.BusyTimeout <= 0 {
		cfg.Registry.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/history.db"
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 1
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = FormatText
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "modscan"
	}
}

func normalize(cfg *Config) {
	cfg.Registry.Driver = strings.ToLower(strings.TrimSpace(cfg.Registry.Driver))
	cfg.Registry.ManifestDir = strings.TrimSpace(cfg.Registry.ManifestDir)
	cfg.Registry.DBPath = strings.TrimSpace(cfg.Registry.DBPath)
	cfg.Registry.ModGraph = strings.TrimSpace(cfg.Registry.ModGraph)
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	// Seeds name modules; blank entries carry no identity.
	seeds := make([]string, 0, len(cfg.Scan.Seeds))
	for _, s := range cfg.Scan.Seeds {
		if s = strings.TrimSpace(s); s != "" {
			seeds = append(seeds, s)
		}
	}
	cfg.Scan.Seeds = seeds
	cfg.Scan.Issuer = strings.TrimSpace(cfg.Scan.Issuer)
}

func resolvePaths(cfg *Config, base string) {
	cfg.Registry.ManifestDir = ResolveRelative(base, cfg.Registry.ManifestDir)
	cfg.Registry.DBPath = ResolveRelative(base, cfg.Registry.DBPath)
	if cfg.Registry.ModGraph != "" {
		cfg.Registry.ModGraph = ResolveRelative(base, cfg.Registry.ModGraph)
	}
	cfg.History.Path = ResolveRelative(base, cfg.History.Path)
	if cfg.Output.Path != "" {
		cfg.Output.Path = ResolveRelative(base, cfg.Output.Path)
	}
}

// ResolveRelative joins path onto base unless it is already absolute.
func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}
