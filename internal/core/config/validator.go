package config

import (
	"fmt"
	"strings"

	coreerrors "modscan/internal/core/errors"

	"github.com/gobwas/glob"
)

// Validate checks a config after defaults have been applied.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateRegistry,
		validateWatch,
		validateOutput,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateRegistry(cfg *Config) error {
	reg := cfg.Registry
	switch reg.Driver {
	case DriverManifest:
		if reg.ManifestDir == "" {
			return fmt.Errorf("registry.manifest_dir must not be empty")
		}
	case DriverSQLite:
		if reg.DBPath == "" {
			return fmt.Errorf("registry.db_path must not be empty")
		}
	case DriverBuildInfo:
	default:
		return fmt.Errorf("registry.driver must be one of: %s, %s, %s", DriverManifest, DriverSQLite, DriverBuildInfo)
	}

	for i, p := range reg.ManifestPatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("registry.manifest_patterns[%d] must not be empty", i)
		}
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("registry.manifest_patterns[%d] %q: %w", i, p, err)
		}
	}
	if reg.ImportManifests && reg.Driver != DriverSQLite {
		return fmt.Errorf("registry.import_manifests requires registry.driver=%s", DriverSQLite)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatText, FormatJSON, FormatMarkdown:
		return nil
	default:
		return fmt.Errorf("output.format must be one of: %s, %s, %s", FormatText, FormatJSON, FormatMarkdown)
	}
}

func validateObservability(cfg *Config) error {
	obs := cfg.Observability
	if obs.Port < 1 || obs.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", obs.Port)
	}
	if obs.EnableTracing && obs.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when enable_tracing=true")
	}
	return nil
}
