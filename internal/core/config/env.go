package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file without overriding variables
// already set in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: MODSCAN_[SECTION]_[KEY] (e.g., MODSCAN_REGISTRY_DRIVER).
func ApplyEnvOverrides(cfg *Config) {
	// Scan
	setEnvList(&cfg.Scan.Include, "MODSCAN_SCAN_INCLUDE")
	setEnvList(&cfg.Scan.Exclude, "MODSCAN_SCAN_EXCLUDE")
	setEnvList(&cfg.Scan.Ignore, "MODSCAN_SCAN_IGNORE")
	setEnvList(&cfg.Scan.Seeds, "MODSCAN_SCAN_SEEDS")
	setEnvBool(&cfg.Scan.DeepScan, "MODSCAN_SCAN_DEEP_SCAN")
	setEnvBool(&cfg.Scan.ForceLoad, "MODSCAN_SCAN_FORCE_LOAD")
	setEnvBool(&cfg.Scan.ExcludeToolchain, "MODSCAN_SCAN_EXCLUDE_TOOLCHAIN")
	setEnvBool(&cfg.Scan.ExcludeTestify, "MODSCAN_SCAN_EXCLUDE_TESTIFY")

	// Registry
	setEnvString(&cfg.Registry.Driver, "MODSCAN_REGISTRY_DRIVER")
	setEnvString(&cfg.Registry.ManifestDir, "MODSCAN_REGISTRY_MANIFEST_DIR")
	setEnvString(&cfg.Registry.DBPath, "MODSCAN_REGISTRY_DB_PATH")
	setEnvDuration(&cfg.Registry.BusyTimeout, "MODSCAN_REGISTRY_BUSY_TIMEOUT")
	setEnvString(&cfg.Registry.ModGraph, "MODSCAN_REGISTRY_MOD_GRAPH")

	// History
	setEnvBool(&cfg.History.Enabled, "MODSCAN_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "MODSCAN_HISTORY_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "MODSCAN_WATCH_DEBOUNCE")

	// Output
	setEnvString(&cfg.Output.Format, "MODSCAN_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "MODSCAN_OUTPUT_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "MODSCAN_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "MODSCAN_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "MODSCAN_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "MODSCAN_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "MODSCAN_OBSERVABILITY_ENABLE_METRICS")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
