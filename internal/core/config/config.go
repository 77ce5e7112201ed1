package config

import "time"

const (
	DriverManifest  = "manifest"
	DriverSQLite    = "sqlite"
	DriverBuildInfo = "buildinfo"

	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

type Config struct {
	Version       int           `toml:"version"`
	Scan          Scan          `toml:"scan"`
	Registry      Registry      `toml:"registry"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
}

type Scan struct {
	Include          []string `toml:"include"`
	Exclude          []string `toml:"exclude"`
	Ignore           []string `toml:"ignore"`
	Seeds            []string `toml:"seeds"`
	Issuer           string   `toml:"issuer"`
	DeepScan         bool     `toml:"deep_scan"`
	ForceLoad        bool     `toml:"force_load"`
	ExcludeToolchain bool     `toml:"exclude_toolchain"`
	ExcludeTestify   bool     `toml:"exclude_testify"`
}

type Registry struct {
	Driver           string        `toml:"driver"`
	ManifestDir      string        `toml:"manifest_dir"`
	ManifestPatterns []string      `toml:"manifest_patterns"`
	DBPath           string        `toml:"db_path"`
	BusyTimeout      time.Duration `toml:"busy_timeout"`
	ImportManifests  bool          `toml:"import_manifests"`
	ModGraph         string        `toml:"mod_graph"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"`
	Burst    int           `toml:"burst"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
	ServiceName   string `toml:"service_name"`
}

// DefaultConfig returns a config with every default applied and no include
// patterns.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
