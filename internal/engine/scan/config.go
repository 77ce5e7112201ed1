package scan

import (
	"fmt"

	coreerrors "modscan/internal/core/errors"
	"modscan/internal/engine/filter"
	"modscan/internal/engine/module"
)

// Config describes one scan. It is a plain value: every With method returns
// an updated copy and never touches the receiver's slices.
type Config struct {
	Include []string
	Exclude []string
	Ignore  []string

	// Seeds are scanned in order before the issuer and the registry's
	// loaded modules.
	Seeds []module.Handle
	// Issuer is the module requesting the scan, if known.
	Issuer module.Handle

	DeepScan  bool
	ForceLoad bool
}

func NewConfig() Config {
	return Config{}
}

// WithInclude adds prefix patterns a module identity must start with.
func (c Config) WithInclude(patterns ...string) Config {
	c.Include = appendCopy(c.Include, patterns)
	return c
}

// WithExclude adds prefix patterns that remove a module.
func (c Config) WithExclude(patterns ...string) Config {
	c.Exclude = appendCopy(c.Exclude, patterns)
	return c
}

// WithExcludeToolchain excludes modules that ship with the Go toolchain.
func (c Config) WithExcludeToolchain() Config {
	return c.WithExclude(filter.ToolchainPrefixes...)
}

// WithExcludeTestify excludes the testify modules.
func (c Config) WithExcludeTestify() Config {
	return c.WithExclude(filter.TestifyPrefix)
}

// WithIgnore adds substrings that remove a module wherever they appear in
// its identity.
func (c Config) WithIgnore(names ...string) Config {
	c.Ignore = appendCopy(c.Ignore, names)
	return c
}

func (c Config) WithSeeds(handles ...module.Handle) Config {
	c.Seeds = appendCopy(c.Seeds, handles)
	return c
}

func (c Config) WithIssuer(h module.Handle) Config {
	c.Issuer = h
	return c
}

// WithDeepScan makes the scan follow references transitively. Followed
// references are loaded through the registry.
func (c Config) WithDeepScan() Config {
	c.DeepScan = true
	return c
}

// WithForceLoad loads every selected module through the registry before the
// result is returned.
func (c Config) WithForceLoad() Config {
	c.ForceLoad = true
	return c
}

func (c Config) Filters() filter.Set {
	return filter.Set{Include: c.Include, Exclude: c.Exclude, Ignore: c.Ignore}
}

// Validate rejects seeds that cannot take part in a scan. Patterns are never
// rejected.
func (c Config) Validate() error {
	for i, h := range c.Seeds {
		if !module.Valid(h) {
			err := coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("seeds[%d] must be a module with a non-empty identity", i))
			return coreerrors.AddContext(err, coreerrors.CtxOperation, "validate_config")
		}
	}
	if c.Issuer != nil && !module.Valid(c.Issuer) {
		err := coreerrors.New(coreerrors.CodeValidationError, "issuer must have a non-empty identity")
		return coreerrors.AddContext(err, coreerrors.CtxOperation, "validate_config")
	}
	return nil
}

func appendCopy[T any](base, extra []T) []T {
	out := make([]T, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
