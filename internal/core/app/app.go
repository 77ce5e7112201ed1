package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"modscan/internal/core/config"
	coreerrors "modscan/internal/core/errors"
	"modscan/internal/core/ports"
	"modscan/internal/data/history"
	"modscan/internal/engine/module"
	"modscan/internal/engine/scan"
	"modscan/internal/registry/buildinfo"
	"modscan/internal/registry/catalog"
	"modscan/internal/registry/manifest"
	"modscan/internal/shared/util"
)

type App struct {
	Config *config.Config

	logger  *slog.Logger
	scanner *scan.Scanner
	history ports.HistoryStore
	limiter *util.Limiter

	regMu    sync.RWMutex
	registry module.Registry
	closer   io.Closer

	historyCloser io.Closer
}

type Option func(*App)

// WithRegistry bypasses the configured driver.
func WithRegistry(reg module.Registry) Option {
	return func(a *App) { a.registry = reg }
}

// WithHistory replaces the configured history store.
func WithHistory(store ports.HistoryStore) Option {
	return func(a *App) { a.history = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, coreerrors.New(coreerrors.CodeValidationError, "config is required")
	}

	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.scanner = scan.NewScanner(a.logger)
	a.limiter = util.NewLimiter(cfg.Watch.Rate, cfg.Watch.Burst)

	if a.registry == nil {
		reg, closer, err := OpenRegistry(cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.registry = reg
		a.closer = closer
	}

	if a.history == nil && cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			a.closeRegistry()
			msg := "open history store"
			if history.IsCorruptError(err) {
				msg = "history database is corrupt; move it aside or set history.path"
			}
			return nil, coreerrors.AddContext(
				coreerrors.Wrap(err, coreerrors.CodeInternal, msg),
				coreerrors.CtxPath, cfg.History.Path)
		}
		a.history = store
		a.historyCloser = store
	}

	return a, nil
}

// Registry returns the registry the next scan will run against.
func (a *App) Registry() module.Registry {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return a.registry
}

// ReloadRegistry rebuilds the registry from the configured driver and swaps it
// in. The previous registry is closed after the swap.
func (a *App) ReloadRegistry() error {
	reg, closer, err := OpenRegistry(a.Config, a.logger)
	if err != nil {
		return err
	}

	a.regMu.Lock()
	old := a.closer
	a.registry = reg
	a.closer = closer
	a.regMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			a.logger.Warn("close previous registry", "error", err)
		}
	}
	return nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []string
	if err := a.closeRegistry(); err != nil {
		errs = append(errs, err.Error())
	}
	if a.historyCloser != nil {
		if err := a.historyCloser.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %s", strings.Join(errs, "; "))
	}
	return ctx.Err()
}

func (a *App) closeRegistry() error {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// OpenRegistry builds the registry selected by cfg.Registry.Driver. The
// returned closer is nil when the registry holds no resources.
func OpenRegistry(cfg *config.Config, logger *slog.Logger) (module.Registry, io.Closer, error) {
	rc := cfg.Registry
	switch rc.Driver {
	case config.DriverManifest:
		reg, err := manifest.LoadDir(rc.ManifestDir, rc.ManifestPatterns)
		if err != nil {
			return nil, nil, coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
		}
		return reg, nil, nil

	case config.DriverSQLite:
		cat, err := catalog.Open(rc.DBPath, rc.BusyTimeout, logger)
		if err != nil {
			err = coreerrors.Wrap(err, coreerrors.CodeInternal, "open module catalog")
			err = coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
			return nil, nil, coreerrors.AddContext(err, coreerrors.CtxPath, rc.DBPath)
		}
		if rc.ImportManifests {
			if err := importManifests(cat, rc.ManifestDir, rc.ManifestPatterns); err != nil {
				_ = cat.Close()
				return nil, nil, coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
			}
		}
		return cat, cat, nil

	case config.DriverBuildInfo:
		reg, err := buildinfo.Current(rc.ModGraph)
		if err != nil {
			return nil, nil, coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
		}
		return reg, nil, nil
	}

	err := coreerrors.New(coreerrors.CodeNotSupported, "unknown registry driver")
	return nil, nil, coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
}

func importManifests(cat *catalog.Catalog, dir string, patterns []string) error {
	f, err := manifest.Read(dir, patterns)
	if err != nil {
		return err
	}
	records := make([]catalog.Record, 0, len(f.Modules))
	for _, e := range f.Modules {
		records = append(records, catalog.Record{
			Module: module.Module{Name: e.Name, Refs: e.References},
			Loaded: e.Loaded,
		})
	}
	if err := cat.Import(records...); err != nil {
		err = coreerrors.Wrap(err, coreerrors.CodeInternal, "import manifests into catalog")
		return coreerrors.AddContext(err, coreerrors.CtxPath, dir)
	}
	if f.Entry != "" {
		if err := cat.SetEntry(f.Entry); err != nil {
			return err
		}
	}
	return nil
}
