package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreerrors "modscan/internal/core/errors"
	"modscan/internal/core/ports"
	"modscan/internal/data/history"
	"modscan/internal/engine/module"
	"modscan/internal/engine/scan"
	"modscan/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type scanService struct {
	app *App
}

var _ ports.ScanService = (*scanService)(nil)

func NewScanService(app *App) ports.ScanService {
	return &scanService{app: app}
}

func (a *App) ScanService() ports.ScanService {
	return NewScanService(a)
}

func (s *scanService) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanService.RunScan",
		trace.WithAttributes(attribute.String("registry.driver", s.driver())))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}
	if s.app == nil || s.app.Config == nil {
		return ports.ScanResult{}, fmt.Errorf("app is required")
	}

	reg := s.app.Registry()
	cfg, err := s.scanConfig(reg, req)
	if err != nil {
		return ports.ScanResult{}, coreerrors.AddContext(err, coreerrors.CtxOperation, "resolve_seeds")
	}

	startedAt := time.Now().UTC()
	res, err := s.app.scanner.Run(ctx, cfg, reg)
	if err != nil {
		return ports.ScanResult{}, coreerrors.AddContext(err, coreerrors.CtxOperation, "scan")
	}

	out := ports.ScanResult{
		ScanID:    uuid.NewString(),
		Driver:    s.driver(),
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		DeepScan:  cfg.DeepScan,
		ForceLoad: cfg.ForceLoad,
		Modules:   module.Identities(res.Modules),
		Stats:     res.Stats,
		Warnings:  make([]string, 0),
	}
	span.SetAttributes(
		attribute.String("scan.id", out.ScanID),
		attribute.Int("scan.results", len(out.Modules)),
	)

	if s.app.history != nil {
		if err := s.app.history.SaveScan(snapshotOf(out)); err != nil {
			s.app.logger.Warn("failed to record scan history", "scan_id", out.ScanID, "error", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("record history: %v", err))
		}
	}
	return out, nil
}

func (s *scanService) History(ctx context.Context, limit int) ([]history.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app == nil || s.app.history == nil {
		return nil, coreerrors.New(coreerrors.CodeNotSupported, "scan history is disabled")
	}
	scans, err := s.app.history.LoadScans(limit)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "load scan history")
	}
	return scans, nil
}

func (s *scanService) driver() string {
	if s.app == nil || s.app.Config == nil {
		return ""
	}
	return s.app.Config.Registry.Driver
}

// scanConfig merges the [scan] section with req and resolves seed and issuer
// identities through reg.
func (s *scanService) scanConfig(reg module.Registry, req ports.ScanRequest) (scan.Config, error) {
	sc := s.app.Config.Scan

	cfg := scan.NewConfig().
		WithInclude(sc.Include...).
		WithInclude(req.Include...).
		WithExclude(sc.Exclude...).
		WithExclude(req.Exclude...).
		WithIgnore(sc.Ignore...).
		WithIgnore(req.Ignore...)
	if sc.ExcludeToolchain {
		cfg = cfg.WithExcludeToolchain()
	}
	if sc.ExcludeTestify {
		cfg = cfg.WithExcludeTestify()
	}
	if sc.DeepScan || req.DeepScan {
		cfg = cfg.WithDeepScan()
	}
	if sc.ForceLoad || req.ForceLoad {
		cfg = cfg.WithForceLoad()
	}
	if reg == nil {
		return cfg, nil
	}

	seeds, err := resolveAll(reg, append(append([]string{}, sc.Seeds...), req.Seeds...))
	if err != nil {
		return scan.Config{}, err
	}
	cfg = cfg.WithSeeds(seeds...)

	if issuer := strings.TrimSpace(sc.Issuer); issuer != "" {
		h, err := resolve(reg, issuer)
		if err != nil {
			return scan.Config{}, err
		}
		cfg = cfg.WithIssuer(h)
	}
	return cfg, nil
}

func resolveAll(reg module.Registry, ids []string) ([]module.Handle, error) {
	out := make([]module.Handle, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		h, err := resolve(reg, id)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func resolve(reg module.Registry, id string) (module.Handle, error) {
	h, err := reg.Load(id)
	if err != nil {
		if coreerrors.IsCode(err, coreerrors.CodeNotFound) {
			return nil, coreerrors.AddContext(
				coreerrors.Wrap(err, coreerrors.CodeNotFound, "configured seed cannot be resolved"),
				coreerrors.CtxModule, id)
		}
		return nil, coreerrors.AddContext(err, coreerrors.CtxModule, id)
	}
	return h, nil
}

func snapshotOf(r ports.ScanResult) history.Snapshot {
	return history.Snapshot{
		ScanID:            r.ScanID,
		Timestamp:         r.StartedAt,
		Driver:            r.Driver,
		DeepScan:          r.DeepScan,
		ForceLoad:         r.ForceLoad,
		Seeds:             r.Stats.Seeds,
		Visited:           r.Stats.Visited,
		ReferencesDropped: r.Stats.ReferencesDropped,
		ResolveFailures:   r.Stats.ResolveFailures,
		ForceLoadFailures: r.Stats.ForceLoadFailures,
		Results:           r.Stats.Results,
		Duration:          r.Duration,
		Modules:           r.Modules,
	}
}
