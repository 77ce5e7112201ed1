// Package scan computes the set of modules selected by a scan configuration:
// a breadth-first walk over seeds and loaded modules, optionally following
// references, followed by a final filter, optional force load and dedup.
package scan

import (
	"context"
	"log/slog"
	"time"

	coreerrors "modscan/internal/core/errors"
	"modscan/internal/engine/module"
	"modscan/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Stats counts what happened during one build.
type Stats struct {
	Seeds             int `json:"seeds"`
	Visited           int `json:"visited"`
	ReferencesSeen    int `json:"references_seen"`
	ReferencesDropped int `json:"references_dropped"`
	ResolveFailures   int `json:"resolve_failures"`
	ForceLoaded       int `json:"force_loaded"`
	ForceLoadFailures int `json:"force_load_failures"`
	Results           int `json:"results"`
}

type Result struct {
	Modules []module.Handle
	Stats   Stats
}

// Scanner runs builds with logging, metrics and tracing around them. It holds
// no per-scan state and may be shared.
type Scanner struct {
	logger *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Build runs a scan with the default scanner.
func Build(cfg Config, reg module.Registry) ([]module.Handle, error) {
	res, err := NewScanner(nil).Run(context.Background(), cfg, reg)
	if err != nil {
		return nil, err
	}
	return res.Modules, nil
}

// Run validates cfg and performs a full traversal against reg. The context
// only carries the trace; the walk itself is not interruptible.
func (s *Scanner) Run(ctx context.Context, cfg Config, reg module.Registry) (Result, error) {
	_, span := observability.Tracer.Start(ctx, "scan.Run", trace.WithAttributes(
		attribute.Bool("scan.deep", cfg.DeepScan),
		attribute.Bool("scan.force_load", cfg.ForceLoad),
		attribute.Int("scan.include_patterns", len(cfg.Include)),
	))
	defer span.End()

	if reg == nil {
		observability.ScansTotal.WithLabelValues("invalid").Inc()
		return Result{}, coreerrors.New(coreerrors.CodeValidationError, "registry is required")
	}
	if err := cfg.Validate(); err != nil {
		observability.ScansTotal.WithLabelValues("invalid").Inc()
		span.RecordError(err)
		return Result{}, err
	}

	start := time.Now()
	var stats Stats
	candidates := traverse(cfg, reg, s.logger, &stats)
	modules := finalize(cfg, candidates, reg, s.logger, &stats)
	elapsed := time.Since(start)

	observability.ScansTotal.WithLabelValues("ok").Inc()
	observability.ScanDuration.Observe(elapsed.Seconds())
	observability.ModulesVisited.Set(float64(stats.Visited))
	observability.ResultModules.Set(float64(stats.Results))
	span.SetAttributes(
		attribute.Int("scan.visited", stats.Visited),
		attribute.Int("scan.results", stats.Results),
	)

	if len(cfg.Include) == 0 {
		s.logger.Debug("scan has no include patterns; result is empty")
	}
	s.logger.Debug("scan complete",
		"seeds", stats.Seeds,
		"visited", stats.Visited,
		"results", stats.Results,
		"resolve_failures", stats.ResolveFailures,
		"duration", elapsed,
	)

	return Result{Modules: modules, Stats: stats}, nil
}
