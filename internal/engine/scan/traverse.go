package scan

import (
	"errors"
	"log/slog"

	"modscan/internal/engine/filter"
	"modscan/internal/engine/module"
	"modscan/internal/shared/observability"
)

type walker struct {
	filters filter.Set
	deep    bool
	reg     module.Registry
	logger  *slog.Logger
	stats   *Stats

	visited    map[string]struct{}
	queue      []module.Handle
	candidates []module.Handle
}

// seedQueue orders the starting set: caller seeds, issuer, registry entry,
// then everything the registry has loaded.
func seedQueue(cfg Config, reg module.Registry) []module.Handle {
	queue := make([]module.Handle, 0, len(cfg.Seeds)+1)
	queue = append(queue, cfg.Seeds...)
	if cfg.Issuer != nil {
		queue = append(queue, cfg.Issuer)
	}
	if ep, ok := reg.(module.EntryProvider); ok {
		if entry, ok := ep.Entry(); ok {
			queue = append(queue, entry)
		}
	}
	return append(queue, reg.Loaded()...)
}

// traverse walks the queue breadth first and returns every distinct module
// it visited, in visit order.
func traverse(cfg Config, reg module.Registry, logger *slog.Logger, stats *Stats) []module.Handle {
	w := &walker{
		filters: cfg.Filters(),
		deep:    cfg.DeepScan,
		reg:     reg,
		logger:  logger,
		stats:   stats,
		visited: make(map[string]struct{}),
		queue:   seedQueue(cfg, reg),
	}
	stats.Seeds = len(w.queue)

	for len(w.queue) > 0 {
		m := w.queue[0]
		w.queue = w.queue[1:]

		if !module.Valid(m) {
			// Registries may hand back zero handles; there is nothing to record.
			continue
		}
		key := module.Key(m.Identity())
		if _, seen := w.visited[key]; seen {
			continue
		}
		w.visited[key] = struct{}{}
		w.candidates = append(w.candidates, m)

		if w.deep {
			w.expand(m)
		}
	}

	stats.Visited = len(w.candidates)
	return w.candidates
}

func (w *walker) expand(m module.Handle) {
	for _, ref := range m.References() {
		if ref == "" {
			continue
		}
		w.stats.ReferencesSeen++

		if reason := w.filters.Reason(ref); reason != "" {
			w.stats.ReferencesDropped++
			observability.ReferencesDroppedTotal.WithLabelValues(reason).Inc()
			continue
		}
		if _, seen := w.visited[module.Key(ref)]; seen {
			continue
		}

		h, err := w.reg.Load(ref)
		if err != nil {
			w.stats.ResolveFailures++
			logLoadFailure(w.logger, "traverse", m.Identity(), ref, err)
			continue
		}
		if !module.Valid(h) {
			w.stats.ResolveFailures++
			continue
		}
		w.queue = append(w.queue, h)
	}
}

func logLoadFailure(logger *slog.Logger, phase, from, id string, err error) {
	if errors.Is(err, module.ErrNotFound) {
		observability.LoadFailuresTotal.WithLabelValues(phase, "not_found").Inc()
		logger.Debug("module not resolvable, skipping", "phase", phase, "from", from, "module", id)
		return
	}
	observability.LoadFailuresTotal.WithLabelValues(phase, "error").Inc()
	logger.Warn("module load failed, skipping", "phase", phase, "from", from, "module", id, "error", err)
}
