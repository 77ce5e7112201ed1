package scan

import (
	"log/slog"

	"modscan/internal/engine/module"
)

// finalize applies the filter to the candidates, optionally force loads the
// survivors, and dedups them by identity keeping first-seen order.
func finalize(cfg Config, candidates []module.Handle, reg module.Registry, logger *slog.Logger, stats *Stats) []module.Handle {
	filters := cfg.Filters()

	survivors := make([]module.Handle, 0, len(candidates))
	for _, c := range candidates {
		if filters.Survives(c.Identity()) {
			survivors = append(survivors, c)
		}
	}

	if cfg.ForceLoad {
		for _, s := range survivors {
			// Best effort: a failed load keeps the module in the result.
			if _, err := reg.Load(s.Identity()); err != nil {
				stats.ForceLoadFailures++
				logLoadFailure(logger, "force_load", "", s.Identity(), err)
				continue
			}
			stats.ForceLoaded++
		}
	}

	seen := make(map[string]struct{}, len(survivors))
	out := make([]module.Handle, 0, len(survivors))
	for _, s := range survivors {
		key := module.Key(s.Identity())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	stats.Results = len(out)
	return out
}
