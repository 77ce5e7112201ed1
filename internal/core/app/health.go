package app

import (
	"context"
	"fmt"
	"time"

	"modscan/internal/engine/module"
	"modscan/internal/shared/util"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	HeapMB     uint64            `json:"heap_mb"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

type pinger interface {
	Ping() error
}

type pather interface {
	Path() string
}

// knownModules counts every module a registry can resolve. Static
// registries list from memory; the sqlite catalog queries its table.
func knownModules(reg module.Registry) (int, bool, error) {
	switch r := reg.(type) {
	case interface{ Modules() []module.Module }:
		return len(r.Modules()), true, nil
	case interface {
		Modules() ([]module.Module, error)
	}:
		mods, err := r.Modules()
		return len(mods), true, err
	}
	return 0, false, nil
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		HeapMB:     util.HeapAllocMB(),
		Components: make(map[string]string),
	}
	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
		status.Components["context"] = err.Error()
		return status
	}

	reg := s.app.Registry()
	switch {
	case reg == nil:
		status.Status = "degraded"
		status.Components["registry"] = "missing"
	default:
		state := fmt.Sprintf("ok (%s, %d loaded)", s.app.Config.Registry.Driver, len(reg.Loaded()))
		if known, ok, err := knownModules(reg); err != nil {
			status.Status = "degraded"
			state = "unreadable: " + err.Error()
		} else if ok {
			state = fmt.Sprintf("ok (%s, %d loaded of %d known)", s.app.Config.Registry.Driver, len(reg.Loaded()), known)
		}
		if p, ok := reg.(pather); ok && p.Path() != "" {
			state += " at " + p.Path()
		}
		if p, ok := reg.(pinger); ok {
			if err := p.Ping(); err != nil {
				status.Status = "degraded"
				state = "unreachable: " + err.Error()
			}
		}
		status.Components["registry"] = state
	}

	switch {
	case s.app.history != nil:
		status.Components["history"] = "ok"
		if p, ok := s.app.history.(pather); ok && p.Path() != "" {
			status.Components["history"] = "ok (" + p.Path() + ")"
		}
	case s.app.Config.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	default:
		status.Components["history"] = "disabled"
	}

	return status
}
