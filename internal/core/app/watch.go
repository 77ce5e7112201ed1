package app

import (
	"context"

	"modscan/internal/core/config"
	coreerrors "modscan/internal/core/errors"
	"modscan/internal/core/ports"
	"modscan/internal/core/watcher"
	"modscan/internal/shared/observability"
)

// Watch runs an initial scan, then rebuilds the registry and rescans whenever
// manifest files change, until ctx is done. Rescans are throttled by the
// [watch] rate limiter. Every scan outcome is passed to handler.
func (s *scanService) Watch(ctx context.Context, req ports.ScanRequest, handler func(ports.ScanResult, error)) error {
	if s.app == nil || s.app.Config == nil {
		return coreerrors.New(coreerrors.CodeValidationError, "app is required")
	}
	if handler == nil {
		return coreerrors.New(coreerrors.CodeValidationError, "watch handler is required")
	}
	rc := s.app.Config.Registry
	watchable := rc.Driver == config.DriverManifest || (rc.Driver == config.DriverSQLite && rc.ImportManifests)
	if !watchable {
		err := coreerrors.New(coreerrors.CodeNotSupported, "watch mode needs manifest files")
		return coreerrors.AddContext(err, coreerrors.CtxDriver, rc.Driver)
	}

	handler(s.RunScan(ctx, req))

	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(s.app.Config.Watch.Debounce, rc.ManifestPatterns, nil, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "create manifest watcher")
	}
	defer w.Close()

	if err := w.Watch([]string{rc.ManifestDir}); err != nil {
		return coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeInternal, "watch manifest dir"),
			coreerrors.CtxPath, rc.ManifestDir)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			s.app.logger.Info("manifest change detected", "files", len(paths))
			if !s.app.limiter.Allow() {
				observability.RescansThrottledTotal.Inc()
				if err := s.app.limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			if err := s.app.ReloadRegistry(); err != nil {
				handler(ports.ScanResult{}, err)
				continue
			}
			handler(s.RunScan(ctx, req))
		}
	}
}
