package cli

import (
	"context"
	"fmt"
	"log/slog"

	coreapp "modscan/internal/core/app"
	"modscan/internal/core/config"
	"modscan/internal/core/ports"
)

type scanFactory interface {
	New(cfg *config.Config, logger *slog.Logger) (ports.ScanService, *coreapp.HealthService, func() error, error)
}

type coreScanFactory struct{}

func (coreScanFactory) New(cfg *config.Config, logger *slog.Logger) (ports.ScanService, *coreapp.HealthService, func() error, error) {
	app, err := coreapp.New(cfg, coreapp.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() error { return app.Close(context.Background()) }
	return app.ScanService(), coreapp.NewHealthService(app), closeFn, nil
}

func initializeScan(cfg *config.Config, logger *slog.Logger, factory scanFactory) (ports.ScanService, *coreapp.HealthService, func() error, error) {
	if factory == nil {
		return nil, nil, nil, fmt.Errorf("scan factory is required")
	}
	return factory.New(cfg, logger)
}
