package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"modscan/internal/core/config"
	coreerrors "modscan/internal/core/errors"
	"modscan/internal/core/ports"
	"modscan/internal/shared/observability"
	"modscan/internal/ui/report"
)

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr, coreScanFactory{})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory scanFactory) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "modscan v%s\n", versionString)
		return 0
	}

	logger := configureLogging(stderr, opts.verbose)

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		logger.Warn("failed to load env file", "path", opts.envFile, "error", err)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		if coreerrors.IsCode(err, coreerrors.CodeValidationError) {
			return 2
		}
		return 1
	}
	config.ApplyEnvOverrides(cfg)
	applyOptions(opts, cfg)
	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 2
	}

	shutdownTracing := setupTracing(ctx, cfg, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	svc, health, closeApp, err := initializeScan(cfg, logger, factory)
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		if err := closeApp(); err != nil {
			logger.Warn("failed to close app", "error", err)
		}
	}()

	if cfg.Observability.Enabled && cfg.Observability.EnableMetrics {
		server := NewObservabilityServer(":"+strconv.Itoa(cfg.Observability.Port), health)
		if err := server.Start(ctx); err != nil {
			logger.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	if opts.history > 0 {
		return runHistory(ctx, svc, opts.history, cfg.Output.Format, stdout, logger)
	}

	req := ports.ScanRequest{
		Include:   opts.include,
		Exclude:   opts.exclude,
		Ignore:    opts.ignore,
		Seeds:     opts.seeds,
		DeepScan:  opts.deep,
		ForceLoad: opts.forceLoad,
	}

	if opts.watch {
		err := svc.Watch(ctx, req, func(res ports.ScanResult, scanErr error) {
			if scanErr != nil {
				logger.Error("rescan failed", "error", scanErr)
				return
			}
			if err := report.Write(cfg.Output.Format, res, cfg.Output.Path, stdout); err != nil {
				logger.Error("failed to write report", "error", err)
			}
		})
		if err != nil {
			logger.Error("watch mode failed", "error", err)
			return 1
		}
		return 0
	}

	res, err := svc.RunScan(ctx, req)
	if err != nil {
		logger.Error("scan failed", "error", err)
		return 1
	}
	if err := report.Write(cfg.Output.Format, res, cfg.Output.Path, stdout); err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}
	return 0
}

func runHistory(ctx context.Context, svc ports.ScanService, limit int, format string, stdout io.Writer, logger *slog.Logger) int {
	scans, err := svc.History(ctx, limit)
	if err != nil {
		logger.Error("failed to load scan history", "error", err)
		return 1
	}

	var data []byte
	if format == config.FormatJSON {
		if data, err = report.RenderHistoryJSON(scans); err != nil {
			logger.Error("failed to render scan history", "error", err)
			return 1
		}
		data = append(data, '\n')
	} else {
		data = report.RenderHistoryTSV(scans)
	}
	if _, err := stdout.Write(data); err != nil {
		logger.Error("failed to write scan history", "error", err)
		return 1
	}
	return 0
}

// loadConfig reads path. A missing default config falls back to built-in
// defaults so the tool runs in a bare directory.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", path)
		return config.DefaultConfig(), nil
	}
	return nil, err
}

// applyOptions layers flags that change configuration rather than the scan
// request itself.
func applyOptions(opts cliOptions, cfg *config.Config) {
	if f := strings.TrimSpace(opts.format); f != "" {
		cfg.Output.Format = strings.ToLower(f)
	}
	if p := strings.TrimSpace(opts.outputPath); p != "" {
		cfg.Output.Path = p
	}
	if opts.history > 0 {
		cfg.History.Enabled = true
	}
}

func setupTracing(ctx context.Context, cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	obs := cfg.Observability
	if !obs.Enabled || !obs.EnableTracing {
		return noop
	}
	shutdown, err := observability.InitTracing(ctx, obs.OTLPEndpoint, obs.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		return noop
	}
	return shutdown
}

func configureLogging(output io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}
