package ports

import (
	"context"
	"time"

	"modscan/internal/data/history"
	"modscan/internal/engine/scan"
)

// HistoryStore abstracts persistence of scan-run summaries.
type HistoryStore interface {
	SaveScan(snapshot history.Snapshot) error
	LoadScans(limit int) ([]history.Snapshot, error)
}

// ScanRequest layers per-invocation settings over the configured [scan]
// section. Patterns are appended; flags can only switch a mode on.
type ScanRequest struct {
	Include   []string
	Exclude   []string
	Ignore    []string
	Seeds     []string
	DeepScan  bool
	ForceLoad bool
}

// ScanResult summarizes a completed scan.
type ScanResult struct {
	ScanID    string        `json:"scan_id"`
	Driver    string        `json:"driver"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	DeepScan  bool          `json:"deep_scan"`
	ForceLoad bool          `json:"force_load"`
	Modules   []string      `json:"modules"`
	Stats     scan.Stats    `json:"stats"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// ScanService is the driving-port surface used by the CLI.
type ScanService interface {
	RunScan(ctx context.Context, req ScanRequest) (ScanResult, error)
	History(ctx context.Context, limit int) ([]history.Snapshot, error)
	Watch(ctx context.Context, req ScanRequest, handler func(ScanResult, error)) error
}
