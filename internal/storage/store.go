package storage

import (
	"context"
	"time"

	"digen/internal/symbol"
)

// RunRecord summarizes one completed analysis run.
type RunRecord struct {
	ID            string    `json:"id"`
	Fingerprint   string    `json:"fingerprint"`
	Plans         int       `json:"plans"`
	Registrations int       `json:"registrations"`
	Diagnostics   int       `json:"diagnostics"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store combines snapshot and run-history persistence.
type Store interface {
	SnapshotStore
	RunStore
	Close() error
}

// SnapshotStore persists symbol graphs keyed by content fingerprint.
type SnapshotStore interface {
	// SaveSnapshot upserts the graph under its own fingerprint.
	SaveSnapshot(ctx context.Context, g *symbol.Graph) error

	// LoadSnapshot retrieves a graph by fingerprint.
	LoadSnapshot(ctx context.Context, fingerprint string) (*symbol.Graph, error)

	// LatestSnapshot retrieves the most recently saved graph.
	LatestSnapshot(ctx context.Context) (*symbol.Graph, error)
}

// RunStore persists run summaries and their output artifacts.
type RunStore interface {
	// SaveRun records a run and its artifacts (plans, registrations,
	// diagnostics, report) in one transaction.
	SaveRun(ctx context.Context, run RunRecord, artifacts map[string][]byte) error

	// LoadArtifact retrieves one artifact payload of a recorded run.
	LoadArtifact(ctx context.Context, runID, kind string) ([]byte, error)

	// ListRuns returns run summaries, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
