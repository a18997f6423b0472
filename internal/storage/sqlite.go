package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"digen/internal/symbol"
)

const snapshotCacheSize = 32

type SQLiteStore struct {
	db *sql.DB

	// snapshots front-loads by fingerprint; records are immutable once
	// saved, so handing out the cached pointer is safe.
	snapshots *lru.Cache[string, *symbol.Graph]
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	cache, err := lru.New[string, *symbol.Graph](snapshotCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, snapshots: cache}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			fingerprint TEXT PRIMARY KEY,
			graph JSON,
			saved_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			fingerprint TEXT,
			plans INTEGER,
			registrations INTEGER,
			diagnostics INTEGER,
			created_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT,
			kind TEXT,
			payload BLOB,
			PRIMARY KEY (run_id, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- SnapshotStore Implementation ---

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, g *symbol.Graph) error {
	fingerprint := g.Fingerprint()
	if fingerprint == "" {
		return fmt.Errorf("graph has no fingerprint")
	}

	// Canonical form: name-sorted records, so the stored payload matches
	// the fingerprint regardless of input order.
	canonical := struct {
		Types []*symbol.TypeRecord `json:"types"`
	}{Types: g.Sorted()}
	data, err := json.Marshal(canonical)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (fingerprint, graph, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			graph=excluded.graph,
			saved_at=excluded.saved_at
	`, fingerprint, data, time.Now().UTC().UnixNano())
	if err != nil {
		return err
	}

	s.snapshots.Add(fingerprint, g)
	return nil
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, fingerprint string) (*symbol.Graph, error) {
	if g, ok := s.snapshots.Get(fingerprint); ok {
		return g, nil
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT graph FROM snapshots WHERE fingerprint = ?", fingerprint)
	g, err := scanGraph(row)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", fingerprint, err)
	}

	s.snapshots.Add(fingerprint, g)
	return g, nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*symbol.Graph, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT graph FROM snapshots ORDER BY saved_at DESC LIMIT 1")
	g, err := scanGraph(row)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return g, nil
}

func scanGraph(row *sql.Row) (*symbol.Graph, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		return nil, err
	}

	g := symbol.NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	g.RebuildIndex()
	return g, nil
}

// --- RunStore Implementation ---

func (s *SQLiteStore) SaveRun(ctx context.Context, run RunRecord, artifacts map[string][]byte) error {
	if run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, fingerprint, plans, registrations, diagnostics, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			plans=excluded.plans,
			registrations=excluded.registrations,
			diagnostics=excluded.diagnostics,
			created_at=excluded.created_at
	`, run.ID, run.Fingerprint, run.Plans, run.Registrations, run.Diagnostics,
		run.CreatedAt.UnixNano())
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO artifacts (run_id, kind, payload) VALUES (?, ?, ?)
		ON CONFLICT(run_id, kind) DO UPDATE SET payload=excluded.payload
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	kinds := make([]string, 0, len(artifacts))
	for kind := range artifacts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if _, err := stmt.Exec(run.ID, kind, artifacts[kind]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadArtifact(ctx context.Context, runID, kind string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT payload FROM artifacts WHERE run_id = ? AND kind = ?", runID, kind)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, fmt.Errorf("artifact %s/%s: %w", runID, kind, err)
	}
	return payload, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, plans, registrations, diagnostics, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run  RunRecord
			nano int64
		)
		if err := rows.Scan(&run.ID, &run.Fingerprint, &run.Plans,
			&run.Registrations, &run.Diagnostics, &nano); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(0, nano).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
