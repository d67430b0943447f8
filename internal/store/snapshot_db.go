// Package store persists vocabulary snapshots in SQLite so a fresh process
// can skip re-reading every vocabulary file when nothing changed on disk.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wildgold/internal/logging"
	"wildgold/internal/vocab"

	_ "modernc.org/sqlite"
)

// SnapshotDB implements vocab.Persister on a SQLite file.
type SnapshotDB struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	now    func() time.Time
}

var _ vocab.Persister = (*SnapshotDB)(nil)

// SnapshotInfo summarizes one persisted snapshot.
type SnapshotInfo struct {
	Signature string
	Keys      int
	Lines     int
	LoadedAt  time.Time
	LastUsed  time.Time
	Hits      int
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*SnapshotDB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers the same way for files.
	db.SetMaxOpenConns(1)

	s := &SnapshotDB{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Snapshot database ready: %s", path)
	return s, nil
}

// schema is the current DDL. New databases get every migrated column up
// front, so migrations only touch files created by older releases.
var schema = []string{`
	CREATE TABLE IF NOT EXISTS snapshots (
		signature TEXT PRIMARY KEY,
		base_dirs TEXT NOT NULL DEFAULT '[]',
		loaded_at INTEGER NOT NULL,
		last_used INTEGER NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0
	);
	`, `
	CREATE TABLE IF NOT EXISTS vocab_lines (
		signature TEXT NOT NULL,
		key TEXT NOT NULL,
		idx INTEGER NOT NULL,
		line TEXT NOT NULL,
		PRIMARY KEY (signature, key, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_vocab_lines_signature ON vocab_lines(signature);
	`,
}

// initialize creates the required tables.
func (s *SnapshotDB) initialize() error {
	for _, ddl := range schema {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if _, err := RunMigrations(s.db); err != nil {
		return err
	}
	return nil
}

// Path returns the database path.
func (s *SnapshotDB) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *SnapshotDB) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Get loads the snapshot stored under signature. A miss is not an error.
func (s *SnapshotDB) Get(ctx context.Context, signature string) (*vocab.Snapshot, bool, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SnapshotDB.Get")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		dirsJSON string
		loadedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT base_dirs, loaded_at FROM snapshots WHERE signature = ?",
		signature,
	).Scan(&dirsJSON, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		logging.StoreDebug("Snapshot miss: %.12s", signature)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query snapshot: %w", err)
	}

	var dirs []string
	if err := json.Unmarshal([]byte(dirsJSON), &dirs); err != nil {
		return nil, false, fmt.Errorf("decode base dirs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, line FROM vocab_lines WHERE signature = ? ORDER BY key, idx",
		signature,
	)
	if err != nil {
		return nil, false, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	mapping := make(vocab.Mapping)
	for rows.Next() {
		var key, line string
		if err := rows.Scan(&key, &line); err != nil {
			return nil, false, fmt.Errorf("scan line: %w", err)
		}
		mapping[key] = append(mapping[key], line)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate lines: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE snapshots SET last_used = ?, hits = hits + 1 WHERE signature = ?",
		s.now().UnixNano(), signature,
	); err != nil {
		logging.StoreWarn("Failed to touch snapshot %.12s: %v", signature, err)
	}

	logging.StoreDebug("Snapshot hit: %.12s (%d keys)", signature, len(mapping))
	return &vocab.Snapshot{
		Signature: signature,
		Mapping:   mapping,
		BaseDirs:  dirs,
		LoadedAt:  time.Unix(0, loadedAt),
	}, true, nil
}

// Put stores snap, replacing any snapshot with the same signature.
func (s *SnapshotDB) Put(ctx context.Context, snap *vocab.Snapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	timer := logging.StartTimer(logging.CategoryStore, "SnapshotDB.Put")
	defer timer.Stop()

	dirs := snap.BaseDirs
	if dirs == nil {
		dirs = []string{}
	}
	dirsJSON, err := json.Marshal(dirs)
	if err != nil {
		return fmt.Errorf("encode base dirs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vocab_lines WHERE signature = ?", snap.Signature); err != nil {
		return fmt.Errorf("clear lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (signature, base_dirs, loaded_at, last_used, hits)
		 VALUES (?, ?, ?, ?, 0)`,
		snap.Signature, string(dirsJSON), snap.LoadedAt.UnixNano(), s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO vocab_lines (signature, key, idx, line) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer stmt.Close()

	lines := 0
	for _, key := range snap.Mapping.Keys() {
		for i, line := range snap.Mapping[key] {
			if _, err := stmt.ExecContext(ctx, snap.Signature, key, i, line); err != nil {
				return fmt.Errorf("insert line %s[%d]: %w", key, i, err)
			}
			lines++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logging.Store("Persisted snapshot %.12s (%d keys, %d lines)", snap.Signature, len(snap.Mapping), lines)
	return nil
}

// Prune deletes all but the keep most recently used snapshots and returns
// how many were removed. keep below 1 is treated as 1.
func (s *SnapshotDB) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT signature FROM snapshots ORDER BY last_used DESC, rowid DESC LIMIT -1 OFFSET ?",
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("query stale snapshots: %w", err)
	}
	var stale []string
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan signature: %w", err)
		}
		stale = append(stale, sig)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate stale snapshots: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, sig := range stale {
		if _, err := tx.ExecContext(ctx, "DELETE FROM vocab_lines WHERE signature = ?", sig); err != nil {
			return 0, fmt.Errorf("delete lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE signature = ?", sig); err != nil {
			return 0, fmt.Errorf("delete snapshot: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	logging.Store("Pruned %d snapshot(s), kept %d", len(stale), keep)
	return len(stale), nil
}

// List returns every persisted snapshot, most recently used first.
func (s *SnapshotDB) List(ctx context.Context) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.signature, s.loaded_at, s.last_used, s.hits,
		       COUNT(DISTINCT l.key), COUNT(l.line)
		FROM snapshots s
		LEFT JOIN vocab_lines l ON l.signature = s.signature
		GROUP BY s.signature
		ORDER BY s.last_used DESC, s.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var (
			info               SnapshotInfo
			loadedAt, lastUsed int64
		)
		if err := rows.Scan(&info.Signature, &loadedAt, &lastUsed, &info.Hits, &info.Keys, &info.Lines); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.LoadedAt = time.Unix(0, loadedAt)
		info.LastUsed = time.Unix(0, lastUsed)
		out = append(out, info)
	}
	return out, rows.Err()
}
