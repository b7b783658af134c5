/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage keeps per-user local state in an embedded SQLite database:
// working-draft markup autosaved between explicit backend saves, and crash
// snapshots written on panic recovery. Drafts are a convenience cache; the
// backend's live markup stays the source of truth and is only ever
// overwritten by an explicit save action.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bluemark/internal/domain"
	applog "bluemark/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DataDirName stores all local BlueMark state under the user's home.
	DataDirName  = ".bluemark"
	DraftsDBName = "drafts.sqlite"

	// schemaVersion tracks the embedded schema; bump on breaking changes.
	schemaVersion = 1
)

// DefaultPath returns the per-user drafts database path.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DataDirName, DraftsDBName), nil
}

// Store is an open handle on the local drafts database.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates the database (and its directory) if needed, enables WAL, and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	l := applog.WithComponent("storage")
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db, log: l}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			blueprint_id TEXT PRIMARY KEY,
			markup       TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS crash_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			blueprint_id TEXT NOT NULL,
			markup       TEXT NOT NULL,
			ts           TEXT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	_, err := s.db.Exec(`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO NOTHING`, fmt.Sprint(schemaVersion))
	return err
}

// SaveDraft upserts the working snapshot for a blueprint.
func (s *Store) SaveDraft(ctx context.Context, blueprintID string, snap domain.Snapshot) error {
	raw, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts(blueprint_id, markup, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(blueprint_id) DO UPDATE SET markup=excluded.markup, updated_at=excluded.updated_at`,
		blueprintID, raw, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LoadDraft returns the stored draft snapshot, or ok=false if none exists.
// An undecodable draft is treated like a missing one: logged and skipped, so
// a corrupt local cache can never block opening the blueprint.
func (s *Store) LoadDraft(ctx context.Context, blueprintID string) (snap domain.Snapshot, updatedAt time.Time, ok bool, err error) {
	var raw, tsStr string
	row := s.db.QueryRowContext(ctx,
		`SELECT markup, updated_at FROM drafts WHERE blueprint_id = ?`, blueprintID)
	if err := row.Scan(&raw, &tsStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}
	snap, derr := domain.DecodeSnapshot(raw)
	if derr != nil {
		s.log.Warn("stored draft undecodable, ignoring",
			slog.String("blueprint", blueprintID), slog.Any("err", derr))
		return nil, time.Time{}, false, nil
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return snap, ts, true, nil
}

// DeleteDraft drops the local draft, typically after a successful live save.
func (s *Store) DeleteDraft(ctx context.Context, blueprintID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE blueprint_id = ?`, blueprintID)
	return err
}

// SaveCrashSnapshot appends a crash-time copy of the working snapshot.
// Crash snapshots accumulate; PruneCrashSnapshots caps them per blueprint.
func (s *Store) SaveCrashSnapshot(ctx context.Context, blueprintID string, snap domain.Snapshot) error {
	raw, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crash_snapshots(blueprint_id, markup, ts) VALUES (?, ?, ?)`,
		blueprintID, raw, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LatestCrashSnapshot returns the most recent crash snapshot for a
// blueprint, or ok=false if none exists.
func (s *Store) LatestCrashSnapshot(ctx context.Context, blueprintID string) (domain.Snapshot, time.Time, bool, error) {
	var raw, tsStr string
	row := s.db.QueryRowContext(ctx,
		`SELECT markup, ts FROM crash_snapshots WHERE blueprint_id = ? ORDER BY id DESC LIMIT 1`, blueprintID)
	if err := row.Scan(&raw, &tsStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, false, nil
		}
		return nil, time.Time{}, false, err
	}
	snap, derr := domain.DecodeSnapshot(raw)
	if derr != nil {
		return nil, time.Time{}, false, derr
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return snap, ts, true, nil
}

// PruneCrashSnapshots keeps at most keepLast crash snapshots per blueprint.
func (s *Store) PruneCrashSnapshots(ctx context.Context, blueprintID string, keepLast int) error {
	if keepLast <= 0 {
		keepLast = 5
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM crash_snapshots WHERE blueprint_id = ? AND id NOT IN (
			SELECT id FROM crash_snapshots WHERE blueprint_id = ? ORDER BY id DESC LIMIT ?
		)`, blueprintID, blueprintID, keepLast)
	return err
}
