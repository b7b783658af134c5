/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"bluemark/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound reports a missing blueprint or named save.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the HTTP handlers run against. The
// production implementation is Postgres; tests use the in-memory one.
type Store interface {
	LoadBlueprint(ctx context.Context, id string) (*domain.Blueprint, error)
	ListBlueprints(ctx context.Context, jobID string) ([]domain.Blueprint, error)
	CreateBlueprint(ctx context.Context, bp domain.Blueprint) (*domain.Blueprint, error)
	// SaveLiveMarkup overwrites the live markup unconditionally and bumps
	// the version. There is deliberately no version precondition: two
	// concurrent sessions race and the last write wins.
	SaveLiveMarkup(ctx context.Context, id, markup string) (*domain.Blueprint, error)
	CreateNamedSave(ctx context.Context, save domain.NamedSave) (*domain.NamedSave, error)
	ListNamedSaves(ctx context.Context, blueprintID string) ([]domain.NamedSave, error)
	GetNamedSave(ctx context.Context, id string) (*domain.NamedSave, error)
}

// PGStore implements Store on Postgres via the pgx stdlib driver.
type PGStore struct {
	db *sql.DB
}

// OpenPG opens the database and applies embedded migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &PGStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) migrate(ctx context.Context) error {
	entries, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, name := range entries {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PGStore) LoadBlueprint(ctx context.Context, id string) (*domain.Blueprint, error) {
	var bp domain.Blueprint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, source_image_url, live_markup, version FROM blueprints WHERE id = $1`, id).
		Scan(&bp.ID, &bp.JobID, &bp.SourceImageURL, &bp.LiveMarkup, &bp.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	saves, err := s.ListNamedSaves(ctx, id)
	if err != nil {
		return nil, err
	}
	bp.NamedSaves = saves
	return &bp, nil
}

func (s *PGStore) ListBlueprints(ctx context.Context, jobID string) ([]domain.Blueprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, source_image_url, live_markup, version FROM blueprints
		 WHERE job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Blueprint
	for rows.Next() {
		var bp domain.Blueprint
		if err := rows.Scan(&bp.ID, &bp.JobID, &bp.SourceImageURL, &bp.LiveMarkup, &bp.Version); err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}

func (s *PGStore) CreateBlueprint(ctx context.Context, bp domain.Blueprint) (*domain.Blueprint, error) {
	if bp.ID == "" {
		bp.ID = uuid.NewString()
	}
	if bp.LiveMarkup == "" {
		bp.LiveMarkup = domain.EmptyMarkup
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blueprints(id, job_id, source_image_url, live_markup, version) VALUES ($1, $2, $3, $4, 0)`,
		bp.ID, bp.JobID, bp.SourceImageURL, bp.LiveMarkup)
	if err != nil {
		return nil, err
	}
	bp.Version = 0
	return &bp, nil
}

func (s *PGStore) SaveLiveMarkup(ctx context.Context, id, markup string) (*domain.Blueprint, error) {
	var bp domain.Blueprint
	err := s.db.QueryRowContext(ctx,
		`UPDATE blueprints SET live_markup = $2, version = version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING id, job_id, source_image_url, live_markup, version`, id, markup).
		Scan(&bp.ID, &bp.JobID, &bp.SourceImageURL, &bp.LiveMarkup, &bp.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

func (s *PGStore) CreateNamedSave(ctx context.Context, save domain.NamedSave) (*domain.NamedSave, error) {
	if save.ID == "" {
		save.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	save.CreatedAt, save.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO named_saves(id, blueprint_id, name, markup, description, is_shared, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		save.ID, save.BlueprintID, save.Name, save.Markup, save.Description, save.IsShared, save.OwnerID, now)
	if isForeignKeyViolation(err) {
		// The FK on blueprint_id fired: the blueprint does not exist.
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &save, nil
}

// isForeignKeyViolation reports whether err is a Postgres foreign key
// violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (s *PGStore) ListNamedSaves(ctx context.Context, blueprintID string) ([]domain.NamedSave, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, blueprint_id, name, markup, description, is_shared, owner_id, created_at, updated_at
		 FROM named_saves WHERE blueprint_id = $1 ORDER BY updated_at DESC`, blueprintID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []domain.NamedSave
	for rows.Next() {
		var ns domain.NamedSave
		if err := rows.Scan(&ns.ID, &ns.BlueprintID, &ns.Name, &ns.Markup, &ns.Description,
			&ns.IsShared, &ns.OwnerID, &ns.CreatedAt, &ns.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

func (s *PGStore) GetNamedSave(ctx context.Context, id string) (*domain.NamedSave, error) {
	var ns domain.NamedSave
	err := s.db.QueryRowContext(ctx,
		`SELECT id, blueprint_id, name, markup, description, is_shared, owner_id, created_at, updated_at
		 FROM named_saves WHERE id = $1`, id).
		Scan(&ns.ID, &ns.BlueprintID, &ns.Name, &ns.Markup, &ns.Description,
			&ns.IsShared, &ns.OwnerID, &ns.CreatedAt, &ns.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ns, nil
}
