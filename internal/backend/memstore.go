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
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bluemark/internal/domain"
)

// MemStore is an in-memory Store used by handler tests and by `serve --dev`
// when no database is configured. State is lost on restart.
type MemStore struct {
	mu         sync.Mutex
	blueprints map[string]*domain.Blueprint
	saves      map[string]*domain.NamedSave
	now        func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		blueprints: make(map[string]*domain.Blueprint),
		saves:      make(map[string]*domain.NamedSave),
		now:        time.Now,
	}
}

func (m *MemStore) LoadBlueprint(_ context.Context, id string) (*domain.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.blueprints[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *bp
	out.NamedSaves = m.savesForLocked(id)
	return &out, nil
}

func (m *MemStore) ListBlueprints(_ context.Context, jobID string) ([]domain.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Blueprint
	for _, bp := range m.blueprints {
		if bp.JobID == jobID {
			out = append(out, *bp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) CreateBlueprint(_ context.Context, bp domain.Blueprint) (*domain.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bp.ID == "" {
		bp.ID = uuid.NewString()
	}
	if bp.LiveMarkup == "" {
		bp.LiveMarkup = domain.EmptyMarkup
	}
	bp.Version = 0
	cp := bp
	m.blueprints[bp.ID] = &cp
	return &bp, nil
}

func (m *MemStore) SaveLiveMarkup(_ context.Context, id, markup string) (*domain.Blueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.blueprints[id]
	if !ok {
		return nil, ErrNotFound
	}
	bp.LiveMarkup = markup
	bp.Version++
	out := *bp
	return &out, nil
}

func (m *MemStore) CreateNamedSave(_ context.Context, save domain.NamedSave) (*domain.NamedSave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blueprints[save.BlueprintID]; !ok {
		return nil, ErrNotFound
	}
	if save.ID == "" {
		save.ID = uuid.NewString()
	}
	now := m.now().UTC()
	save.CreatedAt, save.UpdatedAt = now, now
	cp := save
	m.saves[save.ID] = &cp
	return &save, nil
}

func (m *MemStore) ListNamedSaves(_ context.Context, blueprintID string) ([]domain.NamedSave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savesForLocked(blueprintID), nil
}

func (m *MemStore) savesForLocked(blueprintID string) []domain.NamedSave {
	var out []domain.NamedSave
	for _, s := range m.saves {
		if s.BlueprintID == blueprintID {
			out = append(out, *s)
		}
	}
	// Most recently updated first; break timestamp ties by id so the
	// ordering is deterministic.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MemStore) GetNamedSave(_ context.Context, id string) (*domain.NamedSave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saves[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}
