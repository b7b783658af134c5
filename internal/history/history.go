/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps the session-local undo/redo stack of complete
// snapshots. The stack is linear and branch-truncating: pushing after an
// undo discards the redo tail. It is never persisted; reopening a blueprint
// seeds a fresh single-entry history from the stored live markup.
package history

import (
	"log/slog"

	"bluemark/internal/domain"
	applog "bluemark/internal/log"
)

// Stack holds the ordered snapshots plus the current index.
// Invariant: 0 <= index < len(stack), and the rendered committed element
// list always equals Current(). Callers re-render after every operation.
type Stack struct {
	stack []domain.Snapshot
	index int
}

// Seed creates a fresh history with initial as its only entry.
func Seed(initial domain.Snapshot) *Stack {
	if initial == nil {
		initial = domain.Snapshot{}
	}
	return &Stack{stack: []domain.Snapshot{initial}}
}

// Reseed drops all entries and restarts from snapshot, as when a named save
// replaces the working element list.
func (h *Stack) Reseed(snapshot domain.Snapshot) {
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}
	h.stack = []domain.Snapshot{snapshot}
	h.index = 0
}

// Push truncates any redo branch beyond the current index, appends the
// snapshot, and moves the index to it.
func (h *Stack) Push(snapshot domain.Snapshot) {
	h.ensureInvariant()
	h.stack = append(h.stack[:h.index+1], snapshot)
	h.index = len(h.stack) - 1
}

// Undo steps back one snapshot and returns the now-current one. At the
// oldest entry it is a no-op and reports false.
func (h *Stack) Undo() (domain.Snapshot, bool) {
	h.ensureInvariant()
	if h.index == 0 {
		return h.stack[h.index], false
	}
	h.index--
	return h.stack[h.index], true
}

// Redo steps forward one snapshot and returns the now-current one. At the
// newest entry it is a no-op and reports false.
func (h *Stack) Redo() (domain.Snapshot, bool) {
	h.ensureInvariant()
	if h.index >= len(h.stack)-1 {
		return h.stack[h.index], false
	}
	h.index++
	return h.stack[h.index], true
}

// Clear pushes an empty snapshot; the cleared state is itself undoable.
func (h *Stack) Clear() {
	h.Push(domain.Snapshot{})
}

// Current returns the snapshot the surface must be rendering.
func (h *Stack) Current() domain.Snapshot {
	h.ensureInvariant()
	return h.stack[h.index]
}

// Len returns the number of snapshots on the stack.
func (h *Stack) Len() int { return len(h.stack) }

// Index returns the current position within the stack.
func (h *Stack) Index() int { return h.index }

// CanUndo reports whether an Undo would move the index.
func (h *Stack) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a Redo would move the index.
func (h *Stack) CanRedo() bool { return h.index < len(h.stack)-1 }

// ensureInvariant clamps the index back into [0, len) if it ever escapes.
// Unreachable when the contract above is honored; logged instead of
// panicking so a bookkeeping bug cannot take down the editing session.
func (h *Stack) ensureInvariant() {
	if len(h.stack) == 0 {
		applog.WithComponent("history").Warn("empty history stack, reseeding",
			slog.Int("index", h.index))
		h.stack = []domain.Snapshot{{}}
		h.index = 0
		return
	}
	if h.index < 0 || h.index >= len(h.stack) {
		clamped := h.index
		if clamped < 0 {
			clamped = 0
		}
		if clamped >= len(h.stack) {
			clamped = len(h.stack) - 1
		}
		applog.WithComponent("history").Warn("history index out of range, clamped",
			slog.Int("index", h.index), slog.Int("len", len(h.stack)), slog.Int("clamped", clamped))
		h.index = clamped
	}
}
