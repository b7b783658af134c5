/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"time"

	"bluemark/internal/domain"
	"bluemark/internal/history"
)

// Session binds the reducer to a history stack for one open blueprint. All
// methods run on the interaction loop; local operations are synchronous and
// never touch the network. Persistence is the caller's concern.
type Session struct {
	BlueprintID string

	state State
	hist  *history.Stack

	// now is swappable for tests.
	now func() time.Time

	// OnCommit, when set, observes every newly committed snapshot. Used for
	// re-render triggers and local draft autosave. Must not block.
	OnCommit func(domain.Snapshot)
}

// NewSession opens an editing session seeded with the snapshot decoded from
// the blueprint's live markup.
func NewSession(blueprintID string, initial domain.Snapshot, style domain.Style) *Session {
	return &Session{
		BlueprintID: blueprintID,
		state:       NewState(style),
		hist:        history.Seed(initial),
		now:         time.Now,
	}
}

// Handle feeds one event through the reducer. If the event commits an
// element, the committed list grows by one and a new snapshot is pushed onto
// history (truncating any redo branch).
func (s *Session) Handle(ev Event) {
	next, committed := Reduce(s.state, ev, s.now())
	s.state = next
	if committed == nil {
		return
	}
	snap := s.hist.Current().Append(*committed)
	s.hist.Push(snap)
	if s.OnCommit != nil {
		s.OnCommit(snap)
	}
}

// SelectTool switches the active tool, cancelling any in-progress element.
func (s *Session) SelectTool(t Tool) { s.Handle(Event{Kind: SelectTool, Tool: t}) }

// SetStyle changes the pen attributes applied to future elements.
func (s *Session) SetStyle(style domain.Style) { s.state.Style = style }

// Undo steps history back one snapshot. Ignored while an element is under
// construction; the pointer gesture owns the state until it completes.
func (s *Session) Undo() bool {
	if s.state.Phase != Idle {
		return false
	}
	_, ok := s.hist.Undo()
	return ok
}

// Redo steps history forward one snapshot. Same idle-only rule as Undo.
func (s *Session) Redo() bool {
	if s.state.Phase != Idle {
		return false
	}
	_, ok := s.hist.Redo()
	return ok
}

// Clear commits an empty element list; undo restores the previous state.
func (s *Session) Clear() {
	if s.state.Phase != Idle {
		return
	}
	s.hist.Clear()
	if s.OnCommit != nil {
		s.OnCommit(s.hist.Current())
	}
}

// LoadSnapshot replaces the working element list, e.g. when the user opens a
// named save. History is reseeded to a single entry so the stack invariant
// holds; the previous session history is intentionally unreachable after
// this.
func (s *Session) LoadSnapshot(snap domain.Snapshot) {
	s.state.Phase = Idle
	s.state.InProgress = nil
	s.state.PendingAnchor = nil
	s.hist.Reseed(snap)
	if s.OnCommit != nil {
		s.OnCommit(s.hist.Current())
	}
}

// Committed returns the element list the surface must render.
func (s *Session) Committed() domain.Snapshot { return s.hist.Current() }

// InProgress returns the element under construction, or nil.
func (s *Session) InProgress() *domain.Element { return s.state.InProgress }

// Phase exposes the machine state for UI affordances (e.g. text prompt).
func (s *Session) Phase() Phase { return s.state.Phase }

// PendingAnchor returns the captured text anchor while in TextPending.
func (s *Session) PendingAnchor() *domain.Point { return s.state.PendingAnchor }

// History exposes stack length/index for status display and tests.
func (s *Session) History() *history.Stack { return s.hist }
