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
	"reflect"
	"testing"

	"bluemark/internal/domain"
)

func drawStroke(s *Session, pts ...domain.Point) {
	s.Handle(Event{Kind: PointerDown, At: pts[0]})
	for _, p := range pts[1:] {
		s.Handle(Event{Kind: PointerMove, At: p})
	}
	s.Handle(Event{Kind: PointerUp})
}

// End-to-end per the editing flow: open empty, draw a 3-point stroke,
// commit, undo, redo.
func TestSessionCommitUndoRedo(t *testing.T) {
	s := NewSession("bp-1", domain.Snapshot{}, domain.Style{})
	drawStroke(s, domain.Point{X: 1, Y: 1}, domain.Point{X: 2, Y: 2}, domain.Point{X: 3, Y: 3})

	if s.History().Len() != 2 || s.History().Index() != 1 {
		t.Fatalf("post-commit history len=%d index=%d, want 2/1", s.History().Len(), s.History().Index())
	}
	post := s.Committed()
	if len(post) != 1 || len(post[0].Points) != 3 {
		t.Fatalf("rendered list should be the single 3-point stroke: %+v", post)
	}

	if !s.Undo() {
		t.Fatalf("undo failed")
	}
	if s.History().Index() != 0 || len(s.Committed()) != 0 {
		t.Fatalf("undo did not restore empty list: index=%d", s.History().Index())
	}
	if !s.Redo() {
		t.Fatalf("redo failed")
	}
	if s.History().Index() != 1 || !reflect.DeepEqual(s.Committed(), post) {
		t.Fatalf("redo state differs from post-commit state")
	}
}

func TestSessionCommitNotifies(t *testing.T) {
	s := NewSession("bp-1", domain.Snapshot{}, domain.Style{})
	var seen []int
	s.OnCommit = func(snap domain.Snapshot) { seen = append(seen, len(snap)) }
	drawStroke(s, domain.Point{X: 0, Y: 0})
	s.Clear()
	if !reflect.DeepEqual(seen, []int{1, 0}) {
		t.Fatalf("OnCommit sequence = %v, want [1 0]", seen)
	}
}

func TestSessionIgnoresUndoWhileDrawing(t *testing.T) {
	s := NewSession("bp-1", domain.Snapshot{}, domain.Style{})
	drawStroke(s, domain.Point{X: 0, Y: 0})
	s.Handle(Event{Kind: PointerDown, At: domain.Point{X: 5, Y: 5}})
	if s.Undo() || s.Redo() {
		t.Fatalf("undo/redo must be ignored mid-gesture")
	}
	s.Handle(Event{Kind: PointerUp})
	if len(s.Committed()) != 2 {
		t.Fatalf("gesture should still commit after ignored undo")
	}
}

func TestSessionLoadSnapshotReseedsHistory(t *testing.T) {
	s := NewSession("bp-1", domain.Snapshot{}, domain.Style{})
	drawStroke(s, domain.Point{X: 0, Y: 0})
	drawStroke(s, domain.Point{X: 1, Y: 1})

	loaded := domain.Snapshot{s.Committed()[0]}
	s.LoadSnapshot(loaded)
	if s.History().Len() != 1 || s.History().Index() != 0 {
		t.Fatalf("load must reseed to single entry: len=%d", s.History().Len())
	}
	if !reflect.DeepEqual(s.Committed(), loaded) {
		t.Fatalf("loaded snapshot not current")
	}
	if s.Undo() {
		t.Fatalf("history from before the load must be unreachable")
	}
}
