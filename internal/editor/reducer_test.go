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
	"testing"
	"time"

	"bluemark/internal/domain"
)

var t0 = time.UnixMilli(1700000000000)

func down(x, y float64) Event { return Event{Kind: PointerDown, At: domain.Point{X: x, Y: y}} }
func move(x, y float64) Event { return Event{Kind: PointerMove, At: domain.Point{X: x, Y: y}} }
func up() Event               { return Event{Kind: PointerUp} }

func TestPenDrawCycle(t *testing.T) {
	s := NewState(domain.Style{})
	s, el := Reduce(s, down(1, 1), t0)
	if el != nil || s.Phase != Drawing || s.InProgress == nil {
		t.Fatalf("pointer down did not enter Drawing: %+v", s)
	}
	if len(s.InProgress.Points) != 1 {
		t.Fatalf("pen must seed a one-point path")
	}
	s, _ = Reduce(s, move(2, 2), t0)
	s, _ = Reduce(s, move(3, 3), t0)
	if got := len(s.InProgress.Points); got != 3 {
		t.Fatalf("pen path has %d points, want 3", got)
	}
	s, el = Reduce(s, up(), t0)
	if el == nil || s.Phase != Idle || s.InProgress != nil {
		t.Fatalf("pointer up did not commit: el=%v state=%+v", el, s)
	}
	if el.Kind != domain.KindFreehand || len(el.Points) != 3 {
		t.Fatalf("unexpected committed element: %+v", el)
	}
}

func TestShapeMoveOverwritesEnd(t *testing.T) {
	s := NewState(domain.Style{})
	s, _ = Reduce(s, Event{Kind: SelectTool, Tool: ToolRect}, t0)
	s, _ = Reduce(s, down(10, 10), t0)
	if *s.InProgress.Start != (domain.Point{X: 10, Y: 10}) || *s.InProgress.End != (domain.Point{X: 10, Y: 10}) {
		t.Fatalf("rect must seed start=end=point: %+v", s.InProgress)
	}
	s, _ = Reduce(s, move(20, 25), t0)
	s, _ = Reduce(s, move(5, 40), t0)
	if *s.InProgress.Start != (domain.Point{X: 10, Y: 10}) {
		t.Fatalf("rect start drifted: %+v", s.InProgress.Start)
	}
	if *s.InProgress.End != (domain.Point{X: 5, Y: 40}) {
		t.Fatalf("rect end not overwritten: %+v", s.InProgress.End)
	}

	s, _ = Reduce(s, up(), t0)
	s, _ = Reduce(s, Event{Kind: SelectTool, Tool: ToolCircle}, t0)
	s, _ = Reduce(s, down(0, 0), t0)
	s, _ = Reduce(s, move(3, 4), t0)
	if s.InProgress.Radius() != 5 {
		t.Fatalf("circle edge not tracking pointer: r=%v", s.InProgress.Radius())
	}
}

func TestTextFlow(t *testing.T) {
	s := NewState(domain.Style{})
	s, _ = Reduce(s, Event{Kind: SelectTool, Tool: ToolText}, t0)
	s, el := Reduce(s, down(7, 8), t0)
	if el != nil || s.Phase != TextPending || s.PendingAnchor == nil {
		t.Fatalf("text pointer down must capture anchor only: %+v", s)
	}
	// Empty confirm discards.
	s, el = Reduce(s, Event{Kind: TextConfirm, Text: "   "}, t0)
	if el != nil || s.Phase != Idle || s.PendingAnchor != nil {
		t.Fatalf("empty text must discard: el=%v state=%+v", el, s)
	}
	// Non-empty confirm commits a label at the captured anchor.
	s, _ = Reduce(s, down(7, 8), t0)
	s, el = Reduce(s, Event{Kind: TextConfirm, Text: "grind smooth"}, t0)
	if el == nil || el.Kind != domain.KindText || *el.Anchor != (domain.Point{X: 7, Y: 8}) {
		t.Fatalf("text confirm did not commit label: %+v", el)
	}
	// Cancel discards the capture.
	s, _ = Reduce(s, down(1, 2), t0)
	s, el = Reduce(s, Event{Kind: TextCancel}, t0)
	if el != nil || s.Phase != Idle || s.PendingAnchor != nil {
		t.Fatalf("text cancel must discard: %+v", s)
	}
}

func TestStrayEventsAreNoOps(t *testing.T) {
	s := NewState(domain.Style{})
	for _, ev := range []Event{move(1, 1), up(), {Kind: TextConfirm, Text: "x"}, {Kind: TextCancel}} {
		next, el := Reduce(s, ev, t0)
		if el != nil || next.Phase != Idle {
			t.Fatalf("event %+v mutated idle state: %+v", ev, next)
		}
	}
	// PointerDown while already drawing is ignored.
	s, _ = Reduce(s, down(1, 1), t0)
	next, el := Reduce(s, down(9, 9), t0)
	if el != nil || len(next.InProgress.Points) != 1 {
		t.Fatalf("nested pointer down must be ignored: %+v", next.InProgress)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState(domain.Style{})
	s, _ = Reduce(s, down(1, 1), t0)
	before := len(s.InProgress.Points)
	next, _ := Reduce(s, move(2, 2), t0)
	if len(s.InProgress.Points) != before {
		t.Fatalf("reducer mutated prior state's path")
	}
	if len(next.InProgress.Points) != before+1 {
		t.Fatalf("next state missing appended point")
	}
}

func TestSelectToolCancelsInProgress(t *testing.T) {
	s := NewState(domain.Style{})
	s, _ = Reduce(s, down(1, 1), t0)
	s, el := Reduce(s, Event{Kind: SelectTool, Tool: ToolCircle}, t0)
	if el != nil || s.Phase != Idle || s.InProgress != nil || s.Tool != ToolCircle {
		t.Fatalf("tool switch must cancel construction: %+v", s)
	}
}
