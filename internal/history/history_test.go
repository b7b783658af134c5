/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"reflect"
	"testing"
	"time"

	"bluemark/internal/domain"
)

func label(text string) domain.Element {
	return domain.NewText(domain.Point{X: 1, Y: 1}, text, domain.Style{}, time.UnixMilli(0))
}

func TestSeedSingleEntry(t *testing.T) {
	h := Seed(nil)
	if h.Len() != 1 || h.Index() != 0 || len(h.Current()) != 0 {
		t.Fatalf("unexpected seeded state: len=%d index=%d", h.Len(), h.Index())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("fresh history must not offer undo/redo")
	}
}

func TestUndoReturnsToOriginal(t *testing.T) {
	h := Seed(domain.Snapshot{})
	cur := h.Current()
	const n = 5
	for i := 0; i < n; i++ {
		cur = cur.Append(label("e"))
		h.Push(cur)
		if !reflect.DeepEqual(h.Current(), cur) {
			t.Fatalf("current != pushed snapshot at commit %d", i)
		}
	}
	for i := 0; i < n; i++ {
		if _, ok := h.Undo(); !ok {
			t.Fatalf("undo %d unexpectedly at floor", i)
		}
	}
	if len(h.Current()) != 0 || h.Index() != 0 {
		t.Fatalf("undo x%d did not return to original: len=%d index=%d", n, len(h.Current()), h.Index())
	}
	if _, ok := h.Undo(); ok {
		t.Fatalf("undo past floor must be a no-op")
	}
}

func TestBranchTruncation(t *testing.T) {
	h := Seed(domain.Snapshot{})
	a := h.Current().Append(label("A"))
	h.Push(a)
	b := a.Append(label("B"))
	h.Push(b)
	if _, ok := h.Undo(); !ok { // back at A
		t.Fatalf("undo failed")
	}
	c := h.Current().Append(label("C"))
	h.Push(c)

	if _, ok := h.Redo(); ok {
		t.Fatalf("redo after branch commit must be a no-op")
	}
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("stack should be [empty, A, C]: len=%d index=%d", h.Len(), h.Index())
	}
	if got := h.Current(); len(got) != 2 || got[1].Text != "C" {
		t.Fatalf("top of stack is not C: %+v", got)
	}
}

func TestRedoRestoresExactSnapshot(t *testing.T) {
	h := Seed(domain.Snapshot{})
	s := h.Current().Append(label("stroke"))
	h.Push(s)
	post := h.Current()
	h.Undo()
	got, ok := h.Redo()
	if !ok || !reflect.DeepEqual(got, post) {
		t.Fatalf("redo state differs from post-commit state")
	}
	if _, ok := h.Redo(); ok {
		t.Fatalf("redo past top must be a no-op")
	}
}

func TestClearIsUndoable(t *testing.T) {
	h := Seed(domain.Snapshot{label("keep")})
	h.Clear()
	if len(h.Current()) != 0 {
		t.Fatalf("clear did not empty the rendered list")
	}
	if got, ok := h.Undo(); !ok || len(got) != 1 {
		t.Fatalf("clear must be undoable, got ok=%v len=%d", ok, len(got))
	}
}

func TestReseedDropsRedo(t *testing.T) {
	h := Seed(domain.Snapshot{})
	h.Push(h.Current().Append(label("x")))
	loaded := domain.Snapshot{label("from named save")}
	h.Reseed(loaded)
	if h.Len() != 1 || h.Index() != 0 {
		t.Fatalf("reseed must leave a single entry: len=%d index=%d", h.Len(), h.Index())
	}
	if !reflect.DeepEqual(h.Current(), loaded) {
		t.Fatalf("reseed did not install loaded snapshot")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("reseeded history must not offer undo/redo")
	}
}

func TestInvariantClampRecovers(t *testing.T) {
	h := Seed(domain.Snapshot{})
	h.Push(h.Current().Append(label("a")))
	h.index = 99 // corrupt on purpose
	if got := h.Current(); len(got) != 1 {
		t.Fatalf("clamp should land on newest snapshot, got %+v", got)
	}
	h.index = -4
	if got := h.Current(); len(got) != 0 {
		t.Fatalf("clamp should land on oldest snapshot, got %+v", got)
	}
}
