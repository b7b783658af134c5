/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"math"
	"testing"
	"time"
)

var testNow = time.UnixMilli(1700000000000)

func TestConstructorsSeedGeometry(t *testing.T) {
	p := Point{X: 12.5, Y: -3}
	fh := NewFreehand(p, Style{}, testNow)
	if fh.Kind != KindFreehand || len(fh.Points) != 1 || fh.Points[0] != p {
		t.Fatalf("unexpected freehand seed: %+v", fh)
	}
	if fh.ID == "" || fh.CreatedAt != testNow.UnixMilli() {
		t.Fatalf("missing id or timestamp: %+v", fh)
	}
	if fh.Color != DefaultStyle.Color || fh.StrokeWidth != DefaultStyle.StrokeWidth {
		t.Fatalf("zero style not defaulted: %+v", fh)
	}

	r := NewRect(p, Style{Color: "#0000ff", StrokeWidth: 4}, testNow)
	if *r.Start != p || *r.End != p {
		t.Fatalf("rect not seeded start=end=point: %+v", r)
	}
	if r.Color != "#0000ff" || r.StrokeWidth != 4 {
		t.Fatalf("explicit style lost: %+v", r)
	}

	c := NewCircle(p, Style{}, testNow)
	if *c.Center != p || *c.Edge != p || c.Radius() != 0 {
		t.Fatalf("circle not seeded center=edge=point: %+v", c)
	}

	tx := NewText(p, "check weld", Style{}, testNow)
	if *tx.Anchor != p || tx.Text != "check weld" {
		t.Fatalf("unexpected text label: %+v", tx)
	}
}

func TestCircleRadiusDerived(t *testing.T) {
	c := NewCircle(Point{X: 10, Y: 10}, Style{}, testNow)
	*c.Edge = Point{X: 13, Y: 14}
	if got := c.Radius(); math.Abs(got-5) > 1e-9 {
		t.Fatalf("radius = %v, want 5", got)
	}
}

func TestRectBoundsDirectionIndependent(t *testing.T) {
	a := NewRect(Point{X: 10, Y: 10}, Style{}, testNow)
	*a.End = Point{X: 50, Y: 50}
	b := NewRect(Point{X: 50, Y: 50}, Style{}, testNow)
	*b.End = Point{X: 10, Y: 10}

	ax, ay, aw, ah := a.Bounds()
	bx, by, bw, bh := b.Bounds()
	if ax != bx || ay != by || aw != bw || ah != bh {
		t.Fatalf("bounds differ by drag direction: (%v %v %v %v) vs (%v %v %v %v)",
			ax, ay, aw, ah, bx, by, bw, bh)
	}
	if aw != 40 || ah != 40 {
		t.Fatalf("unexpected size %v x %v", aw, ah)
	}
}

func TestValidateRejectsBrokenElements(t *testing.T) {
	cases := []struct {
		name string
		el   Element
	}{
		{"missing id", Element{Kind: KindText}},
		{"unknown kind", Element{ID: "x", Kind: "scribble"}},
		{"freehand no points", Element{ID: "x", Kind: KindFreehand}},
		{"rect no end", Element{ID: "x", Kind: KindRect, Start: &Point{}}},
		{"circle no edge", Element{ID: "x", Kind: KindCircle, Center: &Point{}}},
		{"text no anchor", Element{ID: "x", Kind: KindText, Text: "hi"}},
		{"text empty", Element{ID: "x", Kind: KindText, Anchor: &Point{}}},
	}
	for _, tc := range cases {
		if err := tc.el.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
	ok := NewText(Point{X: 1, Y: 2}, "ok", Style{}, testNow)
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid element rejected: %v", err)
	}
}

func TestSnapshotAppendDoesNotAliasBacking(t *testing.T) {
	base := Snapshot{}.Append(NewText(Point{X: 1, Y: 1}, "a", Style{}, testNow))
	s1 := base.Append(NewText(Point{X: 2, Y: 2}, "b", Style{}, testNow))
	s2 := base.Append(NewText(Point{X: 3, Y: 3}, "c", Style{}, testNow))
	if len(base) != 1 || len(s1) != 2 || len(s2) != 2 {
		t.Fatalf("unexpected lengths %d %d %d", len(base), len(s1), len(s2))
	}
	if s1[1].Text == s2[1].Text {
		t.Fatalf("append branches share backing array")
	}
}
