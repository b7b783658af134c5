/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"
	"testing"

	"bluemark/internal/domain"
)

func TestZoomClamping(t *testing.T) {
	v := New()
	for i := 0; i < 40; i++ {
		v = v.ZoomIn()
	}
	if v.Zoom != MaxZoom {
		t.Fatalf("zoom in not clamped: %v", v.Zoom)
	}
	for i := 0; i < 60; i++ {
		v = v.ZoomOut()
	}
	if math.Abs(v.Zoom-MinZoom) > 1e-9 {
		t.Fatalf("zoom out not clamped: %v", v.Zoom)
	}
}

func TestResetView(t *testing.T) {
	v := New().ZoomIn().ZoomIn().Pan(30, -12)
	v.OriginX, v.OriginY = 5, 7
	v = v.Reset()
	if v.Zoom != 1 || v.PanX != 0 || v.PanY != 0 {
		t.Fatalf("reset left state behind: %+v", v)
	}
	if v.OriginX != 5 || v.OriginY != 7 {
		t.Fatalf("reset must keep surface origin: %+v", v)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	points := []domain.Point{
		{X: 0, Y: 0},
		{X: 123.25, Y: 456.5},
		{X: -40, Y: 17.875},
	}
	// Sweep the whole supported zoom range with assorted pans and origins.
	for z := MinZoom; z <= MaxZoom+1e-9; z += ZoomStep {
		v := Viewport{Zoom: z, PanX: -33.5, PanY: 102, OriginX: 16, OriginY: 24}
		for _, p := range points {
			dx, dy := v.LogicalToScreen(p)
			back := v.ScreenToLogical(dx, dy)
			if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
				t.Fatalf("round trip failed at zoom %.1f: %+v -> (%v,%v) -> %+v", z, p, dx, dy, back)
			}
		}
	}
}

func TestScreenToLogicalMatchesSpecTransform(t *testing.T) {
	v := Viewport{Zoom: 2, PanX: 10, PanY: 20, OriginX: 100, OriginY: 50}
	got := v.ScreenToLogical(160, 130)
	// logicalX = (deviceX - originX - panX*z) / z
	want := domain.Point{X: (160 - 100 - 10*2) / 2, Y: (130 - 50 - 20*2) / 2}
	if got != want {
		t.Fatalf("ScreenToLogical = %+v, want %+v", got, want)
	}
}
