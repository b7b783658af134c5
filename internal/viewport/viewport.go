/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewport owns the zoom and pan state of the editing surface and
// converts between device (pointer) coordinates and the blueprint's logical
// coordinate space. The renderer applies exactly the forward transform of
// LogicalToScreen, so ScreenToLogical is its inverse by construction.
package viewport

import "bluemark/internal/domain"

// Zoom bounds and step. Zoom is adjusted in fixed steps and clamped; there is
// no free-form zoom gesture in the current design.
const (
	MinZoom  = 0.1
	MaxZoom  = 3.0
	ZoomStep = 0.1
)

// Viewport holds the current view state. OriginX/OriginY locate the drawing
// surface's top-left corner inside the device window; pan is expressed in
// logical units and scales with zoom.
type Viewport struct {
	Zoom    float64
	PanX    float64
	PanY    float64
	OriginX float64
	OriginY float64
}

// New returns a viewport at 1:1 zoom with no pan.
func New() Viewport { return Viewport{Zoom: 1} }

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// ZoomIn increases zoom by one step, clamped to MaxZoom.
func (v Viewport) ZoomIn() Viewport {
	v.Zoom = clampZoom(v.Zoom + ZoomStep)
	return v
}

// ZoomOut decreases zoom by one step, clamped to MinZoom.
func (v Viewport) ZoomOut() Viewport {
	v.Zoom = clampZoom(v.Zoom - ZoomStep)
	return v
}

// Pan shifts the view by the given logical deltas.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.PanX += dx
	v.PanY += dy
	return v
}

// Reset returns the viewport to 1:1 zoom and zero pan, keeping the origin.
func (v Viewport) Reset() Viewport {
	v.Zoom = 1
	v.PanX, v.PanY = 0, 0
	return v
}

// ScreenToLogical converts a device coordinate to logical space. It is the
// exact inverse of LogicalToScreen for the same viewport state.
func (v Viewport) ScreenToLogical(deviceX, deviceY float64) domain.Point {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return domain.Point{
		X: (deviceX - v.OriginX - v.PanX*z) / z,
		Y: (deviceY - v.OriginY - v.PanY*z) / z,
	}
}

// LogicalToScreen converts a logical point to device space: scale by zoom,
// then translate by pan (in zoomed units) and the surface origin.
func (v Viewport) LogicalToScreen(p domain.Point) (deviceX, deviceY float64) {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return p.X*z + v.PanX*z + v.OriginX, p.Y*z + v.PanY*z + v.OriginY
}
