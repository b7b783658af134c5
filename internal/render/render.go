/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render repaints the editing surface: background drawing scaled to
// the viewport, committed elements in z-order, then the in-progress element
// on top. Every invocation redraws from scratch; element counts are small
// (typically well under 500) so no dirty-rect tracking is attempted.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"bluemark/internal/domain"
	"bluemark/internal/viewport"
)

// Surface describes the repaint target and the blueprint background.
type Surface struct {
	Width, Height int
	// Background is the source drawing; nil renders markup on white.
	Background image.Image
	// LogicalW/LogicalH define the blueprint's intrinsic coordinate space.
	// Zero values fall back to the background's pixel bounds.
	LogicalW, LogicalH float64
}

func (s Surface) logicalSize() (w, h float64) {
	w, h = s.LogicalW, s.LogicalH
	if w <= 0 || h <= 0 {
		if s.Background != nil {
			b := s.Background.Bounds()
			w, h = float64(b.Dx()), float64(b.Dy())
		} else {
			w, h = float64(s.Width), float64(s.Height)
		}
	}
	return w, h
}

// Repaint renders the full surface: clear, background under the viewport
// transform, committed elements in list order, in-progress element last.
func Repaint(s Surface, committed domain.Snapshot, inProgress *domain.Element, vp viewport.Viewport) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	if s.Background != nil {
		lw, lh := s.logicalSize()
		x0, y0 := vp.LogicalToScreen(domain.Point{X: 0, Y: 0})
		x1, y1 := vp.LogicalToScreen(domain.Point{X: lw, Y: lh})
		r := image.Rect(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)))
		xdraw.ApproxBiLinear.Scale(dst, r, s.Background, s.Background.Bounds(), draw.Over, nil)
	}

	for _, e := range committed {
		drawElement(dst, e, vp)
	}
	if inProgress != nil {
		drawElement(dst, *inProgress, vp)
	}
	return dst
}

func drawElement(dst *image.RGBA, e domain.Element, vp viewport.Viewport) {
	col := ParseHexColor(e.Color)
	w := e.StrokeWidth * vp.Zoom
	switch e.Kind {
	case domain.KindFreehand:
		// A single-point stroke draws nothing; it is legal but invisible.
		for i := 1; i < len(e.Points); i++ {
			drawSegment(dst, project(vp, e.Points[i-1]), project(vp, e.Points[i]), w, col)
		}
	case domain.KindRect:
		if e.Start == nil || e.End == nil {
			return
		}
		x, y, rw, rh := e.Bounds()
		a := project(vp, domain.Point{X: x, Y: y})
		b := project(vp, domain.Point{X: x + rw, Y: y})
		c := project(vp, domain.Point{X: x + rw, Y: y + rh})
		d := project(vp, domain.Point{X: x, Y: y + rh})
		drawSegment(dst, a, b, w, col)
		drawSegment(dst, b, c, w, col)
		drawSegment(dst, c, d, w, col)
		drawSegment(dst, d, a, w, col)
	case domain.KindCircle:
		if e.Center == nil || e.Edge == nil {
			return
		}
		drawCircle(dst, vp, *e.Center, e.Radius(), w, col)
	case domain.KindText:
		if e.Anchor == nil || e.Text == "" {
			return
		}
		drawText(dst, vp, *e.Anchor, e.Text, e.StrokeWidth, col)
	}
}

type devPoint struct{ x, y float64 }

func project(vp viewport.Viewport, p domain.Point) devPoint {
	x, y := vp.LogicalToScreen(p)
	return devPoint{x, y}
}

// drawSegment stamps a filled disc along the segment so strokes have round
// joins and caps without a path rasterizer.
func drawSegment(dst *image.RGBA, a, b devPoint, width float64, col color.RGBA) {
	r := width / 2
	if r < 0.5 {
		r = 0.5
	}
	dx, dy := b.x-a.x, b.y-a.y
	length := math.Hypot(dx, dy)
	steps := int(length/0.5) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisc(dst, a.x+dx*t, a.y+dy*t, r, col)
	}
}

func stampDisc(dst *image.RGBA, cx, cy, r float64, col color.RGBA) {
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	rr := r * r
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			fx, fy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if fx*fx+fy*fy <= rr {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}

func drawCircle(dst *image.RGBA, vp viewport.Viewport, center domain.Point, radius, width float64, col color.RGBA) {
	if radius <= 0 {
		return
	}
	devR := radius * vp.Zoom
	steps := int(2 * math.Pi * devR)
	if steps < 24 {
		steps = 24
	}
	prev := project(vp, domain.Point{X: center.X + radius, Y: center.Y})
	for i := 1; i <= steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		cur := project(vp, domain.Point{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		})
		drawSegment(dst, prev, cur, width, col)
		prev = cur
	}
}

// drawText renders the label with the embedded 7x13 face, then scales it so
// the glyph height tracks the element's stroke width. Left edge sits at the
// anchor; the anchor is the text baseline.
func drawText(dst *image.RGBA, vp viewport.Viewport, anchor domain.Point, text string, strokeWidth float64, col color.RGBA) {
	face := basicfont.Face7x13
	adv := font.MeasureString(face, text).Ceil()
	if adv <= 0 {
		return
	}
	asc, desc := face.Metrics().Ascent.Ceil(), face.Metrics().Descent.Ceil()
	tmp := image.NewRGBA(image.Rect(0, 0, adv, asc+desc))
	d := font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, asc),
	}
	d.DrawString(text)

	// Logical glyph height grows with stroke width; 4x is a readable size
	// for width 2 annotations on typical sheets.
	logicalH := strokeWidth * 4
	if logicalH < 4 {
		logicalH = 4
	}
	scale := logicalH * vp.Zoom / 13.0
	devW := int(math.Round(float64(adv) * scale))
	devH := int(math.Round(float64(asc+desc) * scale))
	if devW < 1 || devH < 1 {
		return
	}
	ax, ay := vp.LogicalToScreen(anchor)
	baseline := int(math.Round(float64(asc) * scale))
	r := image.Rect(int(math.Round(ax)), int(math.Round(ay))-baseline,
		int(math.Round(ax))+devW, int(math.Round(ay))-baseline+devH)
	xdraw.ApproxBiLinear.Scale(dst, r, tmp, tmp.Bounds(), draw.Over, nil)
}

// ParseHexColor parses #rgb or #rrggbb into an opaque RGBA. Unparseable
// input falls back to opaque black rather than failing the repaint.
func ParseHexColor(s string) color.RGBA {
	c := color.RGBA{A: 0xff}
	hex := s
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	nib := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	byteAt := func(i int) (uint8, bool) {
		hi, ok1 := nib(hex[i])
		lo, ok2 := nib(hex[i+1])
		return hi<<4 | lo, ok1 && ok2
	}
	switch len(hex) {
	case 3:
		r, ok1 := nib(hex[0])
		g, ok2 := nib(hex[1])
		b, ok3 := nib(hex[2])
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r*17, g*17, b*17
		}
	case 6:
		r, ok1 := byteAt(0)
		g, ok2 := byteAt(2)
		b, ok3 := byteAt(4)
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r, g, b
		}
	}
	return c
}
