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

// This file defines the core data model for blueprint markup: the element
// variants drawn over a background drawing, the snapshot (one complete
// ordered element list), and the persistence-facing blueprint and named-save
// records. Element geometry lives in the blueprint's intrinsic logical
// coordinate space; the viewport maps it to device pixels.

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Point is a coordinate in the blueprint's logical space, independent of any
// zoom or pan applied by the viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to o.
func (p Point) Dist(o Point) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// ElementKind discriminates the markup variants on the wire.
type ElementKind string

const (
	KindFreehand ElementKind = "freehand"
	KindRect     ElementKind = "rect"
	KindCircle   ElementKind = "circle"
	KindText     ElementKind = "text"
)

// Element is a single markup annotation. Kind selects which geometry fields
// are meaningful:
//   - freehand: Points, an ordered path with at least one point
//   - rect:     Start and End, opposite corners; drag direction is
//     unconstrained, so width/height may be negative before normalization
//   - circle:   Center and Edge; the radius is derived at render time and
//     never stored
//   - text:     Anchor and Text
//
// Array position within a Snapshot is the z-order; there is no explicit
// z-index field.
type Element struct {
	ID          string      `json:"id"`
	Kind        ElementKind `json:"kind"`
	Color       string      `json:"color"`       // hex, e.g. "#d32f2f"
	StrokeWidth float64     `json:"strokeWidth"` // logical units
	CreatedAt   int64       `json:"createdAt"`   // epoch milliseconds

	Points []Point `json:"points,omitempty"`
	Start  *Point  `json:"start,omitempty"`
	End    *Point  `json:"end,omitempty"`
	Center *Point  `json:"center,omitempty"`
	Edge   *Point  `json:"edge,omitempty"`
	Anchor *Point  `json:"anchor,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// Style carries the pen attributes applied to newly created elements.
type Style struct {
	Color       string
	StrokeWidth float64
}

// DefaultStyle is used when the caller supplies a zero Style.
var DefaultStyle = Style{Color: "#d32f2f", StrokeWidth: 2}

func (s Style) orDefault() Style {
	if strings.TrimSpace(s.Color) == "" {
		s.Color = DefaultStyle.Color
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = DefaultStyle.StrokeWidth
	}
	return s
}

func newElement(kind ElementKind, style Style, now time.Time) Element {
	style = style.orDefault()
	return Element{
		ID:          uuid.NewString(),
		Kind:        kind,
		Color:       style.Color,
		StrokeWidth: style.StrokeWidth,
		CreatedAt:   now.UnixMilli(),
	}
}

// NewFreehand creates a freehand stroke seeded with a single point.
func NewFreehand(seed Point, style Style, now time.Time) Element {
	e := newElement(KindFreehand, style, now)
	e.Points = []Point{seed}
	return e
}

// NewRect creates a rectangle with both corners at seed.
func NewRect(seed Point, style Style, now time.Time) Element {
	e := newElement(KindRect, style, now)
	s, en := seed, seed
	e.Start, e.End = &s, &en
	return e
}

// NewCircle creates a circle with center and edge both at seed (radius 0).
func NewCircle(seed Point, style Style, now time.Time) Element {
	e := newElement(KindCircle, style, now)
	c, ed := seed, seed
	e.Center, e.Edge = &c, &ed
	return e
}

// NewText creates a text label anchored at anchor.
func NewText(anchor Point, text string, style Style, now time.Time) Element {
	e := newElement(KindText, style, now)
	a := anchor
	e.Anchor = &a
	e.Text = text
	return e
}

// Radius returns the derived radius of a circle element, zero otherwise.
func (e Element) Radius() float64 {
	if e.Kind != KindCircle || e.Center == nil || e.Edge == nil {
		return 0
	}
	return e.Center.Dist(*e.Edge)
}

// Bounds returns the normalized axis-aligned bounding box of a rect element
// as min corner plus non-negative width/height, regardless of the direction
// the user dragged.
func (e Element) Bounds() (x, y, w, h float64) {
	if e.Kind != KindRect || e.Start == nil || e.End == nil {
		return 0, 0, 0, 0
	}
	x = math.Min(e.Start.X, e.End.X)
	y = math.Min(e.Start.Y, e.End.Y)
	w = math.Abs(e.End.X - e.Start.X)
	h = math.Abs(e.End.Y - e.Start.Y)
	return x, y, w, h
}

// Validate checks that the geometry fields required by Kind are present.
func (e Element) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("element id is required")
	}
	switch e.Kind {
	case KindFreehand:
		if len(e.Points) < 1 {
			return fmt.Errorf("freehand %s: at least one point required", e.ID)
		}
	case KindRect:
		if e.Start == nil || e.End == nil {
			return fmt.Errorf("rect %s: start and end required", e.ID)
		}
	case KindCircle:
		if e.Center == nil || e.Edge == nil {
			return fmt.Errorf("circle %s: center and edge required", e.ID)
		}
	case KindText:
		if e.Anchor == nil {
			return fmt.Errorf("text %s: anchor required", e.ID)
		}
		if e.Text == "" {
			return fmt.Errorf("text %s: empty text", e.ID)
		}
	default:
		return fmt.Errorf("element %s: unknown kind %q", e.ID, e.Kind)
	}
	return nil
}

// Snapshot is one complete, ordered committed element list. Snapshots are
// treated as immutable: editing code appends to a copy and pushes the copy
// onto history rather than mutating in place.
type Snapshot []Element

// Clone returns a copied snapshot safe to append to. Element values are
// copied; committed geometry is never mutated afterwards.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Append returns a new snapshot with e on top of the z-order.
func (s Snapshot) Append(e Element) Snapshot {
	out := make(Snapshot, 0, len(s)+1)
	out = append(out, s...)
	return append(out, e)
}

// Blueprint is the persistence collaborator's record: a background drawing
// plus one mutable live markup overlay. Version increments on each live
// write but is deliberately not checked before overwrite (last write wins).
type Blueprint struct {
	ID             string      `json:"id"`
	JobID          string      `json:"jobId"`
	SourceImageURL string      `json:"sourceImageUrl"`
	LiveMarkup     string      `json:"liveMarkup"`
	Version        int64       `json:"version"`
	NamedSaves     []NamedSave `json:"namedSaves,omitempty"`
}

// NamedSave is a separately retrievable, user-named copy of a snapshot.
// Saves are only ever created or listed; nothing deletes them implicitly.
type NamedSave struct {
	ID          string    `json:"id"`
	BlueprintID string    `json:"blueprintId"`
	Name        string    `json:"name"`
	Markup      string    `json:"markup"` // serialized snapshot
	Description string    `json:"description,omitempty"`
	IsShared    bool      `json:"isShared"`
	OwnerID     string    `json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
