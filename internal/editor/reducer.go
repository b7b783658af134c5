/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor implements the interaction state machine that turns pointer
// events and tool selection into committed markup elements. The machine is a
// pure reducer over (State, Event); it has no rendering or persistence
// dependency, which keeps it unit-testable in isolation. Events arrive on a
// single interaction loop and each transition completes before the next
// event is processed.
package editor

import (
	"strings"
	"time"

	"bluemark/internal/domain"
)

// Tool is the currently selected drawing tool.
type Tool int

const (
	ToolPen Tool = iota
	ToolRect
	ToolCircle
	ToolText
)

// Phase names the machine states.
type Phase int

const (
	// Idle: no element under construction.
	Idle Phase = iota
	// Drawing: a pen/rect/circle element follows the pointer.
	Drawing
	// TextPending: an anchor point is captured, awaiting text input.
	TextPending
)

// EventKind discriminates interaction events.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	TextConfirm
	TextCancel
	SelectTool
)

// Event is one interaction input. At carries the logical-space pointer
// position for pointer events; Text the entered label for TextConfirm; Tool
// the selection for SelectTool.
type Event struct {
	Kind EventKind
	At   domain.Point
	Text string
	Tool Tool
}

// State is the complete reducer state. InProgress is non-nil exactly in the
// Drawing phase; PendingAnchor is non-nil exactly in TextPending.
type State struct {
	Phase         Phase
	Tool          Tool
	Style         domain.Style
	InProgress    *domain.Element
	PendingAnchor *domain.Point
}

// NewState returns an idle state with the pen selected.
func NewState(style domain.Style) State {
	return State{Phase: Idle, Tool: ToolPen, Style: style}
}

// Reduce applies one event and returns the next state plus the element to
// commit, if the event finalized one. It never mutates its input: the
// in-progress element is rebuilt on each step so earlier states stay valid.
func Reduce(s State, ev Event, now time.Time) (State, *domain.Element) {
	switch ev.Kind {
	case SelectTool:
		// Switching tools cancels any element under construction.
		s.Tool = ev.Tool
		s.Phase = Idle
		s.InProgress = nil
		s.PendingAnchor = nil
		return s, nil

	case PointerDown:
		if s.Phase != Idle {
			return s, nil
		}
		switch s.Tool {
		case ToolPen:
			e := domain.NewFreehand(ev.At, s.Style, now)
			s.Phase, s.InProgress = Drawing, &e
		case ToolRect:
			e := domain.NewRect(ev.At, s.Style, now)
			s.Phase, s.InProgress = Drawing, &e
		case ToolCircle:
			e := domain.NewCircle(ev.At, s.Style, now)
			s.Phase, s.InProgress = Drawing, &e
		case ToolText:
			at := ev.At
			s.Phase, s.PendingAnchor = TextPending, &at
		}
		return s, nil

	case PointerMove:
		if s.Phase != Drawing || s.InProgress == nil {
			return s, nil
		}
		e := *s.InProgress
		switch e.Kind {
		case domain.KindFreehand:
			// Every sampled point is kept; no distance-based decimation.
			e.Points = append(append([]domain.Point(nil), e.Points...), ev.At)
		case domain.KindRect:
			end := ev.At
			e.End = &end
		case domain.KindCircle:
			edge := ev.At
			e.Edge = &edge
		}
		s.InProgress = &e
		return s, nil

	case PointerUp:
		if s.Phase != Drawing || s.InProgress == nil {
			return s, nil
		}
		committed := s.InProgress
		s.Phase, s.InProgress = Idle, nil
		return s, committed

	case TextConfirm:
		if s.Phase != TextPending || s.PendingAnchor == nil {
			return s, nil
		}
		anchor := *s.PendingAnchor
		s.Phase, s.PendingAnchor = Idle, nil
		if strings.TrimSpace(ev.Text) == "" {
			// Empty input discards the capture.
			return s, nil
		}
		e := domain.NewText(anchor, ev.Text, s.Style, now)
		return s, &e
	case TextCancel:
		if s.Phase != TextPending {
			return s, nil
		}
		s.Phase, s.PendingAnchor = Idle, nil
		return s, nil
	}
	return s, nil
}
