/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"sync"
	"time"
)

// SaveEvent announces a persisted markup change on a blueprint.
type SaveEvent struct {
	BlueprintID string    `json:"blueprintId"`
	Version     int64     `json:"version"`
	SavedAt     time.Time `json:"savedAt"`
}

// Hub is an in-process registry of subscribers keyed by blueprint id. Each
// subscriber owns a buffered sink channel and must be removed explicitly on
// disconnect. Delivery is best-effort: a full sink drops the event rather
// than blocking the save path.
type Hub struct {
	mu    sync.Mutex
	sinks map[string]map[*Subscription]struct{}
}

// Subscription is one registered sink.
type Subscription struct {
	BlueprintID string
	C           chan SaveEvent
}

// NewHub returns an empty registry.
func NewHub() *Hub {
	return &Hub{sinks: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a sink for one blueprint's save events.
func (h *Hub) Subscribe(blueprintID string) *Subscription {
	sub := &Subscription{BlueprintID: blueprintID, C: make(chan SaveEvent, 8)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.sinks[blueprintID]
	if set == nil {
		set = make(map[*Subscription]struct{})
		h.sinks[blueprintID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the sink and closes its channel. Safe to call once
// per subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.sinks[sub.BlueprintID]
	if set == nil {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.sinks, sub.BlueprintID)
	}
	close(sub.C)
}

// Publish fans the event out to every sink registered for its blueprint.
func (h *Hub) Publish(ev SaveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.sinks[ev.BlueprintID] {
		select {
		case sub.C <- ev:
		default:
		}
	}
}

// Subscribers returns the sink count for a blueprint, for diagnostics.
func (h *Hub) Subscribers(blueprintID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sinks[blueprintID])
}
