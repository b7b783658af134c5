/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOptOutDropsDomainEvents(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Opted out: the save and export paths call these unconditionally, so
	// the drop has to happen here, not at the call sites.
	NewDefault(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: time.Second})
	defer defaultClient.Close()

	MarkupSaved(1, 5)
	ExportCompleted("png", 5)
	UploadCrash([]byte("ignored"))
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests when opted out")
	}
}

func TestEmptyEventNameIgnored(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()
	c.Event("", map[string]any{"elements": 1})
	c.Flush(context.Background())
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests for empty event name")
	}
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	// No endpoint consumes the queue fast enough to matter: point at an
	// address that hangs the dial and overfill the buffer.
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", Timeout: 10 * time.Millisecond})
	defer c.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 256; i++ {
			c.Event(EventMarkupSaved, map[string]any{"elements": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("enqueue blocked on a full telemetry queue")
	}
}
