/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyTextHandlerBehavior(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &buf}

	if h.Enabled(nil, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")

	r := slog.Record{Time: time.Now(), Level: slog.LevelError, Message: "boom"}
	r.AddAttrs(slog.Int("n", 42), slog.Float64("half", 0.5), slog.Bool("ok", true))
	if err := h2.Handle(nil, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"boom", "ERR", "grp.k=v", "grp.n=42", "grp.half=0.5", "grp.ok=true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestLevelParsing(t *testing.T) {
	cases := map[string]slog.Leveler{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var a, b bytes.Buffer
	m := &multi{hs: []slog.Handler{
		&prettyTextHandler{opts: prettyOpts{Level: slog.LevelInfo}, w: &a},
		&prettyTextHandler{opts: prettyOpts{Level: slog.LevelInfo}, w: &b},
	}}
	r := slog.Record{Time: time.Now(), Level: slog.LevelInfo, Message: "fan"}
	if err := m.Handle(nil, r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(a.String(), "fan") || !strings.Contains(b.String(), "fan") {
		t.Fatalf("record not fanned out: a=%q b=%q", a.String(), b.String())
	}
}
