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
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Verifies that Init with a file handler writes JSON logs and that static
// and contextual attributes are present.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("bmk_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() { _ = os.Remove(fpath) })

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.Info("hello world", slog.String("k", "v"))

	time.Sleep(50 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(b)))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, last)
	}
	for _, k := range []string{"app", "ver", "component", "op", "k"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("log line missing %q: %v", k, m)
		}
	}
	if m["app"] != "bluemark" || m["component"] != "testcomp" {
		t.Fatalf("unexpected attrs: %v", m)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BMK_LOG_LEVEL", "warn")
	t.Setenv("BMK_LOG_FORMAT", "json")
	t.Setenv("BMK_LOG_SOURCE", "true")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("BMK_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}
