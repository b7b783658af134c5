/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bluemark/internal/domain"
	"bluemark/internal/editor"
	"bluemark/internal/storage"
)

// TestRecover_PanickingGoroutine ensures Recover handles a panic, writes a
// report, persists a crash snapshot, and does not terminate the test process
// due to the injected exitFn.
func TestRecover_PanickingGoroutine(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(os.Stderr, r) // drain pipe
	}()

	// Override exitFn to avoid os.Exit during test and to assert it was called
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := useTempReportDir(t)

	store, err := storage.Open(filepath.Join(t.TempDir(), "drafts.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	snap := domain.Snapshot{{ID: "e1", Kind: domain.KindRect, Color: "#ff0000", StrokeWidth: 2,
		CreatedAt: 1700000000000, Start: &domain.Point{X: 0, Y: 0}, End: &domain.Point{X: 5, Y: 5}}}
	sess := editor.NewSession("bp-7", snap, domain.DefaultStyle)

	// Trigger a panic that Recover will catch
	func() {
		defer Recover(store, sess)
		panic("boom")
	}()

	// Allow time for filesystem writes
	time.Sleep(50 * time.Millisecond)

	var found string
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = filepath.Join(dir, f.Name())
			break
		}
	}
	if found == "" {
		t.Fatalf("expected crash report file under %s", dir)
	}
	b, err := os.ReadFile(found)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}

	// The session snapshot must have been persisted for restart recovery.
	got, _, ok, err := store.LatestCrashSnapshot(context.Background(), "bp-7")
	if err != nil || !ok {
		t.Fatalf("expected crash snapshot (ok=%v err=%v)", ok, err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("unexpected snapshot contents: %+v", got)
	}

	// Ensure exit was attempted with code 2 (but intercepted)
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}
