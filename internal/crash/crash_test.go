/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thumbstudio/internal/layout"
	"thumbstudio/internal/storage"
)

type docs map[string]layout.Document

func (d docs) Documents() map[string]layout.Document { return d }

func TestWriteReportUnderBackups(t *testing.T) {
	dir := t.TempDir()
	path, err := writeReport(dir, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(dir, storage.BackupsDirName)) {
		t.Fatalf("report outside backups dir: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Thumbstudio Crash Report")) || !bytes.Contains(b, []byte("Panic: kaboom")) {
		t.Fatalf("report content: %s", b)
	}
}

func TestRecoverWritesReportAndRescuesLayouts(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	open := docs{"s-1": {Background: "beach", Elements: []layout.Element{layout.NewText("t", 0)}}}
	func() {
		defer Recover(dir, open)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	files, _ := os.ReadDir(filepath.Join(dir, storage.BackupsDirName))
	found := false
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no crash report written")
	}
	doc, err := storage.OpenDocument(filepath.Join(dir, RescueDirName, "s-1"))
	if err != nil {
		t.Fatalf("rescued layout: %v", err)
	}
	if doc.Background != "beach" || len(doc.Elements) != 1 {
		t.Fatalf("rescued doc = %+v", doc)
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(t.TempDir(), nil)
	}()
	if called {
		t.Fatalf("exit called without panic")
	}
}
