/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a fatal panic into a report file and rescues open layouts.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"time"

	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/storage"
	"thumbstudio/internal/telemetry"
	"thumbstudio/internal/version"
)

// RescueDirName holds per-session layout snapshots written on a crash.
const RescueDirName = "rescue"

// Rescuer exposes the layouts that are open when the process dies, keyed by session id.
type Rescuer interface {
	Documents() map[string]layout.Document
}

// exitFn is swapped out by tests.
var exitFn = os.Exit

// Recover captures a panic, logs it with its stack, writes a report under dataDir
// and saves every layout r still holds. r may be nil; an empty dataDir uses the temp dir.
//
// Usage: defer crash.Recover(dataDir, registry)
func Recover(dataDir string, r Rescuer) {
	v := recover()
	if v == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", v), slog.String("stack", string(stack)))

	reportPath, err := writeReport(dataDir, v, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if r != nil {
		n, err := rescue(dataDir, r.Documents())
		if err != nil {
			l.Error("rescue layouts failed", slog.Any("err", err), slog.Int("saved", n))
		} else if n > 0 {
			l.Info("layouts rescued", slog.Int("count", n), slog.String("dir", filepath.Join(dataDir, RescueDirName)))
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(dataDir string) string {
	if dataDir == "" {
		return os.TempDir()
	}
	return filepath.Join(dataDir, storage.BackupsDirName)
}

func writeReport(dataDir string, panicVal any, stack []byte) (string, error) {
	dir := reportDir(dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure report dir: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Thumbstudio Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if dataDir != "" {
		_, _ = fmt.Fprintf(&buf, "DataDir: %s\n", dataDir)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// rescue writes each document under <dataDir>/rescue/<session id>. It keeps going past
// failures and returns the first error.
func rescue(dataDir string, docs map[string]layout.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	if dataDir == "" {
		dataDir = os.TempDir()
	}
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var first error
	saved := 0
	for _, id := range ids {
		dir := filepath.Join(dataDir, RescueDirName, filepath.Base(id))
		if err := storage.SaveDocument(dir, docs[id]); err != nil {
			if first == nil {
				first = fmt.Errorf("rescue %s: %w", id, err)
			}
			continue
		}
		saved++
	}
	return saved, first
}
