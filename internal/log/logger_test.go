/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestInitAndStructuredLoggingToFile verifies that Init with a file handler writes JSON logs
// and that static and contextual attributes are present.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "ts_log.json")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "json", File: fpath, Console: &console})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.Info("hello world", slog.String("k", "v"))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(b))
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
		t.Fatalf("unmarshal json log: %v", err)
	}
	if m["app"] != "thumbstudio" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" {
		t.Fatalf("context attrs mismatch: %v", m)
	}
	if m["msg"] != "hello world" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if !strings.Contains(console.String(), "hello world") {
		t.Fatalf("console json output missing message: %q", console.String())
	}
}

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "console", Console: &buf})
	t.Cleanup(func() { Init(Options{Level: "info", Console: &bytes.Buffer{}}) })

	l := WithSession(WithComponent("editor"), "s-1")
	l.Debug("hidden")
	l.Info("pointer up", slog.Float64("x", 45.5), slog.Bool("moved", true), slog.String("label", "two words"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered at info level: %q", out)
	}
	for _, want := range []string{"INF pointer up", "component=editor", "session=s-1", "x=45.5", "moved=true", "label=\"two words\""} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q: %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TS_LOG_LEVEL", "debug")
	t.Setenv("TS_LOG_FORMAT", "json")
	t.Setenv("TS_LOG_SOURCE", "TRUE")
	t.Setenv("TS_LOG_FILE", "/tmp/ts.log")
	o := FromEnv()
	if o.Level != "debug" || o.Format != "json" || !o.AddSource || o.File != "/tmp/ts.log" {
		t.Fatalf("unexpected options from env: %+v", o)
	}
}
