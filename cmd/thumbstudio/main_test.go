/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thumbstudio/internal/config"
	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/server"
	"thumbstudio/internal/storage"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Defaults()
	cfg.Server.DataDir = t.TempDir()
	return &app{cfg: cfg, log: applog.WithComponent("cli-test")}
}

func writeLayoutFile(t *testing.T) (string, layout.Document) {
	t.Helper()
	doc := layout.Document{
		Background: "#102030",
		Elements:   []layout.Element{layout.NewObject("o1", 0), layout.NewText("t1", 1)},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path, doc
}

func TestParseArgs_FlagsAnywhere(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	out := fs.String("o", "", "")
	pos, err := parseArgs(fs, []string{"a.json", "-o", "x.png", "b"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *out != "x.png" || len(pos) != 2 || pos[0] != "a.json" || pos[1] != "b" {
		t.Fatalf("unexpected parse: out=%q pos=%v", *out, pos)
	}
}

func TestLoadDocument_FileAndDirectory(t *testing.T) {
	path, doc := writeLayoutFile(t)
	got, err := loadDocument(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if got.Background != doc.Background || len(got.Elements) != 2 {
		t.Fatalf("unexpected document: %+v", got)
	}

	dir := t.TempDir()
	if err := storage.SaveDocument(dir, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = loadDocument(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(got.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got.Elements))
	}

	if _, err := loadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRun_RenderAndSVG(t *testing.T) {
	a := testApp(t)
	path, _ := writeLayoutFile(t)
	out := t.TempDir()

	png := filepath.Join(out, "thumb.png")
	if err := a.run("render", []string{path, "-o", png, "--preset", "square"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("render output is not a PNG")
	}

	svg := filepath.Join(out, "nested", "thumb.svg")
	if err := a.run("svg", []string{path, "-o", svg, "--frames"}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	data, err = os.ReadFile(svg)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Fatalf("svg output missing root: %.80s", data)
	}

	if err := a.run("render", []string{path, "--preset", "poster"}); err == nil {
		t.Fatal("expected unknown preset error")
	}
	if err := a.run("render", nil); err == nil {
		t.Fatal("expected error without layout")
	}
}

func TestRun_BundleThenInstall(t *testing.T) {
	a := testApp(t)
	path, _ := writeLayoutFile(t)
	zip := filepath.Join(t.TempDir(), "pack.zip")
	if err := a.run("bundle", []string{path, "-o", zip}); err != nil {
		t.Fatalf("bundle: %v", err)
	}
	into := filepath.Join(t.TempDir(), "installed")
	if err := a.run("install", []string{zip, "--into", into}); err != nil {
		t.Fatalf("install: %v", err)
	}
	doc, err := storage.OpenDocument(into)
	if err != nil {
		t.Fatalf("open installed layout: %v", err)
	}
	if doc.Background != "#102030" || len(doc.Elements) != 2 {
		t.Fatalf("unexpected installed layout: %+v", doc)
	}
}

func TestRun_TokenNeedsSecret(t *testing.T) {
	a := testApp(t)
	t.Setenv(server.EnvAuthSecret, "")
	if err := a.run("token", []string{"alice"}); err == nil {
		t.Fatal("expected error without secret")
	}
	t.Setenv(server.EnvAuthSecret, "s3cret")
	if err := a.run("token", []string{"alice", "--ttl", "1h"}); err != nil {
		t.Fatalf("token: %v", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	a := testApp(t)
	if err := a.run("frobnicate", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := a.run("version", nil); err != nil {
		t.Fatalf("version: %v", err)
	}
}
