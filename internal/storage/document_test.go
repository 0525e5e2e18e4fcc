/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"thumbstudio/internal/layout"
)

func sampleDoc(bg string) layout.Document {
	return layout.Document{Background: bg, Elements: []layout.Element{layout.NewText("t", 0), layout.NewObject("o", 1)}}
}

func TestSaveAndOpenDocument(t *testing.T) {
	dir := t.TempDir()
	if err := SaveDocument(dir, sampleDoc("first")); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	doc, err := OpenDocument(dir)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.Background != "first" || len(doc.Elements) != 2 {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if _, ok := doc.Elements[0].Text(); !ok {
		t.Fatalf("element kind lost")
	}
}

func TestSaveCreatesBackupOfPrevious(t *testing.T) {
	dir := t.TempDir()
	_ = SaveDocument(dir, sampleDoc("v1"))
	if err := SaveDocument(dir, sampleDoc("v2")); err != nil {
		t.Fatalf("second save: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(dir, BackupsDirName))
	if err != nil || len(ents) != 1 {
		t.Fatalf("expected one backup, got %d (%v)", len(ents), err)
	}
}

func TestOpenFallsBackToBackupOnCorruption(t *testing.T) {
	dir := t.TempDir()
	_ = SaveDocument(dir, sampleDoc("good"))
	_ = SaveDocument(dir, sampleDoc("newer"))
	if err := os.WriteFile(filepath.Join(dir, LayoutFileName), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	doc, err := OpenDocument(dir)
	if err != nil {
		t.Fatalf("OpenDocument should recover from backup: %v", err)
	}
	if doc.Background != "good" {
		t.Fatalf("expected backup content, got %q", doc.Background)
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	if _, err := OpenDocument(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDocumentRequiresDir(t *testing.T) {
	if err := SaveDocument("  ", sampleDoc("x")); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
