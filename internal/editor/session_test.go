/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"math"
	"testing"

	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
	"thumbstudio/internal/prompt"
)

var canvas = geometry.Rect{X: 0, Y: 0, Width: 1600, Height: 900}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func seeded() (*Session, layout.Document) {
	box := layout.NewObject("box", 0)
	box.Geometry = layout.Geometry{X: 35, Y: 40, Width: 30, Height: 20}
	title := layout.NewText("title", 1)
	title.Geometry = layout.Geometry{X: 0, Y: 0, Width: 20, Height: 10}
	doc := layout.Document{Background: "studio", Elements: []layout.Element{box, title}}
	return NewSession(doc), doc
}

func TestSessionDeepCopiesInitialLayout(t *testing.T) {
	s, doc := seeded()
	doc.Elements[0].X = 99
	doc.Background = "changed"
	if e, _ := s.Element("box"); e.X != 35 {
		t.Fatalf("session shares element storage with caller")
	}
	if s.Document().Background != "studio" {
		t.Fatalf("background shared with caller")
	}
}

func TestMoveGestureScenario(t *testing.T) {
	s, _ := seeded()
	if !s.PointerDownElement("box", geometry.Point{X: 700, Y: 450}, canvas) {
		t.Fatalf("pointer down rejected")
	}
	if sel, _ := s.Selected(); sel != "box" {
		t.Fatalf("pointer down must select, got %q", sel)
	}
	s.PointerMove(geometry.Point{X: 780, Y: 450})
	s.PointerMove(geometry.Point{X: 860, Y: 450})
	s.PointerUp()
	e, _ := s.Element("box")
	if !near(e.X, 45) || !near(e.Y, 40) {
		t.Fatalf("box at %v,%v, want 45,40", e.X, e.Y)
	}
	if s.Interaction().Active() {
		t.Fatalf("interaction should be idle after pointer up")
	}
	if s.PointerMove(geometry.Point{X: 0, Y: 0}) {
		t.Fatalf("moves after pointer up must be ignored")
	}
}

func TestResizeViaRawPointer(t *testing.T) {
	s, _ := seeded()
	// select first by clicking the body, then grab the bottom-right corner
	s.PointerDownAt(geometry.Point{X: 800, Y: 450}, canvas)
	s.PointerUp()
	if !s.PointerDownAt(geometry.Point{X: 1040, Y: 540}, canvas) {
		t.Fatalf("expected handle hit")
	}
	if g, _ := s.Interaction().Gesture(); g.Kind != "resize-br" {
		t.Fatalf("gesture kind = %q", g.Kind)
	}
	s.PointerMove(geometry.Point{X: 1200, Y: 630})
	s.PointerUp()
	e, _ := s.Element("box")
	if !near(e.Width, 40) || !near(e.Height, 30) || !near(e.X, 35) || !near(e.Y, 40) {
		t.Fatalf("unexpected geometry after resize: %+v", e.Geometry)
	}
}

func TestHandlesOnlyOnSelected(t *testing.T) {
	s, _ := seeded()
	if s.PointerDownHandle(geometry.HandleBR, geometry.Point{}, canvas) {
		t.Fatalf("handle gesture without selection must be rejected")
	}
}

func TestRotateKeepsUnnormalizedValue(t *testing.T) {
	s, _ := seeded()
	s.PointerDownElement("box", geometry.Point{X: 800, Y: 450}, canvas)
	s.PointerUp()
	s.PointerDownHandle(geometry.HandleRotate, geometry.Point{X: 800, Y: 336}, canvas)
	s.PointerMove(geometry.Point{X: 700, Y: 450})
	s.PointerUp()
	e, _ := s.Element("box")
	if e.Rotation != 270 {
		t.Fatalf("rotation = %v, want 270 (not normalized)", e.Rotation)
	}
}

func TestSecondPointerDownIgnored(t *testing.T) {
	s, _ := seeded()
	s.PointerDownElement("box", geometry.Point{X: 700, Y: 450}, canvas)
	if s.PointerDownElement("title", geometry.Point{X: 10, Y: 10}, canvas) {
		t.Fatalf("second pointer down should be ignored")
	}
	if sel, _ := s.Selected(); sel != "box" {
		t.Fatalf("selection changed by ignored pointer down: %q", sel)
	}
}

func TestAddElements(t *testing.T) {
	s, _ := seeded()
	txt := s.AddText()
	if txt.ZIndex != 2 || txt.Content != "New Text" {
		t.Fatalf("unexpected new text %+v", txt)
	}
	if sel, edit := s.Selected(); sel != txt.ID || edit != txt.ID {
		t.Fatalf("new text must be selected and editing: %q/%q", sel, edit)
	}
	obj := s.AddObject()
	if obj.ZIndex != 3 {
		t.Fatalf("object zIndex = %d, want 3", obj.ZIndex)
	}
	if sel, edit := s.Selected(); sel != obj.ID || edit != "" {
		t.Fatalf("new object selected without edit: %q/%q", sel, edit)
	}
	if obj.ID == txt.ID || obj.ID == "" {
		t.Fatalf("ids must be unique and non-empty")
	}
}

func TestDeleteClearsSelectionAndGesture(t *testing.T) {
	s, _ := seeded()
	if !s.PointerDownElement("title", geometry.Point{X: 10, Y: 10}, canvas) {
		t.Fatalf("move gesture not started")
	}
	if !s.Delete("title") {
		t.Fatalf("Delete failed")
	}
	if sel, edit := s.Selected(); sel != "" || edit != "" {
		t.Fatalf("delete must clear selection: %q/%q", sel, edit)
	}
	if s.Interaction().Active() {
		t.Fatalf("gesture on deleted element must end")
	}
	if s.Delete("title") {
		t.Fatalf("second delete should report false")
	}
}

func TestNoGestureOnElementInEditMode(t *testing.T) {
	s, _ := seeded()
	if !s.DoubleClick("title") {
		t.Fatalf("text should enter edit mode")
	}
	if s.PointerDownElement("title", geometry.Point{X: 10, Y: 10}, canvas) {
		t.Fatalf("move gesture started on the element being edited")
	}
	if s.PointerDownHandle(geometry.HandleBR, geometry.Point{X: 320, Y: 90}, canvas) {
		t.Fatalf("resize gesture started while editing")
	}
	if s.PointerDownHandle(geometry.HandleRotate, geometry.Point{X: 160, Y: -24}, canvas) {
		t.Fatalf("rotate gesture started while editing")
	}
	if s.Interaction().Active() {
		t.Fatalf("gesture active while element in edit mode")
	}
	if sel, edit := s.Selected(); sel != "title" || edit != "title" {
		t.Fatalf("edit mode lost: %q/%q", sel, edit)
	}

	// pressing another element ends the edit before its gesture starts
	if !s.PointerDownElement("box", geometry.Point{X: 700, Y: 450}, canvas) {
		t.Fatalf("move gesture on another element not started")
	}
	if sel, edit := s.Selected(); sel != "box" || edit != "" {
		t.Fatalf("edit mode survived a gesture: %q/%q", sel, edit)
	}
}

func TestNoEditModeDuringGesture(t *testing.T) {
	s, _ := seeded()
	if !s.PointerDownElement("title", geometry.Point{X: 10, Y: 10}, canvas) {
		t.Fatalf("move gesture not started")
	}
	if s.DoubleClick("title") {
		t.Fatalf("edit mode entered during an active gesture")
	}
	if _, edit := s.Selected(); edit != "" {
		t.Fatalf("editing %q while gesture active", edit)
	}
	s.PointerUp()
	if !s.DoubleClick("title") {
		t.Fatalf("edit mode refused after the gesture ended")
	}
}

func TestEditFlow(t *testing.T) {
	s, _ := seeded()
	if s.DoubleClick("box") {
		t.Fatalf("objects cannot be edited")
	}
	if !s.DoubleClick("title") {
		t.Fatalf("text should enter edit mode")
	}
	txt := "SALE"
	if err := s.CommitEdit(&txt); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}
	e, _ := s.Element("title")
	if e.Content != "SALE" {
		t.Fatalf("content = %q", e.Content)
	}
	if sel, edit := s.Selected(); sel != "title" || edit != "" {
		t.Fatalf("commit keeps selection only: %q/%q", sel, edit)
	}
	s.ClickEmpty()
	if sel, _ := s.Selected(); sel != "" {
		t.Fatalf("click on empty canvas must clear selection")
	}
}

func TestPatchAndAppearance(t *testing.T) {
	s, _ := seeded()
	err := s.Patch("title", layout.TextPatch{Extrusion: &layout.Extrusion{Enabled: true, Depth: 3, Angle: 0, Color: "#333333"}})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	a, ok := s.Appearance("title")
	if !ok || len(a.Shadows) != 3 || a.Shadows[0].OffsetX != 3 {
		t.Fatalf("unexpected appearance %+v", a)
	}
	if _, ok := s.Appearance("box"); ok {
		t.Fatalf("objects have no text appearance")
	}
	if err := s.Patch("box", layout.TextPatch{}); !errors.Is(err, layout.ErrKindMismatch) {
		t.Fatalf("expected kind mismatch, got %v", err)
	}
	if err := s.Patch("ghost", layout.GeometryPatch{}); err != nil {
		t.Fatalf("unknown id must be ignored, got %v", err)
	}
}

func TestReorderThroughSession(t *testing.T) {
	s, _ := seeded()
	s.Reorder("title", layout.OpBack)
	v := s.View()
	if v.Elements[0].ID != "title" || v.Elements[0].ZIndex != -1 {
		t.Fatalf("title should be at the back: %+v", v.Elements[0])
	}
}

func TestSaveHandsOverDocument(t *testing.T) {
	s, _ := seeded()
	s.SetBackground("beach")
	var got layout.Document
	err := s.Save(context.Background(), func(_ context.Context, d layout.Document) error {
		got = d
		return nil
	})
	if err != nil || got.Background != "beach" || len(got.Elements) != 2 {
		t.Fatalf("save got %+v err %v", got, err)
	}
	boom := errors.New("disk full")
	if err := s.Save(context.Background(), func(context.Context, layout.Document) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("save error must wrap callback error, got %v", err)
	}
}

func TestGeneratePromptDoesNotBlockCanvas(t *testing.T) {
	s, _ := seeded()
	task := s.GeneratePrompt(context.Background(), prompt.Template{}, prompt.TierHigh, "Documentary", "cinematic")
	s.PointerDownElement("box", geometry.Point{X: 700, Y: 450}, canvas)
	s.PointerMove(geometry.Point{X: 710, Y: 450})
	s.PointerUp()
	out, err := task.Wait(context.Background())
	if err != nil || out == "" {
		t.Fatalf("prompt task failed: %v", err)
	}
	if got, ok := s.PromptTask(); !ok || got != task {
		t.Fatalf("session should keep the last task")
	}
	if v := s.View(); v.Prompt != "resolved" {
		t.Fatalf("prompt status = %q", v.Prompt)
	}
}

func TestCloseEndsGestureOnce(t *testing.T) {
	s, _ := seeded()
	s.PointerDownElement("box", geometry.Point{X: 700, Y: 450}, canvas)
	if !s.Close() {
		t.Fatalf("Close should report the ended gesture")
	}
	if s.Close() {
		t.Fatalf("second Close must be a no-op")
	}
	if s.PointerDownElement("box", geometry.Point{}, canvas) {
		t.Fatalf("closed session must ignore pointer events")
	}
}
