/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"errors"
	"testing"
)

func zs(m *Model, ids ...string) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		e, _ := m.Get(id)
		out = append(out, e.ZIndex)
	}
	return out
}

func order(m *Model) []string {
	var ids []string
	for _, e := range m.Sorted() {
		ids = append(ids, e.ID)
	}
	return ids
}

func threeElements() *Model {
	return NewModel([]Element{NewText("a", 0), NewObject("b", 1), NewText("c", 2)})
}

func TestSendToBackScenario(t *testing.T) {
	m := threeElements()
	if !m.SendToBack("c") {
		t.Fatalf("SendToBack returned false")
	}
	got := zs(m, "c", "a", "b")
	if got[0] != -1 || got[1] != 0 || got[2] != 1 {
		t.Fatalf("unexpected zIndex values %v", got)
	}
	if o := order(m); o[0] != "c" || o[1] != "a" || o[2] != "b" {
		t.Fatalf("unexpected paint order %v", o)
	}
}

func TestBringToFrontIsStrictlyGreatest(t *testing.T) {
	m := threeElements()
	for _, id := range []string{"a", "b", "c"} {
		m.BringToFront(id)
		top, _ := m.Get(id)
		for _, e := range m.Elements() {
			if e.ID != id && e.ZIndex >= top.ZIndex {
				t.Fatalf("after front(%s) %s has z=%d >= %d", id, e.ID, e.ZIndex, top.ZIndex)
			}
		}
		m.SendToBack(id)
		bottom, _ := m.Get(id)
		for _, e := range m.Elements() {
			if e.ID != id && e.ZIndex <= bottom.ZIndex {
				t.Fatalf("after back(%s) %s has z=%d <= %d", id, e.ID, e.ZIndex, bottom.ZIndex)
			}
		}
	}
}

func TestMoveUpDownSymmetry(t *testing.T) {
	m := NewModel([]Element{NewText("a", 3), NewObject("b", 7), NewText("c", 12)})
	if !m.MoveUp("a") {
		t.Fatalf("MoveUp failed")
	}
	if got := zs(m, "a", "b", "c"); got[0] != 7 || got[1] != 3 || got[2] != 12 {
		t.Fatalf("swap changed unrelated values: %v", got)
	}
	m.MoveDown("a")
	if got := zs(m, "a", "b", "c"); got[0] != 3 || got[1] != 7 || got[2] != 12 {
		t.Fatalf("up then down did not restore: %v", got)
	}
	m.MoveDown("c")
	m.MoveUp("c")
	if got := zs(m, "a", "b", "c"); got[0] != 3 || got[1] != 7 || got[2] != 12 {
		t.Fatalf("down then up did not restore: %v", got)
	}
}

func TestMoveWithTiedZIndex(t *testing.T) {
	m := NewModel([]Element{NewText("a", 0), NewObject("b", 0), NewText("c", 1)})
	if !m.MoveUp("a") {
		t.Fatalf("MoveUp on a tied element reported no change")
	}
	if o := order(m); o[0] != "b" || o[1] != "a" || o[2] != "c" {
		t.Fatalf("unexpected paint order after MoveUp: %v", o)
	}
	if got := zs(m, "b", "a", "c"); got[0] >= got[1] || got[1] >= got[2] {
		t.Fatalf("zIndex not strictly increasing: %v", got)
	}

	m = NewModel([]Element{NewText("a", 0), NewObject("b", 0), NewText("c", 1)})
	if !m.MoveDown("b") {
		t.Fatalf("MoveDown on a tied element reported no change")
	}
	if o := order(m); o[0] != "b" || o[1] != "a" || o[2] != "c" {
		t.Fatalf("unexpected paint order after MoveDown: %v", o)
	}
	if got := zs(m, "b", "a", "c"); got[0] >= got[1] || got[1] >= got[2] {
		t.Fatalf("zIndex not strictly increasing: %v", got)
	}
}

func TestMoveAtEdgesIsNoOp(t *testing.T) {
	m := threeElements()
	if m.MoveUp("c") || m.MoveDown("a") || m.MoveUp("missing") {
		t.Fatalf("edge moves should report no change")
	}
	if got := zs(m, "a", "b", "c"); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("values changed: %v", got)
	}
}

func TestReorderDispatch(t *testing.T) {
	m := threeElements()
	if !m.Reorder("a", OpFront) {
		t.Fatalf("front failed")
	}
	if o := order(m); o[2] != "a" {
		t.Fatalf("a should be on top: %v", o)
	}
	if m.Reorder("a", Op("sideways")) {
		t.Fatalf("unknown op should not change anything")
	}
	if _, ok := ParseOp("back"); !ok {
		t.Fatalf("ParseOp(back) failed")
	}
}

func TestNextZAfterDeletion(t *testing.T) {
	m := threeElements()
	if m.NextZ() != 3 {
		t.Fatalf("NextZ = %d, want 3", m.NextZ())
	}
	m.Remove("a")
	if m.NextZ() != 3 {
		t.Fatalf("NextZ after delete = %d, want 3 to stay above c", m.NextZ())
	}
	if NewModel(nil).NextZ() != 0 {
		t.Fatalf("empty model NextZ should be 0")
	}
}

func TestUpdateMergesAndIgnoresUnknown(t *testing.T) {
	m := threeElements()
	if err := m.Update("nope", GeometryPatch{X: Ptr(5.0)}); err != nil {
		t.Fatalf("unknown id should be a no-op, got %v", err)
	}
	if err := m.Update("a", GeometryPatch{X: Ptr(5.0), Rotation: Ptr(400.0)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	a, _ := m.Get("a")
	if a.X != 5 || a.Y != 40 || a.Rotation != 400 {
		t.Fatalf("geometry not merged: %+v", a.Geometry)
	}
	if err := m.Update("a", TextPatch{Content: Ptr("Hello"), Extrusion: &Extrusion{Enabled: true, Depth: 3, Color: "#333333"}}); err != nil {
		t.Fatalf("text patch: %v", err)
	}
	a, _ = m.Get("a")
	ts, _ := a.Text()
	if a.Content != "Hello" || !ts.Extrusion.Enabled || ts.FontFamily != "Impact" {
		t.Fatalf("text patch not merged: %+v", a)
	}
}

func TestUpdateRejectsWrongKindAndBadValues(t *testing.T) {
	m := threeElements()
	err := m.Update("b", TextPatch{Fill: Ptr("#ff0000")})
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	err = m.Update("a", ObjectPatch{Background: Ptr("#ff0000")})
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	for _, p := range []Patch{
		GeometryPatch{Width: Ptr(0.0)},
		TextPatch{Fill: Ptr("red")},
		TextPatch{FontWeight: Ptr(1000)},
		TextPatch{Extrusion: &Extrusion{Depth: -1, Color: "#000"}},
		ObjectPatch{BorderWidth: Ptr(-2.0)},
	} {
		if err := m.Update("a", p); !errors.Is(err, ErrInvalidPatch) {
			t.Fatalf("patch %+v: expected ErrInvalidPatch, got %v", p, err)
		}
	}
	a, _ := m.Get("a")
	if a.Width != 80 {
		t.Fatalf("rejected patch modified element: %+v", a.Geometry)
	}
}

func TestHitTestPrefersTopmost(t *testing.T) {
	m := NewModel([]Element{NewObject("low", 0), NewObject("high", 5)})
	e, ok := m.HitTest(50, 50)
	if !ok || e.ID != "high" {
		t.Fatalf("expected high, got %+v %v", e.ID, ok)
	}
	m.SendToBack("high")
	e, _ = m.HitTest(50, 50)
	if e.ID != "low" {
		t.Fatalf("expected low after reorder, got %s", e.ID)
	}
	if _, ok := m.HitTest(1, 1); ok {
		t.Fatalf("empty area should miss")
	}
}

func TestModelCopiesInput(t *testing.T) {
	in := []Element{NewText("a", 0)}
	m := NewModel(in)
	in[0].X = 99
	if a, _ := m.Get("a"); a.X == 99 {
		t.Fatalf("model shares storage with input")
	}
	out := m.Elements()
	out[0].X = 77
	if a, _ := m.Get("a"); a.X == 77 {
		t.Fatalf("Elements leaks internal storage")
	}
}

func TestUpdate_BatchIsAllOrNothing(t *testing.T) {
	m := threeElements()
	ok := Batch{
		GeometryPatch{X: Ptr(5.0), Rotation: Ptr(30.0)},
		TextPatch{Content: Ptr("Hello"), Fill: Ptr("#ff0000")},
	}
	if err := m.Update("a", ok); err != nil {
		t.Fatalf("batch update: %v", err)
	}
	a, _ := m.Get("a")
	ts, _ := a.Text()
	if a.X != 5 || a.Rotation != 30 || a.Content != "Hello" || ts.Fill != "#ff0000" {
		t.Fatalf("batch not applied: %+v", a)
	}

	// geometry would land first, then the text patch fails on an object
	mixed := Batch{GeometryPatch{X: Ptr(60.0)}, TextPatch{Fill: Ptr("#00ff00")}}
	if err := m.Update("b", mixed); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	if b, _ := m.Get("b"); b.X != 35 {
		t.Fatalf("object geometry changed by a rejected batch: x=%v", b.X)
	}

	bad := Batch{GeometryPatch{Y: Ptr(1.0)}, TextPatch{Fill: Ptr("red")}}
	if err := m.Update("c", bad); !errors.Is(err, ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch, got %v", err)
	}
	if c, _ := m.Get("c"); c.Y != 40 {
		t.Fatalf("text geometry changed by an invalid batch: y=%v", c.Y)
	}
}
