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
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"thumbstudio/internal/effects"
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/interaction"
	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/prompt"
	"thumbstudio/internal/selection"
)

// HandleSize is the pixel side of the square hit area around each handle.
const HandleSize = 12.0

// SaveFunc receives the layout when the user commits.
type SaveFunc func(ctx context.Context, doc layout.Document) error

// Session owns the live state of one editor: the element model, the interaction
// state machine, the selection and the last prompt task.
// Methods are serialized by an internal mutex, so one writer mutates the model at a time.
type Session struct {
	ID string

	mu         sync.Mutex
	background string
	model      *layout.Model
	state      interaction.State
	sel        selection.Controller
	task       *prompt.Task
	closed     bool
	newID      func() string
	log        *slog.Logger
}

// NewSession opens an editor on a deep copy of doc.
func NewSession(doc layout.Document) *Session {
	d := doc.Clone()
	id := uuid.NewString()
	return &Session{
		ID:         id,
		background: d.Background,
		model:      layout.NewModel(d.Elements),
		newID:      uuid.NewString,
		log:        applog.WithSession(applog.WithComponent("editor"), id),
	}
}

// View is a read-only copy of the session state.
type View struct {
	SessionID   string           `json:"sessionId"`
	Background  string           `json:"background"`
	Elements    []layout.Element `json:"elements"` // ascending zIndex
	Selected    string           `json:"selectedId,omitempty"`
	Editing     string           `json:"editingId,omitempty"`
	Interaction string           `json:"interaction,omitempty"`
	Prompt      string           `json:"promptStatus,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID:  s.ID,
		Background: s.background,
		Elements:   s.model.Sorted(),
		Selected:   s.sel.Selected(),
		Editing:    s.sel.Editing(),
	}
	if g, ok := s.state.Gesture(); ok {
		v.Interaction = string(g.Kind)
	}
	if s.task != nil {
		v.Prompt = s.task.Status().String()
	}
	return v
}

// Element returns a copy of one element.
func (s *Session) Element(id string) (layout.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Get(id)
}

// Selected returns the selected and editing ids.
func (s *Session) Selected() (selected, editing string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Selected(), s.sel.Editing()
}

// Interaction returns the state machine value.
func (s *Session) Interaction() interaction.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) add(e layout.Element) layout.Element {
	s.model.Add(e)
	s.sel.Select(e.ID)
	if e.Kind() == layout.KindText {
		s.sel.BeginEdit(e, true)
	}
	s.sel.Check(s.model)
	s.log.Debug("element added", "id", e.ID, "kind", string(e.Kind()), "z", e.ZIndex)
	return e
}

// AddText appends a default text element on top, selects it and starts editing it.
func (s *Session) AddText() layout.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(layout.NewText(s.newID(), s.model.NextZ()))
}

// AddObject appends a default object element on top and selects it.
func (s *Session) AddObject() layout.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(layout.NewObject(s.newID(), s.model.NextZ()))
}

// Delete removes an element and clears selection, edit mode and any gesture that referenced it.
func (s *Session) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.model.Remove(id) {
		return false
	}
	s.sel.Forget(id)
	if g, ok := s.state.Gesture(); ok && g.ElementID == id {
		s.state = s.state.PointerUp()
	}
	s.log.Debug("element deleted", "id", id)
	return true
}

func (s *Session) begin(k interaction.Kind, e layout.Element, p geometry.Point, canvas geometry.Rect) bool {
	next, ok := s.state.PointerDown(interaction.NewGesture(k, e, p, canvas))
	if !ok {
		s.log.Debug("pointer down ignored, gesture active", "id", e.ID, "kind", string(k))
		return false
	}
	s.state = next
	s.log.Debug("gesture started", "id", e.ID, "kind", string(k))
	return true
}

// PointerDownElement selects the element and starts a move gesture on it.
// A press on the element being edited belongs to the text and starts no gesture;
// a press on any other element ends the edit first.
func (s *Session) PointerDownElement(id string, p geometry.Point, canvas geometry.Rect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Active() {
		return false
	}
	e, ok := s.model.Get(id)
	if !ok || s.sel.Editing() == id {
		return false
	}
	s.sel.Select(id)
	s.sel.Check(s.model)
	return s.begin(interaction.Move, e, p, canvas)
}

// PointerDownHandle starts a resize or rotate gesture. Handles exist only on the selected
// element and are inert while it is in edit mode.
func (s *Session) PointerDownHandle(h geometry.Handle, p geometry.Point, canvas geometry.Rect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sel.Editing() != "" {
		return false
	}
	k, ok := interaction.ForHandle(h)
	if !ok {
		return false
	}
	e, ok := s.model.Get(s.sel.Selected())
	if !ok {
		return false
	}
	return s.begin(k, e, p, canvas)
}

// PointerDownAt routes a raw pointer-down: handles of the selected element first,
// then the topmost element under the pointer, else a click on empty canvas.
func (s *Session) PointerDownAt(p geometry.Point, canvas geometry.Rect) bool {
	s.mu.Lock()
	if s.closed || s.state.Active() || canvas.Empty() {
		s.mu.Unlock()
		return false
	}
	if sel, ok := s.model.Get(s.sel.Selected()); ok {
		if r, ok := geometry.ViewportRect(sel.Box(), canvas); ok {
			if h, ok := geometry.HandleAt(r, p, HandleSize); ok {
				s.mu.Unlock()
				return s.PointerDownHandle(h, p, canvas)
			}
		}
	}
	x := (p.X - canvas.X) / canvas.Width * 100
	y := (p.Y - canvas.Y) / canvas.Height * 100
	hit, ok := s.model.HitTest(x, y)
	s.mu.Unlock()
	if !ok {
		s.ClickEmpty()
		return false
	}
	return s.PointerDownElement(hit.ID, p, canvas)
}

// PointerMove feeds the active gesture and writes the result into the model.
func (s *Session) PointerMove(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	id, u, ok := s.state.PointerMove(p)
	if !ok {
		return false
	}
	if err := s.model.Update(id, layout.FromUpdate(u)); err != nil {
		// geometry produced by the engine is always finite and positive
		s.log.Error("gesture update rejected", "id", id, "err", err)
		return false
	}
	return true
}

// PointerUp ends the active gesture, keeping the last geometry.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.state.Gesture(); ok {
		s.log.Debug("gesture ended", "id", g.ElementID, "kind", string(g.Kind))
	}
	s.state = s.state.PointerUp()
}

// ClickEmpty clears selection and edit mode.
func (s *Session) ClickEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.ClearAll()
}

// DoubleClick enters edit mode on a text element. It is ignored while a gesture is active.
func (s *Session) DoubleClick(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Active() {
		return false
	}
	ok := s.sel.BeginEdit(s.model.Get(id))
	s.sel.Check(s.model)
	return ok
}

// CommitEdit leaves edit mode, optionally storing the edited text first.
func (s *Session) CommitEdit(content *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.sel.Editing()
	if id == "" {
		return nil
	}
	if content != nil {
		if err := s.model.Update(id, layout.TextPatch{Content: content}); err != nil {
			return err
		}
	}
	s.sel.CommitEdit()
	return nil
}

// Patch merges style or geometry attributes into an element. Unknown ids are ignored.
func (s *Session) Patch(id string, p layout.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.model.Update(id, p); err != nil {
		return fmt.Errorf("patch %s: %w", id, err)
	}
	return nil
}

// Reorder applies a z-order operation.
func (s *Session) Reorder(id string, op layout.Op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Reorder(id, op)
}

func (s *Session) SetBackground(bg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = bg
}

// Appearance composes the effects of a text element.
func (s *Session) Appearance(id string) (effects.Appearance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.model.Get(id)
	if !ok {
		return effects.Appearance{}, false
	}
	ts, ok := e.Text()
	if !ok {
		return effects.Appearance{}, false
	}
	return effects.Compose(ts), true
}

// Document returns a copy of the layout in insertion order.
func (s *Session) Document() layout.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.Document{Background: s.background, Elements: s.model.Elements()}
}

// Save hands the current layout to save without further normalization.
func (s *Session) Save(ctx context.Context, save SaveFunc) error {
	doc := s.Document()
	if err := save(ctx, doc); err != nil {
		s.log.Warn("save failed", "err", err)
		return fmt.Errorf("save layout: %w", err)
	}
	s.log.Info("layout saved", "elements", len(doc.Elements))
	return nil
}

// GeneratePrompt starts a one-shot prompt generation for the current layout.
// The canvas stays interactive while it runs; the task replaces any earlier one.
func (s *Session) GeneratePrompt(ctx context.Context, g prompt.Generator, tier prompt.Tier, styleName, stylePrompt string) *prompt.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := prompt.Request{
		Background:  s.background,
		Elements:    s.model.Sorted(),
		Tier:        tier,
		StyleName:   styleName,
		StylePrompt: stylePrompt,
	}
	s.task = prompt.Start(ctx, g, req)
	return s.task
}

// PromptTask returns the last started task, if any.
func (s *Session) PromptTask() (*prompt.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task, s.task != nil
}

// Close tears the session down. It ends any active gesture and reports whether one was active;
// later pointer events are ignored.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	active := s.state.Active()
	s.state = s.state.PointerUp()
	s.log.Debug("session closed", "endedGesture", active)
	return active
}
