/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
)

// Kind is the kind of an active pointer interaction.
type Kind string

const (
	Move     Kind = "move"
	ResizeTL Kind = "resize-tl"
	ResizeTR Kind = "resize-tr"
	ResizeBL Kind = "resize-bl"
	ResizeBR Kind = "resize-br"
	ResizeT  Kind = "resize-t"
	ResizeB  Kind = "resize-b"
	ResizeL  Kind = "resize-l"
	ResizeR  Kind = "resize-r"
	Rotate   Kind = "rotate"
)

// ForHandle maps a handle to the interaction it starts.
func ForHandle(h geometry.Handle) (Kind, bool) {
	if h == geometry.HandleRotate {
		return Rotate, true
	}
	if !h.IsResize() {
		return "", false
	}
	return Kind("resize-" + string(h)), true
}

func (k Kind) handle() geometry.Handle {
	if len(k) > len("resize-") && k[:len("resize-")] == "resize-" {
		return geometry.Handle(k[len("resize-"):])
	}
	return ""
}

// Gesture is one drag from pointer-down to pointer-up, bound to a single element.
type Gesture struct {
	Kind      Kind
	ElementID string
	Snapshot  geometry.Snapshot
}

// NewGesture captures the start-of-gesture snapshot for e.
// The canvas box is measured once here and reused for every move of the gesture.
func NewGesture(k Kind, e layout.Element, pointer geometry.Point, canvas geometry.Rect) Gesture {
	return Gesture{
		Kind:      k,
		ElementID: e.ID,
		Snapshot:  geometry.Capture(e.Box(), e.Rotation, pointer, canvas),
	}
}

// Step derives the geometry for the pointer position from the gesture snapshot.
func (g Gesture) Step(now geometry.Point) geometry.Update {
	switch g.Kind {
	case Move:
		return geometry.Move(g.Snapshot, now)
	case Rotate:
		return geometry.Rotate(g.Snapshot, now)
	}
	if h := g.Kind.handle(); h.IsResize() {
		return geometry.Resize(h, g.Snapshot, now)
	}
	return geometry.Update{}
}

// State is either idle (the zero value) or carries one active gesture.
// It is a plain value: transitions return the next state instead of mutating shared state.
type State struct {
	active  bool
	gesture Gesture
}

// Idle is the initial state.
var Idle = State{}

func (s State) Active() bool { return s.active }

// Gesture returns the active gesture, if any.
func (s State) Gesture() (Gesture, bool) { return s.gesture, s.active }

// PointerDown starts g. While another gesture is active the new one is ignored
// and the current state is returned unchanged with ok=false.
func (s State) PointerDown(g Gesture) (next State, ok bool) {
	if s.active {
		return s, false
	}
	return State{active: true, gesture: g}, true
}

// PointerMove computes the update for the active gesture's element.
// Idle states and empty canvas boxes produce no update.
func (s State) PointerMove(now geometry.Point) (elementID string, u geometry.Update, ok bool) {
	if !s.active {
		return "", geometry.Update{}, false
	}
	u = s.gesture.Step(now)
	if u.IsZero() {
		return s.gesture.ElementID, u, false
	}
	return s.gesture.ElementID, u, true
}

// PointerUp ends the gesture. The last applied geometry stays; there is no rollback.
func (s State) PointerUp() State { return Idle }
