/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"thumbstudio/internal/editor"
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
)

// Letterbox fits an aspectW:aspectH frame centered inside container.
func Letterbox(container geometry.Rect, aspectW, aspectH float64) geometry.Rect {
	if container.Empty() || aspectW <= 0 || aspectH <= 0 {
		return geometry.Rect{}
	}
	w := container.Width
	h := w * aspectH / aspectW
	if h > container.Height {
		h = container.Height
		w = h * aspectW / aspectH
	}
	return geometry.Rect{
		X:      container.X + (container.Width-w)/2,
		Y:      container.Y + (container.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// elementAt returns the topmost element under a viewport point.
func elementAt(elems []layout.Element, frame geometry.Rect, p geometry.Point) (layout.Element, bool) {
	if frame.Empty() {
		return layout.Element{}, false
	}
	x := (p.X - frame.X) / frame.Width * 100
	y := (p.Y - frame.Y) / frame.Height * 100
	return layout.NewModel(elems).HitTest(x, y)
}

// handleBoxes lists the hit squares of every handle of a selected element.
func handleBoxes(e layout.Element, frame geometry.Rect, size float64) map[geometry.Handle]geometry.Rect {
	r, ok := geometry.ViewportRect(e.Box(), frame)
	if !ok {
		return nil
	}
	out := make(map[geometry.Handle]geometry.Rect, len(geometry.ResizeHandles)+1)
	for _, h := range append([]geometry.Handle{geometry.HandleRotate}, geometry.ResizeHandles...) {
		a := h.Anchor(r)
		out[h] = geometry.Rect{X: a.X - size/2, Y: a.Y - size/2, Width: size, Height: size}
	}
	return out
}

// sessionRescuer hands the single desktop session to crash recovery.
type sessionRescuer struct{ s *editor.Session }

func (r sessionRescuer) Documents() map[string]layout.Document {
	return map[string]layout.Document{r.s.ID: r.s.Document()}
}
