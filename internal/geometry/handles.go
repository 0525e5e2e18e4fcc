/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "strings"

// Handle identifies a grab point on the selected element.
type Handle string

const (
	HandleTL     Handle = "tl"
	HandleTR     Handle = "tr"
	HandleBL     Handle = "bl"
	HandleBR     Handle = "br"
	HandleT      Handle = "t"
	HandleB      Handle = "b"
	HandleL      Handle = "l"
	HandleR      Handle = "r"
	HandleRotate Handle = "rotate"
)

// RotateOffset is the distance in pixels of the rotate handle above the top edge.
const RotateOffset = 24.0

// ResizeHandles lists the eight resize handles, corners first.
var ResizeHandles = []Handle{HandleTL, HandleTR, HandleBL, HandleBR, HandleT, HandleB, HandleL, HandleR}

// ParseHandle accepts "tl", "resize-tl", "TL" and friends.
func ParseHandle(s string) (Handle, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "resize-")
	h := Handle(s)
	if h == HandleRotate || h.IsResize() {
		return h, true
	}
	return "", false
}

func (h Handle) IsResize() bool {
	switch h {
	case HandleTL, HandleTR, HandleBL, HandleBR, HandleT, HandleB, HandleL, HandleR:
		return true
	}
	return false
}

func (h Handle) movesLeft() bool   { return h == HandleTL || h == HandleBL || h == HandleL }
func (h Handle) movesRight() bool  { return h == HandleTR || h == HandleBR || h == HandleR }
func (h Handle) movesTop() bool    { return h == HandleTL || h == HandleTR || h == HandleT }
func (h Handle) movesBottom() bool { return h == HandleBL || h == HandleBR || h == HandleB }

// Anchor returns the handle's position on a viewport rect.
func (h Handle) Anchor(r Rect) Point {
	c := r.Center()
	switch h {
	case HandleTL:
		return Point{r.X, r.Y}
	case HandleTR:
		return Point{r.X + r.Width, r.Y}
	case HandleBL:
		return Point{r.X, r.Y + r.Height}
	case HandleBR:
		return Point{r.X + r.Width, r.Y + r.Height}
	case HandleT:
		return Point{c.X, r.Y}
	case HandleB:
		return Point{c.X, r.Y + r.Height}
	case HandleL:
		return Point{r.X, c.Y}
	case HandleR:
		return Point{r.X + r.Width, c.Y}
	case HandleRotate:
		return Point{c.X, r.Y - RotateOffset}
	}
	return c
}

// HandleAt reports which handle of r contains p. Each handle is a square of
// side size centered on its anchor. The rotate handle wins over overlapping resize handles.
func HandleAt(r Rect, p Point, size float64) (Handle, bool) {
	if size <= 0 {
		return "", false
	}
	half := size / 2
	hit := func(h Handle) bool {
		a := h.Anchor(r)
		return Rect{X: a.X - half, Y: a.Y - half, Width: size, Height: size}.Contains(p)
	}
	if hit(HandleRotate) {
		return HandleRotate, true
	}
	for _, h := range ResizeHandles {
		if hit(h) {
			return h, true
		}
	}
	return "", false
}
