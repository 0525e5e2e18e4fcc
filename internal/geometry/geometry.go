/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Coordinate math between the three canvas spaces:
// percentage space (persisted element geometry, 0..100 of the canvas box),
// canvas pixel space (relative to the canvas' top-left corner) and
// viewport space (raw pointer coordinates).
// Every operation is a pure function. A canvas box without area yields no changes.

import "math"

// MinSize is the smallest pixel extent a live resize may produce on either axis.
const MinSize = 10.0

// Point is a 2D point in pixel or viewport space.
type Point struct{ X, Y float64 }

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Empty reports whether the rect has no usable area (zero, negative or NaN extent).
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.Width && p.Y <= r.Y+r.Height
}

// Offset translates the rect by dx,dy.
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Box is an element's bounding box in percentage space.
type Box struct {
	X, Y          float64
	Width, Height float64
}

func (b Box) Contains(x, y float64) bool {
	return x >= b.X && y >= b.Y && x <= b.X+b.Width && y <= b.Y+b.Height
}

// PercentToPixel scales a percentage box into canvas pixel space.
func PercentToPixel(b Box, canvas Rect) (Rect, bool) {
	if canvas.Empty() {
		return Rect{}, false
	}
	return Rect{
		X:      b.X / 100 * canvas.Width,
		Y:      b.Y / 100 * canvas.Height,
		Width:  b.Width / 100 * canvas.Width,
		Height: b.Height / 100 * canvas.Height,
	}, true
}

// PixelToPercent is the inverse of PercentToPixel.
func PixelToPercent(r Rect, canvas Rect) (Box, bool) {
	if canvas.Empty() {
		return Box{}, false
	}
	return Box{
		X:      r.X / canvas.Width * 100,
		Y:      r.Y / canvas.Height * 100,
		Width:  r.Width / canvas.Width * 100,
		Height: r.Height / canvas.Height * 100,
	}, true
}

// ViewportRect places a percentage box into viewport coordinates of the given canvas.
func ViewportRect(b Box, canvas Rect) (Rect, bool) {
	r, ok := PercentToPixel(b, canvas)
	if !ok {
		return Rect{}, false
	}
	return r.Offset(canvas.X, canvas.Y), true
}

// Snapshot is the fixed reference captured when a gesture starts.
// All later frames of the gesture are computed against it, never against the previous frame.
type Snapshot struct {
	Pointer  Point   // pointer at gesture start, viewport space
	Canvas   Rect    // canvas box at gesture start, viewport space
	Start    Rect    // element box at gesture start, canvas pixel space
	Center   Point   // element center at gesture start, viewport space
	Rotation float64 // element rotation at gesture start, degrees
}

// Capture builds a snapshot for an element box and the current canvas box.
func Capture(b Box, rotation float64, pointer Point, canvas Rect) Snapshot {
	s := Snapshot{Pointer: pointer, Canvas: canvas, Rotation: rotation}
	if px, ok := PercentToPixel(b, canvas); ok {
		s.Start = px
		c := px.Center()
		s.Center = Point{canvas.X + c.X, canvas.Y + c.Y}
	}
	return s
}

// Update is a partial geometry change in percentage space (degrees for Rotation).
// Nil fields are left untouched.
type Update struct {
	X, Y          *float64
	Width, Height *float64
	Rotation      *float64
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.X == nil && u.Y == nil && u.Width == nil && u.Height == nil && u.Rotation == nil
}

func ptr(v float64) *float64 { return &v }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Move computes the new top-left corner for a drag. The box is clamped to
// [0, 100-size] on each axis independently, using the size captured in the snapshot.
func Move(s Snapshot, now Point) Update {
	if s.Canvas.Empty() {
		return Update{}
	}
	cw, ch := s.Canvas.Width, s.Canvas.Height
	x := (s.Start.X + now.X - s.Pointer.X) / cw * 100
	y := (s.Start.Y + now.Y - s.Pointer.Y) / ch * 100
	w := s.Start.Width / cw * 100
	h := s.Start.Height / ch * 100
	return Update{
		X: ptr(clamp(x, 0, math.Max(0, 100-w))),
		Y: ptr(clamp(y, 0, math.Max(0, 100-h))),
	}
}

// Resize computes the new box for a drag on one of the eight resize handles.
// Left and top edges move the origin together with the size so the opposite edge stays anchored.
// An axis whose proposed size does not exceed MinSize is left out of the update.
func Resize(h Handle, s Snapshot, now Point) Update {
	if s.Canvas.Empty() || !h.IsResize() {
		return Update{}
	}
	cw, ch := s.Canvas.Width, s.Canvas.Height
	dx := now.X - s.Pointer.X
	dy := now.Y - s.Pointer.Y
	var u Update

	switch {
	case h.movesRight():
		if w := s.Start.Width + dx; w > MinSize {
			u.Width = ptr(w / cw * 100)
		}
	case h.movesLeft():
		if w := s.Start.Width - dx; w > MinSize {
			u.Width = ptr(w / cw * 100)
			u.X = ptr((s.Start.X + dx) / cw * 100)
		}
	}
	switch {
	case h.movesBottom():
		if hh := s.Start.Height + dy; hh > MinSize {
			u.Height = ptr(hh / ch * 100)
		}
	case h.movesTop():
		if hh := s.Start.Height - dy; hh > MinSize {
			u.Height = ptr(hh / ch * 100)
			u.Y = ptr((s.Start.Y + dy) / ch * 100)
		}
	}
	return u
}

// Rotation returns the angle from center to pointer in whole degrees, with 0 pointing up.
// The result is not normalized; it lies in [-90, 270].
func Rotation(center, now Point, canvas Rect) (float64, bool) {
	if canvas.Empty() {
		return 0, false
	}
	rad := math.Atan2(now.Y-center.Y, now.X-center.X)
	deg := rad*180/math.Pi + 90
	// half degrees round toward +Inf
	return math.Floor(deg + 0.5), true
}

// Rotate is Rotation expressed as an Update against a snapshot.
func Rotate(s Snapshot, now Point) Update {
	deg, ok := Rotation(s.Center, now, s.Canvas)
	if !ok {
		return Update{}
	}
	return Update{Rotation: ptr(deg)}
}

// NormalizeDegrees maps an angle into (-180, 180] for display.
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
