/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

var canvas1600 = Rect{X: 100, Y: 50, Width: 1600, Height: 900}

func TestPercentPixelRoundTrip(t *testing.T) {
	b := Box{X: 35, Y: 40, Width: 30, Height: 20}
	px, ok := PercentToPixel(b, canvas1600)
	if !ok {
		t.Fatalf("expected conversion")
	}
	if px.X != 560 || px.Y != 360 || px.Width != 480 || px.Height != 180 {
		t.Fatalf("unexpected pixel box: %+v", px)
	}
	back, ok := PixelToPercent(px, canvas1600)
	if !ok || !near(back.X, 35) || !near(back.Y, 40) || !near(back.Width, 30) || !near(back.Height, 20) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	vr, _ := ViewportRect(b, canvas1600)
	if vr.X != 660 || vr.Y != 410 {
		t.Fatalf("viewport rect not offset by canvas origin: %+v", vr)
	}
}

func TestZeroCanvasIsNoOp(t *testing.T) {
	for _, c := range []Rect{{}, {Width: 100}, {Height: 100}, {Width: math.NaN(), Height: 10}} {
		if _, ok := PercentToPixel(Box{Width: 10, Height: 10}, c); ok {
			t.Fatalf("PercentToPixel on %+v should fail", c)
		}
		s := Snapshot{Canvas: c, Start: Rect{Width: 50, Height: 50}}
		if u := Move(s, Point{X: 10, Y: 10}); !u.IsZero() {
			t.Fatalf("Move on empty canvas should be a no-op: %+v", u)
		}
		if u := Resize(HandleBR, s, Point{X: 10, Y: 10}); !u.IsZero() {
			t.Fatalf("Resize on empty canvas should be a no-op: %+v", u)
		}
		if _, ok := Rotation(Point{}, Point{X: 1}, c); ok {
			t.Fatalf("Rotation on empty canvas should be a no-op")
		}
	}
}

func TestMoveScenario(t *testing.T) {
	s := Capture(Box{X: 35, Y: 40, Width: 30, Height: 20}, 0, Point{X: 500, Y: 500}, canvas1600)
	u := Move(s, Point{X: 660, Y: 500})
	if u.X == nil || !near(*u.X, 45) {
		t.Fatalf("x = %v, want 45", u.X)
	}
	if u.Y == nil || !near(*u.Y, 40) {
		t.Fatalf("y = %v, want 40", u.Y)
	}
}

func TestMoveClampsInsideCanvas(t *testing.T) {
	b := Box{X: 35, Y: 40, Width: 30, Height: 20}
	deltas := []Point{{-5000, 0}, {5000, 0}, {0, -5000}, {0, 5000}, {3000, -3000}, {-1, 1}, {1234.5, 678.9}}
	for _, d := range deltas {
		s := Capture(b, 0, Point{}, canvas1600)
		u := Move(s, d)
		if *u.X < -eps || *u.X > 100-b.Width+eps {
			t.Fatalf("delta %+v: x=%v out of range", d, *u.X)
		}
		if *u.Y < -eps || *u.Y > 100-b.Height+eps {
			t.Fatalf("delta %+v: y=%v out of range", d, *u.Y)
		}
	}
	u := Move(Capture(b, 0, Point{}, canvas1600), Point{X: 99999})
	if !near(*u.X, 70) {
		t.Fatalf("expected clamp to 100-width, got %v", *u.X)
	}
}

func TestResizeBottomRightScenario(t *testing.T) {
	s := Capture(Box{X: 35, Y: 40, Width: 30, Height: 20}, 0, Point{X: 0, Y: 0}, canvas1600)
	u := Resize(HandleBR, s, Point{X: 160, Y: 90})
	if u.Width == nil || !near(*u.Width, 40) {
		t.Fatalf("width = %v, want 40", u.Width)
	}
	if u.Height == nil || !near(*u.Height, 30) {
		t.Fatalf("height = %v, want 30", u.Height)
	}
	if u.X != nil || u.Y != nil {
		t.Fatalf("bottom-right resize must not move the origin: %+v", u)
	}
}

func TestResizeLeftTopMovesOrigin(t *testing.T) {
	s := Capture(Box{X: 35, Y: 40, Width: 30, Height: 20}, 0, Point{}, canvas1600)
	u := Resize(HandleTL, s, Point{X: -160, Y: -90})
	if !near(*u.X, 25) || !near(*u.Width, 40) || !near(*u.Y, 30) || !near(*u.Height, 30) {
		t.Fatalf("unexpected tl resize: x=%v w=%v y=%v h=%v", *u.X, *u.Width, *u.Y, *u.Height)
	}
	// right edge stays anchored
	if !near(*u.X+*u.Width, 65) || !near(*u.Y+*u.Height, 60) {
		t.Fatalf("opposite edges moved")
	}
}

func TestResizeEdgeHandlesTouchOneAxis(t *testing.T) {
	s := Capture(Box{X: 10, Y: 10, Width: 50, Height: 50}, 0, Point{}, canvas1600)
	cases := []struct {
		h           Handle
		wantX, wantY bool
		wantW, wantH bool
	}{
		{HandleT, false, true, false, true},
		{HandleB, false, false, false, true},
		{HandleL, true, false, true, false},
		{HandleR, false, false, true, false},
	}
	for _, c := range cases {
		u := Resize(c.h, s, Point{X: 16, Y: 9})
		if (u.X != nil) != c.wantX || (u.Y != nil) != c.wantY || (u.Width != nil) != c.wantW || (u.Height != nil) != c.wantH {
			t.Fatalf("%s: unexpected fields %+v", c.h, u)
		}
	}
}

func TestResizeMinimumSizeIsPartial(t *testing.T) {
	// 480x180 pixel box; shrink width to 5px but height only by 20px
	s := Capture(Box{X: 35, Y: 40, Width: 30, Height: 20}, 0, Point{}, canvas1600)
	u := Resize(HandleBR, s, Point{X: -475, Y: -20})
	if u.Width != nil {
		t.Fatalf("width below minimum must be rejected, got %v", *u.Width)
	}
	if u.Height == nil || !near(*u.Height, 160.0/900*100) {
		t.Fatalf("height should still update: %v", u.Height)
	}
	u = Resize(HandleTL, s, Point{X: 10, Y: 175})
	if u.Y != nil || u.Height != nil {
		t.Fatalf("top edge collapse must leave y/height untouched: %+v", u)
	}
	if u.X == nil || u.Width == nil {
		t.Fatalf("left edge should still update")
	}
	// exactly the threshold is rejected
	u = Resize(HandleR, s, Point{X: -470})
	if u.Width != nil {
		t.Fatalf("width of exactly MinSize must be rejected")
	}
}

func TestResizeNeverBelowMinimum(t *testing.T) {
	s := Capture(Box{X: 35, Y: 40, Width: 30, Height: 20}, 0, Point{}, canvas1600)
	minW := MinSize / canvas1600.Width * 100
	minH := MinSize / canvas1600.Height * 100
	for _, h := range ResizeHandles {
		for dx := -2000.0; dx <= 2000; dx += 137 {
			for dy := -1000.0; dy <= 1000; dy += 91 {
				u := Resize(h, s, Point{X: dx, Y: dy})
				if u.Width != nil && *u.Width <= minW {
					t.Fatalf("%s %v,%v: width %v below minimum", h, dx, dy, *u.Width)
				}
				if u.Height != nil && *u.Height <= minH {
					t.Fatalf("%s %v,%v: height %v below minimum", h, dx, dy, *u.Height)
				}
			}
		}
	}
}

func TestRotation(t *testing.T) {
	c := Point{X: 500, Y: 500}
	cases := []struct {
		p    Point
		want float64
	}{
		{Point{500, 400}, 0},
		{Point{600, 500}, 90},
		{Point{500, 600}, 180},
		{Point{400, 500}, 270},
		{Point{400, 400}, -45},
		{Point{600, 400}, 45},
	}
	for _, tc := range cases {
		got, ok := Rotation(c, tc.p, canvas1600)
		if !ok || got != tc.want {
			t.Fatalf("Rotation(%+v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestRotationRangeBounds(t *testing.T) {
	c := Point{X: 500, Y: 500}
	// just above the negative x axis atan2 is a hair over -pi and rounds to the lower bound
	if got, _ := Rotation(c, Point{X: 400, Y: 500 - 1e-9}, canvas1600); got != -90 {
		t.Fatalf("lower bound = %v, want -90", got)
	}
	if got, _ := Rotation(c, Point{X: 400, Y: 500}, canvas1600); got != 270 {
		t.Fatalf("upper bound = %v, want 270", got)
	}
	for deg := 0.0; deg < 360; deg += 0.25 {
		rad := deg * math.Pi / 180
		got, _ := Rotation(c, Point{X: c.X + 100*math.Cos(rad), Y: c.Y + 100*math.Sin(rad)}, canvas1600)
		if got < -90 || got > 270 {
			t.Fatalf("Rotation at %v° = %v, outside [-90, 270]", deg, got)
		}
	}
}

func TestRotationDependsOnlyOnPointer(t *testing.T) {
	b := Box{X: 35, Y: 40, Width: 30, Height: 20}
	p := Point{X: 900, Y: 100}
	var first float64
	for i, prior := range []float64{0, 45, -720, 3600} {
		s := Capture(b, prior, Point{}, canvas1600)
		u := Rotate(s, p)
		if u.Rotation == nil {
			t.Fatalf("expected rotation")
		}
		if i == 0 {
			first = *u.Rotation
			continue
		}
		if math.Mod(*u.Rotation-first, 360) != 0 {
			t.Fatalf("rotation depends on prior value %v: %v vs %v", prior, *u.Rotation, first)
		}
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{0: 0, 180: 180, -180: 180, 270: -90, 540: 180, -450: -90, 725: 5}
	for in, want := range cases {
		if got := NormalizeDegrees(in); !near(got, want) {
			t.Fatalf("NormalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}
