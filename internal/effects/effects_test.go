/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package effects

import (
	"math"
	"testing"

	"thumbstudio/internal/layout"
)

func TestExtrusionScenario(t *testing.T) {
	layers := Extrusion(layout.Extrusion{Enabled: true, Depth: 3, Angle: 0, Color: "#333333"})
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	for i, want := range []float64{3, 2, 1} {
		l := layers[i]
		if l.OffsetX != want || l.OffsetY != 0 || l.Blur != 0 || l.Color != "#333333" {
			t.Fatalf("layer %d = %+v, want offset (%v,0)", i, l, want)
		}
	}
}

func TestExtrusionLayerCount(t *testing.T) {
	for _, angle := range []float64{0, 45, 90, 135, -30, 400} {
		for depth := 0; depth <= 12; depth++ {
			layers := Extrusion(layout.Extrusion{Enabled: true, Depth: depth, Angle: angle, Color: "#000"})
			if len(layers) != depth {
				t.Fatalf("depth %d angle %v: %d layers", depth, angle, len(layers))
			}
			rad := angle * math.Pi / 180
			for i, l := range layers {
				step := float64(depth - i)
				if math.Abs(l.OffsetX-math.Cos(rad)*step) > 1e-5 || math.Abs(l.OffsetY-math.Sin(rad)*step) > 1e-5 {
					t.Fatalf("layer %d offset (%v,%v) not at step %v", i, l.OffsetX, l.OffsetY, step)
				}
			}
		}
	}
	if n := len(Extrusion(layout.Extrusion{Enabled: false, Depth: 9})); n != 0 {
		t.Fatalf("disabled extrusion produced %d layers", n)
	}
}

func TestComposeKeepsDropShadowAndExtrusion(t *testing.T) {
	ts := layout.DefaultTextStyle()
	ts.Shadow = layout.Shadow{Blur: 4, OffsetX: 2, OffsetY: 3, Color: "#000000"}
	a := Compose(ts)
	if len(a.Shadows) != 1 || a.Shadows[0].Blur != 4 {
		t.Fatalf("expected only the drop shadow: %+v", a.Shadows)
	}
	ts.Extrusion = layout.Extrusion{Enabled: true, Depth: 2, Angle: 90, Color: "#333333"}
	a = Compose(ts)
	if len(a.Shadows) != 3 {
		t.Fatalf("expected drop shadow plus 2 extrusion layers: %+v", a.Shadows)
	}
	if a.Shadows[0].Extrusion || a.Shadows[0].OffsetY != 3 {
		t.Fatalf("drop shadow must come first and be unchanged: %+v", a.Shadows[0])
	}
	if a.Shadows[1].OffsetX != 0 || a.Shadows[1].OffsetY != 2 || a.Shadows[2].OffsetY != 1 {
		t.Fatalf("unexpected extrusion layers: %+v", a.Shadows[1:])
	}
	ts.Shadow.Blur = 0
	a = Compose(ts)
	if len(a.Shadows) != 2 || !a.Shadows[0].Extrusion {
		t.Fatalf("extrusion must survive without drop shadow: %+v", a.Shadows)
	}
}

func TestComposeFillAndOutline(t *testing.T) {
	ts := layout.DefaultTextStyle()
	a := Compose(ts)
	if a.Fill.Gradient || a.Fill.Color != "#ffffff" || a.Outline != nil {
		t.Fatalf("unexpected default appearance: %+v", a)
	}
	ts.Gradient.Enabled = true
	ts.Stroke = layout.Stroke{Width: 3, Color: "#000000"}
	a = Compose(ts)
	if !a.Fill.Gradient || a.Fill.From != "#ffffff" || a.Fill.To != "#cccccc" || a.Fill.Angle != 90 {
		t.Fatalf("gradient fill expected: %+v", a.Fill)
	}
	if a.Outline == nil || a.Outline.Width != 3 {
		t.Fatalf("outline expected: %+v", a.Outline)
	}
}

func TestCSS(t *testing.T) {
	ts := layout.DefaultTextStyle()
	ts.Shadow.Blur = 5
	ts.Extrusion = layout.Extrusion{Enabled: true, Depth: 2, Angle: 0, Color: "#333333"}
	ts.Stroke = layout.Stroke{Width: 2, Color: "#000000"}
	a := Compose(ts)
	if got, want := a.TextShadowCSS(), "2px 2px 5px #000000, 2px 0px 0px #333333, 1px 0px 0px #333333"; got != want {
		t.Fatalf("TextShadowCSS = %q, want %q", got, want)
	}
	if got := a.StrokeCSS(); got != "2px #000000" {
		t.Fatalf("StrokeCSS = %q", got)
	}
	if a.BackgroundCSS() != "" || a.CSS()["color"] != "#ffffff" {
		t.Fatalf("solid fill css wrong: %v", a.CSS())
	}
	ts.Gradient.Enabled = true
	css := Compose(ts).CSS()
	if css["background"] != "linear-gradient(90deg, #ffffff, #cccccc)" || css["-webkit-text-fill-color"] != "transparent" {
		t.Fatalf("gradient css wrong: %v", css)
	}
	if (Appearance{}).TextShadowCSS() != "none" {
		t.Fatalf("empty shadow list should be none")
	}
}
