/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package effects

// Compose turns a text element's style attributes into the layers a renderer paints.
// Fill, outline, drop shadow and extrusion are derived independently of each other.

import (
	"math"

	"thumbstudio/internal/layout"
)

// Fill is either a solid color or a two-stop linear gradient clipped to the glyphs.
type Fill struct {
	Gradient bool
	Color    string // solid color when Gradient is false
	From, To string
	Angle    float64 // degrees, CSS convention (0 points up, 90 points right)
}

// Outline is drawn outside the glyph fill.
type Outline struct {
	Width float64
	Color string
}

// ShadowLayer is one text shadow. Extrusion layers have zero blur.
type ShadowLayer struct {
	OffsetX, OffsetY float64
	Blur             float64
	Color            string
	Extrusion        bool
}

// Appearance is the renderable property set of a text element.
type Appearance struct {
	Fill    Fill
	Outline *Outline
	// Shadows lists the drop shadow first, then the extrusion stack.
	Shadows []ShadowLayer
}

// Compose derives the appearance of a text style.
func Compose(ts layout.TextStyle) Appearance {
	var a Appearance
	if ts.Gradient.Enabled {
		a.Fill = Fill{Gradient: true, From: ts.Gradient.From, To: ts.Gradient.To, Angle: ts.Gradient.Angle}
	} else {
		a.Fill = Fill{Color: ts.Fill}
	}
	if ts.Stroke.Width > 0 {
		a.Outline = &Outline{Width: ts.Stroke.Width, Color: ts.Stroke.Color}
	}
	if ts.Shadow.Blur > 0 {
		a.Shadows = append(a.Shadows, ShadowLayer{
			OffsetX: ts.Shadow.OffsetX,
			OffsetY: ts.Shadow.OffsetY,
			Blur:    ts.Shadow.Blur,
			Color:   ts.Shadow.Color,
		})
	}
	a.Shadows = append(a.Shadows, Extrusion(ts.Extrusion)...)
	return a
}

// Extrusion generates the flat shadow stack for a 3D extrusion: one layer per
// depth step i at (cos A * i, sin A * i), listed from the farthest (i = depth) to the closest (i = 1).
// A disabled extrusion or a depth below 1 yields no layers.
func Extrusion(x layout.Extrusion) []ShadowLayer {
	if !x.Enabled || x.Depth < 1 {
		return nil
	}
	rad := x.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	out := make([]ShadowLayer, 0, x.Depth)
	for i := x.Depth; i >= 1; i-- {
		out = append(out, ShadowLayer{
			OffsetX:   trim(cos * float64(i)),
			OffsetY:   trim(sin * float64(i)),
			Color:     x.Color,
			Extrusion: true,
		})
	}
	return out
}

// trim drops float noise such as cos(90°) = 6e-17.
func trim(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}
