/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"thumbstudio/internal/geometry"
)

// Kind discriminates the element payload.
type Kind string

const (
	KindText   Kind = "text"
	KindObject Kind = "object"
)

// Geometry is the shared positional core of every element.
// X, Y, Width and Height are percentages of the canvas box; Rotation is in degrees and unbounded.
type Geometry struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

func (g Geometry) Box() geometry.Box {
	return geometry.Box{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

type FontStyle string

const (
	FontNormal FontStyle = "normal"
	FontItalic FontStyle = "italic"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Gradient replaces the solid fill while Enabled is set.
type Gradient struct {
	Enabled  bool
	From, To string
	Angle    float64
}

type Stroke struct {
	Width float64
	Color string
}

type Shadow struct {
	Blur             float64
	OffsetX, OffsetY float64
	Color            string
}

// Extrusion stacks Depth unblurred copies along Angle to fake a 3D side face.
type Extrusion struct {
	Enabled bool
	Depth   int
	Angle   float64
	Color   string
}

// Style is the kind-specific payload of an element. Implemented by TextStyle and ObjectStyle only.
type Style interface {
	Kind() Kind
	sealed()
}

type TextStyle struct {
	FontFamily string
	FontWeight int
	FontStyle  FontStyle
	LineHeight float64
	Align      Align
	Fill       string
	Gradient   Gradient
	Stroke     Stroke
	Shadow     Shadow
	Extrusion  Extrusion
}

func (TextStyle) Kind() Kind { return KindText }
func (TextStyle) sealed()    {}

type ObjectStyle struct {
	Background  string
	BorderColor string
	BorderWidth float64
}

func (ObjectStyle) Kind() Kind { return KindObject }
func (ObjectStyle) sealed()    {}

// Element is one positioned overlay on the canvas.
type Element struct {
	ID string
	Geometry
	ZIndex  int
	Content string
	Style   Style
}

// Kind reports the element kind; an element without a style counts as an object.
func (e Element) Kind() Kind {
	if e.Style == nil {
		return KindObject
	}
	return e.Style.Kind()
}

// Text returns the text payload when the element is a text element.
func (e Element) Text() (TextStyle, bool) {
	ts, ok := e.Style.(TextStyle)
	return ts, ok
}

// Object returns the object payload when the element is an object element.
func (e Element) Object() (ObjectStyle, bool) {
	obj, ok := e.Style.(ObjectStyle)
	return obj, ok
}

// DefaultTextStyle is the style a new text element starts with.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontFamily: "Impact",
		FontWeight: 700,
		FontStyle:  FontNormal,
		LineHeight: 1.1,
		Align:      AlignCenter,
		Fill:       "#ffffff",
		Gradient:   Gradient{Enabled: false, From: "#ffffff", To: "#cccccc", Angle: 90},
		Stroke:     Stroke{Width: 0, Color: "#000000"},
		Shadow:     Shadow{Blur: 0, OffsetX: 2, OffsetY: 2, Color: "#000000"},
		Extrusion:  Extrusion{Enabled: false, Depth: 5, Angle: 45, Color: "#333333"},
	}
}

// DefaultObjectStyle is the style a new object element starts with.
func DefaultObjectStyle() ObjectStyle {
	return ObjectStyle{Background: "#cccccc", BorderColor: "#333333", BorderWidth: 2}
}

// NewText builds a text element with default geometry and style.
func NewText(id string, z int) Element {
	return Element{
		ID:       id,
		Geometry: Geometry{X: 10, Y: 40, Width: 80, Height: 20},
		ZIndex:   z,
		Content:  "New Text",
		Style:    DefaultTextStyle(),
	}
}

// NewObject builds an object element with default geometry and style.
func NewObject(id string, z int) Element {
	return Element{
		ID:       id,
		Geometry: Geometry{X: 35, Y: 35, Width: 30, Height: 30},
		ZIndex:   z,
		Content:  "Object",
		Style:    DefaultObjectStyle(),
	}
}
