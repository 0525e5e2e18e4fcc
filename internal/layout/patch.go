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
	"fmt"
	"math"
	"regexp"

	"thumbstudio/internal/geometry"
)

var (
	// ErrKindMismatch is returned when a patch targets attributes the element kind does not carry.
	ErrKindMismatch = errors.New("patch does not match element kind")
	// ErrInvalidPatch is returned when a patch carries out-of-range values.
	ErrInvalidPatch = errors.New("invalid patch")
)

// Patch is a partial attribute merge scoped to one element kind.
// Implemented by GeometryPatch, TextPatch and ObjectPatch.
type Patch interface {
	validate() error
	apply(e *Element) error
}

// GeometryPatch applies to every kind. Nil fields are untouched.
type GeometryPatch struct {
	X, Y          *float64
	Width, Height *float64
	Rotation      *float64
}

// FromUpdate converts a geometry engine result into a patch.
func FromUpdate(u geometry.Update) GeometryPatch {
	return GeometryPatch{X: u.X, Y: u.Y, Width: u.Width, Height: u.Height, Rotation: u.Rotation}
}

func (p GeometryPatch) validate() error {
	for _, v := range []*float64{p.X, p.Y, p.Width, p.Height, p.Rotation} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: non-finite geometry", ErrInvalidPatch)
		}
	}
	if (p.Width != nil && *p.Width <= 0) || (p.Height != nil && *p.Height <= 0) {
		return fmt.Errorf("%w: size must be positive", ErrInvalidPatch)
	}
	return nil
}

func (p GeometryPatch) apply(e *Element) error {
	set(&e.X, p.X)
	set(&e.Y, p.Y)
	set(&e.Width, p.Width)
	set(&e.Height, p.Height)
	set(&e.Rotation, p.Rotation)
	return nil
}

// TextPatch applies to text elements only.
type TextPatch struct {
	Content    *string
	FontFamily *string
	FontWeight *int
	FontStyle  *FontStyle
	LineHeight *float64
	Align      *Align
	Fill       *string
	Gradient   *Gradient
	Stroke     *Stroke
	Shadow     *Shadow
	Extrusion  *Extrusion
}

func (p TextPatch) validate() error {
	if p.FontWeight != nil && (*p.FontWeight < 100 || *p.FontWeight > 900) {
		return fmt.Errorf("%w: font weight %d", ErrInvalidPatch, *p.FontWeight)
	}
	if p.FontStyle != nil && *p.FontStyle != FontNormal && *p.FontStyle != FontItalic {
		return fmt.Errorf("%w: font style %q", ErrInvalidPatch, *p.FontStyle)
	}
	if p.LineHeight != nil && !(*p.LineHeight > 0) {
		return fmt.Errorf("%w: line height", ErrInvalidPatch)
	}
	if p.Align != nil {
		switch *p.Align {
		case AlignLeft, AlignCenter, AlignRight:
		default:
			return fmt.Errorf("%w: align %q", ErrInvalidPatch, *p.Align)
		}
	}
	colors := []*string{p.Fill}
	if p.Gradient != nil {
		colors = append(colors, &p.Gradient.From, &p.Gradient.To)
	}
	if p.Stroke != nil {
		if p.Stroke.Width < 0 {
			return fmt.Errorf("%w: stroke width", ErrInvalidPatch)
		}
		colors = append(colors, &p.Stroke.Color)
	}
	if p.Shadow != nil {
		if p.Shadow.Blur < 0 {
			return fmt.Errorf("%w: shadow blur", ErrInvalidPatch)
		}
		colors = append(colors, &p.Shadow.Color)
	}
	if p.Extrusion != nil {
		if p.Extrusion.Depth < 0 {
			return fmt.Errorf("%w: extrusion depth", ErrInvalidPatch)
		}
		colors = append(colors, &p.Extrusion.Color)
	}
	return validColors(colors...)
}

func (p TextPatch) apply(e *Element) error {
	ts, ok := e.Text()
	if !ok {
		return fmt.Errorf("%w: text patch on %s element %s", ErrKindMismatch, e.Kind(), e.ID)
	}
	set(&e.Content, p.Content)
	set(&ts.FontFamily, p.FontFamily)
	set(&ts.FontWeight, p.FontWeight)
	set(&ts.FontStyle, p.FontStyle)
	set(&ts.LineHeight, p.LineHeight)
	set(&ts.Align, p.Align)
	set(&ts.Fill, p.Fill)
	set(&ts.Gradient, p.Gradient)
	set(&ts.Stroke, p.Stroke)
	set(&ts.Shadow, p.Shadow)
	set(&ts.Extrusion, p.Extrusion)
	e.Style = ts
	return nil
}

// ObjectPatch applies to object elements only.
type ObjectPatch struct {
	Content     *string
	Background  *string
	BorderColor *string
	BorderWidth *float64
}

func (p ObjectPatch) validate() error {
	if p.BorderWidth != nil && *p.BorderWidth < 0 {
		return fmt.Errorf("%w: border width", ErrInvalidPatch)
	}
	return validColors(p.Background, p.BorderColor)
}

func (p ObjectPatch) apply(e *Element) error {
	obj, ok := e.Object()
	if !ok {
		return fmt.Errorf("%w: object patch on %s element %s", ErrKindMismatch, e.Kind(), e.ID)
	}
	set(&e.Content, p.Content)
	set(&obj.Background, p.Background)
	set(&obj.BorderColor, p.BorderColor)
	set(&obj.BorderWidth, p.BorderWidth)
	e.Style = obj
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidColor reports whether s is a #rgb, #rrggbb or #rrggbbaa color.
func ValidColor(s string) bool { return hexColor.MatchString(s) }

func validColors(cs ...*string) error {
	for _, c := range cs {
		if c != nil && !ValidColor(*c) {
			return fmt.Errorf("%w: color %q", ErrInvalidPatch, *c)
		}
	}
	return nil
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }

// Batch applies several patches as one update: either all of them land or none.
type Batch []Patch

func (b Batch) validate() error {
	for _, p := range b {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b Batch) apply(e *Element) error {
	for _, p := range b {
		if err := p.apply(e); err != nil {
			return err
		}
	}
	return nil
}
