/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument is returned when layout JSON does not conform to the layout schema.
var ErrInvalidDocument = errors.New("invalid layout document")

//go:embed layout.schema.json
var schemaJSON []byte

// SchemaJSON returns the layout schema for publishing alongside exports.
func SchemaJSON() []byte { return append([]byte(nil), schemaJSON...) }

// Document is the layout handed in when a session opens and handed back on save.
type Document struct {
	Background string    `json:"background"`
	Elements   []Element `json:"elements"`
}

// Clone returns a copy sharing no element storage with d.
func (d Document) Clone() Document {
	out := Document{Background: d.Background, Elements: make([]Element, len(d.Elements))}
	copy(out.Elements, d.Elements)
	return out
}

// Validate checks raw JSON against the layout schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

// ParseDocument validates and decodes a layout document. Element ids must be unique.
func ParseDocument(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	seen := make(map[string]bool, len(d.Elements))
	for _, e := range d.Elements {
		if seen[e.ID] {
			return Document{}, fmt.Errorf("%w: duplicate element id %q", ErrInvalidDocument, e.ID)
		}
		seen[e.ID] = true
	}
	if d.Elements == nil {
		d.Elements = []Element{}
	}
	return d, nil
}

// wireElement is the flat JSON shape of an element, shared with the browser editor.
type wireElement struct {
	ID       string  `json:"id"`
	Type     Kind    `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
	Content  string  `json:"content"`

	FontFamily     *string    `json:"fontFamily,omitempty"`
	FontWeight     *int       `json:"fontWeight,omitempty"`
	FontStyle      *FontStyle `json:"fontStyle,omitempty"`
	LineHeight     *float64   `json:"lineHeight,omitempty"`
	TextAlign      *Align     `json:"textAlign,omitempty"`
	Color          *string    `json:"color,omitempty"`
	UseGradient    *bool      `json:"useGradient,omitempty"`
	GradientColors []string   `json:"gradientColors,omitempty"`
	GradientAngle  *float64   `json:"gradientAngle,omitempty"`
	StrokeWidth    *float64   `json:"strokeWidth,omitempty"`
	StrokeColor    *string    `json:"strokeColor,omitempty"`
	ShadowBlur     *float64   `json:"shadowBlur,omitempty"`
	ShadowOffsetX  *float64   `json:"shadowOffsetX,omitempty"`
	ShadowOffsetY  *float64   `json:"shadowOffsetY,omitempty"`
	ShadowColor    *string    `json:"shadowColor,omitempty"`
	Enable3D       *bool      `json:"enable3D,omitempty"`
	Depth3D        *int       `json:"depth3D,omitempty"`
	Angle3D        *float64   `json:"angle3D,omitempty"`
	Color3D        *string    `json:"color3D,omitempty"`

	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	BorderColor     *string  `json:"borderColor,omitempty"`
	BorderWidth     *float64 `json:"borderWidth,omitempty"`
}

func (e Element) MarshalJSON() ([]byte, error) {
	w := wireElement{
		ID: e.ID, Type: e.Kind(),
		X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Rotation: e.Rotation,
		ZIndex: e.ZIndex, Content: e.Content,
	}
	switch s := e.Style.(type) {
	case TextStyle:
		w.FontFamily, w.FontWeight, w.FontStyle = &s.FontFamily, &s.FontWeight, &s.FontStyle
		w.LineHeight, w.TextAlign, w.Color = &s.LineHeight, &s.Align, &s.Fill
		w.UseGradient, w.GradientColors, w.GradientAngle = &s.Gradient.Enabled, []string{s.Gradient.From, s.Gradient.To}, &s.Gradient.Angle
		w.StrokeWidth, w.StrokeColor = &s.Stroke.Width, &s.Stroke.Color
		w.ShadowBlur, w.ShadowOffsetX, w.ShadowOffsetY, w.ShadowColor = &s.Shadow.Blur, &s.Shadow.OffsetX, &s.Shadow.OffsetY, &s.Shadow.Color
		w.Enable3D, w.Depth3D, w.Angle3D, w.Color3D = &s.Extrusion.Enabled, &s.Extrusion.Depth, &s.Extrusion.Angle, &s.Extrusion.Color
	case ObjectStyle:
		w.BackgroundColor, w.BorderColor, w.BorderWidth = &s.Background, &s.BorderColor, &s.BorderWidth
	}
	return json.Marshal(w)
}

// UnmarshalJSON starts from the kind defaults and overlays the attributes present in data.
func (e *Element) UnmarshalJSON(data []byte) error {
	var w wireElement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Element{
		ID:       w.ID,
		Geometry: Geometry{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height, Rotation: w.Rotation},
		ZIndex:   w.ZIndex,
		Content:  w.Content,
	}
	switch w.Type {
	case KindText:
		s := DefaultTextStyle()
		set(&s.FontFamily, w.FontFamily)
		set(&s.FontWeight, w.FontWeight)
		set(&s.FontStyle, w.FontStyle)
		set(&s.LineHeight, w.LineHeight)
		set(&s.Align, w.TextAlign)
		set(&s.Fill, w.Color)
		set(&s.Gradient.Enabled, w.UseGradient)
		if len(w.GradientColors) == 2 {
			s.Gradient.From, s.Gradient.To = w.GradientColors[0], w.GradientColors[1]
		}
		set(&s.Gradient.Angle, w.GradientAngle)
		set(&s.Stroke.Width, w.StrokeWidth)
		set(&s.Stroke.Color, w.StrokeColor)
		set(&s.Shadow.Blur, w.ShadowBlur)
		set(&s.Shadow.OffsetX, w.ShadowOffsetX)
		set(&s.Shadow.OffsetY, w.ShadowOffsetY)
		set(&s.Shadow.Color, w.ShadowColor)
		set(&s.Extrusion.Enabled, w.Enable3D)
		set(&s.Extrusion.Depth, w.Depth3D)
		set(&s.Extrusion.Angle, w.Angle3D)
		set(&s.Extrusion.Color, w.Color3D)
		e.Style = s
	case KindObject:
		s := DefaultObjectStyle()
		set(&s.Background, w.BackgroundColor)
		set(&s.BorderColor, w.BorderColor)
		set(&s.BorderWidth, w.BorderWidth)
		e.Style = s
	default:
		return fmt.Errorf("unknown element type %q", w.Type)
	}
	return nil
}
