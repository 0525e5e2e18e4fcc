/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"fmt"

	"thumbstudio/internal/layout"
)

// patchBody is the partial element update accepted by the API. Field names follow the
// layout document so a client can send back what it received.
type patchBody struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Rotation *float64 `json:"rotation"`
	Content  *string  `json:"content"`

	FontFamily     *string    `json:"fontFamily"`
	FontWeight     *int       `json:"fontWeight"`
	FontStyle      *string    `json:"fontStyle"`
	LineHeight     *float64   `json:"lineHeight"`
	TextAlign      *string    `json:"textAlign"`
	Color          *string    `json:"color"`
	UseGradient    *bool      `json:"useGradient"`
	GradientColors *[2]string `json:"gradientColors"`
	GradientAngle  *float64   `json:"gradientAngle"`
	StrokeWidth    *float64   `json:"strokeWidth"`
	StrokeColor    *string    `json:"strokeColor"`
	ShadowBlur     *float64   `json:"shadowBlur"`
	ShadowOffsetX  *float64   `json:"shadowOffsetX"`
	ShadowOffsetY  *float64   `json:"shadowOffsetY"`
	ShadowColor    *string    `json:"shadowColor"`
	Enable3D       *bool      `json:"enable3D"`
	Depth3D        *int       `json:"depth3D"`
	Angle3D        *float64   `json:"angle3D"`
	Color3D        *string    `json:"color3D"`

	BackgroundColor *string  `json:"backgroundColor"`
	BorderColor     *string  `json:"borderColor"`
	BorderWidth     *float64 `json:"borderWidth"`
}

func (b patchBody) hasText() bool {
	return b.FontFamily != nil || b.FontWeight != nil || b.FontStyle != nil || b.LineHeight != nil ||
		b.TextAlign != nil || b.Color != nil || b.UseGradient != nil || b.GradientColors != nil ||
		b.GradientAngle != nil || b.StrokeWidth != nil || b.StrokeColor != nil || b.ShadowBlur != nil ||
		b.ShadowOffsetX != nil || b.ShadowOffsetY != nil || b.ShadowColor != nil || b.Enable3D != nil ||
		b.Depth3D != nil || b.Angle3D != nil || b.Color3D != nil
}

func (b patchBody) hasObject() bool {
	return b.BackgroundColor != nil || b.BorderColor != nil || b.BorderWidth != nil
}

func assign[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// build turns the body into one patch for e. Grouped style fields (gradient, stroke,
// shadow, extrusion) are merged over the element's current values.
func (b patchBody) build(e layout.Element) (layout.Patch, error) {
	batch := layout.Batch{layout.GeometryPatch{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Rotation: b.Rotation}}

	switch s := e.Style.(type) {
	case layout.TextStyle:
		if b.hasObject() {
			return nil, fmt.Errorf("%w: object attributes on text element %s", layout.ErrKindMismatch, e.ID)
		}
		tp := layout.TextPatch{Content: b.Content, FontFamily: b.FontFamily, FontWeight: b.FontWeight, LineHeight: b.LineHeight, Fill: b.Color}
		if b.FontStyle != nil {
			tp.FontStyle = layout.Ptr(layout.FontStyle(*b.FontStyle))
		}
		if b.TextAlign != nil {
			tp.Align = layout.Ptr(layout.Align(*b.TextAlign))
		}
		if b.UseGradient != nil || b.GradientColors != nil || b.GradientAngle != nil {
			g := s.Gradient
			assign(&g.Enabled, b.UseGradient)
			if b.GradientColors != nil {
				g.From, g.To = b.GradientColors[0], b.GradientColors[1]
			}
			assign(&g.Angle, b.GradientAngle)
			tp.Gradient = &g
		}
		if b.StrokeWidth != nil || b.StrokeColor != nil {
			st := s.Stroke
			assign(&st.Width, b.StrokeWidth)
			assign(&st.Color, b.StrokeColor)
			tp.Stroke = &st
		}
		if b.ShadowBlur != nil || b.ShadowOffsetX != nil || b.ShadowOffsetY != nil || b.ShadowColor != nil {
			sh := s.Shadow
			assign(&sh.Blur, b.ShadowBlur)
			assign(&sh.OffsetX, b.ShadowOffsetX)
			assign(&sh.OffsetY, b.ShadowOffsetY)
			assign(&sh.Color, b.ShadowColor)
			tp.Shadow = &sh
		}
		if b.Enable3D != nil || b.Depth3D != nil || b.Angle3D != nil || b.Color3D != nil {
			x := s.Extrusion
			assign(&x.Enabled, b.Enable3D)
			assign(&x.Depth, b.Depth3D)
			assign(&x.Angle, b.Angle3D)
			assign(&x.Color, b.Color3D)
			tp.Extrusion = &x
		}
		batch = append(batch, tp)
	default:
		if b.hasText() {
			return nil, fmt.Errorf("%w: text attributes on object element %s", layout.ErrKindMismatch, e.ID)
		}
		batch = append(batch, layout.ObjectPatch{Content: b.Content, Background: b.BackgroundColor, BorderColor: b.BorderColor, BorderWidth: b.BorderWidth})
	}
	return batch, nil
}
