/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package prompt

import (
	"fmt"
	"sort"
	"strings"

	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
)

// Region names the ninth of the canvas holding a box's center, e.g. "top-left" or "center".
func Region(b geometry.Box) string {
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	h := "center"
	switch {
	case cx < 100.0/3:
		h = "left"
	case cx > 200.0/3:
		h = "right"
	}
	v := "middle"
	switch {
	case cy < 100.0/3:
		v = "top"
	case cy > 200.0/3:
		v = "bottom"
	}
	if v == "middle" && h == "center" {
		return "center"
	}
	return v + "-" + h
}

// Describe renders the layout as plain language, back to front.
func Describe(background string, elems []layout.Element) string {
	sorted := make([]layout.Element, len(elems))
	copy(sorted, elems)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZIndex < sorted[j].ZIndex })

	var b strings.Builder
	bg := strings.TrimSpace(background)
	if bg == "" {
		bg = "unspecified"
	}
	fmt.Fprintf(&b, "Background: %s\n", bg)
	if len(sorted) == 0 {
		b.WriteString("No overlay elements.\n")
		return b.String()
	}
	for i, e := range sorted {
		fmt.Fprintf(&b, "Layer %d: %s\n", i+1, describeElement(e))
	}
	return b.String()
}

func describeElement(e layout.Element) string {
	parts := []string{
		fmt.Sprintf("%s %q at %s", e.Kind(), e.Content, Region(e.Box())),
		fmt.Sprintf("%s%% wide x %s%% tall", pct(e.Width), pct(e.Height)),
	}
	if r := geometry.NormalizeDegrees(e.Rotation); r != 0 {
		parts = append(parts, fmt.Sprintf("rotated %s degrees", pct(r)))
	}
	switch s := e.Style.(type) {
	case layout.TextStyle:
		parts = append(parts, describeText(s))
	case layout.ObjectStyle:
		parts = append(parts, fmt.Sprintf("filled %s with a %spx %s border", s.Background, pct(s.BorderWidth), s.BorderColor))
	}
	return strings.Join(parts, ", ")
}

func describeText(s layout.TextStyle) string {
	var words []string
	font := fmt.Sprintf("%s weight %d", s.FontFamily, s.FontWeight)
	if s.FontStyle == layout.FontItalic {
		font += " italic"
	}
	words = append(words, font, string(s.Align)+" aligned")
	if s.Gradient.Enabled {
		words = append(words, fmt.Sprintf("gradient fill from %s to %s at %s degrees", s.Gradient.From, s.Gradient.To, pct(s.Gradient.Angle)))
	} else {
		words = append(words, s.Fill+" fill")
	}
	if s.Stroke.Width > 0 {
		words = append(words, fmt.Sprintf("%spx %s outline", pct(s.Stroke.Width), s.Stroke.Color))
	}
	if s.Shadow.Blur > 0 {
		words = append(words, fmt.Sprintf("soft %s drop shadow", s.Shadow.Color))
	}
	if s.Extrusion.Enabled && s.Extrusion.Depth > 0 {
		words = append(words, fmt.Sprintf("3D extrusion %d deep toward %s degrees in %s", s.Extrusion.Depth, pct(s.Extrusion.Angle), s.Extrusion.Color))
	}
	return strings.Join(words, ", ")
}

func pct(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
