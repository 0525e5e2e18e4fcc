/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/color"
	"strconv"
	"strings"

	"thumbstudio/internal/geometry"
)

// Preset is a named output size.
type Preset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var presets = []Preset{
	{Name: "youtube", Width: 1280, Height: 720},
	{Name: "square", Width: 1080, Height: 1080},
	{Name: "shorts", Width: 1080, Height: 1920},
}

// Presets lists the built-in output sizes.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByName resolves a preset case-insensitively; empty selects youtube.
func PresetByName(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return presets[0], true
	}
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Canvas is the preset's pixel box with its origin at 0,0.
func (p Preset) Canvas() geometry.Rect {
	return geometry.Rect{Width: float64(p.Width), Height: float64(p.Height)}
}

// ParseHex parses #rgb, #rrggbb and #rrggbbaa colors.
func ParseHex(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}) + "ff"
	case 6:
		s += "ff"
	case 8:
	default:
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func hexOr(s string, def color.NRGBA) color.NRGBA {
	if c, ok := ParseHex(s); ok {
		return c
	}
	return def
}

var (
	defaultObjectFill   = color.NRGBA{0xcc, 0xcc, 0xcc, 0xff}
	defaultObjectBorder = color.NRGBA{0x33, 0x33, 0x33, 0xff}
	defaultTextFill     = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)
