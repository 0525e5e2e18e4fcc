/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package effects

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// num formats v with at most two decimals; negative zero prints as 0.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100+0, 'f', -1, 64)
}

// TextShadowCSS renders the shadow list as a CSS text-shadow value.
func (a Appearance) TextShadowCSS() string {
	if len(a.Shadows) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(a.Shadows))
	for _, s := range a.Shadows {
		parts = append(parts, fmt.Sprintf("%spx %spx %spx %s", num(s.OffsetX), num(s.OffsetY), num(s.Blur), s.Color))
	}
	return strings.Join(parts, ", ")
}

// BackgroundCSS renders a gradient fill as a linear-gradient; empty for solid fills.
func (a Appearance) BackgroundCSS() string {
	if !a.Fill.Gradient {
		return ""
	}
	return fmt.Sprintf("linear-gradient(%sdeg, %s, %s)", num(a.Fill.Angle), a.Fill.From, a.Fill.To)
}

// StrokeCSS renders the outline as a -webkit-text-stroke value; empty without an outline.
func (a Appearance) StrokeCSS() string {
	if a.Outline == nil {
		return ""
	}
	return fmt.Sprintf("%spx %s", num(a.Outline.Width), a.Outline.Color)
}

// CSS returns the full set of style properties a browser needs to paint the text.
func (a Appearance) CSS() map[string]string {
	css := map[string]string{"text-shadow": a.TextShadowCSS()}
	if a.Fill.Gradient {
		css["background"] = a.BackgroundCSS()
		css["-webkit-background-clip"] = "text"
		css["background-clip"] = "text"
		css["-webkit-text-fill-color"] = "transparent"
	} else {
		css["color"] = a.Fill.Color
	}
	if s := a.StrokeCSS(); s != "" {
		css["-webkit-text-stroke"] = s
		css["paint-order"] = "stroke fill"
	}
	return css
}
