/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"thumbstudio/internal/effects"
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
)

// SVGOptions controls vector export.
type SVGOptions struct {
	Preset Preset
	// IncludeFrame draws each element's outline as a guide.
	IncludeFrame bool
}

// WriteSVG writes doc as a standalone SVG document.
func WriteSVG(w io.Writer, doc layout.Document, opt SVGOptions) error {
	p := opt.Preset
	if p.Width <= 0 || p.Height <= 0 {
		p, _ = PresetByName("")
	}
	canvas := p.Canvas()

	var buf bytes.Buffer
	wf := func(format string, a ...any) { _, _ = fmt.Fprintf(&buf, format, a...) }

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", p.Width, p.Height, p.Width, p.Height)
	if doc.Background != "" {
		wf("  <title>%s</title>\n", escText(doc.Background))
	}

	sorted := layout.NewModel(doc.Elements).Sorted()

	var defs bytes.Buffer
	for i, e := range sorted {
		ts, ok := e.Text()
		if !ok {
			continue
		}
		a := effects.Compose(ts)
		if a.Fill.Gradient {
			x1, y1, x2, y2 := gradientVector(a.Fill.Angle)
			fmt.Fprintf(&defs, "    <linearGradient id=\"g%d\" x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\">", i, fnum(x1), fnum(y1), fnum(x2), fnum(y2))
			fmt.Fprintf(&defs, "<stop offset=\"0\" stop-color=\"%s\"/><stop offset=\"1\" stop-color=\"%s\"/></linearGradient>\n", escAttr(a.Fill.From), escAttr(a.Fill.To))
		}
		for j, s := range a.Shadows {
			if s.Blur > 0 {
				fmt.Fprintf(&defs, "    <filter id=\"b%d-%d\" x=\"-50%%\" y=\"-50%%\" width=\"200%%\" height=\"200%%\"><feGaussianBlur stdDeviation=\"%s\"/></filter>\n", i, j, fnum(s.Blur/2))
			}
		}
	}
	if defs.Len() > 0 {
		wf("  <defs>\n%s  </defs>\n", defs.String())
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#1f1f26\"/>\n", p.Width, p.Height)

	for i, e := range sorted {
		px, ok := geometry.PercentToPixel(e.Box(), canvas)
		if !ok {
			continue
		}
		c := px.Center()
		wf("  <g id=\"%s\"", escAttr(e.ID))
		if e.Rotation != 0 {
			wf(" transform=\"rotate(%s %s %s)\"", fnum(e.Rotation), fnum(c.X), fnum(c.Y))
		}
		wf(">\n")
		switch s := e.Style.(type) {
		case layout.ObjectStyle:
			wf("    <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\"", fnum(px.X), fnum(px.Y), fnum(px.Width), fnum(px.Height), escAttr(s.Background))
			if s.BorderWidth > 0 {
				wf(" stroke=\"%s\" stroke-width=\"%s\"", escAttr(s.BorderColor), fnum(s.BorderWidth))
			}
			wf("/>\n")
		case layout.TextStyle:
			writeSVGText(wf, i, e, s, px)
		}
		if opt.IncludeFrame {
			wf("    <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"none\" stroke=\"#3b82f6\" stroke-dasharray=\"4 4\"/>\n", fnum(px.X), fnum(px.Y), fnum(px.Width), fnum(px.Height))
		}
		wf("  </g>\n")
	}
	wf("</svg>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeSVGText(wf func(string, ...any), idx int, e layout.Element, ts layout.TextStyle, px geometry.Rect) {
	a := effects.Compose(ts)
	lines := strings.Split(strings.ReplaceAll(e.Content, "\r\n", "\n"), "\n")
	lh := ts.LineHeight
	if lh <= 0 {
		lh = 1.1
	}
	size := px.Height / (float64(len(lines)) * lh)
	anchor, x := "middle", px.X+px.Width/2
	switch ts.Align {
	case layout.AlignLeft:
		anchor, x = "start", px.X
	case layout.AlignRight:
		anchor, x = "end", px.X+px.Width
	}
	top := px.Y + (px.Height-size*lh*float64(len(lines)))/2

	attrs := fmt.Sprintf("font-family=\"%s\" font-size=\"%s\" font-weight=\"%d\" font-style=\"%s\" text-anchor=\"%s\" dominant-baseline=\"central\"",
		escAttr(ts.FontFamily), fnum(size), ts.FontWeight, escAttr(string(ts.FontStyle)), anchor)
	spans := func(dx, dy float64) string {
		var sb strings.Builder
		for i, l := range lines {
			y := top + size*lh*float64(i) + size*lh/2
			fmt.Fprintf(&sb, "<tspan x=\"%s\" y=\"%s\">%s</tspan>", fnum(x+dx), fnum(y+dy), escText(l))
		}
		return sb.String()
	}

	for j := len(a.Shadows) - 1; j >= 0; j-- {
		s := a.Shadows[j]
		wf("    <text %s fill=\"%s\"", attrs, escAttr(s.Color))
		if s.Blur > 0 {
			wf(" filter=\"url(#b%d-%d)\"", idx, j)
		}
		wf(">%s</text>\n", spans(s.OffsetX, s.OffsetY))
	}

	fill := escAttr(a.Fill.Color)
	if a.Fill.Gradient {
		fill = fmt.Sprintf("url(#g%d)", idx)
	}
	wf("    <text %s fill=\"%s\"", attrs, fill)
	if a.Outline != nil {
		// stroke is centered on the path; double it and paint it under the fill
		wf(" stroke=\"%s\" stroke-width=\"%s\" paint-order=\"stroke\" stroke-linejoin=\"round\"", escAttr(a.Outline.Color), fnum(a.Outline.Width*2))
	}
	wf(">%s</text>\n", spans(0, 0))
}

// gradientVector maps a CSS angle to objectBoundingBox endpoints.
func gradientVector(deg float64) (x1, y1, x2, y2 float64) {
	rad := deg * math.Pi / 180
	dx, dy := math.Sin(rad)/2, -math.Cos(rad)/2
	return 0.5 - dx, 0.5 - dy, 0.5 + dx, 0.5 + dy
}

func fnum(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0
	}
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "\"", "&quot;", "<", "&lt;", ">", "&gt;")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escAttr(s string) string { return attrEscaper.Replace(s) }
func escText(s string) string { return textEscaper.Replace(s) }
