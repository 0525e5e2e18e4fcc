/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"thumbstudio/internal/effects"
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
)

// Options controls raster previews.
type Options struct {
	Preset   Preset
	FontFile string // optional TTF replacing the bundled Go fonts
}

// Renderer paints layouts with fogleman/gg. It caches parsed fonts and is not safe for concurrent use.
type Renderer struct {
	opt   Options
	fonts map[string]*truetype.Font
}

// NewRenderer prepares a renderer; a custom font file is parsed eagerly.
func NewRenderer(opt Options) (*Renderer, error) {
	if opt.Preset.Width <= 0 || opt.Preset.Height <= 0 {
		opt.Preset, _ = PresetByName("")
	}
	r := &Renderer{opt: opt, fonts: map[string]*truetype.Font{}}
	if opt.FontFile != "" {
		data, err := os.ReadFile(opt.FontFile)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font: %w", err)
		}
		r.fonts["custom"] = f
	}
	return r, nil
}

func (r *Renderer) font(ts layout.TextStyle) (*truetype.Font, error) {
	if f, ok := r.fonts["custom"]; ok {
		return f, nil
	}
	bold := ts.FontWeight >= 600
	italic := ts.FontStyle == layout.FontItalic
	key, data := "regular", goregular.TTF
	switch {
	case bold && italic:
		key, data = "bolditalic", gobolditalic.TTF
	case bold:
		key, data = "bold", gobold.TTF
	case italic:
		key, data = "italic", goitalic.TTF
	}
	if f, ok := r.fonts[key]; ok {
		return f, nil
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	r.fonts[key] = f
	return f, nil
}

// Render paints doc at the configured preset size.
func (r *Renderer) Render(doc layout.Document) (image.Image, error) {
	p := r.opt.Preset
	canvas := p.Canvas()
	dc := gg.NewContext(p.Width, p.Height)
	bg := gg.NewLinearGradient(0, 0, canvas.Width, canvas.Height)
	bg.AddColorStop(0, color.NRGBA{0x2b, 0x2b, 0x33, 0xff})
	bg.AddColorStop(1, color.NRGBA{0x11, 0x11, 0x16, 0xff})
	dc.SetFillStyle(bg)
	dc.DrawRectangle(0, 0, canvas.Width, canvas.Height)
	dc.Fill()

	for _, e := range layout.NewModel(doc.Elements).Sorted() {
		px, ok := geometry.PercentToPixel(e.Box(), canvas)
		if !ok {
			continue
		}
		switch s := e.Style.(type) {
		case layout.ObjectStyle:
			r.drawObject(dc, e, s, px)
		case layout.TextStyle:
			if err := r.drawText(dc, e, s, px); err != nil {
				return nil, err
			}
		}
	}
	return dc.Image(), nil
}

// EncodePNG renders doc and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, doc layout.Document) error {
	img, err := r.Render(doc)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}

func (r *Renderer) drawObject(dc *gg.Context, e layout.Element, s layout.ObjectStyle, px geometry.Rect) {
	c := px.Center()
	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(e.Rotation), c.X, c.Y)
	dc.SetColor(hexOr(s.Background, defaultObjectFill))
	dc.DrawRectangle(px.X, px.Y, px.Width, px.Height)
	dc.Fill()
	if s.BorderWidth > 0 {
		dc.SetLineWidth(s.BorderWidth)
		dc.SetColor(hexOr(s.BorderColor, defaultObjectBorder))
		dc.DrawRectangle(px.X, px.Y, px.Width, px.Height)
		dc.Stroke()
	}
}

// textBlock is a laid-out caption inside its element box.
type textBlock struct {
	lines    []string
	face     font.Face
	lineH    float64
	anchorX  float64
	x        float64
	top      float64
	rotation float64
	center   geometry.Point
}

func (r *Renderer) layoutText(dc *gg.Context, e layout.Element, ts layout.TextStyle, px geometry.Rect) (textBlock, error) {
	f, err := r.font(ts)
	if err != nil {
		return textBlock{}, err
	}
	lines := strings.Split(strings.ReplaceAll(e.Content, "\r\n", "\n"), "\n")
	lh := ts.LineHeight
	if lh <= 0 {
		lh = 1.1
	}
	size := px.Height / (float64(len(lines)) * lh)
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	dc.SetFontFace(face)
	widest := 0.0
	for _, l := range lines {
		if w, _ := dc.MeasureString(l); w > widest {
			widest = w
		}
	}
	if widest > px.Width && widest > 0 {
		size *= px.Width / widest
		face = truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	}
	b := textBlock{lines: lines, face: face, lineH: size * lh, rotation: e.Rotation, center: px.Center()}
	switch ts.Align {
	case layout.AlignLeft:
		b.anchorX, b.x = 0, px.X
	case layout.AlignRight:
		b.anchorX, b.x = 1, px.X+px.Width
	default:
		b.anchorX, b.x = 0.5, px.X+px.Width/2
	}
	b.top = px.Y + (px.Height-b.lineH*float64(len(lines)))/2
	return b, nil
}

// paint draws the block's glyphs in the current color, shifted by dx,dy in element space.
func (b textBlock) paint(dc *gg.Context, dx, dy float64) {
	dc.Push()
	defer dc.Pop()
	dc.RotateAbout(gg.Radians(b.rotation), b.center.X, b.center.Y)
	dc.SetFontFace(b.face)
	for i, l := range b.lines {
		y := b.top + b.lineH*float64(i) + b.lineH/2
		dc.DrawStringAnchored(l, b.x+dx, y+dy, b.anchorX, 0.5)
	}
}

func (r *Renderer) drawText(dc *gg.Context, e layout.Element, ts layout.TextStyle, px geometry.Rect) error {
	b, err := r.layoutText(dc, e, ts, px)
	if err != nil {
		return err
	}
	a := effects.Compose(ts)

	// the first shadow in the list is painted on top
	for i := len(a.Shadows) - 1; i >= 0; i-- {
		s := a.Shadows[i]
		c := hexOr(s.Color, color.NRGBA{A: 0xff})
		if s.Blur <= 0 {
			dc.SetColor(c)
			b.paint(dc, s.OffsetX, s.OffsetY)
			continue
		}
		// soft shadow: a ring of faint copies approximates the blur radius
		const taps = 12
		c.A = uint8(math.Max(1, float64(c.A)/taps*2))
		dc.SetColor(c)
		for k := 0; k < taps; k++ {
			ang := 2 * math.Pi * float64(k) / taps
			rad := s.Blur / 2
			b.paint(dc, s.OffsetX+math.Cos(ang)*rad, s.OffsetY+math.Sin(ang)*rad)
		}
	}

	if a.Outline != nil {
		dc.SetColor(hexOr(a.Outline.Color, color.NRGBA{A: 0xff}))
		steps := int(math.Max(8, math.Ceil(a.Outline.Width*4)))
		for k := 0; k < steps; k++ {
			ang := 2 * math.Pi * float64(k) / float64(steps)
			b.paint(dc, math.Cos(ang)*a.Outline.Width, math.Sin(ang)*a.Outline.Width)
		}
	}

	if !a.Fill.Gradient {
		dc.SetColor(hexOr(a.Fill.Color, defaultTextFill))
		b.paint(dc, 0, 0)
		return nil
	}
	return fillGradient(dc, b, a.Fill, px)
}

// fillGradient paints the glyphs through a mask with a CSS-style linear gradient.
func fillGradient(dc *gg.Context, b textBlock, f effects.Fill, px geometry.Rect) error {
	tmp := gg.NewContext(dc.Width(), dc.Height())
	tmp.SetColor(color.White)
	b.paint(tmp, 0, 0)
	if err := dc.SetMask(tmp.AsMask()); err != nil {
		return fmt.Errorf("gradient mask: %w", err)
	}
	defer dc.ResetClip()

	// CSS angles: 0deg points up, 90deg points right; the element rotation turns the gradient too
	rad := gg.Radians(f.Angle + b.rotation)
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := math.Abs(px.Width/2*dx) + math.Abs(px.Height/2*dy)
	c := b.center
	grad := gg.NewLinearGradient(c.X-dx*half, c.Y-dy*half, c.X+dx*half, c.Y+dy*half)
	grad.AddColorStop(0, hexOr(f.From, defaultTextFill))
	grad.AddColorStop(1, hexOr(f.To, color.NRGBA{0xcc, 0xcc, 0xcc, 0xff}))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
	return nil
}
