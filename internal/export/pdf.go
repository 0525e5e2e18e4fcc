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
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
	"thumbstudio/internal/styles"
)

// Guide is the content of a printable layout sheet.
type Guide struct {
	Title    string
	Document layout.Document
	Preset   Preset
	Prompt   string
	Styles   []styles.Style
	Created  time.Time
}

// WriteGuidePDF writes an A4 landscape sheet: the layout wireframe with its prompt,
// followed by the style catalog.
func WriteGuidePDF(w io.Writer, g Guide) error {
	p := g.Preset
	if p.Width <= 0 || p.Height <= 0 {
		p, _ = PresetByName("")
	}
	if g.Created.IsZero() {
		g.Created = time.Now()
	}
	title := g.Title
	if title == "" {
		title = "Thumbnail layout"
	}

	pdf := gofpdf.New("L", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("thumbstudio", false)
	pdf.SetCreationDate(g.Created)
	pdf.SetMargins(36, 36, 36)
	pdf.SetAutoPageBreak(true, 36)

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 24, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 14, fmt.Sprintf("%s %dx%d  |  %s", p.Name, p.Width, p.Height, g.Created.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// canvas frame scaled to the printable width at half height of the page
	frameW := pageW - 72
	frameH := frameW * float64(p.Height) / float64(p.Width)
	if frameH > 300 {
		frameH = 300
		frameW = frameH * float64(p.Width) / float64(p.Height)
	}
	top := pdf.GetY() + 8
	canvas := geometry.Rect{X: 36, Y: top, Width: frameW, Height: frameH}
	drawWireframe(pdf, tr, g.Document, canvas)
	pdf.SetY(top + frameH + 16)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 18, "Background", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	bg := g.Document.Background
	if bg == "" {
		bg = "(none)"
	}
	pdf.MultiCell(0, 13, tr(bg), "", "L", false)
	if g.Prompt != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 18, "Prompt", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 9)
		pdf.MultiCell(0, 11, tr(g.Prompt), "", "L", false)
	}

	if len(g.Styles) > 0 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 22, "Style catalog", "", 1, "L", false, 0, "")
		category := ""
		for _, s := range g.Styles {
			if s.Category != category {
				category = s.Category
				pdf.Ln(4)
				pdf.SetFont("Helvetica", "B", 12)
				pdf.SetFillColor(230, 230, 236)
				pdf.CellFormat(0, 16, tr(category), "", 1, "L", true, 0, "")
			}
			name := s.Name
			if s.Customized {
				name += " *"
			}
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 14, tr(name), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 11, tr(s.Prompt), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}

func drawWireframe(pdf *gofpdf.Fpdf, tr func(string) string, doc layout.Document, canvas geometry.Rect) {
	pdf.SetFillColor(31, 31, 38)
	pdf.Rect(canvas.X, canvas.Y, canvas.Width, canvas.Height, "F")
	pdf.SetLineWidth(0.5)

	for _, e := range layout.NewModel(doc.Elements).Sorted() {
		r, ok := geometry.ViewportRect(e.Box(), canvas)
		if !ok {
			continue
		}
		c := r.Center()
		pdf.TransformBegin()
		// gofpdf rotates counter-clockwise; canvas rotation is clockwise
		pdf.TransformRotate(-e.Rotation, c.X, c.Y)
		switch s := e.Style.(type) {
		case layout.ObjectStyle:
			fill := hexOr(s.Background, defaultObjectFill)
			border := hexOr(s.BorderColor, defaultObjectBorder)
			pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
			pdf.SetDrawColor(int(border.R), int(border.G), int(border.B))
			pdf.Rect(r.X, r.Y, r.Width, r.Height, "FD")
		case layout.TextStyle:
			pdf.SetDrawColor(59, 130, 246)
			pdf.SetDashPattern([]float64{3, 2}, 0)
			pdf.Rect(r.X, r.Y, r.Width, r.Height, "D")
			pdf.SetDashPattern([]float64{}, 0)
			col := hexOr(s.Fill, defaultTextFill)
			if s.Gradient.Enabled {
				col = hexOr(s.Gradient.From, defaultTextFill)
			}
			pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
			size := r.Height * 0.6
			if size > 28 {
				size = 28
			}
			if size < 4 {
				size = 4
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.SetXY(r.X, r.Y)
			pdf.CellFormat(r.Width, r.Height, tr(firstLine(e.Content)), "", 0, alignCode(s.Align), false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.TransformEnd()
	}
}

func alignCode(a layout.Align) string {
	switch a {
	case layout.AlignLeft:
		return "LM"
	case layout.AlignRight:
		return "RM"
	default:
		return "CM"
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
