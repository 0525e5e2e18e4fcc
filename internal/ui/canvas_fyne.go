//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"thumbstudio/internal/editor"
	"thumbstudio/internal/export"
	"thumbstudio/internal/geometry"
	applog "thumbstudio/internal/log"
)

// ThumbCanvas shows the live layout letterboxed at 16:9 and routes mouse input into the session.
type ThumbCanvas struct {
	widget.BaseWidget
	sess    *editor.Session
	aspectW float64
	aspectH float64
	// OnChange runs after any input that may have changed the session.
	OnChange func()
}

func NewThumbCanvas(sess *editor.Session) *ThumbCanvas {
	c := &ThumbCanvas{sess: sess, aspectW: 16, aspectH: 9}
	c.ExtendBaseWidget(c)
	return c
}

// SetAspect switches the frame ratio, e.g. 9:16 for shorts.
func (c *ThumbCanvas) SetAspect(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	c.aspectW, c.aspectH = float64(w), float64(h)
	c.Refresh()
}

func (c *ThumbCanvas) frame() geometry.Rect {
	sz := c.Size()
	return Letterbox(geometry.Rect{Width: float64(sz.Width), Height: float64(sz.Height)}, c.aspectW, c.aspectH)
}

func toPoint(p fyne.Position) geometry.Point { return geometry.Point{X: float64(p.X), Y: float64(p.Y)} }

func (c *ThumbCanvas) changed() {
	c.Refresh()
	if c.OnChange != nil {
		c.OnChange()
	}
}

// MouseDown starts a gesture on a handle or element, or clears the selection on empty canvas.
func (c *ThumbCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.sess.PointerDownAt(toPoint(e.Position), c.frame())
	c.changed()
}

func (c *ThumbCanvas) MouseUp(*desktop.MouseEvent) {
	c.sess.PointerUp()
	c.changed()
}

func (c *ThumbCanvas) Dragged(e *fyne.DragEvent) {
	if c.sess.PointerMove(toPoint(e.Position)) {
		c.changed()
	}
}

func (c *ThumbCanvas) DragEnd() {
	c.sess.PointerUp()
	c.changed()
}

// DoubleTapped enters text edit mode on the element under the pointer.
func (c *ThumbCanvas) DoubleTapped(e *fyne.PointEvent) {
	hit, ok := elementAt(c.sess.View().Elements, c.frame(), toPoint(e.Position))
	if !ok {
		return
	}
	c.sess.DoubleClick(hit.ID)
	c.changed()
}

func (c *ThumbCanvas) MinSize() fyne.Size { return fyne.NewSize(480, 270) }

func (c *ThumbCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 24, G: 24, B: 28, A: 255})
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest

	bbox := canvas.NewRectangle(color.Transparent)
	bbox.StrokeColor = color.NRGBA{R: 59, G: 130, B: 246, A: 255}
	bbox.StrokeWidth = 1
	bbox.Hide()

	handles := map[geometry.Handle]*canvas.Rectangle{}
	objs := []fyne.CanvasObject{bg, img, bbox}
	for _, h := range geometry.ResizeHandles {
		r := canvas.NewRectangle(color.White)
		r.StrokeColor = color.NRGBA{R: 59, G: 130, B: 246, A: 255}
		r.StrokeWidth = 1
		r.Hide()
		handles[h] = r
		objs = append(objs, r)
	}
	rot := canvas.NewCircle(color.NRGBA{R: 59, G: 130, B: 246, A: 255})
	rot.Hide()
	objs = append(objs, rot)

	return &thumbRenderer{c: c, objects: objs, bg: bg, img: img, bbox: bbox, handles: handles, rot: rot}
}

type thumbRenderer struct {
	c       *ThumbCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	img     *canvas.Image
	bbox    *canvas.Rectangle
	handles map[geometry.Handle]*canvas.Rectangle
	rot     *canvas.Circle

	renderer *export.Renderer
	size     [2]int
}

func (r *thumbRenderer) Destroy()                     {}
func (r *thumbRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *thumbRenderer) MinSize() fyne.Size           { return r.c.MinSize() }
func (r *thumbRenderer) Refresh()                     { r.Layout(r.c.Size()); canvas.Refresh(r.c) }

func place(o fyne.CanvasObject, rect geometry.Rect) {
	o.Move(fyne.NewPos(float32(rect.X), float32(rect.Y)))
	o.Resize(fyne.NewSize(float32(rect.Width), float32(rect.Height)))
}

func (r *thumbRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	f := r.c.frame()
	place(r.img, f)
	r.paint(f)

	r.bbox.Hide()
	r.rot.Hide()
	for _, h := range r.handles {
		h.Hide()
	}
	sel, _ := r.c.sess.Selected()
	e, ok := r.c.sess.Element(sel)
	if !ok {
		return
	}
	vr, ok := geometry.ViewportRect(e.Box(), f)
	if !ok {
		return
	}
	place(r.bbox, vr)
	r.bbox.Show()
	for h, box := range handleBoxes(e, f, editor.HandleSize) {
		if h == geometry.HandleRotate {
			place(r.rot, box)
			r.rot.Show()
			continue
		}
		place(r.handles[h], box)
		r.handles[h].Show()
	}
}

// paint rasterizes the layout at the frame's pixel size.
func (r *thumbRenderer) paint(f geometry.Rect) {
	w, h := int(f.Width), int(f.Height)
	if w <= 0 || h <= 0 {
		return
	}
	if r.renderer == nil || r.size != [2]int{w, h} {
		rend, err := export.NewRenderer(export.Options{Preset: export.Preset{Name: "view", Width: w, Height: h}})
		if err != nil {
			applog.WithComponent("ui").Error("renderer init failed", "err", err)
			return
		}
		r.renderer, r.size = rend, [2]int{w, h}
	}
	im, err := r.renderer.Render(r.c.sess.Document())
	if err != nil {
		applog.WithComponent("ui").Error("render failed", "err", err)
		return
	}
	r.img.Image = im
	r.img.Refresh()
}
