/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"thumbstudio/internal/editor"
	"thumbstudio/internal/export"
	"thumbstudio/internal/geometry"
	"thumbstudio/internal/layout"
	"thumbstudio/internal/prompt"
	"thumbstudio/internal/storage"
)

func decode(c fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON payload")
	}
	return nil
}

func (s *Server) withSession(h func(fiber.Ctx, *editor.Session) error) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, ok := s.reg.Get(c.Params("id"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return h(c, sess)
	}
}

func (s *Server) open(c fiber.Ctx, doc layout.Document) error {
	sess := s.reg.Open(doc)
	s.log.Info("session opened", slog.String("session", sess.ID), slog.Int("elements", len(doc.Elements)))
	s.opt.Telemetry.Track("session_open", map[string]any{"elements": len(doc.Elements)})
	return c.Status(fiber.StatusCreated).JSON(sess.View())
}

// createSession opens an editor on the posted layout; an empty body opens a blank canvas.
func (s *Server) createSession(c fiber.Ctx) error {
	doc := layout.Document{Elements: []layout.Element{}}
	if len(bytes.TrimSpace(c.Body())) > 0 {
		var err error
		if doc, err = layout.ParseDocument(c.Body()); err != nil {
			return err
		}
	}
	return s.open(c, doc)
}

func (s *Server) getSession(c fiber.Ctx, sess *editor.Session) error {
	return c.JSON(sess.View())
}

func (s *Server) closeSession(c fiber.Ctx) error {
	found, ended := s.reg.Close(c.Params("id"))
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.JSON(fiber.Map{"closed": true, "endedGesture": ended})
}

func (s *Server) setBackground(c fiber.Ctx, sess *editor.Session) error {
	var body struct {
		Background string `json:"background"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	sess.SetBackground(body.Background)
	return c.JSON(sess.View())
}

type pointerBody struct {
	ElementID string         `json:"elementId"`
	Handle    string         `json:"handle"`
	Pointer   geometry.Point `json:"pointer"`
	Canvas    geometry.Rect  `json:"canvas"`
}

// pointerDown starts a gesture on a handle, on a named element, or wherever the pointer lands.
func (s *Server) pointerDown(c fiber.Ctx, sess *editor.Session) error {
	var body pointerBody
	if err := decode(c, &body); err != nil {
		return err
	}
	var started bool
	switch {
	case body.Handle != "":
		h, ok := geometry.ParseHandle(body.Handle)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown handle %q", body.Handle))
		}
		started = sess.PointerDownHandle(h, body.Pointer, body.Canvas)
	case body.ElementID != "":
		started = sess.PointerDownElement(body.ElementID, body.Pointer, body.Canvas)
	default:
		started = sess.PointerDownAt(body.Pointer, body.Canvas)
	}
	return c.JSON(fiber.Map{"started": started, "view": sess.View()})
}

func (s *Server) pointerMove(c fiber.Ctx, sess *editor.Session) error {
	var body pointerBody
	if err := decode(c, &body); err != nil {
		return err
	}
	moved := sess.PointerMove(body.Pointer)
	return c.JSON(fiber.Map{"moved": moved, "view": sess.View()})
}

func (s *Server) pointerUp(c fiber.Ctx, sess *editor.Session) error {
	sess.PointerUp()
	return c.JSON(sess.View())
}

func (s *Server) clickEmpty(c fiber.Ctx, sess *editor.Session) error {
	sess.ClickEmpty()
	return c.JSON(sess.View())
}

func (s *Server) doubleClick(c fiber.Ctx, sess *editor.Session) error {
	editing := sess.DoubleClick(c.Params("eid"))
	return c.JSON(fiber.Map{"editing": editing, "view": sess.View()})
}

func (s *Server) commitEdit(c fiber.Ctx, sess *editor.Session) error {
	var body struct {
		Content *string `json:"content"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	if err := sess.CommitEdit(body.Content); err != nil {
		return err
	}
	return c.JSON(sess.View())
}

func (s *Server) addElement(c fiber.Ctx, sess *editor.Session) error {
	var body struct {
		Type string `json:"type"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	var e layout.Element
	switch layout.Kind(strings.ToLower(body.Type)) {
	case layout.KindText:
		e = sess.AddText()
	case layout.KindObject:
		e = sess.AddObject()
	default:
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown element type %q", body.Type))
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

func (s *Server) getElement(c fiber.Ctx, sess *editor.Session) error {
	e, ok := sess.Element(c.Params("eid"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "element not found")
	}
	return c.JSON(e)
}

func (s *Server) patchElement(c fiber.Ctx, sess *editor.Session) error {
	id := c.Params("eid")
	e, ok := sess.Element(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "element not found")
	}
	var body patchBody
	if err := decode(c, &body); err != nil {
		return err
	}
	p, err := body.build(e)
	if err != nil {
		return err
	}
	if err := sess.Patch(id, p); err != nil {
		return err
	}
	e, _ = sess.Element(id)
	return c.JSON(e)
}

func (s *Server) deleteElement(c fiber.Ctx, sess *editor.Session) error {
	if !sess.Delete(c.Params("eid")) {
		return fiber.NewError(fiber.StatusNotFound, "element not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) reorder(c fiber.Ctx, sess *editor.Session) error {
	var body struct {
		Op string `json:"op"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	op, ok := layout.ParseOp(body.Op)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown order op %q", body.Op))
	}
	if !sess.Reorder(c.Params("eid"), op) {
		return fiber.NewError(fiber.StatusNotFound, "element not found")
	}
	return c.JSON(sess.View())
}

func (s *Server) effects(c fiber.Ctx, sess *editor.Session) error {
	id := c.Params("eid")
	e, ok := sess.Element(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "element not found")
	}
	a, ok := sess.Appearance(id)
	if !ok {
		return fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("%s elements carry no text effects", e.Kind()))
	}
	return c.JSON(fiber.Map{"css": a.CSS(), "layers": len(a.Shadows)})
}

func (s *Server) preset(c fiber.Ctx) (export.Preset, error) {
	name := c.Query("preset")
	if name == "" && s.opt.Render.Preset.Width > 0 {
		return s.opt.Render.Preset, nil
	}
	p, ok := export.PresetByName(name)
	if !ok {
		return p, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown preset %q", name))
	}
	return p, nil
}

func (s *Server) previewPNG(c fiber.Ctx, sess *editor.Session) error {
	p, err := s.preset(c)
	if err != nil {
		return err
	}
	doc := sess.Document()
	gen := func(context.Context) ([]byte, error) {
		opt := s.opt.Render
		opt.Preset = p
		r, err := export.NewRenderer(opt)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := r.EncodePNG(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var img []byte
	if s.opt.Previews != nil {
		img, err = s.opt.Previews.GetOrCreatePreview(c.Context(), storage.PreviewKey(doc), p.Width, p.Height, gen)
	} else {
		img, err = gen(c.Context())
	}
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}

func (s *Server) exportSVG(c fiber.Ctx, sess *editor.Session) error {
	p, err := s.preset(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, sess.Document(), export.SVGOptions{Preset: p, IncludeFrame: c.Query("frames") == "1"}); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (s *Server) document(c fiber.Ctx, sess *editor.Session) error {
	return c.JSON(sess.Document())
}

func (s *Server) layouts() (LayoutRepo, error) {
	if s.opt.Layouts == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "no layout store configured")
	}
	return s.opt.Layouts, nil
}

func (s *Server) save(c fiber.Ctx, sess *editor.Session) error {
	repo, err := s.layouts()
	if err != nil {
		return err
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = sess.ID
	}
	err = sess.Save(c.Context(), func(ctx context.Context, doc layout.Document) error {
		return repo.SaveLayout(ctx, name, doc)
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"saved": name})
}

func (s *Server) listLayouts(c fiber.Ctx) error {
	repo, err := s.layouts()
	if err != nil {
		return err
	}
	list, err := repo.ListLayouts(c.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []storage.LayoutInfo{}
	}
	return c.JSON(list)
}

func (s *Server) getLayout(c fiber.Ctx) error {
	repo, err := s.layouts()
	if err != nil {
		return err
	}
	doc, err := repo.LoadLayout(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (s *Server) deleteLayout(c fiber.Ctx) error {
	repo, err := s.layouts()
	if err != nil {
		return err
	}
	if err := repo.DeleteLayout(c.Context(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) openLayout(c fiber.Ctx) error {
	repo, err := s.layouts()
	if err != nil {
		return err
	}
	doc, err := repo.LoadLayout(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return s.open(c, doc)
}

func (s *Server) listStyles(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": s.opt.Catalog.Categories(), "styles": s.opt.Catalog.List()})
}

func (s *Server) overrideStyle(c fiber.Ctx) error {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Prompt) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}
	st, err := s.opt.Catalog.Override(c.Context(), c.Params("name"), body.Prompt)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) resetStyle(c fiber.Ctx) error {
	st, err := s.opt.Catalog.Reset(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// startPrompt kicks off a one-shot generation; the session stays editable meanwhile.
func (s *Server) startPrompt(c fiber.Ctx, sess *editor.Session) error {
	var body struct {
		Tier  string `json:"tier"`
		Style string `json:"style"`
	}
	if err := decode(c, &body); err != nil {
		return err
	}
	tier := s.opt.DefaultTier
	if body.Tier != "" || tier == "" {
		t, ok := prompt.ParseTier(body.Tier)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown tier %q", body.Tier))
		}
		tier = t
	}
	name := body.Style
	if name == "" {
		name = s.opt.DefaultStyle
	}
	var styleName, stylePrompt string
	if name != "" {
		st, ok := s.opt.Catalog.Get(name)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown style %q", name))
		}
		styleName, stylePrompt = st.Name, st.Prompt
	}
	sess.GeneratePrompt(s.bgCtx, s.opt.Generator, tier, styleName, stylePrompt)
	s.opt.Telemetry.Track("prompt_started", map[string]any{"tier": string(tier)})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": prompt.Pending.String()})
}

func (s *Server) promptStatus(c fiber.Ctx, sess *editor.Session) error {
	t, ok := sess.PromptTask()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no prompt requested")
	}
	st := t.Status()
	out := fiber.Map{"status": st.String()}
	switch st {
	case prompt.Resolved:
		out["prompt"], _ = t.Result()
	case prompt.Failed:
		if _, err := t.Result(); err != nil {
			out["error"] = err.Error()
		}
	}
	return c.JSON(out)
}
