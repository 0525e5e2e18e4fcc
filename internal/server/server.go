/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes editor sessions over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"thumbstudio/internal/export"
	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/prompt"
	"thumbstudio/internal/storage"
	"thumbstudio/internal/styles"
	"thumbstudio/internal/telemetry"
	"thumbstudio/internal/version"
)

// LayoutRepo stores named layouts. Implemented by storage.Store and backend.Repo.
type LayoutRepo interface {
	SaveLayout(ctx context.Context, name string, doc layout.Document) error
	LoadLayout(ctx context.Context, name string) (layout.Document, error)
	ListLayouts(ctx context.Context) ([]storage.LayoutInfo, error)
	DeleteLayout(ctx context.Context, name string) error
}

// PreviewCache memoizes rendered previews. Implemented by storage.Store.
type PreviewCache interface {
	GetOrCreatePreview(ctx context.Context, key string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error)
}

// Options wires the server's collaborators. Catalog and Generator are required.
type Options struct {
	Catalog   *styles.Catalog
	Generator prompt.Generator
	Layouts   LayoutRepo   // optional; save and layout routes answer 503 without it
	Previews  PreviewCache // optional
	Telemetry *telemetry.Client
	Render    export.Options
	// AuthSecret turns on bearer-token auth for everything under /v1.
	AuthSecret string
	AccessLog  bool
	// DefaultStyle and DefaultTier apply when a prompt request names none.
	DefaultStyle string
	DefaultTier  prompt.Tier
}

// Server is the HTTP editor API.
type Server struct {
	app   *fiber.App
	opt   Options
	reg   *Registry
	log   *slog.Logger
	bgCtx context.Context
}

// New builds the fiber app and registers all routes.
func New(opt Options) *Server {
	if opt.Catalog == nil {
		opt.Catalog = styles.NewCatalog(nil)
	}
	if opt.Generator == nil {
		opt.Generator = prompt.Template{}
	}
	s := &Server{
		opt:   opt,
		reg:   NewRegistry(),
		log:   applog.WithComponent("server"),
		bgCtx: context.Background(),
	}
	s.app = fiber.New(fiber.Config{
		AppName:      "thumbstudio " + version.String(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    8 << 20,
		UnescapePath: true,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recover.New())
	if opt.AccessLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
		}))
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}))
	s.routes()
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Registry exposes the open sessions, e.g. for crash rescue.
func (s *Server) Registry() *Registry { return s.reg }

// Listen serves until the app is shut down.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", slog.String("addr", addr), slog.Bool("auth", s.opt.AuthSecret != ""))
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.reg.CloseAll()
	return err
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": s.reg.Len()})
	})
	s.app.Get("/version", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": version.String()})
	})

	v1 := s.app.Group("/v1")
	if s.opt.AuthSecret != "" {
		v1.Use(requireToken(s.opt.AuthSecret))
	}
	v1.Get("/presets", func(c fiber.Ctx) error { return c.JSON(export.Presets()) })
	v1.Get("/schema", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(layout.SchemaJSON())
	})

	v1.Get("/styles", s.listStyles)
	v1.Put("/styles/:name", s.overrideStyle)
	v1.Delete("/styles/:name", s.resetStyle)

	v1.Get("/layouts", s.listLayouts)
	v1.Get("/layouts/:name", s.getLayout)
	v1.Delete("/layouts/:name", s.deleteLayout)
	v1.Post("/layouts/:name/open", s.openLayout)

	ss := v1.Group("/sessions")
	ss.Post("/", s.createSession)
	ss.Get("/:id", s.withSession(s.getSession))
	ss.Delete("/:id", s.closeSession)
	ss.Put("/:id/background", s.withSession(s.setBackground))

	ss.Post("/:id/pointer/down", s.withSession(s.pointerDown))
	ss.Post("/:id/pointer/move", s.withSession(s.pointerMove))
	ss.Post("/:id/pointer/up", s.withSession(s.pointerUp))
	ss.Post("/:id/click-empty", s.withSession(s.clickEmpty))
	ss.Post("/:id/commit-edit", s.withSession(s.commitEdit))

	ss.Post("/:id/elements", s.withSession(s.addElement))
	ss.Get("/:id/elements/:eid", s.withSession(s.getElement))
	ss.Patch("/:id/elements/:eid", s.withSession(s.patchElement))
	ss.Delete("/:id/elements/:eid", s.withSession(s.deleteElement))
	ss.Post("/:id/elements/:eid/double-click", s.withSession(s.doubleClick))
	ss.Post("/:id/elements/:eid/order", s.withSession(s.reorder))
	ss.Get("/:id/elements/:eid/effects", s.withSession(s.effects))

	ss.Get("/:id/preview.png", s.withSession(s.previewPNG))
	ss.Get("/:id/export.svg", s.withSession(s.exportSVG))
	ss.Get("/:id/document", s.withSession(s.document))
	ss.Post("/:id/save", s.withSession(s.save))
	ss.Post("/:id/prompt", s.withSession(s.startPrompt))
	ss.Get("/:id/prompt", s.withSession(s.promptStatus))
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, layout.ErrInvalidDocument), errors.Is(err, layout.ErrInvalidPatch), errors.Is(err, layout.ErrKindMismatch):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, styles.ErrUnknownStyle):
		code = fiber.StatusNotFound
	}
	if code >= 500 {
		s.log.Error("request failed", slog.String("method", c.Method()), slog.String("path", c.Path()), slog.Any("err", err))
	} else {
		s.log.Debug("request rejected", slog.String("path", c.Path()), slog.Int("status", code), slog.Any("err", err))
	}
	msg := err.Error()
	if fe != nil {
		msg = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
