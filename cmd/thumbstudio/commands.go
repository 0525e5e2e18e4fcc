/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"thumbstudio/internal/backend"
	"thumbstudio/internal/crash"
	"thumbstudio/internal/export"
	"thumbstudio/internal/layout"
	"thumbstudio/internal/prompt"
	"thumbstudio/internal/server"
	"thumbstudio/internal/storage"
	"thumbstudio/internal/styles"
	"thumbstudio/internal/stylepack"
)

// parseArgs lets flags and positional arguments appear in any order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// loadDocument reads a layout from a layout directory or a single JSON file.
func loadDocument(path string) (layout.Document, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return layout.Document{}, err
	}
	if fi.IsDir() {
		return storage.OpenDocument(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.Document{}, err
	}
	return layout.ParseDocument(data)
}

func oneLayout(cmd string, pos []string) (layout.Document, error) {
	if len(pos) != 1 {
		return layout.Document{}, fmt.Errorf("%s requires exactly one <layout>", cmd)
	}
	return loadDocument(pos[0])
}

// writeOutput writes to path, or stdout for "-".
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (a *app) preset(name string) (export.Preset, error) {
	if name == "" {
		name = a.cfg.Render.Preset
	}
	p, ok := export.PresetByName(name)
	if !ok {
		return export.Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

func (a *app) generator() prompt.Generator {
	if a.apiKey == "" {
		return prompt.Template{}
	}
	return prompt.NewClient(a.cfg.Generator.BaseURL, a.apiKey, a.cfg.Generator.Model, a.cfg.Generator.GeneratorTimeout())
}

// catalog opens the local store for style overrides. The returned close func is never nil.
func (a *app) catalog(ctx context.Context) (*styles.Catalog, *storage.Store, func()) {
	st, err := storage.OpenStore(a.cfg.Server.DataDirOrDefault())
	if err != nil {
		a.log.Warn("style store unavailable, using built-in catalog", slog.Any("err", err))
		return styles.NewCatalog(nil), nil, func() {}
	}
	cat := styles.NewCatalog(st)
	if err := cat.Load(ctx); err != nil {
		a.log.Warn("load style overrides failed", slog.Any("err", err))
	}
	return cat, st, func() { _ = st.Close() }
}

func (a *app) serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
	accessLog := fs.Bool("access-log", false, "log every request")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, st, closeStore := a.catalog(ctx)
	defer closeStore()

	opt := server.Options{
		Catalog:      cat,
		Generator:    a.generator(),
		Telemetry:    a.tel,
		Render:       export.Options{FontFile: a.cfg.Render.FontFile},
		AuthSecret:   os.Getenv(server.EnvAuthSecret),
		AccessLog:    *accessLog,
		DefaultStyle: a.cfg.General.DefaultStyle,
	}
	if t, ok := prompt.ParseTier(a.cfg.General.DefaultTier); ok {
		opt.DefaultTier = t
	}
	if st != nil {
		opt.Layouts = st
		opt.Previews = st
		if err := st.EvictPreviewsToFit(ctx, storage.MaxPreviewsBytesFromEnv()); err != nil {
			a.log.Warn("preview cache eviction failed", slog.Any("err", err))
		}
	}
	if dsn := a.cfg.Server.DatabaseURL; dsn != "" {
		repo, err := backend.OpenRepo(ctx, dsn)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = repo.Close() }()
		opt.Layouts = repo
		opt.Catalog = styles.NewCatalog(repo)
		if err := opt.Catalog.Load(ctx); err != nil {
			return err
		}
	}

	srv := server.New(opt)
	defer crash.Recover(a.cfg.Server.DataDirOrDefault(), srv.Registry())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(*addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func (a *app) render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	out := fs.String("o", "thumbnail.png", "output file, - for stdout")
	presetName := fs.String("preset", "", "youtube, square or shorts")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := oneLayout("render", pos)
	if err != nil {
		return err
	}
	p, err := a.preset(*presetName)
	if err != nil {
		return err
	}
	r, err := export.NewRenderer(export.Options{Preset: p, FontFile: a.cfg.Render.FontFile})
	if err != nil {
		return err
	}
	if err := writeOutput(*out, func(w io.Writer) error { return r.EncodePNG(w, doc) }); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	a.log.Info("preview rendered", slog.String("out", *out), slog.Int("w", p.Width), slog.Int("h", p.Height))
	return nil
}

func (a *app) svg(args []string) error {
	fs := flag.NewFlagSet("svg", flag.ContinueOnError)
	out := fs.String("o", "thumbnail.svg", "output file, - for stdout")
	presetName := fs.String("preset", "", "youtube, square or shorts")
	frames := fs.Bool("frames", false, "outline every element box")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := oneLayout("svg", pos)
	if err != nil {
		return err
	}
	p, err := a.preset(*presetName)
	if err != nil {
		return err
	}
	return writeOutput(*out, func(w io.Writer) error {
		return export.WriteSVG(w, doc, export.SVGOptions{Preset: p, IncludeFrame: *frames})
	})
}

func (a *app) stylePrompt(cat *styles.Catalog, name string) (styles.Style, error) {
	if name == "" {
		name = a.cfg.General.DefaultStyle
	}
	if name == "" {
		return styles.Style{}, nil
	}
	s, ok := cat.Get(name)
	if !ok {
		return styles.Style{}, fmt.Errorf("unknown style %q", name)
	}
	return s, nil
}

func (a *app) prompt(args []string) error {
	fs := flag.NewFlagSet("prompt", flag.ContinueOnError)
	styleName := fs.String("style", "", "catalog style name")
	tierName := fs.String("tier", a.cfg.General.DefaultTier, "standard, high or ultra")
	copyOut := fs.Bool("copy", false, "put the prompt on the clipboard")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := oneLayout("prompt", pos)
	if err != nil {
		return err
	}
	tier, ok := prompt.ParseTier(*tierName)
	if !ok {
		return fmt.Errorf("unknown tier %q", *tierName)
	}
	ctx := context.Background()
	cat, _, closeStore := a.catalog(ctx)
	defer closeStore()
	style, err := a.stylePrompt(cat, *styleName)
	if err != nil {
		return err
	}
	sorted := layout.NewModel(doc.Elements).Sorted()
	text, err := prompt.Start(ctx, a.generator(), prompt.Request{
		Background:  doc.Background,
		Elements:    sorted,
		Tier:        tier,
		StyleName:   style.Name,
		StylePrompt: style.Prompt,
	}).Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println(text)
	if *copyOut {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		a.log.Info("prompt copied to clipboard", slog.Int("chars", len(text)))
	}
	return nil
}

func (a *app) styles(args []string) error {
	fs := flag.NewFlagSet("styles", flag.ContinueOnError)
	category := fs.String("category", "", "only list this category")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	cat, _, closeStore := a.catalog(context.Background())
	defer closeStore()
	for _, s := range cat.List() {
		if *category != "" && !strings.EqualFold(s.Category, *category) {
			continue
		}
		mark := " "
		if s.Customized {
			mark = "*"
		}
		fmt.Printf("%s %-20s %-12s %s\n", mark, s.Name, s.Category, s.Description)
	}
	return nil
}

// templatePrompt composes the prompt offline for guides and bundles.
func templatePrompt(doc layout.Document, style styles.Style, tier prompt.Tier) string {
	text, _ := prompt.Template{}.Generate(context.Background(), prompt.Request{
		Background:  doc.Background,
		Elements:    layout.NewModel(doc.Elements).Sorted(),
		Tier:        tier,
		StyleName:   style.Name,
		StylePrompt: style.Prompt,
	})
	return text
}

func (a *app) guide(args []string) error {
	fs := flag.NewFlagSet("guide", flag.ContinueOnError)
	out := fs.String("o", "guide.pdf", "output file, - for stdout")
	title := fs.String("title", "Thumbnail Guide", "page title")
	styleName := fs.String("style", "", "catalog style name")
	presetName := fs.String("preset", "", "youtube, square or shorts")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := oneLayout("guide", pos)
	if err != nil {
		return err
	}
	p, err := a.preset(*presetName)
	if err != nil {
		return err
	}
	cat, _, closeStore := a.catalog(context.Background())
	defer closeStore()
	style, err := a.stylePrompt(cat, *styleName)
	if err != nil {
		return err
	}
	tier, _ := prompt.ParseTier(a.cfg.General.DefaultTier)
	g := export.Guide{
		Title:    *title,
		Document: doc,
		Preset:   p,
		Prompt:   templatePrompt(doc, style, tier),
		Styles:   cat.List(),
		Created:  time.Now(),
	}
	return writeOutput(*out, func(w io.Writer) error { return export.WriteGuidePDF(w, g) })
}

func (a *app) bundle(args []string) error {
	fs := flag.NewFlagSet("bundle", flag.ContinueOnError)
	out := fs.String("o", "stylepack.zip", "output zip")
	styleName := fs.String("style", "", "catalog style name")
	withGuide := fs.Bool("guide", true, "include the PDF guide")
	withPreview := fs.Bool("preview", true, "include a PNG preview")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	doc, err := oneLayout("bundle", pos)
	if err != nil {
		return err
	}
	p, err := a.preset("")
	if err != nil {
		return err
	}
	cat, _, closeStore := a.catalog(context.Background())
	defer closeStore()
	style, err := a.stylePrompt(cat, *styleName)
	if err != nil {
		return err
	}
	tier, _ := prompt.ParseTier(a.cfg.General.DefaultTier)
	return stylepack.Export(*out, stylepack.Contents{
		Catalog:  cat,
		Document: &doc,
		Prompt:   templatePrompt(doc, style, tier),
		Preset:   p,
		Guide:    *withGuide,
		Preview:  *withPreview,
	})
}

func (a *app) install(args []string) error {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	into := fs.String("into", "", "save the bundled layout into this layout directory")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("install requires <pack.zip>")
	}
	ctx := context.Background()
	cat, st, closeStore := a.catalog(ctx)
	defer closeStore()
	if st == nil {
		return errors.New("style store unavailable, overrides cannot be persisted")
	}
	res, err := stylepack.Install(ctx, pos[0], cat)
	if err != nil {
		return err
	}
	fmt.Printf("Installed %d style overrides (%d skipped)\n", res.Overrides, res.Skipped)
	if *into != "" && res.Document != nil {
		if err := storage.SaveDocument(*into, *res.Document); err != nil {
			return fmt.Errorf("save bundled layout: %w", err)
		}
		fmt.Println("Saved layout to", *into)
	}
	return nil
}

func (a *app) token(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("token requires <subject>")
	}
	secret := os.Getenv(server.EnvAuthSecret)
	if secret == "" {
		return fmt.Errorf("%s is not set", server.EnvAuthSecret)
	}
	tok, err := server.SignToken(secret, pos[0], *ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
