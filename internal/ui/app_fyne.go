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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"thumbstudio/internal/config"
	"thumbstudio/internal/crash"
	"thumbstudio/internal/editor"
	"thumbstudio/internal/export"
	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/prompt"
	"thumbstudio/internal/storage"
	"thumbstudio/internal/styles"
	"thumbstudio/internal/version"
)

// Run starts the desktop editor on the layout stored in layoutDir.
// An empty or missing layout opens a blank canvas; saving creates it.
func Run(layoutDir string) error {
	l := applog.WithComponent("ui")
	cfg, apiKey, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	dataDir := cfg.Server.DataDirOrDefault()
	if layoutDir == "" {
		layoutDir = filepath.Join(dataDir, "layouts", "untitled")
	}

	doc, err := storage.OpenDocument(layoutDir)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("open layout %s: %w", layoutDir, err)
	}
	sess := editor.NewSession(doc)
	defer crash.Recover(dataDir, sessionRescuer{sess})
	l.Info("starting UI", slog.String("layout", layoutDir), slog.Int("elements", len(doc.Elements)))

	var catStore styles.OverrideStore
	if st, err := storage.OpenStore(dataDir); err != nil {
		l.Warn("style store unavailable, overrides disabled", slog.Any("err", err))
	} else {
		defer st.Close()
		catStore = st
	}
	cat := styles.NewCatalog(catStore)
	if err := cat.Load(context.Background()); err != nil {
		l.Warn("load style overrides failed", slog.Any("err", err))
	}

	var gen prompt.Generator = prompt.Template{}
	if apiKey != "" {
		gen = prompt.NewClient(cfg.Generator.BaseURL, apiKey, cfg.Generator.Model, cfg.Generator.GeneratorTimeout())
	}

	fyneApp := app.NewWithID("thumbstudio")
	w := fyneApp.NewWindow("Thumbstudio " + version.String())
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 820)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	tc := NewThumbCanvas(sess)
	tc.OnChange = func() {
		v := sess.View()
		switch {
		case v.Editing != "":
			status.SetText("Editing text")
		case v.Selected != "":
			status.SetText(fmt.Sprintf("Selected %s", v.Selected))
		default:
			status.SetText(fmt.Sprintf("%d elements", len(v.Elements)))
		}
	}

	if p, ok := export.PresetByName(cfg.Render.Preset); ok {
		tc.SetAspect(p.Width, p.Height)
	}
	presetNames := []string{}
	for _, p := range export.Presets() {
		presetNames = append(presetNames, p.Name)
	}
	presetSel := widget.NewSelect(presetNames, func(name string) {
		if p, ok := export.PresetByName(name); ok {
			tc.SetAspect(p.Width, p.Height)
		}
	})
	presetSel.SetSelected(cfg.Render.Preset)

	styleNames := []string{}
	for _, s := range cat.List() {
		styleNames = append(styleNames, s.Name)
	}
	styleSel := widget.NewSelect(styleNames, nil)
	styleSel.SetSelected(cfg.General.DefaultStyle)
	tierSel := widget.NewSelect([]string{string(prompt.TierStandard), string(prompt.TierHigh), string(prompt.TierUltra)}, nil)
	tierSel.SetSelected(cfg.General.DefaultTier)

	editEntry := widget.NewMultiLineEntry()
	editEntry.SetPlaceHolder("Double-click a text element, type, then Commit")

	reorder := func(op layout.Op) func() {
		return func() {
			sel, _ := sess.Selected()
			if sel != "" && sess.Reorder(sel, op) {
				tc.Refresh()
			}
		}
	}

	promptOut := widget.NewMultiLineEntry()
	promptOut.Wrapping = fyne.TextWrapWord
	generate := func() {
		tier, _ := prompt.ParseTier(tierSel.Selected)
		style, _ := cat.Get(styleSel.Selected)
		task := sess.GeneratePrompt(context.Background(), gen, tier, style.Name, style.Prompt)
		status.SetText("Generating prompt...")
		go func() {
			text, err := task.Wait(context.Background())
			fyne.Do(func() {
				if err != nil {
					l.Warn("prompt generation failed", slog.Any("err", err))
					status.SetText("Prompt generation failed")
					return
				}
				promptOut.SetText(text)
				status.SetText("Prompt ready")
			})
		}()
	}

	save := func() {
		err := sess.Save(context.Background(), func(_ context.Context, d layout.Document) error {
			return storage.SaveDocument(layoutDir, d)
		})
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved to " + layoutDir)
	}

	toolbar := container.NewHBox(
		widget.NewButton("Add Text", func() { sess.AddText(); tc.Refresh() }),
		widget.NewButton("Add Object", func() { sess.AddObject(); tc.Refresh() }),
		widget.NewButton("Delete", func() {
			sel, _ := sess.Selected()
			if sel != "" && sess.Delete(sel) {
				tc.Refresh()
			}
		}),
		widget.NewSeparator(),
		widget.NewButton("Front", reorder(layout.OpFront)),
		widget.NewButton("Up", reorder(layout.OpUp)),
		widget.NewButton("Down", reorder(layout.OpDown)),
		widget.NewButton("Back", reorder(layout.OpBack)),
		widget.NewSeparator(),
		widget.NewButton("Save", save),
	)

	side := container.NewVBox(
		widget.NewLabel("Preset"), presetSel,
		widget.NewLabel("Style"), styleSel,
		widget.NewLabel("Quality"), tierSel,
		widget.NewButton("Generate Prompt", generate),
		promptOut,
		widget.NewSeparator(),
		editEntry,
		widget.NewButton("Commit Edit", func() {
			txt := editEntry.Text
			if err := sess.CommitEdit(&txt); err != nil {
				dialog.ShowError(err, w)
				return
			}
			tc.Refresh()
		}),
	)

	w.SetContent(container.NewBorder(toolbar, status, nil, container.NewVScroll(side), tc))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		sess.Close()
	})
	w.ShowAndRun()
	return nil
}
