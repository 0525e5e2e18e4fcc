/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stylepack

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"thumbstudio/internal/export"
	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/styles"
)

// Archive entry names.
const (
	ManifestName = "stylepack.manifest.txt"
	StylesName   = "styles.json"
	LayoutName   = "layout.json"
	SchemaName   = "layout.schema.json"
	PromptName   = "prompt.txt"
	GuideName    = "guide.pdf"
	PreviewName  = "preview.png"
)

// maxEntryBytes caps how much of a single archive entry is read on install.
const maxEntryBytes = 16 << 20

// Override is one customized style prompt carried by a pack.
type Override struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// Contents selects what goes into a pack. Only the catalog is required.
type Contents struct {
	Catalog  *styles.Catalog
	Document *layout.Document
	Prompt   string
	Preset   export.Preset
	// Guide adds a printable PDF sheet; Preview adds a PNG render. Both need Document.
	Guide   bool
	Preview bool
}

// Export writes a pack zip at destZipPath. The catalog's overrides are always included;
// the layout and its renders only when a document is given.
func Export(destZipPath string, c Contents) error {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if c.Catalog == nil {
		return errors.New("catalog is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	add := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	ov := c.Catalog.Overrides()
	list := make([]Override, 0, len(ov))
	for name, p := range ov {
		list = append(list, Override{Name: name, Prompt: p})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	manifest := fmt.Sprintf("Thumbstudio Style Pack\nCreated: %s\nOverrides: %d\nLayout: %t\n",
		time.Now().Format(time.RFC3339), len(list), c.Document != nil)
	if err := add(ManifestName, []byte(manifest)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := add(StylesName, data); err != nil {
		return err
	}

	files := 2
	if c.Document != nil {
		doc := c.Document.Clone()
		if doc.Elements == nil {
			doc.Elements = []layout.Element{}
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode layout: %w", err)
		}
		if err := add(LayoutName, data); err != nil {
			return err
		}
		if err := add(SchemaName, layout.SchemaJSON()); err != nil {
			return err
		}
		files += 2
		if c.Prompt != "" {
			if err := add(PromptName, []byte(c.Prompt)); err != nil {
				return err
			}
			files++
		}
		if c.Guide {
			var buf bytes.Buffer
			g := export.Guide{Document: doc, Preset: c.Preset, Prompt: c.Prompt, Styles: c.Catalog.List()}
			if err := export.WriteGuidePDF(&buf, g); err != nil {
				return err
			}
			if err := add(GuideName, buf.Bytes()); err != nil {
				return err
			}
			files++
		}
		if c.Preview {
			r, err := export.NewRenderer(export.Options{Preset: c.Preset})
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := r.EncodePNG(&buf, doc); err != nil {
				return fmt.Errorf("render preview: %w", err)
			}
			if err := add(PreviewName, buf.Bytes()); err != nil {
				return err
			}
			files++
		}
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", files), slog.Int("overrides", len(list)))
	return nil
}

// Installed reports what Install applied.
type Installed struct {
	Overrides int
	Skipped   int
	Document  *layout.Document
	Prompt    string
}

// Install applies a pack's style overrides to cat and returns its layout, if any.
// Styles that already carry an override are not overwritten; unknown styles are skipped.
func Install(ctx context.Context, packZipPath string, cat *styles.Catalog) (Installed, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("zip", packZipPath))
	var res Installed
	if strings.TrimSpace(packZipPath) == "" {
		return res, errors.New("packZipPath is required")
	}
	if cat == nil {
		return res, errors.New("catalog is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return res, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	entries := map[string]*zip.File{}
	for _, f := range r.File {
		entries[f.Name] = f
	}

	if f, ok := entries[StylesName]; ok {
		data, err := readEntry(f)
		if err != nil {
			return res, err
		}
		var list []Override
		if err := json.Unmarshal(data, &list); err != nil {
			return res, fmt.Errorf("decode %s: %w", StylesName, err)
		}
		for _, o := range list {
			cur, known := cat.Get(o.Name)
			if !known {
				l.Warn("skip unknown style", slog.String("style", o.Name))
				res.Skipped++
				continue
			}
			if cur.Customized {
				l.Warn("skip customized style", slog.String("style", cur.Name))
				res.Skipped++
				continue
			}
			if _, err := cat.Override(ctx, cur.Name, o.Prompt); err != nil {
				return res, err
			}
			res.Overrides++
		}
	}
	if f, ok := entries[LayoutName]; ok {
		data, err := readEntry(f)
		if err != nil {
			return res, err
		}
		doc, err := layout.ParseDocument(data)
		if err != nil {
			return res, fmt.Errorf("pack layout: %w", err)
		}
		res.Document = &doc
	}
	if f, ok := entries[PromptName]; ok {
		data, err := readEntry(f)
		if err != nil {
			return res, err
		}
		res.Prompt = string(data)
	}
	l.Info("style pack installed", slog.Int("overrides", res.Overrides), slog.Int("skipped", res.Skipped), slog.Bool("layout", res.Document != nil))
	return res, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return data, nil
}
