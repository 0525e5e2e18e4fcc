/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package styles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownStyle is returned for names that are not in the catalog.
var ErrUnknownStyle = errors.New("unknown style")

// Style is one entry of the style catalog used to steer the generation service.
type Style struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Category    string `json:"category"`
	Customized  bool   `json:"customized"`
}

// builtin is kept in display order.
var builtin = []Style{
	{Name: "Bold Creator", Category: "YouTube", Thumbnail: "bold-creator.png",
		Description: "High contrast face close-up with oversized caption",
		Prompt:      "bold youtube thumbnail, expressive face close-up, saturated colors, thick outlined headline text, clean background separation"},
	{Name: "Minimal Tech", Category: "YouTube", Thumbnail: "minimal-tech.png",
		Description: "Product shot on a clean gradient",
		Prompt:      "minimal tech thumbnail, single product hero shot, soft studio lighting, smooth gradient backdrop, crisp sans-serif title"},
	{Name: "Gaming Neon", Category: "Gaming", Thumbnail: "gaming-neon.png",
		Description: "Glowing neon palette with action framing",
		Prompt:      "gaming thumbnail, neon magenta and cyan rim lights, dynamic action pose, glowing 3D title text, dark background"},
	{Name: "Retro Arcade", Category: "Gaming", Thumbnail: "retro-arcade.png",
		Description: "Pixel art and scanlines",
		Prompt:      "retro arcade thumbnail, pixel art sprites, CRT scanlines, chunky extruded title letters, 80s color palette"},
	{Name: "Documentary", Category: "Education", Thumbnail: "documentary.png",
		Description: "Muted cinematic still with serif caption",
		Prompt:      "documentary thumbnail, cinematic wide shot, muted film grade, understated serif title, subtle vignette"},
	{Name: "Explainer", Category: "Education", Thumbnail: "explainer.png",
		Description: "Flat illustration with arrows and callouts",
		Prompt:      "explainer thumbnail, flat vector illustration, bright primary colors, arrows and callout shapes, friendly rounded title"},
	{Name: "Vlog Pastel", Category: "Lifestyle", Thumbnail: "vlog-pastel.png",
		Description: "Soft pastel lifestyle look",
		Prompt:      "lifestyle vlog thumbnail, pastel color grade, natural daylight, candid smile, handwritten style caption"},
	{Name: "Cooking Close-up", Category: "Lifestyle", Thumbnail: "cooking.png",
		Description: "Macro food shot with warm light",
		Prompt:      "cooking thumbnail, macro food photography, warm tungsten light, steam and texture detail, bold rustic title"},
	{Name: "Finance Chart", Category: "Business", Thumbnail: "finance.png",
		Description: "Rising chart with shocked reaction",
		Prompt:      "finance thumbnail, large rising green chart, surprised presenter, dollar symbols, bold yellow headline with black stroke"},
	{Name: "Podcast Duo", Category: "Business", Thumbnail: "podcast.png",
		Description: "Two hosts split frame",
		Prompt:      "podcast thumbnail, two hosts split composition, studio microphones, dark moody backdrop, clean title bar"},
}

// Builtin returns a copy of the built-in catalog in display order.
func Builtin() []Style {
	out := make([]Style, len(builtin))
	copy(out, builtin)
	return out
}

// OverrideStore persists per-style prompt overrides.
type OverrideStore interface {
	LoadOverrides(ctx context.Context) (map[string]string, error)
	SaveOverride(ctx context.Context, name, prompt string) error
	DeleteOverride(ctx context.Context, name string) error
}

// Catalog is the built-in catalog with per-style prompt overrides layered on top.
// It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	base      []Style
	overrides map[string]string
	store     OverrideStore
}

// NewCatalog builds a catalog over the built-in styles. store may be nil.
func NewCatalog(store OverrideStore) *Catalog {
	return &Catalog{base: Builtin(), overrides: map[string]string{}, store: store}
}

// Load pulls persisted overrides from the store. Overrides for unknown styles are dropped.
func (c *Catalog) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	ov, err := c.store.LoadOverrides(ctx)
	if err != nil {
		return fmt.Errorf("load style overrides: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, p := range ov {
		if c.find(name) >= 0 {
			c.overrides[name] = p
		}
	}
	return nil
}

func (c *Catalog) find(name string) int {
	for i := range c.base {
		if strings.EqualFold(c.base[i].Name, name) {
			return i
		}
	}
	return -1
}

func (c *Catalog) resolve(s Style) Style {
	if p, ok := c.overrides[s.Name]; ok {
		s.Prompt = p
		s.Customized = true
	}
	return s
}

// List returns all styles in display order with overrides applied.
func (c *Catalog) List() []Style {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Style, 0, len(c.base))
	for _, s := range c.base {
		out = append(out, c.resolve(s))
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range c.List() {
		if !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return out
}

// Get looks a style up by name, case-insensitively.
func (c *Catalog) Get(name string) (Style, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.find(name)
	if i < 0 {
		return Style{}, false
	}
	return c.resolve(c.base[i]), true
}

// Override replaces the prompt text of a style and persists it.
func (c *Catalog) Override(ctx context.Context, name, prompt string) (Style, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Style{}, errors.New("override prompt is empty")
	}
	c.mu.Lock()
	i := c.find(name)
	if i < 0 {
		c.mu.Unlock()
		return Style{}, fmt.Errorf("%w: %s", ErrUnknownStyle, name)
	}
	canonical := c.base[i].Name
	c.overrides[canonical] = prompt
	s := c.resolve(c.base[i])
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.SaveOverride(ctx, canonical, prompt); err != nil {
			return s, fmt.Errorf("save style override: %w", err)
		}
	}
	return s, nil
}

// Reset drops the override of a style, restoring the built-in prompt.
func (c *Catalog) Reset(ctx context.Context, name string) (Style, error) {
	c.mu.Lock()
	i := c.find(name)
	if i < 0 {
		c.mu.Unlock()
		return Style{}, fmt.Errorf("%w: %s", ErrUnknownStyle, name)
	}
	canonical := c.base[i].Name
	delete(c.overrides, canonical)
	s := c.base[i]
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.DeleteOverride(ctx, canonical); err != nil {
			return s, fmt.Errorf("delete style override: %w", err)
		}
	}
	return s, nil
}

// Overrides returns a copy of the active overrides keyed by style name.
func (c *Catalog) Overrides() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}
