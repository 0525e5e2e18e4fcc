/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
)

// ErrGeneration is returned for every failed generation; callers show a generic message.
var ErrGeneration = errors.New("prompt generation failed")

// Tier is the requested generation quality.
type Tier string

const (
	TierStandard Tier = "standard"
	TierHigh     Tier = "high"
	TierUltra    Tier = "ultra"
)

// ParseTier accepts the tier names case-insensitively; empty means standard.
func ParseTier(s string) (Tier, bool) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TierStandard, true
	case TierStandard, TierHigh, TierUltra:
		return t, true
	}
	return "", false
}

func (t Tier) qualityHint() string {
	switch t {
	case TierHigh:
		return "high detail, sharp focus, rich lighting"
	case TierUltra:
		return "ultra detailed, 4k, professional studio lighting, flawless composition"
	}
	return "clean composition, standard detail"
}

// Request is everything the generation service needs to describe one layout.
type Request struct {
	Background  string
	Elements    []layout.Element
	Tier        Tier
	StyleName   string
	StylePrompt string
}

// Generator composes a natural-language image prompt for a layout.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Template composes the prompt locally without calling a service.
type Template struct{}

func (Template) Generate(_ context.Context, req Request) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a 16:9 thumbnail image, %s.\n", req.Tier.qualityHint())
	if sp := strings.TrimSpace(req.StylePrompt); sp != "" {
		fmt.Fprintf(&b, "Style (%s): %s\n", req.StyleName, sp)
	}
	b.WriteString(Describe(req.Background, req.Elements))
	return b.String(), nil
}

// Client calls the remote generation service.
type Client struct {
	BaseURL string
	APIKey  string // bearer token
	Model   string
	client  *http.Client
}

// NewClient creates a generation client. A zero timeout leaves calls unbounded.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateBody struct {
	Model       string           `json:"model"`
	Tier        Tier             `json:"tier"`
	Style       string           `json:"style,omitempty"`
	StylePrompt string           `json:"style_prompt,omitempty"`
	Background  string           `json:"background"`
	Layout      string           `json:"layout"`
	Elements    []layout.Element `json:"elements"`
}

type generateReply struct {
	Prompt string `json:"prompt"`
	Error  string `json:"error,omitempty"`
}

// Generate posts the layout to the service. Any failure is wrapped in ErrGeneration
// and nothing partial is returned.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	l := applog.WithOperation(applog.WithComponent("prompt"), "generate")
	tier := req.Tier
	if tier == "" {
		tier = TierStandard
	}
	elems := req.Elements
	if elems == nil {
		elems = []layout.Element{}
	}
	body, err := json.Marshal(generateBody{
		Model: c.Model, Tier: tier, Style: req.StyleName, StylePrompt: req.StylePrompt,
		Background: req.Background, Layout: Describe(req.Background, req.Elements), Elements: elems,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGeneration, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/prompts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		l.Warn("generation request failed", "err", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read reply: %v", ErrGeneration, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.Warn("generation service error", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: service returned %s", ErrGeneration, resp.Status)
	}
	var reply generateReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("%w: decode reply: %v", ErrGeneration, err)
	}
	if reply.Error != "" || strings.TrimSpace(reply.Prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt %s", ErrGeneration, reply.Error)
	}
	l.Info("prompt generated", "tier", string(tier), "ms", time.Since(start).Milliseconds())
	return reply.Prompt, nil
}
