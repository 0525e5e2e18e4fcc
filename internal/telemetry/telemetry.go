/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage events and crash reports.
// Nothing leaves the machine unless the user opted in and an endpoint is set.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "thumbstudio/internal/log"
	"thumbstudio/internal/version"
)

// Environment variables read by FromEnv. Opt-in itself comes from the app config
// (general.telemetry_opt_in or TS_TELEMETRY_OPT_IN).
const (
	EnvEventsURL = "TS_TELEMETRY_URL"
	EnvCrashURL  = "TS_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "TS_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "TS_TELEMETRY_DEBUG"
)

const (
	queueSize     = 64
	maxBatch      = 16
	flushInterval = 2 * time.Second
)

// Config holds endpoints and the opt-in switch.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads endpoints from the environment; optIn is taken as given.
func FromEnv(optIn bool) Config {
	cfg := Config{
		OptIn:        optIn,
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil && v > 0 {
			cfg.Timeout = v
		}
	}
	return cfg
}

// Event is one anonymous usage record. Props must not carry layout content.
type Event struct {
	Name    string         `json:"name"`
	Time    time.Time      `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client batches events and posts them from a background goroutine.
// Sends never block callers; a full queue drops events.
type Client struct {
	cfg  Config
	log  *slog.Logger
	cli  *http.Client
	q    chan Event
	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup
}

// New starts a client. Call Close to flush and stop it.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		cli:  &http.Client{Timeout: cfg.Timeout},
		q:    make(chan Event, queueSize),
		done: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Track queues an event.
func (c *Client) Track(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	ev := Event{
		Name:    name,
		Time:    time.Now().UTC(),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if len(props) > 0 {
		ev.Props = make(map[string]any, len(props))
		for k, v := range props {
			ev.Props[k] = v
		}
	}
	select {
	case c.q <- ev:
	default:
	}
}

// Close flushes queued events and stops the sender. It is safe to call more than once.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.stop.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *Client) loop() {
	defer c.wg.Done()
	tick := time.NewTicker(flushInterval)
	defer tick.Stop()
	var batch []Event
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.post(context.Background(), c.cfg.EventsURL, "application/json", batch); err != nil && c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err), slog.Int("events", len(batch)))
		}
		batch = nil
	}
	for {
		select {
		case ev := <-c.q:
			batch = append(batch, ev)
			if len(batch) >= maxBatch {
				flush()
			}
		case <-tick.C:
			flush()
		case <-c.done:
			for {
				select {
				case ev := <-c.q:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (c *Client) post(ctx context.Context, url, contentType string, body any) error {
	var data []byte
	switch b := body.(type) {
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint: %s", resp.Status)
	}
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry posted", slog.String("url", url))
	}
	return nil
}

// UploadCrash posts a crash report synchronously when opted in; the process is about to exit.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if err := c.post(ctx, c.cfg.CrashURL, "text/plain; charset=utf-8", report); err != nil && c.cfg.DebugLogging {
		c.log.Debug("crash upload failed", slog.Any("err", err))
	}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Init installs the package-level client used by Track and UploadCrash.
func Init(cfg Config) *Client {
	c := New(cfg)
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	old.Close()
	return c
}

func current() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// Track queues an event on the package-level client, if one is installed.
func Track(name string, props map[string]any) { current().Track(name, props) }

// UploadCrash uploads via the package-level client, if one is installed.
func UploadCrash(report []byte) { current().UploadCrash(report) }

// Shutdown flushes and removes the package-level client.
func Shutdown() {
	defaultMu.Lock()
	c := defaultClient
	defaultClient = nil
	defaultMu.Unlock()
	c.Close()
}
