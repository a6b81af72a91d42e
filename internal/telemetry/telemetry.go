/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous usage events and crash reports.
// Nothing is sent unless the user opts in and an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"popupstudio/internal/editor"
	applog "popupstudio/internal/log"
	"popupstudio/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "PST_TELEMETRY_OPT_IN"
	EnvEventsURL = "PST_TELEMETRY_URL"
	EnvCrashURL  = "PST_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "PST_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "PST_TELEMETRY_DEBUG"
)

// Config holds telemetry settings. The zero value sends nothing.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
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

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client queues events and posts them from a background goroutine. Events are
// dropped when the queue is full or a request fails.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	q       chan map[string]any
	pending sync.WaitGroup
	once    sync.Once
	closed  chan struct{}
}

var (
	defaultClient *Client
	defaultMu     sync.Mutex
)

// Default returns the process-wide client, configured from the environment on
// first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process-wide client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// New constructs a client and starts its sender.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues a named event. props must not contain document content.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	c.pending.Add(1)
	select {
	case c.q <- payload:
	default:
		c.pending.Done()
	}
}

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the sender. Queued events are discarded.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item))
			c.pending.Done()
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte) bool {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry post failed", slog.String("url", url), slog.Any("err", err))
		}
		return false
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry posted", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
	return resp.StatusCode < 300
}

// UploadCrash posts a crash report and waits for the request, bounded by the
// client timeout; the process is usually about to exit. It reports success.
func (c *Client) UploadCrash(report []byte) bool {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return false
	}
	return c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

// EditCounter tallies editor events for a session summary. Only counts are kept,
// never ids or content.
type EditCounter struct {
	mu     sync.Mutex
	counts map[editor.EventKind]int
}

// Observe is an editor.Store listener.
func (e *EditCounter) Observe(ev editor.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts == nil {
		e.counts = make(map[editor.EventKind]int)
	}
	e.counts[ev.Kind]++
}

// Props returns the tallies as event properties.
func (e *EditCounter) Props() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.counts))
	for k, n := range e.counts {
		out["edits_"+string(k)] = n
	}
	return out
}
