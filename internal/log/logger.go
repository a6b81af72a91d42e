/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides the application's slog setup: a compact console handler or
// JSON output, optional rotating file output, and helpers that tag loggers with the
// component and operation that emit them.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"popupstudio/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. FromEnv reads:
//   - PST_LOG_LEVEL=debug|info|warn|error
//   - PST_LOG_FORMAT=console|json
//   - PST_LOG_FILE=<path> (adds a rotated JSON file sink)
//   - PST_LOG_SOURCE=true|false
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
	// Writer replaces stderr for the console sink; used by tests.
	Writer io.Writer
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *slog.Logger
)

// L returns the default logger, initializing it from the environment on first use.
func L() *slog.Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Init builds the logger described by opts, installs it as the package default and
// as slog.Default.
func Init(opts Options) {
	logger := New(opts)
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	slog.SetDefault(logger)
}

// New builds a logger without touching any global state.
func New(opts Options) *slog.Logger {
	lvl := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var sinks []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(w, hopts))
	} else {
		sinks = append(sinks, &consoleHandler{level: lvl, addSource: opts.AddSource, w: w, mu: &sync.Mutex{}})
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		rot := &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(rot, hopts))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}
	return slog.New(h).With(
		slog.String("app", "popupstudio"),
		slog.String("ver", version.String()),
	)
}

// Nop returns a logger that drops everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

// FromEnv builds Options from PST_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("PST_LOG_LEVEL", "info"),
		Format:    getenv("PST_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("PST_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("PST_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns the default logger tagged with component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op=name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout sends each record to every handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// consoleHandler prints one line per record: ts LVL msg key=val...
// Attributes added through WithAttrs keep the group prefix active when they were added.
type consoleHandler struct {
	level     slog.Level
	addSource bool
	w         io.Writer
	mu        *sync.Mutex // shared by clones writing to w
	prefix    string
	preset    []string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	b := &strings.Builder{}
	b.Grow(256)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(levelString(r.Level))
	if r.Message != "" {
		b.WriteByte(' ')
		b.WriteString(r.Message)
	}
	for _, kv := range h.preset {
		b.WriteByte(' ')
		b.WriteString(kv)
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteByte(' ')
		b.WriteString(formatAttr(h.prefix, a))
		return true
	})
	if h.addSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(" src=")
		b.WriteString(f.File)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(f.Line))
	}
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) clone() *consoleHandler {
	c := *h
	c.preset = append([]string(nil), h.preset...)
	return &c
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	for _, a := range attrs {
		c.preset = append(c.preset, formatAttr(h.prefix, a))
	}
	return c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix = h.prefix + name + "."
	return c
}

func formatAttr(prefix string, a slog.Attr) string {
	return prefix + a.Key + "=" + valueString(a.Value.Resolve())
}

func levelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return l.String()
	}
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return v.String()
	}
}
