/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("PST_LOG_LEVEL", "warn")
	t.Setenv("PST_LOG_FORMAT", "json")
	t.Setenv("PST_LOG_SOURCE", "true")
	t.Setenv("PST_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("PST_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestConsoleHandlerBehavior(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Writer: &buf})
	h := l.Handler()
	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Bool("ok", true))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "boom", " k=v", "grp.n=42", "grp.pi=3.14", "grp.ok=true", "app=popupstudio"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "grp.k=v") {
		t.Fatalf("attrs added before the group must not get its prefix: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARNING ": slog.LevelWarn, "error": slog.LevelError, "bogus": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
