/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInitAndStructuredLoggingToFile verifies that a file sink writes JSON lines carrying
// the static and contextual attributes.
func TestInitAndStructuredLoggingToFile(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "pst.json")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "console", File: fpath, Writer: &console})
	t.Cleanup(func() { Init(Options{Level: "error", Writer: &bytes.Buffer{}}) })

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.Info("hello world", slog.String("k", "v"))

	time.Sleep(20 * time.Millisecond)
	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log %q: %v", last, err)
	}
	if m["app"] != "popupstudio" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" || m["k"] != "v" {
		t.Fatalf("context attrs mismatch: %v", m)
	}
	if !strings.Contains(console.String(), "hello world") {
		t.Fatalf("console sink missed the record: %q", console.String())
	}
}

func TestNewJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: "json", Writer: &buf})
	l.Info("dropped")
	l.Warn("kept", slog.Int("n", 3))
	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("expected a single json line: %v (%q)", err, out)
	}
	if m["msg"] != "kept" || m["n"] != float64(3) {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestNopDropsEverything(t *testing.T) {
	if Nop().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("Nop logger should not be enabled")
	}
}
