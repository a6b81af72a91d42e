/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"popupstudio/internal/config"
	"popupstudio/internal/domain"
	"popupstudio/internal/storage"
)

type harness struct {
	t       *testing.T
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{config.EnvPostgresDSN, config.EnvLibraryPath, config.EnvCanvasMode, config.EnvCanvasWidth, config.EnvCanvasHeight} {
		t.Setenv(k, "")
	}
	cfg := config.Defaults()
	cfg.Storage.LibraryPath = filepath.Join(dir, "lib", "library.sqlite")
	cfg.Storage.AutosaveKeep = 2
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := config.Save(cfgPath, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return &harness{t: t, dir: dir, cfgPath: cfgPath}
}

func (h *harness) path(name string) string { return filepath.Join(h.dir, name) }

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := New(&errOut).RootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", h.cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (h *harness) open(name string) domain.Snapshot {
	h.t.Helper()
	snap, err := storage.Open(h.path(name))
	if err != nil {
		h.t.Fatalf("open %s: %v", name, err)
	}
	return snap
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	if !strings.HasPrefix(out, "popupstudio ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestNewAddMoveRemove(t *testing.T) {
	h := newHarness(t)
	doc := h.path("promo.popup.json")
	h.mustRun("new", doc)

	snap := h.open("promo.popup.json")
	if snap.CanvasSettings.Mode != domain.ModePopup || snap.CanvasSettings.Width != 450 || len(snap.Blocks) != 0 {
		t.Fatalf("unexpected new document %+v", snap.CanvasSettings)
	}

	id := strings.TrimSpace(h.mustRun("add", doc, "button", "--x", "225", "--y", "300", "--text", "Go"))
	snap = h.open("promo.popup.json")
	if len(snap.Blocks) != 1 || snap.Blocks[0].ID != id {
		t.Fatalf("expected one block with id %q, got %+v", id, snap.Blocks)
	}
	b := snap.Blocks[0]
	if b.Position.X != 125 || b.Position.Y != 275 {
		t.Fatalf("expected button centered at 125,275, got %+v", b.Position)
	}
	if b.Content["label"] != "Go" {
		t.Fatalf("expected label content, got %v", b.Content)
	}

	h.mustRun("move", doc, id, "--x", "-40", "--y", "900")
	b = h.open("promo.popup.json").Blocks[0]
	if b.Position.X != 0 || b.Position.Y != 550 {
		t.Fatalf("expected clamped position 0,550, got %+v", b.Position)
	}

	if _, err := h.run("remove", doc, "nope"); !errors.Is(err, ErrNoBlock) {
		t.Fatalf("expected ErrNoBlock, got %v", err)
	}
	h.mustRun("remove", doc, id)
	if n := len(h.open("promo.popup.json").Blocks); n != 0 {
		t.Fatalf("expected empty document, got %d blocks", n)
	}
	if bks, _ := storage.Backups(doc); len(bks) == 0 {
		t.Fatalf("expected backups from repeated saves")
	}
}

func TestNewRefusesOverwrite(t *testing.T) {
	h := newHarness(t)
	doc := h.path("a.popup.json")
	h.mustRun("new", doc)
	if _, err := h.run("new", doc); err == nil {
		t.Fatalf("expected error for existing file")
	}
	h.mustRun("new", doc, "--force", "--mode", "banner")
	if m := h.open("a.popup.json").CanvasSettings.Mode; m != domain.ModeBanner {
		t.Fatalf("expected banner after --force, got %s", m)
	}
}

func TestNewFromTemplate(t *testing.T) {
	h := newHarness(t)
	doc := h.path("wheel.popup.json")
	h.mustRun("new", doc, "--template", "spin-to-win", "--width", "500")
	snap := h.open("wheel.popup.json")
	if len(snap.Blocks) == 0 || snap.CanvasSettings.Width != 500 {
		t.Fatalf("unexpected template document: %d blocks, width %g", len(snap.Blocks), snap.CanvasSettings.Width)
	}
	if _, err := h.run("new", h.path("x.popup.json"), "--template", "missing"); err == nil {
		t.Fatalf("expected unknown template error")
	}
	out := h.mustRun("info", doc)
	if !strings.Contains(out, "spin-wheel") {
		t.Fatalf("info should list the wheel block:\n%s", out)
	}
}

func TestResizeAndSet(t *testing.T) {
	h := newHarness(t)
	doc := h.path("r.popup.json")
	h.mustRun("new", doc)
	id := strings.TrimSpace(h.mustRun("add", doc, "text", "--x", "225", "--y", "300"))

	h.mustRun("resize", doc, id, "--handle", "br", "--dx", "-500", "--dy", "20")
	b := h.open("r.popup.json").Blocks[0]
	if b.Size.Width != 20 || b.Size.Height != 80 {
		t.Fatalf("expected 20x80 after resize, got %+v", b.Size)
	}
	if _, err := h.run("resize", doc, id, "--handle", "middle"); err == nil {
		t.Fatalf("expected error for unknown handle")
	}

	h.mustRun("set", doc, id, "--style", "color=#ff0000", "--style", "fontSize=20", "--content", "text=Hi")
	b = h.open("r.popup.json").Blocks[0]
	if b.Style["color"] != "#ff0000" || b.Style["fontSize"] != 20.0 || b.Style["textAlign"] != "center" {
		t.Fatalf("style not merged: %v", b.Style)
	}
	if b.Content["text"] != "Hi" {
		t.Fatalf("content not updated: %v", b.Content)
	}
	if _, err := h.run("set", doc, id, "--style", "broken"); err == nil {
		t.Fatalf("expected error for malformed pair")
	}
}

func TestCanvasArrangeGroup(t *testing.T) {
	h := newHarness(t)
	doc := h.path("g.popup.json")
	h.mustRun("new", doc)
	a := strings.TrimSpace(h.mustRun("add", doc, "text", "--x", "200", "--y", "100"))
	b := strings.TrimSpace(h.mustRun("add", doc, "button", "--x", "200", "--y", "300"))

	h.mustRun("canvas", doc, "--background", "#000000", "--trigger", "exit-intent")
	cv := h.open("g.popup.json").CanvasSettings
	if cv.Background != "#000000" || cv.Trigger.Type != "exit-intent" || cv.Trigger.Frequency != "once-per-session" {
		t.Fatalf("canvas not patched: %+v", cv)
	}
	if _, err := h.run("canvas", doc, "--mode", "sidebar"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}

	h.mustRun("arrange", doc, b, "--back")
	var za, zb int
	for _, blk := range h.open("g.popup.json").Blocks {
		switch blk.ID {
		case a:
			za = blk.ZIndex
		case b:
			zb = blk.ZIndex
		}
	}
	if zb >= za {
		t.Fatalf("expected %s below %s, got z %d vs %d", b, a, zb, za)
	}
	dup := strings.TrimSpace(h.mustRun("arrange", doc, a, "--duplicate"))
	if dup == "" || dup == a {
		t.Fatalf("expected a new id for the duplicate, got %q", dup)
	}

	gid := strings.TrimSpace(h.mustRun("group", doc, a, b))
	h.mustRun("group", doc, "--move", gid, "--dx", "10", "--dy", "-5")
	for _, blk := range h.open("g.popup.json").Blocks {
		if (blk.ID == a || blk.ID == b) && blk.GroupID != gid {
			t.Fatalf("block %s not in group %s", blk.ID, gid)
		}
		if blk.ID == dup && blk.GroupID != "" {
			t.Fatalf("duplicate should not be grouped")
		}
	}
	h.mustRun("group", doc, "--ungroup", gid)
	for _, blk := range h.open("g.popup.json").Blocks {
		if blk.GroupID != "" {
			t.Fatalf("expected no group tags after ungroup, got %+v", blk)
		}
	}
	if _, err := h.run("group", doc, "ghost"); !errors.Is(err, ErrNoBlock) {
		t.Fatalf("expected ErrNoBlock for unknown members, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	good := h.path("ok.popup.json")
	h.mustRun("new", good)
	bad := h.path("bad.popup.json")
	if err := os.WriteFile(bad, []byte(`{"canvasSettings":{"mode":"sidebar"},"blocks":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := h.run("validate", good, bad)
	if err == nil {
		t.Fatalf("expected failure for invalid document")
	}
	if !strings.Contains(out, "ok   "+good) || !strings.Contains(out, "FAIL "+bad) {
		t.Fatalf("unexpected validate output:\n%s", out)
	}
}

func TestPreviewWritesFiles(t *testing.T) {
	h := newHarness(t)
	doc := h.path("p.popup.json")
	h.mustRun("new", doc, "--template", "newsletter-banner")
	png, pdf, svg := h.path("out/p.png"), h.path("out/p.pdf"), h.path("out/p.svg")
	h.mustRun("preview", doc, "--png", png, "--pdf", pdf, "--svg", svg, "--scale", "0.5")
	for _, p := range []string{png, pdf, svg} {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("expected non-empty %s: %v", p, err)
		}
	}
	h.mustRun("preview", doc)
	if _, err := os.Stat(h.path("p.png")); err != nil {
		t.Fatalf("expected default PNG next to document: %v", err)
	}
}

func TestLibraryTemplates(t *testing.T) {
	h := newHarness(t)
	doc := h.path("src.popup.json")
	h.mustRun("new", doc, "--template", "countdown-sale")
	h.mustRun("library", "save", "black-friday", doc)

	out := h.mustRun("library", "list")
	if !strings.Contains(out, "black-friday") {
		t.Fatalf("list should show saved template:\n%s", out)
	}
	copyPath := h.path("copy.popup.json")
	h.mustRun("library", "load", "black-friday", copyPath)
	if got, want := len(h.open("copy.popup.json").Blocks), len(h.open("src.popup.json").Blocks); got != want {
		t.Fatalf("loaded %d blocks, want %d", got, want)
	}
	h.mustRun("library", "delete", "black-friday")
	if _, err := h.run("library", "delete", "black-friday"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLibraryAutosaveRestore(t *testing.T) {
	h := newHarness(t)
	doc := h.path("auto.popup.json")
	h.mustRun("new", doc)
	h.mustRun("add", doc, "text", "--x", "100", "--y", "100")
	h.mustRun("library", "autosave", doc)

	h.mustRun("add", doc, "button", "--x", "200", "--y", "300")
	if n := len(h.open("auto.popup.json").Blocks); n != 2 {
		t.Fatalf("expected 2 blocks before restore, got %d", n)
	}
	h.mustRun("library", "restore", doc)
	if n := len(h.open("auto.popup.json").Blocks); n != 1 {
		t.Fatalf("expected autosaved state with 1 block, got %d", n)
	}
	if _, err := h.run("library", "restore", h.path("never.popup.json")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a document without autosaves, got %v", err)
	}
}

func TestParseValue(t *testing.T) {
	if v := parseValue("12.5"); v != 12.5 {
		t.Fatalf("number: %v", v)
	}
	if v := parseValue("true"); v != true {
		t.Fatalf("bool: %v", v)
	}
	if v := parseValue("#fff"); v != "#fff" {
		t.Fatalf("string: %v", v)
	}
	if m, err := parsePairs(nil); err != nil || m != nil {
		t.Fatalf("empty pairs: %v %v", m, err)
	}
}

func TestPackRoundTrip(t *testing.T) {
	h := newHarness(t)
	doc := h.path("sale.popup.json")
	h.mustRun("new", doc, "--template", "countdown-sale")
	zipPath := h.path("sale.zip")
	h.mustRun("pack", "export", zipPath, doc)

	dst := h.path("installed")
	h.mustRun("pack", "install", zipPath, "--dir", dst)
	if _, err := storage.Open(filepath.Join(dst, "sale.popup.json")); err != nil {
		t.Fatalf("expected installed document: %v", err)
	}
	h.mustRun("pack", "install", zipPath, "--library")
	if out := h.mustRun("library", "list"); !strings.Contains(out, "sale") {
		t.Fatalf("expected template sale in library:\n%s", out)
	}
}
