/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pack

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
	"popupstudio/internal/storage"
)

func writeDoc(t *testing.T, path string, texts ...string) {
	t.Helper()
	snap := domain.Snapshot{CanvasSettings: domain.DefaultCanvas()}
	for i, txt := range texts {
		snap.Blocks = append(snap.Blocks, domain.BlockInstance{
			ID:       "b" + string(rune('1'+i)),
			Type:     "text",
			Content:  domain.Content{"text": txt},
			Style:    domain.Style{},
			Position: geometry.Point{X: 10, Y: float64(10 + 70*i)},
			Size:     geometry.Size{Width: 300, Height: 60},
			ZIndex:   i + 1,
		})
	}
	if err := storage.Save(path, snap); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func TestExportReadInstall(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "welcome.popup.json")
	b := filepath.Join(src, "exit.popup.json")
	writeDoc(t, a, "Hello")
	writeDoc(t, b, "Wait", "Ten percent off")

	zipPath := filepath.Join(src, "out", "promo.zip")
	if err := Export(zipPath, []string{a, b}); err != nil {
		t.Fatalf("export: %v", err)
	}
	entries, err := Read(zipPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "exit" || entries[1].Name != "welcome" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if len(entries[0].Snapshot.Blocks) != 2 {
		t.Fatalf("expected 2 blocks in exit, got %d", len(entries[0].Snapshot.Blocks))
	}

	dst := t.TempDir()
	writeDoc(t, filepath.Join(dst, "welcome.popup.json"), "Mine")
	n, err := Install(zipPath, dst)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 installed (existing skipped), got %d", n)
	}
	kept, err := storage.Open(filepath.Join(dst, "welcome.popup.json"))
	if err != nil || kept.Blocks[0].Content["text"] != "Mine" {
		t.Fatalf("existing document must not be overwritten: %v %+v", err, kept.Blocks)
	}
	if _, err := os.Stat(filepath.Join(dst, "exit.popup.json")); err != nil {
		t.Fatalf("expected exit document installed: %v", err)
	}
}

func TestExportRejectsInvalidAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.popup.json")
	if err := os.WriteFile(bad, []byte(`{"blocks":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	zipPath := filepath.Join(dir, "x.zip")
	if err := Export(zipPath, []string{bad}); err == nil {
		t.Fatalf("expected error for invalid document")
	}
	if _, err := os.Stat(zipPath); err == nil {
		t.Fatalf("zip must not be created when a document is invalid")
	}

	a := filepath.Join(dir, "one", "same.popup.json")
	b := filepath.Join(dir, "two", "same.popup.json")
	writeDoc(t, a)
	writeDoc(t, b)
	if err := Export(zipPath, []string{a, b}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if err := Export(zipPath, nil); err == nil {
		t.Fatalf("expected error for empty document list")
	}
}

func TestReadSkipsForeignEntries(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.popup.json")
	writeDoc(t, good, "ok")
	data, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "mixed.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	for name, body := range map[string][]byte{
		"good.popup.json":        data,
		"nested/deep.popup.json": data,
		"notes.txt":              []byte("hi"),
		"broken.popup.json":      []byte(`{"canvasSettings":{}}`),
		ManifestName:             []byte("manifest"),
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = zf.Close()

	entries, err := Read(zipPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "good" {
		t.Fatalf("expected only the good document, got %+v", entries)
	}
}

type memSaver map[string]domain.Snapshot

func (m memSaver) SaveTemplate(_ context.Context, name string, snap domain.Snapshot) error {
	m[name] = snap
	return nil
}

func TestInstallTemplates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "spring.popup.json")
	writeDoc(t, a, "Spring sale")
	zipPath := filepath.Join(dir, "p.zip")
	if err := Export(zipPath, []string{a}); err != nil {
		t.Fatalf("export: %v", err)
	}
	saver := memSaver{}
	n, err := InstallTemplates(context.Background(), zipPath, saver)
	if err != nil || n != 1 {
		t.Fatalf("install templates: n=%d err=%v", n, err)
	}
	if _, ok := saver["spring"]; !ok {
		t.Fatalf("expected template spring, got %v", saver)
	}
}
