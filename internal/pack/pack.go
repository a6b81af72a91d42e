/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pack bundles popup documents into a zip archive for sharing and installs
// such archives into a directory or the template library.
package pack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"popupstudio/internal/domain"
	applog "popupstudio/internal/log"
	"popupstudio/internal/storage"
	"popupstudio/internal/version"
)

// ManifestName is the plain-text manifest at the archive root.
const ManifestName = "popupstudio.manifest.txt"

// maxEntrySize bounds a single document read from an archive.
const maxEntrySize = 8 << 20

// Entry is one document found in a pack.
type Entry struct {
	// Name is the document base name without the .popup.json extension.
	Name     string
	Snapshot domain.Snapshot
}

// TemplateSaver stores named templates; *storage.Library implements it.
type TemplateSaver interface {
	SaveTemplate(ctx context.Context, name string, snap domain.Snapshot) error
}

// Export writes the documents at docs into a new zip at dest. Every document is
// validated first; nothing is written when one of them is invalid.
func Export(dest string, docs []string) error {
	l := applog.WithOperation(applog.WithComponent("pack"), "export").With(slog.String("zip", dest))
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination is required")
	}
	if len(docs) == 0 {
		return errors.New("no documents to pack")
	}
	type item struct {
		name string
		data []byte
	}
	items := make([]item, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, p := range docs {
		snap, err := storage.Open(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		data, err := storage.Marshal(snap)
		if err != nil {
			return err
		}
		name := entryName(p)
		if seen[name] {
			return fmt.Errorf("duplicate document name %q", name)
		}
		seen[name] = true
		items = append(items, item{name: name, data: data})
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	zf, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	var manifest strings.Builder
	fmt.Fprintf(&manifest, "popupstudio template pack\nCreated: %s\nVersion: %s\n\n", time.Now().Format(time.RFC3339), version.String())
	for _, it := range items {
		fmt.Fprintf(&manifest, "%s\n", it.name)
	}
	if err := writeEntry(zw, ManifestName, []byte(manifest.String())); err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	for _, it := range items {
		if err := writeEntry(zw, it.name, it.data); err != nil {
			return fmt.Errorf("add %s: %w", it.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("pack exported", slog.Int("documents", len(items)))
	return nil
}

func entryName(p string) string {
	base := filepath.Base(p)
	if !strings.HasSuffix(base, storage.DocumentExt) {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + storage.DocumentExt
	}
	return base
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read returns the valid documents of the pack at zipPath sorted by name.
// Entries outside the archive root, non-document files and invalid documents are
// skipped with a warning.
func Read(zipPath string) ([]Entry, error) {
	l := applog.WithOperation(applog.WithComponent("pack"), "read").With(slog.String("zip", zipPath))
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	var out []Entry
	for _, f := range r.File {
		name := f.Name
		if f.FileInfo().IsDir() || name == ManifestName {
			continue
		}
		if path.Base(name) != name || !strings.HasSuffix(name, storage.DocumentExt) {
			l.Warn("skip entry", slog.String("entry", name))
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		snap, err := storage.Unmarshal(data)
		if err != nil {
			l.Warn("skip invalid document", slog.String("entry", name), slog.Any("err", err))
			continue
		}
		out = append(out, Entry{Name: strings.TrimSuffix(name, storage.DocumentExt), Snapshot: snap})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("entry larger than %d bytes", maxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
}

// Install extracts the documents of the pack into dir. Existing files are not
// overwritten. It returns the number of documents written.
func Install(zipPath, dir string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("pack"), "install").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("target directory is required")
	}
	entries, err := Read(zipPath)
	if err != nil {
		return 0, err
	}
	installed := 0
	for _, e := range entries {
		target := filepath.Join(dir, e.Name+storage.DocumentExt)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := storage.Save(target, e.Snapshot); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("pack installed", slog.Int("documents", installed))
	return installed, nil
}

// InstallTemplates saves every document of the pack as a library template named
// after the document, replacing templates of the same name.
func InstallTemplates(ctx context.Context, zipPath string, lib TemplateSaver) (int, error) {
	entries, err := Read(zipPath)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := lib.SaveTemplate(ctx, e.Name, e.Snapshot); err != nil {
			return i, err
		}
	}
	applog.WithComponent("pack").Info("pack templates installed", slog.Int("templates", len(entries)))
	return len(entries), nil
}
