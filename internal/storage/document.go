/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"popupstudio/internal/domain"
	applog "popupstudio/internal/log"
)

const (
	// DocumentExt is the conventional extension of document files.
	DocumentExt    = ".popup.json"
	BackupsDirName = "backups"

	backupStamp = "20060102-150405.000000"
)

// ErrNotFound is returned when a document, template or autosave does not exist.
var ErrNotFound = errors.New("not found")

// Save writes snap to path with transactional semantics. An existing file is first
// copied to <dir>/backups/<name>.<timestamp>.bak.
func Save(path string, snap domain.Snapshot) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("document path is required")
	}
	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format(backupStamp))
		if cerr := copyFile(path, filepath.Join(dir, BackupsDirName, bname)); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	if rerr := replaceFile(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// removeBeforeRename is set where rename cannot replace an existing file.
var removeBeforeRename = runtime.GOOS == "windows"

// replaceFile moves temp over path. Elsewhere than Windows the rename is atomic and
// path never goes missing.
func replaceFile(temp, path string) error {
	if removeBeforeRename {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	return os.Rename(temp, path)
}

// Open reads and validates the document at path. When the file is missing or does
// not validate, the newest backup is used instead.
func Open(path string) (domain.Snapshot, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	snap, err := readDocument(path)
	if err == nil {
		return snap, nil
	}
	bsnap, berr := openFromLatestBackup(path)
	if berr != nil {
		if errors.Is(err, os.ErrNotExist) && errors.Is(berr, ErrNotFound) {
			return domain.Snapshot{}, fmt.Errorf("open document: %w", ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
	}
	l.Warn("document unreadable, recovered from backup", slog.Any("err", err))
	return bsnap, nil
}

// Marshal encodes snap in the on-disk form: indented JSON with a trailing newline.
// A nil block list is written as an empty array.
func Marshal(snap domain.Snapshot) ([]byte, error) {
	if snap.Blocks == nil {
		snap.Blocks = []domain.BlockInstance{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal validates data against the document schema and decodes it.
func Unmarshal(data []byte) (domain.Snapshot, error) {
	if err := Validate(data); err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("parse document: %w", err)
	}
	return snap, nil
}

func readDocument(path string) (domain.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return Unmarshal(b)
}

// Backups lists the backups of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func openFromLatestBackup(path string) (domain.Snapshot, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(candidates) == 0 {
		return domain.Snapshot{}, ErrNotFound
	}
	latest := candidates[len(candidates)-1]
	snap, err := readDocument(latest)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read latest backup: %w", err)
	}
	return snap, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
