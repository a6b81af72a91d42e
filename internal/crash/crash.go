/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an emergency copy of the
// open document.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "popupstudio/internal/log"
	"popupstudio/internal/storage"
	"popupstudio/internal/telemetry"
	"popupstudio/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Autosaver is the in-memory document; *editor.Store implements it.
type Autosaver interface {
	ExportJSON() ([]byte, error)
}

// Recover captures a panic, logs it with its stack, writes a crash report and
// saves doc (when non-nil) next to the document at path. With an empty path both
// files go to the temp dir.
//
// Usage: defer crash.Recover(path, store)
func Recover(path string, doc Autosaver) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := reportDir(path)
	reportPath, report, err := writeReport(dir, path, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if doc != nil {
		if p, err := autosave(dir, path, doc); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", p))
		}
	}
	telemetry.Default().UploadCrash(report)

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func reportDir(docPath string) string {
	if docPath == "" {
		return os.TempDir()
	}
	return filepath.Join(filepath.Dir(docPath), storage.BackupsDirName)
}

func writeReport(dir, docPath string, panicVal any, stack []byte) (string, []byte, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "popupstudio crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if docPath != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", docPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, buf.Bytes(), err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, buf.Bytes(), err
	}
	return path, buf.Bytes(), nil
}

// autosave writes doc as <name>.crash-<timestamp>.json; Open never picks these up
// as backups, so a crash copy cannot silently replace the user's file.
func autosave(dir, docPath string, doc Autosaver) (string, error) {
	data, err := doc.ExportJSON()
	if err != nil {
		return "", fmt.Errorf("export document: %w", err)
	}
	name := "untitled"
	if docPath != "" {
		name = filepath.Base(docPath)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", name, time.Now().Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
