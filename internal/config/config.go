/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"popupstudio/internal/domain"
	applog "popupstudio/internal/log"
	"popupstudio/internal/undo"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type HistoryConfig struct {
	// MaxEntries caps undo depth; 0 keeps everything.
	MaxEntries int `yaml:"max_entries"`
	// ResizeCoalesceMs merges consecutive resizes of one block made within the window
	// into a single undo step. 0 keeps one step per resize call.
	ResizeCoalesceMs int `yaml:"resize_coalesce_ms"`
}

type EditorConfig struct {
	History       HistoryConfig `yaml:"history"`
	SnapThreshold float64       `yaml:"snap_threshold"`
}

type CanvasConfig struct {
	Mode       string  `yaml:"mode"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
}

type StorageConfig struct {
	// LibraryPath is the SQLite template library; empty means <config dir>/library.sqlite.
	LibraryPath string `yaml:"library_path"`
	// PostgresDSN, when set, selects a shared Postgres library instead of SQLite.
	PostgresDSN  string `yaml:"postgres_dsn"`
	AutosaveKeep int    `yaml:"autosave_keep"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{History: HistoryConfig{MaxEntries: 200}, SnapThreshold: 6},
		Canvas:        CanvasConfig{Mode: string(domain.ModePopup)},
		Storage:       StorageConfig{AutosaveKeep: 20},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvHistoryMax       = "PST_HISTORY_MAX"
	EnvResizeCoalesceMs = "PST_RESIZE_COALESCE_MS"
	EnvCanvasMode       = "PST_CANVAS_MODE"
	EnvCanvasWidth      = "PST_CANVAS_WIDTH"
	EnvCanvasHeight     = "PST_CANVAS_HEIGHT"
	EnvLibraryPath      = "PST_LIBRARY_PATH"
	EnvPostgresDSN      = "PST_PG_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PST_LOG_LEVEL"
	EnvLogFormat = "PST_LOG_FORMAT"
	EnvLogSource = "PST_LOG_SOURCE"
	EnvLogFile   = "PST_LOG_FILE"
)

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PopupStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PopupStudio")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "popupstudio")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "popupstudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path (ConfigPath when empty), applies defaults and
// merges environment overrides. A missing file is not an error; an unreadable or
// malformed one is logged and ignored so the editor still starts.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr != nil {
			applog.WithComponent("config").Warn("ignoring malformed config", slog.String("path", path), slog.Any("err", uerr))
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case !errors.Is(err, os.ErrNotExist):
		applog.WithComponent("config").Warn("cannot read config", slog.String("path", path), slog.Any("err", err))
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg as YAML to path (ConfigPath when empty).
func Save(path string, cfg AppConfig) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.History.MaxEntries != 0 {
		dst.Editor.History.MaxEntries = src.Editor.History.MaxEntries
	}
	if src.Editor.History.ResizeCoalesceMs != 0 {
		dst.Editor.History.ResizeCoalesceMs = src.Editor.History.ResizeCoalesceMs
	}
	if src.Editor.SnapThreshold != 0 {
		dst.Editor.SnapThreshold = src.Editor.SnapThreshold
	}
	if m := strings.ToLower(strings.TrimSpace(src.Canvas.Mode)); m != "" {
		dst.Canvas.Mode = m
	}
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if strings.TrimSpace(src.Canvas.Background) != "" {
		dst.Canvas.Background = strings.TrimSpace(src.Canvas.Background)
	}
	if strings.TrimSpace(src.Storage.LibraryPath) != "" {
		dst.Storage.LibraryPath = strings.TrimSpace(src.Storage.LibraryPath)
	}
	if strings.TrimSpace(src.Storage.PostgresDSN) != "" {
		dst.Storage.PostgresDSN = strings.TrimSpace(src.Storage.PostgresDSN)
	}
	if src.Storage.AutosaveKeep != 0 {
		dst.Storage.AutosaveKeep = src.Storage.AutosaveKeep
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	envInt(EnvHistoryMax, &cfg.Editor.History.MaxEntries)
	envInt(EnvResizeCoalesceMs, &cfg.Editor.History.ResizeCoalesceMs)
	if v := strings.TrimSpace(os.Getenv(EnvCanvasMode)); v != "" {
		cfg.Canvas.Mode = strings.ToLower(v)
	}
	envFloat(EnvCanvasWidth, &cfg.Canvas.Width)
	envFloat(EnvCanvasHeight, &cfg.Canvas.Height)
	if v := strings.TrimSpace(os.Getenv(EnvLibraryPath)); v != "" {
		cfg.Storage.LibraryPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"editor.history.max_entries":        EnvHistoryMax,
	"editor.history.resize_coalesce_ms": EnvResizeCoalesceMs,
	"canvas.mode":                       EnvCanvasMode,
	"canvas.width":                      EnvCanvasWidth,
	"canvas.height":                     EnvCanvasHeight,
	"storage.library_path":              EnvLibraryPath,
	"storage.postgres_dsn":              EnvPostgresDSN,
	"logging.level":                     EnvLogLevel,
	"logging.format":                    EnvLogFormat,
	"logging.source":                    EnvLogSource,
	"logging.file":                      EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// ResizeCoalesceWindow returns the resize coalescing window as a duration.
func (h HistoryConfig) ResizeCoalesceWindow() time.Duration {
	if h.ResizeCoalesceMs <= 0 {
		return 0
	}
	return time.Duration(h.ResizeCoalesceMs) * time.Millisecond
}

// UndoConfig converts the history section for editor.Config.
func (h HistoryConfig) UndoConfig() undo.Config {
	return undo.Config{MaxEntries: h.MaxEntries, CoalesceWindow: h.ResizeCoalesceWindow()}
}

// LibraryFile returns the SQLite library path, defaulting to <config dir>/library.sqlite.
func (s StorageConfig) LibraryFile() (string, error) {
	if strings.TrimSpace(s.LibraryPath) != "" {
		return s.LibraryPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library.sqlite"), nil
}

// Settings returns the canvas a new document starts with.
func (c CanvasConfig) Settings() domain.CanvasSettings {
	base := domain.DefaultCanvas()
	if domain.Mode(c.Mode) == domain.ModeBanner {
		base = domain.DefaultBanner()
	}
	if c.Width > 0 {
		base.Width = c.Width
	}
	if c.Height > 0 {
		base.Height = c.Height
	}
	if c.Background != "" {
		base.Background = c.Background
	}
	return base
}

// LoggingOptions converts the logging section for log.Init.
func (l LoggingConfig) LoggingOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
