/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"popupstudio/internal/domain"
	applog "popupstudio/internal/log"
	"popupstudio/internal/version"

	// Postgres driver registered as "pgx" for database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a library database.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// tsLayout is fixed-width so stored timestamps sort lexicographically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// schemaVersion tracks the library schema. Bump it together with a new step in
// runMigrations.
const schemaVersion = 2

// TemplateInfo summarizes a stored template without decoding its body.
type TemplateInfo struct {
	Name      string
	Mode      domain.Mode
	Blocks    int
	UpdatedAt time.Time
}

// Autosave is one stored autosave of a document.
type Autosave struct {
	Doc      string
	TS       time.Time
	Snapshot domain.Snapshot
}

// Library stores named templates and document autosaves.
type Library struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// OpenSQLite opens or creates the library database file at path, enables WAL mode
// and brings the schema up to date.
func OpenSQLite(path string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Embedded usage; one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	lib := &Library{db: db, dialect: SQLite, log: l}
	if err := lib.init(ctx); err != nil {
		_ = db.Close()
		l.Error("library init failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("library ready")
	return lib, nil
}

// OpenPostgres connects to a shared library in Postgres.
func OpenPostgres(ctx context.Context, dsn string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "library_open").With(slog.String("dialect", "postgres"))
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	lib := &Library{db: db, dialect: Postgres, log: l}
	if err := lib.init(ctx); err != nil {
		_ = db.Close()
		l.Error("library init failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("library ready")
	return lib, nil
}

// Dialect reports which database backs the library.
func (l *Library) Dialect() Dialect { return l.dialect }

// Close releases the database.
func (l *Library) Close() error { return l.db.Close() }

// SchemaVersion returns the schema version recorded in the database.
func (l *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := l.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// rebind rewrites ? placeholders into $1, $2, ... for Postgres.
func (l *Library) rebind(q string) string {
	if l.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (l *Library) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return l.db.ExecContext(ctx, l.rebind(q), args...)
}

func (l *Library) init(ctx context.Context) error {
	if err := l.ensureMetaAndVersion(ctx); err != nil {
		return err
	}
	if err := l.ensureSchema(ctx); err != nil {
		return err
	}
	return l.runMigrations(ctx)
}

func (l *Library) ensureMetaAndVersion(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := l.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := l.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := l.exec(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema so migrations can run.
		if _, err := l.exec(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func (l *Library) ensureSchema(ctx context.Context) error {
	autoID := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if l.dialect == Postgres {
		autoID = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			name        TEXT PRIMARY KEY,
			mode        TEXT NOT NULL,
			blocks      INTEGER NOT NULL,
			body        TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS autosaves (
			id    ` + autoID + `,
			doc   TEXT NOT NULL,
			ts    TEXT NOT NULL,
			body  TEXT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := l.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create library schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (l *Library) runMigrations(ctx context.Context) error {
	cur, err := l.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if cur > schemaVersion {
		l.log.Warn("library schema is newer than this build", slog.Int("schema", cur))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_autosaves_doc_ts ON autosaves(doc, ts)`}
		}
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, l.rebind(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		l.log.Info("library migrated", slog.Int("schema", next))
		cur = next
	}
	return nil
}

// SaveTemplate stores snap under name, replacing any template of that name.
func (l *Library) SaveTemplate(ctx context.Context, name string, snap domain.Snapshot) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("template name is required")
	}
	body, err := Marshal(snap)
	if err != nil {
		return err
	}
	if err := Validate(body); err != nil {
		return err
	}
	// language=SQL
	const q = `INSERT INTO templates(name, mode, blocks, body, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET mode=excluded.mode, blocks=excluded.blocks, body=excluded.body, updated_at=excluded.updated_at`
	if _, err := l.exec(ctx, q, name, string(snap.CanvasSettings.Mode), len(snap.Blocks), string(body), time.Now().UTC().Format(tsLayout)); err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}
	l.log.Debug("template saved", slog.String("name", name), slog.Int("blocks", len(snap.Blocks)))
	return nil
}

// GetTemplate loads the template called name.
func (l *Library) GetTemplate(ctx context.Context, name string) (domain.Snapshot, error) {
	var body string
	err := l.db.QueryRowContext(ctx, l.rebind(`SELECT body FROM templates WHERE name = ?`), name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load template %q: %w", name, err)
	}
	return Unmarshal([]byte(body))
}

// ListTemplates returns all templates ordered by name.
func (l *Library) ListTemplates(ctx context.Context) ([]TemplateInfo, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT name, mode, blocks, updated_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []TemplateInfo
	for rows.Next() {
		var (
			ti   TemplateInfo
			mode string
			ts   string
		)
		if err := rows.Scan(&ti.Name, &mode, &ti.Blocks, &ts); err != nil {
			return nil, err
		}
		ti.Mode = domain.Mode(mode)
		ti.UpdatedAt, _ = time.Parse(tsLayout, ts)
		out = append(out, ti)
	}
	return out, rows.Err()
}

// DeleteTemplate removes the template called name.
func (l *Library) DeleteTemplate(ctx context.Context, name string) error {
	res, err := l.exec(ctx, `DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

// SaveAutosave records snap as an autosave of the document doc taken at ts.
func (l *Library) SaveAutosave(ctx context.Context, doc string, snap domain.Snapshot, ts time.Time) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal autosave: %w", err)
	}
	if _, err := l.exec(ctx, `INSERT INTO autosaves(doc, ts, body) VALUES (?, ?, ?)`, doc, ts.UTC().Format(tsLayout), string(body)); err != nil {
		return fmt.Errorf("save autosave: %w", err)
	}
	return nil
}

// LatestAutosave returns the newest autosave of doc.
func (l *Library) LatestAutosave(ctx context.Context, doc string) (Autosave, error) {
	var ts, body string
	err := l.db.QueryRowContext(ctx, l.rebind(`SELECT ts, body FROM autosaves WHERE doc = ? ORDER BY ts DESC, id DESC LIMIT 1`), doc).Scan(&ts, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Autosave{}, fmt.Errorf("autosave of %q: %w", doc, ErrNotFound)
	}
	if err != nil {
		return Autosave{}, fmt.Errorf("load autosave: %w", err)
	}
	a := Autosave{Doc: doc}
	if err := json.Unmarshal([]byte(body), &a.Snapshot); err != nil {
		return Autosave{}, fmt.Errorf("parse autosave: %w", err)
	}
	a.TS, _ = time.Parse(tsLayout, ts)
	return a, nil
}

// PruneAutosaves keeps the newest keep autosaves of doc and deletes the rest. It
// returns the number of rows removed.
func (l *Library) PruneAutosaves(ctx context.Context, doc string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	// language=SQL
	const q = `DELETE FROM autosaves WHERE doc = ? AND id NOT IN (
		SELECT id FROM autosaves WHERE doc = ? ORDER BY ts DESC, id DESC LIMIT ?
	)`
	res, err := l.exec(ctx, q, doc, doc, keep)
	if err != nil {
		return 0, fmt.Errorf("prune autosaves: %w", err)
	}
	return res.RowsAffected()
}
