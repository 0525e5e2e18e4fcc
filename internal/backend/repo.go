/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"thumbstudio/internal/layout"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repo keeps named layouts and style overrides in Postgres for shared deployments.
type Repo struct {
	db *sql.DB
}

// OpenRepo connects to dsn, checks the connection and applies pending migrations.
func OpenRepo(ctx context.Context, dsn string) (*Repo, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// Ping reports database readiness.
func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("backend"), "migrate")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(,)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		l.Info("migration applied", "file", fname)
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (r *Repo) SaveLayout(ctx context.Context, name string, doc layout.Document) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("layout name is required")
	}
	if doc.Elements == nil {
		doc.Elements = []layout.Element{}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO layouts(name, body, elements, updated_at) VALUES(,,,now())
		ON CONFLICT(name) DO UPDATE SET body=excluded.body, elements=excluded.elements, updated_at=now()`,
		name, string(body), len(doc.Elements))
	if err != nil {
		return fmt.Errorf("upsert layout: %w", err)
	}
	return nil
}

func (r *Repo) LoadLayout(ctx context.Context, name string) (layout.Document, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body::text FROM layouts WHERE name=`, strings.TrimSpace(name)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return layout.Document{}, fmt.Errorf("layout %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return layout.Document{}, fmt.Errorf("query layout: %w", err)
	}
	return layout.ParseDocument([]byte(body))
}

func (r *Repo) ListLayouts(ctx context.Context) ([]storage.LayoutInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, elements, updated_at FROM layouts ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()
	var out []storage.LayoutInfo
	for rows.Next() {
		var li storage.LayoutInfo
		if err := rows.Scan(&li.Name, &li.Elements, &li.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteLayout(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM layouts WHERE name=`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("layout %q: %w", name, storage.ErrNotFound)
	}
	return nil
}

func (r *Repo) LoadOverrides(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, prompt FROM style_overrides`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var name, prompt string
		if err := rows.Scan(&name, &prompt); err != nil {
			return nil, err
		}
		out[name] = prompt
	}
	return out, rows.Err()
}

func (r *Repo) SaveOverride(ctx context.Context, name, prompt string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO style_overrides(name, prompt, updated_at) VALUES(,,now())
		ON CONFLICT(name) DO UPDATE SET prompt=excluded.prompt, updated_at=now()`, name, prompt)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

func (r *Repo) DeleteOverride(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM style_overrides WHERE name=`, name); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}
