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
	"strings"
	"time"

	"thumbstudio/internal/layout"
)

// LayoutInfo is a listing entry for a named layout.
type LayoutInfo struct {
	Name      string    `json:"name"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveLayout stores doc under name, replacing any previous version.
func (s *Store) SaveLayout(ctx context.Context, name string, doc layout.Document) error {
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
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `INSERT INTO layouts(name, body, elements, updated_at) VALUES(?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET body=excluded.body, elements=excluded.elements, updated_at=excluded.updated_at`,
		name, string(body), len(doc.Elements), now)
	if err != nil {
		return fmt.Errorf("upsert layout: %w", err)
	}
	s.log.Debug("layout stored", "name", name, "elements", len(doc.Elements))
	return nil
}

// LoadLayout returns the layout stored under name, or ErrNotFound.
func (s *Store) LoadLayout(ctx context.Context, name string) (layout.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM layouts WHERE name=?`, strings.TrimSpace(name)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return layout.Document{}, fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return layout.Document{}, fmt.Errorf("query layout: %w", err)
	}
	return layout.ParseDocument([]byte(body))
}

// ListLayouts returns stored layouts, most recently updated first.
func (s *Store) ListLayouts(ctx context.Context) ([]LayoutInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, elements, updated_at FROM layouts ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()
	var out []LayoutInfo
	for rows.Next() {
		var li LayoutInfo
		var ts string
		if err := rows.Scan(&li.Name, &li.Elements, &ts); err != nil {
			return nil, err
		}
		li.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, li)
	}
	return out, rows.Err()
}

// DeleteLayout removes a named layout. Deleting a missing layout returns ErrNotFound.
func (s *Store) DeleteLayout(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE name=?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("layout %q: %w", name, ErrNotFound)
	}
	return nil
}
