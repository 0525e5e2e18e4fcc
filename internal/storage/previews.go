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
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"thumbstudio/internal/layout"
)

// EnvPreviewsMaxBytes caps the preview cache size.
const EnvPreviewsMaxBytes = "TS_PREVIEWS_MAX_BYTES"

// PreviewKey derives a content key for a rendered layout.
func PreviewKey(doc layout.Document) string {
	body, _ := json.Marshal(doc)
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// GetPreview returns the cached blob for key at w x h and touches last_access.
// A cache miss returns nil, nil.
func (s *Store) GetPreview(ctx context.Context, key string, w, h int) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM previews WHERE key=? AND w=? AND h=?`, key, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, _ = s.db.ExecContext(ctx, `UPDATE previews SET last_access=? WHERE key=? AND w=? AND h=?`, now, key, w, h)
	return blob, nil
}

// PutPreview upserts a preview blob and enforces the cache size cap via LRU eviction.
func (s *Store) PutPreview(ctx context.Context, key string, w, h int, blob []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `INSERT INTO previews(key,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(key,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		key, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	if capBytes := MaxPreviewsBytesFromEnv(); capBytes > 0 {
		return s.EvictPreviewsToFit(ctx, capBytes)
	}
	return nil
}

// GetOrCreatePreview fetches a preview or renders and stores it with gen.
func (s *Store) GetOrCreatePreview(ctx context.Context, key string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := s.GetPreview(ctx, key, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.PutPreview(ctx, key, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// EvictPreviewsToFit deletes least-recently-used rows until the total size is at most capBytes.
func (s *Store) EvictPreviewsToFit(ctx context.Context, capBytes int64) error {
	total, err := s.TotalPreviewBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// the single connection must be free before writing
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM previews WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(victims)), ",") + `)`
	if _, err := s.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	s.log.Debug("previews evicted", "rows", len(victims), "capBytes", capBytes)
	return nil
}

// TotalPreviewBytes returns the total bytes tracked by the preview cache.
func (s *Store) TotalPreviewBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum previews size: %w", err)
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads TS_PREVIEWS_MAX_BYTES, defaulting to 64MB.
func MaxPreviewsBytesFromEnv() int64 {
	const def = 64 * 1024 * 1024
	v := os.Getenv(EnvPreviewsMaxBytes)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
