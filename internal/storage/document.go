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
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"thumbstudio/internal/layout"
)

const (
	LayoutFileName = "layout.json"
	BackupsDirName = "backups"
)

// SaveDocument writes doc to dir/layout.json transactionally, keeping a timestamped
// backup of the previous file under dir/backups.
func SaveDocument(dir string, doc layout.Document) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("layout directory is required")
	}
	if doc.Elements == nil {
		doc.Elements = []layout.Element{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	path := filepath.Join(dir, LayoutFileName)
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", LayoutFileName, stamp))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current layout: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", LayoutFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp layout: %w", werr)
	}
	// Windows will not rename over an existing file
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", rerr)
	}
	return nil
}

// OpenDocument loads dir/layout.json. When the file is missing or invalid,
// the newest backup is used instead.
func OpenDocument(dir string) (layout.Document, error) {
	data, err := os.ReadFile(filepath.Join(dir, LayoutFileName))
	if err != nil {
		doc, berr := openFromLatestBackup(dir)
		if berr != nil {
			if errors.Is(err, os.ErrNotExist) {
				return layout.Document{}, fmt.Errorf("%w: %s", ErrNotFound, dir)
			}
			return layout.Document{}, fmt.Errorf("open layout: %w; backup attempt: %v", err, berr)
		}
		return doc, nil
	}
	doc, perr := layout.ParseDocument(data)
	if perr != nil {
		bdoc, berr := openFromLatestBackup(dir)
		if berr != nil {
			return layout.Document{}, fmt.Errorf("parse layout: %w; backup attempt: %v", perr, berr)
		}
		return bdoc, nil
	}
	return doc, nil
}

func openFromLatestBackup(dir string) (layout.Document, error) {
	bdir := filepath.Join(dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return layout.Document{}, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, LayoutFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return layout.Document{}, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return layout.Document{}, fmt.Errorf("read latest backup: %w", err)
	}
	doc, err := layout.ParseDocument(b)
	if err != nil {
		return layout.Document{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return doc, nil
}

// writeFileSync writes data to a file and flushes it to disk.
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
