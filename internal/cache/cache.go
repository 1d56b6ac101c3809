// Package cache stores exported documents on disk. Each document occupies
// two files keyed by its ID: the Markdown body (<id>.md) and a JSON sidecar
// (<id>.meta.json) recording the remote modification timestamp the body was
// exported at. The sidecar is the freshness authority: when its recorded
// timestamp matches the remote one, the body can be served without a new
// export.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File and directory permissions for cache contents. Cached documents are
// not secrets; group/world read is fine.
const (
	filePerms = 0o644
	dirPerms  = 0o755
)

// Record is the sidecar metadata for one cached document.
type Record struct {
	Title        string `json:"title"`
	ModifiedTime string `json:"modifiedTime"`
	URL          string `json:"url"`
}

// Store is a directory of cached documents. The zero value is not usable;
// construct with New.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// DocPath returns the path of the Markdown body for a document ID. The file
// may not exist yet.
func (s *Store) DocPath(id string) string {
	return filepath.Join(s.dir, id+".md")
}

// metaPath returns the path of the sidecar for a document ID.
func (s *Store) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta.json")
}

// ModifiedTime returns the sidecar's recorded timestamp for a document, or
// "" when the document has no usable cache entry. A body file without a
// readable sidecar counts as absent, as does a corrupt sidecar: both force
// a re-export, which rewrites the pair.
func (s *Store) ModifiedTime(id string) (string, error) {
	if _, err := os.Stat(s.DocPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("cache: stat %s: %w", s.DocPath(id), err)
	}

	data, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("cache: reading sidecar for %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt sidecar: treat as stale rather than failing the run.
		return "", nil
	}

	return rec.ModifiedTime, nil
}

// Write persists a document body and its sidecar, returning the body path.
// The body lands first so that a crash between the two writes leaves a
// stale sidecar behind; that only costs one redundant export on the next
// run, whereas the opposite order could serve a stale body as fresh. Each
// file is itself written atomically (temp file + rename in the cache
// directory).
func (s *Store) Write(id string, body []byte, rec Record) (string, error) {
	if err := os.MkdirAll(s.dir, dirPerms); err != nil {
		return "", fmt.Errorf("cache: creating directory %s: %w", s.dir, err)
	}

	path := s.DocPath(id)
	if err := writeAtomic(path, body); err != nil {
		return "", fmt.Errorf("cache: writing body for %s: %w", id, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("cache: encoding sidecar for %s: %w", id, err)
	}

	if err := writeAtomic(s.metaPath(id), append(data, '\n')); err != nil {
		return "", fmt.Errorf("cache: writing sidecar for %s: %w", id, err)
	}

	return path, nil
}

// writeAtomic writes data to path via a temp file in the same directory and
// a rename. Same directory guarantees same filesystem for rename(2).
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, filePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}

	success = true

	return nil
}
