// Package store implements the content-addressed file store: ingested
// files are materialized under a configurable root, deduplicated by
// content hash, hard-linked when possible and copied otherwise.
package store

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// trimmedHashLen is the number of leading hex characters of the
// content hash embedded in stored file names (first 8 digest bytes).
const trimmedHashLen = 16

// ContentStore materializes ingested files under root/files/. Stored
// names embed the upload timestamp and a hash prefix so that distinct
// uploads never collide; the original display name is preserved on
// the metadata record, not here.
type ContentStore struct {
	root string
}

// Open creates the store root and its files/ subdirectory if absent
// and returns a handle to the store.
func Open(root string) (*ContentStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "files"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &ContentStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *ContentStore) Root() string {
	return s.root
}

// FilesDir returns the directory holding materialized files.
func (s *ContentStore) FilesDir() string {
	return filepath.Join(s.root, "files")
}

// Materialize brings the file at srcPath into the store under the
// name {unixTimestamp}-{hashPrefix}-{baseName}. It attempts a hard
// link first and falls back to a full copy when linking fails
// (cross-device source, unsupported filesystem). Returns the stored
// path.
func (s *ContentStore) Materialize(srcPath, hash string) (string, error) {
	if len(hash) < trimmedHashLen {
		return "", fmt.Errorf("content hash %q is too short", hash)
	}

	name := fmt.Sprintf("%d-%s-%s", time.Now().Unix(), hash[:trimmedHashLen], filepath.Base(srcPath))
	dst := filepath.Join(s.FilesDir(), name)

	if err := linkOrCopy(srcPath, dst); err != nil {
		return "", fmt.Errorf("failed to materialize %s into store: %w", srcPath, err)
	}
	return dst, nil
}

// Remove deletes a stored file.
func (s *ContentStore) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove stored file %s: %w", path, err)
	}
	return nil
}

// Size returns the total size in bytes of all materialized files.
func (s *ContentStore) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.FilesDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk store files: %w", err)
	}
	return total, nil
}

// linkOrCopy hard-links src to dst, degrading to a byte copy when the
// link fails. Both failing is fatal to the ingest.
func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	} else {
		log.Printf("Hard link from %s failed (%v), copying instead", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create stored file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to finish writing stored file: %w", err)
	}
	return nil
}
