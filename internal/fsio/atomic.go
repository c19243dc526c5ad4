// Package fsio provides the two primitives every persistent write in
// safegit goes through: an atomic temp-then-rename file write and an
// advisory cross-process file lock. The journal, the context store, and the
// interception log have no other way to touch disk.
package fsio

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWrite writes data to a sibling temp file, fsyncs it, and renames it
// over path. On any failure the partial temp file is removed and path is
// left untouched. The rename must be same-filesystem; a cross-device
// rename fails rather than falling back to a non-atomic copy.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), randSuffix()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("atomic write %s: create temp: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: write: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: fsync: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}
	return nil
}

func randSuffix() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the process environment is broken;
		// the pid still gives per-process uniqueness.
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(b[:])
}
