package backup

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/safegit/safegit/internal/gitexec"
)

// CreateArchive writes the untracked files into a deterministically ordered
// zip under backupDir and verifies it: the reopened archive must contain
// exactly the planned entries, each hashing to the source file's pre-archive
// digest. Any mismatch removes the archive and fails.
func CreateArchive(repoRoot, backupDir string, files []gitexec.UntrackedFile) (*Artifact, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("create archive: no files to back up")
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)

	// Hash sources before archiving so verification compares against the
	// state we intended to capture.
	sourceHash := make(map[string]string, len(paths))
	var totalBytes int64
	for _, p := range paths {
		sum, n, err := hashFile(filepath.Join(repoRoot, p))
		if err != nil {
			return nil, fmt.Errorf("create archive: hash %s: %w", p, err)
		}
		sourceHash[p] = sum
		totalBytes += n
	}

	archivePath := filepath.Join(backupDir, artifactName(".zip"))
	if err := writeZip(archivePath, repoRoot, paths); err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	if err := verifyZip(archivePath, sourceHash); err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	archiveSum, _, err := hashFile(archivePath)
	if err != nil {
		os.Remove(archivePath)
		return nil, fmt.Errorf("create archive: hash archive: %w", err)
	}

	return &Artifact{
		Kind:       "archive",
		Path:       archivePath,
		Algorithm:  "sha256",
		Checksum:   archiveSum,
		EntryCount: len(paths),
		TotalBytes: totalBytes,
		CreatedAt:  timestamp(),
		Verified:   true,
	}, nil
}

func writeZip(archivePath, repoRoot string, paths []string) error {
	out, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, p := range paths {
		src, err := os.Open(filepath.Join(repoRoot, p))
		if err != nil {
			zw.Close()
			return fmt.Errorf("create archive: open %s: %w", p, err)
		}
		w, err := zw.Create(filepath.ToSlash(p))
		if err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("create archive: add %s: %w", p, err)
		}
		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("create archive: write %s: %w", p, err)
		}
		src.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("create archive: finalize: %w", err)
	}
	return out.Sync()
}

func verifyZip(archivePath string, sourceHash map[string]string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("verify archive: reopen: %w", err)
	}
	defer zr.Close()

	if len(zr.File) != len(sourceHash) {
		return fmt.Errorf("verify archive: entry count %d, want %d", len(zr.File), len(sourceHash))
	}

	for _, f := range zr.File {
		want, ok := sourceHash[f.Name]
		if !ok {
			return fmt.Errorf("verify archive: unexpected entry %s", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("verify archive: open entry %s: %w", f.Name, err)
		}
		h := sha256.New()
		_, err = io.Copy(h, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("verify archive: read entry %s: %w", f.Name, err)
		}
		if got := hex.EncodeToString(h.Sum(nil)); got != want {
			return fmt.Errorf("verify archive: checksum mismatch for %s", f.Name)
		}
	}
	return nil
}

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
