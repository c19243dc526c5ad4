// Package backup creates and verifies pre-operation artifacts: auto-stashes,
// zip archives of untracked files, and plain-text reference dumps. A handler
// never invokes the VCS destructively until its artifact is verified.
package backup

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is one verified backup. Kind selects which fields are set.
type Artifact struct {
	Kind      string `json:"kind"` // "stash", "archive", "text"
	CreatedAt string `json:"created_at"`
	Verified  bool   `json:"verified"`

	// stash
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message,omitempty"`

	// archive
	Path       string `json:"path,omitempty"`
	Algorithm  string `json:"algorithm,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
	EntryCount int    `json:"entry_count,omitempty"`
	TotalBytes int64  `json:"total_bytes,omitempty"`

	// text dump
	Section string `json:"section,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	// Refs maps each dumped reference to the commit id it held, so the
	// journal can emit exact restore commands.
	Refs map[string]string `json:"refs,omitempty"`
}

// StashMessagePrefix tags every auto-stash this tool creates.
const StashMessagePrefix = "safe-wrapper auto-backup"

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// fileStamp is a filesystem-safe timestamp for artifact names.
func fileStamp() string {
	return time.Now().UTC().Format("20060102-150405")
}

func artifactName(ext string) string {
	return "safe-backup-" + fileStamp() + "-" + uuid.NewString() + ext
}
