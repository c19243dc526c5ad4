package safety

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/safegit/safegit/internal/gitexec"
)

// FileClass buckets an untracked path for the clean_force report.
type FileClass string

const (
	ClassSource FileClass = "source"
	ClassConfig FileClass = "config"
	ClassBuild  FileClass = "build-artifact"
	ClassLog    FileClass = "log"
	ClassOther  FileClass = "other"
)

var sourceExts = map[string]bool{
	".go": true, ".c": true, ".h": true, ".cc": true, ".cpp": true,
	".rs": true, ".py": true, ".rb": true, ".js": true, ".ts": true,
	".jsx": true, ".tsx": true, ".java": true, ".kt": true, ".swift": true,
	".sh": true, ".pl": true, ".sql": true, ".proto": true,
}

var configExts = map[string]bool{
	".yaml": true, ".yml": true, ".json": true, ".toml": true,
	".ini": true, ".conf": true, ".env": true, ".properties": true,
}

var buildExts = map[string]bool{
	".o": true, ".a": true, ".so": true, ".dylib": true, ".dll": true,
	".exe": true, ".class": true, ".pyc": true, ".wasm": true,
}

var buildDirs = map[string]bool{
	"build": true, "dist": true, "target": true, "out": true,
	"node_modules": true, "__pycache__": true, ".cache": true,
}

// Classify buckets one path.
func ClassifyFile(p string) FileClass {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if buildDirs[seg] {
			return ClassBuild
		}
	}
	ext := strings.ToLower(filepath.Ext(p))
	switch {
	case ext == ".log":
		return ClassLog
	case sourceExts[ext]:
		return ClassSource
	case configExts[ext]:
		return ClassConfig
	case buildExts[ext]:
		return ClassBuild
	}
	return ClassOther
}

// sensitiveDefaults are untracked-file globs whose deletion escalates
// clean_force to Critical. Matched against the base name.
var sensitiveDefaults = []string{
	"*.key",
	"*.env",
	"config.local",
	"*.pem",
}

// SensitiveUntracked returns the untracked paths matching the protected
// pattern set (defaults plus config extras).
func SensitiveUntracked(files []gitexec.UntrackedFile, extra []string) []string {
	patterns := append(append([]string{}, sensitiveDefaults...), extra...)

	var hits []string
	for _, f := range files {
		base := filepath.Base(f.Path)
		for _, p := range patterns {
			if ok, err := path.Match(p, base); err == nil && ok {
				hits = append(hits, f.Path)
				break
			}
		}
	}
	return hits
}
