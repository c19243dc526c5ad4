// Package config resolves the per-repository .safe/ state directory and
// loads the optional config.yaml inside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStateDir   = ".safe"
	DefaultConfigFile = "config.yaml"

	// File names inside the state directory.
	ContextFile     = "context.json"
	JournalFile     = "journal.log"
	InterceptedFile = "intercepted.log"
	BackupDirName   = "backups"
)

// Config is the resolved per-repository configuration. Paths are absolute.
type Config struct {
	RepoRoot    string
	StateDir    string
	ContextPath string
	JournalPath string
	LogPath     string
	BackupDir   string

	// CommandTimeout bounds every VCS subprocess invocation.
	CommandTimeout time.Duration

	// DefaultMode is the execution mode used when neither CLI flags nor
	// environment variables select one. One of "interactive", "assume-yes",
	// "force-yes", "batch", "dry-run".
	DefaultMode string

	// ProtectedBranches extends the built-in protected-branch allowlist.
	ProtectedBranches []string

	// SensitivePatterns extends the built-in protected untracked-file globs.
	SensitivePatterns []string
}

// fileConfig is the on-disk shape of config.yaml. All fields optional.
type fileConfig struct {
	BackupDir         string   `yaml:"backup_dir"`
	CommandTimeout    string   `yaml:"command_timeout"`
	DefaultMode       string   `yaml:"default_mode"`
	ProtectedBranches []string `yaml:"protected_branches"`
	SensitivePatterns []string `yaml:"sensitive_patterns"`
}

// Load resolves the state directory under repoRoot, creates it if missing,
// and merges config.yaml over the defaults.
func Load(repoRoot string) (*Config, error) {
	if repoRoot == "" {
		return nil, errors.New("config: empty repository root")
	}
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("config: resolve repo root: %w", err)
	}

	stateDir := filepath.Join(abs, DefaultStateDir)
	if err := ensureDir(stateDir); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		RepoRoot:       abs,
		StateDir:       stateDir,
		ContextPath:    filepath.Join(stateDir, ContextFile),
		JournalPath:    filepath.Join(stateDir, JournalFile),
		LogPath:        filepath.Join(stateDir, InterceptedFile),
		BackupDir:      filepath.Join(stateDir, BackupDirName),
		CommandTimeout: 30 * time.Second,
	}

	if err := cfg.applyFile(filepath.Join(stateDir, DefaultConfigFile)); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.BackupDir); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.BackupDir != "" {
		if filepath.IsAbs(fc.BackupDir) {
			c.BackupDir = fc.BackupDir
		} else {
			c.BackupDir = filepath.Join(c.RepoRoot, fc.BackupDir)
		}
	}
	if fc.CommandTimeout != "" {
		d, err := time.ParseDuration(fc.CommandTimeout)
		if err != nil {
			return fmt.Errorf("config: command_timeout: %w", err)
		}
		c.CommandTimeout = d
	}
	c.DefaultMode = fc.DefaultMode
	c.ProtectedBranches = fc.ProtectedBranches
	c.SensitivePatterns = fc.SensitivePatterns
	return nil
}

func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, 0700)
	}
	return nil
}
