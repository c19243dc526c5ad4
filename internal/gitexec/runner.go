// Package gitexec shells out to the VCS executable: read-only probes for the
// safety analyzers and pass-through execution for approved commands. Probe
// output is parsed from porcelain / machine formats only.
package gitexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner is the interface handlers and probes use to reach the VCS.
// It exists so tests can substitute a recorded fake.
type Runner interface {
	// Run executes a VCS subcommand, returning stdout. Nonzero exit or
	// timeout yields a *ProbeError.
	Run(ctx context.Context, args ...string) (string, error)

	// Exec runs the VCS with the caller's terminal attached and returns its
	// exit code.
	Exec(args []string) (int, error)

	// RepoRoot returns the absolute path of the repository root.
	RepoRoot() string
}

// ProbeError is a structured failure from a read-only VCS invocation.
type ProbeError struct {
	Cmd    string // the failing subcommand
	Code   int    // exit code, -1 when the process did not run
	Stderr string // trailing stderr
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %q failed (exit %d): %s", e.Cmd, e.Code, e.Stderr)
	}
	return fmt.Sprintf("probe %q failed (exit %d)", e.Cmd, e.Code)
}

// Git runs the real VCS binary with a per-call timeout.
type Git struct {
	binary   string
	repoRoot string
	timeout  time.Duration
}

// DiscoverRoot locates the enclosing repository root from startPath. Split
// from runner construction so the caller can read the repository's own
// configuration (which carries the subprocess timeout) before building the
// runner with New.
func DiscoverRoot(startPath string) (string, error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = abs
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("not a git repository: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git not found: %w", err)
	}

	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", fmt.Errorf("could not determine repository root")
	}
	return root, nil
}

// New returns a runner rooted at root with the given per-call timeout.
// A non-positive timeout falls back to 30s.
func New(root string, timeout time.Duration) *Git {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Git{binary: "git", repoRoot: root, timeout: timeout}
}

// Bare returns a runner that executes in dir without requiring an enclosing
// repository (clone, init, ls-remote).
func Bare(dir string) *Git {
	return &Git{binary: "git", repoRoot: dir, timeout: 30 * time.Second}
}

func (g *Git) RepoRoot() string { return g.repoRoot }

func (g *Git) Run(ctx context.Context, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("no subcommand given")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			msg = "timed out after " + g.timeout.String()
		}
		return "", &ProbeError{Cmd: args[0], Code: code, Stderr: tail(msg, 400)}
	}
	return stdout.String(), nil
}

func (g *Git) Exec(args []string) (int, error) {
	cmd := exec.Command(g.binary, args...)
	cmd.Dir = g.repoRoot
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("exec git: %w", err)
	}
	return 0, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n:]
}
