package dispatch

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/safegit/safegit/internal/config"
	"github.com/safegit/safegit/internal/execmode"
	"github.com/safegit/safegit/internal/gitexec"
	"github.com/safegit/safegit/internal/handler"
	"github.com/safegit/safegit/internal/journal"
)

func TestParseGlobals(t *testing.T) {
	tests := []struct {
		in       []string
		want     execmode.Flags
		wantRest string
	}{
		{[]string{"status"}, execmode.Flags{}, "status"},
		{[]string{"--dry-run", "push", "--mirror", "origin"},
			execmode.Flags{DryRun: true}, "push --mirror origin"},
		{[]string{"--yes", "reset", "--hard"},
			execmode.Flags{Yes: true}, "reset --hard"},
		{[]string{"-y", "clean", "-fd"},
			execmode.Flags{Yes: true}, "clean -fd"},
		{[]string{"--force-yes", "--dry-run", "gc"},
			execmode.Flags{ForceYes: true, DryRun: true}, "gc"},
		// reserved spellings after the subcommand belong to the VCS
		{[]string{"clean", "--dry-run"}, execmode.Flags{}, "clean --dry-run"},
		{[]string{"--batch", "push"}, execmode.Flags{Batch: true}, "push"},
		{[]string{"--non-interactive", "push"}, execmode.Flags{NonInteractive: true}, "push"},
	}
	for _, tt := range tests {
		flags, rest := ParseGlobals(tt.in)
		if flags != tt.want {
			t.Errorf("%v: flags = %+v, want %+v", tt.in, flags, tt.want)
		}
		if got := strings.Join(rest, " "); got != tt.wantRest {
			t.Errorf("%v: rest = %q, want %q", tt.in, got, tt.wantRest)
		}
	}
}

func testOpts(t *testing.T, input string) (Options, *gitexec.Fake, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	cfg, err := config.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	fake := gitexec.NewFake(root)
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	opts := Options{
		Out:       out,
		Err:       errBuf,
		Runner:    fake,
		Cfg:       cfg,
		Env:       func(string) string { return "" },
		In:        strings.NewReader(input),
		NoSignals: true,
	}
	return opts, fake, out, errBuf
}

func stubCleanRepo(f *gitexec.Fake) {
	f.Stub("abc123\n", "rev-parse", "--verify", "-q", "HEAD")
	f.Stub("main\n", "rev-parse", "--abbrev-ref", "HEAD")
	f.Stub("", "diff", "--numstat", "HEAD")
	f.Stub("", "ls-files", "--others", "--exclude-standard", "-z")
	f.Stub("", "stash", "list", "--format=%gd%x09%gs")
	f.StubErr(&gitexec.ProbeError{Cmd: "rev-list", Code: 128},
		"rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	f.Stub("abc123\n", "log", "-g", "-1", "--format=%H")
	f.Stub("git@github.com:org/repo.git\n", "remote", "get-url", "origin")
}

func TestRun_PassthroughExecs(t *testing.T) {
	opts, fake, _, _ := testOpts(t, "")

	code := Run([]string{"status", "--short"}, opts)
	if code != handler.ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if len(fake.ExecArgv) != 1 || strings.Join(fake.ExecArgv[0], " ") != "status --short" {
		t.Errorf("ExecArgv = %v", fake.ExecArgv)
	}
}

func TestRun_EmptyArgvIsUsageError(t *testing.T) {
	opts, _, _, _ := testOpts(t, "")
	if code := Run(nil, opts); code != handler.ExitUsage {
		t.Errorf("exit = %d, want 2", code)
	}
	if code := Run([]string{"--dry-run"}, opts); code != handler.ExitUsage {
		t.Errorf("flags only: exit = %d, want 2", code)
	}
}

// S6 end to end: dry-run mirror push makes no state changes.
func TestRun_DryRunPushMirror(t *testing.T) {
	opts, fake, out, _ := testOpts(t, "")
	stubCleanRepo(fake)

	code := Run([]string{"--dry-run", "push", "--mirror", "origin"}, opts)
	if code != handler.ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if len(fake.ExecArgv) != 0 {
		t.Error("dry-run executed the VCS")
	}
	if !strings.Contains(out.String(), "push --mirror origin") {
		t.Errorf("output = %q", out.String())
	}

	entries, err := journal.New(opts.Cfg.JournalPath).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Error("dry-run journaled")
	}
}

func TestRun_DryRunPassthroughDoesNotExec(t *testing.T) {
	opts, fake, out, _ := testOpts(t, "")

	code := Run([]string{"--dry-run", "commit", "-m", "wip"}, opts)
	if code != handler.ExitOK {
		t.Fatalf("exit = %d", code)
	}
	if len(fake.ExecArgv) != 0 {
		t.Error("dry-run executed a passthrough command")
	}
	if !strings.Contains(out.String(), "commit -m wip") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_InterceptionLogged(t *testing.T) {
	opts, fake, _, _ := testOpts(t, "")
	stubCleanRepo(fake)

	Run([]string{"status"}, opts)
	Run([]string{"--dry-run", "reset", "--hard"}, opts)

	data := readFile(t, opts.Cfg.LogPath)
	if !strings.Contains(data, `"category":"passthrough"`) {
		t.Errorf("log missing passthrough event: %s", data)
	}
	if !strings.Contains(data, `"category":"reset_hard"`) {
		t.Errorf("log missing reset_hard event: %s", data)
	}
	if !strings.Contains(data, `"mode":"dry-run"`) {
		t.Errorf("log missing mode: %s", data)
	}
}

func TestRun_UnicodeSmugglingBlocked(t *testing.T) {
	opts, fake, _, errBuf := testOpts(t, "")

	// zero-width space inside "origin"
	code := Run([]string{"push", "ori​gin"}, opts)
	if code != handler.ExitDenied {
		t.Fatalf("exit = %d, want 1", code)
	}
	if len(fake.ExecArgv) != 0 {
		t.Error("smuggled argv reached the VCS")
	}
	if !strings.Contains(errBuf.String(), "zero-width") {
		t.Errorf("stderr = %q", errBuf.String())
	}
}

// S7 analog: AssumeYes denies what ForceYes later permits, and the journal
// records the synthesized run.
func TestRun_ForceYesRoundTrip(t *testing.T) {
	opts, fake, _, _ := testOpts(t, "")
	stubCleanRepo(fake)
	fake.Stub("0\t0\n", "rev-list", "--left-right", "--count", "@{upstream}...HEAD")

	code := Run([]string{"--yes", "push", "--force", "origin", "main"}, opts)
	if code != handler.ExitDenied {
		t.Fatalf("assume-yes exit = %d, want 1", code)
	}

	code = Run([]string{"--force-yes", "push", "--force", "origin", "main"}, opts)
	if code != handler.ExitOK {
		t.Fatalf("force-yes exit = %d", code)
	}

	entries, err := journal.New(opts.Cfg.JournalPath).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Mode != "force-yes" {
		t.Errorf("Mode = %s", entries[0].Mode)
	}
	if len(entries[0].Synthesized) == 0 {
		t.Error("synthesized phrases missing from the journal")
	}
}

func TestRun_CIEnvironmentCoercesAssumeYes(t *testing.T) {
	opts, fake, _, errBuf := testOpts(t, "")
	stubCleanRepo(fake)
	opts.Env = func(k string) string {
		if k == "CI" {
			return "true"
		}
		return ""
	}
	// dirty tree so reset --hard needs a typed phrase, which AssumeYes denies
	fake.Stub("5\t0\tx.go\n", "diff", "--numstat", "HEAD")

	code := Run([]string{"reset", "--hard", "HEAD"}, opts)
	if code != handler.ExitDenied {
		t.Fatalf("exit = %d, want denial under CI; stderr: %s", code, errBuf.String())
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
