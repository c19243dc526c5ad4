package gitexec

import (
	"context"
	"strings"
	"sync"
)

// Fake is an in-memory Runner for tests in this and dependent packages.
// Responses are keyed by the space-joined argument list; unmatched commands
// fail with a ProbeError. Every invocation is recorded in order.
type Fake struct {
	Root      string
	Responses map[string]string
	Errors    map[string]*ProbeError
	// PrefixResponses match when no exact key does; useful for commands
	// whose tail varies (timestamped stash messages).
	PrefixResponses map[string]string

	mu       sync.Mutex
	Calls    []string
	ExecArgv [][]string
	ExecCode int
	ExecErr  error
}

func NewFake(root string) *Fake {
	return &Fake{
		Root:            root,
		Responses:       map[string]string{},
		Errors:          map[string]*ProbeError{},
		PrefixResponses: map[string]string{},
	}
}

func (f *Fake) RepoRoot() string { return f.Root }

func (f *Fake) Run(_ context.Context, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.Calls = append(f.Calls, key)
	f.mu.Unlock()

	if out, ok := f.Responses[key]; ok {
		return out, nil
	}
	if err, ok := f.Errors[key]; ok {
		return "", err
	}
	for prefix, out := range f.PrefixResponses {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", &ProbeError{Cmd: args[0], Code: 1, Stderr: "no fake response for: " + key}
}

func (f *Fake) Exec(args []string) (int, error) {
	f.mu.Lock()
	f.ExecArgv = append(f.ExecArgv, append([]string(nil), args...))
	f.mu.Unlock()
	return f.ExecCode, f.ExecErr
}

// Stub registers a probe response.
func (f *Fake) Stub(out string, args ...string) {
	f.Responses[strings.Join(args, " ")] = out
}

// StubErr registers a probe failure.
func (f *Fake) StubErr(err *ProbeError, args ...string) {
	f.Errors[strings.Join(args, " ")] = err
}
