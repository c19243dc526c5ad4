// Package contextstore persists the wrapper's environment, mode, and custom
// restrictions, and evaluates the permission matrix that gates every
// intercepted command.
package contextstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/safegit/safegit/internal/fsio"
)

// Environment is where this repository clone lives.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Mode is the operating posture for the repository.
type Mode string

const (
	Normal      Mode = "normal"
	CodeFreeze  Mode = "code_freeze"
	Paranoid    Mode = "paranoid"
	Maintenance Mode = "maintenance"
)

// Context is the persisted singleton gating command permission.
// JSON keys are declared in lexicographic order; the journal and context
// files share that convention.
type Context struct {
	Environment  Environment `json:"environment"`
	Mode         Mode        `json:"mode"`
	Restrictions []string    `json:"restrictions"`
	UpdatedAt    string      `json:"updated_at"`
}

// Default is the context used when no file exists yet.
func Default() Context {
	return Context{
		Environment:  Development,
		Mode:         Normal,
		Restrictions: []string{},
	}
}

// ValidEnvironment reports whether s names a known environment.
func ValidEnvironment(s string) bool {
	switch Environment(s) {
	case Development, Staging, Production:
		return true
	}
	return false
}

// ValidMode reports whether s names a known mode.
func ValidMode(s string) bool {
	switch Mode(s) {
	case Normal, CodeFreeze, Paranoid, Maintenance:
		return true
	}
	return false
}

// Store reads and writes the context file under the advisory lock.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the context under a shared lock. A missing file yields the
// default context.
func (s *Store) Load() (Context, error) {
	var ctx Context

	lock, err := fsio.AcquireShared(s.path)
	if err != nil {
		return ctx, err
	}
	defer lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return ctx, fmt.Errorf("read context: %w", err)
	}

	if err := json.Unmarshal(data, &ctx); err != nil {
		return ctx, fmt.Errorf("parse context %s: %w", s.path, err)
	}
	if ctx.Restrictions == nil {
		ctx.Restrictions = []string{}
	}
	return ctx, nil
}

// mutate loads, applies fn, stamps, and atomically rewrites the context,
// all under one exclusive lock.
func (s *Store) mutate(fn func(*Context)) (Context, error) {
	var out Context

	err := fsio.WithExclusiveLock(s.path, func() error {
		ctx := Default()
		data, err := os.ReadFile(s.path)
		if err == nil {
			if err := json.Unmarshal(data, &ctx); err != nil {
				return fmt.Errorf("parse context %s: %w", s.path, err)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("read context: %w", err)
		}
		if ctx.Restrictions == nil {
			ctx.Restrictions = []string{}
		}

		fn(&ctx)
		ctx.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

		encoded, err := json.Marshal(ctx)
		if err != nil {
			return fmt.Errorf("encode context: %w", err)
		}
		encoded = append(encoded, '\n')
		if err := fsio.AtomicWrite(s.path, encoded); err != nil {
			return err
		}
		out = ctx
		return nil
	})
	return out, err
}

// SetEnvironment persists a new environment.
func (s *Store) SetEnvironment(env Environment) (Context, error) {
	return s.mutate(func(c *Context) { c.Environment = env })
}

// SetMode persists a new mode.
func (s *Store) SetMode(mode Mode) (Context, error) {
	return s.mutate(func(c *Context) { c.Mode = mode })
}

// AddRestriction adds a literal substring restriction; duplicates are kept
// out.
func (s *Store) AddRestriction(substr string) (Context, error) {
	return s.mutate(func(c *Context) {
		for _, r := range c.Restrictions {
			if r == substr {
				return
			}
		}
		c.Restrictions = append(c.Restrictions, substr)
	})
}

// RemoveRestriction removes a previously added restriction.
func (s *Store) RemoveRestriction(substr string) (Context, error) {
	return s.mutate(func(c *Context) {
		kept := c.Restrictions[:0]
		for _, r := range c.Restrictions {
			if r != substr {
				kept = append(kept, r)
			}
		}
		c.Restrictions = kept
	})
}
