// Package identity decides which author name mutating operations act as.
//
// Resolution order: an in-process override set through the API, then the
// machine's git configuration. The override lives for the lifetime of the
// process and resets on restart; nothing here is persisted.
package identity

import (
	"errors"
	"strings"
	"sync"
)

// Source reports where a resolved username came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceGit      Source = "git"
	SourceNone     Source = "none"
)

// ErrEmptyUsername indicates an override that is blank after trimming.
var ErrEmptyUsername = errors.New("username is empty")

// Guidance returned when no identity is configured anywhere.
const setupGuidance = `Git username not configured. Please set with: git config user.name "Your Name"`

// Resolution is the outcome of an identity lookup. Username is empty only
// when Source is SourceNone, in which case Guidance tells the user how to
// configure one.
type Resolution struct {
	Username string
	Source   Source
	Guidance string
}

// Resolver resolves the current acting identity. Safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	override string
	runner   CommandRunner
}

// NewResolver creates a resolver that queries git through the given runner.
func NewResolver(runner CommandRunner) *Resolver {
	return &Resolver{runner: runner}
}

// Resolve returns the current identity. It never fails: a missing or broken
// git configuration degrades to SourceNone with setup guidance.
func (r *Resolver) Resolve() Resolution {
	r.mu.RLock()
	override := r.override
	r.mu.RUnlock()

	if override != "" {
		return Resolution{Username: override, Source: SourceOverride}
	}

	if name := r.gitUsername(); name != "" {
		return Resolution{Username: name, Source: SourceGit}
	}

	return Resolution{Source: SourceNone, Guidance: setupGuidance}
}

// SetOverride replaces the process-wide identity override. The override wins
// over git until the process restarts or ClearOverride is called.
func (r *Resolver) SetOverride(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}

	r.mu.Lock()
	r.override = username
	r.mu.Unlock()
	return nil
}

// ClearOverride drops the override, restoring the git fallback.
func (r *Resolver) ClearOverride() {
	r.mu.Lock()
	r.override = ""
	r.mu.Unlock()
}

// gitUsername reads user.name from the machine's git configuration, returning
// empty when git is unavailable or the value is unset.
func (r *Resolver) gitUsername() string {
	output, err := r.runner.Run("git", "config", "user.name")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
