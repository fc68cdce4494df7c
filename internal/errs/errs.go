// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the error taxonomy used across the installer core.
//
// Each kind is a small concrete type satisfying error rather than a
// sentinel value, so callers can match on failure class without string
// comparison. Enrich wraps an error as it unwinds through tree positions,
// building a chain of package names for diagnostics.
package errs

import (
	"bytes"
	"fmt"
)

// ResolveError reports that a package spec could not be parsed, no
// satisfying version was found, or the registry was unreachable.
type ResolveError struct {
	Spec string
	Err  error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve %q: %s", e.Spec, e.Err)
	}
	return fmt.Sprintf("could not resolve %q", e.Spec)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ManifestMissing reports that no package manifest was found at a location
// that required one. At the project root this is non-fatal: an absent
// manifest there is treated as an empty one.
type ManifestMissing struct {
	Path string
}

func (e *ManifestMissing) Error() string {
	return fmt.Sprintf("no manifest found at %s", e.Path)
}

// OptionalFailure wraps a resolve or install failure that occurred beneath
// an optionalDependencies entry. The loader catches these at the recursion
// boundary and downgrades them to a warning; they never reach the driver.
type OptionalFailure struct {
	Name string
	Err  error
}

func (e *OptionalFailure) Error() string {
	return fmt.Sprintf("optional dependency %s failed: %s", e.Name, e.Err)
}

func (e *OptionalFailure) Unwrap() error { return e.Err }

// ValidationError reports a broken tree invariant, discovered before any
// mutation of disk state. Invariant is the 1-5 numbering from the ideal
// tree's invariants; Node names the first offending node's path.
type ValidationError struct {
	Invariant int
	Node      string
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invariant %d violated at %s: %s", e.Invariant, e.Node, e.Detail)
}

// IOError wraps a filesystem operation failure encountered during a phase.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FetchError wraps a failure from the fetcher collaborator.
type FetchError struct {
	Name string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError wraps a failure from the extractor collaborator.
type ExtractError struct {
	Name string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.Name, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// LifecycleError reports that a lifecycle script phase returned non-zero.
type LifecycleError struct {
	Phase string
	Name  string
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s script failed for %s: %s", e.Phase, e.Name, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

// LockError reports that the install lock could not be acquired.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("could not acquire lock at %s: %s", e.Path, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

// Chain enriches an error with the chain of parent package names seen as
// it propagates back up through tree positions.
type Chain struct {
	Parents []string
	Err     error
}

func (e *Chain) Error() string {
	if len(e.Parents) == 0 {
		return e.Err.Error()
	}
	var buf bytes.Buffer
	buf.WriteString(e.Err.Error())
	buf.WriteString(" (via ")
	for i, p := range e.Parents {
		if i > 0 {
			buf.WriteString(" > ")
		}
		buf.WriteString(p)
	}
	buf.WriteString(")")
	return buf.String()
}

func (e *Chain) Unwrap() error { return e.Err }

// Enrich appends parent to err's parent chain, wrapping err in a *Chain if
// it isn't already one.
func Enrich(err error, parent string) error {
	if err == nil {
		return nil
	}
	if c, ok := err.(*Chain); ok {
		c.Parents = append(c.Parents, parent)
		return c
	}
	return &Chain{Parents: []string{parent}, Err: err}
}
