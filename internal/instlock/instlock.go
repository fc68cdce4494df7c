// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instlock provides a process-coordinated exclusive advisory lock
// on an install location, keyed by (path, name). The lock file itself
// lives at filepath.Join(path, "."+name+".lock").
package instlock

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/npmgo/npmgo/internal/errs"
)

// Lock is a held advisory lock, returned by Acquire. Release must be
// called on every exit path, including error paths.
type Lock struct {
	flock *flock.Flock
	path  string
}

// Acquire takes an exclusive lock keyed by (path, name) for the current
// process, blocking until it is available.
func Acquire(path, name string) (*Lock, error) {
	lockPath := filepath.Join(path, "."+name+".lock")
	fl := flock.New(lockPath)
	if err := fl.Lock(); err != nil {
		return nil, &errs.LockError{Path: lockPath, Err: errors.Wrap(err, "acquiring lock")}
	}
	return &Lock{flock: fl, path: lockPath}, nil
}

// Release unlocks the lock. An unlock failure that occurs while the
// caller is already unwinding from a primary error must not mask that
// error; callers should log this return value rather than propagate it in
// that situation.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return &errs.LockError{Path: l.path, Err: errors.Wrap(err, "releasing lock")}
	}
	return nil
}
