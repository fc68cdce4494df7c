// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/npmgo/npmgo/internal/pkgspec"
)

// LockName is the conventional lockfile (shrinkwrap) file name.
const LockName = "npm-shrinkwrap.json"

// Lockfile is a pinned, recursive dependency map: a nested mapping
// dependencies -> {name -> {version, dependencies?}}, sub-entries
// structurally identical. It is consumed by the lockfile inflater and is
// authoritative about tree shape: no ancestor-based deduplication is
// performed against it.
type Lockfile struct {
	Dependencies map[string]pkgspec.LockedDep
}

type rawLockfile struct {
	Dependencies map[string]rawLockedDep `json:"dependencies,omitempty"`
}

type rawLockedDep struct {
	Version      string                  `json:"version"`
	Dependencies map[string]rawLockedDep `json:"dependencies,omitempty"`
}

// ReadLockfile parses a shrinkwrap document.
func ReadLockfile(r io.Reader) (*Lockfile, error) {
	var rl rawLockfile
	if err := json.NewDecoder(r).Decode(&rl); err != nil {
		return nil, errors.Wrap(err, "decode lockfile")
	}
	return rawToLockfile(rl)
}

func rawToLockfile(rl rawLockfile) (*Lockfile, error) {
	lf := &Lockfile{Dependencies: make(map[string]pkgspec.LockedDep, len(rl.Dependencies))}
	for name, rd := range rl.Dependencies {
		ld, err := rawToLockedDep(name, rd)
		if err != nil {
			return nil, err
		}
		lf.Dependencies[name] = ld
	}
	return lf, nil
}

func rawToLockedDep(name string, rd rawLockedDep) (pkgspec.LockedDep, error) {
	if rd.Version == "" {
		return pkgspec.LockedDep{}, errors.Errorf("lockfile entry %q has no version", name)
	}
	ld := pkgspec.LockedDep{Version: rd.Version}
	if len(rd.Dependencies) > 0 {
		ld.Dependencies = make(map[string]pkgspec.LockedDep, len(rd.Dependencies))
		for n, sub := range rd.Dependencies {
			sld, err := rawToLockedDep(n, sub)
			if err != nil {
				return pkgspec.LockedDep{}, err
			}
			ld.Dependencies[n] = sld
		}
	}
	return ld, nil
}
