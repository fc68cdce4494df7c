// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ManifestName is the conventional manifest file name.
const ManifestName = "package.json"

// Manifest is the subset of a package.json the loader consumes:
// dependencies, devDependencies, optionalDependencies, each a mapping
// from name to version-range, plus an optionally embedded shrinkwrap
// lockfile.
type Manifest struct {
	Name         string
	Version      string
	Dependencies map[string]string
	DevDeps      map[string]string
	OptionalDeps map[string]string
	Shrinkwrap   *Lockfile
}

type rawManifest struct {
	Name                 string            `json:"name,omitempty"`
	Version              string            `json:"version,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Shrinkwrap           *rawLockfile      `json:"shrinkwrap,omitempty"`
}

// ReadManifest parses a package.json document. A missing file at the
// project root is the caller's responsibility to treat as an empty
// manifest; ReadManifest itself just decodes what it's given.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var rm rawManifest
	if err := json.NewDecoder(r).Decode(&rm); err != nil {
		return nil, errors.Wrap(err, "decode manifest")
	}

	m := &Manifest{
		Name:         rm.Name,
		Version:      rm.Version,
		Dependencies: rm.Dependencies,
		DevDeps:      rm.DevDependencies,
		OptionalDeps: rm.OptionalDependencies,
	}
	if rm.Shrinkwrap != nil {
		lf, err := rawToLockfile(*rm.Shrinkwrap)
		if err != nil {
			return nil, errors.Wrap(err, "decode embedded shrinkwrap")
		}
		m.Shrinkwrap = lf
	}
	return m, nil
}

// RuntimeDependencies returns the manifest's runtime dependency ranges,
// never nil.
func (m *Manifest) RuntimeDependencies() map[string]string {
	if m.Dependencies == nil {
		return map[string]string{}
	}
	return m.Dependencies
}

// DevDependenciesOnly returns every entry in devDependencies that is NOT
// already declared as a runtime dependency.
func (m *Manifest) DevDependenciesOnly() map[string]string {
	out := map[string]string{}
	for name, rng := range m.DevDeps {
		if _, isRuntime := m.Dependencies[name]; !isRuntime {
			out[name] = rng
		}
	}
	return out
}

// OptionalDependencies returns the manifest's optional dependency ranges,
// never nil.
func (m *Manifest) OptionalDependencies() map[string]string {
	if m.OptionalDeps == nil {
		return map[string]string{}
	}
	return m.OptionalDeps
}
