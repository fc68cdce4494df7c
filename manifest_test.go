// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import (
	"strings"
	"testing"
)

func TestReadManifest(t *testing.T) {
	const doc = `{
		"name": "proj",
		"version": "0.1.0",
		"dependencies": {"a": "^1.0.0"},
		"devDependencies": {"a": "^1.0.0", "d": "^2.0.0"},
		"optionalDependencies": {"opt": "~0.3.0"}
	}`

	m, err := ReadManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	if m.Name != "proj" || m.Version != "0.1.0" {
		t.Errorf("name/version = %s/%s, want proj/0.1.0", m.Name, m.Version)
	}
	if m.Dependencies["a"] != "^1.0.0" {
		t.Error("runtime dependency not parsed")
	}
	if m.OptionalDeps["opt"] != "~0.3.0" {
		t.Error("optional dependency not parsed")
	}

	devOnly := m.DevDependenciesOnly()
	if _, ok := devOnly["a"]; ok {
		t.Error("dev entry overlapping a runtime dep should be excluded")
	}
	if devOnly["d"] != "^2.0.0" {
		t.Error("dev-only entry missing")
	}
}

func TestReadManifestMalformed(t *testing.T) {
	if _, err := ReadManifest(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestReadManifestEmbeddedShrinkwrap(t *testing.T) {
	const doc = `{
		"name": "proj",
		"shrinkwrap": {
			"dependencies": {
				"a": {"version": "1.0.0", "dependencies": {"b": {"version": "2.0.0"}}}
			}
		}
	}`

	m, err := ReadManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if m.Shrinkwrap == nil {
		t.Fatal("embedded shrinkwrap not parsed")
	}
	a := m.Shrinkwrap.Dependencies["a"]
	if a.Version != "1.0.0" || a.Dependencies["b"].Version != "2.0.0" {
		t.Errorf("shrinkwrap graph = %+v, want a@1.0.0 -> b@2.0.0", m.Shrinkwrap.Dependencies)
	}
}

func TestRuntimeAndOptionalNeverNil(t *testing.T) {
	m := &Manifest{}
	if m.RuntimeDependencies() == nil || m.OptionalDependencies() == nil {
		t.Fatal("accessors must return empty maps, not nil")
	}
}
