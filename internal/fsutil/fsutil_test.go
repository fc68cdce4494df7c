// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsRegular(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		path    string
		want    bool
		wantErr bool
	}{
		{"regular file", file, true, false},
		{"missing path", filepath.Join(dir, "nope"), false, false},
		{"directory", dir, false, true},
	}
	for _, c := range cases {
		got, err := IsRegular(c.path)
		if (err != nil) != c.wantErr {
			t.Errorf("%s: IsRegular error = %v, wantErr %v", c.name, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("%s: IsRegular = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{"directory", dir, true},
		{"regular file", file, false},
		{"missing path", filepath.Join(dir, "nope"), false},
	}
	for _, c := range cases {
		got, err := IsDir(c.path)
		if err != nil {
			t.Errorf("%s: IsDir error = %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: IsDir = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestFindProjectRootFrom(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findProjectRootFrom(nested, "package.json")
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("findProjectRootFrom = %q, want %q", got, root)
	}
}

func TestFindProjectRootFromNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := findProjectRootFrom(dir, "definitely-not-a-manifest.json"); err == nil {
		t.Fatal("expected an error when no ancestor carries the manifest")
	}
}
