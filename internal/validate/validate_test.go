// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"testing"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/tree"
)

func attach(parent *tree.Node, name, version string) *tree.Node {
	n := &tree.Node{
		Name: name,
		Package: pkgspec.Record{
			Name:      name,
			Version:   version,
			Requested: pkgspec.Requested{Spec: version, Kind: pkgspec.Version},
		},
		Loaded: true,
	}
	parent.AttachChild(n)
	n.AddRequiredBy(parent)
	return n
}

func invariantOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	ve, ok := err.(*errs.ValidationError)
	if !ok {
		t.Fatalf("got %T, want *errs.ValidationError", err)
	}
	return ve.Invariant
}

func TestValidTreePasses(t *testing.T) {
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "1.0.0")
	attach(a, "b", "2.0.0")
	attach(root, "c", "3.0.0")

	if err := Tree(root); err != nil {
		t.Fatalf("valid tree rejected: %v", err)
	}
}

func TestBrokenPathDerivation(t *testing.T) {
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "1.0.0")
	a.Path = "/somewhere/else"

	if got := invariantOf(t, Tree(root)); got != 1 {
		t.Fatalf("invariant = %d, want 1", got)
	}
}

func TestDuplicateSiblingNames(t *testing.T) {
	root := tree.NewRoot("/proj")
	attach(root, "a", "1.0.0")
	attach(root, "a", "2.0.0")

	if got := invariantOf(t, Tree(root)); got != 2 {
		t.Fatalf("invariant = %d, want 2", got)
	}
}

func TestUnsatisfiedRequestedRange(t *testing.T) {
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "1.0.0")
	a.Package.Requested = pkgspec.Requested{Spec: "^2.0.0", Kind: pkgspec.Range}

	if got := invariantOf(t, Tree(root)); got != 3 {
		t.Fatalf("invariant = %d, want 3", got)
	}
}

func TestNonVersionRequestedKindsAreNotRangeChecked(t *testing.T) {
	// A git-requested node's spec is a URL; it must not be held against
	// semver satisfaction.
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "deadbeef")
	a.Package.Requested = pkgspec.Requested{Spec: "git+https://github.com/x/a.git", Kind: pkgspec.Git}

	if err := Tree(root); err != nil {
		t.Fatalf("git-requested node rejected: %v", err)
	}
}

func TestMissingRequiredBy(t *testing.T) {
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "1.0.0")
	a.RequiredBy = nil

	if got := invariantOf(t, Tree(root)); got != 4 {
		t.Fatalf("invariant = %d, want 4", got)
	}
}

func TestChildCycle(t *testing.T) {
	root := tree.NewRoot("/proj")
	a := attach(root, "a", "1.0.0")
	a.Children = append(a.Children, root)

	if got := invariantOf(t, Tree(root)); got != 5 {
		t.Fatalf("invariant = %d, want 5", got)
	}
}
