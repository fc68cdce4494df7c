// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate asserts the structural invariants of a completed ideal
// tree before it reaches the differ:
//
//  1. a node's path derives from its parent's
//  2. sibling names are unique
//  3. every accumulated requested range admits the resolved version
//  4. every non-root node has at least one requirer
//  5. no cycles through parent or children
//
// The walk stops at the first violation and reports it with enough
// context to act on.
package validate

import (
	"path/filepath"
	"strings"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/semverx"
	"github.com/npmgo/npmgo/internal/tree"
)

// versionShaped reports whether kind carries specs that Satisfies can
// meaningfully check; tag/git/local/remote/hosted descriptors resolve to
// names, revisions or paths that no semver range ever admits.
func versionShaped(kind pkgspec.Kind) bool {
	return kind == pkgspec.Version || kind == pkgspec.Range
}

// Tree checks the five invariants over root, returning the first
// offending node wrapped in a ValidationError.
func Tree(root *tree.Node) error {
	// Cycles first: the other walks recurse through children and would
	// never terminate on a cyclic tree.
	if err := checkNoCycles(root); err != nil {
		return err
	}
	if err := checkPathsAndNames(root); err != nil {
		return err
	}
	return checkRequiredBy(root)
}

// checkPathsAndNames verifies invariant 1 (path derivation) and invariant 2
// (sibling name uniqueness).
func checkPathsAndNames(root *tree.Node) error {
	var walkErr error
	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		if walkErr != nil {
			return
		}
		if n.Parent != nil {
			want := filepath.Join(n.Parent.Path, "node_modules", n.Name)
			if n.Path != want {
				walkErr = &errs.ValidationError{Invariant: 1, Node: n.Name, Detail: "path " + n.Path + " does not derive from parent"}
				return
			}
		}
		seen := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			if seen[c.Name] {
				walkErr = &errs.ValidationError{Invariant: 2, Node: c.Name, Detail: "duplicate child name under " + n.Path}
				return
			}
			seen[c.Name] = true
		}
		for _, c := range n.Children {
			visit(c)
			if walkErr != nil {
				return
			}
		}
	}
	visit(root)
	return walkErr
}

// checkRequiredBy verifies invariant 4 (every non-root node has at least
// one requirer) and invariant 3 (every requirer's declared range is
// actually satisfied along its ancestor chain, or by the node itself).
func checkRequiredBy(root *tree.Node) error {
	var walkErr error
	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		if walkErr != nil {
			return
		}
		if n.Parent != nil && len(n.RequiredBy) == 0 {
			walkErr = &errs.ValidationError{Invariant: 4, Node: n.Name, Detail: "no requiredby entries"}
			return
		}
		for _, c := range n.Children {
			visit(c)
			if walkErr != nil {
				return
			}
		}
	}
	visit(root)
	if walkErr != nil {
		return walkErr
	}
	return checkSatisfaction(root)
}

// checkSatisfaction re-derives invariant 3 for every node: a node's
// requested descriptor accumulates every range its requirers demanded, so
// the node satisfying each space-separated token of its own
// Requested.Spec is equivalent to every requirer's range being satisfied
// by an ancestor-or-self, without needing to re-walk each requirer's own
// chain.
func checkSatisfaction(root *tree.Node) error {
	var walkErr error
	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		if walkErr != nil {
			return
		}
		if n.Parent != nil && versionShaped(n.Package.Requested.Kind) {
			for _, rng := range strings.Fields(n.Package.Requested.Spec) {
				if !semverx.Satisfies(n.Package.Version, rng) {
					walkErr = &errs.ValidationError{Invariant: 3, Node: n.Name, Detail: "version " + n.Package.Version + " does not satisfy " + rng}
					return
				}
			}
		}
		for _, c := range n.Children {
			visit(c)
			if walkErr != nil {
				return
			}
		}
	}
	visit(root)
	return walkErr
}

// checkNoCycles verifies invariant 5 over children (tree structure) and
// over parent (back-reference acyclicity), by a straightforward visited-set
// DFS; children ownership already forms a tree by construction (each node
// has exactly one parent assignment), so this mainly guards against future
// mutation bugs rather than a condition the loader can presently produce.
func checkNoCycles(root *tree.Node) error {
	visited := make(map[*tree.Node]bool)
	var walkErr error
	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		if walkErr != nil {
			return
		}
		if visited[n] {
			walkErr = &errs.ValidationError{Invariant: 5, Node: n.Name, Detail: "cycle detected through children"}
			return
		}
		visited[n] = true
		for cur := n.Parent; cur != nil; cur = cur.Parent {
			if cur == n {
				walkErr = &errs.ValidationError{Invariant: 5, Node: n.Name, Detail: "cycle detected through parent"}
				return
			}
		}
		for _, c := range n.Children {
			visit(c)
			if walkErr != nil {
				return
			}
		}
	}
	visit(root)
	return walkErr
}
