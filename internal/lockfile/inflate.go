// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lockfile inflates a pinned dependency graph directly into a
// tree, bypassing range resolution entirely: the lockfile is authoritative
// about both versions and shape.
package lockfile

import (
	"sort"

	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/tree"
)

// Entry is the pinned dependency map consumed by Inflate: name ->
// {version, dependencies?}, recursively.
type Entry = pkgspec.LockedDep

// Inflate attaches one child to node per entry in deps, pinned exactly to
// entry.Version (no range resolution), marks each child loaded, and
// recurses into entry.Dependencies if present. Ancestor-based
// deduplication is NOT performed: the lockfile is authoritative about
// tree shape.
//
// Entries are processed in sorted name order so the resulting action plan
// is deterministic.
func Inflate(node *tree.Node, deps map[string]Entry) {
	for _, name := range sortedNames(deps) {
		entry := deps[name]
		child := &tree.Node{
			Name: name,
			Package: pkgspec.Record{
				Name:    name,
				Version: entry.Version,
				Requested: pkgspec.Requested{
					Spec: entry.Version,
					Kind: pkgspec.Version,
				},
			},
			Loaded: true,
		}
		node.AttachChild(child)
		child.AddRequiredBy(node)

		if len(entry.Dependencies) > 0 {
			Inflate(child, entry.Dependencies)
		}
	}
}

func sortedNames(m map[string]Entry) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
