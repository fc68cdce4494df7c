// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tree is the in-memory model of an installed package tree:
// packages as nodes with parent/child/required-by links.
//
// Parent is a back-reference used only for lookup, never ownership;
// Children is the sole ownership edge.
package tree

import (
	"path/filepath"

	"github.com/npmgo/npmgo/internal/pkgspec"
)

// Node is one installed (or to-be-installed) package in a tree.
type Node struct {
	Name     string
	Package  pkgspec.Record
	Path     string
	RealPath string

	Parent   *Node
	Children []*Node

	// RequiredBy is the set of nodes that depend on this node. It is never
	// an ownership edge and accumulates across revisits during loading.
	RequiredBy []*Node

	Loaded bool
}

// NewRoot creates an unpackaged root node at rootPath.
func NewRoot(rootPath string) *Node {
	real, err := filepath.Abs(rootPath)
	if err != nil {
		real = rootPath
	}
	return &Node{
		Path:     rootPath,
		RealPath: real,
		Loaded:   true,
	}
}

// AttachChild appends child to n.Children and derives child's
// Path/RealPath: always join(parent.Path, "node_modules", name).
func (n *Node) AttachChild(child *Node) {
	child.Parent = n
	child.Path = filepath.Join(n.Path, "node_modules", child.Name)
	child.RealPath = child.Path
	n.Children = append(n.Children, child)
}

// DetachChild removes child from n.Children. It does not alter child's
// Parent link; callers that want a fully detached node must clear that
// separately (see the dev-dependency loader, which nulls and restores it).
func (n *Node) DetachChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// FindChildByName returns the direct child named name, or nil.
func (n *Node) FindChildByName(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// WalkAncestors calls fn for n and then each ancestor in turn, stopping
// early if fn returns false.
func (n *Node) WalkAncestors(fn func(*Node) bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if !fn(cur) {
			return
		}
	}
}

// AddRequiredBy unions RequiredBy with {by}, deduping by identity.
func (n *Node) AddRequiredBy(by *Node) {
	for _, r := range n.RequiredBy {
		if r == by {
			return
		}
	}
	n.RequiredBy = append(n.RequiredBy, by)
}

// clone produces an independent structural copy of the subtree rooted at
// n: no mutable state (Children, RequiredBy slices) is shared with the
// original. RequiredBy back-references are remapped onto cloned nodes in a
// second pass by CloneTree.
func (n *Node) clone(parent *Node) *Node {
	cp := &Node{
		Name:     n.Name,
		Package:  n.Package,
		Path:     n.Path,
		RealPath: n.RealPath,
		Parent:   parent,
		Loaded:   n.Loaded,
	}
	cp.Children = make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		cp.Children = append(cp.Children, c.clone(cp))
	}
	return cp
}

// CloneTree deep-copies the tree rooted at root, including a remap of
// RequiredBy edges onto the corresponding cloned nodes.
func CloneTree(root *Node) *Node {
	cp := root.clone(nil)

	orig := make([]*Node, 0)
	cloned := make([]*Node, 0)
	var collect func(o, c *Node)
	collect = func(o, c *Node) {
		orig = append(orig, o)
		cloned = append(cloned, c)
		for i, oc := range o.Children {
			collect(oc, c.Children[i])
		}
	}
	collect(root, cp)

	index := make(map[*Node]*Node, len(orig))
	for i, o := range orig {
		index[o] = cloned[i]
	}
	for i, o := range orig {
		for _, rb := range o.RequiredBy {
			if mapped, ok := index[rb]; ok {
				cloned[i].RequiredBy = append(cloned[i].RequiredBy, mapped)
			}
		}
	}
	return cp
}

// Walk visits root and every descendant in pre-order, depth-first.
func Walk(root *Node, fn func(*Node)) {
	fn(root)
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// Index flattens the tree rooted at root into a path -> *Node map, the
// structural-position lookup the differ compares current against ideal by.
func Index(root *Node) map[string]*Node {
	idx := make(map[string]*Node)
	Walk(root, func(n *Node) {
		idx[n.Path] = n
	})
	return idx
}
