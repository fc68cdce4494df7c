// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tree

import (
	"path/filepath"
	"testing"

	"github.com/npmgo/npmgo/internal/pkgspec"
)

func newChild(name, version string) *Node {
	return &Node{
		Name:    name,
		Package: pkgspec.Record{Name: name, Version: version},
	}
}

func TestAttachChildDerivesPath(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	root.AttachChild(a)

	want := filepath.Join("/proj", "node_modules", "a")
	if a.Path != want {
		t.Errorf("child path = %q, want %q", a.Path, want)
	}
	if a.Parent != root {
		t.Error("child parent not set to attaching node")
	}

	b := newChild("b", "2.0.0")
	a.AttachChild(b)
	want = filepath.Join("/proj", "node_modules", "a", "node_modules", "b")
	if b.Path != want {
		t.Errorf("nested child path = %q, want %q", b.Path, want)
	}
}

func TestFindAndDetachChild(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	b := newChild("b", "1.0.0")
	root.AttachChild(a)
	root.AttachChild(b)

	if got := root.FindChildByName("b"); got != b {
		t.Fatalf("FindChildByName(b) = %v, want the b node", got)
	}
	if got := root.FindChildByName("zzz"); got != nil {
		t.Fatalf("FindChildByName(zzz) = %v, want nil", got)
	}

	root.DetachChild(a)
	if len(root.Children) != 1 || root.Children[0] != b {
		t.Fatalf("after detach, children = %v, want just b", root.Children)
	}
}

func TestWalkAncestors(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	b := newChild("b", "1.0.0")
	root.AttachChild(a)
	a.AttachChild(b)

	var visited []*Node
	b.WalkAncestors(func(n *Node) bool {
		visited = append(visited, n)
		return true
	})
	if len(visited) != 3 || visited[0] != b || visited[1] != a || visited[2] != root {
		t.Fatalf("WalkAncestors visited %d nodes in wrong order", len(visited))
	}

	visited = nil
	b.WalkAncestors(func(n *Node) bool {
		visited = append(visited, n)
		return false
	})
	if len(visited) != 1 {
		t.Fatalf("early-stopping walk visited %d nodes, want 1", len(visited))
	}
}

func TestAddRequiredByDedups(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	root.AttachChild(a)

	a.AddRequiredBy(root)
	a.AddRequiredBy(root)
	if len(a.RequiredBy) != 1 {
		t.Fatalf("RequiredBy has %d entries, want identity-deduped 1", len(a.RequiredBy))
	}
}

func TestCloneTreeIsIndependent(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	b := newChild("b", "1.0.0")
	root.AttachChild(a)
	a.AttachChild(b)
	a.AddRequiredBy(root)
	b.AddRequiredBy(a)

	cp := CloneTree(root)

	// Structure matches.
	if len(cp.Children) != 1 || cp.Children[0].Name != "a" {
		t.Fatal("clone lost root's children")
	}
	ca := cp.Children[0]
	if len(ca.Children) != 1 || ca.Children[0].Name != "b" {
		t.Fatal("clone lost nested children")
	}

	// No node is shared.
	if ca == a || ca.Children[0] == b {
		t.Fatal("clone shares nodes with the original")
	}

	// RequiredBy edges are remapped onto cloned nodes, not the originals.
	if len(ca.RequiredBy) != 1 || ca.RequiredBy[0] != cp {
		t.Fatal("cloned requiredby edge should point at the cloned root")
	}
	if ca.Children[0].RequiredBy[0] != ca {
		t.Fatal("cloned nested requiredby edge should point at the cloned parent")
	}

	// Mutating the clone leaves the original untouched.
	ca.AttachChild(newChild("c", "1.0.0"))
	if len(a.Children) != 1 {
		t.Fatal("mutating the clone changed the original tree")
	}
}

func TestIndex(t *testing.T) {
	root := NewRoot("/proj")
	a := newChild("a", "1.0.0")
	b := newChild("b", "1.0.0")
	root.AttachChild(a)
	a.AttachChild(b)

	idx := Index(root)
	if len(idx) != 3 {
		t.Fatalf("index has %d entries, want 3", len(idx))
	}
	if idx[b.Path] != b {
		t.Fatal("index did not map the nested node's path to the node")
	}
}
