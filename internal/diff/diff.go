// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff compares the on-disk current tree against the resolved
// ideal tree by structural position and emits an ordered action list.
//
// The comparison is a merge-join keyed by tree path, with an extra
// move-detection pass: a path mismatch alone doesn't distinguish "removed
// and unrelated add" from "the same package relocated to satisfy a new
// hoist decision".
package diff

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/npmgo/npmgo/internal/tree"
)

// Kind enumerates the action kinds the differ can emit.
type Kind int

const (
	Add Kind = iota
	Remove
	Update
	Move
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Update:
		return "update"
	case Move:
		return "move"
	default:
		return "unknown"
	}
}

// Action is one step of an install plan: a (kind, node) pair. Node is
// always the ideal-tree node except for a pure Remove, where no ideal
// node exists and Node is the current-tree node being deleted. OldPath is
// the current tree's path for the node, set for Remove, Move and Update
// so the scheduler knows what to clean up.
type Action struct {
	Kind    Kind
	Node    *tree.Node
	OldPath string
}

// Diff compares current against ideal and returns the action list,
// removals ordered bottom-up (deepest path first) then non-removals
// ordered top-down (shallowest path first), each level ordered stably by
// name.
func Diff(current, ideal *tree.Node) []Action {
	curIdx := tree.Index(current)
	idealIdx := tree.Index(ideal)

	removeCandidates := map[string]*tree.Node{}
	for path, n := range curIdx {
		if _, ok := idealIdx[path]; !ok {
			removeCandidates[path] = n
		}
	}
	addCandidates := map[string]*tree.Node{}
	for path, n := range idealIdx {
		if _, ok := curIdx[path]; !ok {
			addCandidates[path] = n
		}
	}

	var removes, rest []Action

	moved := matchMoves(removeCandidates, addCandidates)
	for path, old := range moved {
		rest = append(rest, Action{Kind: Move, Node: addCandidates[path], OldPath: old})
		delete(addCandidates, path)
	}

	for path, n := range removeCandidates {
		removes = append(removes, Action{Kind: Remove, Node: n, OldPath: path})
	}
	removes = filterUnconsumedRemoves(removes, moved)

	for _, n := range addCandidates {
		rest = append(rest, Action{Kind: Add, Node: n})
	}

	for path, in := range idealIdx {
		cn, ok := curIdx[path]
		if !ok {
			continue
		}
		if cn.Package.Version != in.Package.Version {
			rest = append(rest, Action{Kind: Update, Node: in, OldPath: path})
		}
	}

	sort.Slice(removes, func(i, j int) bool { return lessBottomUp(removes[i], removes[j]) })
	sort.Slice(rest, func(i, j int) bool { return lessTopDown(rest[i], rest[j]) })

	return append(removes, rest...)
}

// matchMoves pairs each add candidate with a remove candidate sharing the
// same package identity (name@version), consuming both so that the
// resulting action is a Move rather than an unrelated Remove+Add pair.
// Returns ideal-path -> consumed current-path.
func matchMoves(removeCandidates, addCandidates map[string]*tree.Node) map[string]string {
	byIdentity := map[string][]string{}
	for path, n := range removeCandidates {
		key := n.Package.String()
		byIdentity[key] = append(byIdentity[key], path)
	}
	for key := range byIdentity {
		sort.Strings(byIdentity[key])
	}

	moved := map[string]string{}
	var addPaths []string
	for path := range addCandidates {
		addPaths = append(addPaths, path)
	}
	sort.Strings(addPaths)

	for _, addPath := range addPaths {
		n := addCandidates[addPath]
		key := n.Package.String()
		candidates := byIdentity[key]
		if len(candidates) == 0 {
			continue
		}
		moved[addPath] = candidates[0]
		byIdentity[key] = candidates[1:]
	}
	return moved
}

func filterUnconsumedRemoves(removes []Action, moved map[string]string) []Action {
	consumed := map[string]bool{}
	for _, src := range moved {
		consumed[src] = true
	}
	out := removes[:0]
	for _, a := range removes {
		if !consumed[a.OldPath] {
			out = append(out, a)
		}
	}
	return out
}

func lessBottomUp(a, b Action) bool {
	da, db := depth(a.OldPath), depth(b.OldPath)
	if da != db {
		return da > db
	}
	if na, nb := nodeName(a), nodeName(b); na != nb {
		return na < nb
	}
	return a.OldPath < b.OldPath
}

func lessTopDown(a, b Action) bool {
	da, db := depth(a.Node.Path), depth(b.Node.Path)
	if da != db {
		return da < db
	}
	if na, nb := nodeName(a), nodeName(b); na != nb {
		return na < nb
	}
	return a.Node.Path < b.Node.Path
}

func nodeName(a Action) string {
	if a.Node != nil {
		return a.Node.Name
	}
	return ""
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}
