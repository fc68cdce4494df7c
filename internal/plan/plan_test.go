// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plan

import (
	"testing"

	"github.com/npmgo/npmgo/internal/diff"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/tree"
)

func action(kind diff.Kind, name string) diff.Action {
	n := &tree.Node{Name: name, Package: pkgspec.Record{Name: name, Version: "1.0.0"}}
	return diff.Action{Kind: kind, Node: n}
}

func phasesOf(entries []Entry) []Phase {
	out := make([]Phase, len(entries))
	for i, e := range entries {
		out[i] = e.Phase
	}
	return out
}

func TestDecomposeAdd(t *testing.T) {
	entries := Decompose([]diff.Action{action(diff.Add, "a")}, false)
	want := []Phase{Fetch, Extract, Preinstall, Build, Finalize, Install, Postinstall}
	got := phasesOf(entries)
	if len(got) != len(want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phases = %v, want %v", got, want)
		}
	}
}

func TestDecomposeRemove(t *testing.T) {
	entries := Decompose([]diff.Action{action(diff.Remove, "a")}, false)
	if len(entries) != 1 || entries[0].Phase != Remove {
		t.Fatalf("remove decomposes to %v, want just the remove phase", phasesOf(entries))
	}
}

func TestDecomposeMove(t *testing.T) {
	entries := Decompose([]diff.Action{action(diff.Move, "a")}, false)
	if len(entries) != 1 || entries[0].Phase != Finalize {
		t.Fatalf("move decomposes to %v, want just finalize", phasesOf(entries))
	}
}

func TestDecomposeUpdateSharesOneRecord(t *testing.T) {
	// An update participates in both the remove phase and the add-shaped
	// phases, sharing a single node.
	entries := Decompose([]diff.Action{action(diff.Update, "x")}, false)
	var sawRemove, sawFetch, sawFinalize bool
	for _, e := range entries {
		switch e.Phase {
		case Remove:
			sawRemove = true
		case Fetch:
			sawFetch = true
		case Finalize:
			sawFinalize = true
		}
		if e.Action.Node.Name != "x" {
			t.Fatalf("entry for %s, want every entry keyed by the same node", e.Action.Node.Name)
		}
	}
	if !sawRemove || !sawFetch || !sawFinalize {
		t.Fatalf("update missing phases: remove=%v fetch=%v finalize=%v", sawRemove, sawFetch, sawFinalize)
	}
}

func TestDecomposeTestPhaseGating(t *testing.T) {
	withOut := Decompose([]diff.Action{action(diff.Add, "a")}, false)
	for _, e := range withOut {
		if e.Phase == Test {
			t.Fatal("test phase emitted without npat")
		}
	}
	with := Decompose([]diff.Action{action(diff.Add, "a")}, true)
	var sawTest bool
	for _, e := range with {
		if e.Phase == Test {
			sawTest = true
		}
	}
	if !sawTest {
		t.Fatal("test phase missing with npat enabled")
	}
}

func TestDecomposePhaseOrderingAcrossActions(t *testing.T) {
	actions := []diff.Action{action(diff.Add, "a"), action(diff.Update, "b"), action(diff.Remove, "c")}
	entries := Decompose(actions, true)

	rank := map[Phase]int{}
	for i, ph := range Order {
		rank[ph] = i
	}
	for i := 1; i < len(entries); i++ {
		if rank[entries[i].Phase] < rank[entries[i-1].Phase] {
			t.Fatalf("entry %d (%s) ordered before %s", i, entries[i].Phase, entries[i-1].Phase)
		}
	}
}

func TestIsParallel(t *testing.T) {
	serial := []Phase{Finalize, Install, Postinstall}
	for _, ph := range serial {
		if IsParallel(ph) {
			t.Errorf("%s should be serial", ph)
		}
	}
	parallel := []Phase{Fetch, Extract, Preinstall, Build, Remove, Test}
	for _, ph := range parallel {
		if !IsParallel(ph) {
			t.Errorf("%s should be parallel", ph)
		}
	}
}

func TestGroupByPhasePreservesOrder(t *testing.T) {
	actions := []diff.Action{action(diff.Add, "a"), action(diff.Add, "b")}
	groups := GroupByPhase(Decompose(actions, false))
	fin := groups[Finalize]
	if len(fin) != 2 || fin[0].Action.Node.Name != "a" || fin[1].Action.Node.Name != "b" {
		t.Fatalf("finalize group order broken: %v", fin)
	}
}
