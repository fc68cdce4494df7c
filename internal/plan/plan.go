// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plan decomposes differ actions into per-phase work entries.
package plan

import "github.com/npmgo/npmgo/internal/diff"

// Phase names one lifecycle stage of an install.
type Phase string

const (
	Fetch       Phase = "fetch"
	Extract     Phase = "extract"
	Preinstall  Phase = "preinstall"
	Build       Phase = "build"
	Remove      Phase = "remove"
	Finalize    Phase = "finalize"
	Install     Phase = "install"
	Postinstall Phase = "postinstall"
	Test        Phase = "test"
)

// Order is the fixed phase ordering: all entries of one phase complete
// before any entry of the next phase starts.
var Order = []Phase{Fetch, Extract, Preinstall, Build, Remove, Finalize, Install, Postinstall, Test}

var parallel = map[Phase]bool{
	Fetch: true, Extract: true, Preinstall: true, Build: true, Remove: true,
	Finalize: false, Install: false, Postinstall: false,
	Test: true,
}

// IsParallel reports whether ph runs with bounded concurrency (true) or
// serially in differ order (false).
func IsParallel(ph Phase) bool { return parallel[ph] }

// Entry is one (phase, action) pairing to execute.
type Entry struct {
	Phase  Phase
	Action diff.Action
}

// Decompose expands actions into phase entries. npat gates the test
// phase.
func Decompose(actions []diff.Action, npat bool) []Entry {
	var entries []Entry
	for _, ph := range Order {
		if ph == Test && !npat {
			continue
		}
		for _, a := range actions {
			if applies(ph, a.Kind) {
				entries = append(entries, Entry{Phase: ph, Action: a})
			}
		}
	}
	return entries
}

func applies(ph Phase, kind diff.Kind) bool {
	switch ph {
	case Fetch, Extract, Preinstall, Build, Install, Postinstall, Test:
		return kind == diff.Add || kind == diff.Update
	case Remove:
		return kind == diff.Remove || kind == diff.Update
	case Finalize:
		return kind == diff.Add || kind == diff.Update || kind == diff.Move
	default:
		return false
	}
}

// GroupByPhase buckets entries by phase, preserving each phase's internal
// emission order (which for serial phases is the differ's own ordering).
func GroupByPhase(entries []Entry) map[Phase][]Entry {
	out := make(map[Phase][]Entry)
	for _, e := range entries {
		out[e.Phase] = append(out[e.Phase], e)
	}
	return out
}
