// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package semverx adapts github.com/Masterminds/semver for the range
// satisfaction checks the installer performs during placement and
// resolution, with a literal-comparison fallback so non-semver tags
// ("latest", "next") stay usable.
package semverx

import (
	"github.com/Masterminds/semver"
)

// Satisfies reports whether version satisfies rng. A version that fails
// to parse as semver is compared literally against the range string
// instead, which keeps odd tags (e.g. "latest", "next") usable.
func Satisfies(version, rng string) bool {
	v, verr := semver.NewVersion(version)
	c, cerr := semver.NewConstraint(rng)
	if verr != nil || cerr != nil {
		return version == rng
	}
	return c.Check(v)
}

// Valid reports whether s parses as a semver constraint at all; used to
// distinguish a range spec from a tag/local/remote spec during parsing.
func Valid(s string) bool {
	_, err := semver.NewConstraint(s)
	return err == nil
}

// IsVersion reports whether s is a single concrete version rather than a
// range.
func IsVersion(s string) bool {
	_, err := semver.NewVersion(s)
	return err == nil
}

// Compare orders two concrete version strings, returning -1, 0 or 1 as a
// is older than, equal to or newer than b, falling back to a lexical
// comparison for non-semver tags.
func Compare(a, b string) int {
	va, aerr := semver.NewVersion(a)
	vb, berr := semver.NewVersion(b)
	if aerr != nil || berr != nil {
		switch {
		case a == b:
			return 0
		case a < b:
			return -1
		default:
			return 1
		}
	}
	return va.Compare(vb)
}
