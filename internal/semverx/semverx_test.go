// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package semverx

import "testing"

func TestSatisfies(t *testing.T) {
	cases := []struct {
		version, rng string
		want         bool
	}{
		{"1.2.3", "^1.0.0", true},
		{"2.0.0", "^1.0.0", false},
		{"1.2.3", "1.2.3", true},
		{"1.5.0", ">=1.0.0, <2.0.0", true},
		{"0.1.2", "~0.1.0", true},
		{"0.2.0", "~0.1.0", false},
		// Non-semver tags fall back to literal comparison.
		{"latest", "latest", true},
		{"1.2.3", "latest", false},
	}
	for _, c := range cases {
		if got := Satisfies(c.version, c.rng); got != c.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", c.version, c.rng, got, c.want)
		}
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		s    string
		want bool
	}{
		{"^1.0.0", true},
		{"1.2.3", true},
		{"1.x", true},
		{"latest", false},
		{"./local/path", false},
	}
	for _, c := range cases {
		if got := Valid(c.s); got != c.want {
			t.Errorf("Valid(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestIsVersion(t *testing.T) {
	cases := []struct {
		s    string
		want bool
	}{
		{"1.2.3", true},
		{"v1.2.3", true},
		{"^1.0.0", false},
		{"1.x", false},
	}
	for _, c := range cases {
		if got := IsVersion(c.s); got != c.want {
			t.Errorf("IsVersion(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.10.0", "1.9.0", 1},
		{"alpha", "beta", -1},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
