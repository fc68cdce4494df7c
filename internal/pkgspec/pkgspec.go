// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pkgspec models the package spec forms a user or manifest can
// write (version, range, tag, local folder, tarball, git URL, owner/repo
// shorthand) and the resolved package record the metadata resolver
// produces from them.
package pkgspec

import (
	"fmt"
	"strings"

	"github.com/npmgo/npmgo/internal/semverx"
)

// Kind classifies how a package was asked for.
type Kind uint8

const (
	Version Kind = iota
	Range
	Tag
	Local
	Remote
	Git
	Hosted
)

func (k Kind) String() string {
	switch k {
	case Version:
		return "version"
	case Range:
		return "range"
	case Tag:
		return "tag"
	case Local:
		return "local"
	case Remote:
		return "remote"
	case Git:
		return "git"
	case Hosted:
		return "hosted"
	default:
		return "unknown"
	}
}

// Requested is the descriptor a package was asked for under: a tagged
// kind plus the original spec string, with a separate Constraints list
// that accumulates further specs as placement unions new requirements
// onto an already-placed node.
type Requested struct {
	Spec        string
	Kind        Kind
	Constraints []string
}

// Merge folds another requested descriptor of the same package into this
// one: adopt the incoming descriptor if the already-resolved version still
// satisfies it, accumulating the new spec as an additional constraint;
// otherwise pin to the resolved version.
func (r *Requested) Merge(incoming Requested, resolvedVersion string) {
	if r.Spec == "" {
		*r = incoming
		return
	}
	if r.Spec == incoming.Spec {
		return
	}
	if incoming.Kind == Range || incoming.Kind == Version {
		if semverx.Satisfies(resolvedVersion, incoming.Spec) {
			r.Constraints = append(r.Constraints, incoming.Spec)
			r.Spec = strings.Join(append([]string{r.Spec}, incoming.Spec), " ")
			r.Kind = Range
			return
		}
	}
	// Incoming doesn't admit the already-resolved version: pin the combined
	// requested to exactly what's on disk.
	r.Spec = resolvedVersion
	r.Kind = Version
}

// Parse classifies a raw spec string into a Kind. Classification order
// matters: the more specific syntactic forms (URLs, paths, git) are tried
// before falling back to the open-ended version/range/tag forms.
func Parse(raw string) Requested {
	switch {
	case strings.HasPrefix(raw, "git+") || strings.HasSuffix(raw, ".git") ||
		strings.Contains(raw, "git://"):
		return Requested{Spec: raw, Kind: Git}
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		if strings.HasSuffix(raw, ".tgz") || strings.HasSuffix(raw, ".tar.gz") {
			return Requested{Spec: raw, Kind: Remote}
		}
		return Requested{Spec: raw, Kind: Remote}
	case strings.HasPrefix(raw, "file:") || strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") || strings.HasPrefix(raw, "/"):
		return Requested{Spec: raw, Kind: Local}
	case strings.HasSuffix(raw, ".tgz") || strings.HasSuffix(raw, ".tar.gz"):
		return Requested{Spec: raw, Kind: Local}
	case looksHosted(raw):
		return Requested{Spec: raw, Kind: Hosted}
	case semverx.IsVersion(raw):
		return Requested{Spec: raw, Kind: Version}
	case semverx.Valid(raw):
		return Requested{Spec: raw, Kind: Range}
	default:
		return Requested{Spec: raw, Kind: Tag}
	}
}

// looksHosted recognizes the "owner/repo" shorthand spec kind: exactly one
// slash, no scheme, no dot-leading path segment.
func looksHosted(raw string) bool {
	if strings.Count(raw, "/") != 1 {
		return false
	}
	parts := strings.SplitN(raw, "/", 2)
	if parts[0] == "" || parts[1] == "" {
		return false
	}
	if strings.HasPrefix(parts[0], ".") {
		return false
	}
	return !strings.ContainsAny(raw, ":@")
}

// Record is a resolved package: what the metadata resolver hands back
// from a spec.
type Record struct {
	Name      string
	Version   string
	Requested Requested
	// Lockfile holds this package's own pinned dependency map, if the
	// fetched metadata embedded one.
	Lockfile map[string]LockedDep
	// Dependencies and OptionalDependencies are this package's own declared
	// runtime/optional dependency ranges, the way registry metadata or a
	// fetched manifest reports them; the loader recurses through these the
	// same way it does through the root manifest's.
	Dependencies         map[string]string
	OptionalDependencies map[string]string
	// Dist is the distribution reference the fetcher/extractor need to
	// materialize this package (tarball URL, git remote, local path...).
	Dist string
}

func (r Record) String() string {
	return fmt.Sprintf("%s@%s", r.Name, r.Version)
}

// LockedDep is one entry of an embedded or standalone lockfile dependency
// map: name -> {version, dependencies?}, recursively.
type LockedDep struct {
	Version      string
	Dependencies map[string]LockedDep
}
