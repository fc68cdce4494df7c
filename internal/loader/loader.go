// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader expands an ideal tree from a manifest, explicit install
// arguments, and transitively resolved package metadata.
//
// Placement is hoisting with first-match pinning: before creating a node,
// the loader asks whether an ancestor-or-sibling copy already satisfies
// the requirement, and otherwise installs at the highest conflict-free
// ancestor. There is no backtracking and no constraint propagation across
// unrelated branches; the first version to claim a slot wins and later
// incompatible versions nest deeper.
package loader

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/lockfile"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/resolve"
	"github.com/npmgo/npmgo/internal/semverx"
	"github.com/npmgo/npmgo/internal/tree"
)

// Loader carries the collaborators placement needs: a resolver to turn
// specs into records, and a logger for the optional-dependency downgrade
// path.
type Loader struct {
	resolver *resolve.Resolver
	logger   *log.Logger
}

// New builds a Loader over resolver. logger may be nil.
func New(resolver *resolve.Resolver, logger *log.Logger) *Loader {
	return &Loader{resolver: resolver, logger: logger}
}

// LoadArgs installs explicit targets: each user-supplied spec is placed
// at the tree root as a top-level dependency, then its own dependencies
// are recursively expanded.
func (l *Loader) LoadArgs(ctx context.Context, root *tree.Node, args []string) error {
	for _, raw := range args {
		name, rng := splitArgSpec(raw)
		child, fresh, err := l.placeOne(ctx, root, name, rng, raw)
		if err != nil {
			return err
		}
		if fresh {
			if err := l.expand(ctx, child, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDeps expands root's declared dependencies: for each name->range in
// deps, place the dependency; a resolution failure for a name also
// present in optionalDeps is downgraded to a logged warning and the
// subtree is skipped, rather than failing the whole load.
func (l *Loader) LoadDeps(ctx context.Context, root *tree.Node, deps, optionalDeps map[string]string) error {
	root.Package.Dependencies = deps
	root.Package.OptionalDependencies = optionalDeps
	return l.loadDeclaredDeps(ctx, root)
}

// LoadDevDeps expands dev dependencies, applied only at the root. devDeps
// must already exclude names declared as runtime dependencies (the
// manifest's DevDependenciesOnly view). Each dev dependency's transitive
// tree is loaded detached (its parent link nulled for the duration of its
// own expansion) so dev-only transitives never appear as ancestors during
// a runtime placement decision.
func (l *Loader) LoadDevDeps(ctx context.Context, root *tree.Node, devDeps map[string]string) error {
	for _, name := range sortedRangeKeys(devDeps) {
		rng := devDeps[name]
		child, fresh, err := l.placeOne(ctx, root, name, rng, name+"@"+rng)
		if err != nil {
			return err
		}
		if fresh {
			if err := l.expand(ctx, child, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// placeOne resolves one requirement and places it in the tree, without
// expanding its own dependencies. name/rng drive the placement decision;
// fetchSpec is what's handed to the resolver, which may carry more
// information than name+rng alone (a git URL, a local path, a bare tag).
// fresh reports whether the returned node still needs its own
// dependencies expanded; the caller expands only after placing every
// sibling, so a node's own dependencies never steal a hoist slot from a
// later sibling declaration.
func (l *Loader) placeOne(ctx context.Context, t *tree.Node, name, rng, fetchSpec string) (node *tree.Node, fresh bool, err error) {
	rec, err := l.resolver.Resolve(ctx, fetchSpec, t.RealPath)
	if err != nil {
		return nil, false, err
	}
	if name == "" {
		name = rec.Name
	}
	matchRange := rng
	if matchRange == "" {
		matchRange = rec.Version
	}
	requested := rec.Requested
	if requested.Spec == "" {
		requested = pkgspec.Parse(fetchSpec)
	}

	if existing := requirementExists(t, name, matchRange); existing != nil {
		existing.AddRequiredBy(t)
		existing.Package.Requested.Merge(requested, existing.Package.Version)
		if existing.Loaded {
			return existing, false, nil
		}
		existing.Loaded = true
		return existing, true, nil
	}

	parent := earliestInstallable(t, name)
	rec.Name = name
	rec.Requested = requested
	child := &tree.Node{Name: name, Package: rec}
	parent.AttachChild(child)
	child.AddRequiredBy(t)
	child.Loaded = true
	return child, true, nil
}

// expand loads node's own dependencies: from its embedded lockfile if it
// carries one, otherwise by recursing through its declared runtime
// dependencies. node.Loaded is set by the caller before expand runs, so a
// dependency cycle through the registry graph terminates instead of
// recursing forever.
func (l *Loader) expand(ctx context.Context, node *tree.Node, detach bool) error {
	if detach {
		saved := node.Parent
		node.Parent = nil
		defer func() { node.Parent = saved }()
	}
	if len(node.Package.Lockfile) > 0 {
		lockfile.Inflate(node, node.Package.Lockfile)
		return nil
	}
	return l.loadDeclaredDeps(ctx, node)
}

// loadDeclaredDeps places every declared runtime dependency of node,
// including entries declared only under optionalDependencies, then expands
// the freshly placed children in a second pass. Placing all siblings before
// expanding any of them keeps declaration order authoritative for hoisting:
// a dependency's own transitives never claim a root slot a later sibling
// declaration was entitled to.
//
// A failure under an optional entry is downgraded to a warning and the
// subtree is skipped; any other failure is enriched with node's name so
// the surfaced error carries the parent chain.
func (l *Loader) loadDeclaredDeps(ctx context.Context, node *tree.Node) error {
	deps := make(map[string]string, len(node.Package.Dependencies)+len(node.Package.OptionalDependencies))
	for name, rng := range node.Package.Dependencies {
		deps[name] = rng
	}
	for name, rng := range node.Package.OptionalDependencies {
		if _, ok := deps[name]; !ok {
			deps[name] = rng
		}
	}

	var pending []*tree.Node
	for _, name := range sortedRangeKeys(deps) {
		rng := deps[name]
		child, fresh, err := l.placeOne(ctx, node, name, rng, name+"@"+rng)
		if err != nil {
			if _, optional := node.Package.OptionalDependencies[name]; optional {
				l.warnf("warning: %v", &errs.OptionalFailure{Name: name, Err: err})
				continue
			}
			if node.Name != "" {
				err = errs.Enrich(err, node.Name)
			}
			return err
		}
		if fresh {
			pending = append(pending, child)
		}
	}

	for _, child := range pending {
		if err := l.expand(ctx, child, false); err != nil {
			if _, optional := node.Package.OptionalDependencies[child.Name]; optional {
				l.warnf("warning: %v", &errs.OptionalFailure{Name: child.Name, Err: err})
				pruneOptional(child)
				continue
			}
			if node.Name != "" {
				err = errs.Enrich(err, node.Name)
			}
			return err
		}
	}
	return nil
}

// pruneOptional detaches a partially loaded optional child, and with it
// everything nested beneath it, after a failure during its expansion.
// Transitives that were hoisted to an ancestor above the child stay in
// the tree.
func pruneOptional(child *tree.Node) {
	if child.Parent != nil {
		child.Parent.DetachChild(child)
		child.Parent = nil
	}
}

func (l *Loader) warnf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}

// requirementExists walks from t upward (t itself, then its ancestors)
// looking for an existing copy of name that satisfies rng. At each
// visited node, a same-named ancestor or a same-named child of that
// ancestor either satisfies rng (a hit) or does not (a conflict, which
// stops the search immediately and reports no match, exactly as an
// unrelated miss would): a conflict at any level, not just the nearest
// one, means a fresh copy is needed.
func requirementExists(t *tree.Node, name, rng string) *tree.Node {
	var found *tree.Node
	t.WalkAncestors(func(a *tree.Node) bool {
		if a.Name == name {
			if semverx.Satisfies(a.Package.Version, rng) {
				found = a
			}
			return false
		}
		if c := a.FindChildByName(name); c != nil {
			if semverx.Satisfies(c.Package.Version, rng) {
				found = c
			}
			return false
		}
		return true
	})
	return found
}

// earliestInstallable picks the hoist target for a new copy of name: the
// highest ancestor of t that has neither a child named name nor is itself
// named name. A same-named ancestor is returned directly (the new copy
// nests under it); a conflicting child at some ancestor stops the climb
// there, placing the new node at the highest clear level below the
// conflict (t itself, if nothing above it is clear).
func earliestInstallable(t *tree.Node, name string) *tree.Node {
	highest := t
	for cur := t.Parent; cur != nil; cur = cur.Parent {
		if cur.Name == name {
			return cur
		}
		if cur.FindChildByName(name) != nil {
			return highest
		}
		highest = cur
	}
	return highest
}

// splitArgSpec separates an install argument into a placement name/range
// pair. git URLs, remote tarball URLs, local paths and hosted shorthands
// carry no separable name prefix; for those the resolver determines the
// canonical name, and the record's own resolved version stands in as the
// match range (placeOne falls back to rec.Version whenever rng is empty).
func splitArgSpec(raw string) (name, rng string) {
	switch pkgspec.Parse(raw).Kind {
	case pkgspec.Git, pkgspec.Remote, pkgspec.Local, pkgspec.Hosted:
		return "", ""
	}
	if strings.HasPrefix(raw, "@") {
		if idx := strings.Index(raw[1:], "@"); idx >= 0 {
			return raw[:idx+1], raw[idx+2:]
		}
		return raw, "latest"
	}
	if idx := strings.Index(raw, "@"); idx > 0 {
		return raw[:idx], raw[idx+1:]
	}
	return raw, "latest"
}

func sortedRangeKeys(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
