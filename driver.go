// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import (
	"context"
	"os"
	"path/filepath"

	"github.com/npmgo/npmgo/internal/diff"
	"github.com/npmgo/npmgo/internal/difffmt"
	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/fsutil"
	"github.com/npmgo/npmgo/internal/instlock"
	"github.com/npmgo/npmgo/internal/loader"
	"github.com/npmgo/npmgo/internal/lockfile"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/plan"
	"github.com/npmgo/npmgo/internal/resolve"
	"github.com/npmgo/npmgo/internal/scan"
	"github.com/npmgo/npmgo/internal/scheduler"
	"github.com/npmgo/npmgo/internal/tree"
	"github.com/npmgo/npmgo/internal/validate"
)

// Driver composes the install pipeline end to end: it acquires a lock,
// loads the on-disk tree, clones it to seed the ideal tree, applies the
// lockfile or expands dependencies, validates, diffs, decomposes, and
// schedules.
type Driver struct {
	Config    *Config
	Fetcher   Fetcher
	Extractor Extractor
	Scripts   ScriptRunner
}

// NewDriver builds a Driver over its external collaborators.
func NewDriver(cfg *Config, fetcher Fetcher, extractor Extractor, scripts ScriptRunner) *Driver {
	return &Driver{Config: cfg, Fetcher: fetcher, Extractor: extractor, Scripts: scripts}
}

// Install runs the pipeline against the default project location: the
// nearest ancestor of the working directory containing a manifest.
func (d *Driver) Install(ctx context.Context, args []string) error {
	return d.InstallInto(ctx, "", args)
}

// InstallInto runs the pipeline rooted at where, the internal form used
// when the driver recurses for a nested install. An empty where resolves
// to the nearest ancestor manifest directory. In the default (non-global)
// form, any arg resolving to the target directory itself is discarded to
// prevent self-installation.
func (d *Driver) InstallInto(ctx context.Context, where string, args []string) error {
	root := where
	if root == "" {
		found, err := fsutil.FindProjectRoot(ManifestName)
		if err != nil {
			root, err = os.Getwd()
			if err != nil {
				return &errs.IOError{Op: "getwd", Path: "", Err: err}
			}
		} else {
			root = found
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return &errs.IOError{Op: "abs", Path: root, Err: err}
	}

	if !d.Config.Global {
		args = filterSelfArgs(root, args)
	}

	nodeModules := filepath.Join(root, "node_modules")
	if err := os.MkdirAll(nodeModules, 0o755); err != nil {
		return &errs.IOError{Op: "mkdirall", Path: nodeModules, Err: err}
	}

	lock, err := instlock.Acquire(nodeModules, ".staging")
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			d.Config.log("releasing lock: %v", relErr)
		}
	}()

	manifest, err := d.loadManifest(root)
	if err != nil {
		return err
	}
	lf, err := d.loadLockfile(root, manifest)
	if err != nil {
		return err
	}

	current, err := scan.Scan(root)
	if err != nil {
		return err
	}
	ideal := tree.CloneTree(current)

	resolver := resolve.New(d.Fetcher, d.Config.Logger)
	ld := loader.New(resolver, d.Config.Logger)

	if len(args) > 0 {
		if err := ld.LoadArgs(ctx, ideal, args); err != nil {
			return err
		}
	} else {
		if lf != nil {
			lockfile.Inflate(ideal, lf.Dependencies)
		} else if err := ld.LoadDeps(ctx, ideal, manifest.RuntimeDependencies(), manifest.OptionalDependencies()); err != nil {
			return err
		}
		if d.Config.includeDev() {
			if err := ld.LoadDevDeps(ctx, ideal, manifest.DevDependenciesOnly()); err != nil {
				return err
			}
		}
	}

	if err := validate.Tree(ideal); err != nil {
		return err
	}

	actions := diff.Diff(current, ideal)

	if d.Config.DryRun {
		rendered, err := difffmt.Format(actions)
		if err != nil {
			return err
		}
		d.Config.log("%s", rendered)
		return nil
	}

	entries := plan.Decompose(actions, d.Config.Npat)
	sched := &scheduler.Scheduler{
		Fetcher:     resolver,
		Extractor:   d.Extractor,
		Scripts:     d.Scripts,
		Concurrency: d.Config.concurrency(),
		Logger:      d.Config.Logger,
	}
	if err := sched.Run(ctx, entries, nodeModules); err != nil {
		return err
	}

	if len(args) == 0 {
		return d.runRootLifecycle(ctx, root)
	}
	return nil
}

// runRootLifecycle runs the root package's own lifecycle hooks after the
// main pipeline completes. These are independent of the staged tree.
func (d *Driver) runRootLifecycle(ctx context.Context, root string) error {
	phases := []string{"preinstall", "build", "postinstall"}
	if d.Config.Npat {
		phases = append(phases, "test")
	}
	if !d.Config.Production {
		phases = append(phases, "prepublish")
	}
	for _, phase := range phases {
		if err := d.Scripts.RunLifecycle(ctx, phase, pkgspec.Record{}, root); err != nil {
			return &errs.LifecycleError{Phase: phase, Name: "", Err: err}
		}
	}
	return nil
}

func (d *Driver) loadManifest(root string) (*Manifest, error) {
	mp := filepath.Join(root, ManifestName)
	ok, err := fsutil.IsRegular(mp)
	if err != nil {
		return nil, &errs.IOError{Op: "stat", Path: mp, Err: err}
	}
	if !ok {
		// An absent manifest at the root is an empty one.
		return &Manifest{}, nil
	}
	f, err := os.Open(mp)
	if err != nil {
		return nil, &errs.IOError{Op: "open", Path: mp, Err: err}
	}
	defer f.Close()
	return ReadManifest(f)
}

// loadLockfile returns the pinned dependency graph in effect for this
// install: a standalone shrinkwrap file beside the manifest wins over a
// shrinkwrap embedded in the manifest itself; nil when neither exists.
func (d *Driver) loadLockfile(root string, manifest *Manifest) (*Lockfile, error) {
	lp := filepath.Join(root, LockName)
	ok, err := fsutil.IsRegular(lp)
	if err != nil {
		return nil, &errs.IOError{Op: "stat", Path: lp, Err: err}
	}
	if !ok {
		return manifest.Shrinkwrap, nil
	}
	f, err := os.Open(lp)
	if err != nil {
		return nil, &errs.IOError{Op: "open", Path: lp, Err: err}
	}
	defer f.Close()
	return ReadLockfile(f)
}

// filterSelfArgs drops any argument that resolves to root itself, so a
// non-global install never tries to install the project into itself.
func filterSelfArgs(root string, args []string) []string {
	out := args[:0]
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err == nil && abs == root {
			continue
		}
		out = append(out, a)
	}
	return out
}
