// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler executes a decomposed action plan against a staging
// directory, phase by phase: parallel phases fan out under an
// errgroup.Group bounded by a semaphore channel, serial phases run in
// differ order, and finalized packages move from `.staging` into the real
// tree.
package scheduler

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/termie/go-shutil"
	"golang.org/x/sync/errgroup"

	"github.com/npmgo/npmgo/internal/diff"
	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/plan"
	"github.com/npmgo/npmgo/internal/script"
	"github.com/npmgo/npmgo/internal/tree"
)

// Extractor is the tarball extractor collaborator.
type Extractor interface {
	Extract(ctx context.Context, tarballPath, destDir string) error
}

// TarballFetcher is the subset of the resolver the scheduler needs during
// the fetch phase.
type TarballFetcher interface {
	FetchTarball(ctx context.Context, record pkgspec.Record, dest string) error
}

// Scheduler runs a decomposed action plan against root (the real
// node_modules directory), staging work in root/.staging.
type Scheduler struct {
	Fetcher     TarballFetcher
	Extractor   Extractor
	Scripts     script.ScriptRunner
	Concurrency int
	Logger      *log.Logger
}

func (s *Scheduler) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return 10
}

func (s *Scheduler) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Run executes entries phase by phase in plan.Order. On any phase
// failure, remaining phases are aborted, staging is cleaned up
// best-effort, and the original error is returned.
func (s *Scheduler) Run(ctx context.Context, entries []plan.Entry, root string) error {
	staging := filepath.Join(root, ".staging")
	if err := os.RemoveAll(staging); err != nil {
		return &errs.IOError{Op: "removeall", Path: staging, Err: err}
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return &errs.IOError{Op: "mkdirall", Path: staging, Err: err}
	}

	byPhase := plan.GroupByPhase(entries)
	for _, ph := range plan.Order {
		group := byPhase[ph]
		if len(group) == 0 {
			continue
		}
		var err error
		if plan.IsParallel(ph) {
			err = s.runParallel(ctx, ph, group, staging, root)
		} else {
			err = s.runSerial(ctx, ph, group, staging, root)
		}
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				s.logf("cleanup of %s after failure: %v", staging, rmErr)
			}
			return err
		}
	}
	return os.RemoveAll(staging)
}

func (s *Scheduler) runParallel(ctx context.Context, ph plan.Phase, group []plan.Entry, staging, root string) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.concurrency())
	for _, e := range group {
		e := e
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			return s.runEntry(gctx, e, staging, root)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runSerial(ctx context.Context, ph plan.Phase, group []plan.Entry, staging, root string) error {
	for _, e := range group {
		if err := s.runEntry(ctx, e, staging, root); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runEntry(ctx context.Context, e plan.Entry, staging, root string) error {
	node := e.Action.Node
	switch e.Phase {
	case plan.Fetch:
		return s.fetch(ctx, node, staging, root)
	case plan.Extract:
		return s.extract(ctx, node, staging, root)
	case plan.Preinstall:
		return s.runScript(ctx, "preinstall", node, s.stagingPath(staging, root, node.Path))
	case plan.Build:
		return s.runScript(ctx, "build", node, s.stagingPath(staging, root, node.Path))
	case plan.Remove:
		return s.remove(e.Action)
	case plan.Finalize:
		return s.finalize(e.Action, staging, root)
	case plan.Install:
		return s.runScript(ctx, "install", node, node.RealPath)
	case plan.Postinstall:
		return s.runScript(ctx, "postinstall", node, node.RealPath)
	case plan.Test:
		return s.runScript(ctx, "test", node, node.RealPath)
	}
	return nil
}

func (s *Scheduler) runScript(ctx context.Context, phase string, node *tree.Node, realpath string) error {
	if err := s.Scripts.RunLifecycle(ctx, phase, node.Package, realpath); err != nil {
		return &errs.LifecycleError{Phase: phase, Name: node.Name, Err: err}
	}
	return nil
}

func (s *Scheduler) fetch(ctx context.Context, node *tree.Node, staging, root string) error {
	dest := s.stagingPath(staging, root, node.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &errs.IOError{Op: "mkdirall", Path: dest, Err: err}
	}
	if err := s.Fetcher.FetchTarball(ctx, node.Package, dest+".tgz"); err != nil {
		return &errs.FetchError{Name: node.Name, Err: err}
	}
	return nil
}

func (s *Scheduler) extract(ctx context.Context, node *tree.Node, staging, root string) error {
	dest := s.stagingPath(staging, root, node.Path)
	if err := s.Extractor.Extract(ctx, dest+".tgz", dest); err != nil {
		return &errs.ExtractError{Name: node.Name, Err: err}
	}
	return nil
}

func (s *Scheduler) remove(a diff.Action) error {
	target := a.Node.Path
	if a.OldPath != "" {
		target = a.OldPath
	}
	if err := os.RemoveAll(target); err != nil {
		return &errs.IOError{Op: "removeall", Path: target, Err: err}
	}
	return nil
}

func (s *Scheduler) finalize(a diff.Action, staging, root string) error {
	dest := a.Node.Path
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &errs.IOError{Op: "mkdirall", Path: dest, Err: err}
	}
	if a.Kind == diff.Move {
		if err := os.RemoveAll(dest); err != nil {
			return &errs.IOError{Op: "removeall", Path: dest, Err: err}
		}
		if err := os.Rename(a.OldPath, dest); err != nil {
			return &errs.IOError{Op: "rename", Path: dest, Err: errors.Wrapf(err, "moving %s to %s", a.OldPath, dest)}
		}
		return nil
	}

	src := s.stagingPath(staging, root, dest)
	if err := os.RemoveAll(dest); err != nil {
		return &errs.IOError{Op: "removeall", Path: dest, Err: err}
	}
	if err := shutil.CopyTree(src, dest, nil); err != nil {
		return &errs.IOError{Op: "copytree", Path: dest, Err: errors.Wrapf(err, "finalizing %s", a.Node.Name)}
	}
	return os.RemoveAll(src)
}

// stagingPath maps a real node_modules path onto its scratch location
// under staging. The relative path is flattened to a single component so
// that a nested package's staging directory is never inside its parent's:
// finalize moves one package at a time and must not take staged children
// with it.
func (s *Scheduler) stagingPath(staging, root, realPath string) string {
	rel := strings.TrimPrefix(realPath, root)
	rel = strings.Trim(rel, string(os.PathSeparator))
	return filepath.Join(staging, strings.ReplaceAll(rel, string(os.PathSeparator), "_"))
}
