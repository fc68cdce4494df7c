// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve is the metadata resolver: a thin wrapper over the
// fetcher that normalizes whatever a user or manifest wrote into a
// resolved package record before the rest of the pipeline touches it.
// Deciding whether a resolved version satisfies a constraint is the
// loader's job, not the resolver's.
package resolve

import (
	"context"
	"log"
	"sync"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
)

// Fetcher is the registry/network collaborator consumed by Resolve. The
// installer core never talks to a registry directly; it only ever calls
// through this interface.
type Fetcher interface {
	// FetchMetadata normalizes spec into a resolved package record.
	// contextPath is the directory a local-folder spec is relative to.
	FetchMetadata(ctx context.Context, spec string, contextPath string, log *log.Logger) (pkgspec.Record, error)
	// FetchTarball materializes record's distribution into dest.
	FetchTarball(ctx context.Context, record pkgspec.Record, dest string) error
}

// Resolver wraps a Fetcher with per-run memoization, so equivalent spec
// strings resolve identically within one install. Safe for concurrent
// use.
type Resolver struct {
	fetcher Fetcher
	logger  *log.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	record pkgspec.Record
	err    error
}

// New creates a Resolver over fetcher. logger may be nil.
func New(fetcher Fetcher, logger *log.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]cacheEntry),
	}
}

// Resolve normalizes spec into a resolved package record. contextPath
// anchors local-folder specs.
func (r *Resolver) Resolve(ctx context.Context, spec, contextPath string) (pkgspec.Record, error) {
	key := contextPath + "\x00" + spec
	r.mu.Lock()
	if e, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return e.record, e.err
	}
	r.mu.Unlock()

	rec, err := r.fetcher.FetchMetadata(ctx, spec, contextPath, r.logger)
	if err != nil {
		err = &errs.ResolveError{Spec: spec, Err: err}
	}

	r.mu.Lock()
	r.cache[key] = cacheEntry{record: rec, err: err}
	r.mu.Unlock()

	return rec, err
}

// FetchTarball delegates to the underlying fetcher, wrapping failures as
// FetchError.
func (r *Resolver) FetchTarball(ctx context.Context, record pkgspec.Record, dest string) error {
	if err := r.fetcher.FetchTarball(ctx, record, dest); err != nil {
		return &errs.FetchError{Name: record.Name, Err: err}
	}
	return nil
}
