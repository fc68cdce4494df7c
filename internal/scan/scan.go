// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan builds the current tree by walking the on-disk
// node_modules hierarchy.
package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/fsutil"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/tree"
)

// Scan builds a current tree rooted at projectPath by recursively reading
// each node_modules directory it finds.
func Scan(projectPath string) (*tree.Node, error) {
	root := tree.NewRoot(projectPath)
	if err := scanChildren(root); err != nil {
		return nil, err
	}
	return root, nil
}

func scanChildren(parent *tree.Node) error {
	nmDir := filepath.Join(parent.RealPath, "node_modules")
	isDir, err := fsutil.IsDir(nmDir)
	if err != nil {
		return &errs.IOError{Op: "stat", Path: nmDir, Err: err}
	}
	if !isDir {
		return nil
	}

	var pkgNames []string
	walkErr := godirwalk.Walk(nmDir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if osPathname == nmDir {
				return nil
			}
			if !de.IsDir() {
				// Stray files (lock files, .package-lock.json) are not
				// packages; skipping them must not skip their siblings.
				return nil
			}
			rel, relErr := filepath.Rel(nmDir, osPathname)
			if relErr != nil {
				return relErr
			}
			base := filepath.Base(osPathname)
			depth := strings.Count(filepath.ToSlash(rel), "/")

			// .staging, .bin and friends are tool scratch space, not
			// installed packages.
			if depth == 0 && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			if depth == 0 && strings.HasPrefix(base, "@") {
				// Scoped namespace directory: descend one more level to find
				// the actual package directories beneath it.
				return nil
			}
			if depth == 1 && !strings.HasPrefix(filepath.Base(filepath.Dir(osPathname)), "@") {
				// A directory nested under a non-scope package: this is that
				// package's own node_modules (or deeper), not a sibling
				// package; it's picked up by this package's own recursive
				// scanChildren call instead.
				return filepath.SkipDir
			}

			pkgNames = append(pkgNames, filepath.ToSlash(rel))
			return filepath.SkipDir
		},
	})
	if walkErr != nil {
		return &errs.IOError{Op: "walk", Path: nmDir, Err: walkErr}
	}

	for _, name := range pkgNames {
		pkgDir := filepath.Join(nmDir, filepath.FromSlash(name))
		version := readVersion(pkgDir)
		child := &tree.Node{
			Name: name,
			Package: pkgspec.Record{
				Name:    name,
				Version: version,
			},
			Loaded: true,
		}
		parent.AttachChild(child)
		if err := scanChildren(child); err != nil {
			return err
		}
	}
	return nil
}

// readVersion reads just the version field of a package's manifest,
// tolerating a missing or malformed package.json (an on-disk package with
// no readable version is still a real node the differ must see removed or
// reconciled; its exact version just can't be compared, so it always shows
// up as changed against the ideal tree).
func readVersion(pkgDir string) string {
	f, err := os.Open(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return ""
	}
	defer f.Close()

	var v struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(f).Decode(&v); err != nil {
		return ""
	}
	return v.Version
}
