// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsutil collects the small filesystem predicates and
// project-root discovery helpers the driver needs.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// IsRegular reports whether name exists and is a regular file.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, errors.Errorf("%q is a directory, not a file", name)
	}
	return true, nil
}

// IsDir reports whether name exists and is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// FindProjectRoot searches upward from the working directory for a
// directory containing manifestName.
func FindProjectRoot(manifestName string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "getting working directory")
	}
	return findProjectRootFrom(wd, manifestName)
}

func findProjectRootFrom(from, manifestName string) (string, error) {
	for {
		mp := filepath.Join(from, manifestName)
		if _, err := os.Stat(mp); err == nil {
			return from, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(from)
		if parent == from {
			return "", errors.Errorf("could not find %s in any parent directory", manifestName)
		}
		from = parent
	}
}
