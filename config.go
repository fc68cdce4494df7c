// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import "log"

// Config is the explicit configuration struct threaded through the driver
// and its collaborators; there is deliberately no process-wide config
// global.
type Config struct {
	// Global turns off the filter that drops install arguments resolving to
	// the project root itself. It does not change the install location,
	// which is always the project tree.
	Global bool
	// Dev includes the root manifest's devDependencies.
	Dev bool
	// Production excludes devDependencies even if Dev would otherwise
	// include them.
	Production bool
	// Unicode is recorded from the -unicode flag; nothing in the installer
	// reads it, so it has no effect on output.
	Unicode bool
	// Npat enables the test lifecycle phase after each install.
	Npat bool
	// DryRun runs the planner and writes the action plan, rendered via
	// internal/difffmt, to Logger without executing it (the -n flag). With a
	// nil Logger the plan is not printed.
	DryRun bool
	// Concurrency bounds the number of outstanding tasks within a parallel
	// phase; zero means the default of 10.
	Concurrency int
	// Logger receives trace/verbose output from the loader and scheduler.
	// Never a package-level global, per the Design Notes.
	Logger *log.Logger
}

// concurrency returns the effective bounded-parallelism limit.
func (c Config) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return 10
}

// includeDev reports whether dev dependencies should be loaded for this run.
func (c Config) includeDev() bool {
	return c.Dev && !c.Production
}

func (c Config) log(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
