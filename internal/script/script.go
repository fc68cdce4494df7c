// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script runs package lifecycle scripts: preinstall, install,
// postinstall, build, test, prepublish.
//
// A command is killed if it shows no stdout/stderr activity for a timeout
// window, rather than on a flat wall-clock deadline, which suits
// long-running native module builds (node-gyp and friends) better than a
// fixed timeout would.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
)

// ScriptRunner is the lifecycle script collaborator, consumed by the
// scheduler during the preinstall/build/install/postinstall/test phases.
type ScriptRunner interface {
	RunLifecycle(ctx context.Context, phase string, record pkgspec.Record, realpath string) error
}

// NoActivityTimeout bounds how long a lifecycle script may run without
// producing stdout/stderr output before it is killed.
const NoActivityTimeout = 10 * time.Minute

// Scripts holds the subset of a package.json's "scripts" map relevant to
// a single realpath's lifecycle: phase name -> shell line.
type Scripts map[string]string

// Runner executes package.json lifecycle scripts via the platform shell,
// looking each script up in a preloaded map.
type Runner struct {
	scriptsByPath map[string]Scripts
}

// NewRunner builds a Runner; scriptsByPath maps each node's realpath to its
// manifest's scripts map (possibly empty).
func NewRunner(scriptsByPath map[string]Scripts) *Runner {
	return &Runner{scriptsByPath: scriptsByPath}
}

// RunLifecycle runs the shell line registered for phase at realpath, if
// any. A package with no such script is a silent no-op, per npm's own
// lifecycle semantics.
func (r *Runner) RunLifecycle(ctx context.Context, phase string, record pkgspec.Record, realpath string) error {
	return runLine(ctx, phase, record, realpath, r.scriptsByPath[realpath][phase])
}

// FSRunner reads each package's scripts map from its manifest on disk at
// invocation time, for callers that don't hold the tree's manifests in
// memory (the CLI).
type FSRunner struct{}

// NewFSRunner builds an FSRunner.
func NewFSRunner() FSRunner { return FSRunner{} }

// RunLifecycle reads realpath's manifest and runs its script for phase, if
// any. A missing or unreadable manifest is a no-op: an unpackaged root or a
// bare directory simply has no lifecycle.
func (FSRunner) RunLifecycle(ctx context.Context, phase string, record pkgspec.Record, realpath string) error {
	f, err := os.Open(filepath.Join(realpath, "package.json"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var m struct {
		Scripts Scripts `json:"scripts"`
	}
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil
	}
	return runLine(ctx, phase, record, realpath, m.Scripts[phase])
}

func runLine(ctx context.Context, phase string, record pkgspec.Record, realpath, line string) error {
	if line == "" {
		return nil
	}

	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}

	cmd := exec.CommandContext(ctx, shell, flag, line)
	cmd.Dir = realpath

	mc := newMonitoredCmd(ctx, cmd, NoActivityTimeout)
	out, err := mc.combinedOutput()
	if err != nil {
		return &errs.LifecycleError{
			Phase: phase,
			Name:  record.Name,
			Err:   errors.Wrapf(err, "output: %s", out),
		}
	}
	return nil
}

// monitoredCmd wraps a cmd, killing it if ctx is canceled or if neither
// stream has shown activity within timeout.
type monitoredCmd struct {
	cmd     *exec.Cmd
	timeout time.Duration
	ctx     context.Context
	stdout  *activityBuffer
	stderr  *activityBuffer
}

func newMonitoredCmd(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) *monitoredCmd {
	stdout, stderr := newActivityBuffer(), newActivityBuffer()
	cmd.Stdout, cmd.Stderr = stdout, stderr
	return &monitoredCmd{cmd: cmd, timeout: timeout, ctx: ctx, stdout: stdout, stderr: stderr}
}

func (c *monitoredCmd) run() error {
	ticker := time.NewTicker(c.timeout)
	defer ticker.Stop()
	done := make(chan error, 1)
	go func() { done <- c.cmd.Run() }()

	for {
		select {
		case <-ticker.C:
			if c.hasTimedOut() {
				if err := c.cmd.Process.Kill(); err != nil {
					return fmt.Errorf("killing unresponsive script: %w", err)
				}
				return fmt.Errorf("script killed after %s of no output", c.timeout)
			}
		case <-c.ctx.Done():
			if c.cmd.Process != nil {
				_ = c.cmd.Process.Kill()
			}
			return c.ctx.Err()
		case err := <-done:
			return err
		}
	}
}

func (c *monitoredCmd) hasTimedOut() bool {
	cutoff := time.Now().Add(-c.timeout)
	return c.stdout.lastActivity().Before(cutoff) && c.stderr.lastActivity().Before(cutoff)
}

func (c *monitoredCmd) combinedOutput() ([]byte, error) {
	if err := c.run(); err != nil {
		return c.stderr.buf.Bytes(), err
	}
	return c.stdout.buf.Bytes(), nil
}

type activityBuffer struct {
	sync.Mutex
	buf   *bytes.Buffer
	stamp time.Time
}

func newActivityBuffer() *activityBuffer {
	return &activityBuffer{buf: bytes.NewBuffer(nil)}
}

func (b *activityBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	b.stamp = time.Now()
	return b.buf.Write(p)
}

func (b *activityBuffer) lastActivity() time.Time {
	b.Lock()
	defer b.Unlock()
	return b.stamp
}
