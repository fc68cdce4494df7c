// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package npmgo

import (
	"github.com/npmgo/npmgo/internal/resolve"
	"github.com/npmgo/npmgo/internal/scheduler"
	"github.com/npmgo/npmgo/internal/script"
)

// Fetcher is the registry/network collaborator consumed by the metadata
// resolver. The installer core never talks to a registry directly; it
// only ever calls through this interface.
type Fetcher = resolve.Fetcher

// Extractor is the tarball extractor collaborator, consumed by the phase
// scheduler during the extract phase.
type Extractor = scheduler.Extractor

// ScriptRunner is the lifecycle script collaborator. Phases invoked:
// preinstall, install, postinstall, build, test, prepublish.
type ScriptRunner = script.ScriptRunner
