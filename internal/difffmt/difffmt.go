// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package difffmt renders an action plan as TOML for dry-run and verbose
// output, one section per action kind.
package difffmt

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/npmgo/npmgo/internal/diff"
)

type rawAction struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Path    string `toml:"path"`
	OldPath string `toml:"old_path,omitempty"`
}

type rawActionGroup struct {
	Actions []rawAction `toml:"packages"`
}

// Format renders actions grouped by kind (add/remove/update/move) as TOML
// sections, in that fixed order, each section omitted when empty.
func Format(actions []diff.Action) (string, error) {
	if len(actions) == 0 {
		return "", nil
	}

	groups := map[diff.Kind][]rawAction{}
	for _, a := range actions {
		groups[a.Kind] = append(groups[a.Kind], rawAction{
			Name:    a.Node.Name,
			Version: a.Node.Package.Version,
			Path:    a.Node.Path,
			OldPath: a.OldPath,
		})
	}

	var buf bytes.Buffer
	for _, kind := range []diff.Kind{diff.Add, diff.Remove, diff.Update, diff.Move} {
		entries, ok := groups[kind]
		if !ok {
			continue
		}
		buf.WriteString(fmt.Sprintf("%s:\n", kind))
		chunk, err := toml.Marshal(rawActionGroup{Actions: entries})
		if err != nil {
			return "", errors.Wrapf(err, "formatting %s actions", kind)
		}
		buf.Write(chunk)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
