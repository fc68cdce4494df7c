// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"

	npmgo "github.com/npmgo/npmgo"
	"github.com/npmgo/npmgo/internal/errs"
	"github.com/npmgo/npmgo/internal/pkgspec"
	"github.com/npmgo/npmgo/internal/script"
	"github.com/npmgo/npmgo/internal/vcsfetch"
)

const installShortHelp = `Install the project's dependencies into node_modules`
const installLongHelp = `
Install resolves the project's manifest (and lockfile, when one is present)
into an ideal dependency tree, diffs it against what is already on disk, and
executes the minimal plan of fetch/extract/remove/finalize steps needed to
make node_modules match, running each package's lifecycle scripts along the
way.

With no arguments, the manifest's dependencies are installed; a lockfile
beside the manifest pins the exact tree shape. With arguments, only the named
specs (and their transitive requirements) are added.

Supported spec forms: name, name@version, name@range, name@tag, a local
folder path, a git URL, or an owner/repo shorthand. Registry specs require a
registry client, which this build does not bundle.
`

type installCommand struct {
	global     bool
	dev        bool
	production bool
	unicode    bool
	npat       bool
	dryRun     bool
	jobs       int
}

func (cmd *installCommand) Name() string      { return "install" }
func (cmd *installCommand) Args() string      { return "[<spec>...]" }
func (cmd *installCommand) ShortHelp() string { return installShortHelp }
func (cmd *installCommand) LongHelp() string  { return installLongHelp }
func (cmd *installCommand) Hidden() bool      { return false }

func (cmd *installCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.global, "global", false, "keep arguments that name the project itself (the install location is unchanged)")
	fs.BoolVar(&cmd.dev, "dev", false, "also install devDependencies")
	fs.BoolVar(&cmd.production, "production", false, "skip devDependencies even when -dev is set")
	fs.BoolVar(&cmd.unicode, "unicode", false, "accepted; has no effect on output")
	fs.BoolVar(&cmd.npat, "npat", false, "run each package's test script after install")
	fs.BoolVar(&cmd.dryRun, "n", false, "print the action plan without executing it")
	fs.IntVar(&cmd.jobs, "jobs", 0, "maximum parallel tasks per phase (0 = default)")
}

func (cmd *installCommand) Run(cfg *npmgo.Config, args []string) error {
	cfg.Global = cmd.global
	cfg.Dev = cmd.dev
	cfg.Production = cmd.production
	cfg.Unicode = cmd.unicode
	cfg.Npat = cmd.npat
	cfg.DryRun = cmd.dryRun
	cfg.Concurrency = cmd.jobs
	if cfg.DryRun && cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "", 0)
	}

	fetcher := vcsfetch.Decorator{Next: localFetcher{}}
	driver := npmgo.NewDriver(cfg, fetcher, extractor{}, script.NewFSRunner())
	return driver.Install(context.Background(), args)
}

// localFetcher resolves local-folder specs by reading the folder's own
// manifest. Every other spec kind needs the registry client this build does
// not bundle; git and hosted specs never reach here because the vcsfetch
// decorator intercepts them first.
type localFetcher struct{}

func (localFetcher) FetchMetadata(ctx context.Context, spec string, contextPath string, logger *log.Logger) (pkgspec.Record, error) {
	req := pkgspec.Parse(spec)
	if req.Kind != pkgspec.Local {
		return pkgspec.Record{}, errors.Errorf("no registry client configured to resolve %q", spec)
	}

	dir := strings.TrimPrefix(req.Spec, "file:")
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(contextPath, dir)
	}

	f, err := os.Open(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return pkgspec.Record{}, &errs.ManifestMissing{Path: dir}
		}
		return pkgspec.Record{}, errors.Wrapf(err, "reading manifest of %s", dir)
	}
	defer f.Close()

	m, err := npmgo.ReadManifest(f)
	if err != nil {
		return pkgspec.Record{}, err
	}

	name := m.Name
	if name == "" {
		name = filepath.Base(dir)
	}
	rec := pkgspec.Record{
		Name:                 name,
		Version:              m.Version,
		Requested:            req,
		Dependencies:         m.Dependencies,
		OptionalDependencies: m.OptionalDeps,
		Dist:                 dir,
	}
	if m.Shrinkwrap != nil {
		rec.Lockfile = m.Shrinkwrap.Dependencies
	}
	return rec, nil
}

func (localFetcher) FetchTarball(ctx context.Context, record pkgspec.Record, dest string) error {
	if record.Requested.Kind != pkgspec.Local {
		return errors.Errorf("no registry client configured to fetch %s", record)
	}
	return shutil.CopyTree(record.Dist, dest, nil)
}

// extractor materializes a fetched distribution into its staging directory.
// Local and VCS fetches land as directories; registry fetches land as
// gzipped tarballs.
type extractor struct{}

func (extractor) Extract(ctx context.Context, tarballPath, destDir string) error {
	fi, err := os.Stat(tarballPath)
	if err != nil {
		return errors.Wrapf(err, "statting %s", tarballPath)
	}
	if fi.IsDir() {
		if err := os.RemoveAll(destDir); err != nil {
			return err
		}
		return os.Rename(tarballPath, destDir)
	}
	return untar(tarballPath, destDir)
}

// untar unpacks a gzipped tarball, stripping the conventional top-level
// "package/" directory registry tarballs carry.
func untar(tarballPath, destDir string) error {
	f, err := os.Open(tarballPath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", tarballPath)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "decompressing %s", tarballPath)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", tarballPath)
		}

		name := hdr.Name
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			continue
		}
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("tarball entry %q escapes %s", hdr.Name, destDir)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
