package project

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/the-maldridge/pallet/pkg/build"
	"github.com/the-maldridge/pallet/pkg/deb"
	"github.com/the-maldridge/pallet/pkg/dl"
	"github.com/the-maldridge/pallet/pkg/osutil"
	"github.com/the-maldridge/pallet/pkg/types"
)

// ExecutableMode is the install mode for binaries added through
// AddBinary.
const ExecutableMode = 0o755

// stage moves the session into the staging state.  Finished and
// Failed are terminal, so mutation after either is an error.
func (p *Project) stage() error {
	if p.state == Finished || p.state == Failed {
		return ErrAlreadyFinished
	}
	p.state = Staging
	return nil
}

// AddFile appends one entry to the manifest.  The source must exist
// and the destination must not collide with an earlier entry.
func (p *Project) AddFile(f types.File) error {
	if !f.Dir && !osutil.Exists(f.Src) {
		return &types.FileNotFoundError{Src: f.Src}
	}
	if f.Dst != "" {
		for _, have := range p.spec.Files {
			if have.Dst == f.Dst {
				return &types.DuplicateDestinationError{Dst: f.Dst}
			}
		}
	}
	if err := p.stage(); err != nil {
		return err
	}
	p.spec.Files = append(p.spec.Files, f)
	return nil
}

// AddFiles appends several entries, stopping at the first invalid
// one.
func (p *Project) AddFiles(files []types.File) error {
	for _, f := range files {
		if err := p.AddFile(f); err != nil {
			return err
		}
	}
	return nil
}

// AddBinary stages a driver-produced binary for installation into
// the prefix bin directory with executable mode.
func (p *Project) AddBinary(src string) error {
	return p.AddBinaryMode(src, ExecutableMode)
}

// AddBinaryMode is AddBinary with an explicit install mode.
func (p *Project) AddBinaryMode(src string, mode uint32) error {
	return p.AddFile(types.File{
		Src:  src,
		Dst:  filepath.Join(p.baseDir, "bin", filepath.Base(src)),
		Mode: mode,
	})
}

// AptSource records a third party repository for the emitted package
// to configure on install.
func (p *Project) AptSource(s types.AptSource) error {
	if err := p.stage(); err != nil {
		return err
	}
	p.spec.AptSources = append(p.spec.AptSources, s)
	return nil
}

// GoBuild runs the go driver and stages its binary.  An unset output
// path is pointed into the session's bin directory first.
func (p *Project) GoBuild(g *build.GoBuild) error {
	if err := p.stage(); err != nil {
		return err
	}
	if g.Out == "" {
		g.Out = p.BinPath(g.Name())
	}
	if err := g.Build(); err != nil {
		return err
	}
	if g.BinMode != 0 {
		return p.AddBinaryMode(g.Bin(), g.BinMode)
	}
	return p.AddBinary(g.Bin())
}

// CargoBuild runs the cargo driver and stages its binary.
func (p *Project) CargoBuild(c *build.CargoBuild) error {
	if err := p.stage(); err != nil {
		return err
	}
	if err := c.Build(); err != nil {
		return err
	}
	if c.BinMode != 0 {
		return p.AddBinaryMode(c.Bin(), c.BinMode)
	}
	return p.AddBinary(c.Bin())
}

// SCDoc renders a man page into the staging tree and stages it under
// the man directory.  An unset output name is derived from the input
// by stripping the source suffix.
func (p *Project) SCDoc(opts osutil.SCDocOpts) error {
	name := opts.Output
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.Input), ".scd")
	}
	if opts.Compress && !strings.HasSuffix(name, ".gz") {
		name += ".gz"
	}

	if err := p.stage(); err != nil {
		return err
	}
	src := filepath.Join(p.Dir(), "man", name)
	if err := osutil.MkdirAll(filepath.Dir(src)); err != nil {
		return err
	}
	opts.Output = src
	if err := osutil.SCDoc(opts); err != nil {
		return err
	}
	return p.AddFile(types.File{
		Src:  src,
		Dst:  filepath.Join(p.manDir, name),
		Mode: types.DefaultFileMode,
	})
}

// DownloadBinary fetches a binary by URL directly into the session's
// bin directory and stages it.  An empty name derives the filename
// from the URL.
func (p *Project) DownloadBinary(url, name string, opts dl.Opts) error {
	if name == "" {
		name = path.Base(url)
	}
	if err := p.stage(); err != nil {
		return err
	}
	opts.Out = p.BinPath(name)
	opts.Mode = dl.ExecutableMode
	out, err := dl.Fetch(p.l, url, opts)
	if err != nil {
		return err
	}
	return p.AddBinary(out)
}

// DownloadRecipe runs one of the named convenience recipes, placing
// its output in the session's bin directory.
func (p *Project) DownloadRecipe(name string, opts dl.Opts) error {
	recipe, ok := dl.Recipes[name]
	if !ok {
		return &types.DownloadError{URL: name, Reason: "unknown recipe"}
	}
	if opts.Out == "" {
		opts.Out = p.BinPath(recipeBin[name])
	}
	if err := p.stage(); err != nil {
		return err
	}
	out, err := recipe(p.l, opts)
	if err != nil {
		return err
	}
	return p.AddBinary(out)
}

// recipeBin maps recipe names onto the binary name each one fetches.
var recipeBin = map[string]string{
	"kubectl":       "kubectl",
	"jq":            "jq",
	"youtube_dl":    "youtube-dl",
	"yt_dlp":        "yt-dlp",
	"mc":            "mc",
	"tetris":        "tetris",
	"balena_etcher": "BalenaEtcher.AppImage",
}

// MergeDeb unpacks the data member of an existing archive into the
// staging tree and stages the whole tree at the filesystem root,
// letting this session's metadata win over the merged package's.
func (p *Project) MergeDeb(source string) error {
	if err := p.stage(); err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(source), ".deb")
	base := filepath.Join(p.Dir(), "debs", name)
	if err := osutil.RemoveAll(base); err != nil {
		return err
	}
	if err := osutil.MkdirAll(base); err != nil {
		return err
	}
	if err := deb.ExtractData(source, base); err != nil {
		return err
	}
	return p.AddFile(types.File{Src: base, Dst: "/"})
}
