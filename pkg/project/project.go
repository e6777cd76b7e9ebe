// Package project implements the build session that scripts drive.
// A session is constructed from a validated build specification,
// stages files into a cache directory owned by this package and
// version, and finishes by emitting a single package archive.
package project

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/deb"
	"github.com/the-maldridge/pallet/pkg/storage"
	"github.com/the-maldridge/pallet/pkg/storage/file"
	"github.com/the-maldridge/pallet/pkg/types"
)

// CacheRoot anchors the per-package staging directories.
const CacheRoot = ".pallet"

// DefaultDist is where emitted packages land unless overridden.
const DefaultDist = "dist"

// New constructs a session from a spec.  The spec is validated up
// front and the staging directory is created before any script calls
// can mutate the session.
func New(l hclog.Logger, spec *types.BuildSpec, opts ...Option) (*Project, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	sum := md5.Sum([]byte(spec.Package + spec.Version))
	p := &Project{
		l:           l.Named("project"),
		spec:        spec,
		id:          hex.EncodeToString(sum[:]),
		state:       Created,
		baseDir:     "/usr",
		manDir:      "/usr/share/man",
		distDir:     DefaultDist,
		compression: deb.CompressGzip,
	}
	for _, o := range opts {
		o(p)
	}

	if err := os.MkdirAll(p.Dir(), 0755); err != nil {
		return nil, err
	}
	p.l.Debug("Session created", "package", spec.Package, "version", spec.Version, "dir", p.Dir())
	return p, nil
}

// Dir returns the staging directory this session owns.
func (p *Project) Dir() string {
	return filepath.Join(CacheRoot, "project", p.spec.Package, p.id)
}

// BinPath returns the path a driver or download should place the
// named binary at, creating the parent directory as needed.
func (p *Project) BinPath(name string) string {
	d := filepath.Join(p.Dir(), "bin")
	os.MkdirAll(d, 0755)
	return filepath.Join(d, name)
}

// Package returns the package name from the spec.
func (p *Project) Package() string { return p.spec.Package }

// Version returns the version from the spec.
func (p *Project) Version() string { return p.spec.Version }

// Arch returns the architecture token from the spec.
func (p *Project) Arch() string { return p.spec.Arch.String() }

// Spec exposes the session's specification.
func (p *Project) Spec() *types.BuildSpec { return p.spec }

// CurrentState reports the lifecycle state.
func (p *Project) CurrentState() State { return p.state }

// Artifact returns the emitted archive path, empty until Finish
// succeeds.
func (p *Project) Artifact() string { return p.artifact }

// BaseDir returns the install prefix.
func (p *Project) BaseDir() string { return p.baseDir }

// SetBaseDir changes the install prefix used for default
// destinations.
func (p *Project) SetBaseDir(d string) { p.baseDir = d }

// ManDir returns the man page install directory.
func (p *Project) ManDir() string { return p.manDir }

// SetManDir changes the man page install directory.
func (p *Project) SetManDir(d string) { p.manDir = d }

// Build validates and preprocesses the manifest without emitting
// anything.  Empty destinations are resolved against the install
// prefix and every source is checked for existence.
func (p *Project) Build() error {
	p.spec.Preprocess(p.baseDir)
	for _, f := range p.spec.Files {
		if !f.Dir {
			if _, err := os.Lstat(f.Src); err != nil {
				return &types.FileNotFoundError{Src: f.Src}
			}
		}
	}
	return nil
}

// Finish finalizes the session and emits the package archive.  It
// may be called exactly once; the staging directory is preserved on
// failure for inspection.
func (p *Project) Finish() error {
	switch p.state {
	case Finished, Failed:
		return ErrAlreadyFinished
	}
	p.state = Finalizing

	if err := p.finishInner(); err != nil {
		p.state = Failed
		p.l.Error("Session failed", "package", p.spec.Package, "error", err)
		return err
	}
	p.state = Finished
	p.l.Info("Session finished", "package", p.spec.Package, "artifact", p.artifact)
	return nil
}

func (p *Project) finishInner() error {
	if err := p.Build(); err != nil {
		return err
	}
	if p.autoNumber {
		n, err := p.incrementBuildNumber()
		if err != nil {
			return err
		}
		p.spec.BuildNo = n
	}
	if err := os.MkdirAll(p.distDir, 0755); err != nil {
		return err
	}

	path, err := deb.Emit(p.l, p.spec, deb.EmitOptions{
		Dest:        p.distDir,
		Compression: p.compression,
	})
	if err != nil {
		return err
	}
	p.artifact = path
	return nil
}

// EnableAutoBuildNumbers marks the session to read, increment, and
// persist the build counter during Finish, appending the resulting
// number to the emitted version.
func (p *Project) EnableAutoBuildNumbers() {
	p.autoNumber = true
}

// ResetBuildNumber sets the persisted counter back to zero.
func (p *Project) ResetBuildNumber() error {
	s, err := p.counterStore()
	if err != nil {
		return err
	}
	return s.Put(p.counterKey(), []byte("0"))
}

// incrementBuildNumber performs the read-increment-persist cycle and
// returns the new number.  A counter that was never written reads as
// zero, so the first numbered build is 1.
func (p *Project) incrementBuildNumber() (uint32, error) {
	s, err := p.counterStore()
	if err != nil {
		return 0, err
	}

	n := uint32(0)
	v, err := s.Get(p.counterKey())
	if err != nil {
		return 0, err
	}
	if v != nil {
		parsed, err := strconv.ParseUint(string(v), 10, 32)
		if err != nil {
			return 0, err
		}
		n = uint32(parsed)
	}
	n++
	if err := s.Put(p.counterKey(), []byte(strconv.FormatUint(uint64(n), 10))); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Project) counterKey() []byte {
	return []byte("buildno/" + p.spec.Package)
}

// counterStore returns the configured store, lazily opening the
// default file-backed store next to the staging tree.
func (p *Project) counterStore() (storage.Storage, error) {
	if p.store != nil {
		return p.store, nil
	}
	s, err := file.New(p.l, filepath.Join(CacheRoot, "store"))
	if err != nil {
		return nil, err
	}
	p.store = s
	return s, nil
}
