package build

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/types"
)

// CargoBuild drives the cargo tool against a crate rooted at Root.
type CargoBuild struct {
	Root              string
	PkgID             string
	TargetDir         string
	Profile           string
	Target            string
	Features          []string
	Config            []string
	Verbosity         int
	Quiet             bool
	KeepGoing         bool
	IgnoreRustVersion bool
	Clean             bool

	// BinMode overrides the install mode of the produced binary.
	BinMode uint32

	l hclog.Logger
}

// NewCargoBuild returns a driver for the crate at root building the
// release profile.
func NewCargoBuild(l hclog.Logger, root string) *CargoBuild {
	return &CargoBuild{
		Root:    root,
		Profile: "release",
		l:       l.Named("cargo"),
	}
}

// Name returns the basename the produced binary will carry.
func (c *CargoBuild) Name() string {
	if c.PkgID != "" {
		return c.PkgID
	}
	return filepath.Base(c.dir())
}

// Bin returns the path the built binary lands at.
func (c *CargoBuild) Bin() string {
	target := c.TargetDir
	if target == "" {
		target = filepath.Join(c.dir(), "target")
	}
	return filepath.Join(target, c.profile(), c.Name())
}

// Build compiles the crate.  When Clean is set the target directory
// is removed first so the build starts from nothing.
func (c *CargoBuild) Build() error {
	target := c.TargetDir
	if target == "" {
		target = filepath.Join(c.dir(), "target")
	}
	if c.Clean {
		if err := os.RemoveAll(target); err != nil {
			return &types.DriverError{Driver: "cargo", Err: err}
		}
	}

	args := []string{
		"build",
		"--manifest-path", filepath.Join(c.dir(), "Cargo.toml"),
		"--target-dir", target,
	}
	if c.Quiet {
		args = append(args, "--quiet")
	}
	if c.Verbosity > 0 {
		args = append(args, "--verbose")
	}
	if len(c.Features) > 0 {
		args = append(args, "--features", strings.Join(c.Features, ","))
	}
	if c.PkgID != "" {
		args = append(args, "--package", c.PkgID)
	}
	if c.profile() == "release" {
		args = append(args, "--release")
	} else {
		args = append(args, "--profile", c.profile())
	}
	if c.Target != "" {
		args = append(args, "--target", c.Target)
	}
	if c.IgnoreRustVersion {
		args = append(args, "--ignore-rust-version")
	}
	if c.KeepGoing {
		args = append(args, "--keep-going")
	}
	for _, cfg := range c.Config {
		args = append(args, "--config", cfg)
	}

	c.l.Info("cargo " + strings.Join(args, " "))
	cmd := exec.Command("cargo", args...)
	cmd.Dir = c.dir()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &types.DriverError{
			Driver: "cargo",
			Output: strings.TrimSuffix(string(out), "\n"),
			Err:    err,
		}
	}
	return nil
}

func (c *CargoBuild) profile() string {
	if c.Profile == "" {
		return "release"
	}
	return c.Profile
}

func (c *CargoBuild) dir() string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return c.Root
	}
	return abs
}
