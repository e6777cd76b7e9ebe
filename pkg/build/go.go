// Package build provides the toolchain drivers that a session can
// invoke to produce binaries for packaging.  Each driver shells out
// to the host toolchain rather than embedding it.
package build

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/the-maldridge/pallet/pkg/types"
)

// GoBuild drives the go tool against a module rooted at Root.  Cmd
// selects a package within the module, typically under cmd/.
type GoBuild struct {
	Root     string
	Cmd      string
	Out      string
	Mode     string
	Trimpath bool
	Ldflags  []string
	Asmflags []string
	Tags     []string
	Compiler string
	Generate bool

	// BinMode overrides the install mode of the produced binary.
	BinMode uint32

	l hclog.Logger
}

// NewGoBuild returns a driver for the module at root with the
// defaults applied: stripped binaries and reproducible paths.
func NewGoBuild(l hclog.Logger, root string) *GoBuild {
	return &GoBuild{
		Root:     root,
		Trimpath: true,
		Ldflags:  []string{"-s", "-w"},
		l:        l.Named("go"),
	}
}

// Name returns the basename the produced binary will carry.
func (g *GoBuild) Name() string {
	if g.Cmd != "" {
		return filepath.Base(g.Cmd)
	}
	return filepath.Base(g.dir())
}

// Bin returns the path the built binary lands at.
func (g *GoBuild) Bin() string {
	if g.Out != "" {
		return g.Out
	}
	return filepath.Join(g.dir(), g.Name())
}

// Build compiles the selected package.  When Generate is set the
// module's generators run across all packages first.
func (g *GoBuild) Build() error {
	if g.Generate {
		if err := g.RunGenerate("./..."); err != nil {
			return err
		}
	}

	args := []string{"-C", g.dir(), "build"}
	if g.Out != "" {
		args = append(args, "-o", g.Out)
	}
	args = append(args, g.commonFlags()...)
	if g.Cmd != "" {
		args = append(args, g.Cmd)
	}
	return g.exec(args)
}

// Run executes the selected package in place without installing it.
func (g *GoBuild) Run() error {
	args := []string{"-C", g.dir(), "run"}
	args = append(args, g.commonFlags()...)
	if g.Cmd != "" {
		args = append(args, g.Cmd)
	}
	return g.exec(args)
}

// RunGenerate invokes go generate for the given pattern.
func (g *GoBuild) RunGenerate(pattern string) error {
	args := []string{"-C", g.dir(), "generate"}
	if len(g.Tags) > 0 {
		args = append(args, "-tags", strings.Join(g.Tags, ","))
	}
	if pattern != "" {
		args = append(args, pattern)
	}
	return g.exec(args)
}

// List reports the import path of the module's root package.
func (g *GoBuild) List() (string, error) {
	out, err := exec.Command("go", "list", "-C", g.dir()).Output()
	if err != nil {
		return "", wrapDriverErr("go", err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func (g *GoBuild) commonFlags() []string {
	args := []string{}
	if g.Mode != "" {
		args = append(args, "-mod", g.Mode)
	}
	if len(g.Asmflags) > 0 {
		args = append(args, "-asmflags", strings.Join(g.Asmflags, " "))
	}
	if len(g.Tags) > 0 {
		args = append(args, "-tags", strings.Join(g.Tags, ","))
	}
	if g.Compiler != "" {
		args = append(args, "-compiler", g.Compiler)
	}
	if g.Trimpath {
		args = append(args, "-trimpath")
	}
	if len(g.Ldflags) > 0 {
		args = append(args, "-ldflags", strings.Join(g.Ldflags, " "))
	}
	return args
}

func (g *GoBuild) exec(args []string) error {
	g.l.Info("go " + strings.Join(args, " "))
	cmd := exec.Command("go", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &types.DriverError{
			Driver: "go",
			Output: strings.TrimSuffix(string(out), "\n"),
			Err:    err,
		}
	}
	return nil
}

func (g *GoBuild) dir() string {
	if filepath.IsAbs(g.Root) {
		return g.Root
	}
	abs, err := filepath.Abs(g.Root)
	if err != nil {
		return g.Root
	}
	return abs
}

func wrapDriverErr(driver string, err error) error {
	if ee, ok := err.(*exec.ExitError); ok {
		return &types.DriverError{
			Driver: driver,
			Output: strings.TrimSuffix(string(ee.Stderr), "\n"),
			Err:    err,
		}
	}
	return &types.DriverError{Driver: driver, Err: err}
}
