// Package host runs one build script to completion.  It embeds a Lua
// interpreter, registers the capability surface under the module name
// scripts load with require("pallet"), and maps uncaught script
// errors to process-level failures.
package host

import (
	"os"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"

	"github.com/the-maldridge/pallet/pkg/build"
	"github.com/the-maldridge/pallet/pkg/config"
	"github.com/the-maldridge/pallet/pkg/dl"
	"github.com/the-maldridge/pallet/pkg/osutil"
	"github.com/the-maldridge/pallet/pkg/source"
	"github.com/the-maldridge/pallet/pkg/storage"
	"github.com/the-maldridge/pallet/pkg/types"
)

// ModuleName is what scripts pass to require.
const ModuleName = "pallet"

// A Host owns one interpreter and executes exactly one script with
// it.
type Host struct {
	l   hclog.Logger
	cfg *config.Config

	state *lua.LState
	repo  *source.RepoMngr
	store storage.Storage
}

// New sets up an interpreter with the capability surface registered.
func New(l hclog.Logger, cfg *config.Config) *Host {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	h := &Host{
		l:     l.Named("host"),
		cfg:   cfg,
		state: lua.NewState(),
		repo:  source.New(l),
	}
	registerProjectType(h, h.state)
	h.state.PreloadModule(ModuleName, h.loader)
	h.state.SetGlobal("octal", h.state.NewFunction(lOctal))
	return h
}

// WithStore provides the store used for build counters.
func (h *Host) WithStore(s storage.Storage) *Host {
	h.store = s
	return h
}

// Close releases the interpreter.
func (h *Host) Close() {
	h.state.Close()
}

// RunFile executes the script at path.  Any uncaught script error is
// returned for the caller to surface.
func (h *Host) RunFile(path string) error {
	h.l.Debug("Running script", "path", path)
	return h.state.DoFile(path)
}

// RunString executes a script held in memory.
func (h *Host) RunString(script string) error {
	return h.state.DoString(script)
}

// loader assembles the module table handed back from require.
func (h *Host) loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "octal", L.NewFunction(lOctal))
	L.SetField(mod, "log", L.NewFunction(h.lLog))
	L.SetField(mod, "exec", L.NewFunction(lExec))
	L.SetField(mod, "sh", L.NewFunction(lSh))
	L.SetField(mod, "in_dir", L.NewFunction(lInDir))
	L.SetField(mod, "cwd", L.NewFunction(lCwd))
	L.SetField(mod, "which", L.NewFunction(lWhich))
	L.SetField(mod, "table_extend", L.NewFunction(lTableExtend))
	L.SetField(mod, "scdoc", L.NewFunction(lSCDoc))
	L.SetField(mod, "project", L.NewFunction(h.lProject(mod)))

	L.SetField(mod, "fs", fsModule(L))
	L.SetField(mod, "path", pathModule(L))
	L.SetField(mod, "os", osModule(L))
	L.SetField(mod, "git", h.gitModule(L))
	L.SetField(mod, "dl", h.dlModule(L))
	L.SetField(mod, "go", h.goModule(L))
	L.SetField(mod, "cargo", h.cargoModule(L))

	L.SetField(mod, "Urgency", urgencyTable(L))
	L.SetField(mod, "Priority", priorityTable(L))

	L.SetField(mod, "dist", lua.LString(h.cfg.DistDir))
	if h.cfg.FilesBase != "" {
		L.SetField(mod, "files_base", lua.LString(h.cfg.FilesBase))
	}

	L.Push(mod)
	return 1
}

func lOctal(L *lua.LState) int {
	mode, err := types.ParseMode(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LNumber(mode))
	return 1
}

func (h *Host) lLog(L *lua.LState) int {
	h.l.Info(L.CheckString(1))
	return 0
}

func lExec(L *lua.LState) int {
	bin := L.CheckString(1)
	args := []string{}
	if tbl, ok := L.Get(2).(*lua.LTable); ok {
		tbl.ForEach(func(_, v lua.LValue) {
			args = append(args, lua.LVAsString(v))
		})
	}
	opts := osutil.ExecOptions{}
	if tbl, ok := L.Get(3).(*lua.LTable); ok {
		opts.Dir = stringField(tbl, "dir")
		opts.StdinFile = stringField(tbl, "stdin_file")
		opts.StdoutFile = stringField(tbl, "stdout_file")
	}

	status, err := osutil.Exec(bin, args, opts)
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LNumber(status))
	return 1
}

func lSh(L *lua.LState) int {
	status, err := osutil.Sh(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LNumber(status))
	return 1
}

func lInDir(L *lua.LState) int {
	dir := L.CheckString(1)
	fn := L.CheckFunction(2)
	err := osutil.InDir(dir, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	})
	if err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func lCwd(L *lua.LState) int {
	wd, err := os.Getwd()
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LString(wd))
	return 1
}

func lWhich(L *lua.LState) int {
	p, err := osutil.Which(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	L.Push(lua.LString(p))
	return 1
}

// lTableExtend appends the array portion of the second table onto the
// first.
func lTableExtend(L *lua.LState) int {
	list := L.CheckTable(1)
	add := L.CheckTable(2)
	for i := 1; i <= add.Len(); i++ {
		list.Append(add.RawGetInt(i))
	}
	return 0
}

func lSCDoc(L *lua.LState) int {
	opts, err := scdocOpts(L.CheckTable(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	if err := osutil.SCDoc(opts); err != nil {
		L.RaiseError("%s", err)
	}
	return 0
}

func scdocOpts(tbl *lua.LTable) (osutil.SCDocOpts, error) {
	return osutil.SCDocOpts{
		Input:    stringField(tbl, "input"),
		Output:   stringField(tbl, "output"),
		Compress: boolField(tbl, "compress"),
	}, nil
}

func urgencyTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for name, u := range map[string]types.Urgency{
		"Low":       types.UrgencyLow,
		"Medium":    types.UrgencyMedium,
		"High":      types.UrgencyHigh,
		"Emergency": types.UrgencyEmergency,
		"Critical":  types.UrgencyCritical,
	} {
		L.SetField(t, name, lua.LString(u.String()))
	}
	return t
}

func priorityTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	for name, p := range map[string]types.Priority{
		"Optional":  types.PriorityOptional,
		"Required":  types.PriorityRequired,
		"Important": types.PriorityImportant,
		"Standard":  types.PriorityStandard,
		"Extra":     types.PriorityExtra,
	} {
		L.SetField(t, name, lua.LString(p.String()))
	}
	return t
}

func fsModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "exists", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(osutil.Exists(L.CheckString(1))))
		return 1
	}))
	L.SetField(t, "rm", L.NewFunction(eachPath(osutil.Remove)))
	L.SetField(t, "rmdir", L.NewFunction(eachPath(osutil.Remove)))
	L.SetField(t, "rmdir_all", L.NewFunction(eachPath(osutil.RemoveAll)))
	L.SetField(t, "mkdir", L.NewFunction(eachPath(osutil.Mkdir)))
	L.SetField(t, "mkdir_all", L.NewFunction(eachPath(osutil.MkdirAll)))
	L.SetField(t, "rename", L.NewFunction(pathPair(osutil.Rename)))
	L.SetField(t, "copy", L.NewFunction(pathPair(osutil.Copy)))
	L.SetField(t, "write", L.NewFunction(pathPair(osutil.WriteFile)))
	L.SetField(t, "read", L.NewFunction(func(L *lua.LState) int {
		contents, err := osutil.ReadFile(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(contents))
		return 1
	}))
	L.SetField(t, "stat", L.NewFunction(lStat))
	return t
}

// pathPair lifts a two-string operation into a script binding.
func pathPair(fn func(string, string) error) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := fn(L.CheckString(1), L.CheckString(2)); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}
}

// eachPath lifts a single-path operation over variadic script
// arguments.
func eachPath(fn func(string) error) lua.LGFunction {
	return func(L *lua.LState) int {
		for i := 1; i <= L.GetTop(); i++ {
			if err := fn(L.CheckString(i)); err != nil {
				L.RaiseError("%s", err)
				return 0
			}
		}
		return 0
	}
}

func lStat(L *lua.LState) int {
	s, err := osutil.StatPath(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err)
		return 0
	}
	t := L.NewTable()
	L.SetField(t, "size", lua.LNumber(s.Size))
	L.SetField(t, "mode", lua.LNumber(s.Mode))
	L.SetField(t, "is_dir", lua.LBool(s.IsDir))
	L.SetField(t, "atime", lua.LNumber(s.ATime))
	L.SetField(t, "mtime", lua.LNumber(s.MTime))
	L.SetField(t, "ctime", lua.LNumber(s.CTime))
	L.SetField(t, "uid", lua.LNumber(s.UID))
	L.SetField(t, "gid", lua.LNumber(s.GID))
	L.SetField(t, "dev", lua.LNumber(s.Dev))
	L.SetField(t, "ino", lua.LNumber(s.Ino))
	L.SetField(t, "nlink", lua.LNumber(s.Nlink))
	L.SetField(t, "blocks", lua.LNumber(s.Blocks))
	L.SetField(t, "blksize", lua.LNumber(s.BlkSize))
	L.Push(t)
	return 1
}

func pathModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "join", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.CheckString(i))
		}
		L.Push(lua.LString(joinPath(parts)))
		return 1
	}))
	L.SetField(t, "is_absolute", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(isAbs(L.CheckString(1))))
		return 1
	}))
	L.SetField(t, "is_relative", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(!isAbs(L.CheckString(1))))
		return 1
	}))
	L.SetField(t, "parent", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(parentPath(L.CheckString(1))))
		return 1
	}))
	L.SetField(t, "basename", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(basePath(L.CheckString(1))))
		return 1
	}))
	return t
}

func osModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "exec", L.NewFunction(lExec))
	L.SetField(t, "which", L.NewFunction(lWhich))
	return t
}

func (h *Host) gitModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "username", L.NewFunction(func(L *lua.LState) int {
		id, err := h.repo.Identity()
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(id.Name))
		return 1
	}))
	L.SetField(t, "email", L.NewFunction(func(L *lua.LState) int {
		id, err := h.repo.Identity()
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(id.Email))
		return 1
	}))
	L.SetField(t, "version", L.NewFunction(func(L *lua.LState) int {
		v, err := h.repo.Version(".")
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(v))
		return 1
	}))
	L.SetField(t, "clone", L.NewFunction(func(L *lua.LState) int {
		opts := source.CloneOpts{Repo: L.CheckString(1)}
		if tbl, ok := L.Get(2).(*lua.LTable); ok {
			opts.Dest = stringField(tbl, "dest")
			opts.Branch = stringField(tbl, "branch")
			opts.Depth = intField(tbl, "depth")
			opts.Force = boolField(tbl, "force")
		}
		dest, err := h.repo.Clone(opts)
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(dest))
		return 1
	}))
	return t
}

func (h *Host) dlModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "fetch", L.NewFunction(func(L *lua.LState) int {
		url := L.CheckString(1)
		opts := dlOpts(L.Get(2))
		out, err := dl.Fetch(h.l, url, opts)
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(out))
		return 1
	}))
	for name, recipe := range dl.Recipes {
		recipe := recipe
		L.SetField(t, name, L.NewFunction(func(L *lua.LState) int {
			out, err := recipe(h.l, dlOpts(L.Get(1)))
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			L.Push(lua.LString(out))
			return 1
		}))
	}
	return t
}

func dlOpts(v lua.LValue) dl.Opts {
	opts := dl.Opts{}
	if tbl, ok := v.(*lua.LTable); ok {
		opts.Release = stringField(tbl, "release")
		opts.Arch = stringField(tbl, "arch")
		opts.Out = stringField(tbl, "out")
		opts.SHA256 = stringField(tbl, "sha256")
		opts.Compression = stringField(tbl, "compression")
	}
	return opts
}

func (h *Host) goModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "build", L.NewFunction(func(L *lua.LState) int {
		g, err := h.goOpts(L.Get(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		if err := g.Build(); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}))
	L.SetField(t, "run", L.NewFunction(func(L *lua.LState) int {
		g, err := h.goOpts(L.Get(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		if err := g.Run(); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}))
	L.SetField(t, "generate", L.NewFunction(func(L *lua.LState) int {
		g, err := h.goOpts(L.Get(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		if err := g.RunGenerate(g.Cmd); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}))
	L.SetField(t, "list", L.NewFunction(func(L *lua.LState) int {
		g, err := h.goOpts(L.Get(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		out, err := g.List()
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(lua.LString(out))
		return 1
	}))
	return t
}

func (h *Host) cargoModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "build", L.NewFunction(func(L *lua.LState) int {
		c, err := h.cargoOpts(L.Get(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		if err := c.Build(); err != nil {
			L.RaiseError("%s", err)
		}
		return 0
	}))
	return t
}

// goOpts accepts nil, a root string, or an options table.
func (h *Host) goOpts(v lua.LValue) (*build.GoBuild, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return build.NewGoBuild(h.l, "."), nil
	case lua.LString:
		return build.NewGoBuild(h.l, string(val)), nil
	case *lua.LTable:
		root := stringField(val, "root")
		if root == "" {
			root = lua.LVAsString(val.RawGetInt(1))
		}
		if root == "" {
			root = "."
		}
		g := build.NewGoBuild(h.l, root)
		g.Cmd = stringField(val, "cmd")
		g.Out = stringField(val, "out")
		g.Mode = stringField(val, "mode")
		if val.RawGetString("trimpath") != lua.LNil {
			g.Trimpath = boolField(val, "trimpath")
		}
		if lf := stringSliceField(val, "ldflags"); lf != nil {
			g.Ldflags = lf
		}
		g.Asmflags = stringSliceField(val, "asmflags")
		g.Tags = stringSliceField(val, "tags")
		g.Compiler = stringField(val, "compiler")
		g.Generate = boolField(val, "generate")
		g.BinMode = uint32(intField(val, "bin_mode"))
		return g, nil
	}
	return nil, &types.SpecError{Field: "go", Reason: "expected nil, string, or table"}
}

// cargoOpts accepts nil, a root string, or an options table.
func (h *Host) cargoOpts(v lua.LValue) (*build.CargoBuild, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return build.NewCargoBuild(h.l, "."), nil
	case lua.LString:
		return build.NewCargoBuild(h.l, string(val)), nil
	case *lua.LTable:
		root := stringField(val, "root")
		if root == "" {
			root = lua.LVAsString(val.RawGetInt(1))
		}
		if root == "" {
			root = "."
		}
		c := build.NewCargoBuild(h.l, root)
		c.PkgID = stringField(val, "pkgid")
		c.TargetDir = stringField(val, "target_dir")
		if p := stringField(val, "profile"); p != "" {
			c.Profile = p
		}
		c.Target = stringField(val, "target")
		c.Features = stringSliceField(val, "features")
		c.Config = stringSliceField(val, "config")
		c.Verbosity = intField(val, "verbosity")
		c.Quiet = boolField(val, "quiet")
		c.KeepGoing = boolField(val, "keep_going")
		c.IgnoreRustVersion = boolField(val, "ignore_rust_version")
		c.Clean = boolField(val, "clean")
		c.BinMode = uint32(intField(val, "bin_mode"))
		return c, nil
	}
	return nil, &types.SpecError{Field: "cargo", Reason: "expected nil, string, or table"}
}
