package host

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/the-maldridge/pallet/pkg/deb"
	"github.com/the-maldridge/pallet/pkg/project"
)

const projectTypeName = "project"

// lProject is the session constructor surfaced to scripts.  Module
// level options that scripts may have set, like the dist directory,
// are read at construction time.
func (h *Host) lProject(mod *lua.LTable) lua.LGFunction {
	return func(L *lua.LState) int {
		spec, err := specFromTable(L.CheckTable(1))
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		if base := lua.LVAsString(mod.RawGetString("files_base")); base != "" {
			spec.Preprocess(base)
		}

		opts := []project.Option{}
		if dist := lua.LVAsString(mod.RawGetString("dist")); dist != "" {
			opts = append(opts, project.WithDistDir(dist))
		}
		if h.cfg.Compression == "xz" {
			opts = append(opts, project.WithCompression(deb.CompressXz))
		}
		if h.store != nil {
			opts = append(opts, project.WithStore(h.store))
		}

		p, err := project.New(h.l, spec, opts...)
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}

		ud := L.NewUserData()
		ud.Value = p
		L.SetMetatable(ud, L.GetTypeMetatable(projectTypeName))
		L.Push(ud)
		return 1
	}
}

func registerProjectType(h *Host, L *lua.LState) {
	mt := L.NewTypeMetatable(projectTypeName)
	methods := h.projectMethods()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		p := checkProject(L)
		key := L.CheckString(2)

		switch key {
		case "base_dir":
			L.Push(lua.LString(p.BaseDir()))
		case "man_dir":
			L.Push(lua.LString(p.ManDir()))
		case "package":
			L.Push(lua.LString(p.Package()))
		case "version":
			L.Push(lua.LString(p.Version()))
		case "arch":
			L.Push(lua.LString(p.Arch()))
		case "essential":
			L.Push(lua.LBool(p.Spec().Essential))
		case "description":
			L.Push(lua.LString(p.Spec().Description))
		case "author":
			L.Push(lua.LString(p.Spec().Author))
		case "email":
			L.Push(lua.LString(p.Spec().Email))
		case "maintainer":
			L.Push(lua.LString(p.Spec().Maintainer))
		case "state":
			L.Push(lua.LString(p.CurrentState().String()))
		default:
			if fn, ok := methods[key]; ok {
				L.Push(L.NewFunction(fn))
			} else {
				L.Push(lua.LNil)
			}
		}
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		p := checkProject(L)
		key := L.CheckString(2)
		val := lua.LVAsString(L.Get(3))

		switch key {
		case "base_dir":
			p.SetBaseDir(val)
		case "man_dir":
			p.SetManDir(val)
		default:
			L.RaiseError("field %s is not assignable", key)
		}
		return 0
	}))
}

func checkProject(L *lua.LState) *project.Project {
	ud := L.CheckUserData(1)
	if p, ok := ud.Value.(*project.Project); ok {
		return p
	}
	L.ArgError(1, "project expected")
	return nil
}

func (h *Host) projectMethods() map[string]lua.LGFunction {
	m := map[string]lua.LGFunction{
		"dir": func(L *lua.LState) int {
			L.Push(lua.LString(checkProject(L).Dir()))
			return 1
		},
		"artifact": func(L *lua.LState) int {
			L.Push(lua.LString(checkProject(L).Artifact()))
			return 1
		},
		"files": func(L *lua.LState) int {
			p := checkProject(L)
			t := L.NewTable()
			for _, f := range p.Spec().Files {
				ft := L.NewTable()
				L.SetField(ft, "src", lua.LString(f.Src))
				L.SetField(ft, "dst", lua.LString(f.Dst))
				L.SetField(ft, "mode", lua.LNumber(f.Mode))
				L.SetField(ft, "dir", lua.LBool(f.Dir))
				t.Append(ft)
			}
			L.Push(t)
			return 1
		},
		"add_file": func(L *lua.LState) int {
			p := checkProject(L)
			for i := 2; i <= L.GetTop(); i++ {
				f, err := fileFromValue(L.Get(i))
				if err != nil {
					L.RaiseError("%s", err)
					return 0
				}
				if err := p.AddFile(f); err != nil {
					L.RaiseError("%s", err)
					return 0
				}
			}
			return 0
		},
		"add_files": func(L *lua.LState) int {
			p := checkProject(L)
			var convErr error
			L.CheckTable(2).ForEach(func(_, v lua.LValue) {
				if convErr != nil {
					return
				}
				f, err := fileFromValue(v)
				if err == nil {
					err = p.AddFile(f)
				}
				convErr = err
			})
			if convErr != nil {
				L.RaiseError("%s", convErr)
			}
			return 0
		},
		"add_binary": func(L *lua.LState) int {
			if err := checkProject(L).AddBinary(L.CheckString(2)); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"apt_source": func(L *lua.LState) int {
			if err := checkProject(L).AptSource(aptSourceFromTable(L.CheckTable(2))); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"go_build": func(L *lua.LState) int {
			p := checkProject(L)
			g, err := h.goOpts(L.Get(2))
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			if err := p.GoBuild(g); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"cargo_build": func(L *lua.LState) int {
			p := checkProject(L)
			c, err := h.cargoOpts(L.Get(2))
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			if err := p.CargoBuild(c); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"scdoc": func(L *lua.LState) int {
			p := checkProject(L)
			opts, err := scdocOpts(L.CheckTable(2))
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			if err := p.SCDoc(opts); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"merge_deb": func(L *lua.LState) int {
			if err := checkProject(L).MergeDeb(L.CheckString(2)); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"download_binary": func(L *lua.LState) int {
			p := checkProject(L)
			url := L.CheckString(2)
			name := ""
			if s, ok := L.Get(3).(lua.LString); ok {
				name = string(s)
			}
			if err := p.DownloadBinary(url, name, dlOpts(L.Get(4))); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"reset_build_number": func(L *lua.LState) int {
			if err := checkProject(L).ResetBuildNumber(); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"enable_auto_build_numbers": func(L *lua.LState) int {
			checkProject(L).EnableAutoBuildNumbers()
			return 0
		},
		"build": func(L *lua.LState) int {
			if err := checkProject(L).Build(); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
		"finish": func(L *lua.LState) int {
			if err := checkProject(L).Finish(); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		},
	}

	for name := range recipeMethods {
		name := name
		m["download_"+name] = func(L *lua.LState) int {
			p := checkProject(L)
			if err := p.DownloadRecipe(name, dlOpts(L.Get(2))); err != nil {
				L.RaiseError("%s", err)
			}
			return 0
		}
	}
	return m
}

// recipeMethods mirrors the downloader's recipe set so each one gets
// a session method.
var recipeMethods = map[string]struct{}{
	"kubectl":       {},
	"jq":            {},
	"youtube_dl":    {},
	"yt_dlp":        {},
	"mc":            {},
	"tetris":        {},
	"balena_etcher": {},
}
