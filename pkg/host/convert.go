package host

import (
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/the-maldridge/pallet/pkg/types"
)

func stringField(tbl *lua.LTable, key string) string {
	if v := tbl.RawGetString(key); v != lua.LNil {
		return lua.LVAsString(v)
	}
	return ""
}

func boolField(tbl *lua.LTable, key string) bool {
	return lua.LVAsBool(tbl.RawGetString(key))
}

func intField(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func stringSliceField(tbl *lua.LTable, key string) []string {
	sub, ok := tbl.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, sub.Len())
	sub.ForEach(func(_, v lua.LValue) {
		out = append(out, lua.LVAsString(v))
	})
	return out
}

func joinPath(parts []string) string {
	return filepath.Join(parts...)
}

func isAbs(p string) bool {
	return filepath.IsAbs(p)
}

func parentPath(p string) string {
	d := filepath.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

func basePath(p string) string {
	return filepath.Base(p)
}

// specFromTable converts a script-side specification table into a
// validated-shape BuildSpec.  Validation proper happens at session
// construction.
func specFromTable(tbl *lua.LTable) (*types.BuildSpec, error) {
	spec := &types.BuildSpec{
		Package:     stringField(tbl, "package"),
		Name:        stringField(tbl, "name"),
		Version:     stringField(tbl, "version"),
		Description: stringField(tbl, "description"),
		Essential:   boolField(tbl, "essential"),
		Author:      stringField(tbl, "author"),
		Email:       stringField(tbl, "email"),
		Maintainer:  stringField(tbl, "maintainer"),
		Homepage:    stringField(tbl, "homepage"),
		Section:     stringField(tbl, "section"),

		Dependencies: stringSliceField(tbl, "dependencies"),
		Recommends:   stringSliceField(tbl, "recommends"),
		Suggests:     stringSliceField(tbl, "suggests"),
	}

	spec.Arch = types.ArchFromString(stringField(tbl, "arch"))
	spec.Priority = types.PriorityFromString(stringField(tbl, "priority"))
	spec.Urgency = types.UrgencyFromString(stringField(tbl, "urgency"))

	if files, ok := tbl.RawGetString("files").(*lua.LTable); ok {
		var convErr error
		files.ForEach(func(_, v lua.LValue) {
			if convErr != nil {
				return
			}
			f, err := fileFromValue(v)
			if err != nil {
				convErr = err
				return
			}
			spec.Files = append(spec.Files, f)
		})
		if convErr != nil {
			return nil, convErr
		}
	}

	if sources, ok := tbl.RawGetString("apt_sources").(*lua.LTable); ok {
		sources.ForEach(func(_, v lua.LValue) {
			if st, ok := v.(*lua.LTable); ok {
				spec.AptSources = append(spec.AptSources, aptSourceFromTable(st))
			}
		})
	}

	if scripts, ok := tbl.RawGetString("scripts").(*lua.LTable); ok {
		spec.Scripts = types.MaintainerScripts{
			Preinst:  stringField(scripts, "preinst"),
			Postinst: stringField(scripts, "postinst"),
			Prerm:    stringField(scripts, "prerm"),
			Postrm:   stringField(scripts, "postrm"),
		}
	}

	return spec, nil
}

// fileFromValue accepts the "src:dst" shorthand string or a file
// table with src, dst, mode, and dir keys.  Modes may be octal
// strings or numbers already produced by octal().
func fileFromValue(v lua.LValue) (types.File, error) {
	switch val := v.(type) {
	case lua.LString:
		return types.ParseFileShorthand(string(val)), nil
	case *lua.LTable:
		f := types.File{
			Src:  stringField(val, "src"),
			Dst:  stringField(val, "dst"),
			Mode: types.DefaultFileMode,
			Dir:  boolField(val, "dir"),
		}
		switch m := val.RawGetString("mode").(type) {
		case lua.LNumber:
			f.Mode = uint32(m)
		case lua.LString:
			mode, err := types.ParseMode(string(m))
			if err != nil {
				return types.File{}, err
			}
			f.Mode = mode
		}
		return f, nil
	}
	return types.File{}, &types.SpecError{Field: "files", Reason: "entries must be strings or tables"}
}

func aptSourceFromTable(tbl *lua.LTable) types.AptSource {
	return types.AptSource{
		Name:       stringField(tbl, "name"),
		URL:        stringField(tbl, "url"),
		Components: stringField(tbl, "components"),
		GPGKeyURL:  stringField(tbl, "gpg_key_url"),
	}
}
