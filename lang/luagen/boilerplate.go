package luagen

import (
	_ "embed"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/jammy/pkg"
)

// runtime defines the helpers generated code calls: the typecheck
// functions, array and group, range and range_inc, and the import glue.
//
//go:embed runtime.lua
var runtime string

// Runtime returns the Lua source of the runtime helpers.
func Runtime() string { return runtime }

const (
	lovePrelude = `local import = require;__root_dir = "";`

	entryPrelude = `local __parent_dir;arg[0] = arg[0]:gsub("\\", "/");` +
		`if arg[0]:find("/") then __parent_dir = arg[0]:match("(.*/)") else __parent_dir = "" end;` +
		`__root_dir=__parent_dir;`

	modulePrelude = `local __require_params = (...);` +
		`if not __require_params then error("Cannot run this module because it was not compiled as an entry point.") end;` +
		`local __parent_dir = __require_params:match("(.-)[^%.]+$"):gsub("%.", "/");`

	importFunc = `local function import(path) return require(path_join(__parent_dir, path):gsub("/", ".")) end;`

	unitPrelude = `local exports={};__env = {};setmetatable(__env, { __index = _G });`
)

func (g *generator) boilerplate() string {
	var b strings.Builder

	name := g.name
	if name == "" {
		name = "chunk"
	}

	b.WriteString("-- " + name + " - generated by " + pkg.Name + " " + strings.TrimSpace(pkg.Version) + "\n")
	b.WriteString("-- JAMMY BOILERPLATE\n")

	switch g.mode {
	case LoveEntryPoint:
		b.WriteString(lovePrelude)
	case EntryPoint:
		b.WriteString(entryPrelude + importFunc)
	default:
		b.WriteString(modulePrelude + importFunc)
	}

	b.WriteString("\n")

	if g.mode.isEntry() {
		if p := luaPath(g.luaPath); p != "" {
			b.WriteString("package.path = " + quote(p) + ` .. ";" .. package.path;` + "\n")
		}
	}

	if g.mode.withRuntime() {
		b.WriteString(runtime)
	}

	b.WriteString(unitPrelude)
	b.WriteString("\n-- END JAMMY BOILERPLATE\n")

	return b.String()
}

// luaPath joins search templates in the format of package.path, dropping
// blank and repeated entries.
func luaPath(entries []string) string {
	if len(entries) == 0 {
		return ""
	}

	return mung.Make(
		mung.WithDelim(";"),
		mung.WithPrefixItems(entries...),
		mung.WithFilter(func(s string) bool { return strings.TrimSpace(s) != "" }),
	).String()
}

// quote returns s as a Lua string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

	return `"` + r.Replace(s) + `"`
}
