package luagen

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/jammy/lang/ast"
)

func (g *generator) stmt(s ast.Stmt) string {
	switch s := s.(type) {
	case *ast.MethodCall, *ast.SelfMethodCall, *ast.SuperCall:
		return g.expr(s.(ast.Expr))

	case *ast.BlockStmt:
		if body := g.join(s.Stmts); body != "" {
			return "do " + body + "; end"
		}

		return "do end"

	case *ast.IfStmt:
		text := "if " + g.expr(s.Cond) + " then " + g.stmt(s.Then)
		if s.Else != nil {
			text += " else " + g.stmt(s.Else)
		}

		return text + " end"

	case *ast.TryStmt:
		return g.tryStmt(s)

	case *ast.MatchStmt:
		return g.matchStmt(s)

	case *ast.ForInStmt:
		return g.forHead(s.Vars, s.Iter) + g.loopBody(s.Body, s.Loop) + " end"

	case *ast.WhileStmt:
		return "while " + g.expr(s.Cond) + " do " + g.loopBody(s.Body, s.Loop) + " end"

	case *ast.BreakStmt:
		if len(g.loops) == 0 {
			return g.fail(s, "'break' outside of a loop")
		}

		if g.loops[len(g.loops)-1].UsesContinue {
			return "__broken = true; break"
		}

		return "break"

	case *ast.ContinueStmt:
		if len(g.loops) == 0 {
			return g.fail(s, "'continue' outside of a loop")
		}

		return "break"

	case *ast.ReturnStmt:
		var v string
		if s.Value != nil {
			v = g.expr(s.Value)
		}

		if s.Virtual {
			return "__return_value = {" + v + "}; do return end"
		}

		if v == "" {
			return "do return end"
		}

		return "do return " + v + " end"

	case *ast.VarDec:
		return g.varDec(s)

	case *ast.VarAssign:
		targets := make([]string, len(s.Targets))
		for i, t := range s.Targets {
			targets[i] = g.expr(t)
		}

		return strings.Join(targets, ", ") + " = " + g.list(s.Values)

	case *ast.Class:
		return g.class(s)

	case *ast.Use:
		return g.use(s)

	case *ast.Export:
		g.exports++

		as := s.As
		if as == "" {
			as = s.Name
		}

		return "exports[" + strconv.Itoa(g.exports) + "] = " + s.Name + " --[[ as '" + as + "' ]]"
	}

	panic(fmt.Sprintf("luagen: unexpected statement %T", s))
}

// loopBody translates the body of a loop. A continue leaves a one-pass
// repeat block around the body; a break inside that block sets __broken
// so the loop itself can be left after it.
func (g *generator) loopBody(body ast.Stmt, loop ast.Loop) string {
	g.loops = append(g.loops, loop)
	text := g.stmt(body)
	g.loops = g.loops[:len(g.loops)-1]

	switch {
	case loop.UsesContinue && loop.UsesBreak:
		return "local __broken = false; repeat " + text + " until true; if __broken then break end; "
	case loop.UsesContinue:
		return "repeat " + text + " until true; "
	}

	return text
}

// tryStmt runs the body in a protected call. A return inside the body
// stores its values in __return_value, which is returned once the call
// completes. A nested try statement shares the variable of the outermost.
func (g *generator) tryStmt(s *ast.TryStmt) string {
	var b strings.Builder

	body := g.stmt(s.Body)

	if s.UsesReturn && !s.Nested {
		b.WriteString("local __return_value; ")
	}

	if s.Else != nil {
		b.WriteString("if not pcall(function() " + body + " end) then " + g.stmt(s.Else) + " end")
	} else {
		b.WriteString("pcall(function() " + body + " end)")
	}

	if s.UsesReturn {
		b.WriteString("; if __return_value then return unpack(__return_value) end")
	}

	return b.String()
}

func (g *generator) matchStmt(s *ast.MatchStmt) string {
	if len(s.Cases) == 0 && s.Default == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("do ")

	if s.Decl != nil {
		b.WriteString(g.stmt(s.Decl) + " ")
	}

	if len(s.Cases) == 0 {
		b.WriteString(g.stmt(s.Default) + " end")

		return b.String()
	}

	for i, c := range s.Cases {
		if i > 0 {
			b.WriteString(" else")
		}

		b.WriteString("if " + g.expr(c.Cond) + " then " + g.stmt(c.Body))
	}

	if s.Default != nil {
		b.WriteString(" else " + g.stmt(s.Default))
	}

	b.WriteString(" end end")

	return b.String()
}

// varDec declares locals. Functions are declared before they are assigned
// so that they can call themselves.
func (g *generator) varDec(s *ast.VarDec) string {
	var (
		names, values   []string
		fnames, fvalues []string
	)

	for i, name := range s.Names {
		if i < len(s.Values) {
			if fn, ok := s.Values[i].(*ast.Function); ok {
				fnames = append(fnames, name)
				fvalues = append(fvalues, g.expr(fn))

				continue
			}

			values = append(values, g.expr(s.Values[i]))
		}

		names = append(names, name)
	}

	var parts []string

	if len(names) > 0 {
		text := "local " + strings.Join(names, ", ")
		if len(values) > 0 {
			text += " = " + strings.Join(values, ", ")
		}

		parts = append(parts, text)
	}

	if len(fnames) > 0 {
		list := strings.Join(fnames, ", ")
		parts = append(parts, "local "+list, list+" = "+strings.Join(fvalues, ", "))
	}

	return strings.Join(parts, ";")
}

// class translates a prototype declaration. The prototype is its own
// metatable; calling it creates an instance and runs the instance's
// constructor.
func (g *generator) class(s *ast.Class) string {
	g.protos = true

	super := s.Extends
	if super == "" {
		super = "nil"
	}

	entries := []ast.Entry{
		{Key: "super", Value: &ast.Variable{Name: "__super"}},
		{Key: "__name", Value: &ast.String{Value: s.Name}},
	}

	if !hasEntry(s.Table, "__tostring") {
		entries = append([]ast.Entry{{
			Key: "__tostring",
			Value: &ast.Function{
				TakesSelf: true,
				Body:      &ast.String{Value: "<" + s.Name + ">"},
			},
		}}, entries...)
	}

	entries = append(entries, s.Table.Entries...)
	self := &ast.Variable{Name: s.Name}

	var b strings.Builder

	b.WriteString("local " + s.Name + ";do local __super = " + super + ";local __proto = {};__proto.__index = __proto;")
	b.WriteString(s.Name + " = setmetatable(__proto, setmetatable({ " +
		"__call = function(self, ...) " +
		"local instance = setmetatable({ __class = __proto }, __proto); " +
		"(instance.constructor or nop)(instance, ...); " +
		"return instance end, " +
		"__index = __super }, __super));")

	for _, ent := range entries {
		g.methods = append(g.methods, ent.Key)

		var value string
		if fn, ok := ent.Value.(*ast.Function); ok {
			value = g.function(fn, self)
		} else {
			value = g.expr(ent.Value)
		}

		g.methods = g.methods[:len(g.methods)-1]

		b.WriteString(`__proto["` + ent.Key + `"] = ` + value + ";")
	}

	b.WriteString("end typechecks = table.merge(typechecks, { " + s.Name +
		` = function(arg) return (type(arg)=="table") and (arg.__class==` + s.Name + ") end })")

	return b.String()
}

func hasEntry(t *ast.Table, key string) bool {
	for _, ent := range t.Entries {
		if ent.Key == key {
			return true
		}
	}

	return false
}

// use imports a module. Modules under std/ are found relative to the
// program root, others relative to the importing unit. The exported names
// are bound as locals and in __env.
func (g *generator) use(s *ast.Use) string {
	path := strings.ReplaceAll(s.Path, `\`, "/")
	path = strings.TrimSuffix(path, ".jam")

	load := `import("` + path + `")`
	if strings.HasPrefix(path, "std/") {
		load = `require(path_join(__root_dir, "` + path + `"):gsub("/", "."))`
	}

	var imp Import

	if g.importer != nil {
		var err error
		if imp, err = g.importer.Import(s.Path); err != nil {
			g.logger.Warn("import parameters unavailable",
				slog.String("path", s.Path),
				slog.Any("error", err),
			)

			imp = Import{}
		}
	}

	text := load

	if n := len(imp.Exports); n > 0 {
		names := strings.Join(imp.Exports, ", ")

		env := make([]string, n)
		for i, name := range imp.Exports {
			env[i] = "__env." + name
		}

		text = "local " + names + " = __import(" + strconv.Itoa(n) + ", {" + names + "}, " + load + ");" +
			strings.Join(env, ", ") + " = " + names
	}

	if imp.Append != "" {
		text += ";" + imp.Append
	}

	return text
}
