package luagen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/infer"
	"github.com/ardnew/jammy/lang/token"
)

func (g *generator) expr(e ast.Expr) string {
	if g.fold {
		if s, ok := fold(e); ok {
			return s
		}
	}

	switch e := e.(type) {
	case *ast.Nil:
		return "nil"

	case *ast.Bool:
		return strconv.FormatBool(e.Value)

	case *ast.Number:
		if e.Raw != "" {
			return e.Raw
		}

		return strconv.FormatFloat(e.Value, 'g', -1, 64)

	case *ast.String:
		return `"` + e.Value + `"`

	case *ast.FString:
		args := make([]string, len(e.Values))
		for i, v := range e.Values {
			args[i] = "tostring(" + g.expr(v) + ")"
		}

		return `string.format("` + e.Format + `", ` + strings.Join(args, ", ") + ")"

	case *ast.Variable:
		return e.Name

	case *ast.IndexObject:
		return g.operand(e.Left) + "." + e.Name

	case *ast.IndexKey:
		return g.operand(e.Left) + "[" + g.expr(e.Key) + "]"

	case *ast.MethodCall:
		return g.operand(e.Left) + "(" + g.list(e.Args) + ")"

	case *ast.SelfMethodCall:
		return g.operand(e.Left) + ":" + e.Member + "(" + g.list(e.Args) + ")"

	case *ast.SuperCall:
		if len(g.methods) == 0 {
			return g.fail(e, "'super' call outside of a prototype method")
		}

		args := "self"
		if len(e.Args) > 0 {
			args += ", " + g.list(e.Args)
		}

		return "self.super." + g.methods[len(g.methods)-1] + "(" + args + ")"

	case *ast.SuperValue:
		return "self.super"

	case *ast.Binary:
		return g.binary(e)

	case *ast.Unary:
		if e.Op == token.Excl {
			return "not (" + g.expr(e.Right) + ")"
		}

		return "-(" + g.expr(e.Right) + ")"

	case *ast.Len:
		return "#(" + g.expr(e.Value) + ")"

	case *ast.Tuple:
		return g.list(e.Values)

	case *ast.Brackets:
		return "(" + g.expr(e.Inner) + ")"

	case *ast.Table:
		return g.table(e.Entries)

	case *ast.Array:
		return "array.new(" + g.list(e.Elements) + ")"

	case *ast.Group:
		return "group.new(" + g.list(e.Elements) + ")"

	case *ast.Function:
		return g.function(e, nil)

	case *ast.BlockExpr:
		return g.blockExpr(e, false)

	case *ast.IfExpr:
		return g.ifExpr(e, false)

	case *ast.TryExpr:
		return g.tryExpr(e, false)

	case *ast.MatchExpr:
		return g.matchExpr(e, false)

	case *ast.ForInExpr:
		return "(function() local t = {} " + g.forHead(e.Vars, e.Iter) +
			"t[#t+1] = " + g.expr(e.Body) + " end return unpack(t) end)()"
	}

	panic(fmt.Sprintf("luagen: unexpected expression %T", e))
}

// operand translates the left side of an index or call. Literals must be
// parenthesized there.
func (g *generator) operand(e ast.Expr) string {
	switch e.(type) {
	case *ast.Number, *ast.String, *ast.FString:
		return "(" + g.expr(e) + ")"
	}

	return g.expr(e)
}

// groupMethods maps a comparison to the group method that implements it,
// and whether its result is negated.
var groupMethods = map[token.Kind]struct {
	name   string
	negate bool
}{
	token.Eq:  {"eq", false},
	token.Neq: {"eq", true},
	token.Lt:  {"lt", false},
	token.Leq: {"le", false},
	token.Gt:  {"le", true},
	token.Geq: {"lt", true},
}

func (g *generator) binary(e *ast.Binary) string {
	l, r := g.expr(e.Left), g.expr(e.Right)

	if e.Op == token.Percent {
		return "math.fmod((" + l + "), (" + r + "))"
	}

	if _, ok := e.Left.(*ast.Group); ok {
		if m, ok := groupMethods[e.Op]; ok {
			call := l + ":" + m.name + "(" + r + ")"
			if m.negate {
				return "(not " + call + ")"
			}

			return call
		}
	}

	return "(" + l + luaOp(e.Op) + r + ")"
}

func luaOp(op token.Kind) string {
	switch op {
	case token.And:
		return " and "
	case token.Or:
		return " or "
	}

	return op.String()
}

func (g *generator) table(entries []ast.Entry) string {
	if len(entries) == 0 {
		return "{}"
	}

	parts := make([]string, len(entries))
	for i, ent := range entries {
		parts[i] = `["` + ent.Key + `"] = ` + g.expr(ent.Value)
	}

	return "{ " + strings.Join(parts, ", ") + " }"
}

// closure wraps statements in an immediately called function, unless they
// already are the body of one.
func closure(body string, inline bool) string {
	if inline {
		return body
	}

	return "(function() " + body + " end)()"
}

// tail translates the value a function returns. Block, if, try and match
// expressions are emitted as statements that return from the function.
func (g *generator) tail(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.BlockExpr:
		return g.blockExpr(e, true)
	case *ast.IfExpr:
		return g.ifExpr(e, true)
	case *ast.TryExpr:
		return g.tryExpr(e, true)
	case *ast.MatchExpr:
		return g.matchExpr(e, true)
	}

	return "return " + g.expr(e)
}

func (g *generator) blockExpr(e *ast.BlockExpr, inline bool) string {
	body := g.join(e.Stmts)
	if inline {
		return body
	}

	if body == "" {
		return "(function() end)()"
	}

	return "(function() " + body + "; end)()"
}

func (g *generator) ifExpr(e *ast.IfExpr, inline bool) string {
	s := "if " + g.expr(e.Cond) + " then " + g.tail(e.Then)
	if e.Else != nil {
		s += " else " + g.tail(e.Else)
	}

	return closure(s+" end", inline)
}

func (g *generator) tryExpr(e *ast.TryExpr, inline bool) string {
	if e.Else == nil {
		return "select(2, pcall(function() " + g.tail(e.Body) + " end))"
	}

	s := "local __return_values = { pcall(function() " + g.tail(e.Body) + " end) }; " +
		"if not __return_values[1] then " + g.tail(e.Else) + " end; " +
		"return select(2, unpack(__return_values))"

	return closure(s, inline)
}

func (g *generator) matchExpr(e *ast.MatchExpr, inline bool) string {
	var b strings.Builder

	if e.Decl != nil {
		b.WriteString(g.stmt(e.Decl) + " ")
	}

	if len(e.Cases) == 0 {
		if e.Default != nil {
			b.WriteString(g.tail(e.Default))
		}

		return closure(b.String(), inline)
	}

	for i, c := range e.Cases {
		if i > 0 {
			b.WriteString(" else")
		}

		b.WriteString("if " + g.expr(c.Cond) + " then " + g.tail(c.Value))
	}

	if e.Default != nil {
		b.WriteString(" else " + g.tail(e.Default))
	}

	b.WriteString(" end")

	return closure(b.String(), inline)
}

// function translates a function value. selfType, when the function takes
// self and declares no type of its own, is the prototype self must belong
// to.
func (g *generator) function(fn *ast.Function, selfType ast.Expr) string {
	if fn.SelfType != nil {
		selfType = fn.SelfType
	}

	var (
		names []string
		b     strings.Builder
	)

	if fn.TakesSelf {
		names = append(names, "self")
	}

	var rest string

	for _, p := range fn.Params {
		if p.Variadic {
			names, rest = append(names, "..."), p.Name

			continue
		}

		names = append(names, p.Name)
	}

	b.WriteString("function(" + strings.Join(names, ", ") + ") ")

	if rest != "" {
		b.WriteString("local " + rest + " = {...} ")
	}

	if fn.TakesSelf && selfType != nil {
		b.WriteString("if not has_metatable(self, (" + g.expr(selfType) + ")) then " +
			`error("bad argument 'self' to " .. tostring(debug.getinfo(1, 'n').name) .. " (got " .. type(self) .. ")", 2) end; `)
	}

	for _, p := range fn.Params {
		if p.Default != nil {
			b.WriteString(p.Name + " = " + p.Name + " == nil and (" + g.expr(p.Default) + ") or " + p.Name + ";")
		}
	}

	if g.typecheck {
		for i, p := range fn.Params {
			if p.Type != nil && !p.Variadic {
				b.WriteString(typecheck(i+1, p))
			}
		}
	}

	b.WriteString(g.tail(fn.Body) + " end")

	return b.String()
}

// typecheck returns the runtime check of the annotated parameter p, which
// is argument n of its function not counting self.
func typecheck(n int, p ast.Param) string {
	optional := ""
	if p.Type.Optional {
		optional = "_optional"
	}

	if len(p.Type.Allowed) == 1 {
		return fmt.Sprintf(`__typecheck_arg%s(typechecks, %d, %s, "%s");`, optional, n, p.Name, p.Type.Allowed[0])
	}

	names := make([]string, len(p.Type.Allowed))
	for i, name := range p.Type.Allowed {
		names[i] = `"` + name + `"`
	}

	return fmt.Sprintf(`__typecheck_arg_union%s(typechecks, %d, %s, { %s });`, optional, n, p.Name, strings.Join(names, ","))
}

// forHead translates the head of a for-in loop, including the "do". Calls
// of range and range_inc become numeric loops.
func (g *generator) forHead(vars []string, iter ast.Expr) string {
	if !infer.IsRange(iter) {
		return "for " + strings.Join(vars, ", ") + " in " + g.expr(iter) + " do "
	}

	call := iter.(*ast.MethodCall)
	inclusive := call.Left.(*ast.Variable).Name == "range_inc"
	v := vars[0]

	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = g.expr(a)
	}

	switch {
	case len(args) == 1 && inclusive:
		return "for " + v + " = 1, " + args[0] + " do "
	case len(args) == 1:
		return "for " + v + " = 0, ((" + args[0] + ")-1) do "
	case len(args) == 2 && inclusive:
		return "for " + v + " = " + args[0] + ", " + args[1] + " do "
	case len(args) == 2:
		return "for " + v + " = " + args[0] + ", ((" + args[1] + ")-1) do "
	case inclusive:
		return "for " + v + " = " + args[0] + ", " + args[1] + ", " + args[2] + " do "
	}

	switch step(call.Args[2]) {
	case 1:
		return "for " + v + " = " + args[0] + ", ((" + args[1] + ")-1) do "
	case -1:
		return "for " + v + " = " + args[0] + ", ((" + args[1] + ")+1), -1 do "
	}

	return "local __incr = " + args[2] + "; for " + v + " = " + args[0] + ", ((" +
		args[1] + ")-math.sign(__incr)), __incr do "
}

// step returns 1 or -1 if e is that literal, and 0 otherwise.
func step(e ast.Expr) int {
	switch e := e.(type) {
	case *ast.Number:
		if e.Value == 1 {
			return 1
		}
	case *ast.Unary:
		if n, ok := e.Right.(*ast.Number); ok && e.Op == token.Minus && n.Value == 1 {
			return -1
		}
	}

	return 0
}
