package luagen

import (
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/token"
)

// foldOps maps the operators that fold to their expr-lang spelling.
// Modulo is left to math.fmod and concatenation to Lua.
var foldOps = map[token.Kind]string{
	token.Plus:   "+",
	token.Minus:  "-",
	token.Times:  "*",
	token.Divide: "/",
	token.Caret:  "^",
	token.Eq:     "==",
	token.Neq:    "!=",
	token.Lt:     "<",
	token.Gt:     ">",
	token.Leq:    "<=",
	token.Geq:    ">=",
	token.And:    "&&",
	token.Or:     "||",
}

// fold evaluates an operation whose operands are all number or boolean
// literals, and returns the Lua literal of its value. It reports false if
// e is not such an operation or does not evaluate cleanly.
func fold(e ast.Expr) (string, bool) {
	switch e.(type) {
	case *ast.Binary, *ast.Unary:
	default:
		return "", false
	}

	src, ok := foldSource(e)
	if !ok {
		return "", false
	}

	program, err := expr.Compile(src)
	if err != nil {
		return "", false
	}

	out, err := vm.Run(program, nil)
	if err != nil {
		return "", false
	}

	return literal(out)
}

// foldSource returns e in expr-lang syntax. Numbers are written as floats
// so that arithmetic follows Lua.
func foldSource(e ast.Expr) (string, bool) {
	switch e := e.(type) {
	case *ast.Number:
		s := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}

		return s, true

	case *ast.Bool:
		return strconv.FormatBool(e.Value), true

	case *ast.Brackets:
		inner, ok := foldSource(e.Inner)

		return "(" + inner + ")", ok

	case *ast.Unary:
		right, ok := foldSource(e.Right)
		if e.Op == token.Excl {
			return "!(" + right + ")", ok
		}

		return "-(" + right + ")", ok

	case *ast.Binary:
		op, ok := foldOps[e.Op]
		if !ok {
			return "", false
		}

		l, ok := foldSource(e.Left)
		if !ok {
			return "", false
		}

		r, ok := foldSource(e.Right)

		return "(" + l + " " + op + " " + r + ")", ok
	}

	return "", false
}

func literal(v any) (string, bool) {
	var s string

	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v), true
	case int:
		s = strconv.Itoa(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}

		s = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return "", false
	}

	if strings.HasPrefix(s, "-") {
		return "(" + s + ")", true
	}

	return s, true
}
