package parser

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/token"
)

func tokens(t *testing.T, src string) []token.Token {
	t.Helper()

	res := lexer.Lex(src)
	if res.Status != diag.Ok {
		t.Fatalf("Lex(%q): %v", src, res.Err())
	}

	return res.Value
}

func parse(t *testing.T, src string) diag.Result[[]ast.Stmt] {
	t.Helper()

	return Parse(tokens(t, src))
}

func parseOK(t *testing.T, src string) []ast.Stmt {
	t.Helper()

	res := parse(t, src)
	if res.Status != diag.Ok {
		t.Fatalf("Parse(%q): %v", src, res.Err())
	}

	return res.Value
}

// sexpr renders an expression compactly for comparison.
func sexpr(n ast.Node) string {
	list := func(es []ast.Expr) string {
		parts := make([]string, len(es))
		for i, e := range es {
			parts[i] = " " + sexpr(e)
		}

		return strings.Join(parts, "")
	}

	switch n := n.(type) {
	case *ast.Number:
		return n.Raw
	case *ast.Variable:
		return n.Name
	case *ast.String:
		return strconv.Quote(n.Value)
	case *ast.Bool:
		return strconv.FormatBool(n.Value)
	case *ast.Binary:
		return "(" + n.Op.String() + " " + sexpr(n.Left) + " " + sexpr(n.Right) + ")"
	case *ast.Unary:
		return "(" + n.Op.String() + " " + sexpr(n.Right) + ")"
	case *ast.Len:
		return "(len " + sexpr(n.Value) + ")"
	case *ast.Brackets:
		return "[" + sexpr(n.Inner) + "]"
	case *ast.MethodCall:
		return "(call " + sexpr(n.Left) + list(n.Args) + ")"
	case *ast.SelfMethodCall:
		return "(" + sexpr(n.Left) + ":" + n.Member + list(n.Args) + ")"
	case *ast.IndexObject:
		return sexpr(n.Left) + "." + n.Name
	case *ast.IndexKey:
		return sexpr(n.Left) + "#" + sexpr(n.Key)
	case *ast.Tuple:
		return "(tuple" + list(n.Values) + ")"
	case *ast.Function:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}

		return "(fn (" + strings.Join(names, " ") + ") " + sexpr(n.Body) + ")"
	case *ast.Table:
		parts := make([]string, len(n.Entries))
		for i, e := range n.Entries {
			parts[i] = e.Key + "=" + sexpr(e.Value)
		}

		return "{" + strings.Join(parts, " ") + "}"
	case *ast.BlockExpr:
		return "(block " + strconv.Itoa(len(n.Stmts)) + ")"
	}

	return n.Kind()
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"left associative", "a - b - c - d", "(- (- (- a b) c) d)"},
		{"single precedence tier", "a + b * c", "(* (+ a b) c)"},
		{"brackets are not rotated", "a - (b - c)", "(- a [(- b c)])"},
		{"logical", "a == b && c", "(&& (== a b) c)"},
		{"unary minus", "-x - 1", "(- (- x) 1)"},
		{"len", "len xs + 1", "(+ (len xs) 1)"},
		{"shorthand call", "f x + 1", "(+ (call f x) 1)"},
		{"minus is subtraction", "f - 1", "(- f 1)"},
		{"bang call", "f!", "(call f)"},
		{"bang before operand", "f !x", "(call f (! x))"},
		{"empty parens call", "f()", "(call f)"},
		{"call chain", "a.b(1)#k:c 2", "((call a.b 1)#k:c 2)"},
		{"spread", "...xs", "(call unpack xs)"},
		{"tuple", "(1, 2)", "(tuple 1 2)"},
		{"nested tuple", "((1, 2), (3))", "(tuple (tuple 1 2) [3])"},
		{"lambda list", "(x, y) => x", "(fn (x y) x)"},
		{"lambda single", "(x) => x + 1", "(fn (x) (+ x 1))"},
		{"lambda bare", "x => x", "(fn (x) x)"},
		{"lambda typed", "(x: number = 1) => x", "(fn (x) x)"},
		{"takes self", "() :=> @name", "(fn () self.name)"},
		{"brackets", "(1 + 2)", "[(+ 1 2)]"},
		{"table", "{ a: 1, b: 2 }", "{a=1 b=2}"},
		{"empty table", "{}", "{}"},
		{"block expression", "{ print x; => 1; }", "(block 2)"},
		{"zoom", ">> print x", "(block 1)"},
		{"self field", "@name", "self.name"},
		{"self call", "@go 1", "(self:go 1)"},
		{"if expression", "if c, 1 else 2", "if_expr"},
		{"for expression", "for x in xs, x", "for_in_expr"},
		{"array", "[1, 2]", "array"},
		{"group", "<<1, 2>>", "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := parseOK(t, "let v = "+tt.expr+";")

			dec, ok := stmts[0].(*ast.VarDec)
			if !ok || len(dec.Values) != 1 {
				t.Fatalf("got %#v, want a declaration with one value", stmts[0])
			}

			if got := sexpr(dec.Values[0]); got != tt.want {
				t.Errorf("%s parsed as %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParse_DeepParentheses(t *testing.T) {
	const depth = 64

	src := "let v = " + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth) + ";"
	want := strings.Repeat("[", depth) + "1" + strings.Repeat("]", depth)

	stmts := parseOK(t, src)

	if got := sexpr(stmts[0].(*ast.VarDec).Values[0]); got != want {
		t.Errorf("parsed as %s, want %s", got, want)
	}

	// Lambdas and tuples still parse at every depth.
	src = "let f = " + strings.Repeat("((x) => ", 8) + "(x, 1)" + strings.Repeat(")", 8) + ";"
	if got := sexpr(parseOK(t, src)[0].(*ast.VarDec).Values[0]); !strings.Contains(got, "(fn (x) (tuple x 1))") {
		t.Errorf("parsed as %s", got)
	}
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"shorthand statement", "print x + 1;", []string{"method_call"}},
		{"assignment", "a, b.c, d#1 = 1, 2, 3;", []string{"var_assign"}},
		{"self assignment", "@x = 2;", []string{"var_assign"}},
		{"self call statement", "@go 1;", []string{"self_method_call"}},
		{"method statement", "obj:m!;", []string{"self_method_call"}},
		{"declaration without value", "let a, b;", []string{"var_dec"}},
		{"if else", "if c, print a else print b;", []string{"if_stmt"}},
		{"while", "while x, x = x - 1;", []string{"while_stmt"}},
		{"for default variable", "for in xs, print 1;", []string{"for_in_stmt"}},
		{"try", "try risky! else print 1;", []string{"try_stmt"}},
		{"keyword ends call", "if ok!, f! else g!;", []string{"if_stmt"}},
		{"block", "{ print 1; print 2; };", []string{"block_stmt"}},
		{"return", "=> 1;", []string{"return_stmt"}},
		{"use", `use "std/math";`, []string{"use"}},
		{"export", "export a as b; export c;", []string{"export", "export"}},
		{"prototype", `prototype Dog from Animal { bark: () :=> print 1; name: "d"; };`, []string{"class"}},
		{"super call", "super 1;", []string{"super_call"}},
		{"match", "match { x => print 1; (y) => print 2; a > 1 => print 3; else print 4; };", []string{"match_stmt"}},
		{"match with declaration", "match (let a = f!) { a => print a; };", []string{"match_stmt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := parseOK(t, tt.src)
			if len(stmts) != len(tt.want) {
				t.Fatalf("got %d statements, want %d", len(stmts), len(tt.want))
			}

			for i, s := range stmts {
				if s.Kind() != tt.want[i] {
					t.Errorf("statement %d is %s, want %s", i, s.Kind(), tt.want[i])
				}
			}
		})
	}
}

func TestParse_Match(t *testing.T) {
	stmts := parseOK(t, "match { x => print 1; (y) => print 2; a > 1 => print 3; else print 4; };")

	m := stmts[0].(*ast.MatchStmt)
	if len(m.Cases) != 3 || m.Default == nil {
		t.Fatalf("got %d cases, default %v", len(m.Cases), m.Default)
	}

	conds := []string{"x", "y", "(> a 1)"}
	for i, c := range m.Cases {
		if got := sexpr(c.Cond); got != conds[i] {
			t.Errorf("case %d condition = %s, want %s", i, got, conds[i])
		}
	}
}

func TestParse_Prototype(t *testing.T) {
	stmts := parseOK(t, `prototype Dog from Animal { bark: () :=> print 1; name: "d"; };`)

	c := stmts[0].(*ast.Class)
	if c.Name != "Dog" || c.Extends != "Animal" || len(c.Table.Entries) != 2 {
		t.Fatalf("got %+v", c)
	}

	fn, ok := c.Table.Entries[0].Value.(*ast.Function)
	if !ok || !fn.TakesSelf {
		t.Errorf("bark = %#v, want a function taking self", c.Table.Entries[0].Value)
	}
}

func TestParse_InterpolatedString(t *testing.T) {
	stmts := parseOK(t, `let s = "a ${b + 1} c";`)

	f, ok := stmts[0].(*ast.VarDec).Values[0].(*ast.FString)
	if !ok {
		t.Fatalf("value is %T, want *ast.FString", stmts[0].(*ast.VarDec).Values[0])
	}

	if f.Format != "a %s c" || len(f.Values) != 1 || sexpr(f.Values[0]) != "(+ b 1)" {
		t.Errorf("got format %q values %d", f.Format, len(f.Values))
	}
}

func TestParse_OneDiagnosticPerStatement(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		diags int
		stmts int
	}{
		{"independent statements", "let = 1;\nprint x;\nlet y 2;\nz;\n", 3, 1},
		{"inside a block", "{ let = 1; print x; };\nprint y;", 1, 2},
		{"unterminated block", "print a;\n{ print x;", 1, 1},
		{"break outside loop", "break;\nprint 1;", 1, 1},
		{"break crossing a function", "while true, { let g = () => { break; }; };", 1, 1},
		{"variadic not last", "let f = (a..., b) => a;", 1, 0},
		{"interpolated use", `use "x${y}";`, 1, 0},
		{"not a statement", "1;\nprint 2;", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, tt.src)

			if len(res.Diags) != tt.diags {
				t.Errorf("got %d diagnostics, want %d: %v", len(res.Diags), tt.diags, res.Diags)
			}

			if len(res.Value) != tt.stmts {
				t.Errorf("got %d statements, want %d", len(res.Value), tt.stmts)
			}

			if res.Status != diag.Recoverable {
				t.Errorf("status = %v, want recoverable", res.Status)
			}

			for _, d := range res.Diags {
				if d.Class != diag.Syntax {
					t.Errorf("diagnostic class = %v, want syntax", d.Class)
				}
			}
		})
	}
}

func TestParse_ErrorMessage(t *testing.T) {
	res := parse(t, "let x = 1\n= 2;")
	if len(res.Diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(res.Diags))
	}

	d := res.Diags[0]
	if d.Message != "expected ';' but got '='" {
		t.Errorf("message = %q", d.Message)
	}

	if d.Pos.Line != 2 || d.Pos.Column != 1 {
		t.Errorf("position = %v, want 2:1", d.Pos)
	}
}

func TestParse_LoopJumps(t *testing.T) {
	stmts := parseOK(t, "while true, { if x, break; continue; };\nfor i in range(10), { continue; };\nwhile c, f!;")

	tests := []struct {
		got  ast.Loop
		want ast.Loop
	}{
		{stmts[0].(*ast.WhileStmt).Loop, ast.Loop{UsesBreak: true, UsesContinue: true}},
		{stmts[1].(*ast.ForInStmt).Loop, ast.Loop{UsesContinue: true}},
		{stmts[2].(*ast.WhileStmt).Loop, ast.Loop{}},
	}

	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("loop %d = %+v, want %+v", i, tt.got, tt.want)
		}
	}
}

func findAll[T ast.Node](stmts []ast.Stmt) []T {
	var out []T

	for n := range ast.All(stmts) {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	}

	return out
}

func TestParse_VirtualReturns(t *testing.T) {
	t.Run("try in function", func(t *testing.T) {
		stmts := parseOK(t, "let f = () => { try { => 1; }; => 2; };")

		tries := findAll[*ast.TryStmt](stmts)
		rets := findAll[*ast.ReturnStmt](stmts)

		if len(tries) != 1 || !tries[0].UsesReturn || tries[0].Nested {
			t.Errorf("try = %+v", tries)
		}

		if len(rets) != 2 || !rets[0].Virtual || rets[1].Virtual {
			t.Errorf("returns virtual = %v, %v, want true, false", rets[0].Virtual, rets[1].Virtual)
		}
	})

	t.Run("nested try", func(t *testing.T) {
		stmts := parseOK(t, "try { try { => 1; }; };")

		tries := findAll[*ast.TryStmt](stmts)
		if len(tries) != 2 {
			t.Fatalf("got %d try statements", len(tries))
		}

		if !tries[0].UsesReturn || tries[0].Nested || !tries[1].UsesReturn || !tries[1].Nested {
			t.Errorf("outer = %+v, inner = %+v", tries[0], tries[1])
		}
	})

	t.Run("function inside try", func(t *testing.T) {
		stmts := parseOK(t, "try { let g = () => { => 1; }; };")

		if tries := findAll[*ast.TryStmt](stmts); tries[0].UsesReturn {
			t.Error("a return inside a nested function escapes the try statement")
		}

		if rets := findAll[*ast.ReturnStmt](stmts); rets[0].Virtual {
			t.Error("a return inside a nested function is virtual")
		}
	})
}

func TestTry_RestoresState(t *testing.T) {
	p := New(tokens(t, "a b c"))
	p.loops = []loopFrame{{}}
	p.rets = []returnFrame{{virtual: true}}

	failed := p.try(func() error {
		p.pos += 2
		p.loops[0].UsesBreak = true
		p.rets[0].used = true
		p.loops = append(p.loops, loopFrame{barrier: true})

		return errors.New("no match")
	})
	if failed {
		t.Fatal("failing trial reported success")
	}

	succeeded := p.try(func() error {
		p.pos++
		p.loops[0].UsesContinue = true

		return nil
	})
	if !succeeded {
		t.Fatal("succeeding trial reported failure")
	}

	if p.pos != 0 {
		t.Errorf("pos = %d, want 0", p.pos)
	}

	if len(p.loops) != 1 || p.loops[0].Loop != (ast.Loop{}) || p.rets[0].used {
		t.Errorf("frames not restored: loops %+v rets %+v", p.loops, p.rets)
	}

	if p.speculating != 0 {
		t.Errorf("speculating = %d, want 0", p.speculating)
	}

	if len(p.diags) != 0 {
		t.Errorf("trials reported %d diagnostics", len(p.diags))
	}
}

func TestParseExpression(t *testing.T) {
	res := ParseExpression(tokens(t, "a + b"))
	if res.Status != diag.Ok || sexpr(res.Value) != "(+ a b)" {
		t.Errorf("ParseExpression(a + b) = %v, %v", res.Status, res.Err())
	}

	if res := ParseExpression(tokens(t, "a +")); res.Status != diag.Fatal {
		t.Errorf("ParseExpression(a +) status = %v, want fatal", res.Status)
	}
}

func TestNew_AppendsEOF(t *testing.T) {
	p := New([]token.Token{{Kind: token.Ident, Value: "f", Pos: token.Position{Line: 1, Column: 1, Length: 1}}})

	if eof := p.peek(5); eof.Kind != token.EOF || eof.Pos.Column != 2 {
		t.Errorf("peek past end = %+v", eof)
	}
}
