package luagen

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/lexer"
	"github.com/ardnew/jammy/lang/parser"
)

func parse(t *testing.T, src string) []ast.Stmt {
	t.Helper()

	toks := lexer.Lex(src)
	if len(toks.Diags) > 0 {
		t.Fatalf("Lex(%q) = %v", src, toks.Err())
	}

	res := parser.Parse(toks.Value)
	if len(res.Diags) > 0 {
		t.Fatalf("Parse(%q) = %v", src, res.Err())
	}

	return res.Value
}

func chunk(t *testing.T, src string, opts ...Option) string {
	t.Helper()

	out, err := Chunk(parse(t, src), opts...)
	if err != nil {
		t.Fatalf("Chunk(%q) error = %v", src, err)
	}

	return strings.TrimSuffix(out, ";\n")
}

func TestChunk_Expressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", `let a = 1 + 2 * 3;`, `local a = ((1+2)*3)`},
		{"modulo", `let m = a % 2;`, `local m = math.fmod((a), (2))`},
		{"concat", `let s = "x" .. y;`, `local s = ("x"..y)`},
		{"logical", `let t = a && b || c;`, `local t = ((a and b) or c)`},
		{"not", `let b = !ok;`, `local b = not (ok)`},
		{"negate", `let n = -x;`, `local n = -(x)`},
		{"len", `let n = len xs;`, `local n = #(xs)`},
		{"nil", `let z = nil;`, `local z = nil`},
		{"interpolation", `let s = "a ${b + 1} c";`, `local s = string.format("a %s c", tostring((b+1)))`},
		{"index", `let v = a.b#k;`, `local v = a.b[k]`},
		{"call", `let v = f(1, 2);`, `local v = f(1, 2)`},
		{"self field", `let f = () :=> @x;`, `local f;f = function(self) return self.x end`},
		{"table", `let t = { a: 1, b: "x" };`, `local t = { ["a"] = 1, ["b"] = "x" }`},
		{"empty table", `let t = {};`, `local t = {}`},
		{"array", `let xs = [1, 2];`, `local xs = array.new(1, 2)`},
		{"group equality", `let e = <<1, 2>> == g;`, `local e = group.new(1, 2):eq(g)`},
		{"group ordering", `let e = <<1, 2>> >= g;`, `local e = (not group.new(1, 2):lt(g))`},
		{"group inequality", `let e = <<1, 2>> ~= g;`, `local e = (not group.new(1, 2):eq(g))`},
		{
			"block expression",
			`let b = { let t = 1; => t; };`,
			`local b = (function() local t = 1; do return t end; end)()`,
		},
		{
			"if expression",
			`let z = if c, 1 else 2;`,
			`local z = (function() if c then return 1 else return 2 end end)()`,
		},
		{
			"try expression",
			`let r = try risky!;`,
			`local r = select(2, pcall(function() return risky() end))`,
		},
		{
			"try expression with fallback",
			`let r = try risky! else 0;`,
			`local r = (function() local __return_values = { pcall(function() return risky() end) }; ` +
				`if not __return_values[1] then return 0 end; return select(2, unpack(__return_values)) end)()`,
		},
		{
			"match expression",
			`let k = match { x => 1, y => 2, else 3 };`,
			`local k = (function() if x then return 1 elseif y then return 2 else return 3 end end)()`,
		},
		{
			"for expression",
			`let sq = for x in xs, x * x;`,
			`local sq = (function() local t = {} for x in xs do t[#t+1] = (x*x) end return unpack(t) end)()`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := chunk(t, tt.src); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestChunk_Functions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts []Option
		want string
	}{
		{
			"hoisted",
			`let f = (x) => x + 1;`,
			nil,
			`local f;f = function(x) return (x+1) end`,
		},
		{
			"mixed declaration",
			`let a, f = 1, (x) => x;`,
			nil,
			`local a = 1;local f;f = function(x) return x end`,
		},
		{
			"variadic",
			`let f = (a, rest...) => rest;`,
			nil,
			`local f;f = function(a, ...) local rest = {...} return rest end`,
		},
		{
			"defaults and typechecks",
			`let f = (x: number, y: string|table? = 2) => x;`,
			nil,
			`local f;f = function(x, y) y = y == nil and (2) or y;` +
				`__typecheck_arg(typechecks, 1, x, "number");` +
				`__typecheck_arg_union_optional(typechecks, 2, y, { "string","table" });return x end`,
		},
		{
			"typechecks disabled",
			`let f = (x: number) => x;`,
			[]Option{WithTypechecks(false)},
			`local f;f = function(x) return x end`,
		},
		{
			"self type",
			`let m = () [Point] :=> @x;`,
			nil,
			`local m;m = function(self) if not has_metatable(self, (Point)) then ` +
				`error("bad argument 'self' to " .. tostring(debug.getinfo(1, 'n').name) .. " (got " .. type(self) .. ")", 2) end; ` +
				`return self.x end`,
		},
		{
			"tail conditional",
			`let f = (c) => if c, 1 else 2;`,
			nil,
			`local f;f = function(c) if c then return 1 else return 2 end end`,
		},
		{
			"tail block",
			`let f = (x) => { print(x); => x; };`,
			nil,
			`local f;f = function(x) print(x); do return x end end`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := chunk(t, tt.src, tt.opts...); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestChunk_Statements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"assignment", `a, b.c = 1, 2;`, `a, b.c = 1, 2`},
		{"declaration", `let a, b;`, `local a, b`},
		{"block", `{ print(1); print(2); };`, `do print(1); print(2); end`},
		{"if", `if c, print(1) else print(2);`, `if c then print(1) else print(2) end`},
		{"while", `while x, x = x - 1;`, `while x do x = (x-1) end`},
		{
			"break and continue",
			`while x, { if a, break; if b, continue; };`,
			`while x do local __broken = false; repeat do if a then __broken = true; break end; ` +
				`if b then break end; end until true; if __broken then break end;  end`,
		},
		{
			"continue only",
			`while x, { if b, continue; print(1); };`,
			`while x do repeat do if b then break end; print(1); end until true;  end`,
		},
		{"range", `for i in range(10), print(i);`, `for i = 0, ((10)-1) do print(i) end`},
		{"range with start", `for i in range(2, n), print(i);`, `for i = 2, ((n)-1) do print(i) end`},
		{"inclusive range", `for i in range_inc(n), print(i);`, `for i = 1, n do print(i) end`},
		{"inclusive range with start", `for i in range_inc(1, n), print(i);`, `for i = 1, n do print(i) end`},
		{"descending range", `for i in range(10, 0, -1), print(i);`, `for i = 10, ((0)+1), -1 do print(i) end`},
		{
			"variable step",
			`for i in range(0, 10, s), print(i);`,
			`local __incr = s; for i = 0, ((10)-math.sign(__incr)), __incr do print(i) end`,
		},
		{"generic for", `for k, v in pairs(t), print(k);`, `for k, v in pairs(t) do print(k) end`},
		{"default loop variable", `for in xs, print(1);`, `for _ in xs do print(1) end`},
		{"try", `try risky! else print(1);`, `if not pcall(function() risky() end) then print(1) end`},
		{
			"match",
			`match { x => print(1); y => print(2); else print(3); };`,
			`do if x then print(1) elseif y then print(2) else print(3) end end`,
		},
		{
			"match with declaration",
			`match (let a = f!) { a => print(a); };`,
			`do local a = f() if a then print(a) end end`,
		},
		{"standard module", `use "std/math";`, `require(path_join(__root_dir, "std/math"):gsub("/", "."))`},
		{"module", `use "lib/vec.jam";`, `import("lib/vec")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := chunk(t, tt.src); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestChunk_VirtualReturn(t *testing.T) {
	got := chunk(t, `let f = () => { try { => 1; } else print(2); => 0; };`)
	want := `local f;f = function() local __return_value; ` +
		`if not pcall(function() do __return_value = {1}; do return end; end end) then print(2) end; ` +
		`if __return_value then return unpack(__return_value) end; do return 0 end end`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestChunk_Exports(t *testing.T) {
	got := chunk(t, `let a = 1; export a as b; export a;`)
	want := "local a = 1;\nexports[1] = a --[[ as 'b' ]];\nexports[2] = a --[[ as 'a' ]]"

	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestChunk_Use(t *testing.T) {
	imp := ImporterFunc(func(path string) (Import, error) {
		switch path {
		case "lib/vec.jam":
			return Import{Exports: []string{"Vec", "typechecks"}, Append: "Vec.dim = 2"}, nil
		}

		return Import{}, errors.New("not found")
	})

	got := chunk(t, `use "lib/vec.jam"; use "lib/missing";`, WithImporter(imp))
	want := `local Vec, typechecks = __import(2, {Vec, typechecks}, import("lib/vec"));` +
		`__env.Vec, __env.typechecks = Vec, typechecks;Vec.dim = 2;` + "\n" +
		`import("lib/missing")`

	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestChunk_Prototype(t *testing.T) {
	got := chunk(t, `prototype Dog from Animal { bark: () :=> super(1); legs: 4; };`)

	for _, want := range []string{
		`local Dog;do local __super = Animal;local __proto = {};__proto.__index = __proto;`,
		`Dog = setmetatable(__proto, setmetatable({ __call = function(self, ...) `,
		`(instance.constructor or nop)(instance, ...)`,
		`__proto["__tostring"] = function(self) if not has_metatable(self, (Dog))`,
		`return "<Dog>" end;__proto["super"] = __super;__proto["__name"] = "Dog";`,
		`__proto["bark"] = function(self) if not has_metatable(self, (Dog))`,
		`return self.super.bark(self, 1) end;__proto["legs"] = 4;end `,
		`typechecks = table.merge(typechecks, { Dog = function(arg) return (type(arg)=="table") and (arg.__class==Dog) end })`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %s\nin %s", want, got)
		}
	}

	custom := chunk(t, `prototype P { __tostring: () :=> "p" };`)
	if strings.Count(custom, `__proto["__tostring"]`) != 1 {
		t.Errorf("a declared __tostring must replace the default:\n%s", custom)
	}
}

func TestChunk_SuperOutsideMethod(t *testing.T) {
	_, err := Chunk(parse(t, `super(1);`))

	var d diag.Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("Chunk() error = %v, want a diagnostic", err)
	}

	if d.Message != "'super' call outside of a prototype method" {
		t.Errorf("message = %q", d.Message)
	}
}

func TestChunk_Fold(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`let a = 1 + 2 * 3;`, `local a = 9`},
		{`let a = 7 / 2;`, `local a = 3.5`},
		{`let a = 2 ^ 10;`, `local a = 1024`},
		{`let a = -(4 - 5);`, `local a = 1`},
		{`let a = 1 - 3;`, `local a = (-2)`},
		{`let b = !true;`, `local b = false`},
		{`let b = 1 < 2 && true;`, `local b = true`},
		{`let a = (1 + 2) * x;`, `local a = ((3)*x)`},
		{`let a = 1 / 0;`, `local a = (1/0)`},
		{`let a = 5 % 3;`, `local a = math.fmod((5), (3))`},
		{`let a = 1 + true;`, `local a = (1+true)`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			if got := chunk(t, tt.src, WithFold(true)); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenerate_Modes(t *testing.T) {
	stmts := parse(t, `let a = 1; export a;`)

	tests := []struct {
		mode    Mode
		opts    []Option
		want    []string
		notWant []string
	}{
		{
			mode:    File,
			want:    []string{modulePrelude, importFunc},
			notWant: []string{"typechecks = {", "__root_dir="},
		},
		{
			mode:    Library,
			want:    []string{modulePrelude, "typechecks = {", "function range("},
			notWant: []string{"__root_dir="},
		},
		{
			mode:    EntryPoint,
			opts:    []Option{WithLuaPath("lib/?.lua", "", "vendor/?.lua")},
			want:    []string{entryPrelude, "package.path = \"", "lib/?.lua", "vendor/?.lua", "typechecks = {"},
			notWant: []string{modulePrelude},
		},
		{
			mode:    LoveEntryPoint,
			want:    []string{lovePrelude, "typechecks = {"},
			notWant: []string{importFunc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			t.Parallel()

			out, err := Generate(stmts, append(tt.opts, WithMode(tt.mode), WithName("main.jam"))...)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}

			if !strings.HasPrefix(out, "-- main.jam - generated by jammy ") {
				t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
			}

			for _, w := range append(tt.want, unitPrelude, "-- END JAMMY BOILERPLATE\n") {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q", w)
				}
			}

			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("unexpected %q", w)
				}
			}

			if !strings.HasSuffix(out, "local a = 1;\nexports[1] = a --[[ as 'a' ]];\nreturn exports;\n") {
				t.Errorf("unit does not end with its statements and exports:\n%s", out)
			}
		})
	}
}

func TestGenerate_PrototypeExportsTypechecks(t *testing.T) {
	out, err := Generate(parse(t, `prototype P { x: 1 }; export P;`))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.HasSuffix(out, "exports[1] = P --[[ as 'P' ]];\nexports[2] = typechecks;\nreturn exports;\n") {
		t.Errorf("typechecks are not exported last:\n%s", out)
	}
}

func TestMode(t *testing.T) {
	for _, name := range Modes() {
		m, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q) error = %v", name, err)
		}

		if m.String() != name {
			t.Errorf("ParseMode(%q).String() = %q", name, m.String())
		}
	}

	var m Mode
	if err := m.UnmarshalText([]byte("program")); err == nil {
		t.Error("UnmarshalText(program) succeeded")
	}

	if got := Mode(9).String(); got != "Mode(9)" {
		t.Errorf("Mode(9).String() = %q", got)
	}
}
