// Package lang compiles jammy source to Lua.
//
// jammy is a small expression language with local type inference. A unit
// passes through four stages, each in its own package:
//
//   - lexer: source text to tokens
//   - parser: tokens to a syntax tree, by backtracking recursive descent
//   - infer: types of every binding and expression
//   - luagen: the syntax tree to Lua
//
// [Compile] runs them in order. Every stage reports its problems as
// [diag.Diagnostic] values; lexical and syntax errors stop compilation,
// while type errors abort only the statement that contains them.
//
// # Example
//
//	let area = (w: number, h: number) => w * h;
//	let sq = (s) => area(s, s);
//	print(sq(3));
//
// compiles to a chunk that declares both functions as locals, checks the
// arguments of area when it is called, and prints 9.
//
// # Modules
//
// A "use" statement imports another unit. A [Cache] reads the exports of
// used modules, from their export statements and from an optional
// header:
//
//	--[ import_parameters { "exports": ["vec"], "jammy": ">= 0.3" } ]
//
// The header may constrain the compiler version; a module that requires
// another version fails to import with [ErrVersion].
package lang
