// Package ast declares the syntax tree of the jammy language.
//
// The tree is a closed union: every node type is declared in this package,
// and [Expr] and [Stmt] cannot be implemented elsewhere. Passes that
// consume the tree switch over the concrete types and treat anything else
// as an internal error.
//
// Each node owns only its own children. Nodes that can appear both as an
// expression and as a statement (calls) implement both interfaces.
package ast

import (
	"github.com/ardnew/jammy/lang/token"
)

// Node is implemented by every syntax tree node.
type Node interface {
	// Pos returns the position of the token that introduces the node. For
	// infix and postfix operations this is the operator.
	Pos() token.Position
	// Kind returns the stable name of the node type, such as "binary_op".
	Kind() string

	node()
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	expr()
}

// Stmt is a node that appears in a statement list.
type Stmt interface {
	Node
	stmt()
}

// Base records the position of a node.
type Base struct {
	At token.Position
}

func (b Base) Pos() token.Position { return b.At }
func (Base) node()                 {}

type (
	// Number is a numeric literal. Raw keeps the source spelling.
	Number struct {
		Base
		Value float64
		Raw   string
	}

	Bool struct {
		Base
		Value bool
	}

	Nil struct{ Base }

	// String is a literal without interpolations. Value holds the contents
	// with escape sequences kept as written.
	String struct {
		Base
		Value string
	}

	// FString is an interpolated string. Format has one "%s" per element of
	// Values, in order.
	FString struct {
		Base
		Format string
		Values []Expr
	}

	Variable struct {
		Base
		Name string
	}

	// IndexObject is the field access "left.name".
	IndexObject struct {
		Base
		Left Expr
		Name string
	}

	// IndexKey is the computed access "left#key".
	IndexKey struct {
		Base
		Left Expr
		Key  Expr
	}

	MethodCall struct {
		Base
		Left Expr
		Args []Expr
	}

	// SelfMethodCall is "left:member args", which passes left as the first
	// argument.
	SelfMethodCall struct {
		Base
		Left   Expr
		Member string
		Args   []Expr
	}

	// SuperCall calls the method of the same name on the prototype's parent.
	SuperCall struct {
		Base
		Args []Expr
	}

	// SuperValue is the parent prototype itself.
	SuperValue struct{ Base }

	// Binary is an infix operation. Op is one of the kinds for which
	// [token.Kind.IsBinaryOp] holds.
	Binary struct {
		Base
		Left  Expr
		Op    token.Kind
		Right Expr
	}

	// Unary is "!x" or "-x".
	Unary struct {
		Base
		Op    token.Kind
		Right Expr
	}

	Len struct {
		Base
		Value Expr
	}

	Tuple struct {
		Base
		Values []Expr
	}

	// Brackets is a parenthesized expression. It is never restructured by
	// operator associativity.
	Brackets struct {
		Base
		Inner Expr
	}

	Table struct {
		Base
		Entries []Entry
	}

	Entry struct {
		At    token.Position
		Key   string
		Value Expr
	}

	Array struct {
		Base
		Elements []Expr
	}

	Group struct {
		Base
		Elements []Expr
	}

	Function struct {
		Base
		Params    []Param
		Variadic  bool
		TakesSelf bool
		// SelfType, when set, is checked against the metatable of self.
		SelfType Expr
		Body     Expr
	}

	Param struct {
		At       token.Position
		Name     string
		Type     *TypeAnnotation
		Default  Expr
		Variadic bool
	}

	// TypeAnnotation is "T|U?" on a parameter.
	TypeAnnotation struct {
		Allowed  []string
		Optional bool
	}

	BlockExpr struct {
		Base
		Stmts []Stmt
	}

	IfExpr struct {
		Base
		Cond Expr
		Then Expr
		Else Expr
	}

	TryExpr struct {
		Base
		Body Expr
		Else Expr
	}

	MatchExpr struct {
		Base
		Decl    *VarDec
		Cases   []ExprCase
		Default Expr
	}

	ExprCase struct {
		Cond  Expr
		Value Expr
	}

	ForInExpr struct {
		Base
		Vars []string
		Iter Expr
		Body Expr
	}
)

type (
	BlockStmt struct {
		Base
		Stmts []Stmt
	}

	IfStmt struct {
		Base
		Cond Expr
		Then Stmt
		Else Stmt
	}

	// TryStmt runs Body in protected mode. UsesReturn is set when a return
	// inside Body must leave the enclosing function. Nested is set when the
	// statement is itself inside the body of another try statement of the
	// same function.
	TryStmt struct {
		Base
		Body       Stmt
		Else       Stmt
		UsesReturn bool
		Nested     bool
	}

	MatchStmt struct {
		Base
		Decl    *VarDec
		Cases   []StmtCase
		Default Stmt
	}

	StmtCase struct {
		Cond Expr
		Body Stmt
	}

	// Loop records which jumps target a loop.
	Loop struct {
		UsesBreak    bool
		UsesContinue bool
	}

	ForInStmt struct {
		Base
		Vars []string
		Iter Expr
		Body Stmt
		Loop Loop
	}

	WhileStmt struct {
		Base
		Cond Expr
		Body Stmt
		Loop Loop
	}

	BreakStmt    struct{ Base }
	ContinueStmt struct{ Base }

	// ReturnStmt leaves the enclosing function or block expression. Virtual
	// is set when it appears inside a try statement body, where the value
	// must be carried out of the protected call.
	ReturnStmt struct {
		Base
		Value   Expr
		Virtual bool
	}

	// VarDec is "let names [= values]". Values is nil without "=".
	VarDec struct {
		Base
		Names  []string
		Values []Expr
	}

	VarAssign struct {
		Base
		Targets []Expr
		Values  []Expr
	}

	// Class is a prototype declaration.
	Class struct {
		Base
		Name    string
		Extends string
		Table   *Table
	}

	Use struct {
		Base
		Path string
	}

	Export struct {
		Base
		Name string
		As   string
	}
)

func (*Number) expr()         {}
func (*Bool) expr()           {}
func (*Nil) expr()            {}
func (*String) expr()         {}
func (*FString) expr()        {}
func (*Variable) expr()       {}
func (*IndexObject) expr()    {}
func (*IndexKey) expr()       {}
func (*MethodCall) expr()     {}
func (*SelfMethodCall) expr() {}
func (*SuperCall) expr()      {}
func (*SuperValue) expr()     {}
func (*Binary) expr()         {}
func (*Unary) expr()          {}
func (*Len) expr()            {}
func (*Tuple) expr()          {}
func (*Brackets) expr()       {}
func (*Table) expr()          {}
func (*Array) expr()          {}
func (*Group) expr()          {}
func (*Function) expr()       {}
func (*BlockExpr) expr()      {}
func (*IfExpr) expr()         {}
func (*TryExpr) expr()        {}
func (*MatchExpr) expr()      {}
func (*ForInExpr) expr()      {}

func (*MethodCall) stmt()     {}
func (*SelfMethodCall) stmt() {}
func (*SuperCall) stmt()      {}
func (*BlockStmt) stmt()      {}
func (*IfStmt) stmt()         {}
func (*TryStmt) stmt()        {}
func (*MatchStmt) stmt()      {}
func (*ForInStmt) stmt()      {}
func (*WhileStmt) stmt()      {}
func (*BreakStmt) stmt()      {}
func (*ContinueStmt) stmt()   {}
func (*ReturnStmt) stmt()     {}
func (*VarDec) stmt()         {}
func (*VarAssign) stmt()      {}
func (*Class) stmt()          {}
func (*Use) stmt()            {}
func (*Export) stmt()         {}

func (*Number) Kind() string         { return "number" }
func (*Bool) Kind() string           { return "bool" }
func (*Nil) Kind() string            { return "nil" }
func (*String) Kind() string         { return "string" }
func (*FString) Kind() string        { return "fstring" }
func (*Variable) Kind() string       { return "variable" }
func (*IndexObject) Kind() string    { return "index_object" }
func (*IndexKey) Kind() string       { return "index_key" }
func (*MethodCall) Kind() string     { return "method_call" }
func (*SelfMethodCall) Kind() string { return "self_method_call" }
func (*SuperCall) Kind() string      { return "super_call" }
func (*SuperValue) Kind() string     { return "super_value" }
func (*Binary) Kind() string         { return "binary_op" }
func (*Unary) Kind() string          { return "unary_op" }
func (*Len) Kind() string            { return "len" }
func (*Tuple) Kind() string          { return "tuple" }
func (*Brackets) Kind() string       { return "brackets" }
func (*Table) Kind() string          { return "table" }
func (*Array) Kind() string          { return "array" }
func (*Group) Kind() string          { return "group" }
func (*Function) Kind() string       { return "function" }
func (*BlockExpr) Kind() string      { return "block_expr" }
func (*IfExpr) Kind() string         { return "if_expr" }
func (*TryExpr) Kind() string        { return "try_expr" }
func (*MatchExpr) Kind() string      { return "match_expr" }
func (*ForInExpr) Kind() string      { return "for_in_expr" }
func (*BlockStmt) Kind() string      { return "block_stmt" }
func (*IfStmt) Kind() string         { return "if_stmt" }
func (*TryStmt) Kind() string        { return "try_stmt" }
func (*MatchStmt) Kind() string      { return "match_stmt" }
func (*ForInStmt) Kind() string      { return "for_in_stmt" }
func (*WhileStmt) Kind() string      { return "while_stmt" }
func (*BreakStmt) Kind() string      { return "break_stmt" }
func (*ContinueStmt) Kind() string   { return "continue_stmt" }
func (*ReturnStmt) Kind() string     { return "return_stmt" }
func (*VarDec) Kind() string         { return "var_dec" }
func (*VarAssign) Kind() string      { return "var_assign" }
func (*Class) Kind() string          { return "class" }
func (*Use) Kind() string            { return "use" }
func (*Export) Kind() string         { return "export" }

// IsCall reports whether n is a function or method call.
func IsCall(n Node) bool {
	switch n.(type) {
	case *MethodCall, *SelfMethodCall, *SuperCall:
		return true
	}

	return false
}

// IsAssignable reports whether e may appear on the left of an assignment.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *Variable, *IndexObject, *IndexKey:
		return true
	}

	return false
}
