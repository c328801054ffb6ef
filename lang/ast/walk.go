package ast

import (
	"fmt"
	"iter"
)

// Children returns the direct children of n in source order.
func Children(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range children(n) {
			if !yield(c) {
				return
			}
		}
	}
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false, the children of the current node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	for c := range Children(n) {
		Inspect(c, f)
	}
}

// All returns every node of the statement list in depth-first order.
func All(stmts []Stmt) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		stop := false

		for _, s := range stmts {
			Inspect(s, func(n Node) bool {
				if stop {
					return false
				}

				if !yield(n) {
					stop = true
				}

				return !stop
			})

			if stop {
				return
			}
		}
	}
}

func children(n Node) []Node {
	var out []Node

	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	exprs := func(es []Expr) {
		for _, e := range es {
			add(e)
		}
	}
	stmts := func(ss []Stmt) {
		for _, s := range ss {
			add(s)
		}
	}
	expr := func(e Expr) {
		if e != nil {
			add(e)
		}
	}
	stmt := func(s Stmt) {
		if s != nil {
			add(s)
		}
	}

	switch n := n.(type) {
	case *Number, *Bool, *Nil, *String, *Variable, *SuperValue,
		*BreakStmt, *ContinueStmt, *Use, *Export:
	case *FString:
		exprs(n.Values)
	case *IndexObject:
		expr(n.Left)
	case *IndexKey:
		expr(n.Left)
		expr(n.Key)
	case *MethodCall:
		expr(n.Left)
		exprs(n.Args)
	case *SelfMethodCall:
		expr(n.Left)
		exprs(n.Args)
	case *SuperCall:
		exprs(n.Args)
	case *Binary:
		expr(n.Left)
		expr(n.Right)
	case *Unary:
		expr(n.Right)
	case *Len:
		expr(n.Value)
	case *Tuple:
		exprs(n.Values)
	case *Brackets:
		expr(n.Inner)
	case *Table:
		for _, e := range n.Entries {
			expr(e.Value)
		}
	case *Array:
		exprs(n.Elements)
	case *Group:
		exprs(n.Elements)
	case *Function:
		for _, p := range n.Params {
			expr(p.Default)
		}

		expr(n.SelfType)
		expr(n.Body)
	case *BlockExpr:
		stmts(n.Stmts)
	case *IfExpr:
		expr(n.Cond)
		expr(n.Then)
		expr(n.Else)
	case *TryExpr:
		expr(n.Body)
		expr(n.Else)
	case *MatchExpr:
		if n.Decl != nil {
			add(n.Decl)
		}

		for _, c := range n.Cases {
			expr(c.Cond)
			expr(c.Value)
		}

		expr(n.Default)
	case *ForInExpr:
		expr(n.Iter)
		expr(n.Body)
	case *BlockStmt:
		stmts(n.Stmts)
	case *IfStmt:
		expr(n.Cond)
		stmt(n.Then)
		stmt(n.Else)
	case *TryStmt:
		stmt(n.Body)
		stmt(n.Else)
	case *MatchStmt:
		if n.Decl != nil {
			add(n.Decl)
		}

		for _, c := range n.Cases {
			expr(c.Cond)
			stmt(c.Body)
		}

		stmt(n.Default)
	case *ForInStmt:
		expr(n.Iter)
		stmt(n.Body)
	case *WhileStmt:
		expr(n.Cond)
		stmt(n.Body)
	case *ReturnStmt:
		expr(n.Value)
	case *VarDec:
		exprs(n.Values)
	case *VarAssign:
		exprs(n.Targets)
		exprs(n.Values)
	case *Class:
		if n.Table != nil {
			add(n.Table)
		}
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}

	return out
}
