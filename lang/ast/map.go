package ast

import (
	"fmt"
)

// Map converts n to nested maps and slices suitable for JSON or YAML
// encoding. Every node map has a "type" key holding [Node.Kind].
func Map(n Node) map[string]any {
	m := map[string]any{"type": n.Kind(), "pos": n.Pos().String()}

	switch n := n.(type) {
	case *Number:
		m["value"] = n.Value
	case *Bool:
		m["value"] = n.Value
	case *Nil, *SuperValue, *BreakStmt, *ContinueStmt:
	case *String:
		m["value"] = n.Value
	case *FString:
		m["format"] = n.Format
		m["values"] = exprList(n.Values)
	case *Variable:
		m["name"] = n.Name
	case *IndexObject:
		m["left"] = opt(n.Left)
		m["name"] = n.Name
	case *IndexKey:
		m["left"] = opt(n.Left)
		m["key"] = opt(n.Key)
	case *MethodCall:
		m["left"] = opt(n.Left)
		m["args"] = exprList(n.Args)
	case *SelfMethodCall:
		m["left"] = opt(n.Left)
		m["member"] = n.Member
		m["args"] = exprList(n.Args)
	case *SuperCall:
		m["args"] = exprList(n.Args)
	case *Binary:
		m["left"] = opt(n.Left)
		m["op"] = n.Op.String()
		m["right"] = opt(n.Right)
	case *Unary:
		m["op"] = n.Op.String()
		m["right"] = opt(n.Right)
	case *Len:
		m["value"] = opt(n.Value)
	case *Tuple:
		m["values"] = exprList(n.Values)
	case *Brackets:
		m["content"] = opt(n.Inner)
	case *Table:
		entries := make([]any, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = map[string]any{"key": e.Key, "value": opt(e.Value)}
		}

		m["entries"] = entries
	case *Array:
		m["elements"] = exprList(n.Elements)
	case *Group:
		m["elements"] = exprList(n.Elements)
	case *Function:
		params := make([]any, len(n.Params))
		for i, p := range n.Params {
			pm := map[string]any{"name": p.Name}
			if p.Variadic {
				pm["variadic"] = true
			}

			if p.Type != nil {
				pm["allowed"] = p.Type.Allowed
				pm["optional"] = p.Type.Optional
			}

			if p.Default != nil {
				pm["default"] = Map(p.Default)
			}

			params[i] = pm
		}

		m["args"] = params
		m["variadic"] = n.Variadic
		m["takes_self"] = n.TakesSelf
		m["self_type"] = opt(n.SelfType)
		m["body"] = opt(n.Body)
	case *BlockExpr:
		m["statements"] = stmtList(n.Stmts)
	case *IfExpr:
		m["condition"] = opt(n.Cond)
		m["true_branch"] = opt(n.Then)
		m["false_branch"] = opt(n.Else)
	case *TryExpr:
		m["body"] = opt(n.Body)
		m["on_fail"] = opt(n.Else)
	case *MatchExpr:
		cases := make([]any, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]any{"condition": opt(c.Cond), "value": opt(c.Value)}
		}

		m["var_decs"] = decl(n.Decl)
		m["cases"] = cases
		m["default"] = opt(n.Default)
	case *ForInExpr:
		m["variables"] = n.Vars
		m["iterator"] = opt(n.Iter)
		m["body"] = opt(n.Body)
	case *BlockStmt:
		m["statements"] = stmtList(n.Stmts)
	case *IfStmt:
		m["condition"] = opt(n.Cond)
		m["true_branch"] = opt(n.Then)
		m["false_branch"] = opt(n.Else)
	case *TryStmt:
		m["body"] = opt(n.Body)
		m["on_fail"] = opt(n.Else)
		m["uses_return"] = n.UsesReturn
	case *MatchStmt:
		cases := make([]any, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]any{"condition": opt(c.Cond), "value": opt(c.Body)}
		}

		m["var_decs"] = decl(n.Decl)
		m["cases"] = cases
		m["default"] = opt(n.Default)
	case *ForInStmt:
		m["variables"] = n.Vars
		m["iterator"] = opt(n.Iter)
		m["body"] = opt(n.Body)
		m["uses_break"] = n.Loop.UsesBreak
		m["uses_continue"] = n.Loop.UsesContinue
	case *WhileStmt:
		m["condition"] = opt(n.Cond)
		m["body"] = opt(n.Body)
		m["uses_break"] = n.Loop.UsesBreak
		m["uses_continue"] = n.Loop.UsesContinue
	case *ReturnStmt:
		m["value"] = opt(n.Value)
		m["virtual"] = n.Virtual
	case *VarDec:
		m["variables"] = n.Names
		if n.Values != nil {
			m["values"] = exprList(n.Values)
		}
	case *VarAssign:
		m["left_hand"] = exprList(n.Targets)
		m["values"] = exprList(n.Values)
	case *Class:
		m["name"] = n.Name
		if n.Extends != "" {
			m["extending"] = n.Extends
		}

		if n.Table != nil {
			m["table"] = Map(n.Table)
		}
	case *Use:
		m["path"] = n.Path
	case *Export:
		m["value"] = n.Name
		m["as"] = n.As
	default:
		panic(fmt.Sprintf("ast: unexpected node %T", n))
	}

	return m
}

// MapAll converts a statement list with [Map].
func MapAll(stmts []Stmt) []any { return stmtList(stmts) }

func opt(n Node) any {
	if n == nil {
		return nil
	}

	return Map(n)
}

func decl(d *VarDec) any {
	if d == nil {
		return nil
	}

	return Map(d)
}

func exprList(es []Expr) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = opt(e)
	}

	return out
}

func stmtList(ss []Stmt) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = opt(s)
	}

	return out
}
