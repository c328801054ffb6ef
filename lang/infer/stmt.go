package infer

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/diag"
	"github.com/ardnew/jammy/lang/types"
)

// stmt checks s. Nested statements are their own boundaries, so an error
// returned here aborts s alone.
func (c *Checker) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.MethodCall, *ast.SelfMethodCall, *ast.SuperCall:
		_, err := c.expr(s.(ast.Expr))

		return err

	case *ast.BlockStmt:
		c.push()
		defer c.pop()

		for _, s := range s.Stmts {
			c.boundary(s)
		}

	case *ast.IfStmt:
		if _, err := c.expr(s.Cond); err != nil {
			return err
		}

		c.nested(s.Then)
		c.nested(s.Else)

	case *ast.TryStmt:
		c.nested(s.Body)
		c.nested(s.Else)

	case *ast.MatchStmt:
		c.push()
		defer c.pop()

		if s.Decl != nil {
			if err := c.stmt(s.Decl); err != nil {
				return err
			}
		}

		for _, k := range s.Cases {
			if _, err := c.expr(k.Cond); err != nil {
				return err
			}

			c.nested(k.Body)
		}

		c.nested(s.Default)

	case *ast.ForInStmt:
		c.push()
		defer c.pop()

		if err := c.loopHead(s.Vars, s.Iter, s.Pos()); err != nil {
			return err
		}

		c.nested(s.Body)

	case *ast.WhileStmt:
		if _, err := c.expr(s.Cond); err != nil {
			return err
		}

		c.nested(s.Body)

	case *ast.BreakStmt, *ast.ContinueStmt:

	case *ast.ReturnStmt:
		return c.returnStmt(s)

	case *ast.VarDec:
		return c.varDec(s)

	case *ast.VarAssign:
		return c.varAssign(s)

	case *ast.Class:
		return c.class(s)

	case *ast.Use:
		c.use(s)

	case *ast.Export:
		v := c.Lookup(s.Name)
		if v == nil {
			return c.unknown(s, s.Name)
		}

		v.Used = true

	default:
		panic(fmt.Sprintf("infer: unexpected statement %T", s))
	}

	return nil
}

func (c *Checker) nested(s ast.Stmt) {
	if s != nil {
		c.boundary(s)
	}
}

func (c *Checker) returnStmt(s *ast.ReturnStmt) error {
	t := c.arena.NewNullable(c.prim(types.Any))

	if s.Value != nil {
		var err error
		if t, err = c.expr(s.Value); err != nil {
			return err
		}
	}

	if len(c.rets) == 0 {
		return nil
	}

	frame := c.rets[len(c.rets)-1]
	if frame.typ == types.None {
		frame.typ = t

		return nil
	}

	joined, err := c.join(s, frame.typ, t)
	if err != nil {
		return err
	}

	frame.typ = joined

	return nil
}

// varDec declares each name with the type of its value. A name declared
// without a value gets an open type that its first assignment resolves.
// Functions are declared before their value is checked, so they may refer
// to themselves.
func (c *Checker) varDec(s *ast.VarDec) error {
	a := c.arena
	vars := make([]*Variable, len(s.Names))

	for i, name := range s.Names {
		if i < len(s.Values) {
			if _, ok := s.Values[i].(*ast.Function); ok {
				vars[i] = c.declare(name, a.NewVar(), s.Pos())
			}
		}
	}

	for i, name := range s.Names {
		switch {
		case s.Values == nil:
			vars[i] = c.declare(name, a.NewVar(), s.Pos())

		case i >= len(s.Values):
			vars[i] = c.declare(name, c.prim(types.Any), s.Pos())

		default:
			t, err := c.expr(s.Values[i])
			if err != nil {
				c.declareRest(s, vars, i)

				return err
			}

			if vars[i] == nil {
				vars[i] = c.declare(name, t, s.Pos())

				break
			}

			// The hoisted variable was only referenced inside its own body.
			_, _, err = a.TwoWayCoerce(t, vars[i].Type)
			if err != nil {
				return c.errorAt(s.Values[i], err)
			}

			vars[i].Type = t
		}
	}

	for _, v := range vars {
		c.logger.Trace("declare",
			slog.String("name", v.Name),
			slog.String("type", a.String(v.Type)),
		)
	}

	return nil
}

// declareRest declares the names of s from index i on that are not yet
// declared as any, so an aborted declaration does not leave its names
// unknown to later statements.
func (c *Checker) declareRest(s *ast.VarDec, vars []*Variable, i int) {
	for ; i < len(s.Names); i++ {
		if vars[i] == nil {
			vars[i] = c.declare(s.Names[i], c.prim(types.Any), s.Pos())
		}
	}
}

func (c *Checker) varAssign(s *ast.VarAssign) error {
	a := c.arena

	for i, target := range s.Targets {
		var (
			v   *Variable
			cur types.Handle
		)

		switch t := target.(type) {
		case *ast.Variable:
			if v = c.Lookup(t.Name); v == nil {
				v = c.global(t.Name, a.NewVar())
				v.Pos = t.Pos()
			}

			v.Used = true
			cur = v.Type
			c.types[t] = cur

		default:
			var err error
			if cur, err = c.expr(target); err != nil {
				return err
			}
		}

		if i >= len(s.Values) {
			continue
		}

		val, err := c.expr(s.Values[i])
		if err != nil {
			return err
		}

		val, cur, err = a.TwoWayCoerce(val, cur)
		if err != nil {
			return c.errorAt(s.Values[i], err)
		}

		if v != nil {
			v.Type = cur
		}
	}

	return nil
}

// class declares a prototype. Prototypes are tables and are callable.
func (c *Checker) class(s *ast.Class) error {
	if s.Extends != "" {
		v := c.Lookup(s.Extends)
		if v == nil {
			return c.unknown(s, s.Extends)
		}

		v.Used = true
	}

	c.declare(s.Name, c.prim(types.Table), s.Pos())

	_, err := c.expr(s.Table)

	return err
}

// use binds the exports of a module. If they cannot be determined, names
// that are not bound anywhere are assumed to come from the module.
func (c *Checker) use(s *ast.Use) {
	if c.resolver == nil {
		c.open = true

		return
	}

	names, err := c.resolver.Exports(s.Path)
	if err != nil {
		c.open = true
		c.report(diag.Diagnostic{
			Class:    diag.Type,
			Severity: diag.SeverityWarning,
			Message:  fmt.Sprintf("cannot read the exports of %q: %v", s.Path, err),
			Pos:      s.Pos(),
		})

		return
	}

	if names == nil {
		c.open = true

		return
	}

	for _, name := range names {
		c.declare(name, c.prim(types.Any), s.Pos()).Used = true
	}
}
