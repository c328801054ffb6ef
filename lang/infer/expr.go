package infer

import (
	"fmt"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/lang/types"
)

func (c *Checker) prim(name string) types.Handle { return c.arena.NewPrimitive(name) }

// expr infers the type of e and records it.
func (c *Checker) expr(e ast.Expr) (types.Handle, error) {
	t, err := c.infer(e)
	if err != nil {
		return types.None, err
	}

	c.types[e] = t

	return t, nil
}

func (c *Checker) exprs(es []ast.Expr) ([]types.Handle, error) {
	ts := make([]types.Handle, len(es))

	for i, e := range es {
		t, err := c.expr(e)
		if err != nil {
			return nil, err
		}

		ts[i] = t
	}

	return ts, nil
}

func (c *Checker) infer(e ast.Expr) (types.Handle, error) {
	a := c.arena

	switch e := e.(type) {
	case *ast.Number:
		return c.prim(types.Number), nil

	case *ast.Bool:
		return c.prim(types.Boolean), nil

	case *ast.Nil:
		return a.NewNullable(c.prim(types.Any)), nil

	case *ast.String:
		return c.prim(types.String), nil

	case *ast.FString:
		if _, err := c.exprs(e.Values); err != nil {
			return types.None, err
		}

		return c.prim(types.String), nil

	case *ast.Variable:
		v, err := c.reference(e)
		if err != nil {
			return types.None, err
		}

		return v.Type, nil

	case *ast.IndexObject:
		if _, err := c.expr(e.Left); err != nil {
			return types.None, err
		}

		return c.prim(types.Any), nil

	case *ast.IndexKey:
		if _, err := c.expr(e.Left); err != nil {
			return types.None, err
		}

		if _, err := c.expr(e.Key); err != nil {
			return types.None, err
		}

		return c.prim(types.Any), nil

	case *ast.MethodCall:
		return c.call(e)

	case *ast.SelfMethodCall:
		if _, err := c.expr(e.Left); err != nil {
			return types.None, err
		}

		if _, err := c.exprs(e.Args); err != nil {
			return types.None, err
		}

		return c.prim(types.Any), nil

	case *ast.SuperCall:
		if _, err := c.exprs(e.Args); err != nil {
			return types.None, err
		}

		return c.prim(types.Any), nil

	case *ast.SuperValue:
		return c.prim(types.Table), nil

	case *ast.Binary:
		return c.binary(e)

	case *ast.Unary:
		r, err := c.expr(e.Right)
		if err != nil {
			return types.None, err
		}

		if e.Op == token.Minus {
			return c.prim(types.Number), c.require(e.Right, types.Number, r)
		}

		return c.prim(types.Boolean), nil

	case *ast.Len:
		if _, err := c.expr(e.Value); err != nil {
			return types.None, err
		}

		return c.prim(types.Number), nil

	case *ast.Tuple:
		ts, err := c.exprs(e.Values)
		if err != nil {
			return types.None, err
		}

		if len(ts) == 1 {
			return ts[0], nil
		}

		return c.prim(types.Any), nil

	case *ast.Brackets:
		return c.expr(e.Inner)

	case *ast.Table:
		for _, ent := range e.Entries {
			if _, err := c.expr(ent.Value); err != nil {
				return types.None, err
			}
		}

		return c.prim(types.Table), nil

	case *ast.Array:
		if _, err := c.exprs(e.Elements); err != nil {
			return types.None, err
		}

		return c.prim(types.Table), nil

	case *ast.Group:
		if _, err := c.exprs(e.Elements); err != nil {
			return types.None, err
		}

		return c.prim(types.Table), nil

	case *ast.Function:
		return c.function(e)

	case *ast.BlockExpr:
		return c.block(e)

	case *ast.IfExpr:
		if _, err := c.expr(e.Cond); err != nil {
			return types.None, err
		}

		return c.branches(e, e.Then, e.Else)

	case *ast.TryExpr:
		return c.branches(e, e.Body, e.Else)

	case *ast.MatchExpr:
		return c.match(e)

	case *ast.ForInExpr:
		c.push()
		defer c.pop()

		if err := c.loopHead(e.Vars, e.Iter, e.Pos()); err != nil {
			return types.None, err
		}

		if _, err := c.expr(e.Body); err != nil {
			return types.None, err
		}

		return c.prim(types.Any), nil
	}

	panic(fmt.Sprintf("infer: unexpected expression %T", e))
}

// reference resolves a variable read and marks it used.
func (c *Checker) reference(e *ast.Variable) (*Variable, error) {
	v := c.Lookup(e.Name)
	if v == nil {
		if !c.open {
			return nil, c.unknown(e, e.Name)
		}

		v = c.global(e.Name, c.prim(types.Any))
	}

	v.Used = true

	return v, nil
}

// require coerces t, the type of n, into the primitive named name.
func (c *Checker) require(n ast.Node, name string, t types.Handle) error {
	_, _, err := c.arena.Coerce(c.prim(name), t)

	return c.errorAt(n, err)
}

func (c *Checker) call(e *ast.MethodCall) (types.Handle, error) {
	callee, err := c.expr(e.Left)
	if err != nil {
		return types.None, err
	}

	args, err := c.exprs(e.Args)
	if err != nil {
		return types.None, err
	}

	r, err := c.arena.Call(callee, args...)
	if err != nil {
		return types.None, c.errorAt(e, err)
	}

	return r, nil
}

func (c *Checker) binary(e *ast.Binary) (types.Handle, error) {
	l, err := c.expr(e.Left)
	if err != nil {
		return types.None, err
	}

	r, err := c.expr(e.Right)
	if err != nil {
		return types.None, err
	}

	switch e.Op {
	case token.Plus, token.Minus, token.Times, token.Divide, token.Percent, token.Caret:
		if err := c.require(e.Left, types.Number, l); err != nil {
			return types.None, err
		}

		if err := c.require(e.Right, types.Number, r); err != nil {
			return types.None, err
		}

		return c.prim(types.Number), nil

	case token.Concat:
		return c.prim(types.String), nil

	case token.And, token.Or:
		// "a && b || c" mixes types freely in Lua.
		a := c.arena
		if !a.CanCoerce(r, l) && !a.CanCoerce(l, r) {
			return c.prim(types.Any), nil
		}

		l, _, err := a.TwoWayCoerce(l, r)
		if err != nil {
			return types.None, c.errorAt(e, err)
		}

		return l, nil
	}

	return c.prim(types.Boolean), nil
}

// branches reconciles the types of alternative values. A missing else
// branch makes the result nullable.
func (c *Checker) branches(n ast.Node, then, els ast.Expr) (types.Handle, error) {
	t, err := c.expr(then)
	if err != nil {
		return types.None, err
	}

	if els == nil {
		return c.arena.NewNullable(t), nil
	}

	f, err := c.expr(els)
	if err != nil {
		return types.None, err
	}

	return c.join(n, t, f)
}

func (c *Checker) join(n ast.Node, x, y types.Handle) (types.Handle, error) {
	a := c.arena
	nullable := a.Kind(x) == types.Nullable || a.Kind(y) == types.Nullable

	x, _, err := a.TwoWayCoerce(x, y)
	if err != nil {
		return types.None, c.errorAt(n, err)
	}

	if nullable {
		return a.NewNullable(x), nil
	}

	return x, nil
}

func (c *Checker) match(e *ast.MatchExpr) (types.Handle, error) {
	c.push()
	defer c.pop()

	if e.Decl != nil {
		if err := c.stmt(e.Decl); err != nil {
			return types.None, err
		}
	}

	var result types.Handle

	for _, k := range e.Cases {
		if _, err := c.expr(k.Cond); err != nil {
			return types.None, err
		}

		t, err := c.expr(k.Value)
		if err != nil {
			return types.None, err
		}

		if result == types.None {
			result = t

			continue
		}

		if result, err = c.join(k.Value, result, t); err != nil {
			return types.None, err
		}
	}

	if e.Default == nil {
		if result == types.None {
			return c.arena.NewNullable(c.prim(types.Any)), nil
		}

		return c.arena.NewNullable(result), nil
	}

	t, err := c.expr(e.Default)
	if err != nil {
		return types.None, err
	}

	if result == types.None {
		return t, nil
	}

	return c.join(e.Default, result, t)
}

// block checks the statements of a block expression. A return inside the
// block determines its type.
func (c *Checker) block(e *ast.BlockExpr) (types.Handle, error) {
	frame := &returnFrame{}

	c.rets = append(c.rets, frame)
	c.push()

	defer func() {
		c.pop()
		c.rets = c.rets[:len(c.rets)-1]
	}()

	for _, s := range e.Stmts {
		c.boundary(s)
	}

	if frame.typ == types.None {
		return c.prim(types.Any), nil
	}

	return frame.typ, nil
}

// function infers the signature of a function value. Parameters without
// an annotation start as open variables; those the body never references
// are widened to any?. Parameters that share an open variable with the
// return type become generic.
func (c *Checker) function(fn *ast.Function) (types.Handle, error) {
	a := c.arena

	c.push()
	defer c.pop()

	var (
		args   []types.Handle
		params []*Variable
		open   []bool
	)

	if fn.TakesSelf {
		if fn.SelfType != nil {
			if _, err := c.expr(fn.SelfType); err != nil {
				return types.None, err
			}
		}

		self := c.declare("self", c.prim(types.Any), fn.Pos())
		args = append(args, self.Type)
		params = append(params, self)
		open = append(open, false)
	}

	for _, prm := range fn.Params {
		var (
			t      types.Handle
			isOpen bool
		)

		switch {
		case prm.Variadic:
			t = c.prim(types.Table)

		case prm.Type != nil:
			t = c.annotation(prm.Type)

			if prm.Default != nil {
				if _, err := c.expr(prm.Default); err != nil {
					return types.None, err
				}
			}

		case prm.Default != nil:
			d, err := c.expr(prm.Default)
			if err != nil {
				return types.None, err
			}

			t = a.NewNullable(d)

		default:
			t, isOpen = a.NewVar(), true
		}

		params = append(params, c.declare(prm.Name, t, prm.At))
		args = append(args, t)
		open = append(open, isOpen)
	}

	ret, err := c.expr(fn.Body)
	if err != nil {
		return types.None, err
	}

	for i, v := range params {
		if open[i] && !v.Used {
			args[i] = a.NewNullable(c.prim(types.Any))
			v.Type = args[i]
		}
	}

	for _, arg := range args {
		a.MatchGeneric(ret, arg)
	}

	return a.NewFunction(ret, args...), nil
}

// annotation returns the type named by a parameter annotation. Unions and
// names other than the primitive types check as any.
func (c *Checker) annotation(ta *ast.TypeAnnotation) types.Handle {
	t := c.prim(types.Any)

	if len(ta.Allowed) == 1 {
		switch name := ta.Allowed[0]; name {
		case types.Number, types.String, types.Boolean, types.Table:
			t = c.prim(name)
		}
	}

	if ta.Optional {
		return c.arena.NewNullable(t)
	}

	return t
}

// loopHead declares the variables of a for-in loop. Numeric ranges bind
// numbers; any other iterator binds values of unknown type.
func (c *Checker) loopHead(vars []string, iter ast.Expr, pos token.Position) error {
	if _, err := c.expr(iter); err != nil {
		return err
	}

	t := c.prim(types.Any)
	if IsRange(iter) {
		t = c.prim(types.Number)
	}

	for _, name := range vars {
		c.declare(name, t, pos).Used = true
	}

	return nil
}

// IsRange reports whether e is a call of range or range_inc with one to
// three arguments.
func IsRange(e ast.Expr) bool {
	call, ok := e.(*ast.MethodCall)
	if !ok || len(call.Args) == 0 || len(call.Args) > 3 {
		return false
	}

	v, ok := call.Left.(*ast.Variable)

	return ok && (v.Name == "range" || v.Name == "range_inc")
}
