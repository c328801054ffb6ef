package types

import (
	"fmt"
	"slices"
)

// Coerce makes the type weak consistent with the type strong, resolving
// open variables of either side where needed. It returns the handles that
// should replace weak and strong in their owners' slots.
//
// An unresolved variable on the weak side is resolved to strong. An
// unresolved variable on the strong side is resolved to weak. An unbound
// generic on either side is bound to the other side through the innermost
// active [Bindings], if any, and is accepted as is otherwise. A nullable weak type is checked by its inner type,
// and a nullable strong type accepts its inner type. The primitive "any"
// accepts and is accepted by everything. Functions are checked argument by
// argument, where an argument the weak side does not supply becomes
// nullable, and then by return type.
func (a *Arena) Coerce(strong, weak Handle) (Handle, Handle, error) {
	if !a.Valid(strong) || !a.Valid(weak) {
		return weak, strong, fmt.Errorf("%w: invalid handle", ErrInvariant)
	}

	return a.coerce(strong, weak, 0)
}

func (a *Arena) coerce(strong, weak Handle, depth int) (Handle, Handle, error) {
	if depth > maxDepth {
		return weak, strong, a.mismatch(weak, strong)
	}

	s, w := a.Resolve(strong), a.Resolve(weak)
	sk, wk := a.cells[s].kind, a.cells[w].kind

	switch {
	case s == w, sk == Generic && wk == Generic && a.cells[s].id == a.cells[w].id:
		return weak, strong, nil

	case wk == Var:
		if a.occurs(w, s) {
			return weak, strong, a.mismatch(weak, strong)
		}

		link := a.settle(s)
		a.cells[w].link = link

		return weak, strong, nil

	case wk == Generic:
		if b := a.active(); b != nil {
			if err := b.Bind(w, a.settle(s)); err != nil {
				return weak, strong, err
			}
		}

		return weak, strong, nil

	case sk == Var:
		if a.occurs(s, w) {
			return weak, strong, a.mismatch(weak, strong)
		}

		link := a.settle(w)
		a.cells[s].link = link

		return weak, strong, nil

	case sk == Generic:
		if b := a.active(); b != nil {
			if err := b.Bind(s, a.settle(w)); err != nil {
				return weak, strong, err
			}
		}

		return weak, strong, nil

	case wk == Nullable:
		inner, target := a.Inner(w), s
		if sk == Nullable {
			target = a.Inner(s)
		}

		in, _, err := a.coerce(target, inner, depth+1)
		if err != nil {
			return weak, strong, a.mismatch(weak, strong)
		}

		if in != inner {
			weak = a.NewNullable(in)
		}

		return weak, strong, nil

	case a.isAny(s), a.isAny(w):
		return weak, strong, nil

	case sk == Primitive && wk == Primitive:
		if a.cells[s].name == a.cells[w].name {
			return weak, strong, nil
		}

	case sk == Function && wk == Function:
		if err := a.coerceFunction(s, w, depth); err != nil {
			return weak, strong, a.mismatch(weak, strong)
		}

		return weak, strong, nil

	case sk == Nullable:
		w2, _, err := a.coerce(a.Inner(s), weak, depth+1)
		if err != nil {
			return weak, strong, a.mismatch(weak, strong)
		}

		return w2, strong, nil
	}

	return weak, strong, a.mismatch(weak, strong)
}

// coerceFunction coerces the function s into the function w in place.
func (a *Arena) coerceFunction(s, w Handle, depth int) error {
	declared := slices.Clone(a.cells[s].args)

	for i, d := range declared {
		if i >= len(a.cells[w].args) {
			n := a.NewNullable(a.settle(d))
			a.cells[w].args = append(a.cells[w].args, n)

			continue
		}

		w2, s2, err := a.coerce(d, a.cells[w].args[i], depth+1)
		if err != nil {
			return err
		}

		a.cells[w].args[i], a.cells[s].args[i] = w2, s2
	}

	w2, s2, err := a.coerce(a.cells[s].link, a.cells[w].link, depth+1)
	if err != nil {
		return err
	}

	a.cells[w].link, a.cells[s].link = w2, s2

	return nil
}

// TwoWayCoerce coerces y into x if y can flow into x, and otherwise x into
// y. It returns the replacement handles for x and y in that order.
func (a *Arena) TwoWayCoerce(x, y Handle) (Handle, Handle, error) {
	switch {
	case a.CanCoerce(y, x):
		w, s, err := a.Coerce(x, y)

		return s, w, err
	case a.CanCoerce(x, y):
		return a.Coerce(y, x)
	}

	return x, y, a.mismatch(y, x)
}

// CanCoerce reports whether a value of type from can flow into type to,
// following the rules of [Arena.Coerce] without changing either type.
func (a *Arena) CanCoerce(from, to Handle) bool {
	return a.canCoerce(from, to, 0)
}

func (a *Arena) canCoerce(from, to Handle, depth int) bool {
	f, t := a.Resolve(from), a.Resolve(to)
	if !a.Valid(f) || !a.Valid(t) || depth > maxDepth {
		return false
	}

	if f == t {
		return true
	}

	fk, tk := a.cells[f].kind, a.cells[t].kind

	switch {
	case fk == Var, tk == Var, fk == Generic, tk == Generic:
		return true
	case fk == Nullable:
		if tk == Nullable {
			t = a.Inner(t)
		}

		return a.canCoerce(a.Inner(f), t, depth+1)
	case a.isAny(f), a.isAny(t):
		return true
	case fk == Primitive && tk == Primitive:
		return a.cells[f].name == a.cells[t].name
	case fk == Function && tk == Function:
		fargs := a.cells[f].args
		for i, arg := range a.cells[t].args {
			if i < len(fargs) && !a.canCoerce(fargs[i], arg, depth+1) {
				return false
			}
		}

		return a.canCoerce(a.cells[f].link, a.cells[t].link, depth+1)
	case tk == Nullable:
		return a.canCoerce(f, a.Inner(t), depth+1)
	}

	return false
}

// MatchGeneric replaces every unresolved variable that occurs in both ret
// and param with a fresh generic, so the positions that shared the variable
// share the generic instead. It returns the generics created.
func (a *Arena) MatchGeneric(ret, param Handle) []Handle {
	var created []Handle

	for v := range a.reach(param) {
		if c := &a.cells[v]; c.kind != Var || c.link != None {
			continue
		}

		if !a.occurs(v, ret) {
			continue
		}

		g := a.NewGeneric()
		a.cells[v].link = g
		created = append(created, g)
	}

	return created
}

// Copy returns a structural copy of h. Bound generics are replaced by a
// copy of their binding, so the copy does not change when they are
// unbound. Unresolved variables and primitives are shared, not copied.
func (a *Arena) Copy(h Handle) Handle {
	return a.copy(h, 0)
}

func (a *Arena) copy(h Handle, depth int) Handle {
	if !a.Valid(h) || depth > maxDepth {
		return h
	}

	c := a.cells[h]

	switch c.kind {
	case Ref:
		return a.copy(c.link, depth+1)
	case Var:
		if c.link == None {
			return h
		}

		return a.copy(c.link, depth+1)
	case Generic:
		if c.link != None {
			return a.copy(c.link, depth+1)
		}

		return a.add(cell{kind: Generic, id: c.id})
	case Nullable:
		return a.NewNullable(a.copy(c.link, depth+1))
	case Function:
		args := make([]Handle, len(c.args))
		for i, arg := range c.args {
			args[i] = a.copy(arg, depth+1)
		}

		return a.NewFunction(a.copy(c.link, depth+1), args...)
	}

	return h
}

// settle returns the handle a variable should resolve to when linked to h.
// Types that depend on a bound generic are copied so that the link stays
// valid after the generic is unbound.
func (a *Arena) settle(h Handle) Handle {
	if a.hasBound(h) {
		return a.Copy(h)
	}

	return a.Resolve(h)
}

func (a *Arena) isAny(h Handle) bool {
	c := &a.cells[h]

	return c.kind == Primitive && c.name == Any
}

func (a *Arena) mismatch(from, to Handle) error {
	return &MismatchError{From: a.String(from), To: a.String(to)}
}
