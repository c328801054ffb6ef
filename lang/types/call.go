package types

import (
	"errors"
)

// Call checks a call of a value of type callee with arguments of the given
// types, and returns the type of the result.
//
// The declared signature is reconciled with a candidate signature built
// from the arguments. Generic arguments of the signature are bound to the
// matching argument types for the duration of the call only, and the
// result is a copy of the declared return type taken while they are bound,
// so consecutive calls of one generic function do not affect each other.
func (a *Arena) Call(callee Handle, args ...Handle) (Handle, error) {
	switch a.Kind(callee) {
	case Primitive:
		// Tables are callable through their metatable.
		if a.Is(callee, Any) || a.Is(callee, Table) {
			return a.NewPrimitive(Any), nil
		}

	case Var:
		r := a.NewVar()
		if _, _, err := a.Coerce(a.NewFunction(r, args...), callee); err != nil {
			return None, err
		}

		return r, nil

	case Nullable:
		return a.Call(a.Inner(callee), args...)

	case Function:
		return a.call(a.Resolve(callee), args)
	}

	r := a.NewVar()

	return None, a.mismatch(a.NewFunction(r, args...), callee)
}

func (a *Arena) call(fn Handle, args []Handle) (ret Handle, err error) {
	declared := a.Return(fn)

	r := declared
	if !a.IsConcrete(r) {
		r = a.NewVar()
	}

	candidate := a.NewFunction(r, args...)

	b := a.Bind()
	defer func() { err = errors.Join(err, b.Release()) }()

	for i, param := range a.Args(fn) {
		if i >= len(args) {
			break
		}

		if g, ok := a.generic(param); ok && a.cells[g].link == None {
			if err := b.Bind(g, a.settle(args[i])); err != nil {
				return None, err
			}
		}
	}

	if _, _, err := a.TwoWayCoerce(fn, candidate); err != nil {
		return None, err
	}

	return a.Copy(a.Return(fn)), nil
}
