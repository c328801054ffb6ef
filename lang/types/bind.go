package types

import (
	"errors"
	"fmt"
	"slices"
)

// Bindings records the generics bound while one call site is checked.
// Every Bindings returned by [Arena.Bind] must be released, usually with
// defer, so the generics are unbound on every exit path:
//
//	b := arena.Bind()
//	defer b.Release()
type Bindings struct {
	arena    *Arena
	bound    []Handle
	released bool
}

// Bind opens a binding scope. Generics bound by [Arena.Coerce] while the
// scope is the innermost one are recorded in it.
func (a *Arena) Bind() *Bindings {
	b := &Bindings{arena: a}
	a.scopes = append(a.scopes, b)

	return b
}

func (a *Arena) active() *Bindings {
	if n := len(a.scopes); n > 0 {
		return a.scopes[n-1]
	}

	return nil
}

// Bind binds the generic g to t until b is released. A generic cannot be
// bound to a type that contains it; such a binding is skipped and g stays
// unbound.
func (b *Bindings) Bind(g, t Handle) error {
	if b.released {
		return fmt.Errorf("%w: bind after release", ErrInvariant)
	}

	a := b.arena

	h, ok := a.generic(g)
	if !ok {
		return fmt.Errorf("%w: bind of %s %s", ErrInvariant, a.Kind(g), a.String(g))
	}

	if a.cells[h].link != None {
		return fmt.Errorf("%w: generic %s is already bound", ErrInvariant, a.String(h))
	}

	id := a.cells[h].id
	for r := range a.reach(t) {
		if c := &a.cells[r]; c.kind == Generic && c.id == id {
			return nil
		}
	}

	a.cells[h].link = t
	b.bound = append(b.bound, h)

	return nil
}

// Bound returns the generics bound in b, in binding order.
func (b *Bindings) Bound() []Handle { return slices.Clone(b.bound) }

// Release unbinds every generic bound in b and closes the scope. Releasing
// a scope twice, or out of order, is an error, but the generics are
// unbound regardless.
func (b *Bindings) Release() error {
	if b.released {
		return fmt.Errorf("%w: binding scope released twice", ErrInvariant)
	}

	b.released = true

	a := b.arena

	var errs []error

	if i := slices.Index(a.scopes, b); i < 0 {
		errs = append(errs, fmt.Errorf("%w: unknown binding scope", ErrInvariant))
	} else {
		if i != len(a.scopes)-1 {
			errs = append(errs, fmt.Errorf("%w: binding scope released out of order", ErrInvariant))
		}

		a.scopes = slices.Delete(a.scopes, i, i+1)
	}

	for _, g := range slices.Backward(b.bound) {
		if a.cells[g].link == None {
			errs = append(errs, fmt.Errorf("%w: generic %s was unbound early", ErrInvariant, a.String(g)))
		}

		a.cells[g].link = None
	}

	return errors.Join(errs...)
}
