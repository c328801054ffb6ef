// Package types implements the type cells of the jammy checker.
//
// Cells live in an [Arena] and are addressed by [Handle]. Two owners of the
// same cell hold the same handle, so resolving a variable in one place is
// visible everywhere that variable is referenced. Cells are never freed; an
// arena lives as long as the compilation unit that owns it.
package types

import (
	"errors"
	"iter"
	"slices"
)

// Handle addresses a cell of an [Arena]. The zero Handle is not a cell.
type Handle int32

// None is the invalid handle.
const None Handle = 0

// Kind identifies the variant of a cell.
type Kind uint8

const (
	Invalid Kind = iota
	// Primitive is a named scalar type such as "number". Primitives are
	// interned, so equal names share one handle.
	Primitive
	// Var is an open type variable. It resolves at most once.
	Var
	// Nullable is an inner type that may also be nil. The inner type is
	// never itself Nullable.
	Nullable
	// Generic is a type parameter of a function signature. It is bound to a
	// concrete type only while one call site is checked.
	Generic
	// Function has a return type and argument types.
	Function
	// Ref forwards every operation to its target.
	Ref
)

var kindNames = [...]string{"invalid", "primitive", "var", "nullable", "generic", "function", "ref"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "invalid"
}

// Names of the primitive types.
const (
	Any     = "any"
	Number  = "number"
	String  = "string"
	Boolean = "boolean"
	Table   = "table"
)

var (
	// ErrMismatch is matched by every [MismatchError].
	ErrMismatch = errors.New("type mismatch")
	// ErrInvariant reports misuse of the arena by the caller, such as
	// binding a generic twice.
	ErrInvariant = errors.New("type invariant violated")
)

// MismatchError reports that a value of one type cannot flow into another.
type MismatchError struct {
	From, To string
}

func (e *MismatchError) Error() string {
	return "cannot coerce a " + e.From + " to a " + e.To
}

func (e *MismatchError) Is(target error) bool { return target == ErrMismatch }

// cell is one node of the type graph. The meaning of link depends on kind:
// the resolution of a Var, the inner type of a Nullable, the bound type of a
// Generic, the target of a Ref or the return type of a Function.
type cell struct {
	kind Kind
	id   int
	name string
	link Handle
	args []Handle
}

// Arena owns the type cells of one compilation unit. An Arena is not safe
// for concurrent use.
type Arena struct {
	cells    []cell
	prims    map[string]Handle
	vars     int
	generics int
	scopes   []*Bindings
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		cells: make([]cell, 1, 64),
		prims: make(map[string]Handle),
	}
}

func (a *Arena) add(c cell) Handle {
	a.cells = append(a.cells, c)

	return Handle(len(a.cells) - 1)
}

// Valid reports whether h addresses a cell of a.
func (a *Arena) Valid(h Handle) bool { return h > 0 && int(h) < len(a.cells) }

// Len returns the number of cells in a.
func (a *Arena) Len() int { return len(a.cells) - 1 }

// NewPrimitive returns the primitive type named name.
func (a *Arena) NewPrimitive(name string) Handle {
	if h, ok := a.prims[name]; ok {
		return h
	}

	h := a.add(cell{kind: Primitive, name: name})
	a.prims[name] = h

	return h
}

// NewVar returns a fresh unresolved type variable.
func (a *Arena) NewVar() Handle {
	h := a.add(cell{kind: Var, id: a.vars})
	a.vars++

	return h
}

// NewNullable returns inner made nullable. If inner already is nullable,
// the result wraps its inner type instead.
func (a *Arena) NewNullable(inner Handle) Handle {
	if r := a.Resolve(inner); a.cells[r].kind == Nullable {
		inner = a.Inner(r)
	}

	return a.add(cell{kind: Nullable, link: inner})
}

// NewGeneric returns a fresh unbound generic.
func (a *Arena) NewGeneric() Handle {
	h := a.add(cell{kind: Generic, id: a.generics})
	a.generics++

	return h
}

// NewFunction returns the type of a function taking args and returning ret.
func (a *Arena) NewFunction(ret Handle, args ...Handle) Handle {
	return a.add(cell{kind: Function, link: ret, args: slices.Clone(args)})
}

// NewRef returns a cell that forwards to target.
func (a *Arena) NewRef(target Handle) Handle {
	return a.add(cell{kind: Ref, link: target})
}

// Resolve follows refs, resolved variables and bound generics from h to
// the cell that determines its type.
func (a *Arena) Resolve(h Handle) Handle {
	for range len(a.cells) {
		if !a.Valid(h) {
			return h
		}

		c := &a.cells[h]
		switch {
		case c.kind == Ref,
			c.kind == Var && c.link != None,
			c.kind == Generic && c.link != None:
			h = c.link
		default:
			return h
		}
	}

	return h
}

// Kind returns the kind of the resolved type of h.
func (a *Arena) Kind(h Handle) Kind {
	if h = a.Resolve(h); !a.Valid(h) {
		return Invalid
	}

	return a.cells[h].kind
}

// Name returns the name of a primitive type, or "" for any other kind.
func (a *Arena) Name(h Handle) string {
	if a.Kind(h) != Primitive {
		return ""
	}

	return a.cells[a.Resolve(h)].name
}

// Is reports whether h resolves to the primitive named name.
func (a *Arena) Is(h Handle, name string) bool { return a.Name(h) == name }

// IsUnknown reports whether h resolves to an unresolved variable.
func (a *Arena) IsUnknown(h Handle) bool { return a.Kind(h) == Var }

// IsConcrete reports whether h resolves to something other than an
// unresolved variable or an unbound generic.
func (a *Arena) IsConcrete(h Handle) bool {
	switch a.Kind(h) {
	case Var, Generic, Invalid:
		return false
	}

	return true
}

// Inner returns the inner type of a nullable type. Inner types that were
// resolved to a nullable after construction are flattened here.
func (a *Arena) Inner(h Handle) Handle {
	r := a.Resolve(h)
	if a.Kind(r) != Nullable {
		return None
	}

	inner := a.cells[r].link
	for range len(a.cells) {
		ir := a.Resolve(inner)
		if a.cells[ir].kind != Nullable {
			break
		}

		inner = a.cells[ir].link
	}

	return inner
}

// Return returns the return type of a function type.
func (a *Arena) Return(h Handle) Handle {
	if a.Kind(h) != Function {
		return None
	}

	return a.cells[a.Resolve(h)].link
}

// Args returns the argument types of a function type.
func (a *Arena) Args(h Handle) []Handle {
	if a.Kind(h) != Function {
		return nil
	}

	return slices.Clone(a.cells[a.Resolve(h)].args)
}

// Bound returns the type a generic is bound to, or None.
func (a *Arena) Bound(h Handle) Handle {
	g, ok := a.generic(h)
	if !ok {
		return None
	}

	return a.cells[g].link
}

// generic follows refs and resolved variables from h to a generic cell,
// without following the generic's own binding.
func (a *Arena) generic(h Handle) (Handle, bool) {
	for range len(a.cells) {
		if !a.Valid(h) {
			return None, false
		}

		c := &a.cells[h]
		switch {
		case c.kind == Generic:
			return h, true
		case c.kind == Ref, c.kind == Var && c.link != None:
			h = c.link
		default:
			return None, false
		}
	}

	return None, false
}

// reach yields every cell reachable from h, each once, following every
// link including the bindings of generics.
func (a *Arena) reach(h Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		seen := make(map[Handle]bool)
		stack := []Handle{h}

		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !a.Valid(h) || seen[h] {
				continue
			}

			seen[h] = true

			if !yield(h) {
				return
			}

			c := &a.cells[h]
			for _, arg := range slices.Backward(c.args) {
				stack = append(stack, arg)
			}

			if c.link != None {
				stack = append(stack, c.link)
			}
		}
	}
}

// occurs reports whether v is reachable from h.
func (a *Arena) occurs(v, h Handle) bool {
	for r := range a.reach(h) {
		if r == v {
			return true
		}
	}

	return false
}

// hasBound reports whether a bound generic is reachable from h.
func (a *Arena) hasBound(h Handle) bool {
	for r := range a.reach(h) {
		if c := &a.cells[r]; c.kind == Generic && c.link != None {
			return true
		}
	}

	return false
}

// Equal reports whether x and y resolve to structurally equal types.
// Generics are equal when they share an id.
func (a *Arena) Equal(x, y Handle) bool {
	return a.equal(x, y, 0)
}

func (a *Arena) equal(x, y Handle, depth int) bool {
	x, y = a.Resolve(x), a.Resolve(y)
	if x == y {
		return true
	}

	if !a.Valid(x) || !a.Valid(y) || depth > maxDepth {
		return false
	}

	cx, cy := &a.cells[x], &a.cells[y]
	if cx.kind != cy.kind {
		return false
	}

	switch cx.kind {
	case Primitive:
		return cx.name == cy.name
	case Generic:
		return cx.id == cy.id
	case Nullable:
		return a.equal(a.Inner(x), a.Inner(y), depth+1)
	case Function:
		if len(cx.args) != len(cy.args) || !a.equal(cx.link, cy.link, depth+1) {
			return false
		}

		for i := range cx.args {
			if !a.equal(cx.args[i], cy.args[i], depth+1) {
				return false
			}
		}

		return true
	}

	return false
}

// maxDepth bounds the recursion of structural operations.
const maxDepth = 256
