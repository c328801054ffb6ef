package infer

import (
	"iter"
	"slices"

	"github.com/ardnew/jammy/lang/token"
	"github.com/ardnew/jammy/lang/types"
)

// Variable is a name bound in a [Scope].
type Variable struct {
	Name string
	Type types.Handle
	Pos  token.Position
	// Used is set once the variable is referenced after its declaration.
	Used bool
}

// Scope is an ordered list of bindings. A later binding of a name shadows
// an earlier one.
type Scope struct {
	vars []*Variable
}

// Declare appends v to s.
func (s *Scope) Declare(v *Variable) { s.vars = append(s.vars, v) }

// Lookup returns the latest binding of name in s, or nil.
func (s *Scope) Lookup(name string) *Variable {
	for _, v := range slices.Backward(s.vars) {
		if v.Name == name {
			return v
		}
	}

	return nil
}

// All yields the bindings of s in declaration order.
func (s *Scope) All() iter.Seq[*Variable] {
	return func(yield func(*Variable) bool) {
		for _, v := range s.vars {
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of bindings in s.
func (s *Scope) Len() int { return len(s.vars) }
