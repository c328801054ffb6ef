package types

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// String returns the printable form of h: a primitive name, "$id" for an
// unresolved variable, "<id>" for an unbound generic, "T?" for a nullable
// type and "(a, b) -> r" for a function.
func (a *Arena) String(h Handle) string {
	var sb strings.Builder
	a.format(&sb, h, 0)

	return sb.String()
}

func (a *Arena) format(sb *strings.Builder, h Handle, depth int) {
	h = a.Resolve(h)
	if !a.Valid(h) {
		sb.WriteString("invalid")

		return
	}

	if depth > maxDepth {
		sb.WriteString("...")

		return
	}

	c := &a.cells[h]

	switch c.kind {
	case Primitive:
		sb.WriteString(c.name)
	case Var:
		sb.WriteString("$" + strconv.Itoa(c.id))
	case Generic:
		sb.WriteString("<" + strconv.Itoa(c.id) + ">")
	case Nullable:
		inner := a.Inner(h)
		if a.Kind(inner) == Function {
			sb.WriteByte('(')
			a.format(sb, inner, depth+1)
			sb.WriteByte(')')
		} else {
			a.format(sb, inner, depth+1)
		}

		sb.WriteByte('?')
	case Function:
		sb.WriteByte('(')

		for i, arg := range c.args {
			if i > 0 {
				sb.WriteString(", ")
			}

			a.format(sb, arg, depth+1)
		}

		sb.WriteString(") -> ")
		a.format(sb, c.link, depth+1)
	}
}

// Dump writes every cell reachable from roots, one per line in handle
// order, without resolving links:
//
//	#1 primitive number
//	#2 var $0 -> #1
func (a *Arena) Dump(w io.Writer, roots ...Handle) error {
	var all []Handle

	for _, root := range roots {
		for h := range a.reach(root) {
			if !slices.Contains(all, h) {
				all = append(all, h)
			}
		}
	}

	slices.Sort(all)

	for _, h := range all {
		if _, err := fmt.Fprintln(w, a.describe(h)); err != nil {
			return err
		}
	}

	return nil
}

func (a *Arena) describe(h Handle) string {
	c := &a.cells[h]
	s := fmt.Sprintf("#%d %s", h, c.kind)

	switch c.kind {
	case Primitive:
		s += " " + c.name
	case Var, Generic:
		pre, post := "$", ""
		if c.kind == Generic {
			pre, post = "<", ">"
		}

		s += " " + pre + strconv.Itoa(c.id) + post
		if c.link != None {
			s += fmt.Sprintf(" -> #%d", c.link)
		}
	case Nullable, Ref:
		s += fmt.Sprintf(" #%d", c.link)
	case Function:
		args := make([]string, len(c.args))
		for i, arg := range c.args {
			args[i] = fmt.Sprintf("#%d", arg)
		}

		s += fmt.Sprintf(" (%s) -> #%d", strings.Join(args, ", "), c.link)
	}

	return s
}
