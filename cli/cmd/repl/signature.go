package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/jammy/lang/types"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is a call whose argument list contains the cursor.
type functionCall struct {
	name     string // callee, possibly with member access ("v.len")
	argIndex int    // 0-based index of the argument at the cursor
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor and
// the index of the argument being typed.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	open := -1
	depth := 0

scan:
	for i := cursor; i > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdent(r) && r != '.' && r != ':' {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	call := functionCall{name: name, inCall: true}
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				call.argIndex++
			}
		}
	}

	return call
}

// signature is the type of a function bound to a name.
type signature struct {
	name   string
	params []string
	ret    string
}

func (sig signature) String() string {
	return sig.name + "(" + strings.Join(sig.params, ", ") + ") -> " + sig.ret
}

// signature returns the type of the function bound to name. ok is false if
// name is not bound to a function.
func (s *session) signature(name string) (sig signature, ok bool) {
	v := s.checker.Lookup(name)
	if v == nil {
		return sig, false
	}

	arena := s.checker.Arena()

	h := arena.Resolve(v.Type)
	if arena.Kind(h) == types.Nullable {
		h = arena.Resolve(arena.Inner(h))
	}

	if arena.Kind(h) != types.Function {
		return sig, false
	}

	sig.name = name
	for _, a := range arena.Args(h) {
		sig.params = append(sig.params, arena.String(a))
	}

	sig.ret = arena.String(arena.Return(h))

	return sig, true
}

// renderSignatureHint renders sig with the parameter at argIdx emphasized.
func renderSignatureHint(sig signature, argIdx int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig.name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range sig.params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == argIdx {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(") -> " + sig.ret))

	return b.String()
}
