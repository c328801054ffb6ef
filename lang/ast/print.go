package ast

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Fprint writes an indented outline of stmts to w, one node per line.
func Fprint(w io.Writer, stmts []Stmt) error {
	bw := bufio.NewWriter(w)

	for _, s := range stmts {
		fprint(bw, s, 0)
	}

	return bw.Flush()
}

func fprint(w *bufio.Writer, n Node, depth int) {
	w.WriteString(strings.Repeat("  ", depth))
	w.WriteString(Label(n))
	w.WriteByte('\n')

	for c := range Children(n) {
		fprint(w, c, depth+1)
	}
}

// Label returns a one-line description of n, such as
// "binary_op '+'" or "variable x".
func Label(n Node) string {
	k := n.Kind()

	switch n := n.(type) {
	case *Number:
		return k + " " + n.Raw
	case *Bool:
		return k + " " + strconv.FormatBool(n.Value)
	case *String:
		return k + " " + strconv.Quote(n.Value)
	case *FString:
		return k + " " + strconv.Quote(n.Format)
	case *Variable:
		return k + " " + n.Name
	case *IndexObject:
		return k + " ." + n.Name
	case *SelfMethodCall:
		return k + " :" + n.Member
	case *Binary:
		return k + " '" + n.Op.String() + "'"
	case *Unary:
		return k + " '" + n.Op.String() + "'"
	case *Table:
		keys := make([]string, len(n.Entries))
		for i, e := range n.Entries {
			keys[i] = e.Key
		}

		return k + " {" + strings.Join(keys, ", ") + "}"
	case *Function:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
			if p.Variadic {
				names[i] += "..."
			}
		}

		arrow := "=>"
		if n.TakesSelf {
			arrow = ":=>"
		}

		return k + " (" + strings.Join(names, ", ") + ") " + arrow
	case *ForInExpr:
		return k + " " + strings.Join(n.Vars, ", ")
	case *ForInStmt:
		return k + " " + strings.Join(n.Vars, ", ")
	case *ReturnStmt:
		if n.Virtual {
			return k + " (virtual)"
		}
	case *VarDec:
		return k + " " + strings.Join(n.Names, ", ")
	case *Class:
		if n.Extends != "" {
			return k + " " + n.Name + " from " + n.Extends
		}

		return k + " " + n.Name
	case *Use:
		return k + " " + strconv.Quote(n.Path)
	case *Export:
		if n.As != n.Name {
			return k + " " + n.Name + " as " + n.As
		}

		return k + " " + n.Name
	}

	return k
}
