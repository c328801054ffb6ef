package diag

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// errNoContext is returned by [Printer.Snippet] when a diagnostic cannot be
// located in the source.
var errNoContext = errors.New("position outside of source")

// gutterWidth is the width of the line-number column.
const gutterWidth = 4

// Printer renders diagnostics with the offending source line and a caret
// marker beneath the reported token.
type Printer struct {
	unit  string
	lines []string
	color bool
}

// NewPrinter returns a [Printer] for diagnostics of the named unit whose
// source text is src.
func NewPrinter(unit, src string, color bool) *Printer {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	return &Printer{unit: unit, lines: strings.Split(src, "\n"), color: color}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}

	return s.Render(text)
}

// Header returns the one-line summary of d.
func (p *Printer) Header(d Diagnostic) string {
	sev := d.Severity.String()
	if d.Severity == SeverityWarning {
		sev = p.style(warningStyle, sev)
	} else {
		sev = p.style(errorStyle, sev)
	}

	loc := p.unit
	if d.Pos.IsValid() {
		loc += ":" + d.Pos.String()
	}

	if loc != "" {
		loc += ": "
	}

	return fmt.Sprintf("%s%s: %s: %s", loc, sev, d.Class, d.Message)
}

// Snippet returns the source excerpt for d, or an error if d.Pos does not
// fall inside the source.
func (p *Printer) Snippet(d Diagnostic) (string, error) {
	if !d.Pos.IsValid() || d.Pos.Line > len(p.lines) {
		return "", errNoContext
	}

	line := p.lines[d.Pos.Line-1]
	if d.Pos.Column-1 > utf8.RuneCountInString(line) {
		return "", errNoContext
	}

	// Reuse tabs from the source line so the carets stay aligned.
	var pad strings.Builder

	for i, r := range []rune(line) {
		if i >= d.Pos.Column-1 {
			break
		}

		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteByte(' ')
		}
	}

	empty := p.style(gutterStyle, strings.Repeat(" ", gutterWidth+1)+"|")
	number := p.style(gutterStyle,
		fmt.Sprintf("%*s |", gutterWidth, strconv.Itoa(d.Pos.Line)))

	var b strings.Builder

	b.WriteString(empty + "\n")
	b.WriteString(number + " " + line + "\n")
	b.WriteString(empty + " " + pad.String() +
		p.style(caretStyle, strings.Repeat("^", max(d.Pos.Length, 1))) + "\n")

	return b.String(), nil
}

// Fprint writes d to w. A diagnostic that cannot be located in the source
// is still written in full, without the excerpt.
func (p *Printer) Fprint(w io.Writer, d Diagnostic) error {
	snippet, err := p.Snippet(d)
	if err != nil {
		_, err = fmt.Fprintf(w,
			"%s\n(the position of this diagnostic could not be shown: %v)\n%s\n\n",
			p.Header(d), err, d.Error())

		return err
	}

	_, err = fmt.Fprintf(w, "%s\n%s\n", p.Header(d), snippet)

	return err
}

// FprintAll writes every diagnostic of l to w, in order.
func (p *Printer) FprintAll(w io.Writer, l List) error {
	for _, d := range l {
		if err := p.Fprint(w, d); err != nil {
			return err
		}
	}

	return nil
}
