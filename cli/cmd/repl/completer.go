package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "lua", "edit", "reset", "clear", "quit"}

// keywords are completed in eval mode along with the bound names.
var keywords = []string{
	"let", "if", "else", "match", "try", "for", "in", "while", "break",
	"continue", "prototype", "from", "use", "export", "as", "true",
	"false", "nil", "self", "super", "len", "unpack",
}

// isIdent reports whether r can appear in an identifier.
func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the identifier around the cursor and its byte
// boundaries within input. The word is empty when the cursor is not next
// to an identifier character.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdent(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isIdent(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// afterMember reports whether the word starting at start follows a member
// access, where top-level names do not apply.
func afterMember(input string, start int) bool {
	prefix := strings.TrimRightFunc(input[:start], unicode.IsSpace)

	return strings.HasSuffix(prefix, ".") || strings.HasSuffix(prefix, ":")
}

// inString reports whether the cursor is inside a string literal.
func inString(input string, cursor int) bool {
	var quote rune

	escaped := false

	for _, r := range input[:min(cursor, len(input))] {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quote != 0:
			escaped = true
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case r == quote:
			quote = 0
		}
	}

	return quote != 0
}

// computeMatches ranks the candidates for the word at the cursor.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)
	if word == "" {
		return nil, wordStart, wordEnd
	}

	var candidates []string

	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		if afterMember(input, wordStart) || inString(input, cursor) {
			return nil, wordStart, wordEnd
		}

		candidates = candidateNames(m.session.names())
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// candidateNames merges the bound names with the keywords, without
// duplicates and with the runtime's internal names removed.
func candidateNames(names []string) []string {
	out := make([]string, 0, len(names)+len(keywords))

	for _, n := range names {
		if !strings.HasPrefix(n, "__") {
			out = append(out, n)
		}
	}

	for _, k := range keywords {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}

	return out
}

// renderCandidateBar builds the completion line, ellipsized to width. The
// selected candidate is highlighted while tab-cycling.
func renderCandidateBar(matches fuzzy.Matches, suggIdx int, tabActive bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w > room {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// emphasized.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, hl := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, hl = selectedStyle, selectedStyle.Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
