package lsp

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/ardnew/jammy/lang/token"
)

// Protocol characters count UTF-16 code units. Source columns count runes
// and source offsets count bytes.

// rangeOf converts a 1-based source position in text to a 0-based protocol
// range. Positions without a location map to the start of the document.
func rangeOf(text string, p token.Position) protocol.Range {
	if !p.IsValid() {
		return protocol.Range{}
	}

	line, _, _ := lineAt(text, protocol.UInteger(p.Line-1))
	col := p.Column - 1

	return protocol.Range{
		Start: protocol.Position{
			Line:      protocol.UInteger(p.Line - 1),
			Character: protocol.UInteger(units(line, col)),
		},
		End: protocol.Position{
			Line:      protocol.UInteger(p.Line - 1),
			Character: protocol.UInteger(units(line, col+max(p.Length, 1))),
		},
	}
}

// units returns the UTF-16 length of the first n runes of line. Runes past
// the end of line count one unit each.
func units(line string, n int) int {
	u := 0

	for _, r := range line {
		if n == 0 {
			return u
		}

		u += utf16.RuneLen(r)
		n--
	}

	return u + n
}

// byteIndex returns the byte index in line of the protocol character ch,
// clamped to the end of line.
func byteIndex(line string, ch protocol.UInteger) int {
	u := 0

	for i, r := range line {
		if u >= int(ch) {
			return i
		}

		u += utf16.RuneLen(r)
	}

	return len(line)
}

// lineAt returns line n of text and the byte offset of its start.
func lineAt(text string, n protocol.UInteger) (line string, start int, ok bool) {
	for range n {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return "", 0, false
		}

		start += nl + 1
	}

	line = text[start:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	return line, start, true
}

// offsetOf returns the byte offset of pos in text.
func offsetOf(text string, pos protocol.Position) (int, bool) {
	line, start, ok := lineAt(text, pos.Line)
	if !ok {
		return 0, false
	}

	return start + byteIndex(line, pos.Character), true
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// extractPrefix returns the identifier fragment before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, _, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}

	return identBefore(line, byteIndex(line, pos.Character))
}

// extractWord returns the identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, _, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}

	end := byteIndex(line, pos.Character)
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !isIdent(r) {
			break
		}

		end += size
	}

	return identBefore(line, end)
}

// identBefore returns the identifier characters of line that end at byte
// index end.
func identBefore(line string, end int) string {
	start := end
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isIdent(r) {
			break
		}

		start -= size
	}

	return line[start:end]
}
