package output

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// SanitizeTerminal makes a string safe to print to an interactive terminal
// by replacing control characters with visible escape sequences. File names
// may legally contain any byte but '/' and NUL, so this runs over every path.
//
//   - "a\x1b[31mb.txt" -> `a\\x1b[31mb.txt` (ESC becomes visible)
//   - "bad:\xff"       -> `bad:\\xff` (invalid UTF-8 byte)
//   - "a\tb\nc"        -> unchanged
func SanitizeTerminal(s string) string {
	idx := 0
	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		if needsEscape(r, size) {
			break
		}
		idx += size
	}
	if idx == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:idx])

	for idx < len(s) {
		r, size := utf8.DecodeRuneInString(s[idx:])
		switch {
		case r == utf8.RuneError && size == 1:
			appendHex(&b, 'x', uint32(s[idx]), 2)
		case needsEscape(r, size):
			appendEscapedRune(&b, r)
		default:
			b.WriteString(s[idx : idx+size])
		}
		idx += size
	}
	return b.String()
}

func needsEscape(r rune, size int) bool {
	if r == utf8.RuneError && size == 1 {
		return true
	}
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r)
}

// appendEscapedRune writes r as \xHH, \uHHHH or \UHHHHHHHH, whichever is
// the shortest that fits.
func appendEscapedRune(b *strings.Builder, r rune) {
	switch {
	case r <= 0xFF:
		appendHex(b, 'x', uint32(r), 2)
	case r <= 0xFFFF:
		appendHex(b, 'u', uint32(r), 4)
	default:
		appendHex(b, 'U', uint32(r), 8)
	}
}

func appendHex(b *strings.Builder, kind byte, v uint32, digits int) {
	b.WriteString(`\\`)
	b.WriteByte(kind)
	for shift := (digits - 1) * 4; shift >= 0; shift -= 4 {
		b.WriteByte(hexDigits[(v>>uint(shift))&0x0f])
	}
}
