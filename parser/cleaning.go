package parser

import (
	"strings"
	"unicode/utf8"
)

// BOM is the byte order mark, skipped when it is the first thing in the
// normalized input.
const BOM = "\uFEFF"

const replacementChar = '\uFFFD'

// obsoleteCharRefs maps numeric character references to their legacy
// replacements (13.2.5.80 Numeric character reference end state).
var obsoleteCharRefs = map[int]rune{
	0x00: replacementChar,
	0x80: 0x20AC,
	0x82: 0x201A,
	0x83: 0x0192,
	0x84: 0x201E,
	0x85: 0x2026,
	0x86: 0x2020,
	0x87: 0x2021,
	0x88: 0x02C6,
	0x89: 0x2030,
	0x8A: 0x0160,
	0x8B: 0x2039,
	0x8C: 0x0152,
	0x8E: 0x017D,
	0x91: 0x2018,
	0x92: 0x2019,
	0x93: 0x201C,
	0x94: 0x201D,
	0x95: 0x2022,
	0x96: 0x2013,
	0x97: 0x2014,
	0x98: 0x02DC,
	0x99: 0x2122,
	0x9A: 0x0161,
	0x9B: 0x203A,
	0x9C: 0x0153,
	0x9E: 0x017E,
	0x9F: 0x0178,
}

func isNonCharacter(code int) bool {
	if code >= 0xFDD0 && code <= 0xFDEF {
		return true
	}
	// U+FFFE and U+FFFF in each of the 17 planes.
	return code <= utf8.MaxRune && code&0xFFFE == 0xFFFE
}

func isSurrogate(code int) bool {
	return code >= 0xD800 && code <= 0xDFFF
}

// isStrippedControl reports the control characters removed from the input.
// NULL is kept, it is replaced differently depending on where it occurs.
// CR never reaches this check, newlines are normalized first.
func isStrippedControl(code int) bool {
	switch {
	case code >= 0x01 && code <= 0x08:
		return true
	case code == 0x0B:
		return true
	case code >= 0x0E && code <= 0x1F:
		return true
	case code >= 0x7F && code <= 0x9F:
		return true
	}
	return false
}

// NormalizeInput prepares a document for scanning: CRLF and lone CR become
// LF, invalid UTF-8 becomes U+FFFD and disallowed control characters and
// noncharacters are dropped. The input is returned as is when nothing
// needs to change.
func NormalizeInput(s string) string {
	if !needsNormalizing(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '\r':
			b.WriteByte('\n')
			if i+1 < len(s) && s[i+1] == '\n' {
				size++
			}
		case r == utf8.RuneError && size == 1:
			b.WriteRune(replacementChar)
		case isStrippedControl(int(r)), isNonCharacter(int(r)):
		default:
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

func needsNormalizing(s string) bool {
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c == '\r' || isStrippedControl(int(c)) {
				return true
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if (r == utf8.RuneError && size == 1) || isStrippedControl(int(r)) || isNonCharacter(int(r)) {
			return true
		}
		i += size
	}
	return false
}

// ReplaceNulls replaces every U+0000 with U+FFFD.
func ReplaceNulls(s string) string {
	if strings.IndexByte(s, 0) < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\x00", string(replacementChar))
}

// CleanName prepares a tag or attribute name: nulls are replaced and ASCII
// letters lowercased. Other letters are left untouched.
func CleanName(s string) string {
	s = ReplaceNulls(s)
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			return lowerASCII(s, i)
		}
	}
	return s
}

func lowerASCII(s string, from int) string {
	b := []byte(s)
	for i := from; i < len(b); i++ {
		b[i] = toLowerASCII(b[i])
	}
	return string(b)
}

// CleanAttrValue replaces nulls and decodes numeric character references.
func CleanAttrValue(s string) string {
	return DecodeNumericRefs(ReplaceNulls(s))
}

// CleanRCDATA cleans the text of title and textarea elements.
func CleanRCDATA(s string) string {
	return CleanAttrValue(s)
}

// DecodeNumericRefs replaces references of the form &#DDD; and &#xHHH;.
// The trailing semicolon is optional. Named references are left alone.
func DecodeNumericRefs(s string) string {
	i := strings.Index(s, "&#")
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i >= 0 {
		b.WriteString(s[:i])
		r, n := parseNumericRef(s[i:])
		if n == 0 {
			b.WriteString("&#")
			s = s[i+2:]
		} else {
			b.WriteRune(r)
			s = s[i+n:]
		}
		i = strings.Index(s, "&#")
	}
	b.WriteString(s)
	return b.String()
}

// parseNumericRef decodes the reference at the start of s, which begins
// with "&#". It returns the number of bytes consumed, zero if s holds no
// digits.
func parseNumericRef(s string) (rune, int) {
	i := 2
	base := 10
	if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
		base = 16
		i++
	}

	start := i
	code := 0
	for ; i < len(s); i++ {
		d := digitValue(s[i], base)
		if d < 0 {
			break
		}
		// saturate, anything past the last code point decodes the same
		if code <= utf8.MaxRune {
			code = code*base + d
		}
	}
	if i == start {
		return 0, 0
	}
	if i < len(s) && s[i] == ';' {
		i++
	}
	return decodeCodePoint(code), i
}

func digitValue(c byte, base int) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case base == 16 && 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case base == 16 && 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

func decodeCodePoint(code int) rune {
	if r, ok := obsoleteCharRefs[code]; ok {
		return r
	}
	if isSurrogate(code) || code > utf8.MaxRune {
		return replacementChar
	}
	return rune(code)
}
