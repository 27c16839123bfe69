package parser

import (
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrNilPattern is the panic value for a search without a pattern.
	ErrNilPattern = errors.New("scanner: nil pattern")
	// ErrAnchoredPattern is the panic value for a search with a regexp that
	// asserts on the start of input or a word boundary anywhere in it.
	ErrAnchoredPattern = errors.New("scanner: pattern looks behind the cursor")
)

// Pattern locates the next match in s at or after the byte offset from.
// Index returns -1, -1 when there is no match. Implementations must not
// keep any search state between calls.
type Pattern interface {
	Index(s string, from int) (start, end int)
}

// Literal matches an exact substring.
type Literal string

// Index implements Pattern.
func (l Literal) Index(s string, from int) (int, int) {
	i := strings.Index(s[from:], string(l))
	if i < 0 {
		return -1, -1
	}
	return from + i, from + i + len(l)
}

// Position matches the empty string at an absolute offset. An offset behind
// the cursor matches at the cursor.
type Position int

// Index implements Pattern.
func (p Position) Index(s string, from int) (int, int) {
	n := int(p)
	if n < from {
		n = from
	}
	if n > len(s) {
		n = len(s)
	}
	return n, n
}

// byteSet matches a single ASCII byte out of a set, or with negate set, any
// byte outside of it.
type byteSet struct {
	set    [utf8.RuneSelf]bool
	negate bool
}

// AnyOf returns a Pattern matching any one of the ASCII characters in chars.
func AnyOf(chars string) Pattern {
	return newByteSet(chars, false)
}

// NoneOf returns a Pattern matching the first character that is not one of
// the ASCII characters in chars.
func NoneOf(chars string) Pattern {
	return newByteSet(chars, true)
}

func newByteSet(chars string, negate bool) *byteSet {
	b := &byteSet{negate: negate}
	for i := 0; i < len(chars); i++ {
		b.set[chars[i]] = true
	}
	return b
}

func (b *byteSet) has(c byte) bool {
	in := c < utf8.RuneSelf && b.set[c]
	return in != b.negate
}

// Index implements Pattern.
func (b *byteSet) Index(s string, from int) (int, int) {
	for i := from; i < len(s); i++ {
		if b.has(s[i]) {
			return i, i + 1
		}
	}
	return -1, -1
}

// endTagPattern matches "</name" followed by a tag name terminator, comparing
// the name ASCII case-insensitively.
type endTagPattern struct {
	name string
}

// EndTagOf returns a Pattern for the appropriate end tag of name. The
// terminator character is part of the match.
func EndTagOf(name string) Pattern {
	return endTagPattern{name: name}
}

// Index implements Pattern.
func (e endTagPattern) Index(s string, from int) (int, int) {
	for from < len(s) {
		i := strings.Index(s[from:], "</")
		if i < 0 {
			return -1, -1
		}
		start := from + i
		nameEnd := start + 2 + len(e.name)
		if nameEnd < len(s) &&
			asciiEqualFold(s[start+2:nameEnd], e.name) &&
			tagNameTerminators.has(s[nameEnd]) {
			return start, nameEnd + 1
		}
		from = start + 1
	}
	return -1, -1
}

// regexpPattern adapts a regular expression. The match is searched in the
// suffix of s starting at from, so assertions looking behind from would see
// a beginning of text there.
type regexpPattern struct {
	re       *regexp.Regexp
	anchored bool
}

// Regexp returns a Pattern backed by re. Searching with a Pattern whose
// expression contains ^, \A, \b or \B panics.
func Regexp(re *regexp.Regexp) Pattern {
	return &regexpPattern{re: re, anchored: isAnchored(re)}
}

// Index implements Pattern.
func (r *regexpPattern) Index(s string, from int) (int, int) {
	loc := r.re.FindStringIndex(s[from:])
	if loc == nil {
		return -1, -1
	}
	return from + loc[0], from + loc[1]
}

func isAnchored(re *regexp.Regexp) bool {
	parsed, err := syntax.Parse(re.String(), syntax.Perl)
	if err != nil {
		return false
	}
	return looksBehind(parsed)
}

// looksBehind reports whether re asserts anything about the text before a
// match: a start of text or line anchor, or a word boundary. Matched against
// a suffix, such an assertion sees a start of text at the cursor.
func looksBehind(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginText, syntax.OpBeginLine, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	for _, sub := range re.Sub {
		if looksBehind(sub) {
			return true
		}
	}
	return false
}

// Scanner is a cursor over a string. It knows nothing about HTML.
type Scanner struct {
	input string
	pos   int
}

// NewScanner returns a Scanner positioned at the start of input.
func NewScanner(input string) *Scanner {
	return &Scanner{input: input}
}

// Pos is the byte offset of the cursor.
func (s *Scanner) Pos() int {
	return s.pos
}

// Len is the length of the input in bytes.
func (s *Scanner) Len() int {
	return len(s.input)
}

// IsEnd reports whether the cursor reached the end of input.
func (s *Scanner) IsEnd() bool {
	return s.pos >= len(s.input)
}

// Peek returns the character under the cursor, or "" at the end of input.
func (s *Scanner) Peek() string {
	if s.IsEnd() {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s.input[s.pos:])
	return s.input[s.pos : s.pos+size]
}

// Read returns the character under the cursor and moves past it.
func (s *Scanner) Read() string {
	c := s.Peek()
	s.pos += len(c)
	return c
}

// Unread moves the cursor back by one character.
func (s *Scanner) Unread() {
	if s.pos == 0 {
		return
	}
	_, size := utf8.DecodeLastRuneInString(s.input[:s.pos])
	s.pos -= size
}

// Skip moves the cursor by n bytes, staying within the input.
func (s *Scanner) Skip(n int) {
	s.pos += n
	switch {
	case s.pos < 0:
		s.pos = 0
	case s.pos > len(s.input):
		s.pos = len(s.input)
	}
}

// ReadUntil returns everything between the cursor and the next match of
// terminator and moves the cursor to the start of that match. Without a
// match it consumes the rest of the input.
func (s *Scanner) ReadUntil(terminator Pattern) string {
	start := s.pos
	s.SkipUntil(terminator)
	return s.input[start:s.pos]
}

// SkipUntil moves the cursor like ReadUntil, discarding the span.
func (s *Scanner) SkipUntil(terminator Pattern) {
	if i, _, ok := s.Search(terminator); ok {
		s.pos = i
		return
	}
	s.pos = len(s.input)
}

// Search locates the next match of p at or after the cursor without moving
// it. It panics when p is nil or a regexp that looks behind the cursor.
func (s *Scanner) Search(p Pattern) (start, end int, ok bool) {
	if p == nil {
		panic(ErrNilPattern)
	}
	if r, isRegexp := p.(*regexpPattern); isRegexp && r.anchored {
		panic(errors.Wrapf(ErrAnchoredPattern, "searching %q", r.re.String()))
	}
	start, end = p.Index(s.input, s.pos)
	return start, end, start >= 0
}

// StartsWith reports whether the input at the cursor begins with lit. With
// foldCase set, ASCII letters compare case-insensitively.
func (s *Scanner) StartsWith(lit string, foldCase bool) bool {
	if len(s.input)-s.pos < len(lit) {
		return false
	}
	head := s.input[s.pos : s.pos+len(lit)]
	if foldCase {
		return asciiEqualFold(head, lit)
	}
	return head == lit
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLowerASCII(a[i]) != toLowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func toLowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
