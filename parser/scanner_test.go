package parser

import (
	"regexp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerReadPeekUnread(t *testing.T) {
	s := NewScanner("aé<")

	assert.Equal(t, "a", s.Peek())
	assert.Equal(t, "a", s.Read())
	assert.Equal(t, "é", s.Read())
	assert.Equal(t, 3, s.Pos())

	s.Unread()
	assert.Equal(t, 1, s.Pos())
	assert.Equal(t, "é", s.Peek())

	s.Skip(10)
	assert.True(t, s.IsEnd())
	assert.Equal(t, s.Len(), s.Pos())
	assert.Equal(t, "", s.Peek())
	assert.Equal(t, "", s.Read())
	assert.Equal(t, s.Len(), s.Pos())
}

func TestScannerUnreadAtStart(t *testing.T) {
	s := NewScanner("a")
	s.Unread()
	assert.Equal(t, 0, s.Pos())
}

func TestScannerSkipStaysInBounds(t *testing.T) {
	s := NewScanner("ab")
	s.Skip(-1)
	assert.Equal(t, 0, s.Pos())
	assert.Equal(t, "a", s.Peek())

	s.Skip(1)
	s.Skip(-5)
	assert.Equal(t, 0, s.Pos())

	s.Skip(5)
	assert.Equal(t, 2, s.Pos())
	s.Skip(-1)
	assert.Equal(t, "b", s.Peek())
}

func TestScannerReadUntil(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		skip     int
		until    Pattern
		expected string
		pos      int
	}{
		{"literal", "abc<def", 0, Literal("<"), "abc", 3},
		{"literal from cursor", "<a<b", 1, Literal("<"), "a", 2},
		{"missing literal", "abc", 0, Literal("zz"), "abc", 3},
		{"position", "abcdef", 1, Position(4), "bcd", 4},
		{"position behind cursor", "abcdef", 3, Position(1), "", 3},
		{"position past end", "abc", 0, Position(10), "abc", 3},
		{"any of", "name=value", 0, AnyOf("=/>"), "name", 4},
		{"none of", " \t\nx", 0, NoneOf(" \t\n\f"), " \t\n", 3},
		{"none of skips multibyte", "  é", 0, NoneOf(" "), "  ", 2},
		{"regexp", "a1b22", 2, Regexp(regexp.MustCompile(`\d+`)), "b", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.input)
			s.Skip(tt.skip)
			assert.Equal(t, tt.expected, s.ReadUntil(tt.until))
			assert.Equal(t, tt.pos, s.Pos())
		})
	}
}

func TestScannerSkipUntil(t *testing.T) {
	s := NewScanner("  x")
	s.SkipUntil(notWhitespace)
	assert.Equal(t, "x", s.Peek())

	s.SkipUntil(Literal("nothing"))
	assert.True(t, s.IsEnd())
}

func TestScannerSearchDoesNotMove(t *testing.T) {
	s := NewScanner("a--b-->")
	start, end, ok := s.Search(Literal("-->"))
	require.True(t, ok)
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)
	assert.Equal(t, 0, s.Pos())

	_, _, ok = s.Search(Literal("<"))
	assert.False(t, ok)
}

func TestScannerSearchResumesAtCursor(t *testing.T) {
	s := NewScanner("xaxa")
	s.Skip(2)
	start, end, ok := s.Search(Regexp(regexp.MustCompile(`a`)))
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 4, end)
}

func TestScannerSearchNilPattern(t *testing.T) {
	s := NewScanner("abc")
	assert.PanicsWithValue(t, ErrNilPattern, func() {
		s.Search(nil)
	})
}

func TestScannerSearchAnchoredPattern(t *testing.T) {
	exprs := []string{
		`^a`,
		`(?i)^a`,
		`\Aa`,
		`(^a)b`,
		`(?m)^a`,
		`x|^b`,
		`(?:x|y|\Ab)+`,
		`a*(?m:^b)`,
		`\bb`,
		`x\Bb`,
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			s := NewScanner("bb")
			s.Skip(1)
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected a panic")
				err, ok := r.(error)
				require.True(t, ok)
				assert.Equal(t, ErrAnchoredPattern, errors.Cause(err))
			}()
			s.Search(Regexp(regexp.MustCompile(expr)))
		})
	}
}

func TestScannerSearchAnchoredAlternationPanics(t *testing.T) {
	s := NewScanner("bb")
	s.Skip(1)
	assert.Panics(t, func() {
		s.Search(Regexp(regexp.MustCompile(`x|^b`)))
	})
}

func TestScannerSearchEndAnchorAllowed(t *testing.T) {
	s := NewScanner("a--")
	s.Skip(1)
	assert.NotPanics(t, func() {
		start, end, ok := s.Search(Regexp(regexp.MustCompile(`--?$`)))
		assert.True(t, ok)
		assert.Equal(t, 1, start)
		assert.Equal(t, 3, end)
	})
}

func TestScannerStartsWith(t *testing.T) {
	s := NewScanner("x<!DocType html>")
	s.Skip(3)

	assert.True(t, s.StartsWith("DocType", false))
	assert.False(t, s.StartsWith("doctype", false))
	assert.True(t, s.StartsWith("doctype", true))
	assert.False(t, s.StartsWith("doctype html>!", true))
}

func TestEndTagOf(t *testing.T) {
	tests := []struct {
		input      string
		start, end int
	}{
		{"a</TITLE >", 1, 9},
		{"</title>", 0, 8},
		{"</title/", 0, 8},
		{"</titlex></title\t", 9, 17},
		{"</title", -1, -1},
		{"</tit", -1, -1},
		{"title>", -1, -1},
	}

	for _, tt := range tests {
		start, end := EndTagOf("title").Index(tt.input, 0)
		assert.Equal(t, tt.start, start, tt.input)
		assert.Equal(t, tt.end, end, tt.input)
	}
}
