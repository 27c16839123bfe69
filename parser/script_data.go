package parser

import (
	"strings"
)

// scriptDataMode tracks escaping inside a script element. A "<!--" switches
// to escaped mode, where "</script" no longer closes the element. A nested
// "<script" switches to double escaped mode and its "</script" back to
// escaped. "-->" returns to normal mode from either.
type scriptDataMode uint

const (
	scriptNormal scriptDataMode = iota
	scriptEscaped
	scriptDoubleEscaped
)

func (m scriptDataMode) String() string {
	switch m {
	case scriptNormal:
		return "normal"
	case scriptEscaped:
		return "escaped"
	case scriptDoubleEscaped:
		return "double escaped"
	}
	return "unknown"
}

// scriptDataStateParser emits the body of a script element span by span and
// then parses its end tag. Every span runs up to and including the next
// marker recognized in the current mode. The modes are driven by a loop so
// alternating markers never grow the stack.
func (p *HTMLTokenizer) scriptDataStateParser() tokenizerState {
	s := p.scanner
	mode := scriptNormal
	for {
		if p.trace {
			p.log.WithField("mode", mode).WithField("pos", s.Pos()).Trace("[TOKEN] script data")
		}

		start, end, ok := s.Search(scriptMarkers{mode: mode})
		if !ok {
			p.emitText(ReplaceNulls(s.ReadUntil(endOfFile)))
			return eofState
		}

		span := s.ReadUntil(Position(start))
		switch {
		case s.StartsWith("</", false):
			if mode == scriptNormal {
				p.emitText(ReplaceNulls(span))
				return p.appropriateEndTagParser()
			}
			mode = scriptEscaped
		case s.StartsWith("<!", false):
			mode = scriptEscaped
		case s.StartsWith("<", false):
			mode = scriptDoubleEscaped
		default:
			mode = scriptNormal
		}
		p.emitText(ReplaceNulls(span + s.ReadUntil(Position(end))))
	}
}

// scriptMarkers matches the next marker that changes the script data mode:
// "</script" in normal and double escaped mode, "<!--" in normal mode,
// "<script" in escaped mode and a run of two or more dashes followed by ">"
// in either escaped mode. Tag markers include their terminator.
type scriptMarkers struct {
	mode scriptDataMode
}

// Index implements Pattern.
func (m scriptMarkers) Index(s string, from int) (int, int) {
	for from < len(s) {
		i := strings.IndexAny(s[from:], "<-")
		if i < 0 {
			break
		}
		i += from

		if s[i] == '-' {
			j := i
			for j < len(s) && s[j] == '-' {
				j++
			}
			if m.mode != scriptNormal && j-i >= 2 && j < len(s) && s[j] == '>' {
				return i, j + 1
			}
			from = j
			continue
		}

		switch m.mode {
		case scriptNormal:
			if end, ok := matchTagMarker(s, i, "</script"); ok {
				return i, end
			}
			if end, ok := matchEscapeStart(s, i); ok {
				return i, end
			}
		case scriptEscaped:
			if end, ok := matchTagMarker(s, i, "<script"); ok {
				return i, end
			}
		case scriptDoubleEscaped:
			if end, ok := matchTagMarker(s, i, "</script"); ok {
				return i, end
			}
		}
		from = i + 1
	}
	return -1, -1
}

// matchTagMarker matches prefix case-insensitively at i followed by a tag
// name terminator, which is included in the match.
func matchTagMarker(s string, i int, prefix string) (int, bool) {
	end := i + len(prefix)
	if end >= len(s) || !asciiEqualFold(s[i:end], prefix) {
		return 0, false
	}
	if !tagNameTerminators.has(s[end]) {
		return 0, false
	}
	return end + 1, true
}

// matchEscapeStart matches "<!--" and any further dashes, unless the dashes
// are directly followed by ">".
func matchEscapeStart(s string, i int) (int, bool) {
	if !strings.HasPrefix(s[i:], "<!--") {
		return 0, false
	}
	j := i + len("<!--")
	for j < len(s) && s[j] == '-' {
		j++
	}
	if j < len(s) && s[j] == '>' {
		return 0, false
	}
	return j, true
}
