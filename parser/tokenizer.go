package parser

import (
	"iter"
	"math"
	"regexp"

	"github.com/sirupsen/logrus"
)

var (
	notWhitespace        = NoneOf(" \t\n\f")
	tagNameTerminators   = newByteSet("/> \t\n\f", false)
	attrNameTerminators  = AnyOf("=/> \t\n\f")
	attrValueTerminators = AnyOf("> \t\n\f")
	tagClose             = Literal(">")
	cdataEnd             = Literal("]]>")
	endOfFile            = Position(math.MaxInt)

	// a comment closes at the first -- followed by > or !>, or at a
	// trailing -, -- or --! at the end of input.
	commentEnd = Regexp(regexp.MustCompile(`--?$|--!?(?:>|$)`))
)

var rcDataElements = map[string]bool{
	"title":    true,
	"textarea": true,
}

var rawTextElements = map[string]bool{
	"iframe":   true,
	"noembed":  true,
	"noframes": true,
	"noscript": true,
	"style":    true,
	"xmp":      true,
}

// Emitter receives tokens in document order.
type Emitter func(Token)

// HTMLTokenizer turns one complete document into tokens. It is meant to be
// used once; create a new one for every document.
type HTMLTokenizer struct {
	scanner      *Scanner
	emitter      Emitter
	currentState tokenizerState
	// lastStartTagName is the tag that switched the content model away from
	// data, its end tag is the one that switches it back.
	lastStartTagName string
	discard          discardSink
	stopped          bool

	log   *logrus.Entry
	trace bool
}

// NewHTMLTokenizer creates a tokenizer for input. The input is normalized
// and a leading byte order mark dropped.
func NewHTMLTokenizer(input string, opts ...Option) *HTMLTokenizer {
	cfg := newConfig(opts)
	s := NewScanner(NormalizeInput(input))
	if s.StartsWith(BOM, false) {
		s.Skip(len(BOM))
	}
	return &HTMLTokenizer{
		scanner:      s,
		currentState: dataState,
		log:          cfg.log,
		trace:        cfg.log.Logger.IsLevelEnabled(logrus.TraceLevel),
	}
}

// Tokenize runs the tokenizer to the end of input, handing every token to
// emit as soon as it is complete.
func (p *HTMLTokenizer) Tokenize(emit Emitter) {
	p.emitter = emit
	for p.currentState != eofState && !p.stopped {
		if p.trace {
			p.log.WithFields(logrus.Fields{
				"state": p.currentState,
				"pos":   p.scanner.Pos(),
			}).Trace("[TOKEN] state transition")
		}
		p.currentState = p.stateToParser(p.currentState)()
	}
}

// Offset is the position of the tokenizer in the normalized input.
func (p *HTMLTokenizer) Offset() int {
	return p.scanner.Pos()
}

// Tokenize tokenizes input, calling emit synchronously for every token.
func Tokenize(input string, emit Emitter, opts ...Option) {
	NewHTMLTokenizer(input, opts...).Tokenize(emit)
}

// TokenizeAll tokenizes input and collects the tokens.
func TokenizeAll(input string, opts ...Option) []Token {
	var tokens []Token
	Tokenize(input, func(t Token) {
		tokens = append(tokens, t)
	}, opts...)
	return tokens
}

// Tokens returns an iterator over the tokens of input. Tokenizing stops
// when the consumer stops iterating.
func Tokens(input string, opts ...Option) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		p := NewHTMLTokenizer(input, opts...)
		p.Tokenize(func(t Token) {
			if !p.stopped && !yield(t) {
				p.stopped = true
			}
		})
	}
}

func (p *HTMLTokenizer) emit(t Token) {
	p.emitter(t)
}

func (p *HTMLTokenizer) emitText(data string) {
	if data != "" {
		p.emit(Text{Data: data})
	}
}

// a parserStateHandler consumes input for one state and returns the state to
// continue with.
type parserStateHandler func() tokenizerState

type tokenizerState uint

const (
	dataState tokenizerState = iota
	tagOpenState
	endTagOpenState
	rcDataState
	rawTextState
	scriptDataState
	plaintextState
	bogusCommentState
	markupDeclarationOpenState
	eofState
)

func (s tokenizerState) String() string {
	switch s {
	case dataState:
		return "data"
	case tagOpenState:
		return "tag open"
	case endTagOpenState:
		return "end tag open"
	case rcDataState:
		return "RCDATA"
	case rawTextState:
		return "RAWTEXT"
	case scriptDataState:
		return "script data"
	case plaintextState:
		return "PLAINTEXT"
	case bogusCommentState:
		return "bogus comment"
	case markupDeclarationOpenState:
		return "markup declaration open"
	case eofState:
		return "EOF"
	}
	return "unknown"
}

func (p *HTMLTokenizer) stateToParser(state tokenizerState) parserStateHandler {
	switch state {
	case dataState:
		return p.dataStateParser
	case tagOpenState:
		return p.tagOpenStateParser
	case endTagOpenState:
		return p.endTagOpenStateParser
	case rcDataState:
		return p.rcDataStateParser
	case rawTextState:
		return p.rawTextStateParser
	case scriptDataState:
		return p.scriptDataStateParser
	case plaintextState:
		return p.plaintextStateParser
	case bogusCommentState:
		return p.bogusCommentStateParser
	case markupDeclarationOpenState:
		return p.markupDeclarationOpenStateParser
	}
	return p.eofStateParser
}

func isASCIILetter(c string) bool {
	if len(c) != 1 {
		return false
	}
	b := c[0]
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func (p *HTMLTokenizer) eofStateParser() tokenizerState {
	return eofState
}

func (p *HTMLTokenizer) dataStateParser() tokenizerState {
	if text := p.scanner.ReadUntil(Literal("<")); text != "" {
		p.emit(Text{Data: DecodeNumericRefs(text)})
	}
	if p.scanner.Read() == "" {
		return eofState
	}
	return tagOpenState
}

func (p *HTMLTokenizer) tagOpenStateParser() tokenizerState {
	switch c := p.scanner.Peek(); {
	case isASCIILetter(c):
		name := CleanName(p.scanner.ReadUntil(tagNameTerminators))
		if !p.attributeListParser(newStartTagBuilder(name, &p.discard)) {
			return eofState
		}
		return p.contentModelFor(name)
	case c == "/":
		p.scanner.Skip(1)
		return endTagOpenState
	case c == "!":
		p.scanner.Skip(1)
		return markupDeclarationOpenState
	case c == "?":
		return bogusCommentState
	default:
		p.emit(Text{Data: "<"})
		return dataState
	}
}

func (p *HTMLTokenizer) endTagOpenStateParser() tokenizerState {
	switch c := p.scanner.Peek(); {
	case isASCIILetter(c):
		name := CleanName(p.scanner.ReadUntil(tagNameTerminators))
		p.attributeListParser(newEndTagBuilder(name, &p.discard))
		return dataState
	case c == ">":
		// </> is dropped
		p.scanner.Skip(1)
		return dataState
	case c != "":
		return bogusCommentState
	default:
		p.emit(Text{Data: "</"})
		return eofState
	}
}

// contentModelFor returns the state following the start tag called name.
func (p *HTMLTokenizer) contentModelFor(name string) tokenizerState {
	switch {
	case name == "plaintext":
		return plaintextState
	case name == "script":
		p.lastStartTagName = name
		return scriptDataState
	case rcDataElements[name]:
		p.lastStartTagName = name
		return rcDataState
	case rawTextElements[name]:
		p.lastStartTagName = name
		return rawTextState
	}
	return dataState
}

// attributeListParser parses attributes up to the end of the tag and emits
// it. It reports false when the input ended first, the tag is dropped then.
func (p *HTMLTokenizer) attributeListParser(tag *tagBuilder) bool {
	s := p.scanner
	for !s.IsEnd() {
		s.SkipUntil(notWhitespace)
		c := s.Read()
		switch c {
		case "":
			return false
		case ">":
			p.emit(tag.Token())
			return true
		case "/":
			if s.Peek() != ">" {
				continue
			}
			s.Skip(1)
			tag.selfClosing = true
			p.emit(tag.Token())
			return true
		}

		// the first character may be =
		name := CleanName(c + s.ReadUntil(attrNameTerminators))
		sink := tag.sinkFor(name)

		value := ""
		s.SkipUntil(notWhitespace)
		if s.Peek() == "=" {
			s.Skip(1)
			s.SkipUntil(notWhitespace)
			switch q := s.Peek(); q {
			case `"`, `'`:
				s.Skip(1)
				value = CleanAttrValue(s.ReadUntil(Literal(q)))
				s.Skip(1)
			case "":
			default:
				value = CleanAttrValue(s.ReadUntil(attrValueTerminators))
			}
		}
		sink.commit(name, value)
	}
	return false
}

func (p *HTMLTokenizer) rcDataStateParser() tokenizerState {
	return p.rawDataParser(CleanRCDATA)
}

func (p *HTMLTokenizer) rawTextStateParser() tokenizerState {
	return p.rawDataParser(ReplaceNulls)
}

// rawDataParser emits everything up to the end tag of the element that
// started the raw text and then parses that end tag.
func (p *HTMLTokenizer) rawDataParser(clean func(string) string) tokenizerState {
	start, _, ok := p.scanner.Search(EndTagOf(p.lastStartTagName))
	if !ok {
		p.emitText(clean(p.scanner.ReadUntil(endOfFile)))
		return eofState
	}
	p.emitText(clean(p.scanner.ReadUntil(Position(start))))
	return p.appropriateEndTagParser()
}

// appropriateEndTagParser is entered with the cursor on "</name" of the end
// tag that closes the current raw text element.
func (p *HTMLTokenizer) appropriateEndTagParser() tokenizerState {
	name := p.lastStartTagName
	p.lastStartTagName = ""
	p.scanner.Skip(len("</") + len(name))
	p.attributeListParser(newEndTagBuilder(name, &p.discard))
	return dataState
}

// plaintextStateParser consumes the rest of the input. PLAINTEXT can't be
// left once entered.
func (p *HTMLTokenizer) plaintextStateParser() tokenizerState {
	p.emitText(ReplaceNulls(p.scanner.ReadUntil(endOfFile)))
	return eofState
}

func (p *HTMLTokenizer) bogusCommentStateParser() tokenizerState {
	data := ReplaceNulls(p.scanner.ReadUntil(tagClose))
	p.emit(Comment{Data: data})
	p.scanner.Skip(1)
	return dataState
}

func (p *HTMLTokenizer) markupDeclarationOpenStateParser() tokenizerState {
	s := p.scanner
	switch {
	case s.StartsWith("--", false):
		s.Skip(2)
		p.commentParser()
	case s.StartsWith("[CDATA[", false):
		data := s.ReadUntil(cdataEnd)
		if !s.IsEnd() {
			data += "]]"
			s.Skip(len("]]>"))
		}
		p.emit(Comment{Data: ReplaceNulls(data)})
	case s.StartsWith("doctype", true):
		s.Skip(len("doctype"))
		data := s.ReadUntil(tagClose)
		s.Skip(1)
		p.emit(Doctype{Data: ReplaceNulls(data)})
	default:
		return bogusCommentState
	}
	return dataState
}

// commentParser is entered after "<!--".
func (p *HTMLTokenizer) commentParser() {
	s := p.scanner
	switch {
	case s.StartsWith(">", false):
		s.Skip(1)
		p.emit(Comment{})
	case s.StartsWith("->", false):
		s.Skip(2)
		p.emit(Comment{})
	default:
		start, end, ok := s.Search(commentEnd)
		if !ok {
			start, end = s.Len(), s.Len()
		}
		data := ReplaceNulls(s.ReadUntil(Position(start)))
		s.Skip(end - start)
		p.emit(Comment{Data: data})
	}
}
