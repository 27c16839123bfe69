package parser

import (
	"fmt"
	"iter"
	"strings"
)

// TokenType identifies the concrete type of a Token.
type TokenType uint

const (
	TextToken TokenType = iota
	StartTagToken
	EndTagToken
	CommentToken
	DoctypeToken
)

func (t TokenType) String() string {
	switch t {
	case TextToken:
		return "Text"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case CommentToken:
		return "Comment"
	case DoctypeToken:
		return "Doctype"
	}
	return fmt.Sprintf("TokenType(%d)", uint(t))
}

// Token is a lexical token emitted by the tokenizer. It is implemented by
// Text, StartTag, EndTag, Comment and Doctype.
type Token interface {
	Type() TokenType
	String() string
	token()
}

// Text is decoded character data.
type Text struct {
	Data string
}

// StartTag is an opening tag like <a href="x">.
type StartTag struct {
	Name        string
	Attrs       Attributes
	SelfClosing bool
}

// EndTag is a closing tag. Attributes written on an end tag are parsed and
// dropped.
type EndTag struct {
	Name string
}

// Comment holds the cleaned interior of a comment, a bogus comment or a
// CDATA section.
type Comment struct {
	Data string
}

// Doctype holds everything between the doctype keyword and the closing >.
type Doctype struct {
	Data string
}

func (Text) Type() TokenType     { return TextToken }
func (StartTag) Type() TokenType { return StartTagToken }
func (EndTag) Type() TokenType   { return EndTagToken }
func (Comment) Type() TokenType  { return CommentToken }
func (Doctype) Type() TokenType  { return DoctypeToken }

func (Text) token()     {}
func (StartTag) token() {}
func (EndTag) token()   {}
func (Comment) token()  {}
func (Doctype) token()  {}

func (t Text) String() string {
	return t.Data
}

func (t StartTag) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(t.Name)
	for name, value := range t.Attrs.All() {
		fmt.Fprintf(&b, " %s=%q", name, value)
	}
	if t.SelfClosing {
		b.WriteString(" /")
	}
	b.WriteByte('>')
	return b.String()
}

func (t EndTag) String() string {
	return "</" + t.Name + ">"
}

func (t Comment) String() string {
	return "<!--" + t.Data + "-->"
}

func (t Doctype) String() string {
	return "<!DOCTYPE" + t.Data + ">"
}

// Attribute is a single name/value pair of a start tag.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an ordered set of attributes with unique names. The zero
// value is empty and ready to use.
type Attributes struct {
	list  []Attribute
	index map[string]int
}

// NewAttributes builds an attribute set from pairs, keeping the first value
// of a repeated name.
func NewAttributes(attrs ...Attribute) Attributes {
	var a Attributes
	for _, attr := range attrs {
		a.add(attr.Name, attr.Value)
	}
	return a
}

// add stores the attribute unless its name is already present.
func (a *Attributes) add(name, value string) bool {
	if a.Has(name) {
		return false
	}
	if a.index == nil {
		a.index = make(map[string]int)
	}
	a.index[name] = len(a.list)
	a.list = append(a.list, Attribute{Name: name, Value: value})
	return true
}

// Len is the number of attributes.
func (a Attributes) Len() int {
	return len(a.list)
}

// Has reports whether an attribute called name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.index[name]
	return ok
}

// Get returns the value of the attribute called name.
func (a Attributes) Get(name string) (string, bool) {
	i, ok := a.index[name]
	if !ok {
		return "", false
	}
	return a.list[i].Value, true
}

// Names returns attribute names in document order.
func (a Attributes) Names() []string {
	names := make([]string, len(a.list))
	for i, attr := range a.list {
		names[i] = attr.Name
	}
	return names
}

// All iterates over attributes in document order.
func (a Attributes) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, attr := range a.list {
			if !yield(attr.Name, attr.Value) {
				return
			}
		}
	}
}

// Map copies the attributes into a map.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a.list))
	for _, attr := range a.list {
		m[attr.Name] = attr.Value
	}
	return m
}

// Equal reports whether both sets hold the same attributes in the same
// order.
func (a Attributes) Equal(b Attributes) bool {
	if len(a.list) != len(b.list) {
		return false
	}
	for i := range a.list {
		if a.list[i] != b.list[i] {
			return false
		}
	}
	return true
}

// attributeSink receives parsed attributes.
type attributeSink interface {
	commit(name, value string)
}

// discardSink swallows attributes that are parsed only to keep the cursor in
// the right place: duplicates on a start tag and everything on an end tag.
type discardSink struct {
	committed int
}

func (d *discardSink) commit(string, string) {
	d.committed++
}

// tagBuilder collects a tag while its attribute list is parsed.
type tagBuilder struct {
	name        string
	endTag      bool
	attrs       Attributes
	selfClosing bool
	discard     *discardSink
}

func newStartTagBuilder(name string, discard *discardSink) *tagBuilder {
	return &tagBuilder{name: name, discard: discard}
}

func newEndTagBuilder(name string, discard *discardSink) *tagBuilder {
	return &tagBuilder{name: name, endTag: true, discard: discard}
}

// sinkFor picks where the attribute called name goes. Only the first
// occurrence of a name on a start tag is kept.
func (t *tagBuilder) sinkFor(name string) attributeSink {
	if t.endTag || t.attrs.Has(name) {
		return t.discard
	}
	return t
}

func (t *tagBuilder) commit(name, value string) {
	t.attrs.add(name, value)
}

// Token creates the tag token from the builder contents.
func (t *tagBuilder) Token() Token {
	if t.endTag {
		return EndTag{Name: t.name}
	}
	return StartTag{Name: t.name, Attrs: t.attrs, SelfClosing: t.selfClosing}
}
