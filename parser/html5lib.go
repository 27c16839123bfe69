package parser

import "strings"

// ToTestToken converts a token to the shape used by the html5lib tokenizer
// tests, e.g. ["StartTag", "a", {"href": "x"}, true].
func ToTestToken(t Token) []any {
	switch t := t.(type) {
	case Text:
		return []any{"Character", t.Data}
	case StartTag:
		attrs := make(map[string]any, t.Attrs.Len())
		for name, value := range t.Attrs.All() {
			attrs[name] = value
		}
		if t.SelfClosing {
			return []any{"StartTag", t.Name, attrs, true}
		}
		return []any{"StartTag", t.Name, attrs}
	case EndTag:
		return []any{"EndTag", t.Name}
	case Comment:
		return []any{"Comment", t.Data}
	case Doctype:
		return []any{"DOCTYPE", t.Data, nil, nil, true}
	}
	return nil
}

// ToTestTokens converts tokens and merges adjacent character tokens.
func ToTestTokens(tokens []Token) [][]any {
	out := make([][]any, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, ToTestToken(t))
	}
	return CoalesceCharacters(out)
}

// CoalesceCharacters merges runs of adjacent Character tokens in place and
// returns the shortened slice.
func CoalesceCharacters(tokens [][]any) [][]any {
	out := tokens[:0]
	var run strings.Builder
	inRun := false
	for _, t := range tokens {
		if isCharacter(t) {
			run.WriteString(t[1].(string))
			inRun = true
			continue
		}
		if inRun {
			out = append(out, []any{"Character", run.String()})
			run.Reset()
			inRun = false
		}
		out = append(out, t)
	}
	if inRun {
		out = append(out, []any{"Character", run.String()})
	}
	return out
}

func isCharacter(t []any) bool {
	return len(t) == 2 && t[0] == "Character"
}
