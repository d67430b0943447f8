// Package token scans templates for <...> wildcard spans and parses their
// inner text into candidate vocabulary keys and an optional variable id.
//
// Span syntax:
//
//	<color>            one key
//	<object|person>    pick one of several keys
//	<obj/person:2>     key by relative path, bound to variable 2
//
// Parsing never fails. An inner text with no usable keys yields a Token with
// an empty Keys slice and an empty GroupID.
package token

import (
	"regexp"
	"strings"
)

// spanPattern matches a wildcard span. The inner character class is the full
// token alphabet: letters, digits, '_', '-', '.', '/', '|', ':' and blanks.
// Padding around the inner text may be any Unicode whitespace, including
// vertical tab, the information separators U+001C..U+001F, NEL and the
// Z categories. RE2's \s alone covers only ASCII blanks.
var spanPattern = regexp.MustCompile(`<` + padding + `([A-Za-z0-9_\-./|: \t]+?)` + padding + `>`)

const padding = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]*`

// Kind distinguishes literal text from wildcard tokens in a scanned template.
type Kind int

const (
	KindLiteral Kind = iota
	KindToken
)

// Span is one contiguous piece of a scanned template.
type Span struct {
	Kind Kind
	// Text is the exact source text, including the angle brackets for tokens.
	Text string
	// Inner is the captured inner text of a token span (untrimmed capture).
	Inner string
}

// Scan splits text into an ordered sequence of literal and token spans.
// Concatenating every Span.Text reproduces the input.
func Scan(text string) []Span {
	matches := spanPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Span{{Kind: KindLiteral, Text: text}}
	}

	spans := make([]Span, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > last {
			spans = append(spans, Span{Kind: KindLiteral, Text: text[last:start]})
		}
		spans = append(spans, Span{
			Kind:  KindToken,
			Text:  text[start:end],
			Inner: text[m[2]:m[3]],
		})
		last = end
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: KindLiteral, Text: text[last:]})
	}
	return spans
}

// HasTokens reports whether text contains at least one wildcard span.
func HasTokens(text string) bool {
	return spanPattern.MatchString(text)
}

// Token is a parsed wildcard span.
type Token struct {
	// Raw is the inner text as captured from the template.
	Raw string
	// Keys are the candidate vocabulary keys: trimmed, lowercased,
	// deduplicated, in first-seen order.
	Keys []string
	// VarID is the decimal variable id, or "" when the token is unbound.
	VarID string
}

// Parse parses the inner text of a wildcard span.
func Parse(inner string) Token {
	keysPart, varID := splitVar(inner)
	return Token{
		Raw:   inner,
		Keys:  splitKeys(keysPart),
		VarID: varID,
	}
}

// Bound reports whether the token carries a variable id.
func (t Token) Bound() bool {
	return t.VarID != ""
}

// GroupID joins the candidate keys with '|' in parsed order.
func (t Token) GroupID() string {
	return strings.Join(t.Keys, "|")
}

// Binding returns the binding key of a bound token.
func (t Token) Binding() Binding {
	return Binding{Group: t.GroupID(), Var: t.VarID}
}

// Filenames renders each candidate key as the vocabulary file it would be
// loaded from.
func (t Token) Filenames() []string {
	out := make([]string, len(t.Keys))
	for i, k := range t.Keys {
		out[i] = k + ".txt"
	}
	return out
}

// Binding identifies one (key group, variable id) pair.
type Binding struct {
	Group string
	Var   string
}

// splitVar splits trimmed inner text on its last ':' when the suffix is all
// decimal digits. Otherwise the whole text is the keys part.
func splitVar(inner string) (keysPart, varID string) {
	raw := strings.TrimSpace(inner)
	i := strings.LastIndexByte(raw, ':')
	if i < 0 {
		return raw, ""
	}
	suffix := strings.TrimSpace(raw[i+1:])
	if !isDigits(suffix) {
		return raw, ""
	}
	return strings.TrimSpace(raw[:i]), suffix
}

func splitKeys(keysPart string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, piece := range strings.Split(keysPart, "|") {
		k := strings.ToLower(strings.TrimSpace(piece))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
