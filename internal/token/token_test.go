package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kinds  []Kind
		inners []string
	}{
		{name: "empty", input: ""},
		{name: "no tokens", input: "plain text", kinds: []Kind{KindLiteral}},
		{
			name:   "single token",
			input:  "<color>",
			kinds:  []Kind{KindToken},
			inners: []string{"color"},
		},
		{
			name:   "surrounded",
			input:  "a <color> cat",
			kinds:  []Kind{KindLiteral, KindToken, KindLiteral},
			inners: []string{"color"},
		},
		{
			name:   "adjacent tokens",
			input:  "<a><b|c:2>",
			kinds:  []Kind{KindToken, KindToken},
			inners: []string{"a", "b|c:2"},
		},
		{
			name:   "padding is outside the capture",
			input:  "< obj/person >",
			kinds:  []Kind{KindToken},
			inners: []string{"obj/person"},
		},
		{
			name:   "vertical tab and separators pad",
			input:  "<\vcolor\x1c> <\x1fshape\x0b>",
			kinds:  []Kind{KindToken, KindLiteral, KindToken},
			inners: []string{"color", "shape"},
		},
		{
			name:   "unicode spaces pad",
			input:  "<\u00a0color\u0085> <\u3000a|b:1\u2028>",
			kinds:  []Kind{KindToken, KindLiteral, KindToken},
			inners: []string{"color", "a|b:1"},
		},
		{
			name:  "disallowed characters are literal",
			input: "<a,b> <>",
			kinds: []Kind{KindLiteral},
		},
		{
			name:   "unclosed then closed",
			input:  "<a <b>",
			kinds:  []Kind{KindLiteral, KindToken},
			inners: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Scan(tt.input)

			var rebuilt strings.Builder
			var kinds []Kind
			var inners []string
			for _, s := range spans {
				rebuilt.WriteString(s.Text)
				kinds = append(kinds, s.Kind)
				if s.Kind == KindToken {
					inners = append(inners, s.Inner)
				}
			}

			assert.Equal(t, tt.input, rebuilt.String())
			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, tt.inners, inners)
		})
	}
}

func TestScan_BlankInner(t *testing.T) {
	spans := Scan("<   >")
	require.Len(t, spans, 1)
	assert.Equal(t, KindToken, spans[0].Kind)

	tok := Parse(spans[0].Inner)
	assert.Empty(t, tok.Keys)
	assert.Equal(t, "", tok.GroupID())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		keys  []string
		varID string
	}{
		{name: "simple", inner: "color", keys: []string{"color"}},
		{name: "lowercased", inner: "Color", keys: []string{"color"}},
		{name: "alternatives", inner: "object | person", keys: []string{"object", "person"}},
		{name: "dedup keeps first", inner: "a|B|b|a", keys: []string{"a", "b"}},
		{name: "empty pieces dropped", inner: "a||b|", keys: []string{"a", "b"}},
		{name: "variable", inner: "color:1", keys: []string{"color"}, varID: "1"},
		{name: "variable with spaces", inner: "object|person : 12", keys: []string{"object", "person"}, varID: "12"},
		{name: "last colon wins", inner: "a:b:3", keys: []string{"a:b"}, varID: "3"},
		{name: "non numeric suffix", inner: "a:b", keys: []string{"a:b"}},
		{name: "empty suffix", inner: "a:", keys: []string{"a:"}},
		{name: "path key", inner: "obj/person", keys: []string{"obj/person"}},
		{name: "only variable", inner: ":3", varID: "3"},
		{name: "only blanks", inner: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Parse(tt.inner)
			assert.Equal(t, tt.keys, tok.Keys)
			assert.Equal(t, tt.varID, tok.VarID)
			assert.Equal(t, tt.varID != "", tok.Bound())
			assert.Equal(t, tt.inner, tok.Raw)
		})
	}
}

func TestToken_Binding(t *testing.T) {
	tok := Parse("Object|person:2")
	assert.Equal(t, "object|person", tok.GroupID())
	assert.Equal(t, Binding{Group: "object|person", Var: "2"}, tok.Binding())
	assert.Equal(t, []string{"object.txt", "person.txt"}, tok.Filenames())
}

func TestHasTokens(t *testing.T) {
	assert.True(t, HasTokens("x <y> z"))
	assert.False(t, HasTokens("x y z"))
	assert.False(t, HasTokens("a < b, c > d"))
}
