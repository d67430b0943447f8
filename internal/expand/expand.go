// Package expand implements multi-pass wildcard expansion.
//
// Expansion is textual. Each pass scans the current text for <...> tokens and
// substitutes them left to right; text produced by a pass is only rescanned
// by the next pass. Passes stop early once a pass changes nothing.
//
// Tokens with a variable id (<color:1>) are bound: the first occurrence draws
// a line, expands it completely in a nested scope, and every later occurrence
// of the same (key group, id) in the same scope reuses that result. The
// implementation adds guardrails that are easy to unit test:
//   - a cycle guard shared across nested scopes
//   - a maximum nesting depth
//
// Both fall back to the raw chosen line instead of failing.
package expand

import (
	"fmt"
	"strings"

	"wildgold/internal/logging"
	"wildgold/internal/random"
	"wildgold/internal/token"
	"wildgold/internal/vocab"
)

// DefaultMaxDepth bounds nested expansion when Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// MissingPolicy decides what happens to a token none of whose keys exist.
type MissingPolicy string

const (
	// MissingKeep leaves the token text in place.
	MissingKeep MissingPolicy = "keep"
	// MissingEmpty replaces the token with nothing.
	MissingEmpty MissingPolicy = "empty"
	// MissingError aborts the whole expansion.
	MissingError MissingPolicy = "error"
)

// ParseMissingPolicy validates a policy name.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(s) {
	case MissingKeep, MissingEmpty, MissingError:
		return MissingPolicy(s), nil
	}
	return "", fmt.Errorf("unknown missing policy %q (want keep, empty or error)", s)
}

// MissingKeyError reports an unresolved token under MissingError.
type MissingKeyError struct {
	// Token is the raw inner text of the token.
	Token string
	// Searched lists the vocabulary files that were looked for.
	Searched []string
}

func (e *MissingKeyError) Error() string {
	looked := "(empty token)"
	if len(e.Searched) > 0 {
		quoted := make([]string, len(e.Searched))
		for i, f := range e.Searched {
			quoted[i] = "'" + f + "'"
		}
		looked = strings.Join(quoted, ", ")
	}
	return fmt.Sprintf("wildcard <%s> not found (looked for %s)", e.Token, looked)
}

// Options controls a single expansion call.
type Options struct {
	// MaxPasses bounds the pass loop of every scope; values below 1 mean 1.
	MaxPasses int
	Policy    MissingPolicy
	// MaxDepth bounds nested scopes. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Result is the outcome of an expansion call.
type Result struct {
	Text string
	// Passes counts top-level passes that ran.
	Passes int
	// Substitutions counts every substituted token across all scopes.
	Substitutions int
	// CycleBreaks counts bound tokens that fell back to their raw line
	// because the binding was already being expanded.
	CycleBreaks int
	// DepthBreaks counts bound tokens that fell back to their raw line at
	// the depth ceiling.
	DepthBreaks int
}

// call is the state threaded through one top-level expansion and all of its
// nested scopes.
type call struct {
	mapping   vocab.Mapping
	src       *random.Source
	policy    MissingPolicy
	maxPasses int
	maxDepth  int
	// inProgress is the cycle guard: bindings whose nested expansion has not
	// finished yet.
	inProgress map[token.Binding]struct{}
	result     Result
}

// Expand expands template against mapping, drawing from src. The same
// template, mapping, options and source seed always produce the same text.
func Expand(template string, mapping vocab.Mapping, src *random.Source, opts Options) (Result, error) {
	if !token.HasTokens(template) {
		return Result{Text: template, Passes: 1}, nil
	}
	c := &call{
		mapping:    mapping,
		src:        src,
		policy:     opts.Policy,
		maxPasses:  max(1, opts.MaxPasses),
		maxDepth:   opts.MaxDepth,
		inProgress: make(map[token.Binding]struct{}),
	}
	if c.policy == "" {
		c.policy = MissingKeep
	}
	if c.maxDepth <= 0 {
		c.maxDepth = DefaultMaxDepth
	}

	text, err := c.expandScope(template, 0)
	if err != nil {
		return Result{}, err
	}
	c.result.Text = text
	return c.result, nil
}

// expandScope runs the pass loop over text with a fresh binding table.
func (c *call) expandScope(text string, depth int) (string, error) {
	bindings := make(map[token.Binding]string)
	for i := 0; i < c.maxPasses; i++ {
		next, changed, err := c.pass(text, bindings, depth)
		if err != nil {
			return "", err
		}
		text = next
		if depth == 0 {
			c.result.Passes++
		}
		if !changed {
			break
		}
	}
	return text, nil
}

// pass substitutes every token of text once, left to right.
func (c *call) pass(text string, bindings map[token.Binding]string, depth int) (string, bool, error) {
	spans := token.Scan(text)
	var b strings.Builder
	b.Grow(len(text))

	changed := false
	for _, span := range spans {
		if span.Kind == token.KindLiteral {
			b.WriteString(span.Text)
			continue
		}
		out, sub, err := c.resolve(span, bindings, depth)
		if err != nil {
			return "", false, err
		}
		if sub {
			changed = true
			c.result.Substitutions++
		}
		b.WriteString(out)
	}
	return b.String(), changed, nil
}

// resolve produces the replacement for one token occurrence and reports
// whether it counts as a substitution.
func (c *call) resolve(span token.Span, bindings map[token.Binding]string, depth int) (string, bool, error) {
	tok := token.Parse(span.Inner)

	if tok.Bound() {
		if cached, ok := bindings[tok.Binding()]; ok {
			return cached, true, nil
		}
	}

	var existing []string
	for _, k := range tok.Keys {
		if c.mapping.Has(k) {
			existing = append(existing, k)
		}
	}

	if len(existing) == 0 {
		switch c.policy {
		case MissingEmpty:
			return "", true, nil
		case MissingError:
			return "", false, &MissingKeyError{Token: tok.Raw, Searched: tok.Filenames()}
		default:
			return span.Text, false, nil
		}
	}

	key := random.Choice(c.src, existing)
	line := random.Choice(c.src, c.mapping[key])

	if !tok.Bound() {
		return line, true, nil
	}

	bind := tok.Binding()
	if _, busy := c.inProgress[bind]; busy {
		logging.ExpandDebug("cycle on <%s:%s> at depth %d, using raw line", bind.Group, bind.Var, depth)
		c.result.CycleBreaks++
		bindings[bind] = line
		return line, true, nil
	}
	if depth >= c.maxDepth {
		logging.ExpandDebug("depth ceiling %d reached on <%s:%s>, using raw line", c.maxDepth, bind.Group, bind.Var)
		c.result.DepthBreaks++
		bindings[bind] = line
		return line, true, nil
	}

	c.inProgress[bind] = struct{}{}
	expanded, err := c.expandScope(line, depth+1)
	delete(c.inProgress, bind)
	if err != nil {
		return "", false, err
	}

	bindings[bind] = expanded
	return expanded, true, nil
}
