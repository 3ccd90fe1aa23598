package query

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokPhrase
	tokWildcard
	tokField
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string // term text, wildcard pattern, or raw literal
	words []string
	field string // canonical field name for tokField
	value string
}

// Parse parses an advanced search query. Boolean operators, parentheses,
// quoted phrases, field prefixes and wildcards are all recognized.
// Syntax errors never propagate: the result degrades to an AND of the
// recognizable tokens with HasErrors set.
func Parse(raw string) *Parsed {
	p := &Parsed{Original: raw, FieldFilters: map[string][]string{}}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return p
	}

	tokens, scanErr := scan(trimmed)
	if scanErr == "" {
		tree, parseErr := parseTokens(tokens)
		if parseErr == "" {
			p.Tree = tree
			collectFilters(p)
			return p
		}
		scanErr = parseErr
	}

	p.HasErrors = true
	p.ErrorMessage = scanErr
	p.Tree = fallbackTree(tokens)
	collectFilters(p)
	return p
}

// ParseFreeText treats the whole input as plain free text: no operators,
// no field prefixes, no wildcards. Words are combined with implicit AND.
func ParseFreeText(raw string) *Parsed {
	p := &Parsed{Original: raw, FieldFilters: map[string][]string{}}

	var tree Expr
	for _, w := range strings.Fields(raw) {
		w = strings.Map(dropWildcardChars, w)
		if w == "" {
			continue
		}
		tree = conjoin(tree, &Term{Text: w})
	}
	p.Tree = tree
	return p
}

func dropWildcardChars(r rune) rune {
	if r == '*' || r == '?' {
		return -1
	}
	return r
}

// scan tokenizes the input. Returns a non-empty message on lexical errors
// (currently only unterminated quotes); the tokens gathered so far are
// still returned for fallback use.
func scan(s string) ([]token, string) {
	var tokens []token
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen})
			i++
		case r == '"':
			words, next, ok := scanQuoted(runes, i)
			if !ok {
				if len(words) > 0 {
					tokens = append(tokens, token{kind: tokPhrase, words: words})
				}
				return tokens, "unterminated quote"
			}
			i = next
			if len(words) > 0 {
				tokens = append(tokens, token{kind: tokPhrase, words: words})
			}
		default:
			tok, next := scanWord(runes, i)
			i = next
			tokens = append(tokens, tok)
		}
	}
	return tokens, ""
}

// scanQuoted reads a double-quoted phrase starting at the opening quote.
// On a missing closing quote the words up to end of input are still
// returned so the caller can salvage them.
func scanQuoted(runes []rune, start int) (words []string, next int, ok bool) {
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == '"' {
			return strings.Fields(string(runes[start+1 : j])), j + 1, true
		}
	}
	return strings.Fields(string(runes[start+1:])), len(runes), false
}

// scanWord reads a bare word and classifies it: operator, field prefix,
// wildcard, or plain term. A field prefix with a quoted value
// (buyer:"Public Works") consumes the quoted part too.
func scanWord(runes []rune, start int) (token, int) {
	j := start
	for j < len(runes) && !unicode.IsSpace(runes[j]) && runes[j] != '(' && runes[j] != ')' && runes[j] != '"' {
		j++
	}
	word := string(runes[start:j])

	// field:"quoted value"
	if j < len(runes) && runes[j] == '"' && strings.HasSuffix(word, ":") {
		if name, ok := CanonicalField(word[:len(word)-1]); ok {
			words, next, qok := scanQuoted(runes, j)
			if qok {
				return token{kind: tokField, field: name, value: strings.Join(words, " ")}, next
			}
		}
	}

	switch strings.ToUpper(word) {
	case "AND":
		return token{kind: tokAnd}, j
	case "OR":
		return token{kind: tokOr}, j
	case "NOT":
		return token{kind: tokNot}, j
	}

	if name, value, ok := splitFieldPrefix(word); ok {
		return token{kind: tokField, field: name, value: value}, j
	}

	if strings.ContainsAny(word, "*?") {
		return token{kind: tokWildcard, text: word}, j
	}
	return token{kind: tokTerm, text: word}, j
}

// splitFieldPrefix recognizes name:value where name is on the field
// allow-list. Anything else stays literal text.
func splitFieldPrefix(word string) (name, value string, ok bool) {
	idx := strings.IndexByte(word, ':')
	if idx <= 0 || idx == len(word)-1 {
		return "", "", false
	}
	canonical, known := CanonicalField(word[:idx])
	if !known {
		return "", "", false
	}
	return canonical, word[idx+1:], true
}

// parser is a recursive-descent parser over the token stream.
// Grammar (precedence low to high):
//
//	or   := and (OR and)*
//	and  := not ((AND)? not)*
//	not  := NOT not | atom
//	atom := '(' or ')' | term | phrase | wildcard | field
type parser struct {
	tokens []token
	pos    int
	err    string
}

func parseTokens(tokens []token) (Expr, string) {
	if len(tokens) == 0 {
		return nil, ""
	}
	pr := &parser{tokens: tokens}
	tree := pr.parseOr()
	if pr.err != "" {
		return nil, pr.err
	}
	if pr.pos < len(pr.tokens) {
		if pr.tokens[pr.pos].kind == tokRParen {
			return nil, "unmatched closing parenthesis"
		}
		return nil, "unexpected trailing input"
	}
	return tree, ""
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseOr() Expr {
	left := p.parseAnd()
	for p.err == "" {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			break
		}
		p.pos++
		right := p.parseAnd()
		if p.err != "" {
			return nil
		}
		left = &Or{X: left, Y: right}
	}
	return left
}

func (p *parser) parseAnd() Expr {
	left := p.parseNot()
	for p.err == "" {
		t, ok := p.peek()
		if !ok {
			break
		}
		switch t.kind {
		case tokAnd:
			p.pos++
		case tokOr, tokRParen:
			return left
		}
		// implicit AND between adjacent atoms
		right := p.parseNot()
		if p.err != "" {
			return nil
		}
		left = &And{X: left, Y: right}
	}
	return left
}

func (p *parser) parseNot() Expr {
	t, ok := p.peek()
	if !ok {
		p.fail("dangling operator at end of query")
		return nil
	}
	if t.kind == tokNot {
		p.pos++
		inner := p.parseNot()
		if p.err != "" {
			return nil
		}
		return &Not{X: inner}
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() Expr {
	t, ok := p.peek()
	if !ok {
		p.fail("dangling operator at end of query")
		return nil
	}
	switch t.kind {
	case tokLParen:
		p.pos++
		inner := p.parseOr()
		if p.err != "" {
			return nil
		}
		t, ok = p.peek()
		if !ok || t.kind != tokRParen {
			p.fail("unmatched opening parenthesis")
			return nil
		}
		p.pos++
		return inner
	case tokTerm:
		p.pos++
		return &Term{Text: t.text}
	case tokPhrase:
		p.pos++
		return &Phrase{Words: t.words}
	case tokWildcard:
		p.pos++
		return &Wildcard{Pattern: t.text}
	case tokField:
		p.pos++
		return &Field{Name: t.field, Value: t.value}
	case tokAnd, tokOr:
		p.fail("operator without operand")
		return nil
	case tokRParen:
		p.fail("unmatched closing parenthesis")
		return nil
	}
	p.fail("unexpected token")
	return nil
}

func (p *parser) fail(msg string) {
	if p.err == "" {
		p.err = msg
	}
}

// fallbackTree builds a best-effort AND chain from whatever atoms the
// scanner produced, dropping operators and parentheses.
func fallbackTree(tokens []token) Expr {
	var tree Expr
	for _, t := range tokens {
		switch t.kind {
		case tokTerm:
			tree = conjoin(tree, &Term{Text: t.text})
		case tokPhrase:
			tree = conjoin(tree, &Phrase{Words: t.words})
		case tokWildcard:
			tree = conjoin(tree, &Wildcard{Pattern: t.text})
		case tokField:
			tree = conjoin(tree, &Field{Name: t.field, Value: t.value})
		}
	}
	return tree
}

func conjoin(tree, atom Expr) Expr {
	if tree == nil {
		return atom
	}
	return &And{X: tree, Y: atom}
}

// collectFilters fills FieldFilters and Wildcards from the tree.
// Comma-separated field values expand to multiple filter values.
func collectFilters(p *Parsed) {
	walk(p.Tree, func(e Expr) {
		switch v := e.(type) {
		case *Field:
			for _, part := range strings.Split(v.Value, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					p.FieldFilters[v.Name] = append(p.FieldFilters[v.Name], part)
				}
			}
		case *Wildcard:
			p.Wildcards = append(p.Wildcards, strings.ToLower(v.Pattern))
		}
	})
}

func walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch v := e.(type) {
	case *Not:
		walk(v.X, fn)
	case *And:
		walk(v.X, fn)
		walk(v.Y, fn)
	case *Or:
		walk(v.X, fn)
		walk(v.Y, fn)
	}
}
