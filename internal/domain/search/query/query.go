// Package query parses raw search strings into a boolean expression tree
// with field filters, phrases and wildcards. Parsing never fails hard:
// malformed input degrades to a best-effort free-text query with the
// problem recorded on the result.
package query

import (
	"strings"
)

// Canonical field filter names and their accepted prefixes. Unrecognized
// prefixes are kept as literal text rather than rejected.
var fieldAliases = map[string]string{
	"buyer":        FieldOrganization,
	"org":          FieldOrganization,
	"organization": FieldOrganization,
	"province":     FieldProvince,
	"naics":        FieldNAICS,
	"category":     FieldCategory,
	"source":       FieldSource,
	"ref":          FieldReference,
	"reference":    FieldReference,
}

// Canonical filterable fields, mirroring the document schema.
const (
	FieldOrganization = "organization"
	FieldProvince     = "province"
	FieldNAICS        = "naics"
	FieldCategory     = "category"
	FieldSource       = "source_name"
	FieldReference    = "reference"
)

// CanonicalField resolves a field prefix to its canonical name.
// ok is false for prefixes outside the allow-list.
func CanonicalField(name string) (string, bool) {
	f, ok := fieldAliases[strings.ToLower(name)]
	return f, ok
}

// Expr is a node in the boolean query tree.
type Expr interface {
	appendString(b *strings.Builder, parentPrec int)
}

// Operator precedence for minimal-parenthesis printing.
// NOT binds tighter than AND binds tighter than OR.
const (
	precOr = iota + 1
	precAnd
	precNot
	precAtom
)

// Term is a single free-text word.
type Term struct {
	Text string
}

// Phrase is a quoted multi-word token matched by adjacency.
type Phrase struct {
	Words []string
}

// Wildcard is a term containing * or ? pattern characters.
type Wildcard struct {
	Pattern string
}

// Field is a field:value filter clause.
type Field struct {
	Name  string // canonical field name
	Value string
}

// Not negates its operand.
type Not struct {
	X Expr
}

// And requires both operands. Adjacent atoms without an explicit operator
// parse into And as well.
type And struct {
	X, Y Expr
}

// Or requires either operand.
type Or struct {
	X, Y Expr
}

func (t *Term) appendString(b *strings.Builder, _ int) {
	b.WriteString(t.Text)
}

func (p *Phrase) appendString(b *strings.Builder, _ int) {
	b.WriteByte('"')
	b.WriteString(strings.Join(p.Words, " "))
	b.WriteByte('"')
}

func (w *Wildcard) appendString(b *strings.Builder, _ int) {
	b.WriteString(w.Pattern)
}

func (f *Field) appendString(b *strings.Builder, _ int) {
	b.WriteString(f.Name)
	b.WriteByte(':')
	if strings.ContainsAny(f.Value, " \t") {
		b.WriteByte('"')
		b.WriteString(f.Value)
		b.WriteByte('"')
	} else {
		b.WriteString(f.Value)
	}
}

func (n *Not) appendString(b *strings.Builder, parentPrec int) {
	wrapped := parentPrec > precNot
	if wrapped {
		b.WriteByte('(')
	}
	b.WriteString("NOT ")
	n.X.appendString(b, precNot)
	if wrapped {
		b.WriteByte(')')
	}
}

func (a *And) appendString(b *strings.Builder, parentPrec int) {
	wrapped := parentPrec > precAnd
	if wrapped {
		b.WriteByte('(')
	}
	a.X.appendString(b, precAnd)
	b.WriteString(" AND ")
	a.Y.appendString(b, precAnd)
	if wrapped {
		b.WriteByte(')')
	}
}

func (o *Or) appendString(b *strings.Builder, parentPrec int) {
	wrapped := parentPrec > precOr
	if wrapped {
		b.WriteByte('(')
	}
	o.X.appendString(b, precOr)
	b.WriteString(" OR ")
	o.Y.appendString(b, precOr)
	if wrapped {
		b.WriteByte(')')
	}
}

// Parsed is the structured result of parsing one raw query string.
// It is request-scoped and never persisted.
type Parsed struct {
	Original     string
	Tree         Expr // nil for an empty query
	FieldFilters map[string][]string
	Wildcards    []string
	HasErrors    bool
	ErrorMessage string
}

// String reconstructs a normalized query from the tree: explicit uppercase
// operators, minimal parentheses. Reparsing the output yields an
// equivalent tree.
func (p *Parsed) String() string {
	if p.Tree == nil {
		return ""
	}
	var b strings.Builder
	p.Tree.appendString(&b, precOr)
	return b.String()
}

// IsEmpty reports whether the query has no expression at all.
func (p *Parsed) IsEmpty() bool { return p.Tree == nil }

// PositiveTerms returns the non-negated terms and phrase words of the
// tree, in source order. The formatter highlights these.
func (p *Parsed) PositiveTerms() []string {
	var out []string
	collectPositive(p.Tree, false, &out)
	return out
}

// PositivePhrases returns the non-negated phrases of the tree.
func (p *Parsed) PositivePhrases() [][]string {
	var out [][]string
	collectPhrases(p.Tree, false, &out)
	return out
}

func collectPositive(e Expr, negated bool, out *[]string) {
	switch v := e.(type) {
	case nil:
	case *Term:
		if !negated {
			*out = append(*out, v.Text)
		}
	case *Phrase:
		if !negated {
			*out = append(*out, v.Words...)
		}
	case *Not:
		collectPositive(v.X, !negated, out)
	case *And:
		collectPositive(v.X, negated, out)
		collectPositive(v.Y, negated, out)
	case *Or:
		collectPositive(v.X, negated, out)
		collectPositive(v.Y, negated, out)
	}
}

func collectPhrases(e Expr, negated bool, out *[][]string) {
	switch v := e.(type) {
	case nil:
	case *Phrase:
		if !negated {
			*out = append(*out, v.Words)
		}
	case *Not:
		collectPhrases(v.X, !negated, out)
	case *And:
		collectPhrases(v.X, negated, out)
		collectPhrases(v.Y, negated, out)
	case *Or:
		collectPhrases(v.X, negated, out)
		collectPhrases(v.Y, negated, out)
	}
}
