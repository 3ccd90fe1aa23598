package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/maplebid/tendex/internal/domain/search/filter"
	"github.com/maplebid/tendex/internal/domain/search/query"
)

// Match evaluates the parsed query's boolean structure and returns a
// TF-IDF rank per matching document. Hard filters restrict the candidate
// universe before any scoring. Documents with no lexical match are
// absent, never zero-ranked.
func (ix *Index) Match(q *query.Parsed, h *filter.Hard) map[string]float64 {
	if q == nil || q.Tree == nil {
		return map[string]float64{}
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	universe := make(map[string]struct{}, len(ix.docs))
	for id, e := range ix.docs {
		if h == nil || h.Matches(&e.doc) {
			universe[id] = struct{}{}
		}
	}

	ev := &evaluator{ix: ix, universe: universe}
	return ev.eval(q.Tree)
}

type evaluator struct {
	ix       *Index
	universe map[string]struct{}
}

// eval returns matched doc IDs with accumulated rank. Rank combines
// additively across AND/OR subclauses, so more distinct matched terms
// never rank lower than fewer.
func (ev *evaluator) eval(e query.Expr) map[string]float64 {
	switch v := e.(type) {
	case *query.Term:
		return ev.evalWords(Tokenize(v.Text))
	case *query.Phrase:
		return ev.evalWords(Tokenize(strings.Join(v.Words, " ")))
	case *query.Wildcard:
		return ev.evalWildcard(v.Pattern)
	case *query.Field:
		return ev.evalField(v)
	case *query.Not:
		return ev.evalNot(v.X)
	case *query.And:
		return intersect(ev.eval(v.X), ev.eval(v.Y))
	case *query.Or:
		return union(ev.eval(v.X), ev.eval(v.Y))
	}
	return map[string]float64{}
}

// evalWords scores a single token as a term and a multi-token sequence as
// a phrase requiring consecutive positions within one field.
func (ev *evaluator) evalWords(words []string) map[string]float64 {
	switch len(words) {
	case 0:
		return map[string]float64{}
	case 1:
		return ev.evalTerm(words[0])
	default:
		return ev.evalPhrase(words)
	}
}

func (ev *evaluator) evalTerm(tok string) map[string]float64 {
	bucket := ev.ix.postings[tok]
	out := make(map[string]float64, len(bucket))
	idf := ev.idf(len(bucket))
	for id, positions := range bucket {
		if _, ok := ev.universe[id]; !ok {
			continue
		}
		out[id] = weightedTF(positions) * idf
	}
	return out
}

func (ev *evaluator) evalPhrase(words []string) map[string]float64 {
	first := ev.ix.postings[words[0]]
	if first == nil {
		return map[string]float64{}
	}

	// Sum of member IDFs: rarer phrases rank higher.
	var idfSum float64
	rest := make([]map[string][]int32, len(words)-1)
	for i, w := range words {
		bucket := ev.ix.postings[w]
		if bucket == nil {
			return map[string]float64{}
		}
		idfSum += ev.idf(len(bucket))
		if i > 0 {
			rest[i-1] = bucket
		}
	}

	out := make(map[string]float64)
	for id, starts := range first {
		if _, ok := ev.universe[id]; !ok {
			continue
		}
		var score float64
		for _, p := range starts {
			if ev.adjacentRun(id, p, rest) {
				score += fieldWeightAt(p) * idfSum
			}
		}
		if score > 0 {
			out[id] = score
		}
	}
	return out
}

// adjacentRun checks that each following word appears at p+1, p+2, ...
// in the same document. Position encoding keeps runs inside one field.
func (ev *evaluator) adjacentRun(id string, p int32, rest []map[string][]int32) bool {
	for i, bucket := range rest {
		positions, ok := bucket[id]
		if !ok || !containsPos(positions, p+int32(i)+1) {
			return false
		}
	}
	return true
}

func (ev *evaluator) evalWildcard(pattern string) map[string]float64 {
	pattern = strings.ToLower(pattern)
	out := make(map[string]float64)
	for tok := range ev.ix.postings {
		if !filter.PatternMatch(pattern, tok) {
			continue
		}
		for id, score := range ev.evalTerm(tok) {
			out[id] += score
		}
	}
	return out
}

// evalField is a pure predicate: it narrows the candidate set without
// contributing rank.
func (ev *evaluator) evalField(f *query.Field) map[string]float64 {
	h := filter.Hard{Fields: map[string][]string{f.Name: splitValues(f.Value)}}
	out := make(map[string]float64)
	for id := range ev.universe {
		e := ev.ix.docs[id]
		if h.Matches(&e.doc) {
			out[id] = 0
		}
	}
	return out
}

func (ev *evaluator) evalNot(inner query.Expr) map[string]float64 {
	matched := ev.eval(inner)
	out := make(map[string]float64, len(ev.universe))
	for id := range ev.universe {
		if _, ok := matched[id]; !ok {
			out[id] = 0
		}
	}
	return out
}

func (ev *evaluator) idf(df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log(1 + float64(len(ev.ix.docs))/float64(df))
}

func weightedTF(positions []int32) float64 {
	var tf float64
	for _, p := range positions {
		tf += fieldWeightAt(p)
	}
	return tf
}

func fieldWeightAt(p int32) float64 {
	fi := int(p >> fieldShift)
	if fi < 0 || fi >= len(fieldOrder) {
		return 1
	}
	if w, ok := fieldWeights[fieldOrder[fi]]; ok {
		return w
	}
	return 1
}

func containsPos(sorted []int32, p int32) bool {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= p })
	return i < len(sorted) && sorted[i] == p
}

func intersect(a, b map[string]float64) map[string]float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[string]float64, len(a))
	for id, sa := range a {
		if sb, ok := b[id]; ok {
			out[id] = sa + sb
		}
	}
	return out
}

func union(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(a)+len(b))
	for id, s := range a {
		out[id] = s
	}
	for id, s := range b {
		out[id] += s
	}
	return out
}

func splitValues(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
