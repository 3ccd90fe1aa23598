// Package lexical implements the in-memory inverted index behind keyword
// search: tokenized postings with positions for phrase adjacency, TF-IDF
// ranking, and wildcard expansion against the term dictionary.
//
// The index is a derived projection of the document store. The ingest
// service rebuilds a document's entry whenever any searchable field
// changes; search only ever reads.
package lexical

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/domain/search/filter"
)

// Field weights bias term frequency toward the fields a buyer scans
// first. Tuned against the source corpus, not configuration.
var fieldWeights = map[string]float64{
	domain.FieldTitle:        2.0,
	domain.FieldOrganization: 1.5,
	domain.FieldCategory:     1.2,
	domain.FieldDescription:  1.0,
	domain.FieldReference:    1.0,
	domain.FieldNAICS:        1.0,
}

// fieldOrder fixes the field index used in position encoding.
var fieldOrder = []string{
	domain.FieldTitle,
	domain.FieldDescription,
	domain.FieldOrganization,
	domain.FieldCategory,
	domain.FieldReference,
	domain.FieldNAICS,
}

// Positions encode (field, offset) as fieldIdx<<20|offset so that p+1
// stays inside one field: adjacency checks can never cross fields.
const fieldShift = 20

type docEntry struct {
	doc    domain.Document
	tokens int
}

// Index is the lexical inverted index. Safe for concurrent readers; the
// ingest service serializes writers.
type Index struct {
	mu       sync.RWMutex
	docs     map[string]*docEntry
	postings map[string]map[string][]int32 // token -> docID -> positions
}

// New creates an empty index.
func New() *Index {
	return &Index{
		docs:     make(map[string]*docEntry),
		postings: make(map[string]map[string][]int32),
	}
}

// Put indexes a document, replacing any previous entry for the same ID.
func (ix *Index) Put(doc domain.Document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(doc.ID)

	entry := &docEntry{doc: doc}
	for fi, ft := range doc.Body() {
		tokens := Tokenize(ft.Text)
		entry.tokens += len(tokens)
		for off, tok := range tokens {
			bucket := ix.postings[tok]
			if bucket == nil {
				bucket = make(map[string][]int32)
				ix.postings[tok] = bucket
			}
			bucket[doc.ID] = append(bucket[doc.ID], int32(fi)<<fieldShift|int32(off))
		}
	}
	ix.docs[doc.ID] = entry
}

// Delete removes a document from the index. Unknown IDs are a no-op.
func (ix *Index) Delete(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id string) {
	if _, ok := ix.docs[id]; !ok {
		return
	}
	delete(ix.docs, id)
	for tok, bucket := range ix.postings {
		if _, ok := bucket[id]; ok {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(ix.postings, tok)
			}
		}
	}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Document returns the stored copy of an indexed document.
func (ix *Index) Document(id string) (domain.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.docs[id]
	if !ok {
		return domain.Document{}, false
	}
	return e.doc, true
}

// Eligible returns the IDs of all documents passing the hard filters.
// With a zero filter this is the whole corpus.
func (ix *Index) Eligible(h *filter.Hard) map[string]struct{} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]struct{}, len(ix.docs))
	for id, e := range ix.docs {
		if h == nil || h.Matches(&e.doc) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Suggestion is a term-dictionary completion with its document frequency.
type Suggestion struct {
	Term      string
	Frequency int
}

// Suggest returns dictionary terms starting with prefix, most frequent
// first.
func (ix *Index) Suggest(prefix string, limit int) []Suggestion {
	prefix = strings.ToLower(prefix)
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Suggestion
	for tok, bucket := range ix.postings {
		if strings.HasPrefix(tok, prefix) {
			out = append(out, Suggestion{Term: tok, Frequency: len(bucket)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats summarizes the index for the statistics endpoint.
type Stats struct {
	Documents    int
	Terms        int
	AvgDocTokens float64
}

// Stats returns corpus-level counters.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s := Stats{Documents: len(ix.docs), Terms: len(ix.postings)}
	if len(ix.docs) > 0 {
		total := 0
		for _, e := range ix.docs {
			total += e.tokens
		}
		s.AvgDocTokens = float64(total) / float64(len(ix.docs))
	}
	return s
}

// Tokenize splits text into lowercase letter/digit runs. No stemming:
// tender vocabulary is dominated by codes and proper names where stems
// hurt more than help.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}
