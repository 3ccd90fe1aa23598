package result

import "github.com/maplebid/tendex/internal/domain"

// Scored is a single ranked search hit with its score components.
type Scored struct {
	doc           domain.Document
	lexicalRank   float64
	cosineSim     float64
	categoryBonus float64
	combined      float64
	highlight     string
}

// New creates a scored result.
func New(
	doc domain.Document,
	lexicalRank, cosineSim, categoryBonus, combined float64,
) Scored {
	return Scored{
		doc:           doc,
		lexicalRank:   lexicalRank,
		cosineSim:     cosineSim,
		categoryBonus: categoryBonus,
		combined:      combined,
	}
}

// Document returns the underlying tender record.
func (s *Scored) Document() domain.Document { return s.doc }

// LexicalRank returns the TF-IDF rank (0 when the hit is semantic-only).
func (s *Scored) LexicalRank() float64 { return s.lexicalRank }

// CosineSimilarity returns the embedding similarity (0 when lexical-only).
func (s *Scored) CosineSimilarity() float64 { return s.cosineSim }

// CategoryBonus returns the province match bonus (0 or 1).
func (s *Scored) CategoryBonus() float64 { return s.categoryBonus }

// Combined returns the weighted hybrid score.
func (s *Scored) Combined() float64 { return s.combined }

// Highlight returns the marked-up excerpt, set by the formatter.
func (s *Scored) Highlight() string { return s.highlight }

// WithHighlight attaches the formatted excerpt.
func (s *Scored) WithHighlight(h string) { s.highlight = h }

// Page is one ordered slice of the full filtered result set.
type Page struct {
	Results []Scored
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}
