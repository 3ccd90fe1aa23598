package search

import (
	"context"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/domain/search/filter"
	"github.com/maplebid/tendex/internal/domain/search/query"
	"github.com/maplebid/tendex/internal/index/lexical"
	"github.com/maplebid/tendex/internal/index/vector"
)

// Lexical is the keyword index contract: boolean/TF-IDF matching plus the
// dictionary lookups behind suggestions and statistics.
type Lexical interface {
	Match(q *query.Parsed, h *filter.Hard) map[string]float64
	Eligible(h *filter.Hard) map[string]struct{}
	Document(id string) (domain.Document, bool)
	Suggest(prefix string, limit int) []lexical.Suggestion
	Stats() lexical.Stats
}

// Vector is the similarity index contract.
type Vector interface {
	Search(q []float32, k int, allowed map[string]struct{}) ([]vector.Hit, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
