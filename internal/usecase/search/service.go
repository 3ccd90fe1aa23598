// Package search implements hybrid tender search: boolean/TF-IDF keyword
// matching and embedding similarity fused into one ranked, paginated,
// filterable result set with parse diagnostics.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maplebid/tendex/internal/domain/search/filter"
	"github.com/maplebid/tendex/internal/domain/search/query"
	"github.com/maplebid/tendex/internal/domain/search/request"
	"github.com/maplebid/tendex/internal/domain/search/result"
	"github.com/maplebid/tendex/internal/index/lexical"
	"github.com/maplebid/tendex/internal/index/vector"
	"github.com/maplebid/tendex/internal/metrics"
)

// Weights are the hybrid score coefficients. Tunable via configuration,
// never hardcoded at call sites.
type Weights struct {
	Lexical  float64
	Vector   float64
	Province float64
}

// DefaultWeights favor semantic similarity with a lexical anchor.
func DefaultWeights() Weights {
	return Weights{Lexical: 0.3, Vector: 0.6, Province: 0.1}
}

// Params bound the work one search request may do.
type Params struct {
	// TopKCandidates caps the semantic candidate pool per request.
	TopKCandidates int
	// HighlightFragments and HighlightWindow cap excerpt size.
	HighlightFragments int
	HighlightWindow    int
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{TopKCandidates: 500, HighlightFragments: 3, HighlightWindow: 30}
}

// QueryInfo is the parse diagnostics block returned with every response.
type QueryInfo struct {
	OriginalQuery string
	ParsedQuery   string
	Filters       map[string]string
	FieldFilters  map[string][]string
	Wildcards     []string
	HasErrors     bool
	ErrorMessage  string
	Warnings      []string
}

// Response is one complete search answer.
type Response struct {
	Page result.Page
	Info QueryInfo
}

// Service executes hybrid searches over the in-process indexes.
type Service struct {
	lex     Lexical
	vec     Vector
	embed   Embedder
	weights Weights
	params  Params
	logger  *zap.Logger
}

// New creates a search service.
func New(lex Lexical, vec Vector, embed Embedder, w Weights, p Params, logger *zap.Logger) *Service {
	if p.TopKCandidates <= 0 {
		p.TopKCandidates = DefaultParams().TopKCandidates
	}
	if p.HighlightFragments <= 0 {
		p.HighlightFragments = DefaultParams().HighlightFragments
	}
	if p.HighlightWindow <= 0 {
		p.HighlightWindow = DefaultParams().HighlightWindow
	}
	return &Service{lex: lex, vec: vec, embed: embed, weights: w, params: p, logger: logger}
}

// Search runs one hybrid search request. Parser and filter problems
// degrade to best-effort matching and surface only in QueryInfo;
// embedding failures fall back to lexical-only. Nothing here fails the
// request except caller mistakes already rejected by request.New.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	start := time.Now()

	parsed := s.parse(req)
	hard := hardFilter(req)

	info := QueryInfo{
		OriginalQuery: req.Query(),
		ParsedQuery:   parsed.String(),
		Filters:       hard.Applied(),
		FieldFilters:  parsed.FieldFilters,
		Wildcards:     parsed.Wildcards,
		HasErrors:     parsed.HasErrors,
		ErrorMessage:  parsed.ErrorMessage,
	}

	var page result.Page
	if req.SortBy() == request.SortRelevance {
		scored, warnings := s.scoreCandidates(ctx, req, parsed, hard)
		info.Warnings = warnings
		sortByCombined(scored)
		page = paginate(scored, req.Offset(), req.Limit())
	} else {
		// Relevance scoring is skipped entirely for attribute sorts.
		scored := s.unscoredCandidates(parsed, hard)
		sortByField(scored, req.SortBy(), req.SortOrder())
		page = paginate(scored, req.Offset(), req.Limit())
	}

	for i := range page.Results {
		doc := page.Results[i].Document()
		page.Results[i].WithHighlight(s.excerpt(doc.Description, parsed))
	}

	mode := "lexical_only"
	if req.AISearch() && len(info.Warnings) == 0 {
		mode = "hybrid"
	}
	metrics.SearchRequestsTotal.WithLabelValues(mode, "ok").Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	return Response{Page: page, Info: info}, nil
}

// Suggest completes a term prefix against the index dictionary.
func (s *Service) Suggest(prefix string, limit int) []lexical.Suggestion {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}
	return s.lex.Suggest(prefix, limit)
}

// Stats returns corpus-level counters for the statistics endpoint.
func (s *Service) Stats() lexical.Stats {
	return s.lex.Stats()
}

func (s *Service) parse(req *request.Request) *query.Parsed {
	var parsed *query.Parsed
	if req.Advanced() {
		parsed = query.Parse(req.Query())
	} else {
		parsed = query.ParseFreeText(req.Query())
	}
	if parsed.HasErrors {
		metrics.ParseDegradedTotal.Inc()
		s.logger.Debug("Query parse degraded",
			zap.String("query", req.Query()),
			zap.String("error", parsed.ErrorMessage),
		)
	}
	return parsed
}

// scoreCandidates fans out the lexical match and the embedding path, then
// fuses both signals. The two legs have no data dependency; the embedding
// leg is the only one that suspends.
func (s *Service) scoreCandidates(
	ctx context.Context, req *request.Request, parsed *query.Parsed, hard *filter.Hard,
) ([]result.Scored, []string) {
	eligible := s.lex.Eligible(hard)

	var (
		lexRanks map[string]float64
		vecHits  []vector.Hit
		warnings []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if parsed.IsEmpty() {
			// Filter-only browse: every eligible tender matches with
			// zero lexical rank.
			lexRanks = make(map[string]float64, len(eligible))
			for id := range eligible {
				lexRanks[id] = 0
			}
			return nil
		}
		lexRanks = s.lex.Match(parsed, hard)
		return nil
	})

	if req.AISearch() && strings.TrimSpace(req.Query()) != "" {
		g.Go(func() error {
			hits, warning := s.semanticLeg(gctx, req.Query(), eligible)
			vecHits = hits
			if warning != "" {
				warnings = append(warnings, warning)
			}
			return nil
		})
	}

	// Both legs recover internally; Wait only propagates ctx errors.
	_ = g.Wait()

	return s.fuse(req, lexRanks, vecHits), warnings
}

// semanticLeg embeds the query and searches the vector index. Any failure
// downgrades the request to lexical-only and reports a warning instead of
// an error.
func (s *Service) semanticLeg(
	ctx context.Context, text string, eligible map[string]struct{},
) ([]vector.Hit, string) {
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		metrics.SemanticFallbackTotal.Inc()
		s.logger.Warn("Embedding failed, falling back to lexical-only", zap.Error(err))
		return nil, "semantic search unavailable, results are keyword-only"
	}

	hits, err := s.vec.Search(emb.Embedding, s.params.TopKCandidates, eligible)
	if err != nil {
		metrics.SemanticFallbackTotal.Inc()
		s.logger.Warn("Vector search failed, falling back to lexical-only", zap.Error(err))
		return nil, "semantic search unavailable, results are keyword-only"
	}
	return hits, ""
}

// unscoredCandidates returns the match set without any scoring, for
// attribute sorts.
func (s *Service) unscoredCandidates(parsed *query.Parsed, hard *filter.Hard) []result.Scored {
	var ids map[string]float64
	if parsed.IsEmpty() {
		eligible := s.lex.Eligible(hard)
		ids = make(map[string]float64, len(eligible))
		for id := range eligible {
			ids[id] = 0
		}
	} else {
		ids = s.lex.Match(parsed, hard)
	}

	out := make([]result.Scored, 0, len(ids))
	for id := range ids {
		doc, ok := s.lex.Document(id)
		if !ok {
			continue
		}
		out = append(out, result.New(doc, 0, 0, 0, 0))
	}
	return out
}

// hardFilter assembles the pre-scoring filter set from the request's
// structured filters. Field filters from the query text are NOT folded in
// here: they participate in the boolean tree (an OR of field clauses must
// stay an OR), and FieldFilters is diagnostics only.
func hardFilter(req *request.Request) *filter.Hard {
	return &filter.Hard{
		Province:       req.Province(),
		NAICS:          req.NAICS(),
		MinValue:       req.MinValue(),
		MaxValue:       req.MaxValue(),
		DeadlineBefore: req.DeadlineBefore(),
		DeadlineAfter:  req.DeadlineAfter(),
	}
}
