package search

import (
	"sort"
	"strings"
	"time"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/domain/search/request"
	"github.com/maplebid/tendex/internal/domain/search/result"
	"github.com/maplebid/tendex/internal/index/vector"
)

// fuse merges the lexical and semantic match sets into scored results.
//
//	combined = w_lex * lexical_rank/max_rank + w_vec * cosine + w_cat * bonus
//
// A document absent from both sets never appears; one present in a single
// set scores zero on the other signal. The province bonus fires when the
// caller filtered by province, rewarding the match the filter guaranteed.
func (s *Service) fuse(
	req *request.Request, lexRanks map[string]float64, vecHits []vector.Hit,
) []result.Scored {
	var maxLex float64
	for _, r := range lexRanks {
		if r > maxLex {
			maxLex = r
		}
	}

	cosines := make(map[string]float64, len(vecHits))
	for _, h := range vecHits {
		cosines[h.ID] = h.Similarity
	}

	seen := make(map[string]struct{}, len(lexRanks)+len(cosines))
	out := make([]result.Scored, 0, len(lexRanks)+len(cosines))

	appendScored := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		doc, ok := s.lex.Document(id)
		if !ok {
			return
		}

		lexRank := lexRanks[id]
		cosine := cosines[id]

		var lexNorm float64
		if maxLex > 0 {
			lexNorm = lexRank / maxLex
		}
		var bonus float64
		if req.Province() != "" {
			bonus = 1
		}

		combined := s.weights.Lexical*lexNorm +
			s.weights.Vector*cosine +
			s.weights.Province*bonus

		out = append(out, result.New(doc, lexRank, cosine, bonus, combined))
	}

	for id := range lexRanks {
		appendScored(id)
	}
	for _, h := range vecHits {
		appendScored(h.ID)
	}
	return out
}

// sortByCombined orders by combined score descending. Ties break by
// closing date ascending (soonest-closing first, missing dates last),
// then by ID for determinism.
func sortByCombined(scored []result.Scored) {
	sort.Slice(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if a.Combined() != b.Combined() {
			return a.Combined() > b.Combined()
		}
		da, db := a.Document().ClosingDate, b.Document().ClosingDate
		switch {
		case da.IsZero() != db.IsZero():
			return db.IsZero()
		case !da.Equal(db):
			return da.Before(db)
		}
		return a.Document().ID < b.Document().ID
	})
}

// sortByField orders by a document attribute, ascending or descending,
// with ID as the final tiebreak.
func sortByField(scored []result.Scored, by request.SortBy, order request.SortOrder) {
	less := fieldLess(by)
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i].Document(), scored[j].Document()
		cmp := less(&a, &b)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if order == request.OrderDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// paginate slices the full ordered candidate list into one page.
// An offset past the end yields an empty page with the true total.
func paginate(scored []result.Scored, offset, limit int) result.Page {
	total := len(scored)
	page := result.Page{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+limit < total,
	}
	if offset >= total {
		page.Results = []result.Scored{}
		return page
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page.Results = scored[offset:end]
	return page
}

func fieldLess(by request.SortBy) func(a, b *domain.Document) int {
	switch by {
	case request.SortCreatedAt:
		return func(a, b *domain.Document) int { return compareTimes(a.CreatedAt, b.CreatedAt) }
	case request.SortClosingDate:
		return func(a, b *domain.Document) int { return compareTimes(a.ClosingDate, b.ClosingDate) }
	case request.SortTitle:
		return func(a, b *domain.Document) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case request.SortOrganization:
		return func(a, b *domain.Document) int {
			return strings.Compare(strings.ToLower(a.Organization), strings.ToLower(b.Organization))
		}
	}
	return func(a, b *domain.Document) int { return 0 }
}

// compareTimes orders zero times after all real times in ascending order.
func compareTimes(a, b time.Time) int {
	switch {
	case a.Equal(b):
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	}
	return 1
}
