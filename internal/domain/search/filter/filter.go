// Package filter holds the hard (pre-scoring) search filters. A hard
// filter excludes non-matching documents from the candidate set entirely;
// it never merely affects ranking.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/maplebid/tendex/internal/domain"
)

// Hard is the set of hard filters for one search request.
type Hard struct {
	// Province matches case-insensitively as a substring of the document
	// province ("BC" matches "BC", "bc", "British Columbia (BC)").
	Province string
	// NAICS matches as a code prefix ("237" matches "237310").
	NAICS string
	// Contract value bounds, inclusive. Documents without an extractable
	// numeric value fail any value-bounded filter.
	MinValue *float64
	MaxValue *float64
	// Closing date bounds, inclusive. Documents without a closing date
	// fail any deadline-bounded filter.
	DeadlineBefore *time.Time
	DeadlineAfter  *time.Time
	// Fields are the field filters extracted by the query parser,
	// canonical name to accepted values (any-of, case-insensitive
	// substring; values with * or ? match as patterns).
	Fields map[string][]string
}

// IsZero reports whether no filter is set.
func (h *Hard) IsZero() bool {
	return h.Province == "" && h.NAICS == "" &&
		h.MinValue == nil && h.MaxValue == nil &&
		h.DeadlineBefore == nil && h.DeadlineAfter == nil &&
		len(h.Fields) == 0
}

// Matches reports whether the document passes every hard filter.
func (h *Hard) Matches(d *domain.Document) bool {
	if h.Province != "" && !containsFold(d.Province, h.Province) {
		return false
	}
	if h.NAICS != "" && !strings.HasPrefix(d.NAICS, h.NAICS) {
		return false
	}
	if h.MinValue != nil || h.MaxValue != nil {
		v, ok := d.Value()
		if !ok {
			return false
		}
		if h.MinValue != nil && v < *h.MinValue {
			return false
		}
		if h.MaxValue != nil && v > *h.MaxValue {
			return false
		}
	}
	if h.DeadlineBefore != nil || h.DeadlineAfter != nil {
		if d.ClosingDate.IsZero() {
			return false
		}
		if h.DeadlineBefore != nil && d.ClosingDate.After(*h.DeadlineBefore) {
			return false
		}
		if h.DeadlineAfter != nil && d.ClosingDate.Before(*h.DeadlineAfter) {
			return false
		}
	}
	for field, values := range h.Fields {
		if !matchesAny(fieldValue(d, field), values) {
			return false
		}
	}
	return true
}

// Applied returns the filters in response-diagnostic form.
func (h *Hard) Applied() map[string]string {
	out := make(map[string]string)
	if h.Province != "" {
		out["province"] = h.Province
	}
	if h.NAICS != "" {
		out["naics"] = h.NAICS
	}
	if h.MinValue != nil {
		out["min_value"] = formatFloat(*h.MinValue)
	}
	if h.MaxValue != nil {
		out["max_value"] = formatFloat(*h.MaxValue)
	}
	if h.DeadlineBefore != nil {
		out["deadline_before"] = h.DeadlineBefore.Format("2006-01-02")
	}
	if h.DeadlineAfter != nil {
		out["deadline_after"] = h.DeadlineAfter.Format("2006-01-02")
	}
	return out
}

func fieldValue(d *domain.Document, field string) string {
	switch field {
	case domain.FieldOrganization:
		return d.Organization
	case domain.FieldProvince:
		return d.Province
	case domain.FieldNAICS:
		return d.NAICS
	case domain.FieldCategory:
		return d.Category
	case domain.FieldReference:
		return d.Reference
	case domain.FieldSource:
		return d.SourceName
	case domain.FieldTitle:
		return d.Title
	case domain.FieldDescription:
		return d.Description
	}
	return ""
}

// matchesAny reports whether got matches at least one wanted value.
func matchesAny(got string, wanted []string) bool {
	for _, w := range wanted {
		if strings.ContainsAny(w, "*?") {
			if PatternMatch(strings.ToLower(w), strings.ToLower(got)) {
				return true
			}
			continue
		}
		if containsFold(got, w) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// PatternMatch matches s against a glob-style pattern where * matches any
// run of characters and ? matches exactly one. The pattern is anchored at
// both ends.
func PatternMatch(pattern, s string) bool {
	p := []rune(pattern)
	t := []rune(s)
	// iterative two-pointer match with single backtrack point
	var pi, ti int
	star, starTi := -1, 0
	for ti < len(t) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == t[ti]):
			pi++
			ti++
		case pi < len(p) && p[pi] == '*':
			star = pi
			starTi = ti
			pi++
		case star >= 0:
			pi = star + 1
			starTi++
			ti = starTi
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
