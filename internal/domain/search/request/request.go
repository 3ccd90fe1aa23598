package request

import (
	"fmt"
	"time"

	"github.com/maplebid/tendex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Request is a validated search request.
type Request struct {
	query          string
	province       string
	naics          string
	minValue       *float64
	maxValue       *float64
	deadlineBefore *time.Time
	deadlineAfter  *time.Time
	advanced       bool
	aiSearch       bool
	limit          int
	offset         int
	sortBy         SortBy
	sortOrder      SortOrder
}

// New validates and normalizes search parameters.
// Defaults: limit=20 (capped at 100), offset=0, sort_by=relevance, sort_order=desc.
func New(
	query, province, naics string,
	minValue, maxValue *float64,
	deadlineBefore, deadlineAfter *time.Time,
	advanced, aiSearch bool,
	limit, offset int,
	sortBy SortBy, sortOrder SortOrder,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidInput, MaxQueryLength)
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("%w: limit must be non-negative", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		return Request{}, fmt.Errorf("%w: offset must be non-negative", domain.ErrInvalidInput)
	}
	if sortBy == "" {
		sortBy = SortRelevance
	}
	if !sortBy.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sort_by %q", domain.ErrInvalidInput, sortBy)
	}
	if sortOrder == "" {
		sortOrder = OrderDesc
	}
	if !sortOrder.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sort_order %q", domain.ErrInvalidInput, sortOrder)
	}
	if minValue != nil && maxValue != nil && *minValue > *maxValue {
		return Request{}, fmt.Errorf("%w: min_value greater than max_value", domain.ErrInvalidInput)
	}

	return Request{
		query:          query,
		province:       province,
		naics:          naics,
		minValue:       minValue,
		maxValue:       maxValue,
		deadlineBefore: deadlineBefore,
		deadlineAfter:  deadlineAfter,
		advanced:       advanced,
		aiSearch:       aiSearch,
		limit:          limit,
		offset:         offset,
		sortBy:         sortBy,
		sortOrder:      sortOrder,
	}, nil
}

// Query returns the raw search query text.
func (r *Request) Query() string { return r.query }

// Province returns the hard province filter ("" when absent).
func (r *Request) Province() string { return r.province }

// NAICS returns the hard NAICS prefix filter ("" when absent).
func (r *Request) NAICS() string { return r.naics }

// MinValue returns the contract value lower bound (nil when absent).
func (r *Request) MinValue() *float64 { return r.minValue }

// MaxValue returns the contract value upper bound (nil when absent).
func (r *Request) MaxValue() *float64 { return r.maxValue }

// DeadlineBefore returns the closing date upper bound (nil when absent).
func (r *Request) DeadlineBefore() *time.Time { return r.deadlineBefore }

// DeadlineAfter returns the closing date lower bound (nil when absent).
func (r *Request) DeadlineAfter() *time.Time { return r.deadlineAfter }

// Advanced reports whether boolean/field/wildcard parsing is enabled.
func (r *Request) Advanced() bool { return r.advanced }

// AISearch reports whether the embedding path is enabled.
func (r *Request) AISearch() bool { return r.aiSearch }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the page offset.
func (r *Request) Offset() int { return r.offset }

// SortBy returns the requested ordering field.
func (r *Request) SortBy() SortBy { return r.sortBy }

// SortOrder returns the requested ordering direction.
func (r *Request) SortOrder() SortOrder { return r.sortOrder }
