package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/maplebid/tendex/internal/domain"
)

func newRequest(opts ...func(*args)) (Request, error) {
	a := &args{limit: 0, offset: 0, sortBy: "", sortOrder: ""}
	for _, o := range opts {
		o(a)
	}
	return New(
		a.query, a.province, a.naics,
		a.minValue, a.maxValue,
		nil, nil,
		a.advanced, a.aiSearch,
		a.limit, a.offset,
		a.sortBy, a.sortOrder,
	)
}

type args struct {
	query, province, naics string
	minValue, maxValue     *float64
	advanced, aiSearch     bool
	limit, offset          int
	sortBy                 SortBy
	sortOrder              SortOrder
}

func TestNew_Defaults(t *testing.T) {
	r, err := newRequest()
	if err != nil {
		t.Fatal(err)
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Offset() != 0 {
		t.Errorf("Offset = %d, want 0", r.Offset())
	}
	if r.SortBy() != SortRelevance {
		t.Errorf("SortBy = %q, want relevance", r.SortBy())
	}
	if r.SortOrder() != OrderDesc {
		t.Errorf("SortOrder = %q, want desc", r.SortOrder())
	}
}

func TestNew_LimitCapped(t *testing.T) {
	r, err := newRequest(func(a *args) { a.limit = 500 })
	if err != nil {
		t.Fatal(err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit = %d, want capped at %d", r.Limit(), MaxLimit)
	}
}

func TestNew_Invalid(t *testing.T) {
	long := strings.Repeat("x", MaxQueryLength+1)
	minV, maxV := 100.0, 50.0

	tests := []struct {
		name string
		opt  func(*args)
	}{
		{"query too long", func(a *args) { a.query = long }},
		{"negative limit", func(a *args) { a.limit = -1 }},
		{"negative offset", func(a *args) { a.offset = -5 }},
		{"unknown sort_by", func(a *args) { a.sortBy = "price" }},
		{"unknown sort_order", func(a *args) { a.sortOrder = "sideways" }},
		{"min above max", func(a *args) { a.minValue, a.maxValue = &minV, &maxV }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newRequest(tc.opt)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSortBy_IsValid(t *testing.T) {
	for _, s := range []SortBy{SortRelevance, SortCreatedAt, SortClosingDate, SortTitle, SortOrganization} {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SortBy("score").IsValid() {
		t.Error("unknown sort accepted")
	}
}
