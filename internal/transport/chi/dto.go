package chi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/usecase/search"
)

// searchRequestDTO is the POST /search body. Value bounds accept either a
// JSON number or a free-text string ("$500K"); unparseable filter values
// are dropped with a warning rather than failing the request, matching
// the parser's degradation policy.
type searchRequestDTO struct {
	Query          string          `json:"query"`
	Province       string          `json:"province,omitempty"`
	Naics          string          `json:"naics,omitempty"`
	MinValue       json.RawMessage `json:"min_value,omitempty"`
	MaxValue       json.RawMessage `json:"max_value,omitempty"`
	DeadlineBefore string          `json:"deadline_before,omitempty"`
	DeadlineAfter  string          `json:"deadline_after,omitempty"`
	UseAdvanced    bool            `json:"use_advanced_search,omitempty"`
	UseAISearch    bool            `json:"use_ai_search,omitempty"`
	Limit          int             `json:"limit,omitempty"`
	Offset         int             `json:"offset,omitempty"`
	SortBy         string          `json:"sort_by,omitempty"`
	SortOrder      string          `json:"sort_order,omitempty"`
}

// parseMoneyValue accepts 500000, "500000" or "$500K".
func parseMoneyValue(raw json.RawMessage, name string) (*float64, string) {
	if len(raw) == 0 {
		return nil, ""
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := domain.ParseMoney(s); ok {
			return &v, ""
		}
		return nil, fmt.Sprintf("ignored %s: cannot parse %q as a value", name, s)
	}

	return nil, fmt.Sprintf("ignored %s: expected a number or string", name)
}

// parseDateValue accepts YYYY-MM-DD.
func parseDateValue(s, name string) (*time.Time, string) {
	if s == "" {
		return nil, ""
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Sprintf("ignored %s: cannot parse %q as a date", name, s)
	}
	return &t, ""
}

// searchResultItemDTO is one ranked hit.
type searchResultItemDTO struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Organization     string      `json:"organization,omitempty"`
	Description      string      `json:"description,omitempty"`
	Category         string      `json:"category,omitempty"`
	Reference        string      `json:"reference,omitempty"`
	Naics            string      `json:"naics,omitempty"`
	Province         string      `json:"province,omitempty"`
	ContractValue    string      `json:"contract_value,omitempty"`
	ClosingDate      *types.Date `json:"closing_date,omitempty"`
	SourceName       string      `json:"source_name,omitempty"`
	URL              string      `json:"url,omitempty"`
	CreatedAt        *time.Time  `json:"created_at,omitempty"`
	CombinedScore    float64     `json:"combined_score"`
	LexicalRank      float64     `json:"lexical_rank"`
	CosineSimilarity float64     `json:"cosine_similarity"`
	Highlight        string      `json:"highlight,omitempty"`
}

type queryInfoDTO struct {
	OriginalQuery string              `json:"original_query"`
	ParsedQuery   string              `json:"parsed_query"`
	Filters       map[string]string   `json:"filters"`
	FieldFilters  map[string][]string `json:"field_filters"`
	Wildcards     []string            `json:"wildcards"`
	HasErrors     bool                `json:"has_errors"`
	ErrorMessage  string              `json:"error_message,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
}

type searchResponseDTO struct {
	Results        []searchResultItemDTO `json:"results"`
	Total          int                   `json:"total"`
	Offset         int                   `json:"offset"`
	Limit          int                   `json:"limit"`
	HasMore        bool                  `json:"has_more"`
	FiltersApplied map[string]string     `json:"filters_applied"`
	QueryInfo      queryInfoDTO          `json:"query_info"`
}

func searchResponseToDTO(resp *search.Response) searchResponseDTO {
	items := make([]searchResultItemDTO, len(resp.Page.Results))
	for i := range resp.Page.Results {
		r := &resp.Page.Results[i]
		doc := r.Document()

		item := searchResultItemDTO{
			ID:               doc.ID,
			Title:            doc.Title,
			Organization:     doc.Organization,
			Description:      doc.Description,
			Category:         doc.Category,
			Reference:        doc.Reference,
			Naics:            doc.NAICS,
			Province:         doc.Province,
			ContractValue:    doc.ContractValue,
			SourceName:       doc.SourceName,
			URL:              doc.URL,
			CombinedScore:    r.Combined(),
			LexicalRank:      r.LexicalRank(),
			CosineSimilarity: r.CosineSimilarity(),
			Highlight:        r.Highlight(),
		}
		if !doc.ClosingDate.IsZero() {
			item.ClosingDate = &types.Date{Time: doc.ClosingDate}
		}
		if !doc.CreatedAt.IsZero() {
			created := doc.CreatedAt
			item.CreatedAt = &created
		}
		items[i] = item
	}

	info := resp.Info
	return searchResponseDTO{
		Results:        items,
		Total:          resp.Page.Total,
		Offset:         resp.Page.Offset,
		Limit:          resp.Page.Limit,
		HasMore:        resp.Page.HasMore,
		FiltersApplied: info.Filters,
		QueryInfo: queryInfoDTO{
			OriginalQuery: info.OriginalQuery,
			ParsedQuery:   info.ParsedQuery,
			Filters:       info.Filters,
			FieldFilters:  info.FieldFilters,
			Wildcards:     emptySlice(info.Wildcards),
			HasErrors:     info.HasErrors,
			ErrorMessage:  info.ErrorMessage,
			Warnings:      info.Warnings,
		},
	}
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// tenderUpsertDTO is the PUT /tenders/{id} body written by the ingestion
// pipeline.
type tenderUpsertDTO struct {
	Title         string      `json:"title"`
	Organization  string      `json:"organization,omitempty"`
	Description   string      `json:"description,omitempty"`
	Category      string      `json:"category,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	Naics         string      `json:"naics,omitempty"`
	Province      string      `json:"province,omitempty"`
	ContractValue string      `json:"contract_value,omitempty"`
	ClosingDate   *types.Date `json:"closing_date,omitempty"`
	SourceName    string      `json:"source_name,omitempty"`
	URL           string      `json:"url,omitempty"`
}

func (t *tenderUpsertDTO) toDomain(id string) domain.Document {
	doc := domain.Document{
		ID:            id,
		Title:         strings.TrimSpace(t.Title),
		Organization:  t.Organization,
		Description:   t.Description,
		Category:      t.Category,
		Reference:     t.Reference,
		NAICS:         t.Naics,
		Province:      t.Province,
		ContractValue: t.ContractValue,
		SourceName:    t.SourceName,
		URL:           t.URL,
	}
	if t.ClosingDate != nil {
		doc.ClosingDate = t.ClosingDate.Time
	}
	return doc
}

type tenderResponseDTO struct {
	searchResultItemDTO
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func tenderToDTO(doc *domain.Document) tenderResponseDTO {
	out := tenderResponseDTO{
		searchResultItemDTO: searchResultItemDTO{
			ID:            doc.ID,
			Title:         doc.Title,
			Organization:  doc.Organization,
			Description:   doc.Description,
			Category:      doc.Category,
			Reference:     doc.Reference,
			Naics:         doc.NAICS,
			Province:      doc.Province,
			ContractValue: doc.ContractValue,
			SourceName:    doc.SourceName,
			URL:           doc.URL,
		},
	}
	if !doc.ClosingDate.IsZero() {
		out.ClosingDate = &types.Date{Time: doc.ClosingDate}
	}
	if !doc.CreatedAt.IsZero() {
		created := doc.CreatedAt
		out.CreatedAt = &created
	}
	if !doc.UpdatedAt.IsZero() {
		updated := doc.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

type suggestionDTO struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
}

type suggestionsResponseDTO struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type exampleDTO struct {
	Query       string `json:"query"`
	Description string `json:"description"`
	Advanced    bool   `json:"advanced"`
}

type statisticsResponseDTO struct {
	Documents    int     `json:"documents"`
	Terms        int     `json:"terms"`
	AvgDocTokens float64 `json:"avg_doc_tokens"`
}

func formatLimit(limit int, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
