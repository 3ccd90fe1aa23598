package request

// SortBy is the result ordering field.
type SortBy string

// Sort field constants.
const (
	// SortRelevance orders by the hybrid combined score.
	SortRelevance    SortBy = "relevance"
	SortCreatedAt    SortBy = "created_at"
	SortClosingDate  SortBy = "closing_date"
	SortTitle        SortBy = "title"
	SortOrganization SortBy = "organization"
)

// IsValid checks if the sort field is one of the supported values.
func (s SortBy) IsValid() bool {
	switch s {
	case SortRelevance, SortCreatedAt, SortClosingDate, SortTitle, SortOrganization:
		return true
	}
	return false
}

// SortOrder is the result ordering direction.
type SortOrder string

// Sort order constants.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// IsValid checks if the order is one of the supported values.
func (o SortOrder) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}
