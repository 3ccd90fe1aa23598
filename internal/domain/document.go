package domain

import "time"

// Document is a tender notice as seen by search. It is written by the
// ingestion pipeline and read-only everywhere else; the search core never
// mutates one.
type Document struct {
	ID           string
	Title        string
	Organization string
	Description  string
	Category     string
	Reference    string
	NAICS        string
	Province     string
	// ContractValue is free text as scraped ("$1,200,000", "1.2M CAD").
	// Use Value() when a numeric comparison is needed.
	ContractValue string
	ClosingDate   time.Time
	SourceName    string
	URL           string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Body returns the concatenated searchable text, in stable field order.
// The lexical index entry is derived from this projection.
func (d *Document) Body() []FieldText {
	return []FieldText{
		{Field: FieldTitle, Text: d.Title},
		{Field: FieldDescription, Text: d.Description},
		{Field: FieldOrganization, Text: d.Organization},
		{Field: FieldCategory, Text: d.Category},
		{Field: FieldReference, Text: d.Reference},
		{Field: FieldNAICS, Text: d.NAICS},
	}
}

// Value extracts a numeric contract value from the free-text field.
// Returns false when no digits are present.
func (d *Document) Value() (float64, bool) {
	return ParseMoney(d.ContractValue)
}

// Searchable field names. These are the lexical index columns and the
// targets of field-prefix filters.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldOrganization = "organization"
	FieldCategory     = "category"
	FieldReference    = "reference"
	FieldNAICS        = "naics"
	FieldProvince     = "province"
	FieldSource       = "source_name"
)

// FieldText pairs a field name with its raw text.
type FieldText struct {
	Field string
	Text  string
}

// ParseMoney pulls the first numeric amount out of a free-text value,
// tolerating currency symbols, thousands separators and K/M suffixes.
func ParseMoney(s string) (float64, bool) {
	var (
		mantissa   float64
		frac       float64
		fracScale  float64
		inNumber   bool
		inFraction bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			inNumber = true
			if inFraction {
				frac = frac*10 + float64(c-'0')
				fracScale *= 10
			} else {
				mantissa = mantissa*10 + float64(c-'0')
			}
		case c == ',' && inNumber:
			// thousands separator
		case c == '.' && inNumber && !inFraction:
			inFraction = true
			fracScale = 1
		default:
			if inNumber {
				return applySuffix(s[i:], mantissa, frac, fracScale), true
			}
		}
	}
	if !inNumber {
		return 0, false
	}
	return applySuffix("", mantissa, frac, fracScale), true
}

func applySuffix(rest string, mantissa, frac, fracScale float64) float64 {
	v := mantissa
	if fracScale > 0 {
		v += frac / fracScale
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ':
			continue
		case 'k', 'K':
			return v * 1_000
		case 'm', 'M':
			return v * 1_000_000
		case 'b', 'B':
			return v * 1_000_000_000
		default:
			return v
		}
	}
	return v
}
