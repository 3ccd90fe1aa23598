package document

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/maplebid/tendex/internal/domain"
)

// Hash field names for the persisted tender record. Vector rides in the
// same hash under a dunder key so a tender and its embedding move
// together.
const (
	fTitle         = "title"
	fOrganization  = "organization"
	fDescription   = "description"
	fCategory      = "category"
	fReference     = "reference"
	fNAICS         = "naics"
	fProvince      = "province"
	fContractValue = "contract_value"
	fClosingDate   = "closing_date"
	fSourceName    = "source_name"
	fURL           = "url"
	fCreatedAt     = "created_at"
	fUpdatedAt     = "updated_at"
	fVector        = "__vector"
)

// buildHashFields converts a tender into a flat map[string]string for HSET.
func buildHashFields(doc *domain.Document, vec []float32) map[string]string {
	m := map[string]string{
		fTitle:         doc.Title,
		fOrganization:  doc.Organization,
		fDescription:   doc.Description,
		fCategory:      doc.Category,
		fReference:     doc.Reference,
		fNAICS:         doc.NAICS,
		fProvince:      doc.Province,
		fContractValue: doc.ContractValue,
		fSourceName:    doc.SourceName,
		fURL:           doc.URL,
	}
	if !doc.ClosingDate.IsZero() {
		m[fClosingDate] = doc.ClosingDate.Format(time.RFC3339)
	}
	if !doc.CreatedAt.IsZero() {
		m[fCreatedAt] = doc.CreatedAt.Format(time.RFC3339)
	}
	if !doc.UpdatedAt.IsZero() {
		m[fUpdatedAt] = doc.UpdatedAt.Format(time.RFC3339)
	}
	if len(vec) > 0 {
		m[fVector] = vectorToBytes(vec)
	}
	return m
}

// parseHashFields converts a flat hash map back into a tender and its
// embedding. Unparseable timestamps degrade to zero values.
func parseHashFields(id string, m map[string]string) (domain.Document, []float32) {
	doc := domain.Document{
		ID:            id,
		Title:         m[fTitle],
		Organization:  m[fOrganization],
		Description:   m[fDescription],
		Category:      m[fCategory],
		Reference:     m[fReference],
		NAICS:         m[fNAICS],
		Province:      m[fProvince],
		ContractValue: m[fContractValue],
		SourceName:    m[fSourceName],
		URL:           m[fURL],
	}
	doc.ClosingDate = parseTime(m[fClosingDate])
	doc.CreatedAt = parseTime(m[fCreatedAt])
	doc.UpdatedAt = parseTime(m[fUpdatedAt])
	return doc, bytesToVector(m[fVector])
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per
// float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
