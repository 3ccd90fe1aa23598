package filter

import (
	"testing"
	"time"

	"github.com/maplebid/tendex/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func f64(v float64) *float64 { return &v }

func tp(s string) *time.Time {
	t := date(s)
	return &t
}

func TestHard_IsZero(t *testing.T) {
	if !(&Hard{}).IsZero() {
		t.Error("empty Hard should be zero")
	}
	if (&Hard{Province: "ON"}).IsZero() {
		t.Error("Hard with province should not be zero")
	}
}

func TestHard_Matches(t *testing.T) {
	doc := domain.Document{
		ID:            "t1",
		Title:         "Bridge repair",
		Organization:  "Public Services and Procurement Canada",
		Province:      "British Columbia (BC)",
		NAICS:         "237310",
		ContractValue: "$1,200,000 CAD",
		ClosingDate:   date("2026-09-15"),
	}
	noValue := doc
	noValue.ContractValue = "see documents"
	noDate := doc
	noDate.ClosingDate = time.Time{}

	tests := []struct {
		name string
		h    Hard
		doc  domain.Document
		want bool
	}{
		{"zero filter", Hard{}, doc, true},
		{"province substring fold", Hard{Province: "bc"}, doc, true},
		{"province miss", Hard{Province: "ON"}, doc, false},
		{"naics prefix", Hard{NAICS: "237"}, doc, true},
		{"naics miss", Hard{NAICS: "541"}, doc, false},
		{"min value pass", Hard{MinValue: f64(1_000_000)}, doc, true},
		{"min value fail", Hard{MinValue: f64(2_000_000)}, doc, false},
		{"max value pass", Hard{MaxValue: f64(2_000_000)}, doc, true},
		{"max value fail", Hard{MaxValue: f64(1_000_000)}, doc, false},
		{"value bound, unparseable value", Hard{MinValue: f64(1)}, noValue, false},
		{"deadline before pass", Hard{DeadlineBefore: tp("2026-10-01")}, doc, true},
		{"deadline before fail", Hard{DeadlineBefore: tp("2026-09-01")}, doc, false},
		{"deadline after pass", Hard{DeadlineAfter: tp("2026-09-01")}, doc, true},
		{"deadline after fail", Hard{DeadlineAfter: tp("2026-10-01")}, doc, false},
		{"deadline bound, no closing date", Hard{DeadlineBefore: tp("2026-10-01")}, noDate, false},
		{
			"field any-of matches",
			Hard{Fields: map[string][]string{domain.FieldOrganization: {"defence", "procurement"}}},
			doc, true,
		},
		{
			"field any-of misses",
			Hard{Fields: map[string][]string{domain.FieldOrganization: {"defence"}}},
			doc, false,
		},
		{
			"field pattern value",
			Hard{Fields: map[string][]string{domain.FieldNAICS: {"237*"}}},
			doc, true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.h.Matches(&tc.doc); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHard_Applied(t *testing.T) {
	h := Hard{
		Province:       "ON",
		NAICS:          "237",
		MinValue:       f64(500000),
		DeadlineBefore: tp("2026-09-15"),
	}
	got := h.Applied()
	want := map[string]string{
		"province":        "ON",
		"naics":           "237",
		"min_value":       "500000",
		"deadline_before": "2026-09-15",
	}
	if len(got) != len(want) {
		t.Fatalf("Applied = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Applied[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"constr*", "construction", true},
		{"constr*", "construct", true},
		{"constr*", "contract", false},
		{"*tion", "construction", true},
		{"*tion", "constructions", false},
		{"pav?ng", "paving", true},
		{"pav?ng", "pavng", false},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "axxbyy", false},
		{"*", "anything", true},
		{"*", "", true},
		{"?", "", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, tc := range tests {
		t.Run(tc.pattern+"/"+tc.s, func(t *testing.T) {
			if got := PatternMatch(tc.pattern, tc.s); got != tc.want {
				t.Errorf("PatternMatch(%q, %q) = %v, want %v", tc.pattern, tc.s, got, tc.want)
			}
		})
	}
}
