package domain

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"$1,200,000", 1_200_000, true},
		{"1200000", 1_200_000, true},
		{"$500K", 500_000, true},
		{"1.2M CAD", 1_200_000, true},
		{"2.5 B", 2_500_000_000, true},
		{"approx. $750k budget", 750_000, true},
		{"0", 0, true},
		{"see tender documents", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseMoney(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ParseMoney(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("ParseMoney(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDocument_Value(t *testing.T) {
	d := Document{ContractValue: "$2.4M"}
	v, ok := d.Value()
	if !ok || v != 2_400_000 {
		t.Errorf("Value = %v, %v", v, ok)
	}
	d.ContractValue = "TBD"
	if _, ok := d.Value(); ok {
		t.Error("expected no numeric value")
	}
}

func TestDocument_BodyFieldOrder(t *testing.T) {
	d := Document{
		Title:        "a",
		Description:  "b",
		Organization: "c",
		Category:     "d",
		Reference:    "e",
		NAICS:        "f",
	}
	body := d.Body()
	wantFields := []string{
		FieldTitle, FieldDescription, FieldOrganization,
		FieldCategory, FieldReference, FieldNAICS,
	}
	if len(body) != len(wantFields) {
		t.Fatalf("Body has %d fields, want %d", len(body), len(wantFields))
	}
	for i, ft := range body {
		if ft.Field != wantFields[i] {
			t.Errorf("Body[%d].Field = %s, want %s", i, ft.Field, wantFields[i])
		}
	}
}
