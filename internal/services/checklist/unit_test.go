package checklist

import (
	"reflect"
	"testing"
)

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "space and short digit", raw: "SM 1", expected: "SM01"},
		{name: "lower case", raw: "sm01", expected: "SM01"},
		{name: "empty", raw: "", expected: ""},
		{name: "hyphen", raw: "sm-01", expected: "SM01"},
		{name: "padded short", raw: "  pm4 ", expected: "PM04"},
		{name: "already canonical", raw: "CC70", expected: "CC70"},
		{name: "three digits untouched", raw: "CB002", expected: "CB002"},
		{name: "single letter untouched", raw: "S1", expected: "S1"},
		{name: "trailing letter untouched", raw: "sm1a", expected: "SM1A"},
		{name: "only punctuation", raw: " - / ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeUnit(tt.raw); got != tt.expected {
				t.Errorf("NormalizeUnit(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestNormalizeUnitIdempotent(t *testing.T) {
	for _, raw := range []string{"SM 1", "cb-2", "pr03", "IT 30", "x", "ABC1"} {
		once := NormalizeUnit(raw)
		if twice := NormalizeUnit(once); twice != once {
			t.Errorf("NormalizeUnit not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestRoster(t *testing.T) {
	r := NewRoster([]string{"sm1", "CB02", "SM01", ""})

	if got := r.Units(); !reflect.DeepEqual(got, []string{"SM01", "CB02"}) {
		t.Errorf("Units() = %v", got)
	}
	if !r.Contains("CB02") || r.Contains("PR03") {
		t.Error("Contains() mismatch")
	}
	if got := r.Display("SM01"); got != "sm1" {
		t.Errorf("Display(SM01) = %q, want configured spelling", got)
	}
	if got := r.Display("ZZ99"); got != "ZZ99" {
		t.Errorf("Display(ZZ99) = %q", got)
	}
}
