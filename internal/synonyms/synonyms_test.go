package synonyms

import (
	"testing"
)

const samplePayload = `{
	"synonyms": {
		"Night Stretcher::SSP::251": "Night Stretcher::SFA::061",
		"Night Stretcher::SSP::114": "Night Stretcher::SFA::061",
		"Rare Candy::SVI::191": "Rare Candy::SVI::256"
	},
	"canonicals": {
		"Night Stretcher": "Night Stretcher::SFA::061"
	},
	"metadata": {"totalSynonyms": 3, "totalCanonicals": 1}
}`

func TestParseAndLookup(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("Len = %d, want 3", table.Len())
	}

	if got := table.Canonical("Night Stretcher::SSP::251"); got != "Night Stretcher::SFA::061" {
		t.Errorf("Canonical = %q", got)
	}
	if got := table.Canonical("Night Stretcher::SFA::061"); got != "Night Stretcher::SFA::061" {
		t.Errorf("canonical UID should map to itself, got %q", got)
	}
	if got := table.Canonical("Unknown Card::AAA::001"); got != "Unknown Card::AAA::001" {
		t.Errorf("unknown UID should map to itself, got %q", got)
	}

	canonical, ok := table.CanonicalForName("night stretcher")
	if !ok || canonical != "Night Stretcher::SFA::061" {
		t.Errorf("CanonicalForName = %q, %v", canonical, ok)
	}
}

func TestVariantsOf(t *testing.T) {
	table, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Canonical first, reprints in deterministic order after it.
	want := []string{
		"Night Stretcher::SFA::061",
		"Night Stretcher::SSP::114",
		"Night Stretcher::SSP::251",
	}
	for _, query := range []string{"Night Stretcher::SFA::061", "Night Stretcher::SSP::251"} {
		got := table.VariantsOf(query)
		if len(got) != len(want) {
			t.Fatalf("VariantsOf(%q) = %v", query, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("VariantsOf(%q)[%d] = %q, want %q", query, i, got[i], want[i])
			}
		}
	}

	if got := table.VariantsOf("Lone Card::AAA::001"); len(got) != 1 || got[0] != "Lone Card::AAA::001" {
		t.Errorf("VariantsOf unknown = %v", got)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestMergeFirstTableWins(t *testing.T) {
	a, _ := Parse([]byte(`{"synonyms": {"Card::AAA::001": "Card::BBB::001"}, "canonicals": {"Card": "Card::BBB::001"}}`))
	b, _ := Parse([]byte(`{"synonyms": {"Card::AAA::001": "Card::CCC::001", "Other::DDD::002": "Other::EEE::002"}, "canonicals": {}}`))

	merged := Merge(a, b, nil)
	if got := merged.Canonical("Card::AAA::001"); got != "Card::BBB::001" {
		t.Errorf("first-seen mapping should win, got %q", got)
	}
	if got := merged.Canonical("Other::DDD::002"); got != "Other::EEE::002" {
		t.Errorf("later table's new mappings should merge, got %q", got)
	}
	if merged.Len() != 2 {
		t.Errorf("Len = %d, want 2", merged.Len())
	}
}

func TestNilTableIsIdentity(t *testing.T) {
	var table *Table
	if got := table.Canonical("Card::AAA::001"); got != "Card::AAA::001" {
		t.Errorf("nil table Canonical = %q", got)
	}
	if got := table.VariantsOf("Card::AAA::001"); len(got) != 1 {
		t.Errorf("nil table VariantsOf = %v", got)
	}
	if _, ok := table.CanonicalForName("Card"); ok {
		t.Error("nil table should not resolve names")
	}
}
