package report

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateEmpty(t *testing.T) {
	out := Aggregate(nil)
	if out == nil || out.DeckTotal != 0 || len(out.Items) != 0 {
		t.Errorf("Aggregate(nil) = %+v, want empty report", out)
	}
}

func TestAggregateSingleReportIdentity(t *testing.T) {
	r := &ParsedReport{
		DeckTotal: 100,
		Items:     []CardUsageItem{{Name: "Iono", Found: 70, Total: 100, Pct: 70}},
	}

	out := Aggregate([]*ParsedReport{r})
	if out != r {
		t.Error("single-report aggregation should return the input unchanged")
	}
}

func TestAggregateTwoTournaments(t *testing.T) {
	t1, _ := Parse([]byte(`{"deckTotal": 100, "items": [{"name": "Card X", "found": 20, "total": 100}]}`))
	t2, _ := Parse([]byte(`{"deckTotal": 50, "items": [{"name": "Card X", "found": 30, "total": 50}]}`))

	out := Aggregate([]*ParsedReport{t1, t2})
	if out.DeckTotal != 150 {
		t.Errorf("DeckTotal = %d, want 150", out.DeckTotal)
	}
	if len(out.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(out.Items))
	}

	item := out.Items[0]
	if item.Found != 50 || item.Total != 150 {
		t.Errorf("counts = %d/%d, want 50/150", item.Found, item.Total)
	}
	if !almostEqual(item.Pct, 100.0*50/150) {
		t.Errorf("Pct = %v, want ~33.3", item.Pct)
	}
}

func TestAggregateMergesByUIDThenName(t *testing.T) {
	a := &ParsedReport{DeckTotal: 10, Items: []CardUsageItem{
		{Name: "Night Stretcher", UID: "Night Stretcher::SFA::061", Found: 4, Total: 10},
		{Name: "Rare Candy", Found: 8, Total: 10},
	}}
	b := &ParsedReport{DeckTotal: 20, Items: []CardUsageItem{
		{Name: "Night Stretcher", UID: "Night Stretcher::SFA::061", Found: 10, Total: 20},
		{Name: "RARE CANDY", Found: 12, Total: 20},
		{Name: "Night Stretcher", UID: "Night Stretcher::SSP::251", Found: 2, Total: 20},
	}}

	out := Aggregate([]*ParsedReport{a, b})
	if len(out.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3 (variants stay separate)", len(out.Items))
	}

	byKey := map[string]CardUsageItem{}
	for _, item := range out.Items {
		byKey[item.IdentityKey()] = item
	}

	if got := byKey["Night Stretcher::SFA::061"]; got.Found != 14 || got.Total != 30 {
		t.Errorf("SFA variant = %d/%d, want 14/30", got.Found, got.Total)
	}
	if got := byKey["rare candy"]; got.Found != 20 || got.Total != 30 {
		t.Errorf("name-keyed merge = %d/%d, want 20/30", got.Found, got.Total)
	}
	if got := byKey["Night Stretcher::SSP::251"]; got.Found != 2 || got.Total != 20 {
		t.Errorf("SSP variant = %d/%d, want 2/20", got.Found, got.Total)
	}
}

func TestAggregateMergesDistributions(t *testing.T) {
	a := &ParsedReport{DeckTotal: 10, Items: []CardUsageItem{
		{Name: "Ultra Ball", Found: 6, Total: 10, Dist: []DistEntry{{Copies: 4, Players: 4}, {Copies: 3, Players: 2}}},
	}}
	b := &ParsedReport{DeckTotal: 10, Items: []CardUsageItem{
		{Name: "Ultra Ball", Found: 4, Total: 10, Dist: []DistEntry{{Copies: 4, Players: 3}, {Copies: 1, Players: 1}}},
	}}

	out := Aggregate([]*ParsedReport{a, b})
	item := out.Items[0]
	want := []DistEntry{
		{Copies: 1, Players: 1},
		{Copies: 3, Players: 2},
		{Copies: 4, Players: 7},
	}
	if len(item.Dist) != len(want) {
		t.Fatalf("Dist = %+v", item.Dist)
	}
	for i := range want {
		if item.Dist[i].Copies != want[i].Copies || item.Dist[i].Players != want[i].Players {
			t.Errorf("Dist[%d] = %+v, want %+v", i, item.Dist[i], want[i])
		}
	}
}

// Summing found/total is order-independent, so pairwise aggregation must
// agree with aggregating all reports at once.
func TestAggregateAssociativity(t *testing.T) {
	a := &ParsedReport{DeckTotal: 10, Items: []CardUsageItem{{Name: "Card X", Found: 2, Total: 10}}}
	b := &ParsedReport{DeckTotal: 20, Items: []CardUsageItem{{Name: "Card X", Found: 8, Total: 20}}}
	c := &ParsedReport{DeckTotal: 30, Items: []CardUsageItem{{Name: "Card X", Found: 15, Total: 30}}}

	all := Aggregate([]*ParsedReport{a, b, c})
	nested := Aggregate([]*ParsedReport{Aggregate([]*ParsedReport{a, b}), c})

	if all.DeckTotal != nested.DeckTotal {
		t.Errorf("DeckTotal %d != %d", all.DeckTotal, nested.DeckTotal)
	}
	if len(all.Items) != 1 || len(nested.Items) != 1 {
		t.Fatalf("unexpected item counts %d/%d", len(all.Items), len(nested.Items))
	}
	x, y := all.Items[0], nested.Items[0]
	if x.Found != y.Found || x.Total != y.Total || !almostEqual(x.Pct, y.Pct) {
		t.Errorf("flat %+v != nested %+v", x, y)
	}
}

// The same numbers must come out differently depending on whether they
// describe variants within one field or the same card across two fields.
func TestVariantVersusTournamentTotalSemantics(t *testing.T) {
	items := []CardUsageItem{
		{Name: "Card X", UID: "Card X::AAA::001", Found: 10, Total: 200},
		{Name: "Card X", UID: "Card X::BBB::002", Found: 5, Total: 200},
	}

	combined, _ := CombineVariants(items, []string{"Card X::AAA::001", "Card X::BBB::002"})
	if combined == nil {
		t.Fatal("expected combined variant item")
	}

	a := &ParsedReport{DeckTotal: 200, Items: []CardUsageItem{{Name: "Card X", Found: 10, Total: 200}}}
	b := &ParsedReport{DeckTotal: 200, Items: []CardUsageItem{{Name: "Card X", Found: 5, Total: 200}}}
	aggregated := Aggregate([]*ParsedReport{a, b})

	if combined.Total != 200 {
		t.Errorf("variant combination summed total: %d", combined.Total)
	}
	if aggregated.Items[0].Total != 400 {
		t.Errorf("tournament aggregation kept total: %d", aggregated.Items[0].Total)
	}
	if combined.Total == aggregated.Items[0].Total {
		t.Error("variant and tournament merges must not agree on total")
	}
}

func TestAggregateSkipsNilReports(t *testing.T) {
	a := &ParsedReport{DeckTotal: 10, Items: []CardUsageItem{{Name: "Card X", Found: 2, Total: 10}}}

	out := Aggregate([]*ParsedReport{a, nil, nil})
	if out.DeckTotal != 10 || len(out.Items) != 1 {
		t.Errorf("nil reports should contribute nothing, got %+v", out)
	}
}
