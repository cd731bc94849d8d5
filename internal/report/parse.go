package report

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Parse normalizes a raw report payload into a ParsedReport. The input is
// expected to look like {deckTotal, items: [...]} but is not trusted: missing
// or mistyped fields degrade to zero values, items without a name are
// dropped, and every tolerated irregularity is reported as a Diagnostic.
// Parse never fails; partial tournament data is a normal condition upstream.
func Parse(raw []byte) (*ParsedReport, []Diagnostic) {
	parsed := &ParsedReport{Items: []CardUsageItem{}}
	var diags []Diagnostic

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		if len(raw) > 0 {
			diags = append(diags, Diagnostic{Index: -1, Reason: "payload is not a JSON object"})
		}
		return parsed, diags
	}

	if dt := root.Get("deckTotal"); dt.Exists() {
		if dt.Type == gjson.Number {
			parsed.DeckTotal = int(dt.Int())
		} else {
			diags = append(diags, Diagnostic{Index: -1, Field: "deckTotal", Reason: "non-numeric deckTotal"})
		}
	}

	items := root.Get("items")
	if !items.Exists() {
		return parsed, diags
	}
	if !items.IsArray() {
		diags = append(diags, Diagnostic{Index: -1, Field: "items", Reason: "items is not an array"})
		return parsed, diags
	}

	idx := 0
	items.ForEach(func(_, rawItem gjson.Result) bool {
		item, itemDiags := parseItem(rawItem, idx)
		diags = append(diags, itemDiags...)
		if item != nil {
			parsed.Items = append(parsed.Items, *item)
		}
		idx++
		return true
	})

	return parsed, diags
}

func parseItem(raw gjson.Result, idx int) (*CardUsageItem, []Diagnostic) {
	if !raw.IsObject() {
		return nil, []Diagnostic{{Index: idx, Reason: "item is not an object"}}
	}

	name := raw.Get("name").String()
	if name == "" {
		return nil, []Diagnostic{{Index: idx, Reason: "item has no name"}}
	}

	var diags []Diagnostic
	item := &CardUsageItem{
		Name:     name,
		UID:      raw.Get("uid").String(),
		Set:      raw.Get("set").String(),
		Number:   raw.Get("number").String(),
		Category: raw.Get("category").String(),
		Rank:     int(raw.Get("rank").Int()),
	}

	item.Found, diags = coerceCount(raw.Get("found"), idx, "found", diags)
	item.Total, diags = coerceCount(raw.Get("total"), idx, "total", diags)

	if pct := raw.Get("pct"); pct.Exists() && pct.Type == gjson.Number {
		item.Pct = pct.Float()
	} else {
		item.Pct = pctOf(item.Found, item.Total)
	}

	if dist := raw.Get("dist"); dist.IsArray() {
		dist.ForEach(func(_, entry gjson.Result) bool {
			copies := entry.Get("copies")
			players := entry.Get("players")
			if copies.Type != gjson.Number || players.Type != gjson.Number {
				diags = append(diags, Diagnostic{
					Index:  idx,
					Field:  "dist",
					Reason: fmt.Sprintf("dropped malformed dist entry for %q", name),
				})
				return true
			}
			item.Dist = append(item.Dist, DistEntry{
				Copies:  int(copies.Int()),
				Players: int(players.Int()),
				Percent: entry.Get("percent").Float(),
			})
			return true
		})
	}

	return item, diags
}

func coerceCount(v gjson.Result, idx int, field string, diags []Diagnostic) (int, []Diagnostic) {
	if !v.Exists() {
		return 0, diags
	}
	if v.Type != gjson.Number {
		return 0, append(diags, Diagnostic{Index: idx, Field: field, Reason: "non-numeric " + field})
	}
	return int(v.Int()), diags
}
