package polymarket

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAPIMarketToDomain(t *testing.T) {
	raw := `{
		"id": "123",
		"question": "Will X happen by Friday?",
		"conditionId": "0xabc",
		"slug": "will-x-happen",
		"active": "true",
		"closed": false,
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.62\",\"0.38\"]",
		"clobTokenIds": "[\"111\",\"222\"]",
		"volume24hr": "15230.5",
		"liquidityNum": 8000,
		"endDate": "2026-09-01T12:00:00Z"
	}`

	var m APIMarket
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	dm := m.ToDomainMarket()
	if dm.ConditionID != "0xabc" || dm.Question != "Will X happen by Friday?" {
		t.Fatalf("market = %+v", dm)
	}
	if dm.TokenIDYes != "111" || dm.TokenIDNo != "222" {
		t.Fatalf("tokens = %q/%q, want 111/222", dm.TokenIDYes, dm.TokenIDNo)
	}
	if dm.PriceYes != 0.62 || dm.PriceNo != 0.38 {
		t.Fatalf("prices = %v/%v, want 0.62/0.38", dm.PriceYes, dm.PriceNo)
	}
	// volume24hr arrives as a string here, liquidityNum as a number.
	if dm.Volume24h != 15230.5 || dm.Liquidity != 8000 {
		t.Fatalf("volume/liquidity = %v/%v", dm.Volume24h, dm.Liquidity)
	}
	if dm.EndDate == nil || !dm.EndDate.Equal(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("end date = %v", dm.EndDate)
	}
}

func TestAPIMarketFallsBackToID(t *testing.T) {
	m := APIMarket{ID: "456", ClobTokenIDs: `["1","2"]`, OutcomePrices: `[]`}
	dm := m.ToDomainMarket()
	if dm.ConditionID != "456" {
		t.Fatalf("condition id = %q, want id fallback", dm.ConditionID)
	}
}

func TestAPIMarketNonBinaryTokens(t *testing.T) {
	m := APIMarket{ConditionID: "0xabc", ClobTokenIDs: `["1","2","3"]`}
	dm := m.ToDomainMarket()
	if dm.TokenIDYes != "" || dm.TokenIDNo != "" {
		t.Fatalf("multi-outcome market must convert with empty tokens: %+v", dm)
	}
}

func TestAPIBookToSnapshot(t *testing.T) {
	book := APIBook{
		AssetID: "111",
		Bids: []APIBookLevel{
			{Price: "0.48", Size: "100"},
			{Price: "0.50", Size: "200"},
			{Price: "bogus", Size: "10"},
			{Price: "0.49", Size: "0"},
		},
		Asks: []APIBookLevel{
			{Price: "0.55", Size: "50"},
			{Price: "0.52", Size: "75"},
		},
		Timestamp: "1756000000000",
	}

	snap := book.ToSnapshot()
	if snap.AssetID != "111" {
		t.Fatalf("asset = %q", snap.AssetID)
	}
	if len(snap.Bids) != 2 || snap.Bids[0].Price != 0.50 {
		t.Fatalf("bids = %+v, want sorted desc without bad levels", snap.Bids)
	}
	if len(snap.Asks) != 2 || snap.Asks[0].Price != 0.52 {
		t.Fatalf("asks = %+v, want sorted asc", snap.Asks)
	}
	if snap.Timestamp.UnixMilli() != 1756000000000 {
		t.Fatalf("timestamp = %v", snap.Timestamp)
	}
}

func TestAPIBookSecondsTimestamp(t *testing.T) {
	snap := (&APIBook{Timestamp: "1756000000"}).ToSnapshot()
	if snap.Timestamp.Unix() != 1756000000 {
		t.Fatalf("timestamp = %v, want epoch-seconds tolerance", snap.Timestamp)
	}
}

func TestFlexFloat(t *testing.T) {
	var doc struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 1.5, "b": "2.5", "c": ""}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.A != 1.5 || doc.B != 2.5 || doc.C != 0 {
		t.Fatalf("flexFloat = %v/%v/%v", doc.A, doc.B, doc.C)
	}
}

func TestAPIOpenOrderMatched(t *testing.T) {
	o := APIOpenOrder{SizeMatched: "42.5"}
	if o.Matched() != 42.5 {
		t.Fatalf("matched = %v", o.Matched())
	}
	o.SizeMatched = "garbage"
	if o.Matched() != 0 {
		t.Fatalf("bad size should parse to 0, got %v", o.Matched())
	}
}
