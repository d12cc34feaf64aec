// Package polymarket contains the REST and WebSocket clients for the
// Polymarket Gamma and CLOB APIs, plus the DTO conversions into domain
// types.
package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Jasuni69/mean-reversion/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Gamma mixes
// both encodings across fields and API versions.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes, OutcomePrices, and ClobTokenIDs arrive as JSON-encoded strings
// inside the JSON document, e.g. "[\"Yes\",\"No\"]".
type APIMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	ConditionID   string    `json:"conditionId"`
	Slug          string    `json:"slug"`
	Active        flexBool  `json:"active"`
	Closed        bool      `json:"closed"`
	Outcomes      string    `json:"outcomes"`
	OutcomePrices string    `json:"outcomePrices"`
	ClobTokenIDs  string    `json:"clobTokenIds"`
	Volume24h     flexFloat `json:"volume24hr"`
	Liquidity     flexFloat `json:"liquidityNum"`
	EndDate       string    `json:"endDate"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. Markets
// without exactly two outcome tokens (multi-outcome or malformed entries)
// convert to a Market with empty token ids, which the caller should skip.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Slug:        m.Slug,
		Volume24h:   float64(m.Volume24h),
		Liquidity:   float64(m.Liquidity),
	}
	if dm.ConditionID == "" {
		dm.ConditionID = m.ID
	}

	var tokenIDs []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err == nil && len(tokenIDs) == 2 {
		dm.TokenIDYes = tokenIDs[0]
		dm.TokenIDNo = tokenIDs[1]
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil && len(prices) == 2 {
		if p, err := strconv.ParseFloat(prices[0], 64); err == nil {
			dm.PriceYes = p
		}
		if p, err := strconv.ParseFloat(prices[1], 64); err == nil {
			dm.PriceNo = p
		}
	}

	if m.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
			dm.EndDate = &t
		}
	}

	return dm
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is a single price level in a CLOB book response; prices and
// sizes are decimal strings.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the /book response for a single token.
type APIBook struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// ToSnapshot converts an APIBook to a domain.OrderbookSnapshot with bids
// sorted descending and asks ascending, the ordering the core assumes.
// Levels that fail to parse or carry non-positive size are dropped.
func (b *APIBook) ToSnapshot() domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		AssetID: b.AssetID,
	}

	snap.Bids = parseLevels(b.Bids)
	snap.Asks = parseLevels(b.Asks)

	sort.Slice(snap.Bids, func(i, j int) bool { return snap.Bids[i].Price > snap.Bids[j].Price })
	sort.Slice(snap.Asks, func(i, j int) bool { return snap.Asks[i].Price < snap.Asks[j].Price })

	// Timestamps arrive as epoch milliseconds, but tolerate seconds too.
	if ts, err := strconv.ParseInt(b.Timestamp, 10, 64); err == nil {
		if ts > 1e12 {
			snap.Timestamp = time.UnixMilli(ts)
		} else {
			snap.Timestamp = time.Unix(ts, 0)
		}
	} else {
		snap.Timestamp = time.Now()
	}

	return snap
}

func parseLevels(levels []APIBookLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, lvl := range levels {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		s, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil || s <= 0 {
			continue
		}
		out = append(out, domain.PriceLevel{Price: p, Size: s})
	}
	return out
}

// APIOpenOrder is the subset of the CLOB open-order listing the bot needs
// to reconcile its tracked orders against the venue.
type APIOpenOrder struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
}

// Matched returns the matched size as a float, 0 on parse failure.
func (o *APIOpenOrder) Matched() float64 {
	v, err := strconv.ParseFloat(o.SizeMatched, 64)
	if err != nil {
		return 0
	}
	return v
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// ToDomainOrderResult converts an APIOrderResult to a domain.OrderResult.
func (r *APIOrderResult) ToDomainOrderResult() domain.OrderResult {
	return domain.OrderResult{
		Success:     r.Success,
		OrderID:     r.OrderID,
		Message:     r.ErrorMsg,
		ShouldRetry: r.ShouldRetry,
	}
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSBookMessage is a full orderbook snapshot delivered over the market
// WebSocket channel.
type WSBookMessage struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// ToSnapshot converts a WSBookMessage to a sorted domain snapshot.
func (m *WSBookMessage) ToSnapshot() domain.OrderbookSnapshot {
	book := APIBook{
		AssetID:   m.AssetID,
		Market:    m.Market,
		Bids:      m.Bids,
		Asks:      m.Asks,
		Timestamp: m.Timestamp,
	}
	return book.ToSnapshot()
}

// WSPriceMessage is the last-trade-price event for an asset.
type WSPriceMessage struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"`
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe or
// unsubscribe from asset channels.
type WSCommand struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}
