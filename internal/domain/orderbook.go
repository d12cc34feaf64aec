package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a validated snapshot of bids and asks for a token.
// Bids are ordered descending by price, asks ascending; the platform layer
// guarantees this ordering before a snapshot enters the core.
type OrderbookSnapshot struct {
	AssetID   string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the highest bid price, or 0 when the bid side is empty.
func (s OrderbookSnapshot) BestBid() float64 {
	if len(s.Bids) == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 1 when the ask side is empty
// (prices are probability-like, bounded by 1).
func (s OrderbookSnapshot) BestAsk() float64 {
	if len(s.Asks) == 0 {
		return 1
	}
	return s.Asks[0].Price
}

// MidPrice returns the midpoint between best bid and best ask. With one
// side empty it degrades to the midpoint against the 0/1 bound; with both
// sides empty it returns 0.5, the uninformative prior for a binary market.
func (s OrderbookSnapshot) MidPrice() float64 {
	if len(s.Bids) == 0 && len(s.Asks) == 0 {
		return 0.5
	}
	return (s.BestBid() + s.BestAsk()) / 2
}
