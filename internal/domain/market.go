package domain

import "time"

// Market represents a binary-outcome Polymarket market. TokenIDYes and
// TokenIDNo are the ERC-1155 outcome token ids used as instrument keys by
// the detector and the orderbook layer.
type Market struct {
	ConditionID string
	Question    string
	Slug        string
	TokenIDYes  string
	TokenIDNo   string
	PriceYes    float64
	PriceNo     float64
	Volume24h   float64
	Liquidity   float64
	EndDate     *time.Time
}

// Tradeable reports whether the market carries enough liquidity to be
// scanned for spikes.
func (m Market) Tradeable(minLiquidity float64) bool {
	return m.Liquidity >= minLiquidity
}
