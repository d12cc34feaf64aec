package domain

import (
	"math/big"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus tracks the lifecycle of a tracked resting order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// Order represents a signed limit order bound for the CLOB API.
type Order struct {
	ID          string
	TokenID     string
	Wallet      string
	Side        OrderSide
	Price       float64
	Size        float64
	MakerAmount *big.Int // integer notional used in the signed payload
	TakerAmount *big.Int // integer quantity used in the signed payload
	Signature   string   // EIP-712 hex
	CreatedAt   time.Time
}

// OrderResult wraps the API response after order submission.
type OrderResult struct {
	Success     bool
	OrderID     string
	Message     string
	ShouldRetry bool
}

// TrackedOrder is the lifecycle tracker's view of a submitted order.
// RemainingSize is monotonically non-increasing until the order reaches a
// terminal status.
type TrackedOrder struct {
	OrderID       string
	TokenID       string
	Price         float64
	OriginalSize  float64
	FilledSize    float64
	RemainingSize float64
	SpikePct      float64 // spike magnitude that motivated the order
	Params        *SmartOrderParams
	CreatedAt     time.Time
	Status        OrderStatus
}
