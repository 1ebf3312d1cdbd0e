package engine

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ndrandal/market-sim/go-market/internal/ledger"
)

// TradeResult is the outcome of a buy or sell attempt.
type TradeResult uint8

const (
	TradeOK TradeResult = iota
	TradeUnknownProduct
	TradeInvalidQuantity
	TradeInsufficientStock
	TradeInsufficientFunds
	TradeInsufficientCapacity
	TradeInsufficientOwned
)

var (
	ErrUnknownProduct    = errors.New("unknown product")
	ErrInsufficientStock = errors.New("insufficient market stock")
)

func (r TradeResult) OK() bool { return r == TradeOK }

// Err maps a failed result to a sentinel error, nil for TradeOK.
func (r TradeResult) Err() error {
	switch r {
	case TradeOK:
		return nil
	case TradeUnknownProduct:
		return ErrUnknownProduct
	case TradeInvalidQuantity:
		return ledger.ErrInvalidQuantity
	case TradeInsufficientStock:
		return ErrInsufficientStock
	case TradeInsufficientFunds:
		return ledger.ErrInsufficientFunds
	case TradeInsufficientCapacity:
		return ledger.ErrInsufficientCapacity
	case TradeInsufficientOwned:
		return ledger.ErrInsufficientOwned
	default:
		return errors.New("unknown trade result")
	}
}

func (r TradeResult) String() string {
	switch r {
	case TradeOK:
		return "ok"
	case TradeUnknownProduct:
		return "unknown_product"
	case TradeInvalidQuantity:
		return "invalid_quantity"
	case TradeInsufficientStock:
		return "insufficient_stock"
	case TradeInsufficientFunds:
		return "insufficient_funds"
	case TradeInsufficientCapacity:
		return "insufficient_capacity"
	case TradeInsufficientOwned:
		return "insufficient_owned"
	default:
		return "unknown"
	}
}

func (r TradeResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Side is the direction of a trade from the player's point of view.
type Side uint8

const (
	SideBuy Side = iota + 1
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Receipt describes a trade attempt. Only Result, Side, ProductID and
// Quantity are set when the attempt fails.
type Receipt struct {
	TradeID   uuid.UUID   `json:"tradeId"`
	Side      Side        `json:"side"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	Result    TradeResult `json:"result"`
	UnitPrice int64       `json:"unitPrice"`
	Total     int64       `json:"total"`
	NewPrice  int64       `json:"newPrice"`
	Money     int64       `json:"money"`
}

func (r Receipt) OK() bool { return r.Result.OK() }
