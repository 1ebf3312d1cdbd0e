package engine

import (
	"github.com/shopspring/decimal"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
)

// Quote is a value snapshot of one product's market state.
type Quote struct {
	ProductID          string         `json:"productId"`
	Name               string         `json:"name"`
	Quantity           int            `json:"quantity"`
	MaxQuantity        int            `json:"maxQuantity"`
	Price              int64          `json:"price"`
	PriceWithoutImpact int64          `json:"priceWithoutImpact"`
	Impact             float64        `json:"impact"`
	TrendUp            bool           `json:"trendUp"`
	TrendPointer       int            `json:"trendPointer"`
	Rarity             catalog.Rarity `json:"rarity"`
	Volume             float64        `json:"volume"`
	Info               string         `json:"info"`
}

// Holding is one owned product valued at the current market price.
type Holding struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Volume    decimal.Decimal `json:"volume"`
	Price     int64           `json:"price"`
	Value     int64           `json:"value"`
}

// Portfolio is a snapshot of the player's position.
type Portfolio struct {
	Money     int64           `json:"money"`
	Occupied  decimal.Decimal `json:"occupiedVolume"`
	MaxVolume decimal.Decimal `json:"maxVolume"`
	Value     int64           `json:"inventoryValue"`
	Holdings  []Holding       `json:"holdings"`
}

// CycleStatus reports the cycle timer.
type CycleStatus struct {
	Cycle     uint64  `json:"cycle"`
	Elapsed   float64 `json:"elapsed"`
	Remaining float64 `json:"remaining"`
	Length    float64 `json:"length"`
	Speed     float64 `json:"speed"`
	Paused    bool    `json:"paused"`
}

// Event is a market notification delivered to subscribers.
type Event interface {
	marketEvent()
}

// CycleCompleted is emitted after every cycle step.
type CycleCompleted struct {
	Cycle  uint64
	Quotes []Quote
}

// TradeExecuted is emitted after every successful buy or sell.
type TradeExecuted struct {
	Cycle   uint64
	Receipt Receipt
	Quote   Quote
}

func (CycleCompleted) marketEvent() {}
func (TradeExecuted) marketEvent()  {}
