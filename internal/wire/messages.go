// Package wire encodes market notifications for the WebSocket feed, as JSON
// text frames or as compact big-endian binary frames.
package wire

import (
	"errors"

	"github.com/ndrandal/market-sim/go-market/internal/engine"
)

// Kind names an envelope in JSON.
type Kind string

const (
	KindSnapshot Kind = "snapshot"
	KindCycle    Kind = "cycle"
	KindTrade    Kind = "trade"
)

// MsgType is the leading byte of every binary message.
type MsgType byte

const (
	MsgSnapshot MsgType = 'S'
	MsgCycle    MsgType = 'C'
	MsgTrade    MsgType = 'T'
	MsgQuote    MsgType = 'Q'
)

// Binary body sizes, excluding the 2-byte length prefix.
const (
	headerLen = 11 // Type(1) + Cycle(8) + Count(2)
	tradeLen  = 70 // Type(1) + Cycle(8) + TradeID(16) + Side(1) + Product(8) + Quantity(4) + UnitPrice(8) + Total(8) + NewPrice(8) + Money(8)
	quoteLen  = 44 // Type(1) + Product(8) + Quantity(4) + Max(4) + Price(8) + Base(8) + Impact(8) + TrendUp(1) + Pointer(1) + Rarity(1)
)

var (
	ErrShortFrame  = errors.New("short frame")
	ErrUnknownType = errors.New("unknown message type")
	ErrNoHeader    = errors.New("frame has no header message")
)

// Envelope is one feed notification.
type Envelope struct {
	Type   Kind            `json:"type"`
	Cycle  uint64          `json:"cycle"`
	Quotes []engine.Quote  `json:"quotes,omitempty"`
	Trade  *engine.Receipt `json:"trade,omitempty"`
	Quote  *engine.Quote   `json:"quote,omitempty"`
}

// Snapshot wraps the full quote board sent to a newly connected client.
func Snapshot(cycle uint64, quotes []engine.Quote) Envelope {
	return Envelope{Type: KindSnapshot, Cycle: cycle, Quotes: quotes}
}

// FromEvent converts a market event. ok is false for event types the feed
// does not carry.
func FromEvent(ev engine.Event) (Envelope, bool) {
	switch e := ev.(type) {
	case engine.CycleCompleted:
		return Envelope{Type: KindCycle, Cycle: e.Cycle, Quotes: e.Quotes}, true
	case engine.TradeExecuted:
		rc, q := e.Receipt, e.Quote
		return Envelope{Type: KindTrade, Cycle: e.Cycle, Trade: &rc, Quote: &q}, true
	default:
		return Envelope{}, false
	}
}

// PadProduct right-pads a product id to 8 bytes with spaces.
func PadProduct(id string) [8]byte {
	var b [8]byte
	copy(b[:], id)
	for i := len(id); i < 8; i++ {
		b[i] = ' '
	}
	return b
}
