// Package ledger tracks the player's money and owned cargo against a
// storage-volume cap. Volume is kept in exact decimal arithmetic.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	DefaultStartingMoney int64   = 10000
	DefaultMaxVolume     float64 = 1000
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientCapacity = errors.New("insufficient storage capacity")
	ErrInsufficientOwned    = errors.New("insufficient owned quantity")
)

// Entry is a read-only view of one owned product.
type Entry struct {
	ProductID string
	Quantity  int
	Volume    decimal.Decimal
}

type holding struct {
	quantity   int
	unitVolume decimal.Decimal
}

// Ledger is not safe for concurrent use.
type Ledger struct {
	money     int64
	maxVolume decimal.Decimal
	occupied  decimal.Decimal
	owned     map[string]*holding
}

// New creates an empty ledger with the given balance and volume cap.
func New(startingMoney int64, maxVolume float64) *Ledger {
	return &Ledger{
		money:     startingMoney,
		maxVolume: decimal.NewFromFloat(maxVolume),
		occupied:  decimal.Zero,
		owned:     make(map[string]*holding),
	}
}

func (l *Ledger) Money() int64 { return l.money }

// CanAfford reports whether amount can be debited.
func (l *Ledger) CanAfford(amount int64) bool {
	return amount <= l.money
}

// Debit removes amount from the balance.
func (l *Ledger) Debit(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit %d: %w", amount, ErrInvalidQuantity)
	}
	if !l.CanAfford(amount) {
		return fmt.Errorf("debit %d with balance %d: %w", amount, l.money, ErrInsufficientFunds)
	}
	l.money -= amount
	return nil
}

// Credit adds amount to the balance. Negative amounts are ignored.
func (l *Ledger) Credit(amount int64) {
	if amount > 0 {
		l.money += amount
	}
}

func (l *Ledger) MaxVolume() decimal.Decimal { return l.maxVolume }

// Occupied is the total volume of everything owned.
func (l *Ledger) Occupied() decimal.Decimal { return l.occupied }

// Remaining is the free storage volume.
func (l *Ledger) Remaining() decimal.Decimal {
	return l.maxVolume.Sub(l.occupied)
}

// Fits reports whether qty units of unitVolume fit in the remaining space.
func (l *Ledger) Fits(qty int, unitVolume float64) bool {
	return volumeOf(qty, decimal.NewFromFloat(unitVolume)).LessThanOrEqual(l.Remaining())
}

// Owned returns the held quantity of productID, 0 when none.
func (l *Ledger) Owned(productID string) int {
	if h, ok := l.owned[productID]; ok {
		return h.quantity
	}
	return 0
}

// OwnedVolume returns the volume taken by productID.
func (l *Ledger) OwnedVolume(productID string) decimal.Decimal {
	h, ok := l.owned[productID]
	if !ok {
		return decimal.Zero
	}
	return volumeOf(h.quantity, h.unitVolume)
}

// Add stores qty units of productID, creating the entry if needed.
func (l *Ledger) Add(productID string, qty int, unitVolume float64) error {
	if qty <= 0 {
		return fmt.Errorf("add %d of %s: %w", qty, productID, ErrInvalidQuantity)
	}
	if !l.Fits(qty, unitVolume) {
		return fmt.Errorf("add %d of %s: %w", qty, productID, ErrInsufficientCapacity)
	}

	h, ok := l.owned[productID]
	if !ok {
		h = &holding{unitVolume: decimal.NewFromFloat(unitVolume)}
		l.owned[productID] = h
	}
	h.quantity += qty
	l.occupied = l.occupied.Add(volumeOf(qty, h.unitVolume))
	return nil
}

// Remove takes qty units of productID out of storage. The entry is deleted
// when it reaches zero.
func (l *Ledger) Remove(productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("remove %d of %s: %w", qty, productID, ErrInvalidQuantity)
	}
	h, ok := l.owned[productID]
	if !ok || h.quantity < qty {
		return fmt.Errorf("remove %d of %s (own %d): %w", qty, productID, l.Owned(productID), ErrInsufficientOwned)
	}

	h.quantity -= qty
	l.occupied = l.occupied.Sub(volumeOf(qty, h.unitVolume))
	if h.quantity == 0 {
		delete(l.owned, productID)
	}
	return nil
}

// Entries returns the owned products sorted by id.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, 0, len(l.owned))
	for id, h := range l.owned {
		out = append(out, Entry{ProductID: id, Quantity: h.quantity, Volume: volumeOf(h.quantity, h.unitVolume)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func volumeOf(qty int, unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}
