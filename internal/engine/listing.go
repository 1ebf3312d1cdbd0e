package engine

import (
	"log/slog"
	"math"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
)

const (
	// MaxImpact bounds accumulated player impact in both directions.
	MaxImpact = 0.5

	replenishMin = 0.75
	replenishMax = 1.25
)

// listing is the session state of one product on the market.
type listing struct {
	product   *catalog.Product
	quantity  int
	pointer   int
	price     int64
	basePrice int64 // price before the impact multiplier
	impact    float64
	trendUp   bool
}

// setPrice stores a new price and updates the trend flag. Equal prices keep
// the previous direction.
func (l *listing) setPrice(p int64) {
	switch {
	case p > l.price:
		l.trendUp = true
	case p < l.price:
		l.trendUp = false
	}
	l.price = p
}

// addStock increases quantity, capped at the product maximum.
func (l *listing) addStock(n int) {
	if n <= 0 {
		return
	}
	l.quantity = min(l.quantity+n, l.product.MaxQuantity)
}

// replenish restocks by the nominal rate scaled with a uniform random factor.
func (l *listing) replenish(rng *RNG) {
	m := rng.Float64Range(replenishMin, replenishMax)
	add := int(math.Round(float64(l.product.StackReplenishment) * m))
	before := l.quantity
	l.addStock(add)

	slog.Debug("stock replenished",
		"product", l.product.ID,
		"multiplier", m,
		"added", l.quantity-before,
		"quantity", l.quantity,
		"max", l.product.MaxQuantity,
	)
}

// decayImpact moves impact toward zero by one coefficient step without
// crossing zero.
func (l *listing) decayImpact() {
	step := l.product.PlayerImpact
	old := l.impact
	switch {
	case l.impact > 0:
		l.impact = math.Max(0, l.impact-step)
	case l.impact < 0:
		l.impact = math.Min(0, l.impact+step)
	default:
		return
	}
	if old != l.impact {
		slog.Debug("player impact decayed", "product", l.product.ID, "from", old, "to", l.impact)
	}
}

// applyImpact adds delta and clamps to [-MaxImpact, MaxImpact].
func (l *listing) applyImpact(delta float64) {
	l.impact = math.Max(-MaxImpact, math.Min(MaxImpact, l.impact+delta))
}

func (l *listing) quote() Quote {
	p := l.product
	return Quote{
		ProductID:          p.ID,
		Name:               p.Name,
		Quantity:           l.quantity,
		MaxQuantity:        p.MaxQuantity,
		Price:              l.price,
		PriceWithoutImpact: l.basePrice,
		Impact:             l.impact,
		TrendUp:            l.trendUp,
		TrendPointer:       l.pointer,
		Rarity:             p.Rarity,
		Volume:             p.Volume,
		Info:               p.Info,
	}
}
