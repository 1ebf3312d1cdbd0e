package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
)

// DefaultRandomInfluence is the half-width of the per-cycle random price factor.
const DefaultRandomInfluence = 0.025

// ImpactPolicy turns accumulated player impact into a price multiplier.
// Impact is scaled by Damping; positive values pull the multiplier down to
// no less than Floor, negative values push it up to no more than Ceiling.
type ImpactPolicy struct {
	Name    string
	Damping float64
	Floor   float64
	Ceiling float64
}

var (
	DampedImpact   = ImpactPolicy{Name: "damped", Damping: 0.2, Floor: 0.9, Ceiling: 1.1}
	UndampedImpact = ImpactPolicy{Name: "undamped", Damping: 1.0, Floor: 0.5, Ceiling: 1.5}
)

// ParseImpactPolicy looks a policy up by name, case-insensitively.
func ParseImpactPolicy(name string) (ImpactPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DampedImpact.Name:
		return DampedImpact, nil
	case UndampedImpact.Name:
		return UndampedImpact, nil
	default:
		return ImpactPolicy{}, fmt.Errorf("unknown impact policy %q", name)
	}
}

func (p ImpactPolicy) String() string { return p.Name }

// Multiplier returns the price multiplier for the given accumulated impact.
// Positive impact (net buying) lowers the price toward Floor; negative
// impact (net selling) raises it toward Ceiling.
func (p ImpactPolicy) Multiplier(impact float64) float64 {
	d := impact * p.Damping
	switch {
	case d > 0:
		return math.Max(p.Floor, 1-d)
	case d < 0:
		return math.Min(p.Ceiling, 1+math.Abs(d))
	default:
		return 1
	}
}

// BaseTrendPrice remaps a normalized trend value onto [minPrice, maxPrice].
func BaseTrendPrice(trendValue, minPrice, maxPrice float64) float64 {
	return minPrice + trendValue*(maxPrice-minPrice)
}

// roundPrice rounds to the nearest unit and floors at 1.
func roundPrice(v float64) int64 {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return int64(math.Round(v))
}

// PriceTerms are the intermediate values of one full price computation.
type PriceTerms struct {
	TrendValue         float64
	BaseTrendPrice     float64
	RandomFactor       float64
	PriceWithoutImpact int64
	Impact             float64
	Multiplier         float64
	Price              int64
}

// Pricer computes listing prices from trend position, a bounded random
// factor and player impact.
type Pricer struct {
	rng             *RNG
	randomInfluence float64
	policy          ImpactPolicy
}

func NewPricer(rng *RNG, randomInfluence float64, policy ImpactPolicy) *Pricer {
	return &Pricer{rng: rng, randomInfluence: randomInfluence, policy: policy}
}

func (p *Pricer) Policy() ImpactPolicy { return p.policy }

// Terms computes a price for the given inputs without touching any state.
func (p *Pricer) Terms(prod *catalog.Product, pointer int, impact, randomFactor float64) PriceTerms {
	t := PriceTerms{
		TrendValue:   prod.Trends.At(pointer),
		RandomFactor: randomFactor,
		Impact:       impact,
	}
	t.BaseTrendPrice = BaseTrendPrice(t.TrendValue, prod.MinPrice, prod.MaxPrice)
	t.PriceWithoutImpact = roundPrice(float64(prod.BasePrice) * t.BaseTrendPrice * randomFactor)
	t.Multiplier = p.policy.Multiplier(impact)
	t.Price = roundPrice(t.Multiplier * float64(t.PriceWithoutImpact))
	return t
}

// Calculate runs a full recompute on l with a fresh random factor.
func (p *Pricer) Calculate(l *listing) {
	factor := p.rng.Float64Range(1-p.randomInfluence, 1+p.randomInfluence)
	t := p.Terms(l.product, l.pointer, l.impact, factor)

	l.basePrice = t.PriceWithoutImpact
	l.setPrice(t.Price)

	slog.Debug("price computed",
		"product", l.product.ID,
		"trend_pointer", l.pointer,
		"trend_value", t.TrendValue,
		"base_trend_price", t.BaseTrendPrice,
		"random_factor", t.RandomFactor,
		"impact", t.Impact,
		"multiplier", t.Multiplier,
		"price", l.price,
		"trend_up", l.trendUp,
	)
}

// RecomputeFromImpactOnly reapplies the impact multiplier to the cached
// price-without-impact.
func (p *Pricer) RecomputeFromImpactOnly(l *listing) {
	mult := p.policy.Multiplier(l.impact)
	l.setPrice(roundPrice(mult * float64(l.basePrice)))

	slog.Debug("price recomputed from impact",
		"product", l.product.ID,
		"impact", l.impact,
		"multiplier", mult,
		"price", l.price,
		"trend_up", l.trendUp,
	)
}
