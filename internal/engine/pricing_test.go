package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestImpactPolicy_Multiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy ImpactPolicy
		impact float64
		want   float64
	}{
		{"damped zero", DampedImpact, 0, 1},
		{"damped positive", DampedImpact, 0.25, 0.95},
		{"damped positive floor", DampedImpact, 0.5, 0.9},
		{"damped negative", DampedImpact, -0.25, 1.05},
		{"damped negative ceiling", DampedImpact, -0.5, 1.1},
		{"undamped positive", UndampedImpact, 0.3, 0.7},
		{"undamped positive floor", UndampedImpact, 0.8, 0.5},
		{"undamped negative", UndampedImpact, -0.3, 1.3},
		{"undamped negative ceiling", UndampedImpact, -0.9, 1.5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.policy.Multiplier(tt.impact), 1e-12)
		})
	}
}

func TestImpactPolicy_BuyingLowersSellingRaises(t *testing.T) {
	t.Parallel()

	for _, p := range []ImpactPolicy{DampedImpact, UndampedImpact} {
		assert.Less(t, p.Multiplier(0.1), 1.0, "%s: positive impact", p)
		assert.Greater(t, p.Multiplier(-0.1), 1.0, "%s: negative impact", p)
	}
}

func TestImpactPolicy_MultiplierBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		policy := rapid.SampledFrom([]ImpactPolicy{DampedImpact, UndampedImpact}).Draw(t, "policy")
		impact := rapid.Float64Range(-MaxImpact, MaxImpact).Draw(t, "impact")

		got := policy.Multiplier(impact)
		if got < policy.Floor || got > policy.Ceiling {
			t.Fatalf("Multiplier(%v) = %v; want within [%v, %v]", impact, got, policy.Floor, policy.Ceiling)
		}
		if impact > 0 && got > 1 {
			t.Fatalf("Multiplier(%v) = %v; want <= 1 for positive impact", impact, got)
		}
		if impact < 0 && got < 1 {
			t.Fatalf("Multiplier(%v) = %v; want >= 1 for negative impact", impact, got)
		}
	})
}

func TestParseImpactPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseImpactPolicy("Undamped")
	require.NoError(t, err)
	assert.Equal(t, UndampedImpact, p)

	p, err = ParseImpactPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DampedImpact, p)

	_, err = ParseImpactPolicy("wild")
	assert.Error(t, err)
}

func TestBaseTrendPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.5, BaseTrendPrice(0, 0.5, 1.5))
	assert.Equal(t, 1.5, BaseTrendPrice(1, 0.5, 1.5))
	assert.Equal(t, 1.0, BaseTrendPrice(0.5, 0.5, 1.5))
}

func TestRoundPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1), roundPrice(0))
	assert.Equal(t, int64(1), roundPrice(-4))
	assert.Equal(t, int64(1), roundPrice(0.4))
	assert.Equal(t, int64(3), roundPrice(2.5))
	assert.Equal(t, int64(42), roundPrice(41.6))
}

// With the random factor and impact held fixed, a higher trend value never
// yields a lower price.
func TestTerms_MonotonicInTrend(t *testing.T) {
	cat := testCatalog(t)
	prod, _ := cat.FindByID("TRI")
	pricer := NewPricer(NewRNG(1), DefaultRandomInfluence, DampedImpact)

	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 48).Draw(t, "pointer")
		b := rapid.IntRange(a+1, 49).Draw(t, "higher")
		impact := rapid.Float64Range(-MaxImpact, MaxImpact).Draw(t, "impact")
		factor := rapid.Float64Range(1-DefaultRandomInfluence, 1+DefaultRandomInfluence).Draw(t, "factor")

		lo := pricer.Terms(prod, a, impact, factor)
		hi := pricer.Terms(prod, b, impact, factor)
		if hi.BaseTrendPrice < lo.BaseTrendPrice {
			t.Fatalf("BaseTrendPrice at %d = %v; lower than %v at %d", b, hi.BaseTrendPrice, lo.BaseTrendPrice, a)
		}
		if hi.Price < lo.Price {
			t.Fatalf("Price at %d = %d; lower than %d at %d", b, hi.Price, lo.Price, a)
		}
	})
}

func TestTerms_PriceFloor(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	prod, _ := cat.FindByID("NFX")
	cheap := *prod
	cheap.BasePrice = 0

	pricer := NewPricer(NewRNG(1), DefaultRandomInfluence, UndampedImpact)
	terms := pricer.Terms(&cheap, 0, MaxImpact, 1)
	assert.Equal(t, int64(1), terms.PriceWithoutImpact)
	assert.Equal(t, int64(1), terms.Price)
}

func TestCalculate_RandomFactorBounded(t *testing.T) {
	t.Parallel()

	m, _ := newTestMarket(t, 0, DefaultOptions())
	l := m.find("TRI")
	l.pointer = 24
	want := BaseTrendPrice(l.product.Trends.At(24), l.product.MinPrice, l.product.MaxPrice) * float64(l.product.BasePrice)

	for i := 0; i < 500; i++ {
		m.pricer.Calculate(l)
		assert.GreaterOrEqual(t, float64(l.basePrice), want*(1-DefaultRandomInfluence)-0.5)
		assert.LessOrEqual(t, float64(l.basePrice), want*(1+DefaultRandomInfluence)+0.5)
	}
}

func TestRecomputeFromImpactOnly_UsesCachedBase(t *testing.T) {
	t.Parallel()

	m, _ := newTestMarket(t, 0, DefaultOptions())
	l := setListing(t, m, "TRI", 10, 200)

	l.impact = 0.5
	m.pricer.RecomputeFromImpactOnly(l)
	assert.Equal(t, int64(180), l.price, "damped floor 0.9 of 200")
	assert.Equal(t, int64(200), l.basePrice)
	assert.False(t, l.trendUp)

	l.impact = -0.5
	m.pricer.RecomputeFromImpactOnly(l)
	assert.Equal(t, int64(220), l.price)
	assert.True(t, l.trendUp)
}

func TestSetPrice_EqualKeepsTrend(t *testing.T) {
	t.Parallel()

	l := &listing{price: 50, trendUp: true}
	l.setPrice(50)
	assert.True(t, l.trendUp)

	l.setPrice(40)
	assert.False(t, l.trendUp)
	l.setPrice(40)
	assert.False(t, l.trendUp)
	l.setPrice(41)
	assert.True(t, l.trendUp)
}
