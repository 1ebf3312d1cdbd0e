package engine

import (
	"github.com/stretchr/testify/require"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
	"github.com/ndrandal/market-sim/go-market/internal/ledger"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
	Fatalf(format string, args ...any)
}

func rampTrend(t testingT) catalog.TrendCurve {
	t.Helper()
	values := make([]float64, catalog.TrendLength)
	for i := range values {
		values[i] = float64(i) / float64(catalog.TrendLength-1)
	}
	c, err := catalog.NewTrendCurve(values)
	require.NoError(t, err)
	return c
}

func testCatalog(t testingT) *catalog.Catalog {
	t.Helper()
	trend := rampTrend(t)
	c, err := catalog.New([]catalog.Product{
		{
			ID: "TRI", Name: "Tritanium", Volume: 2.5, BasePrice: 100, PlayerImpact: 0.01,
			MinPrice: 0.5, MaxPrice: 1.5, Trends: trend, Rarity: catalog.RarityCommon,
			StackReplenishment: 5, SellStackRatio: 0.5, MaxQuantity: 40, Info: "Hull plating.",
		},
		{
			ID: "NFX", Name: "Nanofiber", Volume: 1, BasePrice: 40, PlayerImpact: 0.02,
			MinPrice: 0.8, MaxPrice: 1.2, Trends: trend, Rarity: catalog.RarityNormal,
			StackReplenishment: 3, SellStackRatio: 0.8, MaxQuantity: 25, Info: "Woven cable.",
		},
		{
			ID: "ORE", Name: "Deep Ore", Volume: 10, BasePrice: 250, PlayerImpact: 0.005,
			MinPrice: 0.6, MaxPrice: 1.8, Trends: trend, Rarity: catalog.RarityRare,
			StackReplenishment: 2, SellStackRatio: 0.25, MaxQuantity: 12, Info: "Raw and heavy.",
		},
	})
	require.NoError(t, err)
	return c
}

func newTestMarket(t testingT, money int64, opts Options) (*Market, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(money, ledger.DefaultMaxVolume)
	m := NewMarket(testCatalog(t), l, NewRNG(42), opts)
	return m, l
}

// setListing pins a product's state so trades see a known price.
func setListing(t testingT, m *Market, id string, quantity int, price int64) *listing {
	t.Helper()
	l := m.find(id)
	require.NotNil(t, l, "listing %s", id)
	l.quantity = quantity
	l.price = price
	l.basePrice = price
	l.impact = 0
	return l
}

func checkBounds(t testingT, m *Market) {
	t.Helper()
	for i := range m.listings {
		l := &m.listings[i]
		if l.quantity < 0 || l.quantity > l.product.MaxQuantity {
			t.Fatalf("%s: quantity = %d; want within [0, %d]", l.product.ID, l.quantity, l.product.MaxQuantity)
		}
		if l.price < 1 {
			t.Fatalf("%s: price = %d; want >= 1", l.product.ID, l.price)
		}
		if l.pointer < 0 || l.pointer >= l.product.Trends.Len() {
			t.Fatalf("%s: trend pointer = %d; want within [0, %d)", l.product.ID, l.pointer, l.product.Trends.Len())
		}
		if l.impact < -MaxImpact || l.impact > MaxImpact {
			t.Fatalf("%s: impact = %f; want within [-%v, %v]", l.product.ID, l.impact, MaxImpact, MaxImpact)
		}
	}
	if m.OccupiedVolume().GreaterThan(m.MaxVolume()) {
		t.Fatalf("occupied volume %s exceeds max %s", m.OccupiedVolume(), m.MaxVolume())
	}
	if m.Money() < 0 {
		t.Fatalf("money = %d; want >= 0", m.Money())
	}
}
