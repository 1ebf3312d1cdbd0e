package engine

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
	"github.com/ndrandal/market-sim/go-market/internal/ledger"
)

const (
	// DefaultCycleLength is the cycle interval in seconds.
	DefaultCycleLength = 5.0

	// cycleEpsilon absorbs float drift when many small frame deltas add up to
	// exactly one cycle.
	cycleEpsilon = 1e-9
)

// Options configure a Market.
type Options struct {
	CycleLength     float64 // seconds
	Speed           float64 // multiplier applied to every tick delta
	RandomInfluence float64
	Policy          ImpactPolicy
	Paused          bool
}

func DefaultOptions() Options {
	return Options{
		CycleLength:     DefaultCycleLength,
		Speed:           1,
		RandomInfluence: DefaultRandomInfluence,
		Policy:          DampedImpact,
	}
}

// Market runs the price cycle and the trade protocol over a catalog and a
// player ledger. It is single-threaded: every call must come from the same
// goroutine, usually the host frame loop.
type Market struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	rng      *RNG
	pricer   *Pricer
	listings []listing // parallel to catalog.Products()

	cycleLength float64
	speed       float64
	cycleTime   float64
	cycle       uint64
	paused      bool

	subscribers []func(Event)
}

// NewMarket builds a market and draws its random initial state.
func NewMarket(cat *catalog.Catalog, l *ledger.Ledger, rng *RNG, opts Options) *Market {
	def := DefaultOptions()
	if opts.CycleLength <= 0 {
		opts.CycleLength = def.CycleLength
	}
	if opts.Speed <= 0 {
		opts.Speed = def.Speed
	}
	if opts.RandomInfluence < 0 {
		opts.RandomInfluence = def.RandomInfluence
	}
	if opts.Policy.Name == "" {
		opts.Policy = def.Policy
	}

	products := cat.Products()
	listings := make([]listing, len(products))
	for i := range products {
		listings[i].product = &products[i]
	}

	m := &Market{
		catalog:     cat,
		ledger:      l,
		rng:         rng,
		pricer:      NewPricer(rng, opts.RandomInfluence, opts.Policy),
		listings:    listings,
		cycleLength: opts.CycleLength,
		speed:       opts.Speed,
		paused:      opts.Paused,
	}
	m.InitializeRandomState()
	return m
}

// InitializeRandomState draws stock, trend position and trend flag for every
// product, clears impact and computes a first price.
func (m *Market) InitializeRandomState() {
	for i := range m.listings {
		l := &m.listings[i]
		l.quantity = m.rng.IntRange(0, l.product.MaxQuantity)
		l.pointer = m.rng.IntRange(0, l.product.Trends.Len()-1)
		l.impact = 0
		l.price = 0
		trendUp := m.rng.Bool()

		m.pricer.Calculate(l)
		// There is no previous price to compare against.
		l.trendUp = trendUp

		slog.Debug("product initialized",
			"product", l.product.ID,
			"quantity", l.quantity,
			"max", l.product.MaxQuantity,
			"trend_pointer", l.pointer,
			"price", l.price,
		)
	}
}

// Subscribe registers fn for every market event. Handlers run synchronously
// on the caller's goroutine and must not call back into the Market.
func (m *Market) Subscribe(fn func(Event)) {
	m.subscribers = append(m.subscribers, fn)
}

func (m *Market) emit(ev Event) {
	for _, fn := range m.subscribers {
		fn(ev)
	}
}

// Tick advances the cycle timer by delta seconds scaled by the speed
// multiplier and fires at most one cycle. It reports whether a cycle ran.
func (m *Market) Tick(delta float64) bool {
	if m.paused || delta <= 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return false
	}
	m.cycleTime += delta * m.speed
	if m.cycleTime+cycleEpsilon < m.cycleLength {
		return false
	}
	m.cycleTime = 0
	m.CycleStep()
	return true
}

// CycleStep advances every product one trend position, decays impact,
// restocks and reprices, then emits CycleCompleted.
func (m *Market) CycleStep() {
	m.cycle++
	for i := range m.listings {
		l := &m.listings[i]
		l.pointer = l.product.Trends.Advance(l.pointer)
		l.decayImpact()
		l.replenish(m.rng)
		m.pricer.Calculate(l)
	}

	slog.Info("market cycle", "cycle", m.cycle, "products", len(m.listings))
	m.emit(CycleCompleted{Cycle: m.cycle, Quotes: m.Quotes()})
}

func (m *Market) SetPaused(p bool) { m.paused = p }
func (m *Market) Paused() bool     { return m.paused }

// SetSpeed changes the tick multiplier. Non-positive values are ignored.
func (m *Market) SetSpeed(s float64) {
	if s > 0 && !math.IsInf(s, 0) {
		m.speed = s
	}
}

func (m *Market) Speed() float64 { return m.speed }

func (m *Market) Cycle() uint64 { return m.cycle }

// CycleElapsed is the time accumulated toward the next cycle.
func (m *Market) CycleElapsed() float64 { return m.cycleTime }

// CycleRemaining is the time left until the next cycle, never negative.
func (m *Market) CycleRemaining() float64 {
	return math.Max(0, m.cycleLength-m.cycleTime)
}

func (m *Market) CycleLength() float64 { return m.cycleLength }

func (m *Market) CycleStatus() CycleStatus {
	return CycleStatus{
		Cycle:     m.cycle,
		Elapsed:   m.CycleElapsed(),
		Remaining: m.CycleRemaining(),
		Length:    m.cycleLength,
		Speed:     m.speed,
		Paused:    m.paused,
	}
}

func (m *Market) find(id string) *listing {
	i, ok := m.catalog.Index(id)
	if !ok {
		return nil
	}
	return &m.listings[i]
}

// Quote returns a snapshot of one product.
func (m *Market) Quote(id string) (Quote, bool) {
	l := m.find(id)
	if l == nil {
		return Quote{}, false
	}
	return l.quote(), true
}

// Quotes returns snapshots of every product in catalog order.
func (m *Market) Quotes() []Quote {
	out := make([]Quote, len(m.listings))
	for i := range m.listings {
		out[i] = m.listings[i].quote()
	}
	return out
}

func (m *Market) Money() int64 { return m.ledger.Money() }

func (m *Market) Owned(id string) int { return m.ledger.Owned(id) }

func (m *Market) OwnedVolume(id string) decimal.Decimal { return m.ledger.OwnedVolume(id) }

func (m *Market) OccupiedVolume() decimal.Decimal { return m.ledger.Occupied() }

func (m *Market) MaxVolume() decimal.Decimal { return m.ledger.MaxVolume() }

// InventoryValue is the owned stock valued at current market prices.
func (m *Market) InventoryValue() int64 {
	var total int64
	for _, e := range m.ledger.Entries() {
		if l := m.find(e.ProductID); l != nil {
			total += int64(e.Quantity) * l.price
		}
	}
	return total
}

// Portfolio returns the player's full position.
func (m *Market) Portfolio() Portfolio {
	entries := m.ledger.Entries()
	p := Portfolio{
		Money:     m.ledger.Money(),
		Occupied:  m.ledger.Occupied(),
		MaxVolume: m.ledger.MaxVolume(),
		Holdings:  make([]Holding, 0, len(entries)),
	}
	for _, e := range entries {
		h := Holding{ProductID: e.ProductID, Quantity: e.Quantity, Volume: e.Volume}
		if l := m.find(e.ProductID); l != nil {
			h.Name = l.product.Name
			h.Price = l.price
			h.Value = int64(e.Quantity) * l.price
		}
		p.Value += h.Value
		p.Holdings = append(p.Holdings, h)
	}
	return p
}
