package engine

import (
	"log/slog"
	"math"

	"github.com/google/uuid"
)

// ValidateBuy checks, in order: product exists, quantity is positive, the
// market has enough stock, the player can pay, and the goods fit in storage.
func (m *Market) ValidateBuy(id string, qty int) TradeResult {
	res, _ := m.checkBuy(id, qty)
	return res
}

func (m *Market) checkBuy(id string, qty int) (TradeResult, *listing) {
	l := m.find(id)
	switch {
	case l == nil:
		slog.Warn("buy rejected: product not found", "product", id)
		return TradeUnknownProduct, nil
	case qty <= 0:
		slog.Warn("buy rejected: invalid quantity", "product", id, "quantity", qty)
		return TradeInvalidQuantity, l
	case qty > l.quantity:
		slog.Warn("buy rejected: not enough stock", "product", id, "quantity", qty, "stock", l.quantity)
		return TradeInsufficientStock, l
	case !m.ledger.CanAfford(int64(qty) * l.price):
		slog.Warn("buy rejected: not enough money", "product", id, "cost", int64(qty)*l.price, "money", m.ledger.Money())
		return TradeInsufficientFunds, l
	case !m.ledger.Fits(qty, l.product.Volume):
		slog.Warn("buy rejected: not enough storage", "product", id,
			"required", float64(qty)*l.product.Volume, "remaining", m.ledger.Remaining().String())
		return TradeInsufficientCapacity, l
	}
	return TradeOK, l
}

// Buy purchases qty units from the market. Nothing changes unless the
// result is TradeOK.
func (m *Market) Buy(id string, qty int) Receipt {
	rc := Receipt{Side: SideBuy, ProductID: id, Quantity: qty}

	res, l := m.checkBuy(id, qty)
	if !res.OK() {
		rc.Result = res
		return rc
	}

	cost := int64(qty) * l.price
	if err := m.ledger.Add(id, qty, l.product.Volume); err != nil {
		slog.Error("buy failed after validation", "product", id, "err", err)
		rc.Result = TradeInsufficientCapacity
		return rc
	}
	if err := m.ledger.Debit(cost); err != nil {
		_ = m.ledger.Remove(id, qty)
		slog.Error("buy failed after validation", "product", id, "err", err)
		rc.Result = TradeInsufficientFunds
		return rc
	}

	rc.UnitPrice = l.price
	rc.Total = cost
	l.quantity -= qty
	l.applyImpact(l.product.PlayerImpact * float64(qty))
	m.pricer.RecomputeFromImpactOnly(l)

	return m.settle(rc, l)
}

// ValidateSell checks that the product exists and the player owns at least
// qty units. The market always accepts returned stock.
func (m *Market) ValidateSell(id string, qty int) TradeResult {
	res, _ := m.checkSell(id, qty)
	return res
}

func (m *Market) checkSell(id string, qty int) (TradeResult, *listing) {
	l := m.find(id)
	switch {
	case l == nil:
		slog.Warn("sell rejected: product not found", "product", id)
		return TradeUnknownProduct, nil
	case qty <= 0:
		slog.Warn("sell rejected: invalid quantity", "product", id, "quantity", qty)
		return TradeInvalidQuantity, l
	case m.ledger.Owned(id) < qty:
		slog.Warn("sell rejected: not enough owned", "product", id, "quantity", qty, "owned", m.ledger.Owned(id))
		return TradeInsufficientOwned, l
	}
	return TradeOK, l
}

// Sell returns qty units to the market at the current price. Market stock
// grows by qty scaled with the product's sell-stack ratio.
func (m *Market) Sell(id string, qty int) Receipt {
	rc := Receipt{Side: SideSell, ProductID: id, Quantity: qty}

	res, l := m.checkSell(id, qty)
	if !res.OK() {
		rc.Result = res
		return rc
	}

	if err := m.ledger.Remove(id, qty); err != nil {
		slog.Error("sell failed after validation", "product", id, "err", err)
		rc.Result = TradeInsufficientOwned
		return rc
	}
	proceeds := int64(qty) * l.price
	m.ledger.Credit(proceeds)

	rc.UnitPrice = l.price
	rc.Total = proceeds
	l.addStock(int(math.Round(float64(qty) * l.product.SellStackRatio)))
	l.applyImpact(-l.product.PlayerImpact * float64(qty))
	m.pricer.RecomputeFromImpactOnly(l)

	return m.settle(rc, l)
}

// settle completes a successful receipt and notifies subscribers.
func (m *Market) settle(rc Receipt, l *listing) Receipt {
	rc.Result = TradeOK
	rc.TradeID = uuid.New()
	rc.NewPrice = l.price
	rc.Money = m.ledger.Money()

	slog.Info("trade executed",
		"trade_id", rc.TradeID,
		"side", rc.Side,
		"product", rc.ProductID,
		"quantity", rc.Quantity,
		"unit_price", rc.UnitPrice,
		"total", rc.Total,
		"new_price", rc.NewPrice,
		"money", rc.Money,
	)
	m.emit(TradeExecuted{Cycle: m.cycle, Receipt: rc, Quote: l.quote()})
	return rc
}
