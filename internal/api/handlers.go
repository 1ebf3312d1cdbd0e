package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/ndrandal/market-sim/go-market/internal/engine"
	"github.com/ndrandal/market-sim/go-market/internal/host"
	"github.com/ndrandal/market-sim/go-market/internal/news"
)

const maxBodyBytes = 4096

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	quotes, err := host.Query(r.Context(), s.loop, s.market.Quotes)
	if err != nil {
		writeLoopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type quoteLookup struct {
	quote engine.Quote
	ok    bool
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	res, err := host.Query(r.Context(), s.loop, func() quoteLookup {
		q, ok := s.market.Quote(id)
		return quoteLookup{q, ok}
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}
	if !res.ok {
		writeError(w, http.StatusNotFound, "product not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, res.quote)
}

func (s *Server) handleVendor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["productId"]
	v, ok := s.vendors.ByProduct(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no vendor for product: "+id)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type newsLookup struct {
	item news.Item
	ok   bool
	pass int
}

func (s *Server) handleNextNews(w http.ResponseWriter, r *http.Request) {
	res, err := host.Query(r.Context(), s.loop, func() newsLookup {
		item, ok := s.feed.Next()
		return newsLookup{item, ok, s.feed.Pass()}
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}
	if !res.ok {
		writeError(w, http.StatusNotFound, "no news")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": res.item.Content, "pass": res.pass})
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	st, err := host.Query(r.Context(), s.loop, s.market.CycleStatus)
	if err != nil {
		writeLoopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	p, err := host.Query(r.Context(), s.loop, s.market.Portfolio)
	if err != nil {
		writeLoopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type tradeRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type tradeRejection struct {
	Error   string         `json:"error"`
	Reason  string         `json:"reason"`
	Receipt engine.Receipt `json:"receipt"`
}

func (s *Server) handleTrade(side engine.Side) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tradeRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.ProductID == "" || req.Quantity == nil {
			writeError(w, http.StatusBadRequest, "productId and quantity are required")
			return
		}

		rc, err := host.Query(r.Context(), s.loop, func() engine.Receipt {
			if side == engine.SideSell {
				return s.market.Sell(req.ProductID, *req.Quantity)
			}
			return s.market.Buy(req.ProductID, *req.Quantity)
		})
		if err != nil {
			writeLoopError(w, err)
			return
		}

		switch {
		case rc.OK():
			writeJSON(w, http.StatusOK, rc)
		case rc.Result == engine.TradeUnknownProduct:
			writeError(w, http.StatusNotFound, "product not found: "+req.ProductID)
		default:
			writeJSON(w, http.StatusConflict, tradeRejection{
				Error:   rc.Result.Err().Error(),
				Reason:  rc.Result.String(),
				Receipt: rc,
			})
		}
	}
}

type pauseRequest struct {
	Paused *bool `json:"paused"`
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Paused == nil {
		writeError(w, http.StatusBadRequest, "paused is required")
		return
	}

	st, err := host.Query(r.Context(), s.loop, func() engine.CycleStatus {
		s.market.SetPaused(*req.Paused)
		return s.market.CycleStatus()
	})
	if err != nil {
		writeLoopError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cycle, err := host.Query(r.Context(), s.loop, s.market.Cycle)
	if err != nil {
		writeLoopError(w, err)
		return
	}
	clients := 0
	if s.clients != nil {
		clients = s.clients.ClientCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"cycle":       cycle,
		"feedClients": clients,
		"uptime":      time.Since(s.startAt).Round(time.Second).String(),
		"started":     humanize.Time(s.startAt),
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}
