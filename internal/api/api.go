// Package api exposes the market to UI clients over HTTP. Every handler
// reaches the market through the host loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ndrandal/market-sim/go-market/internal/catalog"
	"github.com/ndrandal/market-sim/go-market/internal/engine"
	"github.com/ndrandal/market-sim/go-market/internal/host"
	"github.com/ndrandal/market-sim/go-market/internal/news"
)

// ClientCounter reports connected feed clients.
type ClientCounter interface {
	ClientCount() int
}

// Server provides the REST endpoints. market and feed are only touched on
// the loop goroutine; vendors is immutable.
type Server struct {
	loop    *host.Loop
	market  *engine.Market
	vendors *catalog.Vendors
	feed    *news.Feed
	clients ClientCounter
	startAt time.Time
}

func NewServer(loop *host.Loop, market *engine.Market, vendors *catalog.Vendors, feed *news.Feed, clients ClientCounter) *Server {
	return &Server{
		loop:    loop,
		market:  market,
		vendors: vendors,
		feed:    feed,
		clients: clients,
		startAt: time.Now(),
	}
}

// Register attaches API routes to r. Routes live on r itself so a method
// mismatch answers 405 rather than 404.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/products", s.handleProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", s.handleProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/vendors/{productId}", s.handleVendor).Methods(http.MethodGet)
	r.HandleFunc("/api/news/next", s.handleNextNews).Methods(http.MethodGet)
	r.HandleFunc("/api/cycle", s.handleCycle).Methods(http.MethodGet)
	r.HandleFunc("/api/player", s.handlePlayer).Methods(http.MethodGet)
	r.HandleFunc("/api/trade/buy", s.handleTrade(engine.SideBuy)).Methods(http.MethodPost)
	r.HandleFunc("/api/trade/sell", s.handleTrade(engine.SideSell)).Methods(http.MethodPost)
	r.HandleFunc("/api/pause", s.handlePause).Methods(http.MethodPost)
}

// Router builds a router with the API routes and any extra handlers, such
// as the WebSocket feed, mounted alongside.
func (s *Server) Router(extra map[string]http.Handler) *mux.Router {
	r := mux.NewRouter()
	for path, h := range extra {
		r.Handle(path, h)
	}
	s.Register(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLoopError reports a failure to reach the market loop.
func writeLoopError(w http.ResponseWriter, err error) {
	if errors.Is(err, host.ErrStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "market unavailable")
		return
	}
	slog.Error("market request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
