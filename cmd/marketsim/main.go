// Command marketsim runs the commodity market: it loads the catalog, vendor
// roster and news from the data directory, drives the cycle on a frame loop
// and serves the HTTP API and WebSocket feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/ndrandal/market-sim/go-market/internal/api"
	"github.com/ndrandal/market-sim/go-market/internal/catalog"
	"github.com/ndrandal/market-sim/go-market/internal/config"
	"github.com/ndrandal/market-sim/go-market/internal/engine"
	"github.com/ndrandal/market-sim/go-market/internal/host"
	"github.com/ndrandal/market-sim/go-market/internal/ledger"
	"github.com/ndrandal/market-sim/go-market/internal/logging"
	"github.com/ndrandal/market-sim/go-market/internal/news"
	"github.com/ndrandal/market-sim/go-market/internal/session"
	"github.com/ndrandal/market-sim/go-market/internal/wire"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "marketsim: %v\n", err)
		os.Exit(2)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marketsim: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("market simulator failed", "err", err)
		closer.Close()
		os.Exit(1)
	}
	slog.Info("market simulator stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	slog.Info("market simulator starting", "data", cfg.Data.Path, "seed", cfg.Market.Seed)

	cat, err := catalog.Load(cfg.DataFile(catalog.ProductsFile))
	if err != nil {
		return err
	}
	vendors, err := catalog.LoadVendors(cfg.DataFile(catalog.VendorsFile))
	if err != nil {
		return err
	}

	rng := engine.NewRNG(cfg.Market.Seed)
	feed, err := news.Load(cfg.DataFile(news.File), rng)
	if err != nil {
		return err
	}

	policy, err := engine.ParseImpactPolicy(cfg.Market.ImpactPolicy)
	if err != nil {
		return err
	}
	l := ledger.New(cfg.Player.StartingMoney, cfg.Player.MaxVolume)
	market := engine.NewMarket(cat, l, rng, engine.Options{
		CycleLength:     cfg.Market.CycleLength.Seconds(),
		Speed:           cfg.Market.Speed,
		RandomInfluence: cfg.Market.RandomInfluence,
		Policy:          policy,
		Paused:          cfg.Market.Paused,
	})
	slog.Info("market ready",
		"products", cat.Len(),
		"vendors", vendors.Len(),
		"news", feed.Len(),
		"policy", policy,
		"money", humanize.Comma(l.Money()),
		"max_volume", humanize.Ftoa(cfg.Player.MaxVolume),
	)

	mgr := session.NewManager(cfg.Server.SendBuffer)
	market.Subscribe(mgr.Publish)
	market.Subscribe(logEvent)

	loop := host.New(market, cfg.Loop.FrameInterval)
	join := func(ctx context.Context, c *session.Client) error {
		return loop.Do(ctx, func() {
			mgr.Attach(c, wire.Snapshot(market.Cycle(), market.Quotes()))
		})
	}

	apiServer := api.NewServer(loop, market, vendors, feed, mgr)
	router := apiServer.Router(map[string]http.Handler{
		"/feed": session.Handler(mgr, join),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("http server listening",
			"api", "http://"+cfg.Server.Addr()+"/api",
			"feed", "ws://"+cfg.Server.Addr()+"/feed",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		mgr.CloseAll()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func logEvent(ev engine.Event) {
	if te, ok := ev.(engine.TradeExecuted); ok {
		slog.Debug("trade settled",
			"side", te.Receipt.Side,
			"product", te.Receipt.ProductID,
			"quantity", te.Receipt.Quantity,
			"total", humanize.Comma(te.Receipt.Total),
			"money", humanize.Comma(te.Receipt.Money),
		)
	}
}
