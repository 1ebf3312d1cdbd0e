// Command marketwatch connects to the market WebSocket feed and prints every
// snapshot, cycle and trade in human-readable form.
//
// Usage:
//
//	marketwatch                               # connect to localhost:8100 in binary mode
//	marketwatch -url ws://host:8100/feed      # custom endpoint
//	marketwatch -products TRI,NFX             # follow specific products
//	marketwatch -json                         # request JSON frames (pass-through print)
//	marketwatch -stats 10                     # print frame rate stats every N seconds
//	marketwatch -hex                          # also dump raw hex alongside decoded output
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/ndrandal/market-sim/go-market/internal/engine"
	"github.com/ndrandal/market-sim/go-market/internal/wire"
)

func main() {
	url := flag.String("url", "ws://localhost:8100/feed", "WebSocket endpoint")
	products := flag.String("products", "*", "Comma-separated product ids or * for all")
	useJSON := flag.Bool("json", false, "Request JSON format instead of binary")
	statsInterval := flag.Int("stats", 0, "Print frame rate stats every N seconds (0 = off)")
	showHex := flag.Bool("hex", false, "Print raw hex dump alongside decoded output")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	slog.Info("connecting", "url", *url)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		slog.Error("dial failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	format := wire.FormatBinary
	if *useJSON {
		format = wire.FormatJSON
	}
	mustSend(conn, map[string]any{"action": "format", "format": format.String()})
	if *products != "*" {
		mustSend(conn, map[string]any{"action": "subscribe", "products": strings.Split(*products, ",")})
	}
	slog.Info("connected", "products", *products, "format", format)

	var frames atomic.Uint64
	if *statsInterval > 0 {
		go reportStats(&frames, time.Duration(*statsInterval)*time.Second)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(200 * time.Millisecond)
		os.Exit(0)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			slog.Error("read failed", "err", err)
			os.Exit(1)
		}
		frames.Add(1)

		// The snapshot can arrive as JSON before the format switch applies.
		if msgType == websocket.TextMessage {
			fmt.Println(string(data))
			continue
		}

		if *showHex {
			printHex(os.Stdout, data)
		}
		env, err := wire.DecodeBinary(data)
		if err != nil {
			fmt.Printf("???      %v (%d bytes)\n", err, len(data))
			continue
		}
		printEnvelope(os.Stdout, env)
	}
}

func mustSend(conn *websocket.Conn, msg map[string]any) {
	data, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("send control failed", "err", err)
		os.Exit(1)
	}
}

func reportStats(frames *atomic.Uint64, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	var last uint64
	for range ticker.C {
		cur := frames.Load()
		rate := float64(cur-last) / every.Seconds()
		slog.Info("stats", "frames", humanize.Comma(int64(cur)), "per_sec", fmt.Sprintf("%.1f", rate))
		last = cur
	}
}

func printEnvelope(w io.Writer, env wire.Envelope) {
	switch env.Type {
	case wire.KindSnapshot, wire.KindCycle:
		label := "CYCLE"
		if env.Type == wire.KindSnapshot {
			label = "SNAPSHOT"
		}
		fmt.Fprintf(w, "%-8s cycle=%d products=%d\n", label, env.Cycle, len(env.Quotes))
		for i := range env.Quotes {
			printQuote(w, &env.Quotes[i])
		}
	case wire.KindTrade:
		rc := env.Trade
		fmt.Fprintf(w, "TRADE    cycle=%d %-4s %-8s qty=%d @ %s total=%s money=%s id=%s\n",
			env.Cycle, strings.ToUpper(rc.Side.String()), rc.ProductID, rc.Quantity,
			humanize.Comma(rc.UnitPrice), humanize.Comma(rc.Total), humanize.Comma(rc.Money), rc.TradeID)
		if env.Quote != nil {
			printQuote(w, env.Quote)
		}
	}
}

func printQuote(w io.Writer, q *engine.Quote) {
	arrow := "v"
	if q.TrendUp {
		arrow = "^"
	}
	fmt.Fprintf(w, "  %-8s %s price=%s base=%s impact=%+.3f stock=%d/%d trend=%d %s\n",
		q.ProductID, arrow, humanize.Comma(q.Price), humanize.Comma(q.PriceWithoutImpact),
		q.Impact, q.Quantity, q.MaxQuantity, q.TrendPointer, q.Rarity)
}

func printHex(w io.Writer, data []byte) {
	var sb strings.Builder
	sb.WriteString("         hex: ")
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			sb.WriteString("\n              ")
		}
		fmt.Fprintf(&sb, "%02x ", b)
	}
	fmt.Fprintln(w, sb.String())
}
