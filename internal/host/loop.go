// Package host owns the market on a single goroutine. A frame ticker feeds
// wall-clock deltas into the market, and other goroutines reach it only by
// submitting closures that run between frames.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("host loop stopped")

// Ticker receives frame deltas in seconds.
type Ticker interface {
	Tick(delta float64) bool
}

type request struct {
	fn   func()
	done chan error
}

// Loop is the single owner of a Ticker and everything reachable from it.
type Loop struct {
	ticker   Ticker
	interval time.Duration
	inbox    chan request
	stopped  chan struct{}
}

// New creates a loop framing ticker every interval.
func New(ticker Ticker, interval time.Duration) *Loop {
	return &Loop{
		ticker:   ticker,
		interval: interval,
		inbox:    make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run drives frames and serves submitted closures until ctx is done.
// It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	tk := time.NewTicker(l.interval)
	defer tk.Stop()

	slog.Info("frame loop started", "interval", l.interval)
	last := time.Now()
	frames := uint64(0)

	for {
		select {
		case <-ctx.Done():
			slog.Info("frame loop stopping", "frames", frames)
			return nil
		case now := <-tk.C:
			delta := now.Sub(last).Seconds()
			last = now
			frames++
			l.ticker.Tick(delta)
		case req := <-l.inbox:
			req.done <- l.run(req.fn)
		}
	}
}

func (l *Loop) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in loop request", "panic", r)
			err = fmt.Errorf("loop request panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Do runs fn on the loop goroutine and waits for it to finish. ctx bounds
// only the wait for the loop to accept fn; once accepted fn always
// completes before Do returns.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan error, 1)}

	select {
	case l.inbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}

	return <-req.done
}

// Query runs fn on the loop and returns its result.
func Query[T any](ctx context.Context, l *Loop, fn func() T) (T, error) {
	var out T
	err := l.Do(ctx, func() { out = fn() })
	return out, err
}
