// Package store guards access to the user store behind a readiness gate.
//
// The gateway owns a background loop that probes the store connection,
// retries failed connects on a fixed delay forever, and re-enters the
// connect cycle when an established connection drops. Handlers never
// talk to the loop directly; they consult Ready through middleware.
package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// State describes the gateway connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Event records a state transition, published for observers.
type Event struct {
	From State
	To   State
	Err  error
}

// Pinger probes the underlying connection. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the reconnect loop.
type Options struct {
	// RetryDelay is the fixed wait between failed connect attempts.
	RetryDelay time.Duration
	// PingInterval is how often an established connection is probed.
	PingInterval time.Duration
	// PingTimeout bounds a single probe.
	PingTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 15 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	return o
}

// Gateway tracks store readiness. The background loop started by Run is
// the single writer of the state; Ready reads are advisory — a request
// may race a disconnect and fail at the store layer instead.
type Gateway struct {
	pinger Pinger
	logger *slog.Logger
	opts   Options

	state  atomic.Int32
	events chan Event
}

// NewGateway constructs a gateway around the given connection probe.
func NewGateway(pinger Pinger, logger *slog.Logger, opts Options) *Gateway {
	g := &Gateway{
		pinger: pinger,
		logger: logger,
		opts:   opts.withDefaults(),
		events: make(chan Event, 16),
	}
	g.state.Store(int32(StateDisconnected))
	return g
}

// State returns the current lifecycle state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// Ready reports whether store operations may be attempted.
func (g *Gateway) Ready() bool {
	return g.State() == StateConnected
}

// Events exposes state transitions. The channel is buffered; events are
// dropped rather than blocking the loop when no one is listening.
func (g *Gateway) Events() <-chan Event {
	return g.events
}

// Run drives the connect/watch cycle until ctx is cancelled. There is no
// terminal failure state: a connect error schedules another attempt
// after the fixed retry delay, without backoff growth or an attempt cap.
func (g *Gateway) Run(ctx context.Context) {
	for {
		g.transition(StateConnecting, nil)
		if err := g.ping(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			g.transition(StateDisconnected, err)
			g.logger.Warn("store connect failed, retrying",
				slog.Any("error", err),
				slog.Duration("retry_in", g.opts.RetryDelay))
			if !g.sleep(ctx, g.opts.RetryDelay) {
				return
			}
			continue
		}

		g.transition(StateConnected, nil)
		g.logger.Info("store connected")

		err := g.watch(ctx)
		if err == nil {
			// ctx cancelled while connected
			return
		}
		g.transition(StateDisconnected, err)
		g.logger.Warn("store connection lost",
			slog.Any("error", err),
			slog.Duration("retry_in", g.opts.RetryDelay))
		if !g.sleep(ctx, g.opts.RetryDelay) {
			return
		}
	}
}

// watch probes the established connection until it fails or ctx ends.
// A nil return means ctx was cancelled.
func (g *Gateway) watch(ctx context.Context) error {
	ticker := time.NewTicker(g.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := g.ping(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (g *Gateway) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, g.opts.PingTimeout)
	defer cancel()
	return g.pinger.Ping(pingCtx)
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (g *Gateway) transition(to State, err error) {
	from := State(g.state.Swap(int32(to)))
	if from == to {
		return
	}
	select {
	case g.events <- Event{From: from, To: to, Err: err}:
	default:
	}
}
