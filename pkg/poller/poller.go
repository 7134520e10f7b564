// Package poller drives periodic dashboard refreshes.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Refresher is refreshed by the poller. *dashboard.ViewModel satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Poller refreshes once on start, then every interval while enabled.
// Trigger requests an immediate refresh. Refreshes run in their own
// goroutines so a slow fetch never delays the next tick; overlapping
// refreshes are allowed.
type Poller struct {
	target   Refresher
	interval time.Duration
	logger   *slog.Logger

	enabled atomic.Bool
	changed chan struct{}
	trigger chan struct{}
	running atomic.Bool
	refresh sync.WaitGroup
}

// New returns a poller for target. It does nothing until Run is called.
func New(target Refresher, interval time.Duration, enabled bool, logger *slog.Logger) *Poller {
	p := &Poller{
		target:   target,
		interval: interval,
		logger:   logger,
		changed:  make(chan struct{}, 1),
		trigger:  make(chan struct{}, 1),
	}
	p.enabled.Store(enabled)
	return p
}

// Interval returns the refresh period.
func (p *Poller) Interval() time.Duration { return p.interval }

// Enabled reports whether periodic refresh is on.
func (p *Poller) Enabled() bool { return p.enabled.Load() }

// SetEnabled turns periodic refresh on or off. Turning it on does not refresh
// immediately; the first periodic refresh follows one full interval later.
func (p *Poller) SetEnabled(on bool) {
	if p.enabled.Swap(on) == on {
		return
	}
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

// Trigger requests a refresh as soon as possible. Requests made while one is
// pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight refreshes to
// return. Calling Run while it is already running returns immediately.
func (p *Poller) Run(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Warn("poller already running")
		return
	}
	defer p.running.Store(false)
	defer p.refresh.Wait()

	p.logger.Info("dashboard poller started",
		slog.Duration("interval", p.interval),
		slog.Bool("enabled", p.Enabled()),
	)

	p.fire(ctx, "initial")

	var ticker *time.Ticker
	var tick <-chan time.Time
	applyEnabled := func() {
		on := p.Enabled()
		switch {
		case on && ticker == nil:
			ticker = time.NewTicker(p.interval)
			tick = ticker.C
		case !on && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	applyEnabled()

	for {
		select {
		case <-ctx.Done():
			if ticker != nil {
				ticker.Stop()
			}
			p.logger.Info("dashboard poller stopped")
			return
		case <-p.changed:
			applyEnabled()
			p.logger.Info("auto refresh toggled", slog.Bool("enabled", p.Enabled()))
		case <-tick:
			p.fire(ctx, "interval")
		case <-p.trigger:
			p.fire(ctx, "trigger")
		}
	}
}

func (p *Poller) fire(ctx context.Context, reason string) {
	p.refresh.Add(1)
	go func() {
		defer p.refresh.Done()
		if err := p.target.Refresh(ctx); err != nil {
			p.logger.Debug("refresh failed", slog.String("reason", reason), slog.String("error", err.Error()))
			return
		}
		p.logger.Debug("refresh complete", slog.String("reason", reason))
	}()
}
