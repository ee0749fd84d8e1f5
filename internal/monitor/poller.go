// internal/monitor/poller.go
package monitor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

const (
	// fetchAttempts bounds the per-tick snapshot fetch retries.
	fetchAttempts = 5
	// cooldownFactor stretches the sleep after an exhausted fetch so a
	// degraded upstream is not hammered.
	cooldownFactor = 5
)

// Broadcaster hands a rendered message to the delivery layer. It never
// fails: partial delivery problems are the delivery layer's business.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string)
}

// EventRecorder receives every emitted event for durable local
// bookkeeping. Recording is best effort and must never block delivery.
type EventRecorder interface {
	Record(ev Event) error
}

// Poller runs the reconciliation loop: fetch with retry, diff, render,
// broadcast, sleep. Events of one tick are fully delivered before the
// next tick is scheduled, so a slow delivery phase naturally throttles
// polling.
type Poller struct {
	engine      *Engine
	source      ostium.Source
	formatter   *Formatter
	broadcaster Broadcaster
	wallet      string
	interval    time.Duration
	logger      *zap.Logger

	// recorder is optional; nil disables the journal.
	recorder EventRecorder

	// newBackOff is swappable so tests do not sit through real delays.
	newBackOff func() backoff.BackOff
}

func NewPoller(engine *Engine, source ostium.Source, formatter *Formatter, broadcaster Broadcaster,
	wallet string, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		engine:      engine,
		source:      source,
		formatter:   formatter,
		broadcaster: broadcaster,
		wallet:      wallet,
		interval:    interval,
		logger:      logger.Named("poller"),
		newBackOff:  func() backoff.BackOff { return newFetchBackOff() },
	}
}

// WithRecorder attaches an event journal to the loop.
func (p *Poller) WithRecorder(recorder EventRecorder) *Poller {
	p.recorder = recorder
	return p
}

// newFetchBackOff builds the fetch retry schedule: 1s initial, doubling
// each attempt, capped at 30s, no jitter.
func newFetchBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	return b
}

// Run executes ticks until the context is cancelled. The loop never
// terminates on its own: tick failures (including panics) are logged
// and the loop sleeps and continues.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Starting position monitor",
		zap.String("wallet", p.wallet),
		zap.Duration("interval", p.interval))

	for {
		sleep := p.interval
		if err := p.safeTick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("Subgraph unavailable, skipping cycle",
				zap.Error(err),
				zap.Duration("cooldown", cooldownFactor*p.interval))
			sleep = cooldownFactor * p.interval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// safeTick guards the loop boundary: a panic inside one tick must not
// kill the monitor.
func (p *Poller) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered from tick panic", zap.Any("panic", r))
		}
	}()
	return p.Tick(ctx)
}

// Tick performs one reconciliation pass. An error means the snapshot
// fetch exhausted its retries; known state is left untouched and no
// events are emitted.
func (p *Poller) Tick(ctx context.Context) error {
	snapshot, err := p.fetchSnapshot(ctx)
	if err != nil {
		return err
	}

	events := p.engine.Reconcile(ctx, snapshot)
	for _, ev := range events {
		p.broadcaster.Broadcast(ctx, p.formatter.Render(ev))
		if p.recorder != nil {
			if err := p.recorder.Record(ev); err != nil {
				p.logger.Warn("Failed to journal event", zap.Error(err))
			}
		}
	}

	if len(events) > 0 {
		p.logger.Info("Reconciliation complete",
			zap.Int("events", len(events)),
			zap.Int("open_positions", p.engine.OpenCount()))
	}
	return nil
}

func (p *Poller) fetchSnapshot(ctx context.Context) ([]ostium.Position, error) {
	attempt := 0
	op := func() ([]ostium.Position, error) {
		attempt++
		positions, err := p.source.OpenPositions(ctx, p.wallet)
		if err != nil {
			p.logger.Warn("Failed to fetch trades",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", fetchAttempts),
				zap.Error(err))
			return nil, err
		}
		return positions, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(fetchAttempts),
	)
}
