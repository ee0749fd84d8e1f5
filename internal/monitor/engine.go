// internal/monitor/engine.go
package monitor

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

// dustThreshold is the minimum raw-unit collateral change treated as a
// real modification (1,000 raw units = 0.001 USDC). Smaller moves are
// noise: no event, no state update.
var dustThreshold = decimal.NewFromInt(1_000)

// Engine owns the known-state map and turns each snapshot into an
// ordered list of events.
//
// Lifecycle per key: unknown -> open -> {modified -> open | closed}.
// There is no resurrection: once a key closes it leaves known state,
// and a later reappearance of the same key is a brand-new open.
//
// The engine is single-owner: all mutation happens inside Reconcile,
// which only the poll loop calls. It is not safe for concurrent use.
type Engine struct {
	source       ostium.Source
	wallet       string
	historyLimit int
	logger       *zap.Logger

	known     map[string]ostium.Position
	order     []string // insertion order of known keys
	baselined bool
}

func NewEngine(source ostium.Source, wallet string, historyLimit int, logger *zap.Logger) *Engine {
	return &Engine{
		source:       source,
		wallet:       wallet,
		historyLimit: historyLimit,
		logger:       logger.Named("engine"),
		known:        make(map[string]ostium.Position),
	}
}

// Baselined reports whether the first successful snapshot has been
// absorbed.
func (e *Engine) Baselined() bool {
	return e.baselined
}

// OpenCount returns the number of positions in known state.
func (e *Engine) OpenCount() int {
	return len(e.known)
}

// Reconcile diffs the snapshot against known state and returns the
// events to deliver, in order: opened and modified in snapshot order,
// then closed in known-state insertion order. The very first snapshot
// establishes the baseline and emits nothing.
//
// The history window is fetched once per tick, only when at least one
// closure exists, and shared across all closures together with one
// consumed-id set. A history fetch failure downgrades every closure in
// the tick to an unmatched close (rendered as liquidation) rather than
// failing the tick.
func (e *Engine) Reconcile(ctx context.Context, snapshot []ostium.Position) []Event {
	now := time.Now()

	if !e.baselined {
		for _, pos := range snapshot {
			e.insert(pos)
			e.logger.Info("Baseline position",
				zap.String("key", pos.Key()),
				zap.String("pair", pos.Symbol()))
		}
		e.baselined = true
		e.logger.Info("Baseline established", zap.Int("positions", len(snapshot)))
		return nil
	}

	byKey := lo.KeyBy(snapshot, func(p ostium.Position) string { return p.Key() })

	var events []Event

	// Opened and modified, in snapshot order.
	for _, pos := range snapshot {
		key := pos.Key()
		old, ok := e.known[key]
		if !ok {
			e.insert(pos)
			events = append(events, Event{Kind: EventOpened, Position: pos, Time: now})
			continue
		}

		delta := pos.Collateral.Sub(old.Collateral)
		if delta.Abs().GreaterThan(dustThreshold) {
			e.known[key] = pos
			events = append(events, Event{
				Kind:            EventModified,
				Position:        pos,
				Time:            now,
				CollateralDelta: delta,
			})
		}
	}

	// Closed, in known-state insertion order, after the open/modify pass.
	closedKeys := lo.Filter(e.order, func(key string, _ int) bool {
		_, open := byKey[key]
		return !open
	})
	if len(closedKeys) == 0 {
		return events
	}

	window := e.fetchHistory(ctx)
	consumed := make(map[string]struct{})

	for _, key := range closedKeys {
		pos := e.known[key]
		rec := MatchClosure(pos, window, consumed)
		if rec == nil {
			e.logger.Warn("No history record matched closure",
				zap.String("key", key),
				zap.String("pair", pos.Symbol()))
		}
		events = append(events, Event{Kind: EventClosed, Position: pos, Time: now, Closure: rec})
		delete(e.known, key)
	}
	e.order = lo.Filter(e.order, func(key string, _ int) bool {
		_, kept := e.known[key]
		return kept
	})

	return events
}

func (e *Engine) insert(pos ostium.Position) {
	key := pos.Key()
	if _, ok := e.known[key]; !ok {
		e.order = append(e.order, key)
	}
	e.known[key] = pos
}

func (e *Engine) fetchHistory(ctx context.Context) []ostium.ClosureRecord {
	window, err := e.source.RecentHistory(ctx, e.wallet, e.historyLimit)
	if err != nil {
		e.logger.Error("Failed to fetch history for closed trades", zap.Error(err))
		return nil
	}
	return window
}
