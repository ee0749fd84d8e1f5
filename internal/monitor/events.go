// internal/monitor/events.go
package monitor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

// EventKind classifies one observed position transition.
type EventKind string

const (
	// EventOpened fires when a key appears that known state has never seen.
	EventOpened EventKind = "position.opened"
	// EventModified fires when a known key's collateral moved past the
	// dust threshold.
	EventModified EventKind = "position.modified"
	// EventClosed fires when a known key disappears from a snapshot.
	// Closure carries the matched history record, or nil when no record
	// matched (rendered as a liquidation).
	EventClosed EventKind = "position.closed"
)

// Event is one reconciliation outcome handed to the delivery layer.
// Events within a tick are delivered sequentially in emission order.
type Event struct {
	Kind     EventKind
	Position ostium.Position
	Time     time.Time

	// CollateralDelta is the signed raw-unit change, set for EventModified.
	CollateralDelta decimal.Decimal

	// Closure is the matched history record for EventClosed. Nil means
	// no eligible record was found and the close is treated as a
	// liquidation.
	Closure *ostium.ClosureRecord
}
