// internal/monitor/matcher.go
package monitor

import (
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

// closeTolerance is the maximum raw-unit collateral difference for a
// history record to be considered the closure of a position
// (1,000,000 raw units = 1 USDC).
var closeTolerance = decimal.NewFromInt(1_000_000)

// orderActionClose is the history tag eligible for closure matching.
const orderActionClose = "Close"

// MatchClosure finds the history record that best explains the closure
// of pos: same pair, order action "Close", id not yet consumed in this
// reconciliation pass, and collateral within closeTolerance raw units.
// Among eligible candidates the smallest collateral difference wins;
// ties go to the first candidate in scan order. The winner's id is
// added to consumed so a later closure in the same pass cannot bind to
// the same record.
//
// This is a greedy one-shot assignment, not a global optimum: several
// simultaneous closures of near-identical size can in principle be
// cross-assigned.
func MatchClosure(pos ostium.Position, window []ostium.ClosureRecord, consumed map[string]struct{}) *ostium.ClosureRecord {
	var (
		best    *ostium.ClosureRecord
		minDiff decimal.Decimal
	)

	for i := range window {
		rec := &window[i]
		if _, used := consumed[rec.ID]; used {
			continue
		}
		if rec.Pair.ID != pos.Pair.ID || rec.OrderAction != orderActionClose {
			continue
		}

		diff := rec.Collateral.Sub(pos.Collateral).Abs()
		if diff.GreaterThanOrEqual(closeTolerance) {
			continue
		}
		if best == nil || diff.LessThan(minDiff) {
			best = rec
			minDiff = diff
		}
	}

	if best != nil {
		consumed[best.ID] = struct{}{}
	}
	return best
}
