// internal/ostium/types.go
package ostium

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Pair identifies a traded instrument on Ostium.
type Pair struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Position is one open leveraged trade on the watched account.
//
// All monetary fields carry the raw fixed-point integers the subgraph
// returns: collateral and notional in 6-decimal USDC units, openPrice in
// 18-decimal units, leverage in 2-decimal units (2500 = 25.00x). Raw
// 18-decimal prices do not fit in int64, hence decimal.Decimal.
type Position struct {
	Pair       Pair            `json:"pair"`
	Index      string          `json:"index"`
	IsBuy      bool            `json:"isBuy"`
	Collateral decimal.Decimal `json:"collateral"`
	Notional   decimal.Decimal `json:"notional"`
	OpenPrice  decimal.Decimal `json:"openPrice"`
	Leverage   decimal.Decimal `json:"leverage"`
}

// Key returns the composite identity of the position. It is stable for
// the life of the position and is never reused concurrently; the engine
// treats key equality as position identity.
func (p Position) Key() string {
	return fmt.Sprintf("%s-%s", p.Pair.ID, p.Index)
}

// Symbol returns the display pair, e.g. "XAU/USD".
func (p Position) Symbol() string {
	from := p.Pair.From
	to := p.Pair.To
	if from == "" {
		from = "Unknown"
	}
	if to == "" {
		to = "USD"
	}
	return from + "/" + to
}

// ClosureRecord is one recent-history entry. Only records with
// OrderAction == "Close" are eligible for closure matching.
type ClosureRecord struct {
	ID                 string          `json:"id"`
	Pair               Pair            `json:"pair"`
	OrderAction        string          `json:"orderAction"`
	Collateral         decimal.Decimal `json:"collateral"`
	Price              decimal.Decimal `json:"price"`
	AmountSentToTrader decimal.Decimal `json:"amountSentToTrader"`
	RolloverFee        decimal.Decimal `json:"rolloverFee"`
	FundingFee         decimal.Decimal `json:"fundingFee"`
}

// Source is the upstream data boundary. All implementations are treated
// as unreliable; callers own the retry policy.
type Source interface {
	// OpenPositions returns the full set of currently open positions
	// for the wallet, in subgraph order.
	OpenPositions(ctx context.Context, wallet string) ([]Position, error)

	// RecentHistory returns up to limit recent order records for the
	// wallet, newest first.
	RecentHistory(ctx context.Context, wallet string, limit int) ([]ClosureRecord, error)

	// PairMidPrice returns the current mid price for a pair in display
	// units. Best effort: callers must tolerate an error by treating
	// the price as unavailable.
	PairMidPrice(ctx context.Context, pairID string) (decimal.Decimal, error)
}
