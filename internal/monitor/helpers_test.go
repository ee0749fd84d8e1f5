package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

func testPosition(pairID, index string, collateralRaw int64) ostium.Position {
	return ostium.Position{
		Pair:       ostium.Pair{ID: pairID, From: "XAU", To: "USD"},
		Index:      index,
		IsBuy:      true,
		Collateral: decimal.NewFromInt(collateralRaw),
		Notional:   decimal.NewFromInt(collateralRaw * 25),
		OpenPrice:  decimal.RequireFromString("2650000000000000000000"),
		Leverage:   decimal.NewFromInt(2500),
	}
}

func testClosure(id, pairID string, collateralRaw int64) ostium.ClosureRecord {
	return ostium.ClosureRecord{
		ID:                 id,
		Pair:               ostium.Pair{ID: pairID, From: "XAU", To: "USD"},
		OrderAction:        "Close",
		Collateral:         decimal.NewFromInt(collateralRaw),
		Price:              decimal.RequireFromString("2700000000000000000000"),
		AmountSentToTrader: decimal.NewFromInt(collateralRaw + 5_000_000),
	}
}

// fakeSource is a scriptable ostium.Source.
type fakeSource struct {
	mu sync.Mutex

	positions    []ostium.Position
	positionsErr error
	history      []ostium.ClosureRecord
	historyErr   error
	midPrices    map[string]decimal.Decimal

	positionCalls int
	historyCalls  int
}

func (f *fakeSource) OpenPositions(context.Context, string) ([]ostium.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionCalls++
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	return f.positions, nil
}

func (f *fakeSource) RecentHistory(context.Context, string, int) ([]ostium.ClosureRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeSource) PairMidPrice(_ context.Context, pairID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price, ok := f.midPrices[pairID]; ok {
		return price, nil
	}
	return decimal.Zero, fmt.Errorf("pair %s not found", pairID)
}

// fakeBroadcaster records broadcast messages in order.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
}

func (f *fakeBroadcaster) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}
