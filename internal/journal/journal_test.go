package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/monitor"
	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

func journalPosition() ostium.Position {
	return ostium.Position{
		Pair:       ostium.Pair{ID: "1", From: "XAU", To: "USD"},
		Index:      "0",
		IsBuy:      true,
		Collateral: decimal.NewFromInt(100_000_000),
		Notional:   decimal.NewFromInt(2_500_000_000),
		OpenPrice:  decimal.RequireFromString("2650000000000000000000"),
		Leverage:   decimal.NewFromInt(2500),
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestJournalRecordsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	j, err := Open(path, zap.NewNop())
	require.NoError(t, err)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(monitor.Event{
		Kind:     monitor.EventOpened,
		Position: journalPosition(),
		Time:     at,
	}))
	require.NoError(t, j.Record(monitor.Event{
		Kind:            monitor.EventModified,
		Position:        journalPosition(),
		Time:            at,
		CollateralDelta: decimal.NewFromInt(2_000_000),
	}))
	closure := ostium.ClosureRecord{
		ID:                 "order-1",
		Pair:               ostium.Pair{ID: "1", From: "XAU", To: "USD"},
		OrderAction:        "Close",
		Collateral:         decimal.NewFromInt(100_000_000),
		Price:              decimal.RequireFromString("2700000000000000000000"),
		AmountSentToTrader: decimal.NewFromInt(105_000_000),
	}
	require.NoError(t, j.Record(monitor.Event{
		Kind:     monitor.EventClosed,
		Position: journalPosition(),
		Time:     at,
		Closure:  &closure,
	}))
	require.NoError(t, j.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 4)
	assert.Equal(t, headers(), rows[0])

	opened := rows[1]
	assert.Equal(t, "2025-06-01T12:00:00Z", opened[0])
	assert.Equal(t, "position.opened", opened[1])
	assert.Equal(t, "XAU/USD", opened[2])
	assert.Equal(t, "LONG", opened[3])
	assert.Equal(t, "100.00", opened[4])
	assert.Equal(t, "2500.00", opened[5])
	assert.Equal(t, "25.00", opened[6])
	assert.Empty(t, opened[7])
	assert.Empty(t, opened[9])

	assert.Equal(t, "2.00", rows[2][7], "modified row carries the delta")

	closed := rows[3]
	assert.Equal(t, "position.closed", closed[1])
	assert.Equal(t, "2700.00", closed[8])
	assert.Equal(t, "5.00", closed[9])
}

func TestJournalAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	j, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Record(monitor.Event{Kind: monitor.EventOpened, Position: journalPosition()}))
	require.NoError(t, j.Close())

	j, err = Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Record(monitor.Event{Kind: monitor.EventClosed, Position: journalPosition()}))
	require.NoError(t, j.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3, "reopening must not rewrite the header or drop rows")
	assert.Equal(t, "position.opened", rows[1][1])
	assert.Equal(t, "position.closed", rows[2][1])
}

func TestJournalCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.csv")
	j, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
