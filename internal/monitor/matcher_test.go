package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

func TestMatchClosureNearest(t *testing.T) {
	pos := testPosition("1", "0", 100_000_000)
	window := []ostium.ClosureRecord{
		testClosure("far", "1", 100_500_000),
		testClosure("near", "1", 100_100_000),
	}
	consumed := make(map[string]struct{})

	got := MatchClosure(pos, window, consumed)
	require.NotNil(t, got)
	assert.Equal(t, "near", got.ID)
	assert.Contains(t, consumed, "near")
}

func TestMatchClosureFilters(t *testing.T) {
	pos := testPosition("1", "0", 100_000_000)

	otherPair := testClosure("p", "2", 100_000_000)
	opened := testClosure("a", "1", 100_000_000)
	opened.OrderAction = "Open"

	consumed := make(map[string]struct{})
	assert.Nil(t, MatchClosure(pos, []ostium.ClosureRecord{otherPair, opened}, consumed))
	assert.Empty(t, consumed)
}

func TestMatchClosureTolerance(t *testing.T) {
	pos := testPosition("1", "0", 100_000_000)

	// Exactly at the tolerance boundary: not eligible.
	atBoundary := testClosure("b", "1", 101_000_000)
	assert.Nil(t, MatchClosure(pos, []ostium.ClosureRecord{atBoundary}, map[string]struct{}{}))

	// One raw unit inside: eligible.
	inside := testClosure("i", "1", 100_999_999)
	got := MatchClosure(pos, []ostium.ClosureRecord{inside}, map[string]struct{}{})
	require.NotNil(t, got)
	assert.Equal(t, "i", got.ID)
}

func TestMatchClosureConsumedNotReused(t *testing.T) {
	// Two simultaneous closures with near-identical collateral must
	// bind to distinct records.
	posA := testPosition("1", "0", 100_000_000)
	posB := testPosition("1", "1", 100_500_000)
	window := []ostium.ClosureRecord{
		testClosure("recA", "1", 100_000_000),
		testClosure("recB", "1", 100_500_000),
	}
	consumed := make(map[string]struct{})

	gotA := MatchClosure(posA, window, consumed)
	gotB := MatchClosure(posB, window, consumed)

	require.NotNil(t, gotA)
	require.NotNil(t, gotB)
	assert.Equal(t, "recA", gotA.ID)
	assert.Equal(t, "recB", gotB.ID)
	assert.NotEqual(t, gotA.ID, gotB.ID)
	assert.Len(t, consumed, 2)
}

func TestMatchClosureTieBreakFirstInScanOrder(t *testing.T) {
	pos := testPosition("1", "0", 100_000_000)
	window := []ostium.ClosureRecord{
		testClosure("first", "1", 100_200_000),
		testClosure("second", "1", 100_200_000),
	}

	got := MatchClosure(pos, window, map[string]struct{}{})
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID)
}
