package monitor

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOpeningFeeBps(t *testing.T) {
	// Exact pair overrides win.
	assert.Equal(t, int64(3), OpeningFeeBps("XAU/USD"))
	assert.Equal(t, int64(5), OpeningFeeBps("USD/MXN"))

	// No pair override: the asset-class default applies.
	assert.Equal(t, int64(3), OpeningFeeBps("EUR/USD"))
	assert.Equal(t, int64(5), OpeningFeeBps("SPX/USD"))
	assert.Equal(t, int64(10), OpeningFeeBps("BTC/USD"))

	// Unknown pair and class: global default.
	assert.Equal(t, defaultFeeBps, OpeningFeeBps("WAT/WAT"))
}

func TestOpeningFee(t *testing.T) {
	// 4,000,000 USDC notional on gold at 3 bps = 1,200 USDC.
	fee := OpeningFee(decimal.NewFromInt(4_000_000), "XAU/USD")
	assert.True(t, fee.Equal(decimal.NewFromInt(1200)), "got %s", fee)

	// Zero notional is a zero fee, not an error.
	assert.True(t, OpeningFee(decimal.Zero, "XAU/USD").IsZero())
}
