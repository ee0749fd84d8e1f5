// internal/monitor/scale.go
package monitor

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Fixed-point encodings used by the Ostium subgraph.
const (
	// UsdcDecimals scales collateral and notional (stable-asset units).
	UsdcDecimals int32 = 6
	// PriceDecimals scales open and close prices.
	PriceDecimals int32 = 18
	// LeverageDecimals scales leverage: raw 2500 renders as 25.00x.
	LeverageDecimals int32 = 2
)

// Scale converts a raw fixed-point integer into display units:
// raw / 10^decimals. The zero value scales to zero, so absent subgraph
// fields never need special-casing.
func Scale(raw decimal.Decimal, decimals int32) decimal.Decimal {
	return raw.Shift(-decimals)
}

// Money renders a display-unit value with two decimals and thousands
// grouping, e.g. 1234567.891 -> "1,234,567.89". The sign, when present,
// stays in front of the grouped digits.
func Money(v decimal.Decimal) string {
	s := v.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(fracPart)
	return b.String()
}

// SignedMoney renders like Money but always carries an explicit sign,
// "+2.00" / "-2.00". Zero renders as "+0.00".
func SignedMoney(v decimal.Decimal) string {
	if v.Sign() < 0 {
		return Money(v)
	}
	return "+" + Money(v)
}
