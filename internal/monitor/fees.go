// internal/monitor/fees.go
package monitor

import "github.com/shopspring/decimal"

// AssetClass groups pairs for fee fallback purposes.
type AssetClass string

const (
	ClassCrypto      AssetClass = "crypto"
	ClassIndices     AssetClass = "indices"
	ClassForex       AssetClass = "forex"
	ClassStocks      AssetClass = "stocks"
	ClassCommodities AssetClass = "commodities"
)

// Opening fees in basis points, per Ostium's published fee schedule.
// Exact pair overrides first, then the asset-class default, then the
// crypto taker rate as the global fallback.
var pairFeeBps = map[string]int64{
	"XAU/USD": 3,  // gold
	"CL/USD":  10, // oil
	"HG/USD":  15, // copper
	"XAG/USD": 15, // silver
	"XPT/USD": 20, // platinum
	"XPD/USD": 20, // palladium
	"USD/MXN": 5,  // forex exception
}

var classFeeBps = map[AssetClass]int64{
	ClassCrypto:      10,
	ClassIndices:     5,
	ClassForex:       3,
	ClassStocks:      5,
	ClassCommodities: 10,
}

// defaultFeeBps is the taker fee applied when neither the pair nor its
// asset class is known. Crypto carries the highest default rate.
const defaultFeeBps int64 = 10

var pairClass = map[string]AssetClass{
	"XAU/USD": ClassCommodities,
	"CL/USD":  ClassCommodities,
	"HG/USD":  ClassCommodities,
	"XAG/USD": ClassCommodities,
	"XPT/USD": ClassCommodities,
	"XPD/USD": ClassCommodities,
	"EUR/USD": ClassForex,
	"GBP/USD": ClassForex,
	"USD/JPY": ClassForex,
	"USD/MXN": ClassForex,
	"SPX/USD": ClassIndices,
	"NDX/USD": ClassIndices,
	"DJI/USD": ClassIndices,
	"NIK/JPY": ClassIndices,
	"BTC/USD": ClassCrypto,
	"ETH/USD": ClassCrypto,
	"SOL/USD": ClassCrypto,
}

// OpeningFeeBps resolves the opening fee for a pair symbol:
// exact pair -> asset-class default -> global default.
func OpeningFeeBps(symbol string) int64 {
	if bps, ok := pairFeeBps[symbol]; ok {
		return bps
	}
	if class, ok := pairClass[symbol]; ok {
		if bps, ok := classFeeBps[class]; ok {
			return bps
		}
	}
	return defaultFeeBps
}

// OpeningFee computes the opening fee in display USDC units for a
// notional already scaled to display units: notional * bps / 10000.
func OpeningFee(notional decimal.Decimal, symbol string) decimal.Decimal {
	bps := decimal.NewFromInt(OpeningFeeBps(symbol))
	return notional.Mul(bps).Div(decimal.NewFromInt(10000))
}
