// internal/monitor/format.go
package monitor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

// fundingVisibility suppresses the funding line when the combined
// rollover+funding magnitude is below this many display units.
var fundingVisibility = decimal.RequireFromString("0.01")

// Formatter renders positions and events into Telegram Markdown text.
// Rendering never propagates a failure: a panic on one bad record
// degrades to an error string so the rest of the tick proceeds.
type Formatter struct {
	wallet string
	logger *zap.Logger
}

func NewFormatter(wallet string, logger *zap.Logger) *Formatter {
	return &Formatter{
		wallet: wallet,
		logger: logger.Named("formatter"),
	}
}

// Render formats one reconciliation event. The headline is chosen from
// the event kind at render time.
func (f *Formatter) Render(ev Event) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Recovered from formatting panic",
				zap.String("kind", string(ev.Kind)),
				zap.Any("panic", r))
			msg = fmt.Sprintf("Error formatting trade: %v", r)
		}
	}()

	switch ev.Kind {
	case EventOpened:
		return f.renderOpen(ev.Position, "🚨 **NEW TRADE DETECTED** 🚨")
	case EventModified:
		base := f.renderOpen(ev.Position, "⚠️ **TRADE UPDATE** ⚠️")
		delta := Scale(ev.CollateralDelta, UsdcDecimals)
		return base + fmt.Sprintf("\n**Change:** (%s USDC)", SignedMoney(delta))
	case EventClosed:
		return f.renderClosed(ev.Position, ev.Closure)
	default:
		return fmt.Sprintf("Error formatting trade: unknown event kind %q", ev.Kind)
	}
}

// RenderOpen formats a currently open position for /start and /status
// replies.
func (f *Formatter) RenderOpen(pos ostium.Position) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Recovered from formatting panic", zap.Any("panic", r))
			msg = fmt.Sprintf("Error formatting trade: %v", r)
		}
	}()
	return f.renderOpen(pos, "🟢 **OPEN POSITION**")
}

func (f *Formatter) renderOpen(pos ostium.Position, headline string) string {
	var b strings.Builder
	b.WriteString(headline + "\n")
	f.writeCommon(&b, pos)
	fmt.Fprintf(&b, "**Opening Fee:** %s USDC\n", Money(OpeningFee(Scale(pos.Notional, UsdcDecimals), pos.Symbol())))
	fmt.Fprintf(&b, "**Wallet:** `%s`", f.wallet)
	return b.String()
}

func (f *Formatter) renderClosed(pos ostium.Position, rec *ostium.ClosureRecord) string {
	liquidated := isLiquidation(rec)

	headline := "❌ **TRADE CLOSED** ❌"
	if liquidated {
		headline = "💀 **LIQUIDATED** 💀"
	}

	var b strings.Builder
	b.WriteString(headline + "\n")
	f.writeCommon(&b, pos)
	fmt.Fprintf(&b, "**Wallet:** `%s`", f.wallet)

	// Liquidation price and PnL from the subgraph are untrustworthy;
	// render the bare closure and stop.
	if liquidated {
		return b.String()
	}

	closePrice := Scale(rec.Price, PriceDecimals)
	pnl := Scale(rec.AmountSentToTrader.Sub(rec.Collateral), UsdcDecimals)
	funding := Scale(rec.RolloverFee.Add(rec.FundingFee), PriceDecimals)
	openingFee := OpeningFee(Scale(pos.Notional, UsdcDecimals), pos.Symbol())

	fmt.Fprintf(&b, "\n**Close Price:** %s\n", Money(closePrice))
	fmt.Fprintf(&b, "**Opening Fee:** %s USDC\n", Money(openingFee))
	if funding.Abs().GreaterThan(fundingVisibility) {
		fmt.Fprintf(&b, "**Funding Paid:** %s USDC\n", Money(funding))
	}

	pnlEmoji := "✅"
	if pnl.Sign() < 0 {
		pnlEmoji = "❌"
	}
	fmt.Fprintf(&b, "**PnL:** %s %s USDC", pnlEmoji, SignedMoney(pnl))
	return b.String()
}

func (f *Formatter) writeCommon(b *strings.Builder, pos ostium.Position) {
	direction := "SHORT 🔴"
	if pos.IsBuy {
		direction = "LONG 🟢"
	}
	fmt.Fprintf(b, "**Pair:** %s\n", pos.Symbol())
	fmt.Fprintf(b, "**Direction:** %s\n", direction)
	fmt.Fprintf(b, "**Entry Price:** %s\n", Money(Scale(pos.OpenPrice, PriceDecimals)))
	fmt.Fprintf(b, "**Size:** %s USDC\n", Money(Scale(pos.Notional, UsdcDecimals)))
	fmt.Fprintf(b, "**Collateral:** %s USDC\n", Money(Scale(pos.Collateral, UsdcDecimals)))
	fmt.Fprintf(b, "**Leverage:** %sx\n", Scale(pos.Leverage, LeverageDecimals).StringFixed(2))
}

// isLiquidation reports whether a closure must be rendered as a
// liquidation: no history record matched, or the record's close price
// scales to exactly zero.
func isLiquidation(rec *ostium.ClosureRecord) bool {
	return rec == nil || Scale(rec.Price, PriceDecimals).IsZero()
}
