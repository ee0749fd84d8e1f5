// internal/monitor/summary.go
package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
)

// PositionSummary is one open position's contribution to the daily
// report, all values in display units.
type PositionSummary struct {
	Symbol   string
	IsBuy    bool
	Leverage decimal.Decimal
	Notional decimal.Decimal
	PnL      decimal.Decimal
	HasPnL   bool
}

// AccountSummary aggregates the watched account's open positions.
type AccountSummary struct {
	UnrealizedPnL decimal.Decimal
	TotalNotional decimal.Decimal
	Positions     []PositionSummary
}

// Summarizer builds the daily account summary. Price lookups are best
// effort: a pair whose mid price is unavailable contributes zero PnL.
type Summarizer struct {
	source ostium.Source
	wallet string
	logger *zap.Logger
}

func NewSummarizer(source ostium.Source, wallet string, logger *zap.Logger) *Summarizer {
	return &Summarizer{
		source: source,
		wallet: wallet,
		logger: logger.Named("summary"),
	}
}

// Build fetches the current open positions and aggregates notional and
// unrealized PnL.
func (s *Summarizer) Build(ctx context.Context) (*AccountSummary, error) {
	positions, err := s.source.OpenPositions(ctx, s.wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch open positions: %w", err)
	}

	summary := &AccountSummary{}
	for _, pos := range positions {
		notional := Scale(pos.Notional, UsdcDecimals)
		summary.TotalNotional = summary.TotalNotional.Add(notional)

		ps := PositionSummary{
			Symbol:   pos.Symbol(),
			IsBuy:    pos.IsBuy,
			Leverage: Scale(pos.Leverage, LeverageDecimals),
			Notional: notional,
		}

		if pnl, ok := s.unrealizedPnL(ctx, pos, notional); ok {
			ps.PnL = pnl
			ps.HasPnL = true
			summary.UnrealizedPnL = summary.UnrealizedPnL.Add(pnl)
		}

		summary.Positions = append(summary.Positions, ps)
	}
	return summary, nil
}

// unrealizedPnL estimates a position's PnL from the pair mid price:
// (current - open) / open * notional for longs, negated for shorts.
func (s *Summarizer) unrealizedPnL(ctx context.Context, pos ostium.Position, notional decimal.Decimal) (decimal.Decimal, bool) {
	openPrice := Scale(pos.OpenPrice, PriceDecimals)
	if openPrice.IsZero() {
		return decimal.Zero, false
	}

	current, err := s.source.PairMidPrice(ctx, pos.Pair.ID)
	if err != nil || current.IsZero() {
		if err != nil {
			s.logger.Debug("Mid price unavailable",
				zap.String("pair", pos.Symbol()),
				zap.Error(err))
		}
		return decimal.Zero, false
	}

	change := current.Sub(openPrice).Div(openPrice)
	if !pos.IsBuy {
		change = change.Neg()
	}
	return change.Mul(notional), true
}

// RenderDailyReport formats the summary as the daily Markdown report.
func (f *Formatter) RenderDailyReport(s *AccountSummary) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Recovered from report formatting panic", zap.Any("panic", r))
			msg = "⚠️ Could not generate daily report at this time."
		}
	}()
	if s == nil {
		return "⚠️ Could not generate daily report at this time."
	}

	pnlEmoji := "📈"
	if s.UnrealizedPnL.Sign() < 0 {
		pnlEmoji = "📉"
	}

	var b strings.Builder
	b.WriteString("📊 **DAILY ACCOUNT REPORT** 📊\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(&b, "%s **Total Unrealized PNL:** %s USDC\n", pnlEmoji, SignedMoney(s.UnrealizedPnL))
	fmt.Fprintf(&b, "💼 **Total Position Value:** %s USDC\n", Money(s.TotalNotional))
	fmt.Fprintf(&b, "📍 **Open Positions:** %d\n", len(s.Positions))

	if len(s.Positions) > 0 {
		b.WriteString("\n**Open Positions:**\n")
		for i, pos := range s.Positions {
			direction, glyph := "SHORT", "🔴"
			if pos.IsBuy {
				direction, glyph = "LONG", "🟢"
			}
			fmt.Fprintf(&b, "%d. **%s** %s %s %sx - Size: %s USDC",
				i+1, pos.Symbol, direction, glyph,
				pos.Leverage.StringFixed(0), Money(pos.Notional))

			if pos.HasPnL && pos.PnL.Abs().GreaterThan(fundingVisibility) {
				emoji := "✅"
				if pos.PnL.Sign() < 0 {
					emoji = "❌"
				}
				fmt.Fprintf(&b, " - PNL: %s %s USDC", emoji, SignedMoney(pos.PnL))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "**Wallet:** `%s`", f.wallet)
	return b.String()
}
