// internal/bot/commands.go
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/monitor"
	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
	"github.com/rovshanmuradov/ostium-bot/internal/storage"
	"github.com/rovshanmuradov/ostium-bot/internal/telegram"
)

const (
	updatePollTimeout = 30 * time.Second
	updateErrorPause  = 5 * time.Second
)

// Commands long-polls Telegram for inbound commands and serves the
// three trigger points: /start (subscribe + show positions), /stop
// (unsubscribe), /status (on-demand fetch-and-render that leaves the
// engine's known state alone).
type Commands struct {
	tg        *telegram.Client
	store     storage.SubscriberStore
	source    ostium.Source
	formatter *monitor.Formatter
	wallet    string
	logger    *zap.Logger

	offset int64
}

func NewCommands(tg *telegram.Client, store storage.SubscriberStore, source ostium.Source,
	formatter *monitor.Formatter, wallet string, logger *zap.Logger) *Commands {
	return &Commands{
		tg:        tg,
		store:     store,
		source:    source,
		formatter: formatter,
		wallet:    wallet,
		logger:    logger.Named("commands"),
	}
}

// Run polls for updates until the context is cancelled. Update fetch
// errors are logged and the loop pauses briefly and continues.
func (c *Commands) Run(ctx context.Context) error {
	c.logger.Info("Listening for commands")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := c.tg.Updates(ctx, c.offset, updatePollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("Failed to fetch updates", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(updateErrorPause):
			}
			continue
		}

		for _, update := range updates {
			c.offset = update.UpdateID + 1
			if update.Message == nil {
				continue
			}
			c.handle(ctx, update.Message)
		}
	}
}

func (c *Commands) handle(ctx context.Context, msg *telegram.Message) {
	command := parseCommand(msg.Text)
	chatID := msg.Chat.ID

	switch command {
	case "/start":
		c.handleStart(ctx, chatID)
	case "/stop":
		c.handleStop(ctx, chatID)
	case "/status":
		c.handleStatus(ctx, chatID)
	default:
		// Not a command of ours; ignore.
	}
}

// parseCommand extracts the leading bot command, dropping any @botname
// suffix Telegram appends in groups.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	command, _, _ := strings.Cut(fields[0], "@")
	return command
}

func (c *Commands) handleStart(ctx context.Context, chatID int64) {
	added, err := c.store.Add(chatID)
	if err != nil {
		c.logger.Error("Failed to persist subscriber",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		c.reply(ctx, chatID, "⚠️ Could not subscribe you right now, please try again.")
		return
	}

	if added {
		c.logger.Info("New subscriber", zap.Int64("chat_id", chatID))
		c.reply(ctx, chatID, fmt.Sprintf("✅ You are now subscribed to Ostium trade alerts for wallet `%s`!", c.wallet))
	} else {
		c.reply(ctx, chatID, "You are already subscribed. Checking for open positions...")
	}

	c.sendOpenPositions(ctx, chatID)
}

func (c *Commands) handleStop(ctx context.Context, chatID int64) {
	removed, err := c.store.Remove(chatID)
	if err != nil {
		c.logger.Error("Failed to remove subscriber",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return
	}

	if removed {
		c.logger.Info("Subscriber removed", zap.Int64("chat_id", chatID))
		c.reply(ctx, chatID, "❌ You have unsubscribed from alerts.")
	} else {
		c.reply(ctx, chatID, "You are not subscribed.")
	}
}

func (c *Commands) handleStatus(ctx context.Context, chatID int64) {
	c.sendOpenPositions(ctx, chatID)
}

// sendOpenPositions fetches and renders the currently open positions
// without touching the reconciliation engine's known state.
func (c *Commands) sendOpenPositions(ctx context.Context, chatID int64) {
	positions, err := c.source.OpenPositions(ctx, c.wallet)
	if err != nil {
		c.logger.Error("Failed to fetch positions for status",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		c.reply(ctx, chatID, "⚠️ Could not fetch current positions at this moment.")
		return
	}
	if len(positions) == 0 {
		c.reply(ctx, chatID, "ℹ️ No open positions found for this wallet right now.")
		return
	}

	c.reply(ctx, chatID, fmt.Sprintf("📊 **Current Open Positions (%d):**", len(positions)))
	for _, pos := range positions {
		c.reply(ctx, chatID, c.formatter.RenderOpen(pos))
	}
}

func (c *Commands) reply(ctx context.Context, chatID int64, text string) {
	if err := c.tg.SendMessage(ctx, chatID, text, nil); err != nil {
		c.logger.Error("Failed to reply",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
