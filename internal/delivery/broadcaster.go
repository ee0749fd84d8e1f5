// internal/delivery/broadcaster.go
package delivery

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/storage"
	"github.com/rovshanmuradov/ostium-bot/internal/telegram"
)

// Sender is the message transport boundary.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error
}

// Config selects the enabled sinks. GroupChatID zero disables the group
// sink; the subscriber sink is always on.
type Config struct {
	GroupChatID int64
	ThreadID    int64
	Logger      *zap.Logger
}

// Broadcaster fans one rendered message out to the group topic and to
// every subscriber. Sinks are independent: a group failure never gates
// subscriber delivery and vice versa. A permanent rejection prunes the
// subscriber from the durable set immediately; any other failure is
// logged and retried only on the next natural broadcast.
type Broadcaster struct {
	sender      Sender
	store       storage.SubscriberStore
	groupChatID int64
	threadID    int64
	logger      *zap.Logger
}

func NewBroadcaster(sender Sender, store storage.SubscriberStore, cfg Config) *Broadcaster {
	return &Broadcaster{
		sender:      sender,
		store:       store,
		groupChatID: cfg.GroupChatID,
		threadID:    cfg.ThreadID,
		logger:      cfg.Logger.Named("delivery"),
	}
}

// Broadcast never fails; delivery problems are resolved per recipient.
func (b *Broadcaster) Broadcast(ctx context.Context, text string) {
	if b.groupChatID != 0 {
		opts := &telegram.SendOptions{ThreadID: b.threadID}
		if err := b.sender.SendMessage(ctx, b.groupChatID, text, opts); err != nil {
			b.logger.Error("Failed to send message to group",
				zap.Int64("chat_id", b.groupChatID),
				zap.Error(err))
		}
	}

	for _, chatID := range b.store.All() {
		err := b.sender.SendMessage(ctx, chatID, text, nil)
		if err == nil {
			continue
		}

		if errors.Is(err, telegram.ErrPermanentReject) {
			b.logger.Warn("Subscriber rejected delivery, removing",
				zap.Int64("chat_id", chatID))
			if _, rmErr := b.store.Remove(chatID); rmErr != nil {
				b.logger.Error("Failed to remove subscriber",
					zap.Int64("chat_id", chatID),
					zap.Error(rmErr))
			}
			continue
		}

		b.logger.Error("Failed to send message to subscriber",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
