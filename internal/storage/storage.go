// internal/storage/storage.go
package storage

// SubscriberStore is the durable set of Telegram chat ids that receive
// broadcasts. Membership only, no ordering. Implementations must
// serialize mutations: subscribe/unsubscribe commands and delivery
// pruning run concurrently.
type SubscriberStore interface {
	// Add inserts a chat id. It reports whether the id was new.
	Add(chatID int64) (bool, error)

	// Remove deletes a chat id. It reports whether the id was present.
	Remove(chatID int64) (bool, error)

	// Contains reports membership.
	Contains(chatID int64) bool

	// All returns a snapshot of the current membership.
	All() []int64

	// Len returns the current membership size.
	Len() int
}
