// internal/storage/file.go
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileStore persists the subscriber set as a flat JSON array, rewritten
// in full on every membership change. A missing or corrupt file loads
// as an empty set so a bad disk state never blocks startup.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	set map[int64]struct{}
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	fs := &FileStore{
		path:   path,
		logger: logger.Named("subscribers"),
		set:    make(map[int64]struct{}),
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read subscribers file: %w", err)
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		fs.logger.Warn("Subscribers file is corrupt, starting empty",
			zap.String("path", fs.path),
			zap.Error(err))
		return nil
	}
	for _, id := range ids {
		fs.set[id] = struct{}{}
	}
	fs.logger.Info("Loaded subscribers",
		zap.String("path", fs.path),
		zap.Int("count", len(fs.set)))
	return nil
}

// persist rewrites the whole file. Callers hold fs.mu.
func (fs *FileStore) persist() error {
	ids := make([]int64, 0, len(fs.set))
	for id := range fs.set {
		ids = append(ids, id)
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal subscribers: %w", err)
	}
	if err := os.WriteFile(fs.path, raw, 0o644); err != nil {
		return fmt.Errorf("write subscribers file: %w", err)
	}
	return nil
}

// Add implements SubscriberStore.
func (fs *FileStore) Add(chatID int64) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.set[chatID]; ok {
		return false, nil
	}
	fs.set[chatID] = struct{}{}
	if err := fs.persist(); err != nil {
		delete(fs.set, chatID)
		return false, err
	}
	return true, nil
}

// Remove implements SubscriberStore.
func (fs *FileStore) Remove(chatID int64) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.set[chatID]; !ok {
		return false, nil
	}
	delete(fs.set, chatID)
	if err := fs.persist(); err != nil {
		fs.set[chatID] = struct{}{}
		return false, err
	}
	return true, nil
}

// Contains implements SubscriberStore.
func (fs *FileStore) Contains(chatID int64) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.set[chatID]
	return ok
}

// All implements SubscriberStore.
func (fs *FileStore) All() []int64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids := make([]int64, 0, len(fs.set))
	for id := range fs.set {
		ids = append(ids, id)
	}
	return ids
}

// Len implements SubscriberStore.
func (fs *FileStore) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.set)
}
