// internal/journal/journal.go
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/monitor"
)

// Journal appends every emitted position event to a CSV file, one row
// per event. The file survives restarts: rows are only ever appended,
// and the header is written once when the file is created.
type Journal struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

func headers() []string {
	return []string{
		"timestamp",
		"kind",
		"pair",
		"direction",
		"collateral_usdc",
		"notional_usdc",
		"leverage",
		"collateral_delta_usdc",
		"close_price",
		"pnl_usdc",
	}
}

// Open creates or reopens the journal at path, creating parent
// directories as needed.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}

	j := &Journal{
		path:   path,
		logger: logger.Named("journal"),
		file:   file,
		writer: csv.NewWriter(file),
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat journal file: %w", err)
	}
	if info.Size() == 0 {
		if err := j.writer.Write(headers()); err != nil {
			file.Close()
			return nil, fmt.Errorf("write journal header: %w", err)
		}
		j.writer.Flush()
		if err := j.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush journal header: %w", err)
		}
	}

	j.logger.Info("Event journal open", zap.String("path", path))
	return j, nil
}

// Record implements monitor.EventRecorder. Each row is flushed
// immediately so a crash loses at most the event being written.
func (j *Journal) Record(ev monitor.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Write(row(ev)); err != nil {
		return fmt.Errorf("write journal row: %w", err)
	}
	j.writer.Flush()
	if err := j.writer.Error(); err != nil {
		return fmt.Errorf("flush journal row: %w", err)
	}
	return nil
}

func row(ev monitor.Event) []string {
	pos := ev.Position

	direction := "SHORT"
	if pos.IsBuy {
		direction = "LONG"
	}

	var delta, closePrice, pnl string
	if ev.Kind == monitor.EventModified {
		delta = monitor.Scale(ev.CollateralDelta, monitor.UsdcDecimals).StringFixed(2)
	}
	if ev.Closure != nil {
		closePrice = monitor.Scale(ev.Closure.Price, monitor.PriceDecimals).StringFixed(2)
		pnl = monitor.Scale(ev.Closure.AmountSentToTrader.Sub(ev.Closure.Collateral),
			monitor.UsdcDecimals).StringFixed(2)
	}

	return []string{
		ev.Time.UTC().Format(time.RFC3339),
		string(ev.Kind),
		pos.Symbol(),
		direction,
		monitor.Scale(pos.Collateral, monitor.UsdcDecimals).StringFixed(2),
		monitor.Scale(pos.Notional, monitor.UsdcDecimals).StringFixed(2),
		monitor.Scale(pos.Leverage, monitor.LeverageDecimals).StringFixed(2),
		delta,
		closePrice,
		pnl,
	}
}

// Close flushes and releases the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.writer.Flush()
	if err := j.writer.Error(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}
