// internal/bot/runner.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/ostium-bot/internal/config"
	"github.com/rovshanmuradov/ostium-bot/internal/delivery"
	"github.com/rovshanmuradov/ostium-bot/internal/journal"
	"github.com/rovshanmuradov/ostium-bot/internal/monitor"
	"github.com/rovshanmuradov/ostium-bot/internal/ostium"
	"github.com/rovshanmuradov/ostium-bot/internal/storage"
	"github.com/rovshanmuradov/ostium-bot/internal/telegram"
)

// Runner wires the full bot and supervises its loops: reconciliation
// poller, daily reporter and the command listener run under one
// errgroup; a shutdown signal cancels the shared context and in-flight
// ticks finish before the loops stop.
type Runner struct {
	logger   *zap.Logger
	poller   *monitor.Poller
	reporter *monitor.Reporter
	commands *Commands
	journal  *journal.Journal

	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	hour, minute, err := monitor.ParseReportTime(cfg.ReportTime)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.SubscribersFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open subscriber store: %w", err)
	}

	source := ostium.NewClient(cfg.SubgraphURL, logger)
	tg := telegram.NewClient(telegram.ClientConfig{
		Token:  cfg.TelegramToken,
		Logger: logger,
	})

	broadcaster := delivery.NewBroadcaster(tg, store, delivery.Config{
		GroupChatID: cfg.GroupChatID,
		ThreadID:    cfg.MessageThreadID,
		Logger:      logger,
	})

	formatter := monitor.NewFormatter(cfg.Wallet, logger)
	engine := monitor.NewEngine(source, cfg.Wallet, cfg.HistoryLimit, logger)

	pollInterval := time.Duration(cfg.PollIntervalSec) * time.Second
	checkInterval := time.Duration(cfg.ReportCheckSec) * time.Second

	poller := monitor.NewPoller(engine, source, formatter, broadcaster, cfg.Wallet, pollInterval, logger)

	var jnl *journal.Journal
	if cfg.JournalFile != "" {
		jnl, err = journal.Open(cfg.JournalFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open event journal: %w", err)
		}
		poller.WithRecorder(jnl)
	}

	return &Runner{
		logger:     logger,
		poller:     poller,
		reporter:   monitor.NewReporter(monitor.NewSummarizer(source, cfg.Wallet, logger), formatter, broadcaster, hour, minute, checkInterval, logger),
		commands:   NewCommands(tg, store, source, formatter, cfg.Wallet, logger),
		journal:    jnl,
		shutdownCh: make(chan os.Signal, 1),
	}, nil
}

// Run blocks until a shutdown signal arrives or a loop fails
// unrecoverably (the loops themselves never return except on cancel).
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case sig := <-r.shutdownCh:
			r.logger.Info("📡 Signal received: " + sig.String())
			cancel()
		case <-runCtx.Done():
		}
	}()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error { return r.poller.Run(gCtx) })
	g.Go(func() error { return r.reporter.Run(gCtx) })
	g.Go(func() error { return r.commands.Run(gCtx) })

	err := g.Wait()

	if r.journal != nil {
		if closeErr := r.journal.Close(); closeErr != nil {
			r.logger.Warn("Failed to close event journal", zap.Error(closeErr))
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	r.logger.Info("👋 Bot shutting down gracefully")
	return nil
}
