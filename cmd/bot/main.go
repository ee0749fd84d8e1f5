// cmd/bot/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/ostium-bot/internal/bot"
	"github.com/rovshanmuradov/ostium-bot/internal/config"
	"github.com/rovshanmuradov/ostium-bot/internal/logger"
)

func main() {
	configPath := pflag.String("config", "configs/config.yaml", "specify config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	logCfg.LogFile = cfg.LogFile

	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Ostium position watcher",
		zap.String("wallet", cfg.Wallet))

	runner, err := bot.NewRunner(cfg, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}

	if err := runner.Run(context.Background()); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}
}
