// ====================================
// File: cmd/watcher/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/app"
	"github.com/everion-labs/insight-pipeline/internal/config"
	"github.com/everion-labs/insight-pipeline/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("🚀 Starting insight watcher")

	runner := app.NewRunner(cfg, log)
	err = runner.Run(ctx)
	runner.Shutdown()
	if err != nil {
		log.Error("Watcher execution error", zap.Error(err))
		os.Exit(1)
	}
}
