// internal/app/runner.go
package app

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

	"github.com/everion-labs/insight-pipeline/internal/config"
	"github.com/everion-labs/insight-pipeline/internal/feed"
	"github.com/everion-labs/insight-pipeline/internal/insight"
	"github.com/everion-labs/insight-pipeline/internal/logger"
	"github.com/everion-labs/insight-pipeline/internal/market"
	"github.com/everion-labs/insight-pipeline/internal/store"
	"github.com/everion-labs/insight-pipeline/internal/telegram"
	"github.com/everion-labs/insight-pipeline/internal/watcher"
)

// Runner wires the watcher process together: stores, market client,
// builder, and whichever watchers the configuration enables.
type Runner struct {
	cfg        *config.Config
	logger     *logger.Logger
	shutdownCh chan os.Signal
}

// NewRunner creates a watcher-process runner.
func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     log,
		shutdownCh: make(chan os.Signal, 1),
	}
}

// Run starts the enabled watchers and blocks until they finish or a
// termination signal arrives.
func (r *Runner) Run(ctx context.Context) error {
	if !r.cfg.FeedEnabled && !r.cfg.ChatEnabled {
		return errors.New("no watcher enabled; set feed_enabled and/or chat_enabled")
	}

	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	shutdownCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("📡 Signal received, stopping watchers", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := os.MkdirAll(r.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	marketClient := market.NewClient(&market.ClientConfig{
		DetailURL:  r.cfg.MarketDetailURL,
		HoldersURL: r.cfg.MarketHoldersURL,
		APIKey:     r.cfg.MarketAPIKey,
		Timeout:    time.Duration(r.cfg.RequestTimeout) * time.Second,
		Retries:    r.cfg.Retries,
		Logger:     r.logger.Logger,
	})
	builder := insight.NewBuilder(marketClient, r.logger.Logger)

	g, gctx := errgroup.WithContext(shutdownCtx)

	if r.cfg.FeedEnabled {
		if err := r.startFeedWatcher(gctx, g, builder); err != nil {
			return err
		}
	}
	if r.cfg.ChatEnabled {
		if err := r.startChatWatcher(gctx, g, builder); err != nil {
			return err
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("✅ All watchers finished")
	return nil
}

func (r *Runner) startFeedWatcher(ctx context.Context, g *errgroup.Group, builder *insight.Builder) error {
	marketStore := store.New(r.cfg.MarketInsightsPath(), r.logger.Logger)
	if err := marketStore.Ensure(); err != nil {
		return fmt.Errorf("prepare market insight file: %w", err)
	}

	scraper := feed.NewScraper(&feed.ScraperConfig{
		BaseURL:  r.cfg.FeedBaseURL,
		LinkBase: r.cfg.FeedLinkBase,
		Account:  r.cfg.FeedAccount,
		Timeout:  time.Duration(r.cfg.RequestTimeout) * time.Second,
		Logger:   r.logger.Logger,
	})

	poll := watcher.NewPollWatcher(&watcher.PollWatcherConfig{
		Source:   scraper,
		Builder:  builder,
		Store:    marketStore,
		Interval: time.Duration(r.cfg.CheckInterval) * time.Second,
		Duration: time.Duration(r.cfg.MonitorDuration) * time.Second,
		Logger:   r.logger.Logger,
	})

	g.Go(func() error {
		return poll.Run(ctx)
	})
	return nil
}

func (r *Runner) startChatWatcher(ctx context.Context, g *errgroup.Group, builder *insight.Builder) error {
	telegramStore := store.New(r.cfg.TelegramInsightsPath(), r.logger.Logger)
	if err := telegramStore.Ensure(); err != nil {
		return fmt.Errorf("prepare telegram insight file: %w", err)
	}

	var eventWatcher *watcher.EventWatcher

	client, err := telegram.NewClient(&telegram.ClientConfig{
		Token: r.cfg.TelegramToken,
		Mode:  telegram.AuthMode(r.cfg.AuthMode),
		Handler: func(ctx context.Context, msg watcher.ChatMessage) {
			eventWatcher.HandleMessage(ctx, msg)
		},
		Logger: r.logger.Logger,
	})
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}

	eventWatcher = watcher.NewEventWatcher(&watcher.EventWatcherConfig{
		Builder:         builder,
		Store:           telegramStore,
		Sink:            client,
		TargetChat:      r.cfg.TargetChatID,
		Responder:       r.cfg.ResponderUsername,
		AllowedChats:    r.cfg.SourceChatIDs,
		PendingCapacity: r.cfg.PendingCapacity,
		Logger:          r.logger.Logger,
	})

	g.Go(func() error {
		return client.Run(ctx)
	})
	return nil
}

// Shutdown flushes the logger; called once the run loop has returned.
func (r *Runner) Shutdown() {
	r.logger.Info("👋 Watcher process shutting down")
	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
