// internal/watcher/poll.go
package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/feed"
	"github.com/everion-labs/insight-pipeline/internal/insight"
	"github.com/everion-labs/insight-pipeline/internal/logger"
)

// FeedSource produces the latest message of the watched feed account.
type FeedSource interface {
	Account() string
	Latest(ctx context.Context) (*feed.Message, error)
}

// InsightSink persists built insights.
type InsightSink interface {
	Append(in *insight.Insight) error
}

// PollWatcher checks a feed account on a fixed interval, deduplicates
// by last-seen message id, and pushes every new message through the
// extractor, builder and store. A failure inside one cycle is logged
// and the loop proceeds to the next interval; only context
// cancellation or the configured total duration ends the run.
type PollWatcher struct {
	source   FeedSource
	builder  *insight.Builder
	store    InsightSink
	interval time.Duration
	duration time.Duration

	lastSeenID string
	logger     *zap.Logger
}

// PollWatcherConfig configures the feed poll watcher.
type PollWatcherConfig struct {
	Source  FeedSource
	Builder *insight.Builder
	Store   InsightSink
	// Interval is the minimum time between checks.
	Interval time.Duration
	// Duration bounds the total run; zero or negative runs until the
	// context is cancelled.
	Duration time.Duration
	Logger   *zap.Logger
}

// NewPollWatcher creates a feed poll watcher.
func NewPollWatcher(cfg *PollWatcherConfig) *PollWatcher {
	return &PollWatcher{
		source:   cfg.Source,
		builder:  cfg.Builder,
		store:    cfg.Store,
		interval: cfg.Interval,
		duration: cfg.Duration,
		logger:   cfg.Logger.Named("poll_watcher"),
	}
}

// Run executes the polling loop until ctx is cancelled or the
// configured duration elapses.
func (w *PollWatcher) Run(ctx context.Context) error {
	w.logger.Info("📡 Starting feed watcher",
		zap.String("account", w.source.Account()),
		zap.Duration("interval", w.interval),
		zap.Duration("duration", w.duration))

	var deadline time.Time
	if w.duration > 0 {
		deadline = time.Now().Add(w.duration)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.checkOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Feed watcher stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			if !deadline.IsZero() && time.Now().After(deadline) {
				w.logger.Info("✅ Feed watcher completed its monitoring window")
				return nil
			}
			w.checkOnce(ctx)
		}
	}
}

// checkOnce performs one fetch-classify-persist cycle. Nothing in here
// is allowed to terminate the outer loop.
func (w *PollWatcher) checkOnce(ctx context.Context) {
	log := logger.WithOperation(w.logger, "feed_check")

	msg, err := w.source.Latest(ctx)
	if err != nil {
		log.Warn("Feed check failed", zap.Error(err))
		return
	}
	if msg == nil || msg.ID == w.lastSeenID {
		return
	}
	w.lastSeenID = msg.ID

	log.Info("🔥 New feed message detected",
		zap.String("message_id", msg.ID),
		zap.String("created_at", msg.CreatedAt))

	contract := insight.ExtractContract(msg.Text)
	if contract != "" {
		log.Info("✨ Contract identifier found", zap.String("contract", contract))
	}

	in := w.builder.Build(ctx, insight.Message{
		ID:        msg.ID,
		Link:      msg.Link,
		Text:      msg.Text,
		Sender:    "@" + w.source.Account(),
		CreatedAt: msg.CreatedAt,
		Source:    insight.ChannelTwitter,
	}, contract)

	if err := w.store.Append(in); err != nil {
		log.Error("Failed to persist insight",
			zap.String("key", in.NaturalKey()),
			zap.Error(err))
	}
}
