// internal/watcher/event.go
package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/insight"
	"github.com/everion-labs/insight-pipeline/internal/logger"
)

// ChatMessage is one inbound chat event as seen by the watcher.
type ChatMessage struct {
	ID        string
	ChatID    int64
	Sender    string // username without the @ prefix
	Text      string
	CreatedAt time.Time
}

// MessageSink delivers outbound messages to a chat channel. Sends are
// fire-and-forget from the watcher's point of view: failures are
// logged, never propagated.
type MessageSink interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// EventWatcher reacts to individual inbound chat messages: detected
// contracts are enriched, persisted and announced to the target
// channel, and follow-up messages from the configured automated
// responder turn pending contracts into analysis posts. Each event is
// handled to completion before the next begins.
type EventWatcher struct {
	builder      *insight.Builder
	store        InsightSink
	sink         MessageSink
	pending      *PendingSet
	targetChat   int64
	responder    string
	allowedChats map[int64]struct{}
	logger       *zap.Logger
}

// EventWatcherConfig configures the chat event watcher.
type EventWatcherConfig struct {
	Builder *insight.Builder
	Store   InsightSink
	Sink    MessageSink
	// TargetChat receives the outbound summary and analysis messages.
	TargetChat int64
	// Responder is the username of the known automated analysis bot.
	Responder string
	// AllowedChats restricts which chats are watched; empty means all.
	AllowedChats []int64
	// PendingCapacity bounds the pending-contract set.
	PendingCapacity int
	Logger          *zap.Logger
}

// NewEventWatcher creates a chat event watcher.
func NewEventWatcher(cfg *EventWatcherConfig) *EventWatcher {
	var allowed map[int64]struct{}
	if len(cfg.AllowedChats) > 0 {
		allowed = make(map[int64]struct{}, len(cfg.AllowedChats))
		for _, id := range cfg.AllowedChats {
			allowed[id] = struct{}{}
		}
	}
	return &EventWatcher{
		builder:      cfg.Builder,
		store:        cfg.Store,
		sink:         cfg.Sink,
		pending:      NewPendingSet(cfg.PendingCapacity),
		targetChat:   cfg.TargetChat,
		responder:    cfg.Responder,
		allowedChats: allowed,
		logger:       cfg.Logger.Named("event_watcher"),
	}
}

// Pending exposes the pending-contract set, mainly for tests.
func (w *EventWatcher) Pending() *PendingSet { return w.pending }

// HandleMessage processes one inbound chat event.
func (w *EventWatcher) HandleMessage(ctx context.Context, msg ChatMessage) {
	if !w.allowed(msg.ChatID) {
		return
	}

	if contract := insight.ExtractContract(msg.Text); contract != "" {
		w.handleContract(ctx, msg, contract)
	}

	if w.responder != "" && strings.EqualFold(msg.Sender, w.responder) {
		w.handleResponder(ctx, msg)
	}
}

func (w *EventWatcher) allowed(chatID int64) bool {
	if w.allowedChats == nil {
		return true
	}
	_, ok := w.allowedChats[chatID]
	return ok
}

func (w *EventWatcher) handleContract(ctx context.Context, msg ChatMessage, contract string) {
	log := logger.WithOperation(w.logger, "chat_contract").With(zap.String("contract", contract))
	log.Info("✨ Contract detected in chat message",
		zap.String("sender", msg.Sender),
		zap.Int64("chat_id", msg.ChatID))

	sender := "@" + msg.Sender
	if msg.Sender == "" {
		sender = "Unknown"
	}
	w.pending.Put(contract, PendingRef{Sender: sender, MessageID: msg.ID})

	in := w.builder.Build(ctx, insight.Message{
		ID:        msg.ID,
		Text:      msg.Text,
		Sender:    sender,
		CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		Source:    insight.ChannelTelegram,
	}, contract)

	if err := w.store.Append(in); err != nil {
		log.Error("Failed to persist insight", zap.Error(err))
	}

	if in.Risk == insight.RiskUnknown {
		// Enrichment failed; announce the detection without market data.
		w.send(ctx, fmt.Sprintf(
			"Contract Detected:\n%s\n\nSent by: %s\n\nMarket data is not available for this contract.",
			contract, sender))
		return
	}

	w.send(ctx, summaryText(in))

	debugJSON, err := json.MarshalIndent(in, "", "    ")
	if err != nil {
		log.Error("Failed to encode debug payload", zap.Error(err))
		return
	}
	w.send(ctx, fmt.Sprintf("Debug JSON:\n```%s```", debugJSON))
}

func (w *EventWatcher) handleResponder(ctx context.Context, msg ChatMessage) {
	contract, ref, ok := w.pending.Take(msg.Text)
	if !ok {
		return
	}

	logger.WithOperation(w.logger, "responder_analysis").Info("Analysis found for pending contract",
		zap.String("contract", contract),
		zap.String("responder", msg.Sender))

	w.send(ctx, fmt.Sprintf(
		"Contract Detected:\n%s\n\nSent by: %s\n\nAnalysis by @%s:\n%s\nSource: telegram\n",
		contract, ref.Sender, msg.Sender, msg.Text))
}

func (w *EventWatcher) send(ctx context.Context, text string) {
	if err := w.sink.Send(ctx, w.targetChat, text); err != nil {
		w.logger.Error("Failed to send outbound message",
			zap.Int64("chat_id", w.targetChat),
			zap.Error(err))
	}
}

// summaryText renders the human-readable announcement for an enriched
// token insight.
func summaryText(in *insight.Insight) string {
	return fmt.Sprintf(
		"Contract Detected:\n%s\n\n"+
			"Sent by: %s\n\n"+
			"Name: %s\n"+
			"Symbol: %s\n"+
			"Price: %s\n"+
			"24h Price Change: %s\n"+
			"Total Supply: %s\n"+
			"Holders: %s\n"+
			"Market Cap: %s\n"+
			"Top 10 Holders: %s\n"+
			"Verified: %t\n"+
			"Risk Flag: %s\n"+
			"Source: %s\n",
		in.Contract, in.Sender, in.Name, in.Symbol, in.Price,
		in.PriceChange24h, in.TotalSupply, in.Holders, in.MarketCap,
		in.TopHolderPct, in.Verified, in.Risk, in.Source)
}
