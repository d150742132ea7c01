// internal/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tg "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/watcher"
)

// AuthMode selects how the chat session is established.
type AuthMode string

const (
	// AuthModeBot authenticates with a bot token.
	AuthModeBot AuthMode = "bot"
	// AuthModeUser is a phone-number user session. The current client
	// implementation does not support it; selecting it is a
	// configuration error at startup.
	AuthModeUser AuthMode = "user"
)

// ErrUnsupportedAuthMode is returned when the configured auth mode has
// no client implementation.
var ErrUnsupportedAuthMode = errors.New("auth mode not supported by the telegram client")

// Handler receives each inbound chat message.
type Handler func(ctx context.Context, msg watcher.ChatMessage)

// Client adapts the Telegram bot API to the watcher's chat
// capabilities: an inbound event stream and an outbound message sink.
type Client struct {
	bot     *tg.Bot
	handler Handler
	logger  *zap.Logger
}

// ClientConfig configures the Telegram client.
type ClientConfig struct {
	Token   string
	Mode    AuthMode
	Handler Handler
	Logger  *zap.Logger
}

// NewClient creates a Telegram client in the configured auth mode.
func NewClient(cfg *ClientConfig) (*Client, error) {
	switch cfg.Mode {
	case AuthModeBot, "":
	case AuthModeUser:
		return nil, fmt.Errorf("%w: %q requires a user session client", ErrUnsupportedAuthMode, cfg.Mode)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAuthMode, cfg.Mode)
	}

	c := &Client{
		handler: cfg.Handler,
		logger:  cfg.Logger.Named("telegram"),
	}

	b, err := tg.New(cfg.Token, tg.WithDefaultHandler(c.onUpdate))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c.bot = b
	return c, nil
}

// Run starts long polling and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	c.logger.Info("🤖 Telegram client connected, waiting for messages")
	c.bot.Start(ctx)
	c.logger.Info("Telegram client stopped")
	return ctx.Err()
}

// Send delivers a message to the given chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &tg.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (c *Client) onUpdate(ctx context.Context, _ *tg.Bot, update *models.Update) {
	if update.Message == nil || c.handler == nil {
		return
	}
	m := update.Message

	sender := ""
	if m.From != nil {
		sender = m.From.Username
	}

	c.handler(ctx, watcher.ChatMessage{
		ID:        strconv.Itoa(m.ID),
		ChatID:    m.Chat.ID,
		Sender:    sender,
		Text:      m.Text,
		CreatedAt: time.Unix(int64(m.Date), 0).UTC(),
	})
}
