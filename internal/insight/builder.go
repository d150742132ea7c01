// internal/insight/builder.go
package insight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/everion-labs/insight-pipeline/internal/market"
)

const unknownName = "Unknown"

// Top-10 holder page requested from the market API.
const (
	holderPageIndex = 1
	holderPageSize  = 10
)

// MarketData is the slice of the market client the builder depends on.
// Absent results (nil) mean enrichment is unavailable.
type MarketData interface {
	TokenDetail(ctx context.Context, coinType string) *market.TokenDetail
	TopHolders(ctx context.Context, coinType string, pageIndex, pageSize int) []market.Holder
}

// Message is the provenance of one detected source message.
type Message struct {
	ID        string
	Link      string
	Text      string
	Sender    string
	CreatedAt string
	Source    Channel
}

// Builder turns detected messages into normalized insight records.
// It is a pure transform apart from the market lookups: persistence is
// the caller's responsibility.
type Builder struct {
	market MarketData
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a builder backed by the given market data source.
func NewBuilder(md MarketData, logger *zap.Logger) *Builder {
	return &Builder{
		market: md,
		logger: logger.Named("builder"),
		now:    time.Now,
	}
}

// Build creates an insight for msg. When contract is non-empty the
// record is a token insight enriched via the market API; enrichment
// failure still yields a record, with every market field set to its
// sentinel. Otherwise the record is a non-token market insight
// carrying provenance and a one-line summary.
func (b *Builder) Build(ctx context.Context, msg Message, contract string) *Insight {
	if contract == "" {
		return b.buildMarketInsight(msg)
	}
	return b.buildTokenInsight(ctx, msg, contract)
}

func (b *Builder) buildTokenInsight(ctx context.Context, msg Message, contract string) *Insight {
	in := &Insight{
		Kind:        KindToken,
		Source:      msg.Source,
		Contract:    contract,
		Sender:      msg.Sender,
		MessageID:   msg.ID,
		MessageLink: msg.Link,
		Text:        msg.Text,
		CreatedAt:   msg.CreatedAt,
		IngestedAt:  b.timestamp(),
	}

	detail := b.market.TokenDetail(ctx, contract)
	if detail == nil {
		b.logger.Info("Market data unavailable, storing sentinel insight",
			zap.String("contract", contract))
		in.Name = unknownName
		in.Symbol = unknownName
		in.Price = market.Sentinel
		in.PriceChange24h = market.Sentinel
		in.TotalSupply = market.Sentinel
		in.Holders = market.Sentinel
		in.MarketCap = market.Sentinel
		in.TopHolderPct = market.Sentinel
		in.Verified = false
		in.Risk = RiskUnknown
		return in
	}

	in.Name = orUnknown(detail.Name)
	in.Symbol = orUnknown(detail.Symbol)
	in.Price = orSentinel(detail.Price.String())
	if v := detail.PriceChange24H.String(); v != "" {
		in.PriceChange24h = fmt.Sprintf("%s%%", v)
	} else {
		in.PriceChange24h = market.Sentinel
	}
	in.TotalSupply = market.FormatMagnitude(detail.TotalSupply)
	in.Holders = market.FormatMagnitude(detail.Holders)
	in.MarketCap = market.FormatMagnitude(detail.MarketCap)
	in.Verified = detail.Verified
	if detail.ScamFlag != 0 {
		in.Risk = RiskScam
	} else {
		in.Risk = RiskNone
	}

	holders := b.market.TopHolders(ctx, contract, holderPageIndex, holderPageSize)
	in.TopHolderPct = market.TopHolderShare(holders)

	return in
}

func (b *Builder) buildMarketInsight(msg Message) *Insight {
	return &Insight{
		Kind:        KindMarket,
		Source:      msg.Source,
		MessageID:   msg.ID,
		MessageLink: msg.Link,
		Text:        msg.Text,
		Sender:      msg.Sender,
		CreatedAt:   msg.CreatedAt,
		Summary:     fmt.Sprintf("%s: %s 🔗", msg.Sender, msg.Text),
		IngestedAt:  b.timestamp(),
	}
}

func (b *Builder) timestamp() string {
	return b.now().UTC().Format(time.RFC3339)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

func orSentinel(s string) string {
	if s == "" {
		return market.Sentinel
	}
	return s
}
