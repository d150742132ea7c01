// internal/insight/insight.go
package insight

// Kind classifies a persisted insight record.
type Kind string

const (
	KindToken  Kind = "token_insight"
	KindMarket Kind = "market_insight"
)

// Channel identifies the source platform of the triggering message.
type Channel string

const (
	ChannelTwitter  Channel = "twitter"
	ChannelTelegram Channel = "telegram"
)

// RiskFlag carries the scam indicator state of a token insight.
type RiskFlag string

const (
	RiskNone    RiskFlag = "none"
	RiskScam    RiskFlag = "scam"
	RiskUnknown RiskFlag = "unknown"
)

// Insight is the persisted unit of the pipeline: one enriched record
// derived from a detected source message. Records are created once by
// the Builder and never mutated afterwards; formatting is applied at
// build time, not at read time.
type Insight struct {
	Kind   Kind    `json:"kind"`
	Source Channel `json:"source"`

	// Contract is the detected on-chain identifier. Empty for
	// non-token (market) insights.
	Contract string `json:"contract,omitempty"`
	Sender   string `json:"sender,omitempty"`

	// Market fields. Sentinel values ("N/A", "Unknown") mean
	// enrichment was unavailable, which is distinct from zero.
	Name           string   `json:"name,omitempty"`
	Symbol         string   `json:"symbol,omitempty"`
	Price          string   `json:"price,omitempty"`
	PriceChange24h string   `json:"price_change_24h_pct,omitempty"`
	TotalSupply    string   `json:"total_supply_formatted,omitempty"`
	Holders        string   `json:"holders_formatted,omitempty"`
	MarketCap      string   `json:"market_cap_formatted,omitempty"`
	TopHolderPct   string   `json:"top_10_holder_pct,omitempty"`
	Verified       bool     `json:"verified"`
	Risk           RiskFlag `json:"risk_flag,omitempty"`

	// Provenance of the triggering message.
	MessageID   string `json:"message_id"`
	MessageLink string `json:"message_link,omitempty"`
	Text        string `json:"text"`
	CreatedAt   string `json:"created_at"`

	// Summary is the one-line rendering of a non-token insight.
	Summary string `json:"summary,omitempty"`

	// IngestedAt is when the record was created, not when the source
	// message was posted.
	IngestedAt string `json:"ingested_at"`
}

// NaturalKey returns the field used for store-level deduplication:
// the contract identifier for token insights, the message id otherwise.
func (i *Insight) NaturalKey() string {
	if i.Contract != "" {
		return i.Contract
	}
	return i.MessageID
}

// MatchesKey reports whether key equals either the contract identifier
// or the message id. Lookups and deletes accept both.
func (i *Insight) MatchesKey(key string) bool {
	return (i.Contract != "" && i.Contract == key) || i.MessageID == key
}
