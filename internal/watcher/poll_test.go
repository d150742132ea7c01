package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/everion-labs/insight-pipeline/internal/feed"
	"github.com/everion-labs/insight-pipeline/internal/insight"
	"github.com/everion-labs/insight-pipeline/internal/market"
)

const pollContract = "0x" + "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90" + "::mycoin::MYCOIN"

type fakeSource struct {
	mu       sync.Mutex
	messages []*feed.Message
	errs     []error
	calls    int
}

func (f *fakeSource) Account() string { return "cryptoinsider" }

func (f *fakeSource) Latest(_ context.Context) (*feed.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.messages) {
		return f.messages[i], nil
	}
	if len(f.messages) == 0 {
		return nil, nil
	}
	return f.messages[len(f.messages)-1], nil
}

type memorySink struct {
	mu    sync.Mutex
	items []*insight.Insight
	err   error
}

func (m *memorySink) Append(in *insight.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, in)
	return nil
}

func (m *memorySink) all() []*insight.Insight {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*insight.Insight(nil), m.items...)
}

type noMarketData struct{}

func (noMarketData) TokenDetail(context.Context, string) *market.TokenDetail { return nil }
func (noMarketData) TopHolders(context.Context, string, int, int) []market.Holder {
	return nil
}

func newPollWatcher(source FeedSource, sink InsightSink, interval, duration time.Duration) *PollWatcher {
	return NewPollWatcher(&PollWatcherConfig{
		Source:   source,
		Builder:  insight.NewBuilder(noMarketData{}, zap.NewNop()),
		Store:    sink,
		Interval: interval,
		Duration: duration,
		Logger:   zap.NewNop(),
	})
}

func TestPollWatcherStoresNewMessages(t *testing.T) {
	source := &fakeSource{messages: []*feed.Message{
		{ID: "100", Text: "gm, market looks good", Link: "https://x.com/cryptoinsider/status/100"},
	}}
	sink := &memorySink{}
	w := newPollWatcher(source, sink, 5*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	items := sink.all()
	require.Len(t, items, 1, "repeated polls of the same message must store it once")
	assert.Equal(t, insight.KindMarket, items[0].Kind)
	assert.Equal(t, "100", items[0].MessageID)
	assert.Equal(t, "@cryptoinsider", items[0].Sender)
	assert.Equal(t, insight.ChannelTwitter, items[0].Source)
}

func TestPollWatcherDetectsContract(t *testing.T) {
	source := &fakeSource{messages: []*feed.Message{
		{ID: "200", Text: "new listing " + pollContract},
	}}
	sink := &memorySink{}
	w := newPollWatcher(source, sink, 5*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	items := sink.all()
	require.Len(t, items, 1)
	assert.Equal(t, insight.KindToken, items[0].Kind)
	assert.Equal(t, pollContract, items[0].Contract)
	assert.Equal(t, insight.RiskUnknown, items[0].Risk)
}

func TestPollWatcherSurvivesFetchErrors(t *testing.T) {
	source := &fakeSource{
		errs: []error{errors.New("mirror down")},
		messages: []*feed.Message{
			nil,
			{ID: "300", Text: "back online"},
		},
	}
	sink := &memorySink{}
	w := newPollWatcher(source, sink, 5*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	items := sink.all()
	require.Len(t, items, 1)
	assert.Equal(t, "300", items[0].MessageID)
}

func TestPollWatcherStopsAfterDuration(t *testing.T) {
	source := &fakeSource{messages: []*feed.Message{
		{ID: "500", Text: "steady stream"},
	}}
	sink := &memorySink{}
	w := newPollWatcher(source, sink, 5*time.Millisecond, 20*time.Millisecond)

	// The context stays alive well past the monitoring window; the
	// watcher has to end on its own once the duration elapses.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := w.Run(ctx)

	assert.NoError(t, err)
	assert.NoError(t, ctx.Err(), "run must end before the context does")
	assert.Len(t, sink.all(), 1)
}

func TestPollWatcherCyclesCarryCorrelationIDs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	source := &fakeSource{messages: []*feed.Message{
		{ID: "600", Text: "fresh message"},
	}}
	w := NewPollWatcher(&PollWatcherConfig{
		Source:   source,
		Builder:  insight.NewBuilder(noMarketData{}, zap.NewNop()),
		Store:    &memorySink{},
		Interval: 5 * time.Millisecond,
		Logger:   zap.New(core),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	var tagged int
	for _, entry := range logs.All() {
		fields := entry.ContextMap()
		if fields["operation"] == "feed_check" {
			tagged++
			assert.NotEmpty(t, fields["correlation_id"])
		}
	}
	assert.NotZero(t, tagged, "cycle log entries should carry the operation tag")
}

func TestPollWatcherSurvivesStoreErrors(t *testing.T) {
	source := &fakeSource{messages: []*feed.Message{
		{ID: "400", Text: "first"},
		{ID: "401", Text: "second"},
	}}
	sink := &memorySink{err: errors.New("disk full")}
	w := newPollWatcher(source, sink, 5*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)

	// The loop keeps running despite persistence failures.
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
