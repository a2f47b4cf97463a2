package narrative

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type fakeModel struct {
	provider Provider
	name     string
	text     string
	err      error
	delay    time.Duration
	calls    int
}

func (f *fakeModel) Complete(ctx context.Context, _ []Message) (*Response, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: f.text, Provider: f.provider, Model: f.name}, nil
}

func (f *fakeModel) Provider() Provider { return f.provider }
func (f *fakeModel) Model() string      { return f.name }

type denyAll struct{}

func (denyAll) Allow() bool { return false }

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeModel{provider: ProviderGoogle, name: "g", text: "from google"}
	second := &fakeModel{provider: ProviderOpenAI, name: "o", text: "from openai"}

	resp, err := NewChain(Link{Model: first}, Link{Model: second}).Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "from google", resp.Content)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBack(t *testing.T) {
	tests := []struct {
		name  string
		first Link
	}{
		{"error", Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", err: errors.New("boom")}}},
		{"empty text", Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", text: "  \n"}}},
		{"timeout", Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", text: "late", delay: time.Second}, Timeout: 10 * time.Millisecond}},
		{"rate limited", Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", text: "x"}, Limiter: denyAll{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := &fakeModel{provider: ProviderAnthropic, name: "a", text: "fallback"}
			resp, err := NewChain(tt.first, Link{Model: second}).Complete(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, "fallback", resp.Content)
			assert.Equal(t, 1, second.calls)
		})
	}
}

func TestChain_RateLimitedModelIsNotCalled(t *testing.T) {
	limited := &fakeModel{provider: ProviderGoogle, name: "g", text: "x"}
	_, err := NewChain(Link{Model: limited, Limiter: denyAll{}}).Complete(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNoModelAvailable)
	assert.ErrorContains(t, err, "hourly limit reached")
	assert.Equal(t, 0, limited.calls)
}

func TestChain_AllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(
		Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", err: boom}},
		Link{Model: &fakeModel{provider: ProviderOpenAI, name: "o", err: boom}},
	)

	_, err := chain.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoModelAvailable)
	assert.ErrorIs(t, err, boom)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain().Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoModelAvailable)
}

func TestChain_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeModel{provider: ProviderGoogle, name: "g", text: "x"}
	_, err := NewChain(Link{Model: m}).Complete(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.calls)
}

func TestChain_EmitsProgress(t *testing.T) {
	var buf bytes.Buffer
	chain := NewChain(
		Link{Model: &fakeModel{provider: ProviderGoogle, name: "g", text: "x"}, Limiter: denyAll{}},
		Link{Model: &fakeModel{provider: ProviderOpenAI, name: "o", err: errors.New("boom")}},
		Link{Model: &fakeModel{provider: ProviderAnthropic, name: "a", text: "ok"}},
	).WithEmitter(&TextEmitter{W: &buf})

	_, err := chain.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, `[google/g] skipped: hourly limit reached
[openai/o] generating explanation
[openai/o] failed: boom
[anthropic/a] generating explanation
[anthropic/a] done
`, buf.String())
}

func TestHourlyLimiter(t *testing.T) {
	l := NewHourlyLimiter(2)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, 0, l.Remaining())

	unlimited := NewHourlyLimiter(0)
	for range 100 {
		assert.True(t, unlimited.Allow())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}

func TestChain_LogsRemainingQuota(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	model := &fakeModel{provider: ProviderGoogle, name: "g", text: "ok"}
	chain := NewChain(Link{Model: model, Limiter: NewHourlyLimiter(3)}).WithLogger(zap.New(core))

	_, err := chain.Complete(context.Background(), nil)
	require.NoError(t, err)

	entries := logs.FilterMessage("explanation generated").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["remaining_this_hour"])
	assert.Equal(t, "google", entries[0].ContextMap()["provider"])
}
