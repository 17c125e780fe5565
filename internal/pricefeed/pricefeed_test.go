package pricefeed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshit358/Finsage/internal/model"
)

func TestSynthetic_ZeroJitterIsBase(t *testing.T) {
	feed := NewSynthetic(0, 1)
	ctx := context.Background()

	for sym, base := range BasePrices {
		p, err := feed.CurrentPrice(ctx, sym)
		require.NoError(t, err)
		assert.Equal(t, base, p, sym)
	}

	p, err := feed.CurrentPrice(ctx, "zzzz")
	require.NoError(t, err)
	assert.Equal(t, DefaultBasePrice, p)

	_, err = feed.CurrentPrice(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestSynthetic_JitterBoundsAndCents(t *testing.T) {
	feed := NewSynthetic(DefaultJitter, 42)
	for i := 0; i < 500; i++ {
		p, err := feed.CurrentPrice(context.Background(), "aapl")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 175*0.98-0.01)
		assert.LessOrEqual(t, p, 175*1.02+0.01)
		assert.InDelta(t, p, roundCents(p), 1e-9)
	}
}

func TestSynthetic_SeedIsDeterministic(t *testing.T) {
	a, b := NewSynthetic(DefaultJitter, 7), NewSynthetic(DefaultJitter, 7)
	for i := 0; i < 10; i++ {
		pa, _ := a.CurrentPrice(context.Background(), "MSFT")
		pb, _ := b.CurrentPrice(context.Background(), "MSFT")
		assert.Equal(t, pa, pb)
	}
}

func TestSynthetic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSynthetic(0, 1).CurrentPrice(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomWalk(t *testing.T) {
	walk := NewRandomWalk(NewSynthetic(0, 1), 0, 3)

	daily, err := walk.Series(context.Background(), "AAPL", "1d")
	require.NoError(t, err)
	require.Len(t, daily, 100)
	assert.Equal(t, 175.0, daily[0])
	for i := 1; i < len(daily); i++ {
		move := daily[i]/daily[i-1] - 1
		assert.LessOrEqual(t, move, DefaultWalkStep+1e-12)
		assert.GreaterOrEqual(t, move, -DefaultWalkStep-1e-12)
	}

	hourly, err := walk.Series(context.Background(), "AAPL", "1h")
	require.NoError(t, err)
	assert.Len(t, hourly, 50)

	_, err = NewRandomWalk(NewStatic(nil), 0, 1).Series(context.Background(), "AAPL", "1d")
	assert.ErrorIs(t, err, ErrNoPrice)
}

func TestStatic(t *testing.T) {
	feed := NewStatic(map[string]float64{"aapl": 175})
	p, err := feed.CurrentPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 175.0, p)

	feed.Set("AAPL", 180)
	p, _ = feed.CurrentPrice(context.Background(), "aapl")
	assert.Equal(t, 180.0, p)

	boom := errors.New("down")
	feed.Fail(boom)
	_, err = feed.CurrentPrice(context.Background(), "AAPL")
	assert.ErrorIs(t, err, boom)

	hist := StaticHistory{"AAPL": {1, 2, 3}}
	got, err := hist.Series(context.Background(), "aapl", "1d")
	require.NoError(t, err)
	got[0] = 99
	again, _ := hist.Series(context.Background(), "AAPL", "1d")
	assert.Equal(t, []float64{1, 2, 3}, again)
}

type countingFeed struct {
	calls atomic.Int32
	price float64
	err   error
}

func (f *countingFeed) CurrentPrice(context.Context, string) (float64, error) {
	f.calls.Add(1)
	return f.price, f.err
}

func TestCached_LocalTier(t *testing.T) {
	next := &countingFeed{price: 123.45}
	c := NewCache(CacheConfig{TTL: time.Minute, LocalSize: 100})
	require.NotNil(t, c)
	feed := NewCached(next, c, time.Minute, nil, nil)

	for i := 0; i < 5; i++ {
		p, err := feed.CurrentPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 123.45, p)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	_, err := feed.CurrentPrice(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_Disabled(t *testing.T) {
	assert.Nil(t, NewCache(CacheConfig{}))
	next := &countingFeed{price: 1}
	feed := NewCached(next, nil, 0, nil, nil)
	feed.CurrentPrice(context.Background(), "A")
	feed.CurrentPrice(context.Background(), "A")
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	next := &countingFeed{err: errors.New("down")}
	feed := NewCached(next, NewCache(CacheConfig{TTL: time.Minute, LocalSize: 10}), time.Minute, nil, nil)
	_, err := feed.CurrentPrice(context.Background(), "A")
	assert.Error(t, err)
	_, err = feed.CurrentPrice(context.Background(), "A")
	assert.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	next := &countingFeed{err: errors.New("down")}
	b := NewBreaker(next, 2, time.Second, nil, nil)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	var transitions []State
	b.OnStateChange = func(_, to State) { transitions = append(transitions, to) }

	for i := 0; i < 2; i++ {
		_, err := b.CurrentPrice(context.Background(), "A")
		assert.EqualError(t, err, "down")
	}
	assert.Equal(t, StateOpen, b.CurrentState())

	_, err := b.CurrentPrice(context.Background(), "A")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), next.calls.Load())

	clock = clock.Add(2 * time.Second)
	next.err = nil
	next.price = 10
	p, err := b.CurrentPrice(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 10.0, p)
	assert.Equal(t, StateClosed, b.CurrentState())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	next := &countingFeed{err: errors.New("down")}
	b := NewBreaker(next, 1, time.Second, nil, nil)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	b.CurrentPrice(context.Background(), "A")
	require.Equal(t, StateOpen, b.CurrentState())

	clock = clock.Add(2 * time.Second)
	_, err := b.CurrentPrice(context.Background(), "A")
	assert.EqualError(t, err, "down")
	assert.Equal(t, StateOpen, b.CurrentState())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestInstrument_NilMetricsPassthrough(t *testing.T) {
	next := &countingFeed{price: 5}
	var feed model.PriceFeed = Instrument(next, nil)
	p, err := feed.CurrentPrice(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p)
}
