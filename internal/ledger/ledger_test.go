package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshit358/Finsage/internal/model"
)

func staticFeed(prices map[string]float64) model.PriceFeed {
	return model.PriceFeedFunc(func(_ context.Context, symbol string) (float64, error) {
		p, ok := prices[symbol]
		if !ok {
			return 0, fmt.Errorf("no price for %s", symbol)
		}
		return p, nil
	})
}

func TestApplyFill_MarketBuyScenario(t *testing.T) {
	l := New(Options{}, nil, nil)

	fill, err := l.ApplyFill("U1", "AAPL", model.SideBuy, 10, 175.00)
	require.NoError(t, err)
	assert.Equal(t, 98250.0, fill.CashAfter)
	assert.Equal(t, 98250.0, l.Cash("U1"))

	pos, ok := l.Position("U1", "AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(10), pos.Quantity)
	assert.Equal(t, 175.0, pos.AveragePrice)
	assert.Equal(t, 1750.0, pos.CostBasis)
}

func TestApplyFill_CashMovesByNotional(t *testing.T) {
	tests := []struct {
		name  string
		side  model.Side
		qty   int64
		price float64
		want  float64
	}{
		{"buy", model.SideBuy, 3, 33.33, 100000 - 99.99},
		{"sell", model.SideSell, 7, 0.10, 100000 + 0.70},
		{"buy fractional", model.SideBuy, 1, 0.01, 99999.99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(Options{}, nil, nil)
			_, err := l.ApplyFill("u", "X", tt.side, tt.qty, tt.price)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, l.Cash("u"), 1e-9)
		})
	}
}

func TestApplyFill_WeightedAveragePrice(t *testing.T) {
	l := New(Options{}, nil, nil)
	_, err := l.ApplyFill("u", "MSFT", model.SideBuy, 10, 100)
	require.NoError(t, err)
	_, err = l.ApplyFill("u", "MSFT", model.SideBuy, 30, 120)
	require.NoError(t, err)

	pos, ok := l.Position("u", "MSFT")
	require.True(t, ok)
	assert.Equal(t, int64(40), pos.Quantity)
	assert.InDelta(t, (10*100.0+30*120.0)/40, pos.AveragePrice, 1e-9)
	assert.InDelta(t, pos.AveragePrice*float64(pos.Quantity), pos.CostBasis, 1e-9)
}

func TestApplyFill_SellRealizesAndRemovesPosition(t *testing.T) {
	l := New(Options{}, nil, nil)
	_, err := l.ApplyFill("u", "AAPL", model.SideBuy, 10, 100)
	require.NoError(t, err)

	fill, err := l.ApplyFill("u", "AAPL", model.SideSell, 4, 110)
	require.NoError(t, err)
	assert.Equal(t, 40.0, fill.RealizedPnL)

	pos, ok := l.Position("u", "AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(6), pos.Quantity)
	assert.Equal(t, 600.0, pos.CostBasis)
	assert.Equal(t, 100.0, pos.AveragePrice)

	_, err = l.ApplyFill("u", "AAPL", model.SideSell, 6, 90)
	require.NoError(t, err)
	_, ok = l.Position("u", "AAPL")
	assert.False(t, ok)
	assert.Equal(t, 100000-1000+440+540.0, l.Cash("u"))
	assert.Equal(t, 40.0-60.0, l.RealizedPnL("u"))
}

func TestApplyFill_OversellPermittedByDefault(t *testing.T) {
	l := New(Options{}, nil, nil)
	_, err := l.ApplyFill("u", "TSLA", model.SideBuy, 2, 250)
	require.NoError(t, err)

	_, err = l.ApplyFill("u", "TSLA", model.SideSell, 5, 250)
	require.NoError(t, err)
	_, ok := l.Position("u", "TSLA")
	assert.False(t, ok)
	assert.Equal(t, 100000+750.0, l.Cash("u"))
}

func TestApplyFill_Guards(t *testing.T) {
	l := New(Options{StartingCash: 1000, EnforceFunds: true, ForbidShortSell: true}, nil, nil)

	_, err := l.ApplyFill("u", "NVDA", model.SideBuy, 3, 450)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, 1000.0, l.Cash("u"))

	_, err = l.ApplyFill("u", "NVDA", model.SideBuy, 2, 450)
	require.NoError(t, err)

	_, err = l.ApplyFill("u", "NVDA", model.SideSell, 3, 450)
	assert.True(t, errors.Is(err, ErrInsufficientPosition))
	pos, _ := l.Position("u", "NVDA")
	assert.Equal(t, int64(2), pos.Quantity)
}

func TestApplyFill_Invalid(t *testing.T) {
	l := New(Options{}, nil, nil)
	for _, tc := range []struct {
		user, sym string
		side      model.Side
		qty       int64
		price     float64
	}{
		{"", "A", model.SideBuy, 1, 1},
		{"u", "", model.SideBuy, 1, 1},
		{"u", "A", "hold", 1, 1},
		{"u", "A", model.SideBuy, 0, 1},
		{"u", "A", model.SideBuy, 1, 0},
	} {
		_, err := l.ApplyFill(tc.user, tc.sym, tc.side, tc.qty, tc.price)
		assert.ErrorIs(t, err, ErrInvalidFill)
	}
}

func TestPositions_SortedAndCopied(t *testing.T) {
	l := New(Options{}, nil, nil)
	for _, s := range []string{"TSLA", "AAPL", "msft"} {
		_, err := l.ApplyFill("u", s, model.SideBuy, 1, 10)
		require.NoError(t, err)
	}
	got := l.Positions("u")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, []string{got[0].Symbol, got[1].Symbol, got[2].Symbol})

	got[0].Quantity = 99
	pos, _ := l.Position("u", "AAPL")
	assert.Equal(t, int64(1), pos.Quantity)

	assert.Empty(t, l.Positions("nobody"))
	assert.Equal(t, DefaultStartingCash, l.Cash("nobody"))
}

func TestPortfolioValue(t *testing.T) {
	l := New(Options{}, nil, nil)
	_, err := l.ApplyFill("u", "AAPL", model.SideBuy, 10, 175)
	require.NoError(t, err)
	_, err = l.ApplyFill("u", "MSFT", model.SideBuy, 2, 350)
	require.NoError(t, err)

	feed := staticFeed(map[string]float64{"AAPL": 180, "MSFT": 340})
	total, err := l.PortfolioValue(context.Background(), "u", feed)
	require.NoError(t, err)
	assert.Equal(t, 100000-1750-700+1800+680.0, total)

	vals, err := l.Valuations(context.Background(), "u", feed)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, 50.0, vals[0].UnrealizedPnL)
	assert.InDelta(t, 50.0/1750*100, vals[0].UnrealizedPnLPercent, 1e-9)
	assert.Equal(t, -20.0, vals[1].UnrealizedPnL)

	_, err = l.PortfolioValue(context.Background(), "u", staticFeed(nil))
	assert.Error(t, err)
}

func TestApplyFill_ConcurrentUsers(t *testing.T) {
	l := New(Options{}, nil, nil)
	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", u)
			for i := 0; i < 100; i++ {
				_, err := l.ApplyFill(user, "SPY", model.SideBuy, 1, 1)
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		user := fmt.Sprintf("user-%d", u)
		assert.Equal(t, 100000-100.0, l.Cash(user))
		pos, ok := l.Position(user, "SPY")
		require.True(t, ok)
		assert.Equal(t, int64(100), pos.Quantity)
	}
}

func TestApplyFill_PositionLimit(t *testing.T) {
	l := New(Options{MaxOpenPositions: 2}, nil, nil)

	_, err := l.ApplyFill("u", "AAPL", model.SideBuy, 1, 10)
	require.NoError(t, err)
	_, err = l.ApplyFill("u", "MSFT", model.SideBuy, 1, 10)
	require.NoError(t, err)

	_, err = l.ApplyFill("u", "NVDA", model.SideBuy, 1, 10)
	assert.ErrorIs(t, err, ErrPositionLimit)
	assert.Equal(t, 100000-20.0, l.Cash("u"))
	_, ok := l.Position("u", "NVDA")
	assert.False(t, ok)

	_, err = l.ApplyFill("u", "AAPL", model.SideBuy, 4, 10)
	require.NoError(t, err, "adding to a held symbol is not a new position")

	_, err = l.ApplyFill("u", "MSFT", model.SideSell, 1, 10)
	require.NoError(t, err)
	_, err = l.ApplyFill("u", "NVDA", model.SideBuy, 1, 10)
	assert.NoError(t, err, "closing a position frees a slot")
}

func TestApplyFill_PositionLimitConcurrent(t *testing.T) {
	const limit = 3
	l := New(Options{MaxOpenPositions: limit}, nil, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.ApplyFill("u", fmt.Sprintf("SYM%d", i), model.SideBuy, 1, 1)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrPositionLimit)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, limit, accepted)
	assert.Len(t, l.Positions("u"), limit)
}
