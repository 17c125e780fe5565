package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshit358/Finsage/internal/ledger"
	"github.com/Akshit358/Finsage/internal/model"
)

func TestRiskManager_CanTrade(t *testing.T) {
	l := ledger.New(ledger.Options{}, nil, nil)
	_, err := l.ApplyFill("u", "AAPL", model.SideBuy, 1, 100)
	require.NoError(t, err)
	_, err = l.ApplyFill("u", "MSFT", model.SideBuy, 1, 100)
	require.NoError(t, err)

	rm := NewRiskManager(RiskLimits{MaxOrderQuantity: 100, MaxOpenPositions: 2, MaxOrderNotional: 50000}, l, nil)

	tests := []struct {
		name    string
		req     model.OrderRequest
		price   float64
		blocked bool
	}{
		{"within limits", model.OrderRequest{UserID: "u", Symbol: "AAPL", Side: model.SideBuy, Quantity: 10}, 100, false},
		{"quantity", model.OrderRequest{UserID: "u", Symbol: "AAPL", Side: model.SideBuy, Quantity: 101}, 1, true},
		{"notional", model.OrderRequest{UserID: "u", Symbol: "AAPL", Side: model.SideBuy, Quantity: 100}, 501, true},
		{"new position over cap", model.OrderRequest{UserID: "u", Symbol: "TSLA", Side: model.SideBuy, Quantity: 1}, 100, true},
		{"sell never opens", model.OrderRequest{UserID: "u", Symbol: "TSLA", Side: model.SideSell, Quantity: 1}, 100, false},
		{"other user", model.OrderRequest{UserID: "v", Symbol: "TSLA", Side: model.SideBuy, Quantity: 1}, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rm.CanTrade(tt.req, tt.price)
			if tt.blocked {
				assert.ErrorIs(t, err, ErrRiskLimit)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRiskManager_NilAndDisabled(t *testing.T) {
	var rm *RiskManager
	assert.NoError(t, rm.CanTrade(model.OrderRequest{Quantity: 1 << 40}, 1))
	assert.False(t, RiskLimits{}.Enabled())
	assert.True(t, RiskLimits{MaxOpenPositions: 1}.Enabled())
}
