// Package ledger keeps per-user cash balances and positions.
//
// Every user has one account with its own lock, so fills for different
// users never contend. The account map itself is only locked to look up
// or open an account. Cash and cost basis are held as exact decimals and
// converted to float64 at the edge.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
)

// DefaultStartingCash is the paper-trading endowment of a new account.
const DefaultStartingCash = 100000.0

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrInvalidFill          = errors.New("invalid fill")
	ErrPositionLimit        = errors.New("open position limit reached")
)

// Options configures a Ledger. The zero value permits overselling and
// negative cash, matching the unguarded paper-trading behaviour.
type Options struct {
	StartingCash    float64
	EnforceFunds    bool // reject buys that would take cash below zero
	ForbidShortSell bool // reject sells larger than the held quantity

	// MaxOpenPositions caps the distinct symbols an account may hold.
	// Buys adding to an existing position are always allowed. Zero disables it.
	MaxOpenPositions int
}

type holding struct {
	qty      int64
	cost     decimal.Decimal
	realized decimal.Decimal
}

func (h *holding) avg() decimal.Decimal {
	if h.qty == 0 {
		return decimal.Zero
	}
	return h.cost.Div(decimal.NewFromInt(h.qty))
}

type account struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	realized  decimal.Decimal
	positions map[string]*holding
}

// Ledger owns every account. Safe for concurrent use.
type Ledger struct {
	opts     Options
	starting decimal.Decimal

	mu       sync.RWMutex
	accounts map[string]*account

	metrics *metrics.Metrics
	log     *logrus.Entry
	now     func() time.Time
}

// New creates an empty ledger. m and log may be nil.
func New(opts Options, m *metrics.Metrics, log *logrus.Entry) *Ledger {
	if opts.StartingCash <= 0 {
		opts.StartingCash = DefaultStartingCash
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Ledger{
		opts:     opts,
		starting: decimal.NewFromFloat(opts.StartingCash),
		accounts: make(map[string]*account),
		metrics:  m,
		log:      log.WithField("component", "ledger"),
		now:      time.Now,
	}
}

// StartingCash returns the endowment every account opens with.
func (l *Ledger) StartingCash() float64 {
	return l.opts.StartingCash
}

// account returns the user's account, opening it if create is set.
func (l *Ledger) account(userID string, create bool) *account {
	l.mu.RLock()
	acct, ok := l.accounts[userID]
	l.mu.RUnlock()
	if ok || !create {
		return acct
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok = l.accounts[userID]; ok {
		return acct
	}
	acct = &account{
		cash:      l.starting,
		positions: make(map[string]*holding),
	}
	l.accounts[userID] = acct
	l.metrics.AccountOpened()
	l.log.WithField("user_id", userID).Debug("account opened")
	return acct
}

// ApplyFill books one executed trade. Each call is one fill; calls are not
// idempotent.
func (l *Ledger) ApplyFill(userID, symbol string, side model.Side, qty int64, price float64) (model.Fill, error) {
	symbol = strings.ToUpper(symbol)
	if userID == "" || symbol == "" || qty <= 0 || price <= 0 || !side.Valid() {
		return model.Fill{}, fmt.Errorf("%w: user=%q symbol=%q side=%q qty=%d price=%v",
			ErrInvalidFill, userID, symbol, side, qty, price)
	}

	acct := l.account(userID, true)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	px := decimal.NewFromFloat(price)
	q := decimal.NewFromInt(qty)
	notional := px.Mul(q)
	h := acct.positions[symbol]

	var realized decimal.Decimal
	switch side {
	case model.SideBuy:
		if l.opts.EnforceFunds && acct.cash.LessThan(notional) {
			return model.Fill{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds,
				notional.StringFixed(2), acct.cash.StringFixed(2))
		}
		if h == nil && l.opts.MaxOpenPositions > 0 && len(acct.positions) >= l.opts.MaxOpenPositions {
			return model.Fill{}, fmt.Errorf("%w: %d of %d open, cannot open %s", ErrPositionLimit,
				len(acct.positions), l.opts.MaxOpenPositions, symbol)
		}
		if h == nil {
			h = &holding{}
			acct.positions[symbol] = h
		}
		h.qty += qty
		h.cost = h.cost.Add(notional)
		acct.cash = acct.cash.Sub(notional)

	case model.SideSell:
		held := int64(0)
		if h != nil {
			held = h.qty
		}
		if l.opts.ForbidShortSell && qty > held {
			return model.Fill{}, fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientPosition,
				qty, symbol, held)
		}
		acct.cash = acct.cash.Add(notional)
		if h != nil {
			avg := h.avg()
			closed := qty
			if closed > held {
				closed = held
			}
			realized = px.Sub(avg).Mul(decimal.NewFromInt(closed))
			h.realized = h.realized.Add(realized)
			acct.realized = acct.realized.Add(realized)

			h.cost = h.cost.Sub(q.Mul(avg))
			h.qty -= qty
			if h.qty <= 0 {
				delete(acct.positions, symbol)
			}
		}
	}

	cash, _ := acct.cash.Float64()
	pnl, _ := realized.Float64()
	fill := model.Fill{
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    qty,
		Price:       price,
		CashAfter:   cash,
		RealizedPnL: pnl,
		FilledAt:    l.now(),
	}
	l.log.WithFields(logrus.Fields{
		"user_id": userID,
		"symbol":  symbol,
		"side":    side,
		"qty":     qty,
		"price":   price,
		"cash":    acct.cash.StringFixed(2),
	}).Debug("fill applied")
	return fill, nil
}

func snapshot(userID, symbol string, h *holding) model.Position {
	cost, _ := h.cost.Float64()
	avg, _ := h.avg().Float64()
	realized, _ := h.realized.Float64()
	return model.Position{
		UserID:       userID,
		Symbol:       symbol,
		Quantity:     h.qty,
		CostBasis:    cost,
		AveragePrice: avg,
		RealizedPnL:  realized,
	}
}

// Position returns the user's position in symbol, or false if none is held.
func (l *Ledger) Position(userID, symbol string) (model.Position, bool) {
	acct := l.account(userID, false)
	if acct == nil {
		return model.Position{}, false
	}
	symbol = strings.ToUpper(symbol)
	acct.mu.Lock()
	defer acct.mu.Unlock()
	h, ok := acct.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return snapshot(userID, symbol, h), true
}

// Positions returns all open positions for the user, sorted by symbol.
func (l *Ledger) Positions(userID string) []model.Position {
	acct := l.account(userID, false)
	if acct == nil {
		return []model.Position{}
	}
	acct.mu.Lock()
	out := make([]model.Position, 0, len(acct.positions))
	for sym, h := range acct.positions {
		out = append(out, snapshot(userID, sym, h))
	}
	acct.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// OpenPositions is the number of symbols the user currently holds.
func (l *Ledger) OpenPositions(userID string) int {
	acct := l.account(userID, false)
	if acct == nil {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return len(acct.positions)
}

// Cash returns the user's cash balance. Unknown users hold the endowment.
func (l *Ledger) Cash(userID string) float64 {
	acct := l.account(userID, false)
	if acct == nil {
		return l.opts.StartingCash
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	f, _ := acct.cash.Float64()
	return f
}

// RealizedPnL returns the P&L booked by sells over the account lifetime.
func (l *Ledger) RealizedPnL(userID string) float64 {
	acct := l.account(userID, false)
	if acct == nil {
		return 0
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	f, _ := acct.realized.Float64()
	return f
}

// Valuations marks every open position to the feed's current price.
// Prices are fetched outside the account lock.
func (l *Ledger) Valuations(ctx context.Context, userID string, feed model.PriceFeed) ([]model.PositionValuation, error) {
	positions := l.Positions(userID)
	out := make([]model.PositionValuation, 0, len(positions))
	for _, p := range positions {
		price, err := feed.CurrentPrice(ctx, p.Symbol)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", p.Symbol, err)
		}
		mv := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(p.Quantity))
		upnl := mv.Sub(decimal.NewFromFloat(p.CostBasis))

		v := model.PositionValuation{Position: p, CurrentPrice: price}
		v.MarketValue, _ = mv.Float64()
		v.UnrealizedPnL, _ = upnl.Float64()
		if p.CostBasis != 0 {
			v.UnrealizedPnLPercent, _ = upnl.Div(decimal.NewFromFloat(p.CostBasis)).
				Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, v)
	}
	return out, nil
}

// PortfolioValue is cash plus the market value of every open position.
func (l *Ledger) PortfolioValue(ctx context.Context, userID string, feed model.PriceFeed) (float64, error) {
	vals, err := l.Valuations(ctx, userID, feed)
	if err != nil {
		return 0, err
	}
	total := decimal.NewFromFloat(l.Cash(userID))
	for _, v := range vals {
		total = total.Add(decimal.NewFromFloat(v.MarketValue))
	}
	f, _ := total.Float64()
	return f, nil
}
