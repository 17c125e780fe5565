package portfolio

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/model"
)

// ErrRiskLimit is returned when an order would breach a pre-trade limit.
var ErrRiskLimit = errors.New("risk limit")

// RiskLimits defines configurable pre-trade thresholds. A zero field
// disables that check.
type RiskLimits struct {
	MaxOrderQuantity int64   `json:"max_order_quantity"` // max qty per order
	MaxOpenPositions int     `json:"max_open_positions"` // max distinct symbols held per user
	MaxOrderNotional float64 `json:"max_order_notional"` // max qty x price per order
}

// Enabled reports whether any limit is set.
func (l RiskLimits) Enabled() bool {
	return l.MaxOrderQuantity > 0 || l.MaxOpenPositions > 0 || l.MaxOrderNotional > 0
}

// Holdings is the read side of the ledger the risk checks need.
type Holdings interface {
	Position(userID, symbol string) (model.Position, bool)
	OpenPositions(userID string) int
}

// RiskManager validates orders against RiskLimits before they execute.
type RiskManager struct {
	limits   RiskLimits
	holdings Holdings
	log      *logrus.Entry
}

// NewRiskManager creates a RiskManager over the given holdings.
func NewRiskManager(limits RiskLimits, holdings Holdings, log *logrus.Entry) *RiskManager {
	if log == nil {
		log = logger.Discard()
	}
	return &RiskManager{
		limits:   limits,
		holdings: holdings,
		log:      log.WithField("component", "risk"),
	}
}

// Limits returns the configured thresholds.
func (rm *RiskManager) Limits() RiskLimits {
	return rm.limits
}

// CanTrade checks req at the given reference price. A nil error means
// the order is allowed; otherwise the error wraps ErrRiskLimit and names
// the breached limit.
func (rm *RiskManager) CanTrade(req model.OrderRequest, price float64) error {
	if rm == nil {
		return nil
	}

	if rm.limits.MaxOrderQuantity > 0 && req.Quantity > rm.limits.MaxOrderQuantity {
		return rm.reject(req, fmt.Errorf("%w: quantity %d exceeds max %d",
			ErrRiskLimit, req.Quantity, rm.limits.MaxOrderQuantity))
	}

	if rm.limits.MaxOrderNotional > 0 {
		notional := float64(req.Quantity) * price
		if notional > rm.limits.MaxOrderNotional {
			return rm.reject(req, fmt.Errorf("%w: notional %.2f exceeds max %.2f",
				ErrRiskLimit, notional, rm.limits.MaxOrderNotional))
		}
	}

	// Only a buy in a symbol not yet held opens a new position. This is an
	// early check; ledger.Options.MaxOpenPositions enforces it at fill time.
	if rm.limits.MaxOpenPositions > 0 && req.Side == model.SideBuy && rm.holdings != nil {
		if _, held := rm.holdings.Position(req.UserID, req.Symbol); !held {
			if open := rm.holdings.OpenPositions(req.UserID); open >= rm.limits.MaxOpenPositions {
				return rm.reject(req, fmt.Errorf("%w: %d open positions, max %d",
					ErrRiskLimit, open, rm.limits.MaxOpenPositions))
			}
		}
	}

	return nil
}

func (rm *RiskManager) reject(req model.OrderRequest, err error) error {
	rm.log.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"symbol":  req.Symbol,
		"qty":     req.Quantity,
	}).Warn(err.Error())
	return err
}
