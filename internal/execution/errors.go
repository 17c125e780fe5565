package execution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Akshit358/Finsage/internal/model"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotCancellable  = errors.New("order cannot be cancelled")
	ErrPriceFeedUnavailable = errors.New("price feed unavailable")
)

// ValidationError describes a bad order parameter. It is never returned
// from Submit; the order is stored as REJECTED with the error as reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Validate checks a request's parameters. It does not consult prices.
func Validate(req model.OrderRequest) *ValidationError {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return invalid("user_id", "required")
	case strings.TrimSpace(req.Symbol) == "":
		return invalid("symbol", "required")
	case !req.Side.Valid():
		return invalid("side", fmt.Sprintf("%q is not buy or sell", req.Side))
	case !req.Kind.Valid():
		return invalid("order_type", fmt.Sprintf("%q is not market, limit, stop or stop_limit", req.Kind))
	case req.Quantity <= 0:
		return invalid("quantity", "must be positive")
	}

	if req.Kind.NeedsLimit() {
		if req.LimitPrice == nil {
			return invalid("limit_price", fmt.Sprintf("required for %s orders", req.Kind))
		}
		if *req.LimitPrice <= 0 {
			return invalid("limit_price", "must be positive")
		}
	}
	if req.Kind.NeedsStop() {
		if req.StopPrice == nil {
			return invalid("stop_price", fmt.Sprintf("required for %s orders", req.Kind))
		}
		if *req.StopPrice <= 0 {
			return invalid("stop_price", "must be positive")
		}
	}
	return nil
}
