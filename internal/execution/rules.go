package execution

import "github.com/Akshit358/Finsage/internal/model"

// limitMet: a buy fills at or below the limit, a sell at or above it.
func limitMet(side model.Side, price, limit float64) bool {
	if side == model.SideBuy {
		return price <= limit
	}
	return price >= limit
}

// stopTriggered: a buy stop triggers at or above the stop, a sell stop at
// or below it.
func stopTriggered(side model.Side, price, stop float64) bool {
	if side == model.SideBuy {
		return price >= stop
	}
	return price <= stop
}

// shouldFill decides, once at submission, whether a validated order fills
// at the current price. A stop-limit fills only when the stop has
// triggered and the limit is met.
func shouldFill(req model.OrderRequest, price float64) bool {
	switch req.Kind {
	case model.KindMarket:
		return true
	case model.KindLimit:
		return limitMet(req.Side, price, *req.LimitPrice)
	case model.KindStop:
		return stopTriggered(req.Side, price, *req.StopPrice)
	case model.KindStopLimit:
		return stopTriggered(req.Side, price, *req.StopPrice) &&
			limitMet(req.Side, price, *req.LimitPrice)
	}
	return false
}
