package api

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/api/response"
	"github.com/Akshit358/Finsage/internal/execution"
	"github.com/Akshit358/Finsage/internal/indicator"
	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/portfolio"
)

// Handlers exposes the order engine, portfolio views and indicator
// engine over HTTP.
type Handlers struct {
	orders     *execution.Engine
	portfolio  *portfolio.Service
	indicators *indicator.Engine
	fills      FillLister
	log        *logrus.Entry
}

// FillLister reads the fill journal.
type FillLister interface {
	Fills(ctx context.Context, userID string, limit int) ([]execution.FillRecord, error)
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, execution.ErrOrderNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, execution.ErrOrderNotCancellable):
		response.Conflict(c, err.Error())
	case errors.Is(err, execution.ErrPriceFeedUnavailable),
		errors.Is(err, indicator.ErrHistoryUnavailable):
		response.ServiceUnavailable(c, err.Error())
	default:
		logger.From(c.Request.Context(), h.log).WithError(err).Error("unhandled error")
		response.InternalError(c, "An unexpected error occurred")
	}
}

func (h *Handlers) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// SubmitOrder handles POST /orders. Rejected orders are still 201: the
// stored order is the result.
func (h *Handlers) SubmitOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetString(ctxUserID)
	}
	if !authorized(c, req.UserID) {
		response.Forbidden(c, "Cannot place orders for another user")
		return
	}
	if req.Kind == "" {
		req.Kind = model.KindMarket
	}

	order, err := h.orders.Submit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// ownedOrder loads an order and checks the caller may see it. Orders of
// other users are reported as not found.
func (h *Handlers) ownedOrder(c *gin.Context) (model.Order, bool) {
	order, err := h.orders.Get(c.Param("order_id"))
	if err == nil && !authorized(c, order.UserID) {
		err = execution.ErrOrderNotFound
	}
	if err != nil {
		h.respondError(c, err)
		return model.Order{}, false
	}
	return order, true
}

func (h *Handlers) GetOrder(c *gin.Context) {
	if order, ok := h.ownedOrder(c); ok {
		response.Success(c, order)
	}
}

func (h *Handlers) CancelOrder(c *gin.Context) {
	if _, ok := h.ownedOrder(c); !ok {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, order)
}

// user returns the :user_id path param after the ownership check.
func (h *Handlers) user(c *gin.Context) (string, bool) {
	userID := c.Param("user_id")
	if !authorized(c, userID) {
		response.Forbidden(c, "Cannot read another user's account")
		return "", false
	}
	return userID, true
}

func (h *Handlers) ListOrders(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	var filter *model.Status
	if raw := c.Query("status"); raw != "" {
		st := model.Status(strings.ToLower(raw))
		if !st.Valid() {
			response.BadRequest(c, "status must be one of pending, filled, cancelled, rejected")
			return
		}
		filter = &st
	}
	orders := h.orders.List(userID, filter)
	response.Success(c, gin.H{"orders": orders, "total_count": len(orders)})
}

func (h *Handlers) ListPositions(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	positions, err := h.portfolio.Positions(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, errors.Join(execution.ErrPriceFeedUnavailable, err))
		return
	}
	response.Success(c, gin.H{"positions": positions, "total_count": len(positions)})
}

func (h *Handlers) PortfolioSummary(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	summary, err := h.portfolio.Summary(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, errors.Join(execution.ErrPriceFeedUnavailable, err))
		return
	}
	response.Success(c, summary)
}

const maxFillsLimit = 1000

func (h *Handlers) ListFills(c *gin.Context) {
	userID, ok := h.user(c)
	if !ok {
		return
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxFillsLimit {
			response.BadRequest(c, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	fills, err := h.fills.Fills(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if fills == nil {
		fills = []execution.FillRecord{}
	}
	response.Success(c, gin.H{"fills": fills, "total_count": len(fills)})
}

func (h *Handlers) Analysis(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	timeframe := c.DefaultQuery("timeframe", "1d")
	snap, err := h.indicators.Analyze(c.Request.Context(), symbol, timeframe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Success(c, snap)
}
