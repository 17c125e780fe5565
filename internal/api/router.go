// Package api serves the paper-trading HTTP API.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/internal/execution"
	"github.com/Akshit358/Finsage/internal/indicator"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/portfolio"
)

// Deps are the components the router exposes. Stream, Gatherer and
// Limiter are optional.
type Deps struct {
	Orders     *execution.Engine
	Portfolio  *portfolio.Service
	Indicators *indicator.Engine
	Fills      FillLister // optional fill history

	Stream   http.Handler // websocket order stream
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Limiter  *RateLimiter
	Log      *logrus.Entry

	JWTSecret string
}

// NewRouter builds the gin engine with all API routes.
func NewRouter(d Deps) *gin.Engine {
	h := &Handlers{
		orders:     d.Orders,
		portfolio:  d.Portfolio,
		indicators: d.Indicators,
		fills:      d.Fills,
		log:        d.Log,
	}
	if h.log == nil {
		h.log = logrus.NewEntry(logrus.StandardLogger())
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.log, d.Metrics))

	r.GET("/api/v1/health", h.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1", JWTAuth(d.JWTSecret))
	if d.Limiter != nil {
		v1.Use(d.Limiter.Middleware())
	}

	v1.POST("/orders", h.SubmitOrder)
	v1.GET("/orders/:order_id", h.GetOrder)
	v1.DELETE("/orders/:order_id", h.CancelOrder)

	v1.GET("/users/:user_id/orders", h.ListOrders)
	v1.GET("/users/:user_id/positions", h.ListPositions)
	v1.GET("/users/:user_id/portfolio", h.PortfolioSummary)
	if d.Fills != nil {
		v1.GET("/users/:user_id/fills", h.ListFills)
	}

	v1.GET("/analysis/:symbol", h.Analysis)

	if d.Stream != nil {
		r.GET("/ws", StreamAuth(d.JWTSecret), gin.WrapH(d.Stream))
	}
	return r
}
