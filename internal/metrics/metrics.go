package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics holds all Prometheus metrics for the paper-trading engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Order lifecycle
	OrdersTotal  *prometheus.CounterVec // labels: kind, status
	CancelsTotal *prometheus.CounterVec // labels: result
	FillsTotal   *prometheus.CounterVec // labels: side
	FillNotional *prometheus.CounterVec // labels: side

	// Price feed
	PriceFeedDur    prometheus.Histogram
	PriceFeedErrors prometheus.Counter
	PriceCacheHits  *prometheus.CounterVec // labels: result=hit|miss

	// Indicator engine
	IndicatorComputeDur prometheus.Histogram

	// Ledger
	Accounts prometheus.Gauge

	// Event fan-out
	EventsPublished *prometheus.CounterVec // labels: sink
	EventsDropped   *prometheus.CounterVec // labels: sink

	// Circuit breaker around the price feed (0=closed, 1=open, 2=half-open)
	FeedBreakerState prometheus.Gauge

	// HTTP host
	HTTPRequestDur *prometheus.HistogramVec // labels: route, code
}

// NewMetrics creates and registers all metrics on reg.
// A nil reg registers on the Prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_orders_total",
			Help: "Orders submitted, by kind and resulting status",
		}, []string{"kind", "status"}),
		CancelsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_cancels_total",
			Help: "Cancel requests, by result",
		}, []string{"result"}),
		FillsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_fills_total",
			Help: "Fills applied to the ledger",
		}, []string{"side"}),
		FillNotional: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_fill_notional_total",
			Help: "Sum of quantity x fill price",
		}, []string{"side"}),

		PriceFeedDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "papertrader_price_feed_duration_seconds",
			Help:    "Current-price lookup latency",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		PriceFeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "papertrader_price_feed_errors_total",
			Help: "Failed current-price lookups",
		}),
		PriceCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_price_cache_lookups_total",
			Help: "Price cache lookups, by result",
		}, []string{"result"}),

		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "papertrader_indicator_compute_duration_seconds",
			Help:    "Indicator snapshot compute latency",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),

		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrader_accounts",
			Help: "Ledger accounts opened",
		}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_events_published_total",
			Help: "Order events delivered, by sink",
		}, []string{"sink"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrader_events_dropped_total",
			Help: "Order events dropped, by sink",
		}, []string{"sink"}),

		FeedBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "papertrader_price_feed_breaker_state",
			Help: "Price feed circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),

		HTTPRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "papertrader_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.OrdersTotal,
		m.CancelsTotal,
		m.FillsTotal,
		m.FillNotional,
		m.PriceFeedDur,
		m.PriceFeedErrors,
		m.PriceCacheHits,
		m.IndicatorComputeDur,
		m.Accounts,
		m.EventsPublished,
		m.EventsDropped,
		m.FeedBreakerState,
		m.HTTPRequestDur,
	)

	return m
}

func (m *Metrics) ObserveOrder(kind, status string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveCancel(result string) {
	if m == nil {
		return
	}
	m.CancelsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFill(side string, notional float64) {
	if m == nil {
		return
	}
	m.FillsTotal.WithLabelValues(side).Inc()
	m.FillNotional.WithLabelValues(side).Add(notional)
}

func (m *Metrics) ObservePriceFeed(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PriceFeedDur.Observe(d.Seconds())
	if err != nil {
		m.PriceFeedErrors.Inc()
	}
}

func (m *Metrics) ObservePriceCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PriceCacheHits.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveIndicatorCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.IndicatorComputeDur.Observe(d.Seconds())
}

func (m *Metrics) AccountOpened() {
	if m == nil {
		return
	}
	m.Accounts.Inc()
}

func (m *Metrics) ObserveEvent(sink string, delivered bool) {
	if m == nil {
		return
	}
	if delivered {
		m.EventsPublished.WithLabelValues(sink).Inc()
		return
	}
	m.EventsDropped.WithLabelValues(sink).Inc()
}

func (m *Metrics) SetFeedBreakerState(state int) {
	if m == nil {
		return
	}
	m.FeedBreakerState.Set(float64(state))
}

func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDur.WithLabelValues(route, code).Observe(d.Seconds())
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool `json:"redis_enabled"`
	RedisConnected bool `json:"redis_connected"`
	JournalOK      bool `json:"journal_ok"`
	PriceFeedOK    bool `json:"price_feed_ok"`

	RedisLatencyMs   float64   `json:"redis_latency_ms"`
	JournalLatencyMs float64   `json:"journal_latency_ms"`
	LastCheckAt      time.Time `json:"last_check_at"`
	StartedAt        time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt:   time.Now(),
		JournalOK:   true,
		PriceFeedOK: true,
	}
}

func (h *HealthStatus) SetPriceFeedOK(v bool) {
	h.mu.Lock()
	h.PriceFeedOK = v
	h.mu.Unlock()
}

// Pinger is the subset of a Redis client used for liveness probes.
type Pinger interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb Pinger) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisEnabled = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckJournal pings the fill journal database and records latency + health.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.JournalOK = err == nil
	h.JournalLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. rdb and db may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb Pinger, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckJournal(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// Report is the JSON body served by /healthz.
type Report struct {
	Status           string  `json:"status"`
	Uptime           string  `json:"uptime"`
	RedisEnabled     bool    `json:"redis_enabled"`
	RedisConnected   bool    `json:"redis_connected"`
	RedisLatencyMs   float64 `json:"redis_latency_ms"`
	JournalOK        bool    `json:"journal_ok"`
	JournalLatencyMs float64 `json:"journal_latency_ms"`
	PriceFeedOK      bool    `json:"price_feed_ok"`
	LastCheckAt      string  `json:"last_check_at"`
}

// Report returns the current health and the HTTP status it maps to.
func (h *HealthStatus) Report() (Report, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.JournalOK || !h.PriceFeedOK || (h.RedisEnabled && !h.RedisConnected) {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}
	if !h.PriceFeedOK && !h.JournalOK {
		overall = "unhealthy"
	}

	return Report{
		Status:           overall,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		RedisEnabled:     h.RedisEnabled,
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		JournalOK:        h.JournalOK,
		JournalLatencyMs: h.JournalLatencyMs,
		PriceFeedOK:      h.PriceFeedOK,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}, code
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report, code := h.Report()
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(report)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
	log  *logrus.Entry
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer, log *logrus.Entry) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		log:  log.WithField("component", "metrics"),
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Infof("server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.WithError(err).Error("server error")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
