package main

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Akshit358/Finsage/config"
	"github.com/Akshit358/Finsage/internal/execution"
	"github.com/Akshit358/Finsage/internal/gateway"
	"github.com/Akshit358/Finsage/internal/indicator"
	"github.com/Akshit358/Finsage/internal/ledger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/notification"
	"github.com/Akshit358/Finsage/internal/portfolio"
	"github.com/Akshit358/Finsage/internal/pricefeed"
)

// app is the wired set of components shared by every command.
type app struct {
	cfg *config.Config
	log *logrus.Entry

	registry *prometheus.Registry
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus

	rdb        *goredis.Client // nil when Redis is disabled
	feed       model.PriceFeed
	breaker    *pricefeed.Breaker
	ledger     *ledger.Ledger
	journal    *execution.Journal
	hub        *gateway.Hub
	dispatcher *notification.Dispatcher
	engine     *execution.Engine
	portfolio  *portfolio.Service
	indicators *indicator.Engine
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		health:   metrics.NewHealthStatus(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.NewMetrics(a.registry)

	if cfg.RedisEnabled() {
		a.rdb = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			a.rdb.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		a.health.RedisEnabled = true
		a.health.CheckRedis(ctx, a.rdb)
		log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	}

	// Quotes: synthetic -> instrumented -> breaker -> cache.
	synthetic := pricefeed.NewSynthetic(cfg.PriceJitter, cfg.PriceSeed)
	a.breaker = pricefeed.NewBreaker(pricefeed.Instrument(synthetic, a.metrics), cfg.BreakerMax, cfg.BreakerReset, a.metrics, log)
	a.breaker.OnStateChange = func(_, to pricefeed.State) {
		a.health.SetPriceFeedOK(to != pricefeed.StateOpen)
	}
	a.feed = a.breaker
	if c := pricefeed.NewCache(pricefeed.CacheConfig{TTL: cfg.PriceCacheTTL, LocalSize: 1000, Redis: a.rdb}); c != nil {
		a.feed = pricefeed.NewCached(a.breaker, c, cfg.PriceCacheTTL, a.metrics, log)
	}

	a.ledger = ledger.New(ledger.Options{
		StartingCash:     cfg.StartingCash,
		EnforceFunds:     cfg.EnforceFunds,
		ForbidShortSell:  cfg.ForbidShortSell,
		MaxOpenPositions: cfg.MaxOpenPositions,
	}, a.metrics, log)

	journal, err := execution.NewJournal(cfg.JournalPath, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.journal = journal
	a.health.CheckJournal(ctx, journal.DB())

	// Events: with Redis every instance publishes to the channel and
	// each hub is fed from it, otherwise the hub is fed directly.
	a.hub = gateway.NewHub(cfg.ReplaySize, a.metrics, log)
	notifiers := []notification.Notifier{notification.NewLogNotifier(log)}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhook(notification.WebhookConfig{
			URL:    cfg.WebhookURL,
			Secret: cfg.WebhookSecret,
			Events: cfg.WebhookEvents,
		}))
	}
	if a.rdb != nil {
		notifiers = append(notifiers, notification.NewRedisNotifier(a.rdb, notification.DefaultChannel))
	}
	a.dispatcher = notification.NewDispatcher(cfg.EventBuffer, a.metrics, log, notifiers...)
	a.dispatcher.Start(ctx)

	var events model.EventPublisher = a.dispatcher
	if a.rdb == nil {
		events = notification.Fanout{a.hub, a.dispatcher}
	}

	risk := portfolio.NewRiskManager(portfolio.RiskLimits{
		MaxOrderQuantity: cfg.MaxOrderQty,
		MaxOpenPositions: cfg.MaxOpenPositions,
		MaxOrderNotional: cfg.MaxOrderNotional,
	}, a.ledger, log)

	a.engine = execution.NewEngine(a.feed, a.ledger, execution.Options{
		Risk:    risk,
		Journal: a.journal,
		Events:  events,
		Metrics: a.metrics,
		Log:     log,
	})
	a.portfolio = portfolio.NewService(a.ledger, a.feed)
	a.indicators = indicator.NewEngine(pricefeed.NewRandomWalk(a.feed, pricefeed.DefaultWalkStep, cfg.PriceSeed), a.metrics)
	return a, nil
}

// close releases everything newApp opened, in reverse order.
func (a *app) close() error {
	var errs []error
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
