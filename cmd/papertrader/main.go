// Command papertrader runs the paper-trading simulator.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Akshit358/Finsage/config"
	"github.com/Akshit358/Finsage/internal/api"
	"github.com/Akshit358/Finsage/internal/gateway"
	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
	"github.com/Akshit358/Finsage/internal/model"
	"github.com/Akshit358/Finsage/internal/notification"
)

var envFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "papertrader",
		Short:         "Paper-trading simulator",
		Long:          `Simulated order execution, portfolio accounting and technical analysis over synthetic prices`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")
	rootCmd.AddCommand(serveCmd(), analyzeCmd(), simulateCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load() (*config.Config, *logrus.Entry, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.Init("papertrader", cfg.LogLevel), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket stream and metrics server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	var pinger metrics.Pinger
	if a.rdb != nil {
		pinger = a.rdb
		go gateway.NewPubSubRouter(a.hub, a.rdb, notification.DefaultChannel).Run(ctx)
	}
	a.health.StartLivenessChecker(ctx, pinger, a.journal.DB(), 15*time.Second)

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Cleanup(ctx, time.Minute)

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, a.health, a.registry, log)
	metricsSrv.Start()

	router := api.NewRouter(api.Deps{
		Orders:     a.engine,
		Portfolio:  a.portfolio,
		Indicators: a.indicators,
		Fills:      a.journal,
		Stream:     a.hub,
		Gatherer:   a.registry,
		Metrics:    a.metrics,
		Limiter:    limiter,
		Log:        log,
		JWTSecret:  cfg.JWTSecret,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("api shutdown")
	}
	if err := metricsSrv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics shutdown")
	}
	log.Info("papertrader stopped")
	return nil
}

func analyzeCmd() *cobra.Command {
	var timeframe string
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Print an indicator snapshot for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.indicators.Analyze(cmd.Context(), strings.ToUpper(args[0]), timeframe)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", "1d", "history timeframe (1d gives 100 points, others 50)")
	return cmd
}

func simulateCmd() *cobra.Command {
	var (
		userID  string
		symbols []string
		orders  int
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Submit random market orders and print the resulting portfolio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(symbols) == 0 {
				return errors.New("at least one symbol is required")
			}
			cfg, log, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < orders; i++ {
				side := model.SideBuy
				if rng.Intn(3) == 0 {
					side = model.SideSell
				}
				_, err := a.engine.Submit(cmd.Context(), model.OrderRequest{
					UserID:   userID,
					Symbol:   symbols[rng.Intn(len(symbols))],
					Side:     side,
					Quantity: int64(1 + rng.Intn(20)),
					Kind:     model.KindMarket,
				})
				if err != nil {
					return err
				}
			}

			summary, err := a.portfolio.Summary(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Orders  []model.Order          `json:"orders"`
				Summary model.PortfolioSummary `json:"summary"`
			}{a.engine.List(userID, nil), summary})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "demo", "user id to trade as")
	cmd.Flags().StringSliceVar(&symbols, "symbols", []string{"AAPL", "MSFT", "GOOGL", "TSLA"}, "symbols to trade")
	cmd.Flags().IntVar(&orders, "orders", 20, "number of orders to submit")
	cmd.Flags().Int64Var(&seed, "seed", 0, "order generator seed (0 uses the clock)")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
