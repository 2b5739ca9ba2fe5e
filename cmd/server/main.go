package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/comanda-pos/api/internal/broker"
	"github.com/comanda-pos/api/internal/cache"
	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/events"
	"github.com/comanda-pos/api/internal/jobs"
	"github.com/comanda-pos/api/internal/logger"
	"github.com/comanda-pos/api/internal/printing"
	"github.com/comanda-pos/api/internal/router"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	base, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	log := logger.Component(base, "server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	hub := ws.NewHub(logger.Component(base, "ws_hub"))
	sinks := []events.Sink{hub}

	if cfg.AMQPURL != "" {
		pub, err := broker.Dial(cfg.AMQPURL, logger.Component(base, "broker"))
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	} else {
		log.Info("AMQP_URL not set, events stay in-process")
	}
	bus := events.NewBus(logger.Component(base, "events"), sinks...)

	var locker cache.Locker
	var estimateCache service.EstimateCache
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb)
		estimateCache = cache.NewEstimateCache(rdb, cfg.EstimateCacheTTL)
	} else {
		log.Info("REDIS_URL not set, using in-process locks and no estimate cache")
	}

	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, logger.Component(base, "order_service")).WithPublisher(bus)

	if cfg.PrintAgentURL != "" {
		printer := printing.NewConnManager(cfg.PrintAgentURL, logger.Component(base, "print_agent"))
		defer printer.Close()
		orders.WithPrinter(printer)
	} else {
		log.Info("PRINT_AGENT_URL not set, receipts are returned but not printed")
	}

	closeOuts := service.NewCloseOutService(pool, func(db database.DBTX) service.CloseOutStore {
		return database.New(db)
	}, locker, cfg.TabLockTTL, logger.Component(base, "closeout_service")).WithPublisher(bus)

	queries := database.New(pool)
	estimates := service.NewEstimateService(queries, logger.Component(base, "estimate_service"))
	if estimateCache != nil {
		estimates.WithCache(estimateCache)
	}

	svc := router.Services{
		Orders:       orders,
		CloseOuts:    closeOuts,
		Tabs:         service.NewTabService(queries),
		Availability: service.NewAvailabilityService(queries),
		Estimates:    estimates,
	}

	refresh := jobs.NewEstimateRefreshJob(estimates, cfg.EstimateRefreshSpec, base.WithField("app", "comanda"))
	if err := refresh.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, svc, hub, base.WithField("app", "comanda")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		refresh.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
		return err
	}
	log.WithFields(logrus.Fields{"reason": context.Cause(ctx)}).Info("server stopped")
	return nil
}
