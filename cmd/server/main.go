package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mssb/matchmaker/internal/api"
	"github.com/mssb/matchmaker/internal/config"
	"github.com/mssb/matchmaker/internal/logging"
	"github.com/mssb/matchmaker/internal/match"
	"github.com/mssb/matchmaker/internal/metrics"
	"github.com/mssb/matchmaker/internal/queue"
	"github.com/mssb/matchmaker/internal/rating"
	"github.com/mssb/matchmaker/internal/store"
	"github.com/mssb/matchmaker/internal/ws"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "main",
})

func main() {
	cfgPath := flag.String("config", "", "path to a YAML or JSON config file")
	flag.Parse()

	cfg, err := config.Read(*cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("cannot read configuration")
	}
	logging.ConfigureLogging(cfg)
	metrics.Init()

	mmCfg, err := match.ConfigFromView(cfg)
	if err != nil {
		logger.WithError(err).Fatal("invalid matchmaking configuration")
	}

	refresh, err := config.PositiveDuration(cfg, "ratings.refresh_interval")
	if err != nil {
		logger.WithError(err).Fatal("invalid ratings configuration")
	}
	lookupTimeout, err := config.PositiveDuration(cfg, "ratings.timeout")
	if err != nil {
		logger.WithError(err).Fatal("invalid ratings configuration")
	}
	writeTimeout, err := config.PositiveDuration(cfg, "transport.write_timeout")
	if err != nil {
		logger.WithError(err).Fatal("invalid transport configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis rating store
	st := store.NewRedisStore(cfg.GetString("redis.addr"), cfg.GetString("redis.password"), cfg.GetInt("redis.db"))
	defer st.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, lookupTimeout)
	if err := st.Ping(pingCtx); err != nil {
		logger.WithError(err).WithField("addr", cfg.GetString("redis.addr")).Warn("rating store unreachable, falling back to default ratings until it recovers")
	}
	cancelPing()

	oracle := rating.NewOracle(st, cfg.GetInt("ratings.default"), lookupTimeout)
	if err := oracle.Warm(ctx, 5); err != nil {
		logger.WithError(err).Warn("starting without rating populations")
	}

	// Event hub for websocket clients
	hub := ws.NewHub(writeTimeout)

	mm := match.NewEngine(mmCfg, queue.NewStore(), oracle, hub)

	srv := &http.Server{Addr: cfg.GetString("http.addr"), Handler: api.NewRouter(hub, mm)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		oracle.Run(gctx, refresh)
		return nil
	})
	g.Go(func() error {
		mm.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShut()
		err := srv.Shutdown(ctxShut)
		hub.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}
