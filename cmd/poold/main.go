// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// poold runs the transaction pool standalone: scheduled processing, expiry
// and invalid-reset jobs, plus a Prometheus metrics endpoint. Gossip intake
// and block production attach through the pool's public API; without them the
// daemon idles, which is useful for soak-testing the schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gethlog "github.com/luxfi/geth/log"
	"github.com/luxfi/geth/metrics"
	luxlog "github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ciarmolimarco/lisk/accounts"
	"github.com/ciarmolimarco/lisk/core/txlogic"
	"github.com/ciarmolimarco/lisk/core/txpool"
	"github.com/ciarmolimarco/lisk/jobsqueue"
	"github.com/ciarmolimarco/lisk/metrics/prometheus"
	"github.com/ciarmolimarco/lisk/params"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a YAML config file overriding the pool defaults",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Listen address of the Prometheus metrics endpoint",
		Value: "127.0.0.1:9095",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Also write logs to this file, rotated at 100MB",
	}
)

var app = &cli.App{
	Name:    "poold",
	Usage:   "standalone transaction pool daemon",
	Version: "1.0.0",
	Flags:   []cli.Flag{configFlag, metricsAddrFlag, logFileFlag},
	Action:  run,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	var writer io.Writer = os.Stderr
	if file := ctx.String(logFileFlag.Name); file != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 10,
		})
	}
	gethlog.SetDefault(gethlog.NewLogger(gethlog.NewTerminalHandlerWithLevel(writer, gethlog.LevelInfo, false)))
	logger := luxlog.Root()

	config, err := loadPoolConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}

	ledger := accounts.NewStore()
	verifier := txlogic.New(logger)
	pool := txpool.New(config, ledger, verifier, logger)
	defer pool.Close()

	queue := jobsqueue.New(logger)
	if err := pool.RegisterJobs(queue); err != nil {
		return err
	}
	logger.Info("Transaction pool running",
		"storageLimit", pool.Config().StorageTxsLimit,
		"processInterval", pool.Config().ProcessInterval,
		"expiryInterval", pool.Config().ExpiryInterval,
	)

	server := &http.Server{
		Addr:    ctx.String(metricsAddrFlag.Name),
		Handler: metricsHandler(),
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		logger.Info("Metrics endpoint up", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		announceUnconfirmed(groupCtx, pool, logger)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down")
		queue.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	gatherer := prometheus.NewGatherer(metrics.DefaultRegistry)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// announceUnconfirmed stands in for the gossip broadcaster: it batches
// verified transactions and announces up to ReleaseLimit of them per
// BroadcastInterval.
func announceUnconfirmed(ctx context.Context, pool *txpool.TxPool, logger luxlog.Logger) {
	events := make(chan txpool.UnconfirmedTxEvent, 256)
	sub := pool.SubscribeUnconfirmed(events)
	defer sub.Unsubscribe()

	ticker := time.NewTicker(pool.Config().BroadcastInterval)
	defer ticker.Stop()

	var bundle []string
	for {
		select {
		case ev := <-events:
			if ev.Broadcast {
				bundle = append(bundle, ev.Tx.ID)
			}
		case <-ticker.C:
			if len(bundle) == 0 {
				continue
			}
			release := bundle
			if limit := pool.Config().ReleaseLimit; len(release) > limit {
				release = release[:limit]
			}
			logger.Info("Announcing unconfirmed transactions", "count", len(release))
			n := copy(bundle, bundle[len(release):])
			bundle = bundle[:n]
		case <-ctx.Done():
			return
		}
	}
}

// loadPoolConfig reads pool settings from a YAML file, leaving every omitted
// key at its default. Durations accept Go syntax ("30s", "3h").
func loadPoolConfig(path string) (params.PoolConfig, error) {
	config := params.DefaultPoolConfig
	if path == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v.IsSet("pool.storageTxsLimit") {
		config.StorageTxsLimit = v.GetInt("pool.storageTxsLimit")
	}
	if v.IsSet("pool.processInterval") {
		config.ProcessInterval = cast.ToDuration(v.Get("pool.processInterval"))
	}
	if v.IsSet("pool.expiryInterval") {
		config.ExpiryInterval = cast.ToDuration(v.Get("pool.expiryInterval"))
	}
	if v.IsSet("pool.unconfirmedTxTimeout") {
		config.UnconfirmedTxTimeout = cast.ToDuration(v.Get("pool.unconfirmedTxTimeout"))
	}
	if v.IsSet("broadcasts.interval") {
		config.BroadcastInterval = cast.ToDuration(v.Get("broadcasts.interval"))
	}
	if v.IsSet("broadcasts.releaseLimit") {
		config.ReleaseLimit = v.GetInt("broadcasts.releaseLimit")
	}
	return config, nil
}
