package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/lightlink-network/zk-bridge-api/api"
	"github.com/lightlink-network/zk-bridge-api/bridge"
	"github.com/lightlink-network/zk-bridge-api/config"
	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/database"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/indexer"
	"github.com/lightlink-network/zk-bridge-api/zksync"
)

// Version will be set at build time
var Version = "development"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}

	// set global logger with custom options
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.DateTime,
		}),
	))
	logger := slog.Default()

	logger.Info("Starting zk-bridge-api ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("shutting down", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := contracts.MustNewRegistry()

	l1, err := ethereum.NewClient(ethereum.ClientOpts{
		Endpoint:             cfg.EthereumRPCURL,
		MainContractAddress:  cfg.MainContractAddress,
		L1Erc20BridgeAddress: cfg.L1Erc20BridgeAddress,
		Registry:             reg,
		Logger:               logger.With("component", "ethereum"),
		Timeout:              cfg.RPCTimeout,
	})
	if err != nil {
		return err
	}
	defer l1.Close()

	l2, err := zksync.NewClient(zksync.ClientOpts{
		Endpoint: cfg.ZkSyncRPCURL,
		Registry: reg,
		Logger:   logger.With("component", "zksync"),
		Timeout:  cfg.RPCTimeout,
	})
	if err != nil {
		return err
	}
	defer l2.Close()

	db, err := database.NewDatabase(database.DatabaseOpts{
		URI:          cfg.DatabaseURI,
		DatabaseName: cfg.DatabaseName,
		Logger:       logger.With("component", "database"),
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()
	if err := db.CreateIndexes(ctx); err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// no signer: the tracker only reads proofs and finalization state
	withdrawals, err := bridge.NewWithdrawalFinalizer(l1, l2, nil, bridge.WithdrawalOpts{
		Registry: reg,
		Logger:   logger.With("component", "withdrawals"),
		Wait:     bridge.WaitOpts{PollInterval: cfg.PollInterval, Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return err
	}

	idx, err := indexer.NewIndexer(indexer.IndexerOpts{
		L1:                  l1,
		L2:                  l2,
		Withdrawals:         withdrawals,
		Store:               db,
		Registry:            reg,
		Metrics:             indexer.NewMetrics(promReg),
		Logger:              logger.With("component", "indexer"),
		L1StartBlock:        cfg.L1StartBlock,
		L2StartBlock:        cfg.L2StartBlock,
		MinBatchSize:        cfg.MinBatchSize,
		MaxBatchSize:        cfg.MaxBatchSize,
		FetchInterval:       cfg.FetchInterval,
		StatusCheckInterval: cfg.StatusCheckInterval,
	})
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.ServerOpts{
		Logger:   logger.With("component", "api-server"),
		Store:    db,
		Gatherer: promReg,
		Port:     cfg.APIPort,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return idx.Run(ctx) })
	g.Go(func() error { return server.Start(ctx) })
	return g.Wait()
}
