// Package indexer follows bridge traffic on both chains and moves tracked
// deposits and withdrawals through their states.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/lightlink-network/zk-bridge-api/bridge"
	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/database"
	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/zksync"
)

// L1Reader is what the indexer reads from the L1 node.
type L1Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	FilterNewPriorityRequest(ctx context.Context, mainContract common.Address, start, end uint64) ([]*ethereum.PriorityRequest, error)
}

// L2Reader is what the indexer reads from the rollup node.
type L2Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FinalizedBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterL1MessageSent(ctx context.Context, start, end uint64) ([]ethtypes.Log, error)
	MainContractAddress(ctx context.Context) (common.Address, error)
	BridgeContracts(ctx context.Context) (*types.BridgeContracts, error)
}

// WithdrawalChecker looks up proofs and the L1 finalization of withdrawals.
type WithdrawalChecker interface {
	FinalizeWithdrawalParams(ctx context.Context, l2TxHash common.Hash, index int) (*types.FinalizeWithdrawalParams, error)
	IsWithdrawalFinalized(ctx context.Context, l2TxHash common.Hash, index int) (bool, error)
}

type Store interface {
	GetLastIndexedBlock(ctx context.Context, chain string) (uint64, error)
	UpdateLastIndexedBlock(ctx context.Context, chain string, blockNumber uint64) error
	BatchCreateTransactions(ctx context.Context, txs []models.Transaction) error
	GetTransactionsByStatus(ctx context.Context, status string, txType string) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, txType string, txHash string, messageIndex int, updates bson.D) error
	CreateWithdrawalProof(ctx context.Context, proof models.WithdrawalProof) error
	CreateWithdrawalFinalized(ctx context.Context, finalized models.WithdrawalFinalized) error
}

var (
	_ L1Reader          = &ethereum.Client{}
	_ L2Reader          = &zksync.Client{}
	_ WithdrawalChecker = &bridge.WithdrawalFinalizer{}
	_ Store             = &database.Database{}
)

const (
	DefaultMinBatchSize        = 10
	DefaultMaxBatchSize        = 2000
	DefaultFetchInterval       = 10 * time.Second
	DefaultStatusCheckInterval = 30 * time.Second
)

type Indexer struct {
	l1          L1Reader
	l2          L2Reader
	withdrawals WithdrawalChecker
	store       Store
	registry    *contracts.Registry
	metrics     *Metrics
	logger      *slog.Logger

	l1StartBlock        uint64
	l2StartBlock        uint64
	minBatchSize        uint64
	maxBatchSize        uint64
	fetchInterval       time.Duration
	statusCheckInterval time.Duration

	// resolved once per run
	mainContract common.Address
	l2Bridges    map[common.Address]bool
}

type IndexerOpts struct {
	L1          L1Reader
	L2          L2Reader
	Withdrawals WithdrawalChecker
	Store       Store
	Registry    *contracts.Registry
	Metrics     *Metrics
	Logger      *slog.Logger

	L1StartBlock        uint64
	L2StartBlock        uint64
	MinBatchSize        uint64
	MaxBatchSize        uint64
	FetchInterval       time.Duration
	StatusCheckInterval time.Duration
}

func NewIndexer(opts IndexerOpts) (*Indexer, error) {
	if opts.L1 == nil || opts.L2 == nil || opts.Withdrawals == nil || opts.Store == nil {
		return nil, errors.New("indexer needs both chains, a withdrawal checker and a store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		reg, err := contracts.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to load contract registry: %w", err)
		}
		opts.Registry = reg
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.FetchInterval <= 0 {
		opts.FetchInterval = DefaultFetchInterval
	}
	if opts.StatusCheckInterval <= 0 {
		opts.StatusCheckInterval = DefaultStatusCheckInterval
	}

	return &Indexer{
		l1:                  opts.L1,
		l2:                  opts.L2,
		withdrawals:         opts.Withdrawals,
		store:               opts.Store,
		registry:            opts.Registry,
		metrics:             opts.Metrics,
		logger:              opts.Logger.With("component", "indexer"),
		l1StartBlock:        opts.L1StartBlock,
		l2StartBlock:        opts.L2StartBlock,
		minBatchSize:        opts.MinBatchSize,
		maxBatchSize:        opts.MaxBatchSize,
		fetchInterval:       opts.FetchInterval,
		statusCheckInterval: opts.StatusCheckInterval,
	}, nil
}

// Run indexes both chains and checks statuses until ctx is done or one of
// the loops fails.
func (i *Indexer) Run(ctx context.Context) error {
	if err := i.resolveContracts(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return i.indexEthereum(ctx) })
	g.Go(func() error { return i.indexZkSync(ctx) })
	g.Go(func() error { return i.every(ctx, "deposit status checker", i.CheckDepositStatus) })
	g.Go(func() error { return i.every(ctx, "withdrawal status checker", i.CheckWithdrawalStatus) })
	return g.Wait()
}

// resolveContracts loads the addresses that identify bridge traffic.
func (i *Indexer) resolveContracts(ctx context.Context) error {
	mainContract, err := i.l2.MainContractAddress(ctx)
	if err != nil {
		return fmt.Errorf("failed to get main contract: %w", err)
	}
	bridges, err := i.l2.BridgeContracts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bridge contracts: %w", err)
	}

	i.mainContract = mainContract
	i.l2Bridges = map[common.Address]bool{}
	for _, addr := range []common.Address{bridges.L2Erc20DefaultBridge, bridges.L2WethBridge} {
		if addr != (common.Address{}) {
			i.l2Bridges[addr] = true
		}
	}
	return nil
}

type batchFunc func(ctx context.Context, start, end uint64) error

// scan walks chain from its last indexed block in batches of at most
// maxBatchSize, waiting until at least minBatchSize new blocks exist.
func (i *Indexer) scan(ctx context.Context, chain string, start uint64, head func(context.Context) (uint64, error), process batchFunc) error {
	logger := i.logger.With("chain", chain)

	lastIndexedBlock, err := i.store.GetLastIndexedBlock(ctx, chain)
	if err != nil {
		return fmt.Errorf("failed to get last indexed %s block: %w", chain, err)
	}
	if lastIndexedBlock > 0 && lastIndexedBlock >= start {
		start = lastIndexedBlock + 1
	}

	logger.Info("starting indexer", "startBlock", start)

	for {
		if ctx.Err() != nil {
			logger.Info("shutting down indexer")
			return nil
		}

		lastBlock, err := head(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return fmt.Errorf("failed to get current %s block: %w", chain, err)
		}

		if lastBlock < start+i.minBatchSize {
			logger.Debug("waiting for more blocks",
				"chainHead", lastBlock,
				"nextBatchStart", start,
				"minBatchSize", i.minBatchSize)
			sleep(ctx, i.fetchInterval)
			continue
		}

		end := min(start+i.maxBatchSize-1, lastBlock)

		logger.Info("processing blocks",
			"startBlock", start,
			"endBlock", end,
			"batchSize", end-start+1,
			"chainHead", lastBlock)

		if err := process(ctx, start, end); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return fmt.Errorf("failed to index %s blocks %d-%d: %w", chain, start, end, err)
		}

		if err := i.store.UpdateLastIndexedBlock(ctx, chain, end); err != nil {
			if ctx.Err() != nil {
				continue
			}
			return fmt.Errorf("failed to update last indexed %s block: %w", chain, err)
		}
		i.metrics.LastIndexedBlock.WithLabelValues(chain).Set(float64(end))

		start = end + 1
	}
}

// every runs check each statusCheckInterval. A failed round is logged and
// retried on the next tick.
func (i *Indexer) every(ctx context.Context, name string, check func(context.Context) error) error {
	logger := i.logger.With("loop", name)
	for {
		if err := check(ctx); err != nil && ctx.Err() == nil {
			logger.Error("status check failed", "error", err)
		}
		if !sleep(ctx, i.statusCheckInterval) {
			logger.Info("shutting down")
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// transition moves tx to status, applying updates alongside.
func (i *Indexer) transition(ctx context.Context, tx models.Transaction, status string, updates ...bson.E) error {
	set := append(bson.D{{Key: "status", Value: status}}, updates...)
	if err := i.store.UpdateTransaction(ctx, tx.Type, tx.TxHash, tx.MessageIndex, set); err != nil {
		return fmt.Errorf("failed to move %s %s to %s: %w", tx.Type, tx.TxHash, status, err)
	}

	i.metrics.StatusTransitions.WithLabelValues(tx.Type, status).Inc()
	i.logger.Info("transaction status updated",
		"type", tx.Type,
		"txHash", tx.TxHash,
		"messageIndex", tx.MessageIndex,
		"from", tx.Status,
		"to", status)
	return nil
}

// blockTimes memoizes block timestamps within one batch.
type blockTimes struct {
	fetch func(ctx context.Context, number uint64) (uint64, error)
	seen  map[uint64]uint64
}

func newBlockTimes(fetch func(ctx context.Context, number uint64) (uint64, error)) *blockTimes {
	return &blockTimes{fetch: fetch, seen: map[uint64]uint64{}}
}

func (b *blockTimes) get(ctx context.Context, number uint64) (uint64, error) {
	if t, ok := b.seen[number]; ok {
		return t, nil
	}
	t, err := b.fetch(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("failed to get time of block %d: %w", number, err)
	}
	b.seen[number] = t
	return t, nil
}
