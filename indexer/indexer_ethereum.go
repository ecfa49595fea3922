package indexer

import (
	"context"
	"errors"
	"fmt"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lightlink-network/zk-bridge-api/bridge"
	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/types"
)

func (i *Indexer) indexEthereum(ctx context.Context) error {
	return i.scan(ctx, models.ChainEthereum, i.l1StartBlock, i.l1.BlockNumber, i.indexL1Deposits)
}

// indexL1Deposits records every priority operation requested in [startBlock, endBlock].
func (i *Indexer) indexL1Deposits(ctx context.Context, startBlock uint64, endBlock uint64) error {
	requests, err := i.l1.FilterNewPriorityRequest(ctx, i.mainContract, startBlock, endBlock)
	if err != nil {
		return fmt.Errorf("failed to filter NewPriorityRequest: %w", err)
	}

	times := newBlockTimes(i.l1.BlockTimestamp)
	deposits := make([]models.Transaction, 0, len(requests))
	for _, req := range requests {
		blockTime, err := times.get(ctx, req.BlockNumber)
		if err != nil {
			return err
		}

		deposits = append(deposits, models.Transaction{
			Type:        models.TypeDeposit,
			TxHash:      req.L1TxHash.Hex(),
			L2TxHash:    req.L2TxHash.Hex(),
			BlockNumber: req.BlockNumber,
			BlockTime:   blockTime,
			Status:      string(types.DepositPriorityOpObserved),
		})
		i.logger.Debug("deposit observed", "l1TxHash", req.L1TxHash.Hex(), "l2TxHash", req.L2TxHash.Hex())
	}

	if err := i.store.BatchCreateTransactions(ctx, deposits); err != nil {
		return fmt.Errorf("failed to batch create deposits: %w", err)
	}
	i.metrics.IndexedTransactions.WithLabelValues(models.TypeDeposit).Add(float64(len(deposits)))

	return nil
}

// CheckDepositStatus advances submitted deposits to their priority operation
// and observed priority operations to their L2 outcome.
func (i *Indexer) CheckDepositStatus(ctx context.Context) error {
	submitted, err := i.store.GetTransactionsByStatus(ctx, string(types.DepositSubmitted), models.TypeDeposit)
	if err != nil {
		return fmt.Errorf("failed to get submitted deposits: %w", err)
	}
	for _, deposit := range submitted {
		if err := i.checkSubmittedDeposit(ctx, deposit); err != nil {
			i.logger.Warn("failed to check submitted deposit", "txHash", deposit.TxHash, "error", err)
		}
	}

	observed, err := i.store.GetTransactionsByStatus(ctx, string(types.DepositPriorityOpObserved), models.TypeDeposit)
	if err != nil {
		return fmt.Errorf("failed to get observed deposits: %w", err)
	}
	for _, deposit := range observed {
		if err := i.checkObservedDeposit(ctx, deposit); err != nil {
			i.logger.Warn("failed to check observed deposit", "txHash", deposit.TxHash, "error", err)
		}
	}

	return nil
}

func (i *Indexer) checkSubmittedDeposit(ctx context.Context, deposit models.Transaction) error {
	receipt, err := i.l1.TransactionReceipt(ctx, common.HexToHash(deposit.TxHash))
	if errors.Is(err, geth.NotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return i.transition(ctx, deposit, string(types.DepositFailed))
	}

	l2Hash, err := bridge.L2HashFromPriorityOp(i.registry, receipt, i.mainContract)
	if err != nil {
		// a successful L1 transaction without a priority operation is not a deposit
		i.logger.Warn("transaction requested no priority operation", "txHash", deposit.TxHash, "error", err)
		return i.transition(ctx, deposit, string(types.DepositFailed))
	}

	blockTime, err := i.l1.BlockTimestamp(ctx, receipt.BlockNumber.Uint64())
	if err != nil {
		return err
	}

	return i.transition(ctx, deposit, string(types.DepositPriorityOpObserved),
		bson.E{Key: "l2_tx_hash", Value: l2Hash.Hex()},
		bson.E{Key: "block_number", Value: receipt.BlockNumber.Uint64()},
		bson.E{Key: "block_hash", Value: receipt.BlockHash.Hex()},
		bson.E{Key: "block_time", Value: blockTime},
	)
}

func (i *Indexer) checkObservedDeposit(ctx context.Context, deposit models.Transaction) error {
	receipt, err := i.l2.TransactionReceipt(ctx, common.HexToHash(deposit.L2TxHash))
	if errors.Is(err, geth.NotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !receipt.Succeeded() {
		return i.transition(ctx, deposit, string(types.DepositFailed))
	}
	return i.transition(ctx, deposit, string(types.DepositConfirmed))
}
