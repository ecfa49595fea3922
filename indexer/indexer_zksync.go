package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

func (i *Indexer) indexZkSync(ctx context.Context) error {
	return i.scan(ctx, models.ChainZkSync, i.l2StartBlock, i.l2.BlockNumber, i.indexL2Withdrawals)
}

// withdrawalMessage is the payload a withdrawal sends to its L1 finalizer.
type withdrawalMessage struct {
	To      common.Address
	L1Token common.Address // zero for ETH
	Amount  *big.Int
}

// decodeWithdrawalMessage parses the L1 message of a withdrawal. ETH
// withdrawals carry selector | to | amount, token withdrawals
// selector | to | l1Token | amount, all packed.
func decodeWithdrawalMessage(reg *contracts.Registry, sender common.Address, message []byte) (*withdrawalMessage, error) {
	if sender == utils.L2EthTokenAddress {
		if len(message) < 56 || !bytes.Equal(message[:4], reg.Mailbox.Methods["finalizeEthWithdrawal"].ID) {
			return nil, types.EncodingError("malformed ETH withdrawal message %s", hexutil.Encode(message))
		}
		return &withdrawalMessage{
			To:     common.BytesToAddress(message[4:24]),
			Amount: new(big.Int).SetBytes(message[24:56]),
		}, nil
	}

	if len(message) < 76 || !bytes.Equal(message[:4], reg.L1Bridge.Methods["finalizeWithdrawal"].ID) {
		return nil, types.EncodingError("malformed token withdrawal message %s", hexutil.Encode(message))
	}
	return &withdrawalMessage{
		To:      common.BytesToAddress(message[4:24]),
		L1Token: common.BytesToAddress(message[24:44]),
		Amount:  new(big.Int).SetBytes(message[44:76]),
	}, nil
}

// indexL2Withdrawals records the bridge messages sent to L1 in [startBlock, endBlock].
// Messages are numbered per transaction in log order, counting every message
// the transaction sent, so the index matches what finalization expects.
func (i *Indexer) indexL2Withdrawals(ctx context.Context, startBlock uint64, endBlock uint64) error {
	logs, err := i.l2.FilterL1MessageSent(ctx, startBlock, endBlock)
	if err != nil {
		return fmt.Errorf("failed to filter L1MessageSent: %w", err)
	}

	times := newBlockTimes(i.l2.BlockTimestamp)
	senders := map[common.Hash]common.Address{}
	next := map[common.Hash]int{}
	withdrawals := make([]models.Transaction, 0)

	for _, log := range logs {
		if log.Removed || len(log.Topics) < 2 {
			continue
		}
		index := next[log.TxHash]
		next[log.TxHash] = index + 1

		sender := common.BytesToAddress(log.Topics[1].Bytes())
		if sender != utils.L2EthTokenAddress && !i.l2Bridges[sender] {
			continue
		}

		msg, err := i.parseMessage(sender, log)
		if err != nil {
			i.logger.Warn("skipping undecodable withdrawal message", "txHash", log.TxHash.Hex(), "index", index, "error", err)
			continue
		}

		from, ok := senders[log.TxHash]
		if !ok {
			receipt, err := i.l2.TransactionReceipt(ctx, log.TxHash)
			if err != nil {
				return fmt.Errorf("failed to get receipt of %s: %w", log.TxHash.Hex(), err)
			}
			from = receipt.From
			senders[log.TxHash] = from
		}

		blockTime, err := times.get(ctx, log.BlockNumber)
		if err != nil {
			return err
		}

		withdrawal := models.Transaction{
			Type:         models.TypeWithdrawal,
			ERC20:        msg.L1Token != (common.Address{}),
			From:         from.Hex(),
			To:           msg.To.Hex(),
			Value:        msg.Amount.String(),
			Sender:       sender.Hex(),
			TxHash:       log.TxHash.Hex(),
			MessageIndex: index,
			BlockNumber:  log.BlockNumber,
			BlockHash:    log.BlockHash.Hex(),
			BlockTime:    blockTime,
			Status:       string(types.WithdrawalInitiated),
		}
		if withdrawal.ERC20 {
			withdrawal.L1Token = msg.L1Token.Hex()
		}
		withdrawals = append(withdrawals, withdrawal)

		i.logger.Debug("withdrawal observed", "txHash", log.TxHash.Hex(), "index", index)
	}

	if err := i.store.BatchCreateTransactions(ctx, withdrawals); err != nil {
		return fmt.Errorf("failed to batch create withdrawals: %w", err)
	}
	i.metrics.IndexedTransactions.WithLabelValues(models.TypeWithdrawal).Add(float64(len(withdrawals)))

	return nil
}

func (i *Indexer) parseMessage(sender common.Address, log ethtypes.Log) (*withdrawalMessage, error) {
	out, err := i.registry.L1Messenger.Unpack("L1MessageSent", log.Data)
	if err != nil || len(out) != 1 {
		return nil, types.EncodingError("failed to decode L1MessageSent: %v", err)
	}
	message, ok := out[0].([]byte)
	if !ok {
		return nil, types.EncodingError("unexpected L1MessageSent payload %T", out[0])
	}
	return decodeWithdrawalMessage(i.registry, sender, message)
}

// CheckWithdrawalStatus moves withdrawals through L2 finality, proof
// availability and L1 finalization.
func (i *Indexer) CheckWithdrawalStatus(ctx context.Context) error {
	if err := i.checkInitiatedWithdrawals(ctx); err != nil {
		return err
	}

	confirmed, err := i.store.GetTransactionsByStatus(ctx, string(types.WithdrawalL2Confirmed), models.TypeWithdrawal)
	if err != nil {
		return fmt.Errorf("failed to get confirmed withdrawals: %w", err)
	}
	for _, withdrawal := range confirmed {
		if err := i.checkConfirmedWithdrawal(ctx, withdrawal); err != nil {
			i.logger.Warn("failed to get withdrawal proof", "txHash", withdrawal.TxHash, "index", withdrawal.MessageIndex, "error", err)
		}
	}

	proven, err := i.store.GetTransactionsByStatus(ctx, string(types.WithdrawalProofObtained), models.TypeWithdrawal)
	if err != nil {
		return fmt.Errorf("failed to get proven withdrawals: %w", err)
	}
	for _, withdrawal := range proven {
		if err := i.checkProvenWithdrawal(ctx, withdrawal); err != nil {
			i.logger.Warn("failed to check withdrawal finalization", "txHash", withdrawal.TxHash, "index", withdrawal.MessageIndex, "error", err)
		}
	}

	return nil
}

func (i *Indexer) checkInitiatedWithdrawals(ctx context.Context) error {
	initiated, err := i.store.GetTransactionsByStatus(ctx, string(types.WithdrawalInitiated), models.TypeWithdrawal)
	if err != nil {
		return fmt.Errorf("failed to get initiated withdrawals: %w", err)
	}
	if len(initiated) == 0 {
		return nil
	}

	finalized, err := i.l2.FinalizedBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get finalized L2 block: %w", err)
	}

	for _, withdrawal := range initiated {
		if withdrawal.BlockNumber == 0 {
			block, err := i.locateWithdrawal(ctx, withdrawal)
			if err != nil {
				i.logger.Warn("failed to locate registered withdrawal", "txHash", withdrawal.TxHash, "index", withdrawal.MessageIndex, "error", err)
				continue
			}
			withdrawal.BlockNumber = block
		}
		if withdrawal.BlockNumber == 0 || withdrawal.BlockNumber > finalized {
			continue
		}
		if err := i.transition(ctx, withdrawal, string(types.WithdrawalL2Confirmed)); err != nil {
			return err
		}
	}
	return nil
}

// locateWithdrawal fills in a withdrawal registered through the API from its
// L2 receipt. It returns 0 while the transaction is not included.
func (i *Indexer) locateWithdrawal(ctx context.Context, withdrawal models.Transaction) (uint64, error) {
	receipt, err := i.l2.TransactionReceipt(ctx, common.HexToHash(withdrawal.TxHash))
	if errors.Is(err, geth.NotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !receipt.Succeeded() {
		return 0, fmt.Errorf("transaction %s reverted", withdrawal.TxHash)
	}

	messageSent := i.registry.L1Messenger.Events["L1MessageSent"]
	seen := 0
	var found *ethtypes.Log
	for _, log := range receipt.Logs {
		if log.Address != utils.L1MessengerAddress || len(log.Topics) < 2 || log.Topics[0] != messageSent.ID {
			continue
		}
		if seen == withdrawal.MessageIndex {
			found = log
			break
		}
		seen++
	}
	if found == nil {
		return 0, fmt.Errorf("transaction %s sent %d L1 messages", withdrawal.TxHash, seen)
	}

	sender := common.BytesToAddress(found.Topics[1].Bytes())
	msg, err := i.parseMessage(sender, *found)
	if err != nil {
		return 0, err
	}

	updates := bson.D{
		{Key: "block_number", Value: receipt.BlockNumber.Uint64()},
		{Key: "block_hash", Value: receipt.BlockHash.Hex()},
		{Key: "from", Value: receipt.From.Hex()},
		{Key: "to", Value: msg.To.Hex()},
		{Key: "value", Value: msg.Amount.String()},
		{Key: "sender", Value: sender.Hex()},
		{Key: "erc20", Value: msg.L1Token != (common.Address{})},
	}
	if msg.L1Token != (common.Address{}) {
		updates = append(updates, bson.E{Key: "l1_token", Value: msg.L1Token.Hex()})
	}
	if err := i.store.UpdateTransaction(ctx, withdrawal.Type, withdrawal.TxHash, withdrawal.MessageIndex, updates); err != nil {
		return 0, err
	}
	return receipt.BlockNumber.Uint64(), nil
}

func (i *Indexer) checkConfirmedWithdrawal(ctx context.Context, withdrawal models.Transaction) error {
	params, err := i.withdrawals.FinalizeWithdrawalParams(ctx, common.HexToHash(withdrawal.TxHash), withdrawal.MessageIndex)
	if errors.Is(err, types.ErrProofUnavailable) {
		return nil
	}
	if err != nil {
		return err
	}

	proof := make([]string, len(params.Proof))
	for j, h := range params.Proof {
		proof[j] = h.Hex()
	}
	if err := i.store.CreateWithdrawalProof(ctx, models.WithdrawalProof{
		TxHash:            withdrawal.TxHash,
		MessageIndex:      withdrawal.MessageIndex,
		L2BatchNumber:     params.L2BatchNumber.String(),
		L2MessageIndex:    params.L2MessageIndex.String(),
		L2TxNumberInBatch: params.L2TxNumberInBatch,
		Message:           hexutil.Encode(params.Message),
		Sender:            params.Sender.Hex(),
		Proof:             proof,
	}); err != nil {
		return err
	}

	return i.transition(ctx, withdrawal, string(types.WithdrawalProofObtained))
}

func (i *Indexer) checkProvenWithdrawal(ctx context.Context, withdrawal models.Transaction) error {
	finalized, err := i.withdrawals.IsWithdrawalFinalized(ctx, common.HexToHash(withdrawal.TxHash), withdrawal.MessageIndex)
	if err != nil || !finalized {
		return err
	}

	head, err := i.l1.BlockNumber(ctx)
	if err != nil {
		return err
	}
	timestamp, err := i.l1.BlockTimestamp(ctx, head)
	if err != nil {
		return err
	}

	if err := i.store.CreateWithdrawalFinalized(ctx, models.WithdrawalFinalized{
		TxHash:       withdrawal.TxHash,
		MessageIndex: withdrawal.MessageIndex,
		BlockNumber:  head,
		Timestamp:    timestamp,
	}); err != nil {
		return err
	}

	return i.transition(ctx, withdrawal, string(types.WithdrawalFinalized))
}
