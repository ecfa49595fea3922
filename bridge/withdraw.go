package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/signer"
	"github.com/lightlink-network/zk-bridge-api/txbuilder"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// WithdrawalResult is the outcome of a finalization. State is the last state
// reached, also when an error is returned.
type WithdrawalResult struct {
	State    types.WithdrawalStatus
	L2TxHash common.Hash
	L1TxHash common.Hash
	Params   *types.FinalizeWithdrawalParams
}

type WithdrawalOpts struct {
	Registry *contracts.Registry
	Logger   *slog.Logger
	Wait     WaitOpts
}

var errNoSigner = errors.New("no signer configured")

// WithdrawalFinalizer starts withdrawals on L2 and finalizes them on L1.
type WithdrawalFinalizer struct {
	l1       L1Client
	l2       L2Client
	signer   signer.Signer
	registry *contracts.Registry
	logger   *slog.Logger
	wait     WaitOpts
}

// NewWithdrawalFinalizer returns a finalizer signing with s. A nil signer gives
// a read-only finalizer that can look up proofs and finalization state.
func NewWithdrawalFinalizer(l1 L1Client, l2 L2Client, s signer.Signer, opts WithdrawalOpts) (*WithdrawalFinalizer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		reg, err := contracts.NewRegistry()
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}
	return &WithdrawalFinalizer{
		l1:       l1,
		l2:       l2,
		signer:   s,
		registry: opts.Registry,
		logger:   opts.Logger.With("component", "withdrawal"),
		wait:     opts.Wait,
	}, nil
}

// Withdraw submits the L2 transaction starting a withdrawal and returns its hash.
func (w *WithdrawalFinalizer) Withdraw(ctx context.Context, tx types.WithdrawTransaction) (common.Hash, error) {
	if w.signer == nil {
		return common.Hash{}, errNoSigner
	}
	shape := txbuilder.Withdraw{To: tx.To, Amount: tx.Amount, Token: tx.Token}
	if shape.To == (common.Address{}) {
		shape.To = w.signer.Address()
	}
	if !types.IsETH(tx.Token) {
		if tx.BridgeAddress != nil {
			shape.Bridge = *tx.BridgeAddress
		} else {
			bridges, err := w.l2.BridgeContracts(ctx)
			if err != nil {
				return common.Hash{}, err
			}
			shape.Bridge = bridges.L2Erc20DefaultBridge
		}
	}

	hash, err := sendL2(ctx, w.l2, w.registry, w.signer, shape, tx.PaymasterParams)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send withdrawal: %w", err)
	}
	w.logger.Info("Withdrawal initiated", "l2TxHash", hash.Hex(), "token", tx.Token.Hex(), "amount", tx.Amount)
	return hash, nil
}

// WaitL2Confirmed waits until the withdrawal transaction is in a finalized block.
func (w *WithdrawalFinalizer) WaitL2Confirmed(ctx context.Context, l2TxHash common.Hash) (*types.Receipt, error) {
	return WaitFinalized(ctx, w.l2, l2TxHash, w.wait)
}

// FinalizeWithdrawalParams locates the index-th message the withdrawal sent through
// the L1 messenger and fetches its inclusion proof.
func (w *WithdrawalFinalizer) FinalizeWithdrawalParams(ctx context.Context, l2TxHash common.Hash, index int) (*types.FinalizeWithdrawalParams, error) {
	receipt, err := w.l2.TransactionReceipt(ctx, l2TxHash)
	if err != nil {
		return nil, err
	}
	return w.paramsFromReceipt(ctx, receipt, index)
}

func (w *WithdrawalFinalizer) paramsFromReceipt(ctx context.Context, receipt *types.Receipt, index int) (*types.FinalizeWithdrawalParams, error) {
	txHash := receipt.TxHash
	if index < 0 {
		return nil, types.EncodingError("negative withdrawal index %d", index)
	}

	messageSent := w.registry.L1Messenger.Events["L1MessageSent"]
	var messages []*ethtypes.Log
	for _, log := range receipt.Logs {
		if log.Address == utils.L1MessengerAddress && len(log.Topics) > 1 && log.Topics[0] == messageSent.ID {
			messages = append(messages, log)
		}
	}
	if index >= len(messages) {
		return nil, types.EncodingError("transaction %s sent %d L1 messages, no message %d", txHash.Hex(), len(messages), index)
	}
	log := messages[index]

	l2ToL1LogIndex, seen := -1, 0
	for i, l := range receipt.L2ToL1Logs {
		if l.Sender != utils.L1MessengerAddress {
			continue
		}
		if seen == index {
			l2ToL1LogIndex = i
			break
		}
		seen++
	}
	if l2ToL1LogIndex < 0 || receipt.L1BatchNumber == nil || receipt.L1BatchTxIndex == nil {
		return nil, fmt.Errorf("%w: %s is not in a batch yet", types.ErrProofUnavailable, txHash.Hex())
	}

	out, err := w.registry.L1Messenger.Unpack("L1MessageSent", log.Data)
	if err != nil || len(out) != 1 {
		return nil, types.EncodingError("failed to decode L1MessageSent of %s: %v", txHash.Hex(), err)
	}
	message, ok := out[0].([]byte)
	if !ok {
		return nil, types.EncodingError("unexpected L1MessageSent payload %T", out[0])
	}

	proof, err := w.l2.L2ToL1LogProof(ctx, txHash, l2ToL1LogIndex)
	if err != nil {
		return nil, err
	}

	return &types.FinalizeWithdrawalParams{
		L2BatchNumber:     new(big.Int).Set(receipt.L1BatchNumber),
		L2MessageIndex:    big.NewInt(int64(proof.Id)),
		L2TxNumberInBatch: uint16(receipt.L1BatchTxIndex.Uint64()),
		Message:           message,
		Sender:            common.BytesToAddress(log.Topics[1].Bytes()),
		Proof:             proof.Proof,
	}, nil
}

// IsWithdrawalFinalized reports whether the index-th message of the withdrawal
// has been finalized on L1. A message that is not provable yet is not finalized.
func (w *WithdrawalFinalizer) IsWithdrawalFinalized(ctx context.Context, l2TxHash common.Hash, index int) (bool, error) {
	params, err := w.FinalizeWithdrawalParams(ctx, l2TxHash, index)
	if errors.Is(err, types.ErrProofUnavailable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return w.isFinalized(ctx, params)
}

func (w *WithdrawalFinalizer) isFinalized(ctx context.Context, params *types.FinalizeWithdrawalParams) (bool, error) {
	if params.Sender == utils.L2EthTokenAddress {
		mainContract, err := w.l2.MainContractAddress(ctx)
		if err != nil {
			return false, err
		}
		return w.l1.IsEthWithdrawalFinalized(ctx, mainContract, params.L2BatchNumber, params.L2MessageIndex)
	}
	l1Bridge, err := w.l2.L1BridgeOf(ctx, params.Sender)
	if err != nil {
		return false, err
	}
	return w.l1.IsWithdrawalFinalized(ctx, l1Bridge, params.L2BatchNumber, params.L2MessageIndex)
}

// FinalizeWithdrawal proves the index-th message of the withdrawal on L1. A
// withdrawal finalized before, by anyone, yields ErrAlreadyFinalized.
func (w *WithdrawalFinalizer) FinalizeWithdrawal(ctx context.Context, l2TxHash common.Hash, index int) (*WithdrawalResult, error) {
	result := &WithdrawalResult{State: types.WithdrawalInitiated, L2TxHash: l2TxHash}

	receipt, err := w.WaitL2Confirmed(ctx, l2TxHash)
	if err != nil {
		return result, err
	}
	result.State = types.WithdrawalL2Confirmed

	params, err := w.paramsFromReceipt(ctx, receipt, index)
	if err != nil {
		return result, err
	}
	result.Params = params
	result.State = types.WithdrawalProofObtained

	finalized, err := w.isFinalized(ctx, params)
	if err != nil {
		return result, err
	}
	if finalized {
		result.State = types.WithdrawalAlreadyFinalized
		return result, fmt.Errorf("%w: %s", types.ErrAlreadyFinalized, l2TxHash.Hex())
	}

	tx, sendErr := w.send(ctx, params)
	if sendErr == nil {
		result.L1TxHash = tx.Hash()
		w.logger.Info("Finalizing withdrawal", "l2TxHash", l2TxHash.Hex(), "l1TxHash", result.L1TxHash.Hex())

		l1Receipt, err := WaitForL1Receipt(ctx, w.l1, tx.Hash(), w.wait)
		if err != nil {
			return result, err
		}
		if l1Receipt.Status == ethtypes.ReceiptStatusSuccessful {
			result.State = types.WithdrawalFinalized
			w.logger.Info("Withdrawal finalized", "l2TxHash", l2TxHash.Hex(), "l1TxHash", result.L1TxHash.Hex())
			return result, nil
		}
		sendErr = types.RemoteError("finalizeWithdrawal", fmt.Errorf("L1 transaction %s reverted", tx.Hash().Hex()))
	}

	// Someone else may have finalized in between; the contract guard reverts then.
	if finalized, err := w.isFinalized(ctx, params); err == nil && finalized {
		result.State = types.WithdrawalAlreadyFinalized
		return result, fmt.Errorf("%w: %s after %v", types.ErrAlreadyFinalized, l2TxHash.Hex(), sendErr)
	}
	return result, sendErr
}

func (w *WithdrawalFinalizer) send(ctx context.Context, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error) {
	if w.signer == nil {
		return nil, errNoSigner
	}
	opts := signer.TransactOpts(w.signer, w.l1.ChainID())
	opts.Context = ctx

	if params.Sender == utils.L2EthTokenAddress {
		mainContract, err := w.l2.MainContractAddress(ctx)
		if err != nil {
			return nil, err
		}
		return w.l1.FinalizeEthWithdrawal(opts, mainContract, params)
	}
	l1Bridge, err := w.l2.L1BridgeOf(ctx, params.Sender)
	if err != nil {
		return nil, err
	}
	return w.l1.FinalizeWithdrawal(opts, l1Bridge, params)
}
