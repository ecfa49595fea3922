package bridge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/signer"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// CheckBaseCost fails when baseCost exceeds value. It performs no I/O.
func CheckBaseCost(baseCost, value *big.Int) error {
	if value == nil || baseCost.Cmp(value) > 0 {
		return &types.InsufficientValueError{BaseCost: new(big.Int).Set(baseCost), Value: value}
	}
	return nil
}

// DepositResult is the outcome of a deposit. State is the last state reached,
// also when an error is returned after submission.
type DepositResult struct {
	State         types.DepositStatus
	L1TxHash      common.Hash
	L2TxHash      common.Hash
	ApproveTxHash common.Hash
	BaseCost      *big.Int
	L2Receipt     *types.Receipt
}

type DepositOpts struct {
	Registry *contracts.Registry
	Logger   *slog.Logger
	Wait     WaitOpts
}

// DepositCoordinator moves funds from L1 to L2 for one signer.
type DepositCoordinator struct {
	l1       L1Client
	l2       L2Client
	signer   signer.Signer
	registry *contracts.Registry
	logger   *slog.Logger
	wait     WaitOpts
}

func NewDepositCoordinator(l1 L1Client, l2 L2Client, s signer.Signer, opts DepositOpts) (*DepositCoordinator, error) {
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
	return &DepositCoordinator{
		l1:       l1,
		l2:       l2,
		signer:   s,
		registry: opts.Registry,
		logger:   opts.Logger.With("component", "deposit"),
		wait:     opts.Wait,
	}, nil
}

// deposit is a DepositTransaction with every default resolved.
type deposit struct {
	types.DepositTransaction
	mainContract common.Address
	l1Bridge     common.Address
	refund       common.Address
	value        *big.Int
}

// Deposit runs a deposit until its priority operation is executed on L2.
func (d *DepositCoordinator) Deposit(ctx context.Context, tx types.DepositTransaction) (*DepositResult, error) {
	result, err := d.Submit(ctx, tx)
	if err != nil {
		return result, err
	}
	return result, d.WaitConfirmed(ctx, result)
}

// Submit checks the base cost, approves the bridge when asked to, sends the L1
// request and extracts the L2 hash of the priority operation from its receipt.
func (d *DepositCoordinator) Submit(ctx context.Context, tx types.DepositTransaction) (*DepositResult, error) {
	dep, baseCost, err := d.prepare(ctx, tx)
	if err != nil {
		return nil, err
	}
	result := &DepositResult{State: types.DepositPrepared, BaseCost: baseCost}

	if !types.IsETH(dep.Token) && dep.ApproveERC20 {
		hash, err := d.approve(ctx, dep)
		if err != nil {
			return result, err
		}
		result.ApproveTxHash = hash
	}
	result.State = types.DepositAllowanceChecked

	l1Tx, err := d.send(ctx, dep)
	if err != nil {
		return result, err
	}
	result.State = types.DepositSubmitted
	result.L1TxHash = l1Tx.Hash()
	d.logger.Info("Deposit submitted", "l1TxHash", result.L1TxHash.Hex(), "token", dep.Token.Hex(), "amount", dep.Amount)

	receipt, err := WaitForL1Receipt(ctx, d.l1, result.L1TxHash, d.wait)
	if err != nil {
		return result, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		result.State = types.DepositFailed
		return result, types.RemoteError("deposit", fmt.Errorf("%w: %s", types.ErrDepositReverted, result.L1TxHash.Hex()))
	}

	result.L2TxHash, err = L2HashFromPriorityOp(d.registry, receipt, dep.mainContract)
	if err != nil {
		return result, err
	}
	result.State = types.DepositPriorityOpObserved
	d.logger.Info("Priority operation observed", "l1TxHash", result.L1TxHash.Hex(), "l2TxHash", result.L2TxHash.Hex())
	return result, nil
}

// WaitConfirmed waits for the L2 execution of an observed priority operation.
func (d *DepositCoordinator) WaitConfirmed(ctx context.Context, result *DepositResult) error {
	receipt, err := WaitForL2Receipt(ctx, d.l2, result.L2TxHash, d.wait)
	if err != nil {
		return err
	}
	result.L2Receipt = receipt
	if !receipt.Succeeded() {
		result.State = types.DepositFailed
		return types.RemoteError("priority operation", fmt.Errorf("%w: %s", types.ErrPriorityOpFailed, result.L2TxHash.Hex()))
	}
	result.State = types.DepositConfirmed
	d.logger.Info("Deposit confirmed", "l2TxHash", result.L2TxHash.Hex())
	return nil
}

// BaseCost resolves the defaults of tx and returns the base cost its priority
// operation must cover.
func (d *DepositCoordinator) BaseCost(ctx context.Context, tx types.DepositTransaction) (*big.Int, error) {
	dep, err := d.resolve(ctx, tx)
	if err != nil {
		return nil, err
	}
	return d.l1.L2TransactionBaseCost(ctx, dep.mainContract, dep.GasPrice, dep.L2GasLimit, dep.GasPerPubdataByte)
}

func (d *DepositCoordinator) prepare(ctx context.Context, tx types.DepositTransaction) (*deposit, *big.Int, error) {
	dep, err := d.resolve(ctx, tx)
	if err != nil {
		return nil, nil, err
	}
	baseCost, err := d.l1.L2TransactionBaseCost(ctx, dep.mainContract, dep.GasPrice, dep.L2GasLimit, dep.GasPerPubdataByte)
	if err != nil {
		return nil, nil, err
	}

	// The L2 value travels inside msg.value for ETH, only the rest pays for execution.
	l2Value := new(big.Int)
	if types.IsETH(dep.Token) {
		l2Value.Set(dep.Amount)
	}
	if dep.value == nil {
		dep.value = new(big.Int).Add(baseCost, dep.OperatorTip)
		dep.value.Add(dep.value, l2Value)
	}
	if err := CheckBaseCost(baseCost, new(big.Int).Sub(dep.value, l2Value)); err != nil {
		return nil, nil, err
	}
	return dep, baseCost, nil
}

func (d *DepositCoordinator) resolve(ctx context.Context, tx types.DepositTransaction) (*deposit, error) {
	if tx.Amount == nil || tx.Amount.Sign() < 0 {
		return nil, types.EncodingError("deposit amount must be non-negative")
	}
	sender := d.signer.Address()
	dep := &deposit{DepositTransaction: tx, refund: sender}
	if tx.Value != nil {
		dep.value = new(big.Int).Set(tx.Value)
	}
	if dep.To == (common.Address{}) {
		dep.To = sender
	}
	if tx.RefundRecipient != nil {
		dep.refund = *tx.RefundRecipient
	}
	if dep.OperatorTip == nil {
		dep.OperatorTip = new(big.Int)
	}
	if dep.GasPerPubdataByte == nil {
		dep.GasPerPubdataByte = new(big.Int).Set(utils.RequiredL1ToL2GasPerPubdataLimit)
	}

	var err error
	if dep.mainContract, err = d.l2.MainContractAddress(ctx); err != nil {
		return nil, err
	}
	if !types.IsETH(dep.Token) {
		if tx.BridgeAddress != nil {
			dep.l1Bridge = *tx.BridgeAddress
		} else {
			bridges, err := d.l2.BridgeContracts(ctx)
			if err != nil {
				return nil, err
			}
			dep.l1Bridge = bridges.L1Erc20DefaultBridge
		}
	}

	if dep.L2GasLimit == nil {
		gas, err := d.estimateL2Gas(ctx, dep)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate L2 gas limit: %w", err)
		}
		dep.L2GasLimit = new(big.Int).SetUint64(gas)
	}
	if dep.GasPrice == nil {
		if dep.GasPrice, err = d.l1.SuggestGasPrice(ctx); err != nil {
			return nil, err
		}
	}
	return dep, nil
}

func (d *DepositCoordinator) estimateL2Gas(ctx context.Context, dep *deposit) (uint64, error) {
	if types.IsETH(dep.Token) {
		return d.l2.EstimateL1ToL2Execute(ctx, types.CallMsg{
			From:  d.signer.Address(),
			To:    &dep.To,
			Value: dep.Amount,
			Meta:  &types.Eip712Meta{GasPerPubdata: dep.GasPerPubdataByte},
		})
	}

	l2Bridge, err := d.l1.L2BridgeOf(ctx, dep.l1Bridge)
	if err != nil {
		return 0, err
	}
	token, err := d.l1.TokenMetadata(ctx, dep.Token)
	if err != nil {
		return 0, err
	}
	data, err := encodeTokenData(token)
	if err != nil {
		return 0, err
	}
	calldata, err := d.registry.L2Bridge.Pack("finalizeDeposit", d.signer.Address(), dep.To, dep.Token, dep.Amount, data)
	if err != nil {
		return 0, fmt.Errorf("failed to pack finalizeDeposit: %w", err)
	}
	return d.l2.EstimateL1ToL2Execute(ctx, types.CallMsg{
		From: utils.ApplyL1ToL2Alias(dep.l1Bridge),
		To:   &l2Bridge,
		Data: calldata,
		Meta: &types.Eip712Meta{GasPerPubdata: dep.GasPerPubdataByte},
	})
}

func (d *DepositCoordinator) approve(ctx context.Context, dep *deposit) (common.Hash, error) {
	allowance, err := d.l1.Allowance(ctx, dep.Token, d.signer.Address(), dep.l1Bridge)
	if err != nil {
		return common.Hash{}, err
	}
	if allowance.Cmp(dep.Amount) >= 0 {
		return common.Hash{}, nil
	}

	opts := signer.TransactOpts(d.signer, d.l1.ChainID())
	opts.Context = ctx
	tx, err := d.l1.Approve(opts, dep.Token, dep.l1Bridge, dep.Amount)
	if err != nil {
		return common.Hash{}, err
	}
	receipt, err := WaitForL1Receipt(ctx, d.l1, tx.Hash(), d.wait)
	if err != nil {
		return tx.Hash(), err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return tx.Hash(), types.RemoteError("approve", fmt.Errorf("L1 transaction %s reverted", tx.Hash().Hex()))
	}
	d.logger.Info("Approved bridge", "token", dep.Token.Hex(), "bridge", dep.l1Bridge.Hex(), "amount", dep.Amount)
	return tx.Hash(), nil
}

func (d *DepositCoordinator) send(ctx context.Context, dep *deposit) (*ethtypes.Transaction, error) {
	opts := signer.TransactOpts(d.signer, d.l1.ChainID())
	opts.Context = ctx
	opts.Value = dep.value
	opts.GasLimit = dep.GasLimit
	// the base cost was computed for this gas price, the L1 transaction must not pay less
	if dep.GasTipCap != nil {
		opts.GasFeeCap = dep.GasPrice
		opts.GasTipCap = dep.GasTipCap
	} else {
		opts.GasPrice = dep.GasPrice
	}

	if types.IsETH(dep.Token) {
		return d.l1.RequestL2Transaction(opts, dep.mainContract, &ethereum.L2TransactionRequest{
			ContractL2:        dep.To,
			L2Value:           dep.Amount,
			L2GasLimit:        dep.L2GasLimit,
			GasPerPubdataByte: dep.GasPerPubdataByte,
			RefundRecipient:   dep.refund,
		})
	}
	return d.l1.Deposit(opts, dep.l1Bridge, &ethereum.DepositRequest{
		L2Receiver:        dep.To,
		L1Token:           dep.Token,
		Amount:            dep.Amount,
		L2GasLimit:        dep.L2GasLimit,
		GasPerPubdataByte: dep.GasPerPubdataByte,
		RefundRecipient:   dep.refund,
	})
}

// L2HashFromPriorityOp returns the L2 hash of the priority operation requested
// in an L1 receipt.
func L2HashFromPriorityOp(reg *contracts.Registry, receipt *ethtypes.Receipt, mainContract common.Address) (common.Hash, error) {
	for _, log := range receipt.Logs {
		if log.Address != mainContract {
			continue
		}
		req, err := ethereum.ParsePriorityRequest(reg, *log)
		if err != nil {
			continue
		}
		return req.L2TxHash, nil
	}
	return common.Hash{}, fmt.Errorf("failed to find NewPriorityRequest of %s in receipt %s", mainContract.Hex(), receipt.TxHash.Hex())
}

var (
	bytesType, _   = abi.NewType("bytes", "", nil)
	stringType, _  = abi.NewType("string", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
)

// encodeTokenData is the token metadata the L2 bridge receives with the first
// deposit of a token: abi.encode(abi.encode(name), abi.encode(symbol), abi.encode(decimals)).
func encodeTokenData(token *types.Token) ([]byte, error) {
	name, err := abi.Arguments{{Type: stringType}}.Pack(token.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token name: %w", err)
	}
	symbol, err := abi.Arguments{{Type: stringType}}.Pack(token.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token symbol: %w", err)
	}
	decimals, err := abi.Arguments{{Type: uint256Type}}.Pack(big.NewInt(int64(token.Decimals)))
	if err != nil {
		return nil, fmt.Errorf("failed to encode token decimals: %w", err)
	}
	return abi.Arguments{{Type: bytesType}, {Type: bytesType}, {Type: bytesType}}.Pack(name, symbol, decimals)
}

// ClaimFailedDeposit returns the funds of a deposit whose L2 execution failed.
func (d *DepositCoordinator) ClaimFailedDeposit(ctx context.Context, l2TxHash common.Hash) (*ethtypes.Transaction, error) {
	receipt, err := d.l2.TransactionReceipt(ctx, l2TxHash)
	if err != nil {
		return nil, err
	}

	logIndex := -1
	for i, log := range receipt.L2ToL1Logs {
		if log.Sender == utils.BootloaderFormalAddress && log.Key == l2TxHash {
			logIndex = i
			if log.Value != (common.Hash{}) {
				return nil, fmt.Errorf("%w: %s", types.ErrDepositNotFailed, l2TxHash.Hex())
			}
			break
		}
	}
	if logIndex < 0 {
		return nil, fmt.Errorf("%w: no bootloader log for %s", types.ErrProofUnavailable, l2TxHash.Hex())
	}
	if receipt.L1BatchNumber == nil || receipt.L1BatchTxIndex == nil {
		return nil, fmt.Errorf("%w: %s is not in a batch yet", types.ErrProofUnavailable, l2TxHash.Hex())
	}

	input, err := d.l2.TransactionInput(ctx, l2TxHash)
	if err != nil {
		return nil, err
	}
	method := d.registry.L2Bridge.Methods["finalizeDeposit"]
	if len(input) < 4 || !bytes.Equal(input[:4], method.ID) {
		return nil, types.EncodingError("%s is not a finalizeDeposit call", l2TxHash.Hex())
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, types.EncodingError("failed to decode finalizeDeposit: %v", err)
	}
	depositSender, _ := args[0].(common.Address)
	l1Token, _ := args[2].(common.Address)

	l1Bridge, err := d.l2.L1BridgeOf(ctx, receipt.To)
	if err != nil {
		return nil, err
	}
	proof, err := d.l2.L2ToL1LogProof(ctx, l2TxHash, logIndex)
	if err != nil {
		return nil, err
	}

	opts := signer.TransactOpts(d.signer, d.l1.ChainID())
	opts.Context = ctx
	tx, err := d.l1.ClaimFailedDeposit(opts, l1Bridge, &ethereum.ClaimFailedDepositRequest{
		DepositSender:     depositSender,
		L1Token:           l1Token,
		L2TxHash:          l2TxHash,
		L2BatchNumber:     receipt.L1BatchNumber,
		L2MessageIndex:    big.NewInt(int64(proof.Id)),
		L2TxNumberInBatch: uint16(receipt.L1BatchTxIndex.Uint64()),
		Proof:             proof.Proof,
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("Claimed failed deposit", "l2TxHash", l2TxHash.Hex(), "l1TxHash", tx.Hash().Hex())
	return tx, nil
}
