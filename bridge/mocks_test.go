package bridge

import (
	"context"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/types"
)

// get returns the i-th return value, or the zero value when it is nil.
func get[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type mockL1 struct{ mock.Mock }

var _ L1Client = &mockL1{}

func (m *mockL1) ChainID() *big.Int { return big.NewInt(1) }

func (m *mockL1) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	args := m.Called(ctx, number)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return get[*big.Int](args, 0), args.Error(1)
}

func (m *mockL1) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	return get[*big.Int](args, 0), args.Error(1)
}

func (m *mockL1) EstimateGas(ctx context.Context, msg geth.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *mockL1) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	args := m.Called(ctx, txHash)
	return get[*ethtypes.Receipt](args, 0), args.Error(1)
}

func (m *mockL1) L2TransactionBaseCost(ctx context.Context, mainContract common.Address, gasPrice, l2GasLimit, gasPerPubdataByte *big.Int) (*big.Int, error) {
	args := m.Called(ctx, mainContract, gasPrice, l2GasLimit, gasPerPubdataByte)
	return get[*big.Int](args, 0), args.Error(1)
}

func (m *mockL1) IsEthWithdrawalFinalized(ctx context.Context, mainContract common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error) {
	args := m.Called(ctx, mainContract, l2BatchNumber, l2MessageIndex)
	return args.Bool(0), args.Error(1)
}

func (m *mockL1) RequestL2Transaction(opts *bind.TransactOpts, mainContract common.Address, req *ethereum.L2TransactionRequest) (*ethtypes.Transaction, error) {
	args := m.Called(opts, mainContract, req)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

func (m *mockL1) FinalizeEthWithdrawal(opts *bind.TransactOpts, mainContract common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error) {
	args := m.Called(opts, mainContract, params)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

func (m *mockL1) FilterNewPriorityRequest(ctx context.Context, mainContract common.Address, start, end uint64) ([]*ethereum.PriorityRequest, error) {
	args := m.Called(ctx, mainContract, start, end)
	return get[[]*ethereum.PriorityRequest](args, 0), args.Error(1)
}

func (m *mockL1) IsWithdrawalFinalized(ctx context.Context, bridge common.Address, l2BatchNumber, l2MessageIndex *big.Int) (bool, error) {
	args := m.Called(ctx, bridge, l2BatchNumber, l2MessageIndex)
	return args.Bool(0), args.Error(1)
}

func (m *mockL1) L2TokenAddress(ctx context.Context, bridge, l1Token common.Address) (common.Address, error) {
	args := m.Called(ctx, bridge, l1Token)
	return get[common.Address](args, 0), args.Error(1)
}

func (m *mockL1) L2BridgeOf(ctx context.Context, bridge common.Address) (common.Address, error) {
	args := m.Called(ctx, bridge)
	return get[common.Address](args, 0), args.Error(1)
}

func (m *mockL1) Deposit(opts *bind.TransactOpts, bridge common.Address, req *ethereum.DepositRequest) (*ethtypes.Transaction, error) {
	args := m.Called(opts, bridge, req)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

func (m *mockL1) FinalizeWithdrawal(opts *bind.TransactOpts, bridge common.Address, params *types.FinalizeWithdrawalParams) (*ethtypes.Transaction, error) {
	args := m.Called(opts, bridge, params)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

func (m *mockL1) ClaimFailedDeposit(opts *bind.TransactOpts, bridge common.Address, req *ethereum.ClaimFailedDepositRequest) (*ethtypes.Transaction, error) {
	args := m.Called(opts, bridge, req)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

func (m *mockL1) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	args := m.Called(ctx, token, owner, spender)
	return get[*big.Int](args, 0), args.Error(1)
}

func (m *mockL1) TokenMetadata(ctx context.Context, token common.Address) (*types.Token, error) {
	args := m.Called(ctx, token)
	return get[*types.Token](args, 0), args.Error(1)
}

func (m *mockL1) Approve(opts *bind.TransactOpts, token, spender common.Address, amount *big.Int) (*ethtypes.Transaction, error) {
	args := m.Called(opts, token, spender, amount)
	return get[*ethtypes.Transaction](args, 0), args.Error(1)
}

type mockL2 struct{ mock.Mock }

var _ L2Client = &mockL2{}

func (m *mockL2) ChainID() *big.Int { return big.NewInt(270) }

func (m *mockL2) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) FinalizedBlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	args := m.Called(ctx, number)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	args := m.Called(ctx, account, blockNumber)
	return get[*big.Int](args, 0), args.Error(1)
}

func (m *mockL2) EstimateGas(ctx context.Context, msg types.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	args := m.Called(ctx, raw)
	return get[common.Hash](args, 0), args.Error(1)
}

func (m *mockL2) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	return get[*types.Receipt](args, 0), args.Error(1)
}

func (m *mockL2) TransactionInput(ctx context.Context, txHash common.Hash) ([]byte, error) {
	args := m.Called(ctx, txHash)
	return get[[]byte](args, 0), args.Error(1)
}

func (m *mockL2) FilterL1MessageSent(ctx context.Context, start, end uint64) ([]ethtypes.Log, error) {
	args := m.Called(ctx, start, end)
	return get[[]ethtypes.Log](args, 0), args.Error(1)
}

func (m *mockL2) MainContractAddress(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return get[common.Address](args, 0), args.Error(1)
}

func (m *mockL2) BridgeContracts(ctx context.Context) (*types.BridgeContracts, error) {
	args := m.Called(ctx)
	return get[*types.BridgeContracts](args, 0), args.Error(1)
}

func (m *mockL2) EstimateFee(ctx context.Context, msg types.CallMsg) (*types.Fee, error) {
	args := m.Called(ctx, msg)
	return get[*types.Fee](args, 0), args.Error(1)
}

func (m *mockL2) EstimateGasL1(ctx context.Context, msg types.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) EstimateL1ToL2Execute(ctx context.Context, msg types.CallMsg) (uint64, error) {
	args := m.Called(ctx, msg)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL2) L2ToL1LogProof(ctx context.Context, txHash common.Hash, logIndex int) (*types.LogProof, error) {
	args := m.Called(ctx, txHash, logIndex)
	return get[*types.LogProof](args, 0), args.Error(1)
}

func (m *mockL2) ConfirmedTokens(ctx context.Context, from uint32, limit uint8) ([]*types.Token, error) {
	args := m.Called(ctx, from, limit)
	return get[[]*types.Token](args, 0), args.Error(1)
}

func (m *mockL2) L2TokenAddress(ctx context.Context, l1Token common.Address) (common.Address, error) {
	args := m.Called(ctx, l1Token)
	return get[common.Address](args, 0), args.Error(1)
}

func (m *mockL2) L1BridgeOf(ctx context.Context, l2Bridge common.Address) (common.Address, error) {
	args := m.Called(ctx, l2Bridge)
	return get[common.Address](args, 0), args.Error(1)
}

func (m *mockL2) DeploymentNonce(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return get[uint64](args, 0), args.Error(1)
}
