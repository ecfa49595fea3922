package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/types"
)

func get[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type mockL1 struct{ mock.Mock }

func (m *mockL1) BlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	args := m.Called(ctx, number)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockL1) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	args := m.Called(ctx, txHash)
	return get[*ethtypes.Receipt](args, 0), args.Error(1)
}

func (m *mockL1) FilterNewPriorityRequest(ctx context.Context, mainContract common.Address, start, end uint64) ([]*ethereum.PriorityRequest, error) {
	args := m.Called(ctx, mainContract, start, end)
	return get[[]*ethereum.PriorityRequest](args, 0), args.Error(1)
}

type mockL2 struct{ mock.Mock }

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

func (m *mockL2) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	return get[*types.Receipt](args, 0), args.Error(1)
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

type mockChecker struct{ mock.Mock }

func (m *mockChecker) FinalizeWithdrawalParams(ctx context.Context, l2TxHash common.Hash, index int) (*types.FinalizeWithdrawalParams, error) {
	args := m.Called(ctx, l2TxHash, index)
	return get[*types.FinalizeWithdrawalParams](args, 0), args.Error(1)
}

func (m *mockChecker) IsWithdrawalFinalized(ctx context.Context, l2TxHash common.Hash, index int) (bool, error) {
	args := m.Called(ctx, l2TxHash, index)
	return args.Bool(0), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) GetLastIndexedBlock(ctx context.Context, chain string) (uint64, error) {
	args := m.Called(ctx, chain)
	return get[uint64](args, 0), args.Error(1)
}

func (m *mockStore) UpdateLastIndexedBlock(ctx context.Context, chain string, blockNumber uint64) error {
	return m.Called(ctx, chain, blockNumber).Error(0)
}

func (m *mockStore) BatchCreateTransactions(ctx context.Context, txs []models.Transaction) error {
	return m.Called(ctx, txs).Error(0)
}

func (m *mockStore) GetTransactionsByStatus(ctx context.Context, status string, txType string) ([]models.Transaction, error) {
	args := m.Called(ctx, status, txType)
	return get[[]models.Transaction](args, 0), args.Error(1)
}

func (m *mockStore) UpdateTransaction(ctx context.Context, txType string, txHash string, messageIndex int, updates bson.D) error {
	return m.Called(ctx, txType, txHash, messageIndex, updates).Error(0)
}

func (m *mockStore) CreateWithdrawalProof(ctx context.Context, proof models.WithdrawalProof) error {
	return m.Called(ctx, proof).Error(0)
}

func (m *mockStore) CreateWithdrawalFinalized(ctx context.Context, finalized models.WithdrawalFinalized) error {
	return m.Called(ctx, finalized).Error(0)
}

var (
	_ L1Reader          = &mockL1{}
	_ L2Reader          = &mockL2{}
	_ WithdrawalChecker = &mockChecker{}
	_ Store             = &mockStore{}
)
