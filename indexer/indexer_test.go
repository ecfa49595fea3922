package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/database/models"
	"github.com/lightlink-network/zk-bridge-api/ethereum"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

var (
	mainContract = common.HexToAddress("0x1000000000000000000000000000000000000001")
	l2Bridge     = common.HexToAddress("0x3000000000000000000000000000000000000003")
	l1Token      = common.HexToAddress("0x4000000000000000000000000000000000000004")
	recipient    = common.HexToAddress("0x6000000000000000000000000000000000000006")
	user         = common.HexToAddress("0x7000000000000000000000000000000000000007")
)

type fixture struct {
	idx     *Indexer
	reg     *contracts.Registry
	l1      *mockL1
	l2      *mockL2
	checker *mockChecker
	store   *mockStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:     contracts.MustNewRegistry(),
		l1:      &mockL1{},
		l2:      &mockL2{},
		checker: &mockChecker{},
		store:   &mockStore{},
	}

	idx, err := NewIndexer(IndexerOpts{
		L1:                  f.l1,
		L2:                  f.l2,
		Withdrawals:         f.checker,
		Store:               f.store,
		Registry:            f.reg,
		Metrics:             NewMetrics(prometheus.NewRegistry()),
		MaxBatchSize:        20,
		FetchInterval:       time.Millisecond,
		StatusCheckInterval: time.Millisecond,
	})
	require.NoError(t, err)

	idx.mainContract = mainContract
	idx.l2Bridges = map[common.Address]bool{l2Bridge: true}
	f.idx = idx
	return f
}

func statusIs(status types.WithdrawalStatus) interface{} {
	return mock.MatchedBy(func(u bson.D) bool {
		return len(u) > 0 && u[0].Key == "status" && u[0].Value == string(status)
	})
}

func depositStatusIs(status types.DepositStatus) interface{} {
	return mock.MatchedBy(func(u bson.D) bool {
		return len(u) > 0 && u[0].Key == "status" && u[0].Value == string(status)
	})
}

func ethMessage(reg *contracts.Registry, to common.Address, amount int64) []byte {
	msg := append([]byte{}, reg.Mailbox.Methods["finalizeEthWithdrawal"].ID...)
	msg = append(msg, to.Bytes()...)
	return append(msg, common.LeftPadBytes(big.NewInt(amount).Bytes(), 32)...)
}

func tokenMessage(reg *contracts.Registry, to, token common.Address, amount int64) []byte {
	msg := append([]byte{}, reg.L1Bridge.Methods["finalizeWithdrawal"].ID...)
	msg = append(msg, to.Bytes()...)
	msg = append(msg, token.Bytes()...)
	return append(msg, common.LeftPadBytes(big.NewInt(amount).Bytes(), 32)...)
}

func messageLog(t *testing.T, reg *contracts.Registry, txHash common.Hash, sender common.Address, message []byte) ethtypes.Log {
	t.Helper()
	event := reg.L1Messenger.Events["L1MessageSent"]
	data, err := event.Inputs.NonIndexed().Pack(message)
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     utils.L1MessengerAddress,
		Topics:      []common.Hash{event.ID, common.BytesToHash(sender.Bytes()), crypto.Keccak256Hash(message)},
		Data:        data,
		BlockNumber: 105,
		BlockHash:   common.HexToHash("0xb1"),
		TxHash:      txHash,
	}
}

func TestDecodeWithdrawalMessage(t *testing.T) {
	reg := contracts.MustNewRegistry()

	eth, err := decodeWithdrawalMessage(reg, utils.L2EthTokenAddress, ethMessage(reg, recipient, 1000))
	require.NoError(t, err)
	assert.Equal(t, recipient, eth.To)
	assert.Equal(t, common.Address{}, eth.L1Token)
	assert.Equal(t, int64(1000), eth.Amount.Int64())

	token, err := decodeWithdrawalMessage(reg, l2Bridge, tokenMessage(reg, recipient, l1Token, 42))
	require.NoError(t, err)
	assert.Equal(t, recipient, token.To)
	assert.Equal(t, l1Token, token.L1Token)
	assert.Equal(t, int64(42), token.Amount.Int64())

	_, err = decodeWithdrawalMessage(reg, utils.L2EthTokenAddress, ethMessage(reg, recipient, 1)[:40])
	assert.ErrorIs(t, err, types.ErrEncoding)

	// a token message sent by the ETH token contract has the wrong selector
	_, err = decodeWithdrawalMessage(reg, utils.L2EthTokenAddress, tokenMessage(reg, recipient, l1Token, 1))
	assert.ErrorIs(t, err, types.ErrEncoding)

	_, err = decodeWithdrawalMessage(reg, l2Bridge, ethMessage(reg, recipient, 1))
	assert.ErrorIs(t, err, types.ErrEncoding)
}

func TestIndexL2Withdrawals(t *testing.T) {
	f := newFixture(t)
	txA, txB := common.HexToHash("0xaa"), common.HexToHash("0xbb")

	logs := []ethtypes.Log{
		messageLog(t, f.reg, txA, common.HexToAddress("0x1234"), []byte("unrelated")),
		messageLog(t, f.reg, txA, utils.L2EthTokenAddress, ethMessage(f.reg, recipient, 1000)),
		messageLog(t, f.reg, txB, l2Bridge, tokenMessage(f.reg, recipient, l1Token, 42)),
		messageLog(t, f.reg, txB, utils.L2EthTokenAddress, []byte{0x01}),
	}

	f.l2.On("FilterL1MessageSent", mock.Anything, uint64(100), uint64(120)).Return(logs, nil)
	f.l2.On("TransactionReceipt", mock.Anything, txA).Return(&types.Receipt{From: user}, nil).Once()
	f.l2.On("TransactionReceipt", mock.Anything, txB).Return(&types.Receipt{From: user}, nil).Once()
	f.l2.On("BlockTimestamp", mock.Anything, uint64(105)).Return(uint64(1700000000), nil).Once()

	var created []models.Transaction
	f.store.On("BatchCreateTransactions", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.Transaction)
	}).Return(nil)

	require.NoError(t, f.idx.indexL2Withdrawals(context.Background(), 100, 120))

	require.Len(t, created, 2)

	eth := created[0]
	assert.Equal(t, models.TypeWithdrawal, eth.Type)
	assert.Equal(t, txA.Hex(), eth.TxHash)
	assert.Equal(t, 1, eth.MessageIndex)
	assert.False(t, eth.ERC20)
	assert.Equal(t, recipient.Hex(), eth.To)
	assert.Equal(t, user.Hex(), eth.From)
	assert.Equal(t, "1000", eth.Value)
	assert.Empty(t, eth.L1Token)
	assert.Equal(t, utils.L2EthTokenAddress.Hex(), eth.Sender)
	assert.Equal(t, uint64(1700000000), eth.BlockTime)
	assert.Equal(t, string(types.WithdrawalInitiated), eth.Status)

	token := created[1]
	assert.Equal(t, txB.Hex(), token.TxHash)
	assert.Equal(t, 0, token.MessageIndex)
	assert.True(t, token.ERC20)
	assert.Equal(t, l1Token.Hex(), token.L1Token)
	assert.Equal(t, "42", token.Value)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.idx.metrics.IndexedTransactions.WithLabelValues(models.TypeWithdrawal)))
	f.l2.AssertExpectations(t)
}

func TestIndexL2Withdrawals_ReceiptError(t *testing.T) {
	f := newFixture(t)
	txA := common.HexToHash("0xaa")

	f.l2.On("FilterL1MessageSent", mock.Anything, uint64(1), uint64(2)).Return([]ethtypes.Log{
		messageLog(t, f.reg, txA, utils.L2EthTokenAddress, ethMessage(f.reg, recipient, 1)),
	}, nil)
	f.l2.On("TransactionReceipt", mock.Anything, txA).Return(nil, errors.New("boom"))

	require.Error(t, f.idx.indexL2Withdrawals(context.Background(), 1, 2))
	f.store.AssertNotCalled(t, "BatchCreateTransactions", mock.Anything, mock.Anything)
}

func TestIndexL1Deposits(t *testing.T) {
	f := newFixture(t)
	requests := []*ethereum.PriorityRequest{
		{TxId: big.NewInt(1), L2TxHash: common.HexToHash("0x21"), L1TxHash: common.HexToHash("0x11"), BlockNumber: 50},
		{TxId: big.NewInt(2), L2TxHash: common.HexToHash("0x22"), L1TxHash: common.HexToHash("0x12"), BlockNumber: 50},
		{TxId: big.NewInt(3), L2TxHash: common.HexToHash("0x23"), L1TxHash: common.HexToHash("0x13"), BlockNumber: 51},
	}

	f.l1.On("FilterNewPriorityRequest", mock.Anything, mainContract, uint64(50), uint64(60)).Return(requests, nil)
	f.l1.On("BlockTimestamp", mock.Anything, uint64(50)).Return(uint64(500), nil).Once()
	f.l1.On("BlockTimestamp", mock.Anything, uint64(51)).Return(uint64(512), nil).Once()

	var created []models.Transaction
	f.store.On("BatchCreateTransactions", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]models.Transaction)
	}).Return(nil)

	require.NoError(t, f.idx.indexL1Deposits(context.Background(), 50, 60))

	require.Len(t, created, 3)
	for j, tx := range created {
		assert.Equal(t, models.TypeDeposit, tx.Type)
		assert.Equal(t, requests[j].L1TxHash.Hex(), tx.TxHash)
		assert.Equal(t, requests[j].L2TxHash.Hex(), tx.L2TxHash)
		assert.Equal(t, string(types.DepositPriorityOpObserved), tx.Status)
	}
	assert.Equal(t, uint64(512), created[2].BlockTime)
	f.l1.AssertExpectations(t)
}

func TestScan_ResumesFromLastIndexed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.store.On("GetLastIndexedBlock", mock.Anything, models.ChainEthereum).Return(uint64(100), nil)
	f.store.On("UpdateLastIndexedBlock", mock.Anything, models.ChainEthereum, uint64(120)).Return(nil).Once()

	var batches [][2]uint64
	head := func(context.Context) (uint64, error) { return 150, nil }
	process := func(_ context.Context, start, end uint64) error {
		batches = append(batches, [2]uint64{start, end})
		cancel()
		return nil
	}

	require.NoError(t, f.idx.scan(ctx, models.ChainEthereum, 1, head, process))
	assert.Equal(t, [][2]uint64{{101, 120}}, batches)
	assert.Equal(t, 120.0, testutil.ToFloat64(f.idx.metrics.LastIndexedBlock.WithLabelValues(models.ChainEthereum)))
	f.store.AssertExpectations(t)
}

func TestScan_WaitsForMinBatch(t *testing.T) {
	f := newFixture(t)
	f.idx.minBatchSize = 10
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.store.On("GetLastIndexedBlock", mock.Anything, models.ChainZkSync).Return(uint64(0), nil)
	f.store.On("UpdateLastIndexedBlock", mock.Anything, models.ChainZkSync, uint64(24)).Return(nil).Once()

	heads := []uint64{10, 14, 30}
	calls := 0
	head := func(context.Context) (uint64, error) {
		h := heads[min(calls, len(heads)-1)]
		calls++
		return h, nil
	}
	var batches [][2]uint64
	process := func(_ context.Context, start, end uint64) error {
		batches = append(batches, [2]uint64{start, end})
		cancel()
		return nil
	}

	require.NoError(t, f.idx.scan(ctx, models.ChainZkSync, 5, head, process))
	assert.Equal(t, 3, calls)
	assert.Equal(t, [][2]uint64{{5, 24}}, batches)
}

func TestScan_ProcessErrorStops(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetLastIndexedBlock", mock.Anything, models.ChainEthereum).Return(uint64(0), nil)

	head := func(context.Context) (uint64, error) { return 10, nil }
	process := func(context.Context, uint64, uint64) error { return errors.New("rpc down") }

	err := f.idx.scan(context.Background(), models.ChainEthereum, 1, head, process)
	require.ErrorContains(t, err, "rpc down")
	f.store.AssertNotCalled(t, "UpdateLastIndexedBlock", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvery_SurvivesFailedRounds(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rounds := 0
	check := func(context.Context) error {
		rounds++
		if rounds == 3 {
			cancel()
		}
		return errors.New("transient")
	}

	require.NoError(t, f.idx.every(ctx, "test", check))
	assert.Equal(t, 3, rounds)
}

func withdrawal(hash string, index int, status types.WithdrawalStatus, block uint64) models.Transaction {
	return models.Transaction{
		Type:         models.TypeWithdrawal,
		TxHash:       common.HexToHash(hash).Hex(),
		MessageIndex: index,
		BlockNumber:  block,
		Status:       string(status),
	}
}

func TestCheckWithdrawalStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	finalizedL2 := withdrawal("0x01", 0, types.WithdrawalInitiated, 9)
	pendingL2 := withdrawal("0x02", 0, types.WithdrawalInitiated, 12)
	provable := withdrawal("0x03", 1, types.WithdrawalL2Confirmed, 9)
	unprovable := withdrawal("0x04", 0, types.WithdrawalL2Confirmed, 9)
	finalizedL1 := withdrawal("0x05", 0, types.WithdrawalProofObtained, 9)
	pendingL1 := withdrawal("0x06", 0, types.WithdrawalProofObtained, 9)

	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.WithdrawalInitiated), models.TypeWithdrawal).
		Return([]models.Transaction{finalizedL2, pendingL2}, nil)
	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.WithdrawalL2Confirmed), models.TypeWithdrawal).
		Return([]models.Transaction{provable, unprovable}, nil)
	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.WithdrawalProofObtained), models.TypeWithdrawal).
		Return([]models.Transaction{finalizedL1, pendingL1}, nil)
	f.l2.On("FinalizedBlockNumber", mock.Anything).Return(uint64(10), nil)

	params := &types.FinalizeWithdrawalParams{
		L2BatchNumber:     big.NewInt(7),
		L2MessageIndex:    big.NewInt(3),
		L2TxNumberInBatch: 2,
		Message:           []byte{0xde, 0xad},
		Sender:            utils.L2EthTokenAddress,
		Proof:             []common.Hash{common.HexToHash("0x0a")},
	}
	f.checker.On("FinalizeWithdrawalParams", mock.Anything, common.HexToHash("0x03"), 1).Return(params, nil)
	f.checker.On("FinalizeWithdrawalParams", mock.Anything, common.HexToHash("0x04"), 0).
		Return(nil, fmt.Errorf("%w: not in a batch yet", types.ErrProofUnavailable))
	f.store.On("CreateWithdrawalProof", mock.Anything, models.WithdrawalProof{
		TxHash:            provable.TxHash,
		MessageIndex:      1,
		L2BatchNumber:     "7",
		L2MessageIndex:    "3",
		L2TxNumberInBatch: 2,
		Message:           "0xdead",
		Sender:            utils.L2EthTokenAddress.Hex(),
		Proof:             []string{common.HexToHash("0x0a").Hex()},
	}).Return(nil).Once()

	f.checker.On("IsWithdrawalFinalized", mock.Anything, common.HexToHash("0x05"), 0).Return(true, nil)
	f.checker.On("IsWithdrawalFinalized", mock.Anything, common.HexToHash("0x06"), 0).Return(false, nil)
	f.l1.On("BlockNumber", mock.Anything).Return(uint64(500), nil)
	f.l1.On("BlockTimestamp", mock.Anything, uint64(500)).Return(uint64(1700000500), nil)
	f.store.On("CreateWithdrawalFinalized", mock.Anything, models.WithdrawalFinalized{
		TxHash:      finalizedL1.TxHash,
		BlockNumber: 500,
		Timestamp:   1700000500,
	}).Return(nil).Once()

	f.store.On("UpdateTransaction", mock.Anything, models.TypeWithdrawal, finalizedL2.TxHash, 0, statusIs(types.WithdrawalL2Confirmed)).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeWithdrawal, provable.TxHash, 1, statusIs(types.WithdrawalProofObtained)).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeWithdrawal, finalizedL1.TxHash, 0, statusIs(types.WithdrawalFinalized)).Return(nil).Once()

	require.NoError(t, f.idx.CheckWithdrawalStatus(ctx))

	f.store.AssertExpectations(t)
	f.store.AssertNumberOfCalls(t, "UpdateTransaction", 3)
	transitions := f.idx.metrics.StatusTransitions
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues(models.TypeWithdrawal, string(types.WithdrawalFinalized))))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitions.WithLabelValues(models.TypeWithdrawal, string(types.WithdrawalL2Confirmed))))
}

func TestCheckWithdrawalStatus_StoreErrorEndsRound(t *testing.T) {
	f := newFixture(t)
	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.WithdrawalInitiated), models.TypeWithdrawal).
		Return(nil, errors.New("db down"))

	require.ErrorContains(t, f.idx.CheckWithdrawalStatus(context.Background()), "db down")
	f.checker.AssertNotCalled(t, "IsWithdrawalFinalized", mock.Anything, mock.Anything, mock.Anything)
}

func deposit(hash string, status types.DepositStatus, l2Hash string) models.Transaction {
	tx := models.Transaction{
		Type:   models.TypeDeposit,
		TxHash: common.HexToHash(hash).Hex(),
		Status: string(status),
	}
	if l2Hash != "" {
		tx.L2TxHash = common.HexToHash(l2Hash).Hex()
	}
	return tx
}

func TestCheckDepositStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	requested := deposit("0x11", types.DepositSubmitted, "")
	pending := deposit("0x12", types.DepositSubmitted, "")
	reverted := deposit("0x13", types.DepositSubmitted, "")
	executed := deposit("0x14", types.DepositPriorityOpObserved, "0x24")
	failed := deposit("0x15", types.DepositPriorityOpObserved, "0x25")
	unexecuted := deposit("0x16", types.DepositPriorityOpObserved, "0x26")

	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.DepositSubmitted), models.TypeDeposit).
		Return([]models.Transaction{requested, pending, reverted}, nil)
	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.DepositPriorityOpObserved), models.TypeDeposit).
		Return([]models.Transaction{executed, failed, unexecuted}, nil)

	l2Hash := common.HexToHash("0x21")
	data := append(common.LeftPadBytes([]byte{1}, 32), l2Hash.Bytes()...)
	data = append(data, common.LeftPadBytes([]byte{9}, 32)...)
	priorityLog := &ethtypes.Log{
		Address: mainContract,
		Topics:  []common.Hash{f.reg.Mailbox.Events["NewPriorityRequest"].ID},
		Data:    data,
		TxHash:  common.HexToHash("0x11"),
	}
	f.l1.On("TransactionReceipt", mock.Anything, common.HexToHash("0x11")).Return(&ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x11"),
		BlockNumber: big.NewInt(70),
		BlockHash:   common.HexToHash("0xb7"),
		Logs:        []*ethtypes.Log{priorityLog},
	}, nil)
	f.l1.On("TransactionReceipt", mock.Anything, common.HexToHash("0x12")).Return(nil, geth.NotFound)
	f.l1.On("TransactionReceipt", mock.Anything, common.HexToHash("0x13")).Return(&ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusFailed,
		BlockNumber: big.NewInt(71),
	}, nil)
	f.l1.On("BlockTimestamp", mock.Anything, uint64(70)).Return(uint64(1700000070), nil)

	f.l2.On("TransactionReceipt", mock.Anything, common.HexToHash("0x24")).
		Return(&types.Receipt{Receipt: ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}}, nil)
	f.l2.On("TransactionReceipt", mock.Anything, common.HexToHash("0x25")).
		Return(&types.Receipt{Receipt: ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed}}, nil)
	f.l2.On("TransactionReceipt", mock.Anything, common.HexToHash("0x26")).Return(nil, geth.NotFound)

	f.store.On("UpdateTransaction", mock.Anything, models.TypeDeposit, requested.TxHash, 0, mock.MatchedBy(func(u bson.D) bool {
		return len(u) == 5 &&
			u[0].Value == string(types.DepositPriorityOpObserved) &&
			u[1].Key == "l2_tx_hash" && u[1].Value == l2Hash.Hex() &&
			u[4].Key == "block_time" && u[4].Value == uint64(1700000070)
	})).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeDeposit, reverted.TxHash, 0, depositStatusIs(types.DepositFailed)).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeDeposit, executed.TxHash, 0, depositStatusIs(types.DepositConfirmed)).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeDeposit, failed.TxHash, 0, depositStatusIs(types.DepositFailed)).Return(nil).Once()

	require.NoError(t, f.idx.CheckDepositStatus(ctx))

	f.store.AssertExpectations(t)
	f.store.AssertNumberOfCalls(t, "UpdateTransaction", 4)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.idx.metrics.StatusTransitions.WithLabelValues(models.TypeDeposit, string(types.DepositFailed))))
}

func TestResolveContracts(t *testing.T) {
	f := newFixture(t)
	f.l2.On("MainContractAddress", mock.Anything).Return(mainContract, nil)
	f.l2.On("BridgeContracts", mock.Anything).Return(&types.BridgeContracts{L2Erc20DefaultBridge: l2Bridge}, nil)

	require.NoError(t, f.idx.resolveContracts(context.Background()))
	assert.Equal(t, mainContract, f.idx.mainContract)
	assert.Equal(t, map[common.Address]bool{l2Bridge: true}, f.idx.l2Bridges)
}

func TestRun_FailsWithoutContracts(t *testing.T) {
	f := newFixture(t)
	f.l2.On("MainContractAddress", mock.Anything).Return(common.Address{}, errors.New("unreachable"))

	require.ErrorContains(t, f.idx.Run(context.Background()), "unreachable")
}

func TestNewIndexer_RequiresDependencies(t *testing.T) {
	_, err := NewIndexer(IndexerOpts{L1: &mockL1{}, L2: &mockL2{}})
	require.Error(t, err)
}

func TestCheckWithdrawalStatus_LocatesRegisteredWithdrawal(t *testing.T) {
	f := newFixture(t)
	registered := withdrawal("0x09", 0, types.WithdrawalInitiated, 0)
	unknown := withdrawal("0x0a", 0, types.WithdrawalInitiated, 0)

	f.store.On("GetTransactionsByStatus", mock.Anything, string(types.WithdrawalInitiated), models.TypeWithdrawal).
		Return([]models.Transaction{registered, unknown}, nil)
	f.store.On("GetTransactionsByStatus", mock.Anything, mock.Anything, models.TypeWithdrawal).Return(nil, nil)
	f.l2.On("FinalizedBlockNumber", mock.Anything).Return(uint64(10), nil)

	log := messageLog(t, f.reg, common.HexToHash("0x09"), utils.L2EthTokenAddress, ethMessage(f.reg, recipient, 5))
	f.l2.On("TransactionReceipt", mock.Anything, common.HexToHash("0x09")).Return(&types.Receipt{
		Receipt: ethtypes.Receipt{
			Status:      ethtypes.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(8),
			BlockHash:   common.HexToHash("0xb8"),
			Logs:        []*ethtypes.Log{&log},
		},
		From: user,
	}, nil)
	f.l2.On("TransactionReceipt", mock.Anything, common.HexToHash("0x0a")).Return(nil, geth.NotFound)

	f.store.On("UpdateTransaction", mock.Anything, models.TypeWithdrawal, registered.TxHash, 0, mock.MatchedBy(func(u bson.D) bool {
		return len(u) == 7 && u[0].Key == "block_number" && u[0].Value == uint64(8) &&
			u[3].Key == "to" && u[3].Value == recipient.Hex() &&
			u[4].Key == "value" && u[4].Value == "5"
	})).Return(nil).Once()
	f.store.On("UpdateTransaction", mock.Anything, models.TypeWithdrawal, registered.TxHash, 0, statusIs(types.WithdrawalL2Confirmed)).Return(nil).Once()

	require.NoError(t, f.idx.CheckWithdrawalStatus(context.Background()))

	f.store.AssertExpectations(t)
	f.store.AssertNumberOfCalls(t, "UpdateTransaction", 2)
}
