package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Selectors(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		name     string
		selector []byte
		want     string
	}{
		{"erc20 approve", r.ERC20.Methods["approve"].ID, "0x095ea7b3"},
		{"erc20 transfer", r.ERC20.Methods["transfer"].ID, "0xa9059cbb"},
		{"deployer create", r.ContractDeployer.Methods["create"].ID, "0x9c4d535b"},
		{"deployer create2", r.ContractDeployer.Methods["create2"].ID, "0x3cda3351"},
		{"paymaster general", r.PaymasterFlow.Methods["general"].ID, "0x8c5a3445"},
		{"paymaster approvalBased", r.PaymasterFlow.Methods["approvalBased"].ID, "0x949431dc"},
		{"mailbox base cost", r.Mailbox.Methods["l2TransactionBaseCost"].ID, "0xb473318e"},
		{"mailbox request", r.Mailbox.Methods["requestL2Transaction"].ID, "0xeb672419"},
		{"l1 bridge deposit", r.L1Bridge.Methods["deposit"].ID, "0xe8b99b1b"},
		{"l2 bridge finalizeDeposit", r.L2Bridge.Methods["finalizeDeposit"].ID, "0xcfe7af7c"},
		{"eth token withdraw", r.EthToken.Methods["withdraw"].ID, "0x51cff8d9"},
		{"nonce holder deployment nonce", r.NonceHolder.Methods["getDeploymentNonce"].ID, "0xfb1a9a57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hexutil.Encode(tt.selector))
		})
	}
}

func TestNewRegistry_EventTopics(t *testing.T) {
	r := MustNewRegistry()

	assert.Equal(t,
		common.HexToHash("0x3a36e47291f4201faf137fab081d92295bce2d53be2c6ca68ba82c7faa9ce241"),
		r.L1Messenger.Events["L1MessageSent"].ID)
	assert.Equal(t,
		common.HexToHash("0x290afdae231a3fc0bbae8b1af63698b0a1d79b21ad17df0342dfb952fe74f8e5"),
		r.ContractDeployer.Events["ContractDeployed"].ID)
	assert.Equal(t,
		common.HexToHash("0x4531cd5795773d7101c17bdeb9f5ab7f47d7056017506f937083be5d6e77a382"),
		r.Mailbox.Events["NewPriorityRequest"].ID)
}
