package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EthAddress is the pseudo token address standing for the native token on both chains.
var EthAddress = common.Address{}

// IsETH reports whether token denotes the native token.
func IsETH(token common.Address) bool {
	return token == EthAddress
}

// DepositTransaction is the user intent to move Amount of Token from L1 to To on L2.
type DepositTransaction struct {
	Token  common.Address // EthAddress for the native token
	Amount *big.Int
	To     common.Address // defaults to the sender

	// ApproveERC20 sends an approval for the L1 bridge when the current allowance is insufficient.
	ApproveERC20 bool

	// Optional fields. Nil values are filled with defaults or estimates.
	L2GasLimit        *big.Int
	GasPerPubdataByte *big.Int
	RefundRecipient   *common.Address
	OperatorTip       *big.Int
	BridgeAddress     *common.Address // custom L1 bridge instead of the default one

	// L1 transaction options.
	Value     *big.Int // msg.value of the L1 request; computed from the base cost when nil
	GasPrice  *big.Int // L1 gas price used for the base cost; suggested when nil
	GasTipCap *big.Int
	GasLimit  uint64
}

// WithdrawTransaction is the user intent to move Amount of Token from L2 to To on L1.
type WithdrawTransaction struct {
	Token  common.Address // EthAddress for the native token
	Amount *big.Int
	To     common.Address // defaults to the sender

	BridgeAddress   *common.Address // custom L2 bridge instead of the default one
	PaymasterParams *PaymasterParams
}
