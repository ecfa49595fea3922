package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/types"
)

// PaymasterFlow selects how a paymaster is asked to cover the fee.
type PaymasterFlow string

const (
	PaymasterFlowGeneral       PaymasterFlow = "General"
	PaymasterFlowApprovalBased PaymasterFlow = "ApprovalBased"
)

// PaymasterInput describes the call the bootloader makes into a paymaster. Token and
// MinimalAllowance are only used by the approval based flow.
type PaymasterInput struct {
	Type             PaymasterFlow
	Token            common.Address
	MinimalAllowance *big.Int
	InnerInput       []byte
}

// GeneralPaymasterInput encodes the general flow call.
func GeneralPaymasterInput(reg *contracts.Registry, innerInput []byte) ([]byte, error) {
	input, err := reg.PaymasterFlow.Pack("general", nonNilBytes(innerInput))
	if err != nil {
		return nil, fmt.Errorf("failed to pack general paymaster input: %w", err)
	}
	return input, nil
}

// ApprovalBasedPaymasterInput encodes the approval based flow call.
func ApprovalBasedPaymasterInput(reg *contracts.Registry, token common.Address, minimalAllowance *big.Int, innerInput []byte) ([]byte, error) {
	if minimalAllowance == nil || minimalAllowance.Sign() < 0 {
		return nil, types.EncodingError("approval based paymaster needs a non-negative minimal allowance")
	}
	input, err := reg.PaymasterFlow.Pack("approvalBased", token, minimalAllowance, nonNilBytes(innerInput))
	if err != nil {
		return nil, fmt.Errorf("failed to pack approval based paymaster input: %w", err)
	}
	return input, nil
}

// PaymasterParamsFor builds the transaction paymaster parameters for paymaster and input.
func PaymasterParamsFor(reg *contracts.Registry, paymaster common.Address, input PaymasterInput) (*types.PaymasterParams, error) {
	var (
		encoded []byte
		err     error
	)
	switch input.Type {
	case PaymasterFlowGeneral:
		encoded, err = GeneralPaymasterInput(reg, input.InnerInput)
	case PaymasterFlowApprovalBased:
		encoded, err = ApprovalBasedPaymasterInput(reg, input.Token, input.MinimalAllowance, input.InnerInput)
	default:
		return nil, types.EncodingError("unknown paymaster flow %q", input.Type)
	}
	if err != nil {
		return nil, err
	}
	return &types.PaymasterParams{Paymaster: paymaster, PaymasterInput: encoded}, nil
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
