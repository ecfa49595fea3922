package types

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrEncoding is returned for local salt, bytecode-length and field-shape violations.
	ErrEncoding = errors.New("encoding error")
	// ErrInsufficientValue is returned when the base cost exceeds the provided value.
	ErrInsufficientValue = errors.New("insufficient value for base cost")
	// ErrAddressMismatch is returned when a precomputed address differs from the deployed one.
	ErrAddressMismatch = errors.New("deployed address mismatch")
	// ErrRemoteCall is returned when the RPC or chain collaborator reported a failure.
	ErrRemoteCall = errors.New("remote call failed")
	// ErrTimeout is returned when a polling loop exhausted its budget.
	ErrTimeout = errors.New("polling timed out")
	// ErrAlreadyFinalized is returned when a withdrawal was finalized before.
	ErrAlreadyFinalized = errors.New("withdrawal already finalized")
	// ErrProofUnavailable is returned when the L2 -> L1 message is not provably included yet.
	ErrProofUnavailable = errors.New("proof unavailable")
	// ErrDepositReverted is returned when the L1 leg of a deposit reverted.
	ErrDepositReverted = errors.New("deposit reverted on L1")
	// ErrPriorityOpFailed is returned when the L2 execution of a priority operation failed.
	ErrPriorityOpFailed = errors.New("priority operation failed on L2")
	// ErrDepositNotFailed is returned when claiming a deposit whose L2 execution succeeded.
	ErrDepositNotFailed = errors.New("deposit did not fail")
)

// EncodingError wraps ErrEncoding with the offending reason.
func EncodingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEncoding, fmt.Sprintf(format, args...))
}

// InsufficientValueError carries the base cost and value that failed the check.
type InsufficientValueError struct {
	BaseCost *big.Int
	Value    *big.Int
}

func (e *InsufficientValueError) Error() string {
	return fmt.Sprintf("the base cost of performing the priority operation is higher than the provided value: base cost %s, provided value %s", e.BaseCost, e.Value)
}

func (e *InsufficientValueError) Unwrap() error { return ErrInsufficientValue }

// AddressMismatchError carries the precomputed and the on-chain address.
type AddressMismatchError struct {
	Expected common.Address
	Actual   common.Address
}

func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("deployed address mismatch: precomputed %s, receipt reports %s", e.Expected.Hex(), e.Actual.Hex())
}

func (e *AddressMismatchError) Unwrap() error { return ErrAddressMismatch }

// RemoteCallError wraps a failure returned by a node or contract call.
type RemoteCallError struct {
	Method string
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("failed to call %s: %v", e.Method, e.Err)
}

func (e *RemoteCallError) Unwrap() []error { return []error{ErrRemoteCall, e.Err} }

// RemoteError wraps err as a RemoteCallError for method. A nil err stays nil.
func RemoteError(method string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteCallError{Method: method, Err: err}
}
