package types

// DepositStatus represents the states an L1 -> L2 deposit moves through
type DepositStatus string

const (
	// DepositPrepared - Base cost has been computed and checked against the provided value
	DepositPrepared DepositStatus = "PREPARED"

	// DepositAllowanceChecked - Token allowance has been checked (and approved if requested)
	DepositAllowanceChecked DepositStatus = "ALLOWANCE_CHECKED"

	// DepositSubmitted - The L1 priority request has been sent
	DepositSubmitted DepositStatus = "SUBMITTED"

	// DepositPriorityOpObserved - The L2 hash of the priority operation is known, waiting for its L2 receipt
	DepositPriorityOpObserved DepositStatus = "PRIORITY_OP_OBSERVED"

	// DepositConfirmed - The priority operation was executed successfully on L2
	DepositConfirmed DepositStatus = "CONFIRMED"

	// DepositFailed - Either leg failed; a failed L2 execution can be claimed back on L1
	DepositFailed DepositStatus = "FAILED"
)

// WithdrawalStatus represents the states an L2 -> L1 withdrawal moves through
type WithdrawalStatus string

const (
	// WithdrawalInitiated - The withdrawal transaction was submitted on L2
	WithdrawalInitiated WithdrawalStatus = "INITIATED"

	// WithdrawalL2Confirmed - The L2 receipt has reached the finalized block
	WithdrawalL2Confirmed WithdrawalStatus = "L2_CONFIRMED"

	// WithdrawalProofObtained - An inclusion proof for the L2 -> L1 message is available
	WithdrawalProofObtained WithdrawalStatus = "PROOF_OBTAINED"

	// WithdrawalFinalized - The withdrawal has been finalized on L1
	WithdrawalFinalized WithdrawalStatus = "FINALIZED"

	// WithdrawalAlreadyFinalized - Finalization was attempted on a withdrawal that was finalized before
	WithdrawalAlreadyFinalized WithdrawalStatus = "ALREADY_FINALIZED"
)

// IsTerminal reports whether no further transition can happen from s.
func (s DepositStatus) IsTerminal() bool {
	return s == DepositConfirmed || s == DepositFailed
}

// IsTerminal reports whether no further transition can happen from s.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalFinalized || s == WithdrawalAlreadyFinalized
}
