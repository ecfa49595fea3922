package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FinalizeWithdrawalParams are the arguments of an L1 withdrawal finalization.
type FinalizeWithdrawalParams struct {
	L2BatchNumber     *big.Int
	L2MessageIndex    *big.Int
	L2TxNumberInBatch uint16
	Message           []byte
	Sender            common.Address // L2 contract that sent the message
	Proof             []common.Hash
}

// ProofArray returns the merkle proof in the form the bridge contracts take.
func (p *FinalizeWithdrawalParams) ProofArray() [][32]byte {
	proof := make([][32]byte, len(p.Proof))
	for i, h := range p.Proof {
		proof[i] = h
	}
	return proof
}
