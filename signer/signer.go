// Package signer provides the signing capability used for rollup and L1 transactions.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lightlink-network/zk-bridge-api/eip712"
	"github.com/lightlink-network/zk-bridge-api/types"
)

// Signer signs 32-byte digests on behalf of an account.
type Signer interface {
	// Address is the account the signatures authorize.
	Address() common.Address
	// SignHash returns r || s || v with v in {27, 28}, or an aggregate of such signatures.
	SignHash(digest []byte) ([]byte, error)
}

var _ Signer = &PrivateKeySigner{}
var _ Signer = &MultisigSigner{}

// PrivateKeySigner signs with a single secp256k1 key.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner returns a signer for key.
func NewPrivateKeySigner(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewPrivateKeySignerFromHex parses a hex encoded private key, with or without 0x prefix.
func NewPrivateKeySignerFromHex(hexkey string) (*PrivateKeySigner, error) {
	if len(hexkey) > 1 && hexkey[:2] == "0x" {
		hexkey = hexkey[2:]
	}
	key, err := crypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewPrivateKeySigner(key), nil
}

func (s *PrivateKeySigner) Address() common.Address { return s.address }

func (s *PrivateKeySigner) SignHash(digest []byte) ([]byte, error) {
	if len(digest) != common.HashLength {
		return nil, types.EncodingError("digest must be %d bytes, got %d", common.HashLength, len(digest))
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// MultisigSigner produces the concatenated signatures of its members for a smart
// contract account. The account verifies them, so they travel as a custom signature.
type MultisigSigner struct {
	account common.Address
	members []Signer
}

// NewMultisigSigner returns a signer for account backed by members, in signing order.
func NewMultisigSigner(account common.Address, members ...Signer) (*MultisigSigner, error) {
	if len(members) == 0 {
		return nil, errors.New("multisig signer needs at least one member")
	}
	return &MultisigSigner{account: account, members: members}, nil
}

func (m *MultisigSigner) Address() common.Address { return m.account }

func (m *MultisigSigner) SignHash(digest []byte) ([]byte, error) {
	var out []byte
	for i, member := range m.members {
		sig, err := member.SignHash(digest)
		if err != nil {
			return nil, fmt.Errorf("failed to sign with member %d (%s): %w", i, member.Address().Hex(), err)
		}
		out = append(out, sig...)
	}
	return out, nil
}

// SignTransaction signs tx with s and returns the wire envelope. A transaction that
// already carries a custom signature is encoded as is.
func SignTransaction(tx *types.Transaction712, s Signer) ([]byte, error) {
	if len(tx.CustomSignature()) > 0 {
		return tx.Encode(nil)
	}
	if tx.From != s.Address() {
		return nil, types.EncodingError("transaction sender %s does not match signer %s", tx.From.Hex(), s.Address().Hex())
	}
	digest, err := eip712.Digest(tx)
	if err != nil {
		return nil, err
	}
	sig, err := s.SignHash(digest.Bytes())
	if err != nil {
		return nil, err
	}
	return tx.Encode(sig)
}

// RecoverSigner returns the externally owned account that produced sig over tx.
func RecoverSigner(tx *types.Transaction712, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, types.EncodingError("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	digest, err := eip712.Digest(tx)
	if err != nil {
		return common.Address{}, err
	}
	raw := common.CopyBytes(sig)
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// TransactOpts returns L1 transaction options that sign through s.
func TransactOpts(s Signer, chainID *big.Int) *bind.TransactOpts {
	txSigner := ethtypes.LatestSignerForChainID(chainID)
	return &bind.TransactOpts{
		From: s.Address(),
		Signer: func(from common.Address, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
			if from != s.Address() {
				return nil, bind.ErrNotAuthorized
			}
			sig, err := s.SignHash(txSigner.Hash(tx).Bytes())
			if err != nil {
				return nil, err
			}
			if len(sig) != crypto.SignatureLength {
				return nil, fmt.Errorf("L1 transactions need a single %d byte signature, got %d", crypto.SignatureLength, len(sig))
			}
			sig[crypto.RecoveryIDOffset] -= 27
			return tx.WithSignature(txSigner, sig)
		},
	}
}
