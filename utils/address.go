package utils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lightlink-network/zk-bridge-api/types"
)

// CreateAddress computes the address the L2 deployer assigns to a contract created by
// sender with the given deployment nonce.
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	digest := crypto.Keccak256(
		CreatePrefix.Bytes(),
		common.LeftPadBytes(sender.Bytes(), 32),
		math.U256Bytes(new(big.Int).SetUint64(nonce)),
	)
	return common.BytesToAddress(digest[12:])
}

// Create2Address computes the address the L2 deployer assigns to bytecode deployed by
// sender with salt and constructor input.
func Create2Address(sender common.Address, bytecode, constructorInput, salt []byte) (common.Address, error) {
	if len(salt) != 32 {
		return common.Address{}, types.EncodingError("salt must be 32 bytes, got %d", len(salt))
	}
	bytecodeHash, err := HashBytecode(bytecode)
	if err != nil {
		return common.Address{}, err
	}
	digest := crypto.Keccak256(
		Create2Prefix.Bytes(),
		common.LeftPadBytes(sender.Bytes(), 32),
		salt,
		bytecodeHash.Bytes(),
		crypto.Keccak256(constructorInput),
	)
	return common.BytesToAddress(digest[12:]), nil
}

var addressModulus = new(big.Int).Lsh(big.NewInt(1), 160)

// ApplyL1ToL2Alias returns the L2 address an L1 contract appears as when it sends a priority operation.
func ApplyL1ToL2Alias(address common.Address) common.Address {
	sum := new(big.Int).Add(address.Big(), L1ToL2AliasOffset.Big())
	return common.BigToAddress(sum.Mod(sum, addressModulus))
}

// UndoL1ToL2Alias reverses ApplyL1ToL2Alias.
func UndoL1ToL2Alias(address common.Address) common.Address {
	diff := new(big.Int).Sub(address.Big(), L1ToL2AliasOffset.Big())
	return common.BigToAddress(diff.Mod(diff, addressModulus))
}
