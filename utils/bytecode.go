package utils

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/zk-bridge-api/types"
)

const (
	// BytecodeHashVersion is the format version stored in the first byte of a bytecode hash.
	BytecodeHashVersion = 1

	// MaxBytecodeWords is the largest code length, in 32-byte words, a bytecode hash can express.
	MaxBytecodeWords = 1<<16 - 1
)

// HashBytecode returns the versioned content hash the network identifies deployable code by:
// byte 0 is the version, byte 1 is reserved, bytes 2-3 hold the length in 32-byte words and
// the rest is the tail of the sha256 digest of the code.
func HashBytecode(bytecode []byte) (common.Hash, error) {
	if len(bytecode)%32 != 0 {
		return common.Hash{}, types.EncodingError("bytecode length %d is not a multiple of 32", len(bytecode))
	}
	words := len(bytecode) / 32
	if words > MaxBytecodeWords {
		return common.Hash{}, types.EncodingError("bytecode length of %d words exceeds %d", words, MaxBytecodeWords)
	}

	hash := common.Hash(sha256.Sum256(bytecode))
	hash[0] = BytecodeHashVersion
	hash[1] = 0
	binary.BigEndian.PutUint16(hash[2:4], uint16(words))
	return hash, nil
}

// BytecodeWords returns the code length in words encoded in a bytecode hash.
func BytecodeWords(hash common.Hash) uint16 {
	return binary.BigEndian.Uint16(hash[2:4])
}

// HashFactoryDeps hashes every dependency, failing on the first invalid one.
func HashFactoryDeps(deps [][]byte) ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, len(deps))
	for i, dep := range deps {
		h, err := HashBytecode(dep)
		if err != nil {
			return nil, types.EncodingError("factory dependency %d: %v", i, err)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}
