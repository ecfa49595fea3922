package utils

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CodeReader is satisfied by ethclient.Client.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// IsContract reports whether code is deployed at address.
func IsContract(client CodeReader, address common.Address) (bool, error) {
	code, err := client.CodeAt(context.Background(), address, nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}
