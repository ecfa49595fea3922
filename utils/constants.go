package utils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// System contract addresses on L2.
var (
	BootloaderFormalAddress = common.HexToAddress("0x0000000000000000000000000000000000008001")
	NonceHolderAddress      = common.HexToAddress("0x0000000000000000000000000000000000008003")
	ContractDeployerAddress = common.HexToAddress("0x0000000000000000000000000000000000008006")
	L1MessengerAddress      = common.HexToAddress("0x0000000000000000000000000000000000008008")
	L2EthTokenAddress       = common.HexToAddress("0x000000000000000000000000000000000000800a")
)

// L1ToL2AliasOffset is added to L1 contract addresses that send priority operations.
var L1ToL2AliasOffset = common.HexToAddress("0x1111000000000000000000000000000000001111")

// RequiredL1ToL2GasPerPubdataLimit is the gas per pubdata byte limit priority operations must carry.
var RequiredL1ToL2GasPerPubdataLimit = big.NewInt(800)

// Domain separation prefixes of the L2 deployer.
var (
	CreatePrefix  = crypto.Keccak256Hash([]byte("zksyncCreate"))
	Create2Prefix = crypto.Keccak256Hash([]byte("zksyncCreate2"))
)
