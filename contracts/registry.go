// Package contracts holds the ABIs of the rollup system contracts and bridges
// used by the client. ABIs are parsed once into a Registry which callers own
// and pass to whatever needs to pack calldata or decode logs.
package contracts

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/*.json
var abiFiles embed.FS

// Registry is a set of parsed contract ABIs. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	ContractDeployer abi.ABI
	ERC20            abi.ABI
	L1Bridge         abi.ABI
	L2Bridge         abi.ABI
	Mailbox          abi.ABI
	L1Messenger      abi.ABI
	EthToken         abi.ABI
	PaymasterFlow    abi.ABI
	NonceHolder      abi.ABI
}

// NewRegistry parses every embedded ABI.
func NewRegistry() (*Registry, error) {
	r := &Registry{}

	targets := []struct {
		file string
		dst  *abi.ABI
	}{
		{"ContractDeployer.json", &r.ContractDeployer},
		{"IERC20.json", &r.ERC20},
		{"IL1Bridge.json", &r.L1Bridge},
		{"IL2Bridge.json", &r.L2Bridge},
		{"IMailbox.json", &r.Mailbox},
		{"IL1Messenger.json", &r.L1Messenger},
		{"IEthToken.json", &r.EthToken},
		{"IPaymasterFlow.json", &r.PaymasterFlow},
		{"INonceHolder.json", &r.NonceHolder},
	}

	for _, t := range targets {
		raw, err := abiFiles.ReadFile("abi/" + t.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read abi %s: %w", t.file, err)
		}
		parsed, err := abi.JSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse abi %s: %w", t.file, err)
		}
		*t.dst = parsed
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. The embedded ABIs
// are fixed at build time so this only fails on a broken build.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}
