package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CallMsg is the call object accepted by the rollup node's estimation and call methods.
type CallMsg struct {
	From      common.Address
	To        *common.Address
	Gas       uint64
	GasFeeCap *big.Int
	GasTipCap *big.Int
	Value     *big.Int
	Data      []byte
	Meta      *Eip712Meta
}

type callMsgJSON struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value,omitempty"`
	Data                 hexutil.Bytes   `json:"data"`
	Type                 hexutil.Uint64  `json:"type,omitempty"`
	Meta                 *metaJSON       `json:"eip712Meta,omitempty"`
}

type metaJSON struct {
	GasPerPubdata   *hexutil.Big     `json:"gasPerPubdata,omitempty"`
	CustomSignature hexutil.Bytes    `json:"customSignature,omitempty"`
	FactoryDeps     []hexutil.Bytes  `json:"factoryDeps"`
	PaymasterParams *PaymasterParams `json:"paymasterParams,omitempty"`
}

// MarshalJSON encodes the message with hex quantities. Messages carrying rollup
// fields are sent as type 0x71.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	enc := callMsgJSON{
		From:                 m.From,
		To:                   m.To,
		Gas:                  hexutil.Uint64(m.Gas),
		MaxFeePerGas:         (*hexutil.Big)(m.GasFeeCap),
		MaxPriorityFeePerGas: (*hexutil.Big)(m.GasTipCap),
		Value:                (*hexutil.Big)(m.Value),
		Data:                 m.Data,
	}
	if m.Meta != nil {
		deps := m.Meta.FactoryDeps
		if deps == nil {
			deps = []hexutil.Bytes{}
		}
		enc.Type = EIP712TxType
		enc.Meta = &metaJSON{
			GasPerPubdata:   (*hexutil.Big)(m.Meta.GasPerPubdata),
			CustomSignature: m.Meta.CustomSignature,
			FactoryDeps:     deps,
			PaymasterParams: m.Meta.PaymasterParams,
		}
	}
	return json.Marshal(enc)
}

// CallMsg returns the estimation call object for tx.
func (tx *Transaction712) CallMsg() CallMsg {
	to := tx.To
	meta := &Eip712Meta{GasPerPubdata: tx.GasPerPubdata()}
	if tx.Meta != nil {
		meta.CustomSignature = tx.Meta.CustomSignature
		meta.FactoryDeps = tx.Meta.FactoryDeps
		meta.PaymasterParams = tx.Meta.PaymasterParams
	}
	return CallMsg{
		From:      tx.From,
		To:        &to,
		GasFeeCap: tx.GasFeeCap,
		GasTipCap: tx.GasTipCap,
		Value:     tx.Value,
		Data:      tx.Data,
		Meta:      meta,
	}
}
