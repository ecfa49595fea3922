package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/zk-bridge-api/contracts"
	"github.com/lightlink-network/zk-bridge-api/signer"
	"github.com/lightlink-network/zk-bridge-api/txbuilder"
	"github.com/lightlink-network/zk-bridge-api/types"
	"github.com/lightlink-network/zk-bridge-api/utils"
)

// DeployResult is a confirmed deployment.
type DeployResult struct {
	Address common.Address
	TxHash  common.Hash
	Receipt *types.Receipt
}

type DeployerOpts struct {
	Registry  *contracts.Registry
	Logger    *slog.Logger
	Wait      WaitOpts
	Paymaster *types.PaymasterParams
}

// Deployer deploys contracts on L2 and checks that they land at the address
// computed before sending.
type Deployer struct {
	l2        L2Client
	signer    signer.Signer
	registry  *contracts.Registry
	logger    *slog.Logger
	wait      WaitOpts
	paymaster *types.PaymasterParams
}

func NewDeployer(l2 L2Client, s signer.Signer, opts DeployerOpts) (*Deployer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		reg, err := contracts.NewRegistry()
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}
	return &Deployer{
		l2:        l2,
		signer:    s,
		registry:  opts.Registry,
		logger:    opts.Logger.With("component", "deployer"),
		wait:      opts.Wait,
		paymaster: opts.Paymaster,
	}, nil
}

// Deploy sends a CreateSequential or CreateSalted shape and waits for it. A
// receipt reporting another address than the precomputed one is an
// AddressMismatchError.
func (d *Deployer) Deploy(ctx context.Context, shape txbuilder.Shape) (*DeployResult, error) {
	sender := d.signer.Address()

	var deploymentNonce uint64
	switch shape.(type) {
	case txbuilder.CreateSequential:
		var err error
		if deploymentNonce, err = d.l2.DeploymentNonce(ctx, sender); err != nil {
			return nil, err
		}
	case txbuilder.CreateSalted:
	default:
		return nil, types.EncodingError("%T does not deploy a contract", shape)
	}
	expected, err := txbuilder.ContractAddress(shape, sender, deploymentNonce)
	if err != nil {
		return nil, err
	}

	hash, err := sendL2(ctx, d.l2, d.registry, d.signer, shape, d.paymaster)
	if err != nil {
		return nil, fmt.Errorf("failed to send deployment: %w", err)
	}
	d.logger.Info("Deployment sent", "txHash", hash.Hex(), "expected", expected.Hex())

	receipt, err := WaitForL2Receipt(ctx, d.l2, hash, d.wait)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, types.RemoteError("deploy", fmt.Errorf("deployment %s reverted", hash.Hex()))
	}

	actual, err := DeployedAddress(d.registry, receipt, sender)
	if err != nil {
		return nil, err
	}
	if actual != expected {
		d.logger.Error("Deployed address mismatch", "txHash", hash.Hex(), "expected", expected.Hex(), "actual", actual.Hex())
		return nil, &types.AddressMismatchError{Expected: expected, Actual: actual}
	}
	return &DeployResult{Address: actual, TxHash: hash, Receipt: receipt}, nil
}

// DeployedAddress returns the contract deployed by sender in receipt. Contracts
// deployed by constructors are emitted first, so the last event wins.
func DeployedAddress(reg *contracts.Registry, receipt *types.Receipt, sender common.Address) (common.Address, error) {
	deployed := reg.ContractDeployer.Events["ContractDeployed"]
	var address common.Address
	found := false
	for _, log := range receipt.Logs {
		if log.Address != utils.ContractDeployerAddress || len(log.Topics) != 4 || log.Topics[0] != deployed.ID {
			continue
		}
		if common.BytesToAddress(log.Topics[1].Bytes()) != sender {
			continue
		}
		address = common.BytesToAddress(log.Topics[3].Bytes())
		found = true
	}
	if !found {
		return common.Address{}, fmt.Errorf("no ContractDeployed event for %s in %s", sender.Hex(), receipt.TxHash.Hex())
	}
	return address, nil
}
