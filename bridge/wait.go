package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/lightlink-network/zk-bridge-api/types"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTimeout      = 2 * time.Minute
)

// WaitOpts bound a receipt wait. Zero values take the defaults.
type WaitOpts struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

func (o WaitOpts) withDefaults() WaitOpts {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

var errNotFinalized = errors.New("block not finalized")

// poll calls fetch until it returns something other than "not yet". Any other
// error ends the wait immediately. Running out of time yields ErrTimeout.
func poll[T any](ctx context.Context, opts WaitOpts, what string, fetch func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()
	pollCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var result T
	err := retry.Do(
		func() error {
			var err error
			result, err = fetch(pollCtx)
			return err
		},
		retry.Context(pollCtx),
		retry.Attempts(0),
		retry.Delay(opts.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, geth.NotFound) || errors.Is(err, errNotFinalized)
		}),
	)
	if err != nil {
		var zero T
		if pollCtx.Err() != nil && ctx.Err() == nil {
			return zero, fmt.Errorf("%w: %s after %s", types.ErrTimeout, what, opts.Timeout)
		}
		return zero, err
	}
	return result, nil
}

// WaitForL1Receipt blocks until the L1 transaction is included.
func WaitForL1Receipt(ctx context.Context, l1 L1Client, txHash common.Hash, opts WaitOpts) (*ethtypes.Receipt, error) {
	return poll(ctx, opts, "L1 receipt "+txHash.Hex(), func(ctx context.Context) (*ethtypes.Receipt, error) {
		return l1.TransactionReceipt(ctx, txHash)
	})
}

// WaitForL2Receipt blocks until the L2 transaction is included in a block.
func WaitForL2Receipt(ctx context.Context, l2 L2Client, txHash common.Hash, opts WaitOpts) (*types.Receipt, error) {
	return poll(ctx, opts, "L2 receipt "+txHash.Hex(), func(ctx context.Context) (*types.Receipt, error) {
		receipt, err := l2.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt.BlockNumber == nil {
			return nil, geth.NotFound
		}
		return receipt, nil
	})
}

// WaitFinalized blocks until the L2 transaction is included in a block whose
// batch has been executed on L1.
func WaitFinalized(ctx context.Context, l2 L2Client, txHash common.Hash, opts WaitOpts) (*types.Receipt, error) {
	return poll(ctx, opts, "finalized L2 receipt "+txHash.Hex(), func(ctx context.Context) (*types.Receipt, error) {
		receipt, err := l2.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt.BlockNumber == nil {
			return nil, geth.NotFound
		}
		finalized, err := l2.FinalizedBlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		if receipt.BlockNumber.Uint64() > finalized {
			return nil, errNotFinalized
		}
		return receipt, nil
	})
}
