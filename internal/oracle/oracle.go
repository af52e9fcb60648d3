package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/model"
)

// ErrStateMismatch is returned when the contract disagrees with local state.
var ErrStateMismatch = errors.New("pool state mismatch")

// ContractCaller is the read-only subset of the chain client the oracle needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// State is the pool state as reported by the contract.
type State struct {
	ReserveA *big.Int
	ReserveB *big.Int
	TVL      *big.Int
}

// Config tunes RPC retries.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DEXOracle reads a deployed constant-product DEX and checks local pool
// snapshots against it.
type DEXOracle struct {
	caller  ContractCaller
	address common.Address
	cfg     Config
	logger  *zap.Logger
}

func NewDEXOracle(caller ContractCaller, address common.Address, cfg Config, logger *zap.Logger) (*DEXOracle, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("dex address is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DEXOracle{caller: caller, address: address, cfg: cfg, logger: logger}, nil
}

// State reads spotPrice() and getTVL() at the latest block.
func (o *DEXOracle) State(ctx context.Context) (State, error) {
	reserves, err := o.call(ctx, "spotPrice", 2)
	if err != nil {
		return State{}, err
	}
	tvl, err := o.call(ctx, "getTVL", 1)
	if err != nil {
		return State{}, err
	}
	return State{ReserveA: reserves[0], ReserveB: reserves[1], TVL: tvl[0]}, nil
}

// Verify compares a local snapshot with the contract's reserves and TVL.
func (o *DEXOracle) Verify(ctx context.Context, snap amm.Snapshot) error {
	state, err := o.State(ctx)
	if err != nil {
		return err
	}
	var mismatches []string
	if state.ReserveA.Cmp(snap.ReserveA) != 0 {
		mismatches = append(mismatches, fmt.Sprintf("reserveA local=%s remote=%s", model.FromWei(snap.ReserveA), model.FromWei(state.ReserveA)))
	}
	if state.ReserveB.Cmp(snap.ReserveB) != 0 {
		mismatches = append(mismatches, fmt.Sprintf("reserveB local=%s remote=%s", model.FromWei(snap.ReserveB), model.FromWei(state.ReserveB)))
	}
	if tvl := snap.TVL(); state.TVL.Cmp(tvl) != 0 {
		mismatches = append(mismatches, fmt.Sprintf("tvl local=%s remote=%s", model.FromWei(tvl), model.FromWei(state.TVL)))
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %s: %v", ErrStateMismatch, snap.Name, mismatches)
	}
	return nil
}

func (o *DEXOracle) call(ctx context.Context, method string, outputs int) ([]*big.Int, error) {
	dex, err := getDEXABI()
	if err != nil {
		return nil, err
	}
	data, err := dex.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	var resp []byte
	msg := ethereum.CallMsg{To: &o.address, Data: data}
	err = o.withRetry(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = o.caller.CallContract(ctx, msg, nil)
		if callErr != nil {
			o.logger.Debug("dex call failed", zap.String("method", method), zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := dex.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != outputs {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	out := make([]*big.Int, len(values))
	for i, v := range values {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("%s unexpected type %T", method, v)
		}
		out[i] = n
	}
	return out, nil
}

// withRetry retries fn with exponential backoff until it succeeds, the
// retries run out or ctx is done.
func (o *DEXOracle) withRetry(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := o.cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := o.cfg.RetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = delay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		return fn(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))
}
