package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/ledger"
	"ammScope/internal/model"
)

// Pool is a constant-product market maker for assets A and B.
// Its reserves are held by the pool's own ledger account, and liquidity
// shares are a pool-specific ledger asset. A Pool is driven by a single
// caller and is not safe for concurrent use.
type Pool struct {
	name        string
	address     common.Address
	shareAsset  model.Asset
	fee         Fee
	ledger      *ledger.Ledger
	reserveA    *big.Int
	reserveB    *big.Int
	totalShares *big.Int
}

// SwapResult describes a settled swap.
type SwapResult struct {
	Direction  model.Direction
	AmountIn   *big.Int
	AmountOut  *big.Int
	FeePaid    *big.Int
	ReserveIn  *big.Int
	ReserveOut *big.Int
}

// Slippage returns the realized slippage percentage against the pre-trade spot price.
func (r SwapResult) Slippage() float64 {
	return SlippagePercent(r.AmountIn, r.AmountOut, r.ReserveIn, r.ReserveOut)
}

// TradeLotFraction returns the swap size as a percentage of the pre-trade input reserve.
func (r SwapResult) TradeLotFraction() float64 {
	return TradeLotPercent(r.AmountIn, r.ReserveIn)
}

// NewPool creates an empty pool settling through l.
func NewPool(name string, l *ledger.Ledger, fee Fee) (*Pool, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is nil")
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	return &Pool{
		name:        name,
		address:     model.AddressFor("pool:" + name),
		shareAsset:  model.ShareAsset(name),
		fee:         fee,
		ledger:      l,
		reserveA:    new(big.Int),
		reserveB:    new(big.Int),
		totalShares: new(big.Int),
	}, nil
}

// Name returns the pool name.
func (p *Pool) Name() string { return p.name }

// Address returns the ledger account holding the reserves.
func (p *Pool) Address() common.Address { return p.address }

// ShareAsset returns the ledger asset of the pool's liquidity shares.
func (p *Pool) ShareAsset() model.Asset { return p.shareAsset }

func (p *Pool) Fee() Fee { return p.fee }

func (p *Pool) TotalShares() *big.Int { return new(big.Int).Set(p.totalShares) }

// SharesOf returns the liquidity share balance of account.
func (p *Pool) SharesOf(account common.Address) *big.Int {
	return p.ledger.BalanceOf(account, p.shareAsset)
}

// SpotPrice returns copies of the reserves; the B/A price is reserveB/reserveA.
func (p *Pool) SpotPrice() (*big.Int, *big.Int) {
	return new(big.Int).Set(p.reserveA), new(big.Int).Set(p.reserveB)
}

// Price returns reserveB/reserveA, or 0 for an empty pool.
func (p *Pool) Price() float64 {
	return Ratio(p.reserveB, p.reserveA)
}

// TVL sums both reserves without price weighting.
func (p *Pool) TVL() *big.Int {
	return new(big.Int).Add(p.reserveA, p.reserveB)
}

// Snapshot returns an immutable copy of the pool state.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		Name:        p.name,
		ReserveA:    new(big.Int).Set(p.reserveA),
		ReserveB:    new(big.Int).Set(p.reserveB),
		TotalShares: new(big.Int).Set(p.totalShares),
		Fee:         p.fee,
	}
}

// SwapAForB sells amount of A for B.
func (p *Pool) SwapAForB(trader common.Address, amount *big.Int) (SwapResult, error) {
	return p.Swap(trader, model.AForB, amount)
}

// SwapBForA sells amount of B for A.
func (p *Pool) SwapBForA(trader common.Address, amount *big.Int) (SwapResult, error) {
	return p.Swap(trader, model.BForA, amount)
}

// Swap sells amount of the direction's input asset. The full amount is
// credited to the input reserve, so the fee stays in the pool.
func (p *Pool) Swap(trader common.Address, dir model.Direction, amount *big.Int) (SwapResult, error) {
	if amount == nil || amount.Sign() <= 0 {
		return SwapResult{}, fmt.Errorf("swap %s: %w", dir, ErrZeroAmount)
	}
	reserveIn, reserveOut := p.reserves(dir)
	out, err := AmountOut(amount, reserveIn, reserveOut, p.fee)
	if err != nil {
		return SwapResult{}, fmt.Errorf("swap %s: %w", dir, err)
	}

	if err := p.ledger.Transfer(trader, p.address, dir.Input(), amount); err != nil {
		return SwapResult{}, fmt.Errorf("swap %s: %w", dir, err)
	}
	if err := p.ledger.Transfer(p.address, trader, dir.Output(), out); err != nil {
		return SwapResult{}, fmt.Errorf("swap %s payout: %w", dir, err)
	}

	result := SwapResult{
		Direction:  dir,
		AmountIn:   new(big.Int).Set(amount),
		AmountOut:  out,
		FeePaid:    p.fee.Of(amount),
		ReserveIn:  new(big.Int).Set(reserveIn),
		ReserveOut: new(big.Int).Set(reserveOut),
	}
	reserveIn.Add(reserveIn, amount)
	reserveOut.Sub(reserveOut, out)
	return result, nil
}

// RequiredCounterpart returns the amount of the other asset that keeps the
// current reserve ratio for a deposit of amountIn of side.
func (p *Pool) RequiredCounterpart(amountIn *big.Int, side model.Asset) (*big.Int, error) {
	switch side {
	case model.AssetA:
		return Counterpart(amountIn, p.reserveA, p.reserveB)
	case model.AssetB:
		return Counterpart(amountIn, p.reserveB, p.reserveA)
	default:
		return nil, fmt.Errorf("%w: unknown asset %s", ErrInvalidState, side)
	}
}

// AddLiquidity deposits amountA and amountB and mints shares to provider.
// The first deposit mints shares 1:1 with amountA. Later deposits must match
// the reserve ratio within toleranceBps basis points (one wei of rounding is
// always accepted) and mint totalShares*amountA/reserveA.
func (p *Pool) AddLiquidity(provider common.Address, amountA, amountB *big.Int, toleranceBps uint64) (*big.Int, error) {
	if amountA == nil || amountB == nil || amountA.Sign() <= 0 || amountB.Sign() <= 0 {
		return nil, fmt.Errorf("add liquidity: %w", ErrZeroAmount)
	}

	var minted *big.Int
	if p.totalShares.Sign() == 0 {
		if p.reserveA.Sign() != 0 || p.reserveB.Sign() != 0 {
			return nil, fmt.Errorf("add liquidity: %w: reserves without shares", ErrInvalidState)
		}
		minted = new(big.Int).Set(amountA)
	} else {
		required, err := Counterpart(amountA, p.reserveA, p.reserveB)
		if err != nil {
			return nil, fmt.Errorf("add liquidity: %w", err)
		}
		diff := absDiff(amountB, required)
		if diff.Cmp(big.NewInt(1)) > 0 {
			lhs := new(big.Int).Mul(diff, bpsDivisor)
			rhs := new(big.Int).Mul(required, new(big.Int).SetUint64(toleranceBps))
			if lhs.Cmp(rhs) > 0 {
				return nil, fmt.Errorf("add liquidity: %w: got %s B for %s A, want %s", ErrRatioMismatch, amountB, amountA, required)
			}
		}
		minted = new(big.Int).Mul(p.totalShares, amountA)
		minted.Div(minted, p.reserveA)
		if minted.Sign() == 0 {
			return nil, fmt.Errorf("add liquidity: %w: deposit mints no shares", ErrZeroAmount)
		}
	}

	if err := p.checkBalance(provider, model.AssetA, amountA); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	if err := p.checkBalance(provider, model.AssetB, amountB); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	if err := p.ledger.Transfer(provider, p.address, model.AssetA, amountA); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	if err := p.ledger.Transfer(provider, p.address, model.AssetB, amountB); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	if err := p.ledger.Mint(provider, p.shareAsset, minted); err != nil {
		return nil, fmt.Errorf("add liquidity: %w", err)
	}

	p.reserveA.Add(p.reserveA, amountA)
	p.reserveB.Add(p.reserveB, amountB)
	p.totalShares.Add(p.totalShares, minted)
	return minted, nil
}

// RemoveLiquidity burns shares from provider and pays out the proportional reserves.
func (p *Pool) RemoveLiquidity(provider common.Address, shares *big.Int) (*big.Int, *big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w", ErrZeroAmount)
	}
	held := p.ledger.BalanceOf(provider, p.shareAsset)
	if held.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w: holds %s, burn %s", ledger.ErrInsufficientShares, held, shares)
	}
	if p.totalShares.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("remove liquidity: %w: burn %s of %s total shares", ErrInvalidState, shares, p.totalShares)
	}

	amountA := new(big.Int).Mul(p.reserveA, shares)
	amountA.Div(amountA, p.totalShares)
	amountB := new(big.Int).Mul(p.reserveB, shares)
	amountB.Div(amountB, p.totalShares)

	if err := p.ledger.Burn(provider, p.shareAsset, shares); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}
	if err := p.ledger.Transfer(p.address, provider, model.AssetA, amountA); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}
	if err := p.ledger.Transfer(p.address, provider, model.AssetB, amountB); err != nil {
		return nil, nil, fmt.Errorf("remove liquidity: %w", err)
	}

	p.reserveA.Sub(p.reserveA, amountA)
	p.reserveB.Sub(p.reserveB, amountB)
	p.totalShares.Sub(p.totalShares, shares)
	return amountA, amountB, nil
}

func (p *Pool) reserves(dir model.Direction) (*big.Int, *big.Int) {
	if dir == model.BForA {
		return p.reserveB, p.reserveA
	}
	return p.reserveA, p.reserveB
}

func (p *Pool) checkBalance(account common.Address, asset model.Asset, amount *big.Int) error {
	bal := p.ledger.BalanceOf(account, asset)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ledger.ErrInsufficientBalance, account.Hex(), bal, asset, amount)
	}
	return nil
}
