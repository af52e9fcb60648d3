package amm

import (
	"fmt"
	"math/big"

	"ammScope/internal/model"
)

// Snapshot is a value copy of pool state. Its methods never mutate it.
type Snapshot struct {
	Name        string
	ReserveA    *big.Int
	ReserveB    *big.Int
	TotalShares *big.Int
	Fee         Fee
}

// Reserves returns (reserveIn, reserveOut) for a swap direction.
func (s Snapshot) Reserves(dir model.Direction) (*big.Int, *big.Int) {
	if dir == model.BForA {
		return s.ReserveB, s.ReserveA
	}
	return s.ReserveA, s.ReserveB
}

// AmountOut prices a swap against the snapshot with the pool fee.
func (s Snapshot) AmountOut(dir model.Direction, amountIn *big.Int) (*big.Int, error) {
	reserveIn, reserveOut := s.Reserves(dir)
	return AmountOut(amountIn, reserveIn, reserveOut, s.Fee)
}

// Apply returns the output of a swap and the snapshot it would leave behind.
func (s Snapshot) Apply(dir model.Direction, amountIn *big.Int) (*big.Int, Snapshot, error) {
	out, err := s.AmountOut(dir, amountIn)
	if err != nil {
		return nil, Snapshot{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	next := Snapshot{
		Name:        s.Name,
		ReserveA:    new(big.Int).Set(s.ReserveA),
		ReserveB:    new(big.Int).Set(s.ReserveB),
		TotalShares: copyOrZero(s.TotalShares),
		Fee:         s.Fee,
	}
	in, outReserve := next.Reserves(dir)
	in.Add(in, amountIn)
	outReserve.Sub(outReserve, out)
	return out, next, nil
}

// Price returns reserveB/reserveA, or 0 for an empty pool.
func (s Snapshot) Price() float64 {
	return Ratio(s.ReserveB, s.ReserveA)
}

// TVL sums both reserves without price weighting.
func (s Snapshot) TVL() *big.Int {
	return new(big.Int).Add(copyOrZero(s.ReserveA), copyOrZero(s.ReserveB))
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
