package metrics

import (
	"math/big"

	"ammScope/internal/model"
)

// Accumulator holds cumulative swap volume and fees for a run.
type Accumulator struct {
	SwapCount uint64
	VolumeA   *big.Int
	VolumeB   *big.Int
	FeeA      *big.Int
	FeeB      *big.Int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		VolumeA: big.NewInt(0),
		VolumeB: big.NewInt(0),
		FeeA:    big.NewInt(0),
		FeeB:    big.NewInt(0),
	}
}

// AddSwap books a swap's input amount and the fee charged on it.
func (a *Accumulator) AddSwap(dir model.Direction, amountIn, fee *big.Int) {
	volume, fees := a.VolumeA, a.FeeA
	if dir == model.BForA {
		volume, fees = a.VolumeB, a.FeeB
	}
	absAdd(volume, amountIn)
	absAdd(fees, fee)
	a.SwapCount++
}

// TotalFees sums the fees of both assets, the unweighted figure the reports use.
func (a *Accumulator) TotalFees() *big.Int {
	return new(big.Int).Add(a.FeeA, a.FeeB)
}

// Totals returns an immutable copy of the accumulated figures.
func (a *Accumulator) Totals() Totals {
	return Totals{
		SwapCount: a.SwapCount,
		VolumeA:   new(big.Int).Set(a.VolumeA),
		VolumeB:   new(big.Int).Set(a.VolumeB),
		FeeA:      new(big.Int).Set(a.FeeA),
		FeeB:      new(big.Int).Set(a.FeeB),
		Fees:      a.TotalFees(),
	}
}

// Totals is the cumulative summary of a run.
type Totals struct {
	SwapCount uint64
	VolumeA   *big.Int
	VolumeB   *big.Int
	FeeA      *big.Int
	FeeB      *big.Int
	Fees      *big.Int
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	abs := new(big.Int).Abs(value)
	target.Add(target, abs)
}
