package amm

import (
	"fmt"
	"math/big"
)

var (
	bpsDivisor = big.NewInt(10_000)
	hundred    = big.NewRat(100, 1)
)

// Fee is a proportional swap fee expressed as Numerator/Denominator.
type Fee struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFee is the 0.3% fee charged by the pools.
var DefaultFee = Fee{Numerator: 3, Denominator: 1000}

func (f Fee) Validate() error {
	if f.Denominator == 0 || f.Numerator >= f.Denominator {
		return fmt.Errorf("%w: %d/%d", ErrInvalidFee, f.Numerator, f.Denominator)
	}
	return nil
}

// Percent returns the fee rate as a percentage, for display.
func (f Fee) Percent() float64 {
	if f.Denominator == 0 {
		return 0
	}
	return float64(f.Numerator) * 100 / float64(f.Denominator)
}

// Of returns the fee charged on amount, rounded down.
func (f Fee) Of(amount *big.Int) *big.Int {
	if amount == nil || f.Denominator == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(f.Numerator))
	return fee.Div(fee, new(big.Int).SetUint64(f.Denominator))
}

// QuoteOutput is the no-fee constant-product output: floor(reserveOut*in/(reserveIn+in)).
func QuoteOutput(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return big.NewInt(0)
	}
	denominator := new(big.Int).Add(reserveIn, amountIn)
	if denominator.Sign() <= 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(reserveOut, amountIn)
	return numerator.Div(numerator, denominator)
}

// AmountOut is the fee-inclusive constant-product output. The fee is deducted
// from the input before pricing; the computation stays in integers:
// floor(reserveOut*in*(D-N) / (reserveIn*D + in*(D-N))).
func AmountOut(amountIn, reserveIn, reserveOut *big.Int, fee Fee) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("%w: empty reserve", ErrInvalidState)
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}

	keep := new(big.Int).SetUint64(fee.Denominator - fee.Numerator)
	amountInWithFee := new(big.Int).Mul(amountIn, keep)
	numerator := new(big.Int).Mul(reserveOut, amountInWithFee)
	denominator := new(big.Int).Mul(reserveIn, new(big.Int).SetUint64(fee.Denominator))
	denominator.Add(denominator, amountInWithFee)
	return numerator.Div(numerator, denominator), nil
}

// Counterpart returns amountIn*reserveOther/reserveSame, the deposit that keeps the ratio.
func Counterpart(amountIn, reserveSame, reserveOther *big.Int) (*big.Int, error) {
	if reserveSame == nil || reserveOther == nil || reserveSame.Sign() <= 0 || reserveOther.Sign() <= 0 {
		return nil, fmt.Errorf("%w: empty reserve", ErrInvalidState)
	}
	if amountIn == nil || amountIn.Sign() < 0 {
		return nil, ErrZeroAmount
	}
	out := new(big.Int).Mul(amountIn, reserveOther)
	return out.Div(out, reserveSame), nil
}

// SlippagePercent compares the realized price out/in with the pre-trade spot
// price reserveOut/reserveIn: (realized-expected)/expected*100.
func SlippagePercent(amountIn, amountOut, reserveIn, reserveOut *big.Int) float64 {
	if amountIn == nil || amountIn.Sign() <= 0 || reserveOut == nil || reserveOut.Sign() <= 0 || reserveIn == nil || amountOut == nil {
		return 0
	}
	// realized/expected = out*reserveIn / (in*reserveOut)
	num := new(big.Int).Mul(amountOut, reserveIn)
	den := new(big.Int).Mul(amountIn, reserveOut)
	ratio := new(big.Rat).SetFrac(num, den)
	ratio.Sub(ratio, big.NewRat(1, 1))
	ratio.Mul(ratio, hundred)
	f, _ := ratio.Float64()
	return f
}

// TradeLotPercent returns amountIn as a percentage of the input reserve.
func TradeLotPercent(amountIn, reserveIn *big.Int) float64 {
	if amountIn == nil || reserveIn == nil || reserveIn.Sign() <= 0 {
		return 0
	}
	frac := new(big.Rat).SetFrac(amountIn, reserveIn)
	frac.Mul(frac, hundred)
	f, _ := frac.Float64()
	return f
}

// Ratio returns num/den as float64, or 0 when den is zero.
func Ratio(num, den *big.Int) float64 {
	if num == nil || den == nil || den.Sign() == 0 {
		return 0
	}
	f, _ := new(big.Rat).SetFrac(num, den).Float64()
	return f
}

func absDiff(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Abs(d)
}
