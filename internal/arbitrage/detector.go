package arbitrage

import (
	"fmt"
	"math/big"

	"ammScope/internal/amm"
	"ammScope/internal/model"
)

// Order names the pool visited first in a round trip.
type Order string

const (
	Pool1First Order = "pool1_first"
	Pool2First Order = "pool2_first"
)

// Hop is one swap of a simulated round trip.
type Hop struct {
	Pool      string
	Direction model.Direction
	AmountIn  *big.Int
	AmountOut *big.Int
}

// Opportunity is the outcome of a detection. Found is false when no round
// trip clears the minimum profit; that is a normal result, not an error.
type Opportunity struct {
	Found      bool
	Order      Order
	StartAsset model.Asset
	Principal  *big.Int
	Final      *big.Int
	Profit     *big.Int
	Hops       []Hop
}

// Detect looks for a profitable two-hop round trip of principal between two
// pools trading the same pair. Both snapshots are read only.
//
// With ratio = reserveA/reserveB, the pool with the higher ratio sells B
// dearer, so A is swapped into B on the other pool and back on that one.
// When the A round trip misses minProfit the mirrored B round trip is tried.
// A round trip is found only when its profit is strictly positive and at
// least minProfit, so a break-even trip is not reported even with a zero
// minProfit.
func Detect(p1, p2 amm.Snapshot, principal, minProfit *big.Int) (Opportunity, error) {
	if principal == nil || principal.Sign() <= 0 {
		return Opportunity{}, fmt.Errorf("principal: %w", amm.ErrZeroAmount)
	}
	if minProfit == nil {
		minProfit = new(big.Int)
	}
	if !hasLiquidity(p1) || !hasLiquidity(p2) {
		return Opportunity{Principal: new(big.Int).Set(principal)}, nil
	}

	// ratio1 ? ratio2  <=>  A1*B2 ? A2*B1
	lhs := new(big.Int).Mul(p1.ReserveA, p2.ReserveB)
	rhs := new(big.Int).Mul(p2.ReserveA, p1.ReserveB)
	cmp := lhs.Cmp(rhs)
	if cmp == 0 {
		return Opportunity{Principal: new(big.Int).Set(principal)}, nil
	}

	// A->B on the pool where B is cheap, then B->A where it is dear.
	cheapB, dearB, order := p2, p1, Pool2First
	if cmp < 0 {
		cheapB, dearB, order = p1, p2, Pool1First
	}

	opp, err := roundTrip(cheapB, dearB, model.AForB, principal)
	if err != nil {
		return Opportunity{}, err
	}
	opp.Order = order
	if clears(opp.Profit, minProfit) {
		opp.Found = true
		return opp, nil
	}
	best := opp

	// B->A where A is cheap (the B-dear pool), then A->B on the other one.
	mirrored := Pool1First
	if order == Pool1First {
		mirrored = Pool2First
	}
	opp, err = roundTrip(dearB, cheapB, model.BForA, principal)
	if err != nil {
		return Opportunity{}, err
	}
	opp.Order = mirrored
	if clears(opp.Profit, minProfit) {
		opp.Found = true
		return opp, nil
	}
	return best, nil
}

func roundTrip(first, second amm.Snapshot, dir model.Direction, principal *big.Int) (Opportunity, error) {
	mid, _, err := first.Apply(dir, principal)
	if err != nil {
		return Opportunity{}, fmt.Errorf("first hop: %w", err)
	}
	if mid.Sign() == 0 {
		return Opportunity{
			StartAsset: dir.Input(),
			Principal:  new(big.Int).Set(principal),
			Final:      new(big.Int),
			Profit:     new(big.Int).Neg(principal),
		}, nil
	}
	final, _, err := second.Apply(dir.Reverse(), mid)
	if err != nil {
		return Opportunity{}, fmt.Errorf("second hop: %w", err)
	}
	return Opportunity{
		StartAsset: dir.Input(),
		Principal:  new(big.Int).Set(principal),
		Final:      final,
		Profit:     new(big.Int).Sub(final, principal),
		Hops: []Hop{
			{Pool: first.Name, Direction: dir, AmountIn: new(big.Int).Set(principal), AmountOut: mid},
			{Pool: second.Name, Direction: dir.Reverse(), AmountIn: new(big.Int).Set(mid), AmountOut: final},
		},
	}, nil
}

func clears(profit, minProfit *big.Int) bool {
	return profit != nil && profit.Sign() > 0 && profit.Cmp(minProfit) >= 0
}

func hasLiquidity(s amm.Snapshot) bool {
	return s.ReserveA != nil && s.ReserveB != nil && s.ReserveA.Sign() > 0 && s.ReserveB.Sign() > 0
}
