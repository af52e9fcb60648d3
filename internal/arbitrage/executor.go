package arbitrage

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/ledger"
	"ammScope/internal/model"
)

// Settlement reports an executed (or skipped) arbitrage for one account.
type Settlement struct {
	Opportunity Opportunity
	Executed    bool
	DeltaA      *big.Int
	DeltaB      *big.Int
	// Found follows the settlement check deltaA+deltaB != 0, which sums
	// amounts of two different assets.
	Found bool
}

// Executor settles detected opportunities through live pools.
type Executor struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewExecutor(l *ledger.Ledger, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{ledger: l, logger: logger}
}

// Execute detects on the pools' current state and, when an opportunity is
// found, trades it for account. Both hops are priced again at execution;
// a failed hop returns the error with the first hop already settled.
func (e *Executor) Execute(account common.Address, pool1, pool2 *amm.Pool, principal, minProfit *big.Int) (Settlement, error) {
	if e.ledger == nil {
		return Settlement{}, fmt.Errorf("ledger is nil")
	}
	if pool1 == nil || pool2 == nil {
		return Settlement{}, fmt.Errorf("pool is nil")
	}

	startA := e.ledger.BalanceOf(account, model.AssetA)
	startB := e.ledger.BalanceOf(account, model.AssetB)

	opp, err := Detect(pool1.Snapshot(), pool2.Snapshot(), principal, minProfit)
	if err != nil {
		return Settlement{}, err
	}

	settlement := Settlement{Opportunity: opp}
	if opp.Found {
		first, second := pool1, pool2
		if opp.Order == Pool2First {
			first, second = pool2, pool1
		}
		dir := model.AForB
		if opp.StartAsset == model.AssetB {
			dir = model.BForA
		}

		hop1, err := first.Swap(account, dir, principal)
		if err != nil {
			return Settlement{}, fmt.Errorf("arbitrage hop 1 on %s: %w", first.Name(), err)
		}
		hop2, err := second.Swap(account, dir.Reverse(), hop1.AmountOut)
		if err != nil {
			return Settlement{}, fmt.Errorf("arbitrage hop 2 on %s: %w", second.Name(), err)
		}
		settlement.Executed = true
		e.logger.Info("arbitrage executed",
			zap.String("order", string(opp.Order)),
			zap.String("start_asset", string(opp.StartAsset)),
			zap.String("principal", model.FromWei(principal)),
			zap.String("final", model.FromWei(hop2.AmountOut)),
		)
	}

	settlement.DeltaA = new(big.Int).Sub(e.ledger.BalanceOf(account, model.AssetA), startA)
	settlement.DeltaB = new(big.Int).Sub(e.ledger.BalanceOf(account, model.AssetB), startB)
	sum := new(big.Int).Add(settlement.DeltaA, settlement.DeltaB)
	settlement.Found = sum.Sign() != 0
	return settlement, nil
}
