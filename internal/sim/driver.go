package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"

	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/ledger"
	"ammScope/internal/metrics"
	"ammScope/internal/model"
)

const permil = 1000

// Action is a step action drawn for a participant.
type Action string

const (
	ActionSwapAForB       Action = "swapAforB"
	ActionSwapBForA       Action = "swapBforA"
	ActionAddLiquidity    Action = "addLiquidity"
	ActionRemoveLiquidity Action = "removeLiquidity"
)

var (
	providerActions = []Action{ActionAddLiquidity, ActionRemoveLiquidity}
	traderActions   = []Action{ActionSwapAForB, ActionSwapBForA}
)

// StepLog describes one simulated step.
type StepLog struct {
	Step        int
	Participant string
	Action      Action
	Outcome     metrics.StepOutcome
	Amount      *big.Int
	Err         string
}

// Result is the finalized output of a run.
type Result struct {
	Seed      uint64
	PoolName  string
	Fee       amm.Fee
	Providers []model.Participant
	Series    []metrics.Snapshot
	Swaps     []model.SwapRecord
	Steps     []StepLog
	Totals    metrics.Totals
	Final     amm.Snapshot
}

// Driver runs a randomized single-pool simulation. It owns its ledger and
// pool for the lifetime of the run and is the only mutator of both.
type Driver struct {
	cfg       Config
	opts      options
	metrics   *runMetrics
	seed      uint64
	rng       *rand.Rand
	ledger    *ledger.Ledger
	pool      *amm.Pool
	recorder  *metrics.Recorder
	acc       *metrics.Accumulator
	providers []model.Participant
	steps     []StepLog
	ran       bool
}

func NewDriver(cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.PoolName == "" {
		cfg.PoolName = "dex"
	}

	o := buildOptions(opts)
	seed := cfg.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}

	l := ledger.New()
	pool, err := amm.NewPool(cfg.PoolName, l, cfg.Fee)
	if err != nil {
		return nil, err
	}

	providers := make([]model.Participant, 0, len(cfg.Participants))
	for _, p := range cfg.Participants {
		if p.Role == model.RoleLiquidityProvider {
			providers = append(providers, p)
		}
	}

	return &Driver{
		cfg:       cfg,
		opts:      o,
		metrics:   newRunMetrics(o.registerer),
		seed:      seed,
		rng:       newRand(seed),
		ledger:    l,
		pool:      pool,
		recorder:  metrics.NewRecorder(cfg.Steps),
		acc:       metrics.NewAccumulator(),
		providers: providers,
		steps:     make([]StepLog, 0, cfg.Steps),
	}, nil
}

// Seed returns the seed of the run's random source.
func (d *Driver) Seed() uint64 {
	return d.seed
}

// Run seeds the pool, executes every step and returns the finalized result.
// A Driver runs once.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.ran {
		return nil, fmt.Errorf("driver already ran")
	}
	d.ran = true

	if err := d.setup(ctx); err != nil {
		return nil, err
	}

	for i := 1; i <= d.cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stepLog, swap := d.step(i)
		d.steps = append(d.steps, stepLog)
		d.metrics.steps.WithLabelValues(string(stepLog.Action), string(stepLog.Outcome)).Inc()

		if err := d.record(i, stepLog.Action, stepLog.Outcome, swap); err != nil {
			return nil, err
		}
	}

	final := d.pool.Snapshot()
	totals := d.acc.Totals()
	d.opts.logger.Info("simulation complete",
		zap.Uint64("seed", d.seed),
		zap.Int("steps", d.cfg.Steps),
		zap.Uint64("swaps", totals.SwapCount),
		zap.String("reserve_a", model.FromWei(final.ReserveA)),
		zap.String("reserve_b", model.FromWei(final.ReserveB)),
		zap.String("tvl", model.FromWei(final.TVL())),
		zap.String("volume_a", model.FromWei(totals.VolumeA)),
		zap.String("volume_b", model.FromWei(totals.VolumeB)),
		zap.String("fees", model.FromWei(totals.Fees)),
	)

	return &Result{
		Seed:      d.seed,
		PoolName:  d.cfg.PoolName,
		Fee:       d.cfg.Fee,
		Providers: append([]model.Participant(nil), d.providers...),
		Series:    d.recorder.Series(),
		Swaps:     d.recorder.Swaps(),
		Steps:     append([]StepLog(nil), d.steps...),
		Totals:    totals,
		Final:     final,
	}, nil
}

func (d *Driver) setup(ctx context.Context) error {
	for _, p := range d.cfg.Participants {
		if err := d.ledger.Mint(p.Address, model.AssetA, d.cfg.InitialAllocation); err != nil {
			return fmt.Errorf("fund %s: %w", p.Name, err)
		}
		if err := d.ledger.Mint(p.Address, model.AssetB, d.cfg.InitialAllocation); err != nil {
			return fmt.Errorf("fund %s: %w", p.Name, err)
		}
	}

	for _, lp := range d.providers {
		minted, err := d.pool.AddLiquidity(lp.Address, d.cfg.SeedA, d.cfg.SeedB, d.cfg.RatioToleranceBps)
		if err != nil {
			return fmt.Errorf("seed liquidity from %s: %w", lp.Name, err)
		}
		d.opts.logger.Debug("seed liquidity",
			zap.String("provider", lp.Name),
			zap.String("amount_a", model.FromWei(d.cfg.SeedA)),
			zap.String("amount_b", model.FromWei(d.cfg.SeedB)),
			zap.String("shares", model.FromWei(minted)),
		)
	}

	if err := d.verifyGenesis(ctx); err != nil {
		return err
	}
	if err := d.record(0, "", metrics.OutcomeSetup, nil); err != nil {
		return err
	}

	d.opts.logger.Info("simulation start",
		zap.Uint64("seed", d.seed),
		zap.Int("steps", d.cfg.Steps),
		zap.Int("participants", len(d.cfg.Participants)),
		zap.Int("providers", len(d.providers)),
		zap.Float64("spot_price", d.pool.Price()),
		zap.String("tvl", model.FromWei(d.pool.TVL())),
	)
	return nil
}

// step draws and applies one action. Pool and ledger failures are contained:
// the step is logged as failed and state is left as it was.
func (d *Driver) step(i int) (StepLog, *amm.SwapResult) {
	p := d.cfg.Participants[d.rng.IntN(len(d.cfg.Participants))]
	action := d.pickAction(p.Role)
	fraction := d.rng.Uint64N(d.cfg.Granularity + 1)

	stepLog := StepLog{Step: i, Participant: p.Name, Action: action}
	logger := d.opts.logger.With(
		zap.Int("step", i),
		zap.String("participant", p.Name),
		zap.String("action", string(action)),
	)

	var (
		swap *amm.SwapResult
		err  error
	)
	switch action {
	case ActionSwapAForB, ActionSwapBForA:
		swap, stepLog.Amount, err = d.swap(p, action, fraction)
	case ActionAddLiquidity:
		stepLog.Amount, err = d.addLiquidity(p, fraction)
	case ActionRemoveLiquidity:
		stepLog.Amount, err = d.removeLiquidity(p, fraction)
	}

	switch {
	case err != nil:
		stepLog.Outcome = metrics.OutcomeFailed
		stepLog.Err = err.Error()
		logger.Warn("step failed", zap.Error(err))
	case stepLog.Amount == nil || stepLog.Amount.Sign() == 0:
		stepLog.Outcome = metrics.OutcomeNoop
		logger.Debug("zero amount drawn")
	default:
		stepLog.Outcome = metrics.OutcomeExecuted
		logger.Debug("step executed", zap.String("amount", model.FromWei(stepLog.Amount)))
	}

	if swap != nil {
		d.acc.AddSwap(swap.Direction, swap.AmountIn, swap.FeePaid)
		d.metrics.swaps.WithLabelValues(string(swap.Direction)).Inc()
		d.recorder.RecordSwap(model.SwapRecord{
			Step:             i,
			Trader:           p.Name,
			Direction:        swap.Direction,
			AmountIn:         swap.AmountIn.String(),
			AmountOut:        swap.AmountOut.String(),
			TradeLotFraction: swap.TradeLotFraction(),
			Slippage:         swap.Slippage(),
		})
	}
	return stepLog, swap
}

func (d *Driver) pickAction(role model.Role) Action {
	if role == model.RoleLiquidityProvider {
		return providerActions[d.rng.IntN(len(providerActions))]
	}
	return traderActions[d.rng.IntN(len(traderActions))]
}

func (d *Driver) swap(p model.Participant, action Action, fraction uint64) (*amm.SwapResult, *big.Int, error) {
	dir := model.AForB
	if action == ActionSwapBForA {
		dir = model.BForA
	}
	reserveIn, _ := d.pool.Snapshot().Reserves(dir)
	maximum := new(big.Int).Mul(reserveIn, new(big.Int).SetUint64(d.cfg.SwapCapPermil))
	maximum.Div(maximum, big.NewInt(permil))
	if balance := d.ledger.BalanceOf(p.Address, dir.Input()); balance.Cmp(maximum) < 0 {
		maximum = balance
	}

	amount := d.scale(maximum, fraction)
	if amount.Sign() == 0 {
		return nil, amount, nil
	}
	res, err := d.pool.Swap(p.Address, dir, amount)
	if err != nil {
		return nil, amount, err
	}
	return &res, amount, nil
}

func (d *Driver) addLiquidity(p model.Participant, fraction uint64) (*big.Int, error) {
	balanceA := d.ledger.BalanceOf(p.Address, model.AssetA)
	balanceB := d.ledger.BalanceOf(p.Address, model.AssetB)

	// An emptied pool takes a fresh deposit at any ratio.
	if d.pool.TotalShares().Sign() == 0 {
		amountA, amountB := d.scale(balanceA, fraction), d.scale(balanceB, fraction)
		if amountA.Sign() == 0 || amountB.Sign() == 0 {
			return new(big.Int), nil
		}
		if _, err := d.pool.AddLiquidity(p.Address, amountA, amountB, d.cfg.RatioToleranceBps); err != nil {
			return amountA, err
		}
		return amountA, nil
	}

	maximum, err := d.pool.RequiredCounterpart(balanceB, model.AssetB)
	if err != nil {
		return nil, err
	}
	if maximum.Cmp(balanceA) > 0 {
		maximum = balanceA
	}

	amountA := d.scale(maximum, fraction)
	if amountA.Sign() == 0 {
		return amountA, nil
	}
	amountB, err := d.pool.RequiredCounterpart(amountA, model.AssetA)
	if err != nil {
		return amountA, err
	}
	if _, err := d.pool.AddLiquidity(p.Address, amountA, amountB, d.cfg.RatioToleranceBps); err != nil {
		return amountA, err
	}
	return amountA, nil
}

func (d *Driver) removeLiquidity(p model.Participant, fraction uint64) (*big.Int, error) {
	shares := d.scale(d.pool.SharesOf(p.Address), fraction)
	if shares.Sign() == 0 {
		return shares, nil
	}
	if _, _, err := d.pool.RemoveLiquidity(p.Address, shares); err != nil {
		return shares, err
	}
	return shares, nil
}

// scale returns maximum*fraction/granularity.
func (d *Driver) scale(maximum *big.Int, fraction uint64) *big.Int {
	out := new(big.Int).Mul(maximum, new(big.Int).SetUint64(fraction))
	return out.Div(out, new(big.Int).SetUint64(d.cfg.Granularity))
}

// verifyGenesis checks the seeded pool against the verifier. The simulated
// steps never reach the verifier's source, so only the genesis state is
// comparable.
func (d *Driver) verifyGenesis(ctx context.Context) error {
	if d.opts.verifier == nil {
		return nil
	}
	snap := d.pool.Snapshot()
	if err := d.opts.verifier.Verify(ctx, snap); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			d.metrics.verifyFailures.Inc()
		}
		return fmt.Errorf("verify genesis state: %w", err)
	}
	d.opts.logger.Info("genesis state verified",
		zap.String("reserve_a", model.FromWei(snap.ReserveA)),
		zap.String("reserve_b", model.FromWei(snap.ReserveB)),
		zap.String("tvl", model.FromWei(snap.TVL())),
	)
	return nil
}

func (d *Driver) record(step int, action Action, outcome metrics.StepOutcome, swap *amm.SwapResult) error {
	snap := d.pool.Snapshot()
	totals := d.acc.Totals()

	shares := make([]metrics.ShareBalance, 0, len(d.providers))
	totalShares := new(big.Int)
	for _, lp := range d.providers {
		bal := d.pool.SharesOf(lp.Address)
		totalShares.Add(totalShares, bal)
		shares = append(shares, metrics.ShareBalance{Provider: lp.Address, Shares: bal})
	}

	ratio := snap.Price()
	entry := metrics.Snapshot{
		Step:         step,
		Action:       string(action),
		Outcome:      outcome,
		ReserveA:     snap.ReserveA,
		ReserveB:     snap.ReserveB,
		TVL:          snap.TVL(),
		ReserveRatio: ratio,
		SpotPrice:    ratio,
		Shares:       shares,
		TotalShares:  totalShares,
		VolumeA:      totals.VolumeA,
		VolumeB:      totals.VolumeB,
		Fees:         totals.Fees,
	}
	if swap != nil {
		slip := swap.Slippage()
		entry.Slippage = &slip
	}
	return d.recorder.Record(entry)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
