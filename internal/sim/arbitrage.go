package sim

import (
	"context"
	"fmt"
	"math/big"
	"math/rand/v2"

	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/arbitrage"
	"ammScope/internal/ledger"
	"ammScope/internal/model"
)

// ArbitrageConfig controls a two-pool arbitrage scenario.
type ArbitrageConfig struct {
	Rounds            int
	TradeAmount       *big.Int
	Allocation        *big.Int
	SeedA             *big.Int
	SeedB             *big.Int
	ProvidersPerPool  int
	TradersPerPool    int
	Principal         *big.Int
	MinProfit         *big.Int
	Fee               amm.Fee
	RatioToleranceBps uint64
	Seed              uint64
}

func DefaultArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		Rounds:            10,
		TradeAmount:       model.MustWei("20"),
		Allocation:        model.MustWei("1000"),
		SeedA:             model.MustWei("1000"),
		SeedB:             model.MustWei("1000"),
		ProvidersPerPool:  2,
		TradersPerPool:    3,
		Principal:         model.MustWei("10"),
		MinProfit:         model.MustWei("0.1"),
		Fee:               amm.DefaultFee,
		RatioToleranceBps: 10,
	}
}

func (c ArbitrageConfig) validate() error {
	if c.Rounds < 0 {
		return fmt.Errorf("rounds must be >= 0")
	}
	if c.ProvidersPerPool <= 0 {
		return fmt.Errorf("providers per pool must be > 0")
	}
	if c.TradersPerPool <= 0 {
		return fmt.Errorf("traders per pool must be > 0")
	}
	if !positive(c.TradeAmount) {
		return fmt.Errorf("trade amount must be > 0")
	}
	if !positive(c.SeedA) || !positive(c.SeedB) {
		return fmt.Errorf("pool seed amounts must be > 0")
	}
	if !positive(c.Principal) {
		return fmt.Errorf("principal must be > 0")
	}
	if c.MinProfit == nil || c.MinProfit.Sign() < 0 {
		return fmt.Errorf("min profit must be >= 0")
	}
	if c.Allocation == nil || c.Allocation.Cmp(c.SeedA) < 0 || c.Allocation.Cmp(c.SeedB) < 0 {
		return fmt.Errorf("allocation must cover the pool seed")
	}
	return c.Fee.Validate()
}

// TradeLog is one background trade of the scenario.
type TradeLog struct {
	Round     int
	Pool      string
	Trader    string
	Direction model.Direction
	AmountIn  *big.Int
	AmountOut *big.Int
	Err       string
}

// ArbitrageResult is the outcome of a scenario.
type ArbitrageResult struct {
	Seed         uint64
	Arbitrageur  model.Participant
	Trades       []TradeLog
	FailedTrades int
	// Before holds both pools after the background trades, as the detector saw them.
	Before     [2]amm.Snapshot
	After      [2]amm.Snapshot
	Settlement arbitrage.Settlement
}

// Ratios returns reserveA/reserveB of both pools before settlement.
func (r *ArbitrageResult) Ratios() (float64, float64) {
	return amm.Ratio(r.Before[0].ReserveA, r.Before[0].ReserveB),
		amm.Ratio(r.Before[1].ReserveA, r.Before[1].ReserveB)
}

type poolGroup struct {
	pool      *amm.Pool
	providers []model.Participant
	traders   []model.Participant
}

// ArbitrageScenario seeds two pools, disturbs them with random trades and
// lets a dedicated arbitrageur settle the price difference.
type ArbitrageScenario struct {
	cfg         ArbitrageConfig
	opts        options
	metrics     *runMetrics
	seed        uint64
	rng         *rand.Rand
	ledger      *ledger.Ledger
	groups      [2]poolGroup
	arbitrageur model.Participant
	ran         bool
}

func NewArbitrageScenario(cfg ArbitrageConfig, opts ...Option) (*ArbitrageScenario, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid arbitrage config: %w", err)
	}
	o := buildOptions(opts)
	seed := cfg.Seed
	for seed == 0 {
		seed = rand.Uint64()
	}

	s := &ArbitrageScenario{
		cfg:         cfg,
		opts:        o,
		metrics:     newRunMetrics(o.registerer),
		seed:        seed,
		rng:         newRand(seed),
		ledger:      ledger.New(),
		arbitrageur: model.NewParticipant("arbitrageur", model.RoleArbitrageur),
	}
	for i := range s.groups {
		name := fmt.Sprintf("dex%d", i+1)
		pool, err := amm.NewPool(name, s.ledger, cfg.Fee)
		if err != nil {
			return nil, err
		}
		g := poolGroup{pool: pool}
		for j := 1; j <= cfg.ProvidersPerPool; j++ {
			g.providers = append(g.providers, model.NewParticipant(fmt.Sprintf("%s-lp-%d", name, j), model.RoleLiquidityProvider))
		}
		for j := 1; j <= cfg.TradersPerPool; j++ {
			g.traders = append(g.traders, model.NewParticipant(fmt.Sprintf("%s-trader-%d", name, j), model.RoleTrader))
		}
		s.groups[i] = g
	}
	return s, nil
}

// Seed returns the seed of the scenario's random source.
func (s *ArbitrageScenario) Seed() uint64 {
	return s.seed
}

func (s *ArbitrageScenario) Run(ctx context.Context) (*ArbitrageResult, error) {
	if s.ran {
		return nil, fmt.Errorf("scenario already ran")
	}
	s.ran = true

	if err := s.setup(); err != nil {
		return nil, err
	}

	res := &ArbitrageResult{Seed: s.seed, Arbitrageur: s.arbitrageur}
	for round := 1; round <= s.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, g := range s.groups {
			trade := s.trade(round, g)
			if trade.Err != "" {
				res.FailedTrades++
			}
			res.Trades = append(res.Trades, trade)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool1, pool2 := s.groups[0].pool, s.groups[1].pool
	res.Before = [2]amm.Snapshot{pool1.Snapshot(), pool2.Snapshot()}
	ratio1, ratio2 := res.Ratios()
	s.opts.logger.Info("trades complete, checking arbitrage",
		zap.Uint64("seed", s.seed),
		zap.Int("trades", len(res.Trades)),
		zap.Int("failed", res.FailedTrades),
		zap.Float64("ratio_dex1", ratio1),
		zap.Float64("ratio_dex2", ratio2),
	)

	executor := arbitrage.NewExecutor(s.ledger, s.opts.logger)
	settlement, err := executor.Execute(s.arbitrageur.Address, pool1, pool2, s.cfg.Principal, s.cfg.MinProfit)
	if err != nil {
		s.metrics.arbitrage.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("execute arbitrage: %w", err)
	}
	result := "none"
	if settlement.Found {
		result = "found"
	}
	s.metrics.arbitrage.WithLabelValues(result).Inc()

	res.Settlement = settlement
	res.After = [2]amm.Snapshot{pool1.Snapshot(), pool2.Snapshot()}
	return res, nil
}

func (s *ArbitrageScenario) setup() error {
	everyone := []model.Participant{s.arbitrageur}
	for _, g := range s.groups {
		everyone = append(everyone, g.providers...)
		everyone = append(everyone, g.traders...)
	}
	for _, p := range everyone {
		if err := s.ledger.Mint(p.Address, model.AssetA, s.cfg.Allocation); err != nil {
			return fmt.Errorf("fund %s: %w", p.Name, err)
		}
		if err := s.ledger.Mint(p.Address, model.AssetB, s.cfg.Allocation); err != nil {
			return fmt.Errorf("fund %s: %w", p.Name, err)
		}
	}
	for _, g := range s.groups {
		for _, lp := range g.providers {
			if _, err := g.pool.AddLiquidity(lp.Address, s.cfg.SeedA, s.cfg.SeedB, s.cfg.RatioToleranceBps); err != nil {
				return fmt.Errorf("seed %s from %s: %w", g.pool.Name(), lp.Name, err)
			}
		}
	}
	s.opts.logger.Debug("pools seeded", zap.Int("participants", len(everyone)))
	return nil
}

func (s *ArbitrageScenario) trade(round int, g poolGroup) TradeLog {
	trader := g.traders[s.rng.IntN(len(g.traders))]
	dir := model.AForB
	if s.rng.IntN(2) == 1 {
		dir = model.BForA
	}
	log := TradeLog{
		Round:     round,
		Pool:      g.pool.Name(),
		Trader:    trader.Name,
		Direction: dir,
		AmountIn:  new(big.Int).Set(s.cfg.TradeAmount),
	}
	res, err := g.pool.Swap(trader.Address, dir, s.cfg.TradeAmount)
	if err != nil {
		log.Err = err.Error()
		s.opts.logger.Warn("background trade failed",
			zap.Int("round", round),
			zap.String("pool", g.pool.Name()),
			zap.String("trader", trader.Name),
			zap.Error(err),
		)
		return log
	}
	s.metrics.swaps.WithLabelValues(string(dir)).Inc()
	log.AmountOut = res.AmountOut
	return log
}
