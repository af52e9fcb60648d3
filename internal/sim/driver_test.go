package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/amm"
	"ammScope/internal/metrics"
	"ammScope/internal/model"
)

func testConfig(steps int, seed uint64) Config {
	cfg := DefaultConfig()
	cfg.Steps = steps
	cfg.Seed = seed
	return cfg
}

func runDriver(t *testing.T, cfg Config, opts ...Option) (*Driver, *Result) {
	t.Helper()
	d, err := NewDriver(cfg, opts...)
	require.NoError(t, err)
	res, err := d.Run(context.Background())
	require.NoError(t, err)
	return d, res
}

func seriesFingerprint(series []metrics.Snapshot) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s", s.Step, s.Action, s.Outcome, s.ReserveA, s.ReserveB, s.TotalShares, s.Fees)
	}
	return out
}

func product(s metrics.Snapshot) *big.Int {
	return new(big.Int).Mul(s.ReserveA, s.ReserveB)
}

func TestRunSeriesLength(t *testing.T) {
	for _, steps := range []int{0, 1, 25} {
		t.Run(fmt.Sprintf("%d steps", steps), func(t *testing.T) {
			_, res := runDriver(t, testConfig(steps, 7))
			require.Len(t, res.Series, steps+1)
			require.Len(t, res.Steps, steps)
			for i, s := range res.Series {
				assert.Equal(t, i, s.Step)
			}
			assert.Equal(t, metrics.OutcomeSetup, res.Series[0].Outcome)
		})
	}
}

func TestRunSetupSeedsPool(t *testing.T) {
	_, res := runDriver(t, testConfig(0, 1))

	genesis := res.Series[0]
	assert.Equal(t, model.MustWei("5000").String(), genesis.ReserveA.String())
	assert.Equal(t, model.MustWei("5000").String(), genesis.ReserveB.String())
	assert.Equal(t, model.MustWei("10000").String(), genesis.TVL.String())
	assert.Equal(t, model.MustWei("5000").String(), genesis.TotalShares.String())
	assert.InDelta(t, 1.0, genesis.SpotPrice, 1e-12)
	require.Len(t, genesis.Shares, 5)
	for _, sb := range genesis.Shares {
		assert.Equal(t, model.MustWei("1000").String(), sb.Shares.String())
	}
	assert.Nil(t, genesis.Slippage)
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	_, first := runDriver(t, testConfig(60, 42))
	_, second := runDriver(t, testConfig(60, 42))

	assert.Equal(t, uint64(42), first.Seed)
	assert.Equal(t, seriesFingerprint(first.Series), seriesFingerprint(second.Series))
	assert.Equal(t, first.Swaps, second.Swaps)
}

func TestRunDrawsSeedWhenUnset(t *testing.T) {
	d, err := NewDriver(testConfig(3, 0))
	require.NoError(t, err)
	assert.NotZero(t, d.Seed())

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, d.Seed(), res.Seed)
}

func TestRunStepInvariants(t *testing.T) {
	cfg := testConfig(200, 99)
	// Coarse draws make zero amounts common.
	cfg.Granularity = 2
	d, res := runDriver(t, cfg)

	swapSteps := 0
	for i, stepLog := range res.Steps {
		prev, cur := res.Series[i], res.Series[i+1]
		assert.Equal(t, string(stepLog.Action), cur.Action)
		assert.Equal(t, stepLog.Outcome, cur.Outcome)

		switch {
		case strings.HasPrefix(stepLog.Participant, "lp-"):
			assert.Contains(t, providerActions, stepLog.Action)
		case strings.HasPrefix(stepLog.Participant, "trader-"):
			assert.Contains(t, traderActions, stepLog.Action)
		default:
			t.Fatalf("unexpected participant %s", stepLog.Participant)
		}

		if stepLog.Outcome != metrics.OutcomeExecuted {
			assert.Equal(t, prev.ReserveA.String(), cur.ReserveA.String(), "step %d", cur.Step)
			assert.Equal(t, prev.ReserveB.String(), cur.ReserveB.String(), "step %d", cur.Step)
			assert.Equal(t, prev.TVL.String(), cur.TVL.String(), "step %d", cur.Step)
			assert.Equal(t, prev.ReserveRatio, cur.ReserveRatio, "step %d", cur.Step)
			assert.Nil(t, cur.Slippage)
			continue
		}

		isSwap := stepLog.Action == ActionSwapAForB || stepLog.Action == ActionSwapBForA
		if isSwap {
			swapSteps++
			require.NotNil(t, cur.Slippage)
			assert.LessOrEqual(t, *cur.Slippage, 0.0)
			assert.GreaterOrEqual(t, product(cur).Cmp(product(prev)), 0, "step %d", cur.Step)
		}
		assert.GreaterOrEqual(t, cur.Fees.Cmp(prev.Fees), 0)
	}

	assert.Len(t, res.Swaps, swapSteps)
	assert.Equal(t, uint64(swapSteps), res.Totals.SwapCount)
	for _, rec := range res.Swaps {
		assert.Greater(t, rec.TradeLotFraction, 0.0)
		assert.LessOrEqual(t, rec.TradeLotFraction, 10.0+1e-9)
	}

	final := d.pool.Snapshot()
	assert.Equal(t, final.ReserveA.String(), d.ledger.BalanceOf(d.pool.Address(), model.AssetA).String())
	assert.Equal(t, final.ReserveB.String(), d.ledger.BalanceOf(d.pool.Address(), model.AssetB).String())
	assert.Equal(t, final.TotalShares.String(), d.ledger.Supply(d.pool.ShareAsset()).String())
	assert.Equal(t, final.ReserveA.String(), res.Final.ReserveA.String())
	assert.Equal(t, final.TotalShares.String(), res.Series[len(res.Series)-1].TotalShares.String())
}

func TestRunConservesAssets(t *testing.T) {
	cfg := testConfig(150, 5)
	d, _ := runDriver(t, cfg)

	want := new(big.Int).Mul(cfg.InitialAllocation, big.NewInt(int64(len(cfg.Participants))))
	for _, asset := range []model.Asset{model.AssetA, model.AssetB} {
		sum := d.ledger.BalanceOf(d.pool.Address(), asset)
		for _, p := range cfg.Participants {
			sum.Add(sum, d.ledger.BalanceOf(p.Address, asset))
		}
		assert.Equal(t, want.String(), sum.String(), "asset %s", asset)
	}
}

func TestRunCountsStepsAndSwaps(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, res := runDriver(t, testConfig(80, 11), WithRegisterer(reg))

	byLabel := map[[2]string]int{}
	for _, s := range res.Steps {
		byLabel[[2]string{string(s.Action), string(s.Outcome)}]++
	}
	for labels, n := range byLabel {
		assert.Equal(t, float64(n), testutil.ToFloat64(d.metrics.steps.WithLabelValues(labels[0], labels[1])))
	}

	swaps := testutil.ToFloat64(d.metrics.swaps.WithLabelValues(string(model.AForB))) +
		testutil.ToFloat64(d.metrics.swaps.WithLabelValues(string(model.BForA)))
	assert.Equal(t, float64(len(res.Swaps)), swaps)

	count, err := testutil.GatherAndCount(reg, "ammscope_simulation_steps_total")
	require.NoError(t, err)
	assert.Equal(t, len(byLabel), count)
}

func TestRunReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, _ := runDriver(t, testConfig(10, 3), WithRegisterer(reg))
	second, _ := runDriver(t, testConfig(10, 3), WithRegisterer(reg))
	assert.Same(t, first.metrics.steps, second.metrics.steps)
}

type stubVerifier struct {
	calls int
	err   error
}

func (v *stubVerifier) Verify(_ context.Context, _ amm.Snapshot) error {
	v.calls++
	return v.err
}

func TestRunVerifiesGenesisOnly(t *testing.T) {
	v := &stubVerifier{}
	d, res := runDriver(t, testConfig(12, 8), WithVerifier(v))
	assert.Equal(t, 1, v.calls)
	assert.Len(t, res.Series, 13)
	assert.Equal(t, 0.0, testutil.ToFloat64(d.metrics.verifyFailures))
}

func TestRunGenesisMismatchAborts(t *testing.T) {
	v := &stubVerifier{err: errors.New("tvl mismatch")}
	d, err := NewDriver(testConfig(4, 8), WithVerifier(v))
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.ErrorIs(t, err, v.err)
	assert.Equal(t, 1, v.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.metrics.verifyFailures))
	assert.Empty(t, d.steps)
}

func TestRunGenesisVerifierCanceled(t *testing.T) {
	v := &stubVerifier{err: context.Canceled}
	d, err := NewDriver(testConfig(4, 8), WithVerifier(v))
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, testutil.ToFloat64(d.metrics.verifyFailures))
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	d, err := NewDriver(testConfig(10, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunOnlyOnce(t *testing.T) {
	d, _ := runDriver(t, testConfig(1, 1))
	_, err := d.Run(context.Background())
	require.Error(t, err)
}

func TestNewDriverRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no providers", mutate: func(c *Config) { c.Participants = Roster(0, 3) }},
		{name: "empty roster", mutate: func(c *Config) { c.Participants = nil }},
		{name: "negative steps", mutate: func(c *Config) { c.Steps = -1 }},
		{name: "zero seed", mutate: func(c *Config) { c.SeedA = big.NewInt(0) }},
		{name: "allocation below seed", mutate: func(c *Config) { c.InitialAllocation = model.MustWei("10") }},
		{name: "bad fee", mutate: func(c *Config) { c.Fee = amm.Fee{Numerator: 5, Denominator: 5} }},
		{name: "zero granularity", mutate: func(c *Config) { c.Granularity = 0 }},
		{name: "swap cap above reserve", mutate: func(c *Config) { c.SwapCapPermil = 1001 }},
		{name: "duplicate participant", mutate: func(c *Config) { c.Participants = append(c.Participants, c.Participants[0]) }},
		{name: "arbitrageur in roster", mutate: func(c *Config) {
			c.Participants = append(c.Participants, model.NewParticipant("arb", model.RoleArbitrageur))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := NewDriver(cfg)
			require.Error(t, err)
		})
	}
}

func TestDriverScale(t *testing.T) {
	d, err := NewDriver(testConfig(0, 1))
	require.NoError(t, err)

	maximum := big.NewInt(1_000_000)
	assert.Equal(t, "0", d.scale(maximum, 0).String())
	assert.Equal(t, "1000", d.scale(maximum, 1).String())
	assert.Equal(t, "1000000", d.scale(maximum, 1000).String())
}
