package arbitrage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/amm"
	"ammScope/internal/ledger"
	"ammScope/internal/model"
)

func snapshot(name, a, b string) amm.Snapshot {
	return amm.Snapshot{
		Name:        name,
		ReserveA:    model.MustWei(a),
		ReserveB:    model.MustWei(b),
		TotalShares: model.MustWei(a),
		Fee:         amm.DefaultFee,
	}
}

func TestDetectEqualRatiosFindsNothing(t *testing.T) {
	testCases := []struct {
		name string
		p1   amm.Snapshot
		p2   amm.Snapshot
	}{
		{name: "identical pools", p1: snapshot("dex1", "1000", "1000"), p2: snapshot("dex2", "1000", "1000")},
		{name: "same ratio, different depth", p1: snapshot("dex1", "1000", "2000"), p2: snapshot("dex2", "50", "100")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opp, err := Detect(tc.p1, tc.p2, model.MustWei("10"), big.NewInt(0))
			require.NoError(t, err)
			assert.False(t, opp.Found)
		})
	}
}

func TestDetectFavorsBuyingAOnPool2(t *testing.T) {
	// ratio1 = 1.0, ratio2 = 1.2 (A/B)
	p1 := snapshot("dex1", "1000", "1000")
	p2 := snapshot("dex2", "1200", "1000")

	opp, err := Detect(p1, p2, model.MustWei("10"), model.MustWei("0.1"))
	require.NoError(t, err)
	require.True(t, opp.Found)
	assert.Equal(t, Pool1First, opp.Order)
	assert.Equal(t, model.AssetA, opp.StartAsset)
	require.Len(t, opp.Hops, 2)
	assert.Equal(t, "dex1", opp.Hops[0].Pool)
	assert.Equal(t, model.AForB, opp.Hops[0].Direction)
	assert.Equal(t, "dex2", opp.Hops[1].Pool)
	assert.Equal(t, model.BForA, opp.Hops[1].Direction)
	assert.Equal(t, "9871580343970612988", opp.Hops[0].AmountOut.String())
	assert.Equal(t, "11695254431692111212", opp.Final.String())
	assert.Equal(t, "1695254431692111212", opp.Profit.String())

	// snapshots are untouched
	assert.Equal(t, model.MustWei("1000").String(), p1.ReserveA.String())
	assert.Equal(t, model.MustWei("1200").String(), p2.ReserveA.String())
}

func TestDetectSwappedPoolsReverseOrder(t *testing.T) {
	p1 := snapshot("dex1", "1200", "1000")
	p2 := snapshot("dex2", "1000", "1000")

	opp, err := Detect(p1, p2, model.MustWei("10"), model.MustWei("0.1"))
	require.NoError(t, err)
	require.True(t, opp.Found)
	assert.Equal(t, Pool2First, opp.Order)
	assert.Equal(t, "dex2", opp.Hops[0].Pool)
}

func TestDetectBelowMinProfit(t *testing.T) {
	// a 0.1% divergence does not cover two 0.3% fees
	p1 := snapshot("dex1", "1000", "1000")
	p2 := snapshot("dex2", "1001", "1000")

	opp, err := Detect(p1, p2, model.MustWei("10"), model.MustWei("0.1"))
	require.NoError(t, err)
	assert.False(t, opp.Found)
	assert.Negative(t, opp.Profit.Sign())
}

func TestClearsRequiresPositiveProfit(t *testing.T) {
	tests := []struct {
		name      string
		profit    *big.Int
		minProfit *big.Int
		expected  bool
	}{
		{name: "break even with zero floor", profit: big.NewInt(0), minProfit: big.NewInt(0), expected: false},
		{name: "one wei with zero floor", profit: big.NewInt(1), minProfit: big.NewInt(0), expected: true},
		{name: "exactly at floor", profit: big.NewInt(5), minProfit: big.NewInt(5), expected: true},
		{name: "below floor", profit: big.NewInt(4), minProfit: big.NewInt(5), expected: false},
		{name: "loss", profit: big.NewInt(-1), minProfit: big.NewInt(0), expected: false},
		{name: "nil profit", profit: nil, minProfit: big.NewInt(0), expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, clears(tc.profit, tc.minProfit))
		})
	}
}

func TestDetectErrors(t *testing.T) {
	_, err := Detect(snapshot("a", "1", "1"), snapshot("b", "1", "2"), big.NewInt(0), nil)
	require.ErrorIs(t, err, amm.ErrZeroAmount)

	empty := amm.Snapshot{Name: "empty", ReserveA: big.NewInt(0), ReserveB: big.NewInt(0), Fee: amm.DefaultFee}
	opp, err := Detect(empty, snapshot("b", "1000", "1200"), model.MustWei("1"), nil)
	require.NoError(t, err)
	assert.False(t, opp.Found)
}

func newPool(t *testing.T, l *ledger.Ledger, name, a, b string) *amm.Pool {
	t.Helper()
	pool, err := amm.NewPool(name, l, amm.DefaultFee)
	require.NoError(t, err)
	lp := model.AddressFor("lp:" + name)
	require.NoError(t, l.Mint(lp, model.AssetA, model.MustWei(a)))
	require.NoError(t, l.Mint(lp, model.AssetB, model.MustWei(b)))
	_, err = pool.AddLiquidity(lp, model.MustWei(a), model.MustWei(b), 0)
	require.NoError(t, err)
	return pool
}

func TestExecutorSettlesOpportunity(t *testing.T) {
	l := ledger.New()
	pool1 := newPool(t, l, "dex1", "1000", "1000")
	pool2 := newPool(t, l, "dex2", "1200", "1000")
	arb := model.AddressFor("arbitrageur")
	require.NoError(t, l.Mint(arb, model.AssetA, model.MustWei("1000")))
	require.NoError(t, l.Mint(arb, model.AssetB, model.MustWei("1000")))

	s, err := NewExecutor(l, nil).Execute(arb, pool1, pool2, model.MustWei("10"), model.MustWei("0.1"))
	require.NoError(t, err)
	assert.True(t, s.Executed)
	assert.True(t, s.Found)
	assert.Equal(t, s.Opportunity.Profit.String(), s.DeltaA.String())
	assert.Equal(t, 0, s.DeltaB.Sign())

	a1, _ := pool1.SpotPrice()
	assert.Equal(t, model.MustWei("1010").String(), a1.String())
}

func TestExecutorNoOpportunity(t *testing.T) {
	l := ledger.New()
	pool1 := newPool(t, l, "dex1", "1000", "1000")
	pool2 := newPool(t, l, "dex2", "1000", "1000")
	arb := model.AddressFor("arbitrageur")

	s, err := NewExecutor(l, nil).Execute(arb, pool1, pool2, model.MustWei("10"), model.MustWei("0.1"))
	require.NoError(t, err)
	assert.False(t, s.Executed)
	assert.False(t, s.Found)
	assert.Equal(t, 0, s.DeltaA.Sign())
	assert.Equal(t, 0, s.DeltaB.Sign())
}

func TestExecutorInsufficientBalance(t *testing.T) {
	l := ledger.New()
	pool1 := newPool(t, l, "dex1", "1000", "1000")
	pool2 := newPool(t, l, "dex2", "1200", "1000")

	_, err := NewExecutor(l, nil).Execute(model.AddressFor("broke"), pool1, pool2, model.MustWei("10"), nil)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}
