package oracle

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/amm"
	"ammScope/internal/model"
)

var dexAddress = common.HexToAddress("0x00000000000000000000000000000000000000d1")

type fakeCaller struct {
	t         *testing.T
	reserveA  *big.Int
	reserveB  *big.Int
	tvl       *big.Int
	failFirst int
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	if f.failFirst > 0 {
		f.failFirst--
		return nil, errors.New("connection refused")
	}
	require.Nil(f.t, blockNumber)
	require.NotNil(f.t, msg.To)
	require.Equal(f.t, dexAddress, *msg.To)

	dex, err := getDEXABI()
	require.NoError(f.t, err)
	switch {
	case bytes.Equal(msg.Data[:4], dex.Methods["spotPrice"].ID):
		return dex.Methods["spotPrice"].Outputs.Pack(f.reserveA, f.reserveB)
	case bytes.Equal(msg.Data[:4], dex.Methods["getTVL"].ID):
		return dex.Methods["getTVL"].Outputs.Pack(f.tvl)
	}
	return nil, errors.New("execution reverted")
}

func newFake(t *testing.T, a, b string) *fakeCaller {
	reserveA, reserveB := model.MustWei(a), model.MustWei(b)
	return &fakeCaller{
		t:        t,
		reserveA: reserveA,
		reserveB: reserveB,
		tvl:      new(big.Int).Add(reserveA, reserveB),
	}
}

func localSnapshot(a, b string) amm.Snapshot {
	return amm.Snapshot{
		Name:        "dex",
		ReserveA:    model.MustWei(a),
		ReserveB:    model.MustWei(b),
		TotalShares: model.MustWei(a),
		Fee:         amm.DefaultFee,
	}
}

func TestStateReadsContract(t *testing.T) {
	caller := newFake(t, "1000", "1250.5")
	o, err := NewDEXOracle(caller, dexAddress, Config{}, nil)
	require.NoError(t, err)

	state, err := o.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.MustWei("1000").String(), state.ReserveA.String())
	assert.Equal(t, model.MustWei("1250.5").String(), state.ReserveB.String())
	assert.Equal(t, model.MustWei("2250.5").String(), state.TVL.String())
}

func TestVerify(t *testing.T) {
	testCases := []struct {
		name     string
		local    amm.Snapshot
		mismatch bool
	}{
		{name: "matching state", local: localSnapshot("1000", "900")},
		{name: "reserve A differs", local: localSnapshot("1000.000000000000000001", "900"), mismatch: true},
		{name: "reserve B differs", local: localSnapshot("1000", "901"), mismatch: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := NewDEXOracle(newFake(t, "1000", "900"), dexAddress, Config{}, nil)
			require.NoError(t, err)

			err = o.Verify(context.Background(), tc.local)
			if tc.mismatch {
				require.ErrorIs(t, err, ErrStateMismatch)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestVerifyDetectsTVLMismatch(t *testing.T) {
	caller := newFake(t, "1000", "900")
	caller.tvl = model.MustWei("1")
	o, err := NewDEXOracle(caller, dexAddress, Config{}, nil)
	require.NoError(t, err)

	err = o.Verify(context.Background(), localSnapshot("1000", "900"))
	require.ErrorIs(t, err, ErrStateMismatch)
	assert.Contains(t, err.Error(), "tvl")
}

func TestStateRetriesTransientErrors(t *testing.T) {
	caller := newFake(t, "10", "20")
	caller.failFirst = 2
	o, err := NewDEXOracle(caller, dexAddress, Config{MaxRetries: 3, RetryDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	state, err := o.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.MustWei("20").String(), state.ReserveB.String())
	assert.Equal(t, 4, caller.calls)
}

func TestStateGivesUpAfterRetries(t *testing.T) {
	caller := newFake(t, "10", "20")
	caller.failFirst = 10
	o, err := NewDEXOracle(caller, dexAddress, Config{MaxRetries: 1, RetryDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = o.State(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call spotPrice")
	assert.Equal(t, 2, caller.calls)
}

func TestStateStopsOnCanceledContext(t *testing.T) {
	caller := newFake(t, "10", "20")
	caller.failFirst = 10
	o, err := NewDEXOracle(caller, dexAddress, Config{MaxRetries: 5, RetryDelay: time.Hour}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = o.State(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, caller.calls)
}

func TestNewDEXOracleValidates(t *testing.T) {
	_, err := NewDEXOracle(nil, dexAddress, Config{}, nil)
	require.Error(t, err)
	_, err = NewDEXOracle(newFake(t, "1", "1"), common.Address{}, Config{}, nil)
	require.Error(t, err)
}
