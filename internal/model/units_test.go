package model

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWei(t *testing.T) {
	v, err := ToWei("1000")
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	assert.Equal(t, 0, v.Cmp(want))

	v, err = ToWei("0.1")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", v.String())

	_, err = ToWei("-1")
	require.Error(t, err)
	_, err = ToWei("abc")
	require.Error(t, err)
}

func TestFromWei(t *testing.T) {
	assert.Equal(t, "1000", FromWei(MustWei("1000")))
	assert.Equal(t, "90.5", FromWei(MustWei("90.5")))
	assert.Equal(t, "0", FromWei(nil))
	assert.Equal(t, "0.000000000000000001", FromWei(big.NewInt(1)))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, AssetA, AForB.Input())
	assert.Equal(t, AssetB, AForB.Output())
	assert.Equal(t, AssetB, BForA.Input())
	assert.Equal(t, AssetA, BForA.Output())
	assert.Equal(t, BForA, AForB.Reverse())
}

func TestNewParticipantAddressIsStable(t *testing.T) {
	a := NewParticipant("lp-1", RoleLiquidityProvider)
	b := NewParticipant("lp-1", RoleTrader)
	c := NewParticipant("lp-2", RoleLiquidityProvider)

	assert.Equal(t, a.Address, b.Address)
	assert.NotEqual(t, a.Address, c.Address)
	assert.Len(t, ShortAddress(a.Address), 6)
}
