package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/model"
)

func TestTransfer(t *testing.T) {
	l := New()
	alice := model.AddressFor("alice")
	bob := model.AddressFor("bob")

	require.NoError(t, l.Mint(alice, model.AssetA, big.NewInt(100)))
	require.NoError(t, l.Transfer(alice, bob, model.AssetA, big.NewInt(40)))

	assert.Equal(t, int64(60), l.BalanceOf(alice, model.AssetA).Int64())
	assert.Equal(t, int64(40), l.BalanceOf(bob, model.AssetA).Int64())
	assert.Equal(t, int64(0), l.BalanceOf(bob, model.AssetB).Int64())
	assert.Equal(t, int64(100), l.Supply(model.AssetA).Int64())
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := New()
	alice := model.AddressFor("alice")
	bob := model.AddressFor("bob")
	require.NoError(t, l.Mint(alice, model.AssetB, big.NewInt(10)))

	err := l.Transfer(alice, bob, model.AssetB, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(10), l.BalanceOf(alice, model.AssetB).Int64())
	assert.Equal(t, int64(0), l.BalanceOf(bob, model.AssetB).Int64())
}

func TestTransferRejectsNegative(t *testing.T) {
	l := New()
	err := l.Transfer(model.AddressFor("a"), model.AddressFor("b"), model.AssetA, big.NewInt(-1))
	require.ErrorIs(t, err, ErrNegativeAmount)
	require.ErrorIs(t, l.Mint(model.AddressFor("a"), model.AssetA, nil), ErrNegativeAmount)
}

func TestBurn(t *testing.T) {
	l := New()
	lp := model.AddressFor("lp")
	shares := model.ShareAsset("pool")
	require.NoError(t, l.Mint(lp, shares, big.NewInt(50)))

	require.ErrorIs(t, l.Burn(lp, shares, big.NewInt(51)), ErrInsufficientShares)
	require.NoError(t, l.Burn(lp, shares, big.NewInt(20)))
	assert.Equal(t, int64(30), l.BalanceOf(lp, shares).Int64())
	assert.Equal(t, int64(30), l.Supply(shares).Int64())
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	l := New()
	alice := model.AddressFor("alice")
	require.NoError(t, l.Mint(alice, model.AssetA, big.NewInt(5)))

	bal := l.BalanceOf(alice, model.AssetA)
	bal.SetInt64(1000)
	assert.Equal(t, int64(5), l.BalanceOf(alice, model.AssetA).Int64())
}
