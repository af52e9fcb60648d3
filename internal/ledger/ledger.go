package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/model"
)

var (
	// ErrInsufficientBalance is returned when an account holds less than the amount moved.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientShares is returned when burning more shares than an account holds.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrNegativeAmount is returned for negative or nil amounts.
	ErrNegativeAmount = errors.New("amount must be non-nil and non-negative")
)

// Ledger tracks fungible balances per account and asset.
// It is not safe for concurrent use; a simulation run owns it exclusively.
type Ledger struct {
	balances map[common.Address]map[model.Asset]*big.Int
	supply   map[model.Asset]*big.Int
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]map[model.Asset]*big.Int),
		supply:   make(map[model.Asset]*big.Int),
	}
}

// BalanceOf returns a copy of the account balance of asset.
func (l *Ledger) BalanceOf(account common.Address, asset model.Asset) *big.Int {
	return new(big.Int).Set(l.balance(account, asset))
}

// Supply returns the total amount of asset minted and not burned.
func (l *Ledger) Supply(asset model.Asset) *big.Int {
	s, ok := l.supply[asset]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(s)
}

// Transfer moves amount of asset from one account to another.
func (l *Ledger) Transfer(from, to common.Address, asset model.Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	src := l.balance(from, asset)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s %s, needs %s", ErrInsufficientBalance, from.Hex(), src, asset, amount)
	}
	src.Sub(src, amount)
	dst := l.balance(to, asset)
	dst.Add(dst, amount)
	return nil
}

// Mint credits newly issued units of asset to account.
func (l *Ledger) Mint(account common.Address, asset model.Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := l.balance(account, asset)
	bal.Add(bal, amount)
	l.supplyOf(asset).Add(l.supplyOf(asset), amount)
	return nil
}

// Burn destroys amount of asset held by account.
func (l *Ledger) Burn(account common.Address, asset model.Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := l.balance(account, asset)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s %s, burn %s", ErrInsufficientShares, account.Hex(), bal, asset, amount)
	}
	bal.Sub(bal, amount)
	l.supplyOf(asset).Sub(l.supplyOf(asset), amount)
	return nil
}

func (l *Ledger) balance(account common.Address, asset model.Asset) *big.Int {
	assets, ok := l.balances[account]
	if !ok {
		assets = make(map[model.Asset]*big.Int)
		l.balances[account] = assets
	}
	bal, ok := assets[asset]
	if !ok {
		bal = new(big.Int)
		assets[asset] = bal
	}
	return bal
}

func (l *Ledger) supplyOf(asset model.Asset) *big.Int {
	s, ok := l.supply[asset]
	if !ok {
		s = new(big.Int)
		l.supply[asset] = s
	}
	return s
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return nil
}
