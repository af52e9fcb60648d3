package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the fixed-point scale of every amount in the simulator.
const WeiDecimals = 18

// ToWei parses a human readable ether amount into wei.
func ToWei(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return big.NewInt(0), nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", value)
	}
	return d.Shift(WeiDecimals).BigInt(), nil
}

// MustWei is ToWei for constants known to be valid.
func MustWei(value string) *big.Int {
	v, err := ToWei(value)
	if err != nil {
		panic(err)
	}
	return v
}

// FromWei formats a wei amount in ether units without trailing zeros.
func FromWei(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -WeiDecimals).String()
}
