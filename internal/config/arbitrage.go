package config

import (
	"math/big"

	"github.com/spf13/pflag"
)

// ArbitrageConfig holds configuration for the arbitrage command.
type ArbitrageConfig struct {
	Common
	Rounds           int
	TradeAmount      *big.Int
	Allocation       *big.Int
	SeedA            *big.Int
	SeedB            *big.Int
	ProvidersPerPool int
	TradersPerPool   int
	Principal        *big.Int
	MinProfit        *big.Int
	FeeNumerator     uint64
	FeeDenominator   uint64
}

// LoadArbitrage merges config file, environment variables, and flags into ArbitrageConfig.
func LoadArbitrage(cfgFile string, flags *pflag.FlagSet) (ArbitrageConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"rounds":          10,
		"trade-amount":    "20",
		"allocation":      "1000",
		"seed-a":          "1000",
		"seed-b":          "1000",
		"providers":       2,
		"traders":         3,
		"principal":       "10",
		"min-profit":      "0.1",
		"fee-numerator":   uint64(3),
		"fee-denominator": uint64(1000),
	})
	if err != nil {
		return ArbitrageConfig{}, err
	}

	a := &amounts{v: v}
	cfg := ArbitrageConfig{
		Common:           loadCommon(v),
		Rounds:           v.GetInt("rounds"),
		TradeAmount:      a.wei("trade-amount"),
		Allocation:       a.wei("allocation"),
		SeedA:            a.wei("seed-a"),
		SeedB:            a.wei("seed-b"),
		ProvidersPerPool: v.GetInt("providers"),
		TradersPerPool:   v.GetInt("traders"),
		Principal:        a.wei("principal"),
		MinProfit:        a.wei("min-profit"),
		FeeNumerator:     v.GetUint64("fee-numerator"),
		FeeDenominator:   v.GetUint64("fee-denominator"),
	}
	if a.err != nil {
		return ArbitrageConfig{}, a.err
	}
	return cfg, nil
}
