package config

import (
	"math/big"
	"time"

	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for the simulate command. Amounts are
// configured in ether units and held in wei.
type SimulateConfig struct {
	Common
	Steps             int
	Providers         int
	Traders           int
	Allocation        *big.Int
	SeedA             *big.Int
	SeedB             *big.Int
	FeeNumerator      uint64
	FeeDenominator    uint64
	SwapCapPermil     uint64
	Granularity       uint64
	RatioToleranceBps uint64
	OutDir            string
	JSONL             string
	PGDSN             string
	RPCURL            string
	DEXAddress        string
	MaxRetries        int
	RetryBackoff      time.Duration
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"steps":           100,
		"providers":       5,
		"traders":         8,
		"allocation":      "10000",
		"seed-a":          "1000",
		"seed-b":          "1000",
		"fee-numerator":   uint64(3),
		"fee-denominator": uint64(1000),
		"swap-cap":        uint64(100),
		"granularity":     uint64(1000),
		"ratio-tolerance": uint64(10),
		"out-dir":         "./data",
		"max-retries":     3,
		"retry-backoff":   500 * time.Millisecond,
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	a := &amounts{v: v}
	cfg := SimulateConfig{
		Common:            loadCommon(v),
		Steps:             v.GetInt("steps"),
		Providers:         v.GetInt("providers"),
		Traders:           v.GetInt("traders"),
		Allocation:        a.wei("allocation"),
		SeedA:             a.wei("seed-a"),
		SeedB:             a.wei("seed-b"),
		FeeNumerator:      v.GetUint64("fee-numerator"),
		FeeDenominator:    v.GetUint64("fee-denominator"),
		SwapCapPermil:     v.GetUint64("swap-cap"),
		Granularity:       v.GetUint64("granularity"),
		RatioToleranceBps: v.GetUint64("ratio-tolerance"),
		OutDir:            v.GetString("out-dir"),
		JSONL:             v.GetString("jsonl"),
		PGDSN:             v.GetString("pg-dsn"),
		RPCURL:            v.GetString("rpc"),
		DEXAddress:        v.GetString("dex-address"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}
	if a.err != nil {
		return SimulateConfig{}, a.err
	}
	return cfg, nil
}
