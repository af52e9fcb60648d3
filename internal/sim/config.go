package sim

import (
	"fmt"
	"math/big"

	"ammScope/internal/amm"
	"ammScope/internal/model"
)

// Config controls a single-pool simulation run.
type Config struct {
	PoolName          string
	Steps             int
	Participants      []model.Participant
	InitialAllocation *big.Int
	SeedA             *big.Int
	SeedB             *big.Int
	Fee               amm.Fee
	// SwapCapPermil bounds a swap by this share (in 1/1000) of the input reserve.
	SwapCapPermil uint64
	// Granularity is the number of steps the random amount fraction is drawn in.
	Granularity       uint64
	RatioToleranceBps uint64
	// Seed makes a run deterministic; 0 draws a random seed.
	Seed uint64
}

// DefaultConfig mirrors the reference scenario: 5 liquidity providers and
// 8 traders holding 10000 A and B each, 1000/1000 seeded per provider.
func DefaultConfig() Config {
	return Config{
		PoolName:          "dex",
		Steps:             100,
		Participants:      Roster(5, 8),
		InitialAllocation: model.MustWei("10000"),
		SeedA:             model.MustWei("1000"),
		SeedB:             model.MustWei("1000"),
		Fee:               amm.DefaultFee,
		SwapCapPermil:     100,
		Granularity:       1000,
		RatioToleranceBps: 10,
	}
}

// Roster builds named liquidity providers followed by traders.
func Roster(providers, traders int) []model.Participant {
	out := make([]model.Participant, 0, providers+traders)
	for i := 1; i <= providers; i++ {
		out = append(out, model.NewParticipant(fmt.Sprintf("lp-%d", i), model.RoleLiquidityProvider))
	}
	for i := 1; i <= traders; i++ {
		out = append(out, model.NewParticipant(fmt.Sprintf("trader-%d", i), model.RoleTrader))
	}
	return out
}

func (c Config) validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps must be >= 0")
	}
	if len(c.Participants) == 0 {
		return fmt.Errorf("participant roster is empty")
	}
	providers := 0
	seen := make(map[string]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		switch p.Role {
		case model.RoleLiquidityProvider:
			providers++
		case model.RoleTrader:
		default:
			return fmt.Errorf("participant %s: unsupported role %q", p.Name, p.Role)
		}
		key := p.Address.Hex()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("participant %s: duplicate address %s", p.Name, key)
		}
		seen[key] = struct{}{}
	}
	if providers == 0 {
		return fmt.Errorf("at least one liquidity provider is required")
	}
	if !positive(c.SeedA) || !positive(c.SeedB) {
		return fmt.Errorf("pool seed amounts must be > 0")
	}
	if c.InitialAllocation == nil || c.InitialAllocation.Sign() < 0 {
		return fmt.Errorf("initial allocation must be >= 0")
	}
	if c.InitialAllocation.Cmp(c.SeedA) < 0 || c.InitialAllocation.Cmp(c.SeedB) < 0 {
		return fmt.Errorf("initial allocation %s is below the pool seed", model.FromWei(c.InitialAllocation))
	}
	if err := c.Fee.Validate(); err != nil {
		return err
	}
	if c.SwapCapPermil == 0 || c.SwapCapPermil > permil {
		return fmt.Errorf("swap cap must be in (0, %d] permil", permil)
	}
	if c.Granularity == 0 {
		return fmt.Errorf("granularity must be > 0")
	}
	return nil
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
