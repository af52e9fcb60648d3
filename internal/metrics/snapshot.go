package metrics

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"ammScope/internal/model"
)

// StepOutcome classifies what happened at a simulation step.
type StepOutcome string

const (
	OutcomeSetup    StepOutcome = "setup"
	OutcomeExecuted StepOutcome = "executed"
	OutcomeNoop     StepOutcome = "noop"
	OutcomeFailed   StepOutcome = "failed"
)

// ShareBalance is a liquidity provider's share balance at a step.
type ShareBalance struct {
	Provider common.Address
	Shares   *big.Int
}

// Snapshot is the post-step state of a run.
type Snapshot struct {
	Step         int
	Action       string
	Outcome      StepOutcome
	ReserveA     *big.Int
	ReserveB     *big.Int
	TVL          *big.Int
	ReserveRatio float64
	SpotPrice    float64
	// Slippage is set only when a non-zero swap executed at this step.
	Slippage    *float64
	Shares      []ShareBalance
	TotalShares *big.Int
	VolumeA     *big.Int
	VolumeB     *big.Int
	Fees        *big.Int
}

// Record converts the snapshot to its storage form.
func (s Snapshot) Record(runID string) model.SnapshotRecord {
	r := model.SnapshotRecord{
		RunID:        runID,
		Step:         s.Step,
		Action:       s.Action,
		Outcome:      string(s.Outcome),
		ReserveA:     intString(s.ReserveA),
		ReserveB:     intString(s.ReserveB),
		TVL:          intString(s.TVL),
		ReserveRatio: s.ReserveRatio,
		SpotPrice:    s.SpotPrice,
		TotalShares:  intString(s.TotalShares),
		VolumeA:      intString(s.VolumeA),
		VolumeB:      intString(s.VolumeB),
		Fees:         intString(s.Fees),
	}
	if s.Slippage != nil {
		v := *s.Slippage
		r.Slippage = &v
	}
	for _, sb := range s.Shares {
		r.Shares = append(r.Shares, model.ShareRecord{Provider: sb.Provider.Hex(), Shares: intString(sb.Shares)})
	}
	return r
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.ReserveA = cloneInt(s.ReserveA)
	out.ReserveB = cloneInt(s.ReserveB)
	out.TVL = cloneInt(s.TVL)
	out.TotalShares = cloneInt(s.TotalShares)
	out.VolumeA = cloneInt(s.VolumeA)
	out.VolumeB = cloneInt(s.VolumeB)
	out.Fees = cloneInt(s.Fees)
	if s.Slippage != nil {
		v := *s.Slippage
		out.Slippage = &v
	}
	if s.Shares != nil {
		out.Shares = make([]ShareBalance, len(s.Shares))
		for i, sb := range s.Shares {
			out.Shares[i] = ShareBalance{Provider: sb.Provider, Shares: cloneInt(sb.Shares)}
		}
	}
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
