package model

import (
	"encoding/json"
	"time"
)

// RunRecord identifies one simulation run in storage.
type RunRecord struct {
	RunID          string    `json:"run_id"`
	Pool           string    `json:"pool"`
	Seed           uint64    `json:"seed"`
	Steps          int       `json:"steps"`
	FeeNumerator   uint64    `json:"fee_numerator"`
	FeeDenominator uint64    `json:"fee_denominator"`
	StartedAt      time.Time `json:"started_at"`
}

// ShareRecord is a provider's liquidity share balance in wei.
type ShareRecord struct {
	Provider string `json:"provider"`
	Shares   string `json:"shares"`
}

// SnapshotRecord is the storage form of a metrics snapshot. Amounts are
// decimal wei strings.
type SnapshotRecord struct {
	RunID        string        `json:"run_id"`
	Step         int           `json:"step"`
	Action       string        `json:"action,omitempty"`
	Outcome      string        `json:"outcome"`
	ReserveA     string        `json:"reserve_a"`
	ReserveB     string        `json:"reserve_b"`
	TVL          string        `json:"tvl"`
	ReserveRatio float64       `json:"reserve_ratio"`
	SpotPrice    float64       `json:"spot_price"`
	Slippage     *float64      `json:"slippage,omitempty"`
	TotalShares  string        `json:"total_shares"`
	Shares       []ShareRecord `json:"shares"`
	VolumeA      string        `json:"volume_a"`
	VolumeB      string        `json:"volume_b"`
	Fees         string        `json:"fees"`
}

// MarshalJSON keeps an empty share list as [] rather than null.
func (r SnapshotRecord) MarshalJSON() ([]byte, error) {
	type Alias SnapshotRecord
	if r.Shares == nil {
		r.Shares = []ShareRecord{}
	}
	return json.Marshal(Alias(r))
}
