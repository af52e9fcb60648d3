package metrics

import (
	"fmt"

	"ammScope/internal/model"
)

// Recorder accumulates the metrics series of a run in step order.
// Entries are append-only; readers get copies.
type Recorder struct {
	series []Snapshot
	swaps  []model.SwapRecord
}

func NewRecorder(steps int) *Recorder {
	if steps < 0 {
		steps = 0
	}
	return &Recorder{
		series: make([]Snapshot, 0, steps+1),
		swaps:  make([]model.SwapRecord, 0),
	}
}

// Record appends the snapshot for the next step. Steps must arrive in order,
// starting at 0.
func (r *Recorder) Record(s Snapshot) error {
	if s.Step != len(r.series) {
		return fmt.Errorf("record step %d: expected step %d", s.Step, len(r.series))
	}
	r.series = append(r.series, s.clone())
	return nil
}

// RecordSwap appends a swap record for the slippage dataset.
func (r *Recorder) RecordSwap(rec model.SwapRecord) {
	r.swaps = append(r.swaps, rec)
}

// Len returns the number of recorded snapshots.
func (r *Recorder) Len() int {
	return len(r.series)
}

// Last returns the most recent snapshot.
func (r *Recorder) Last() (Snapshot, bool) {
	if len(r.series) == 0 {
		return Snapshot{}, false
	}
	return r.series[len(r.series)-1].clone(), true
}

// Series returns a copy of the recorded snapshots.
func (r *Recorder) Series() []Snapshot {
	out := make([]Snapshot, len(r.series))
	for i, s := range r.series {
		out[i] = s.clone()
	}
	return out
}

// Swaps returns a copy of the recorded swaps.
func (r *Recorder) Swaps() []model.SwapRecord {
	out := make([]model.SwapRecord, len(r.swaps))
	copy(out, r.swaps)
	return out
}
