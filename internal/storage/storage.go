package storage

import (
	"context"
	"fmt"

	"ammScope/internal/model"
)

// Storage defines a sink for simulation runs.
type Storage interface {
	PutRun(ctx context.Context, run model.RunRecord) error
	PutSnapshotBatch(ctx context.Context, snapshots []model.SnapshotRecord) error
	PutSwapBatch(ctx context.Context, runID string, swaps []model.SwapRecord) error
}

// Save writes a run, its snapshots and its swaps to s in that order.
func Save(ctx context.Context, s Storage, run model.RunRecord, snapshots []model.SnapshotRecord, swaps []model.SwapRecord) error {
	if err := s.PutRun(ctx, run); err != nil {
		return fmt.Errorf("put run: %w", err)
	}
	if err := s.PutSnapshotBatch(ctx, snapshots); err != nil {
		return fmt.Errorf("put snapshots: %w", err)
	}
	if err := s.PutSwapBatch(ctx, run.RunID, swaps); err != nil {
		return fmt.Errorf("put swaps: %w", err)
	}
	return nil
}
