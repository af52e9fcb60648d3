package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammScope/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for simulation runs.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the run tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutRun inserts or updates run metadata.
func (s *Store) PutRun(ctx context.Context, run model.RunRecord) error {
	if run.RunID == "" {
		return fmt.Errorf("run id required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sim_runs (run_id, pool, seed, steps, fee_numerator, fee_denominator, started_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			pool = EXCLUDED.pool,
			seed = EXCLUDED.seed,
			steps = EXCLUDED.steps,
			fee_numerator = EXCLUDED.fee_numerator,
			fee_denominator = EXCLUDED.fee_denominator,
			started_at = EXCLUDED.started_at
	`,
		run.RunID,
		run.Pool,
		fmt.Sprintf("%d", run.Seed),
		run.Steps,
		int64(run.FeeNumerator),
		int64(run.FeeDenominator),
		run.StartedAt,
	)
	return err
}

// PutSnapshotBatch upserts snapshots keyed by run and step.
func (s *Store) PutSnapshotBatch(ctx context.Context, snapshots []model.SnapshotRecord) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		shares := snap.Shares
		if shares == nil {
			shares = []model.ShareRecord{}
		}
		sharesJSON, err := json.Marshal(shares)
		if err != nil {
			return fmt.Errorf("marshal shares: %w", err)
		}
		batch.Queue(`
			INSERT INTO sim_snapshots (
				run_id, step, action, outcome, reserve_a, reserve_b, tvl, reserve_ratio, spot_price,
				slippage, total_shares, shares, volume_a, volume_b, fees
			) VALUES ($1,$2,$3,$4,$5::text::numeric,$6::text::numeric,$7::text::numeric,$8,$9,$10,$11::text::numeric,$12::text::jsonb,$13::text::numeric,$14::text::numeric,$15::text::numeric)
			ON CONFLICT (run_id, step)
			DO UPDATE SET
				action = EXCLUDED.action,
				outcome = EXCLUDED.outcome,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				tvl = EXCLUDED.tvl,
				reserve_ratio = EXCLUDED.reserve_ratio,
				spot_price = EXCLUDED.spot_price,
				slippage = EXCLUDED.slippage,
				total_shares = EXCLUDED.total_shares,
				shares = EXCLUDED.shares,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fees = EXCLUDED.fees
		`,
			snap.RunID,
			snap.Step,
			snap.Action,
			snap.Outcome,
			snap.ReserveA,
			snap.ReserveB,
			snap.TVL,
			snap.ReserveRatio,
			snap.SpotPrice,
			snap.Slippage,
			snap.TotalShares,
			string(sharesJSON),
			snap.VolumeA,
			snap.VolumeB,
			snap.Fees,
		)
	}

	return s.sendBatch(ctx, batch)
}

// PutSwapBatch upserts swap records of a run.
func (s *Store) PutSwapBatch(ctx context.Context, runID string, swaps []model.SwapRecord) error {
	if len(swaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, swap := range swaps {
		batch.Queue(`
			INSERT INTO sim_swaps (
				run_id, step, trader, direction, amount_in, amount_out, trade_lot_fraction, slippage
			) VALUES ($1,$2,$3,$4,$5::text::numeric,$6::text::numeric,$7,$8)
			ON CONFLICT (run_id, step)
			DO UPDATE SET
				trader = EXCLUDED.trader,
				direction = EXCLUDED.direction,
				amount_in = EXCLUDED.amount_in,
				amount_out = EXCLUDED.amount_out,
				trade_lot_fraction = EXCLUDED.trade_lot_fraction,
				slippage = EXCLUDED.slippage
		`,
			runID,
			swap.Step,
			swap.Trader,
			string(swap.Direction),
			swap.AmountIn,
			swap.AmountOut,
			swap.TradeLotFraction,
			swap.Slippage,
		)
	}

	return s.sendBatch(ctx, batch)
}

// CountSnapshots returns the number of stored snapshots of a run.
func (s *Store) CountSnapshots(ctx context.Context, runID string) (int, error) {
	var n int
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM sim_snapshots WHERE run_id=$1`, runID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadRun returns the metadata of a run.
func (s *Store) LoadRun(ctx context.Context, runID string) (model.RunRecord, bool, error) {
	if runID == "" {
		return model.RunRecord{}, false, fmt.Errorf("run id required")
	}
	var (
		run  model.RunRecord
		seed string
		num  int64
		den  int64
	)
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, pool, seed::text, steps, fee_numerator, fee_denominator, started_at
		FROM sim_runs WHERE run_id=$1
	`, runID)
	if err := row.Scan(&run.RunID, &run.Pool, &seed, &run.Steps, &num, &den, &run.StartedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	if _, err := fmt.Sscan(seed, &run.Seed); err != nil {
		return model.RunRecord{}, false, fmt.Errorf("parse seed %q: %w", seed, err)
	}
	run.FeeNumerator = uint64(num)
	run.FeeDenominator = uint64(den)
	return run, true, nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
