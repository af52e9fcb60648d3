package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/chain"
	"ammScope/internal/config"
	"ammScope/internal/model"
	"ammScope/internal/oracle"
	"ammScope/internal/report"
	"ammScope/internal/sim"
	"ammScope/internal/storage"
	"ammScope/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	opts := []sim.Option{sim.WithLogger(logger), sim.WithRegisterer(registry)}

	if cfg.RPCURL != "" {
		if !common.IsHexAddress(cfg.DEXAddress) {
			return fmt.Errorf("dex address is required with --rpc")
		}
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		chainID, err := chainClient.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("chain id: %w", err)
		}
		head, err := chainClient.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("latest block: %w", err)
		}
		logger.Info("oracle attached",
			zap.String("chain_id", chainID.String()),
			zap.Uint64("block", head),
			zap.String("dex", common.HexToAddress(cfg.DEXAddress).Hex()),
		)

		dexOracle, err := oracle.NewDEXOracle(chainClient, common.HexToAddress(cfg.DEXAddress), oracle.Config{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryBackoff,
		}, logger)
		if err != nil {
			return err
		}
		opts = append(opts, sim.WithVerifier(dexOracle))
	}

	driver, err := sim.NewDriver(sim.Config{
		PoolName:          "dex",
		Steps:             cfg.Steps,
		Participants:      sim.Roster(cfg.Providers, cfg.Traders),
		InitialAllocation: cfg.Allocation,
		SeedA:             cfg.SeedA,
		SeedB:             cfg.SeedB,
		Fee:               amm.Fee{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
		SwapCapPermil:     cfg.SwapCapPermil,
		Granularity:       cfg.Granularity,
		RatioToleranceBps: cfg.RatioToleranceBps,
		Seed:              cfg.Seed,
	}, opts...)
	if err != nil {
		return err
	}

	startedAt := time.Now().UTC()
	res, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.OutDir != "" {
		paths, err := report.WriteAll(cfg.OutDir, res)
		if err != nil {
			return err
		}
		logger.Info("reports written", zap.Strings("files", paths))
	}

	run := model.RunRecord{
		RunID:          fmt.Sprintf("%s-%d", startedAt.Format("20060102T150405Z"), res.Seed),
		Pool:           res.PoolName,
		Seed:           res.Seed,
		Steps:          cfg.Steps,
		FeeNumerator:   res.Fee.Numerator,
		FeeDenominator: res.Fee.Denominator,
		StartedAt:      startedAt,
	}
	snapshots := make([]model.SnapshotRecord, len(res.Series))
	for i, s := range res.Series {
		snapshots[i] = s.Record(run.RunID)
	}

	if cfg.JSONL != "" {
		if err := storage.Save(ctx, storage.NewJsonlStorage(cfg.JSONL), run, snapshots, res.Swaps); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
		logger.Info("jsonl written", zap.String("path", cfg.JSONL), zap.String("run_id", run.RunID))
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := storage.Save(ctx, store, run, snapshots, res.Swaps); err != nil {
			return fmt.Errorf("write postgres: %w", err)
		}
		logger.Info("run stored", zap.String("run_id", run.RunID))
	}

	if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Final Reserves: %s A, %s B and TVL: %s\n",
		model.FromWei(res.Final.ReserveA), model.FromWei(res.Final.ReserveB), model.FromWei(res.Final.TVL()))
	return report.WriteSummary(out, res)
}

func writeMetrics(path string, gatherer prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
