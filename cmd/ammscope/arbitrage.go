package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammScope/internal/amm"
	"ammScope/internal/arbitrage"
	"ammScope/internal/config"
	"ammScope/internal/model"
	"ammScope/internal/sim"
)

func runArbitrage(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadArbitrage(cfgFile, cmd.Flags())
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
	scenario, err := sim.NewArbitrageScenario(sim.ArbitrageConfig{
		Rounds:            cfg.Rounds,
		TradeAmount:       cfg.TradeAmount,
		Allocation:        cfg.Allocation,
		SeedA:             cfg.SeedA,
		SeedB:             cfg.SeedB,
		ProvidersPerPool:  cfg.ProvidersPerPool,
		TradersPerPool:    cfg.TradersPerPool,
		Principal:         cfg.Principal,
		MinProfit:         cfg.MinProfit,
		Fee:               amm.Fee{Numerator: cfg.FeeNumerator, Denominator: cfg.FeeDenominator},
		RatioToleranceBps: 10,
		Seed:              cfg.Seed,
	}, sim.WithLogger(logger), sim.WithRegisterer(registry))
	if err != nil {
		return err
	}

	res, err := scenario.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("arbitrage scenario complete",
		zap.Uint64("seed", res.Seed),
		zap.Bool("found", res.Settlement.Found),
		zap.String("delta_a", model.FromWei(res.Settlement.DeltaA)),
		zap.String("delta_b", model.FromWei(res.Settlement.DeltaB)),
	)

	if err := writeMetrics(cfg.MetricsFile, registry); err != nil {
		return err
	}
	printArbitrage(cmd, res)
	return nil
}

func printArbitrage(cmd *cobra.Command, res *sim.ArbitrageResult) {
	out := cmd.OutOrStdout()
	for _, snap := range res.Before {
		fmt.Fprintf(out, "%s reserves: %s A, %s B\n", snap.Name, model.FromWei(snap.ReserveA), model.FromWei(snap.ReserveB))
	}
	ratio1, ratio2 := res.Ratios()
	fmt.Fprintf(out, "reserve ratio %s (A/B): %g\n", res.Before[0].Name, ratio1)
	fmt.Fprintf(out, "reserve ratio %s (A/B): %g\n", res.Before[1].Name, ratio2)

	s := res.Settlement
	fmt.Fprintf(out, "deltaA=%s deltaB=%s\n", model.FromWei(s.DeltaA), model.FromWei(s.DeltaB))
	if !s.Found {
		fmt.Fprintln(out, "Arbitrage not found")
		return
	}

	opp := s.Opportunity
	route := "A->B->A"
	if opp.StartAsset == model.AssetB {
		route = "B->A->B"
	}
	order := fmt.Sprintf("%s,%s", res.Before[0].Name, res.Before[1].Name)
	if opp.Order == arbitrage.Pool2First {
		order = fmt.Sprintf("%s,%s", res.Before[1].Name, res.Before[0].Name)
	}
	fmt.Fprintf(out, "Arbitrage found: %s %s of %s gives %s %s via %s\n",
		model.FromWei(opp.Principal), opp.StartAsset, route, model.FromWei(opp.Final), opp.StartAsset, order)
}
