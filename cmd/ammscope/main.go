package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "ammscope",
		Short:        "Constant-product AMM simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a randomized single-pool simulation and export metrics",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().Int("steps", 100, "number of simulated steps")
	simulateCmd.Flags().Int("providers", 5, "number of liquidity providers")
	simulateCmd.Flags().Int("traders", 8, "number of traders")
	simulateCmd.Flags().String("allocation", "10000", "initial A and B per participant (ether units)")
	simulateCmd.Flags().String("seed-a", "1000", "A deposited by each provider at setup (ether units)")
	simulateCmd.Flags().String("seed-b", "1000", "B deposited by each provider at setup (ether units)")
	simulateCmd.Flags().Uint64("fee-numerator", 3, "swap fee numerator")
	simulateCmd.Flags().Uint64("fee-denominator", 1000, "swap fee denominator")
	simulateCmd.Flags().Uint64("swap-cap", 100, "largest swap as permil of the input reserve")
	simulateCmd.Flags().Uint64("granularity", 1000, "resolution of the random amount fraction")
	simulateCmd.Flags().Uint64("ratio-tolerance", 10, "deposit ratio tolerance in basis points")
	simulateCmd.Flags().Uint64("seed", 0, "random seed, 0 draws one")
	simulateCmd.Flags().String("out-dir", "./data", "directory for CSV reports, empty disables them")
	simulateCmd.Flags().String("jsonl", "", "optional JSONL output path")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	simulateCmd.Flags().String("rpc", "", "optional RPC URL of a chain hosting the DEX contract")
	simulateCmd.Flags().String("dex-address", "", "DEX contract address used as verification oracle")
	simulateCmd.Flags().Int("max-retries", 3, "maximum RPC retry attempts")
	simulateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	addLogFlags(simulateCmd)

	root.AddCommand(simulateCmd)

	arbitrageCmd := &cobra.Command{
		Use:   "arbitrage",
		Short: "Run the two-pool arbitrage scenario",
		RunE:  runArbitrage,
	}

	arbitrageCmd.Flags().Int("rounds", 10, "rounds of background trades")
	arbitrageCmd.Flags().String("trade-amount", "20", "background trade size (ether units)")
	arbitrageCmd.Flags().String("allocation", "1000", "initial A and B per participant (ether units)")
	arbitrageCmd.Flags().String("seed-a", "1000", "A deposited by each provider (ether units)")
	arbitrageCmd.Flags().String("seed-b", "1000", "B deposited by each provider (ether units)")
	arbitrageCmd.Flags().Int("providers", 2, "liquidity providers per pool")
	arbitrageCmd.Flags().Int("traders", 3, "traders per pool")
	arbitrageCmd.Flags().String("principal", "10", "arbitrage principal (ether units)")
	arbitrageCmd.Flags().String("min-profit", "0.1", "minimum profit to trade (ether units)")
	arbitrageCmd.Flags().Uint64("fee-numerator", 3, "swap fee numerator")
	arbitrageCmd.Flags().Uint64("fee-denominator", 1000, "swap fee denominator")
	arbitrageCmd.Flags().Uint64("seed", 0, "random seed, 0 draws one")
	addLogFlags(arbitrageCmd)

	root.AddCommand(arbitrageCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "optional rotating log file")
	cmd.Flags().String("metrics-file", "", "optional Prometheus textfile written at exit")
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil || file == "" {
		return logger, err
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), rotating, cfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
