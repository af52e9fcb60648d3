package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ammScope/internal/metrics"
	"ammScope/internal/model"
	"ammScope/internal/sim"
)

// Output file names.
const (
	MetricsFile  = "dex_metrics.csv"
	LPFile       = "lp_distribution.csv"
	VolumeFile   = "swap_volume_data.csv"
	SlippageFile = "slippage_vs_trade_size.csv"
	SummaryFile  = "swap_summary.txt"
)

// WriteAll writes every report of a finished run into dir and returns the
// written paths.
func WriteAll(dir string, res *sim.Result) ([]string, error) {
	if res == nil {
		return nil, fmt.Errorf("result is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, *sim.Result) error
	}{
		{MetricsFile, WriteMetrics},
		{LPFile, WriteLPDistribution},
		{VolumeFile, WriteSwapVolume},
		{SlippageFile, WriteSlippage},
		{SummaryFile, WriteSummary},
	}

	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, w.name)
		if err := writeFile(path, res, w.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, res *sim.Result, write func(io.Writer, *sim.Result) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, res); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteMetrics writes time,tvl,reserveRatio,spotPrice,slippage per step.
func WriteMetrics(w io.Writer, res *sim.Result) error {
	rows := [][]string{{"time", "tvl", "reserveRatio", "spotPrice", "slippage"}}
	for _, s := range res.Series {
		slippage := ""
		if s.Slippage != nil {
			slippage = formatFloat(*s.Slippage)
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Step),
			model.FromWei(s.TVL),
			formatFloat(s.ReserveRatio),
			formatFloat(s.SpotPrice),
			slippage,
		})
	}
	return writeCSV(w, rows)
}

// WriteLPDistribution writes each provider's share balance per step plus the
// total across providers.
func WriteLPDistribution(w io.Writer, res *sim.Result) error {
	header := []string{"time"}
	for _, lp := range res.Providers {
		header = append(header, model.ShortAddress(lp.Address))
	}
	header = append(header, "totalLP")

	rows := [][]string{header}
	for _, s := range res.Series {
		byProvider := make(map[string]string, len(s.Shares))
		for _, sb := range s.Shares {
			byProvider[sb.Provider.Hex()] = model.FromWei(sb.Shares)
		}
		row := []string{strconv.Itoa(s.Step)}
		for _, lp := range res.Providers {
			row = append(row, byProvider[lp.Address.Hex()])
		}
		row = append(row, model.FromWei(s.TotalShares))
		rows = append(rows, row)
	}
	return writeCSV(w, rows)
}

// WriteSwapVolume writes cumulative swap volume and fees per step.
func WriteSwapVolume(w io.Writer, res *sim.Result) error {
	rows := [][]string{{"time", "swapVolumeA", "swapVolumeB", "fees"}}
	for _, s := range res.Series {
		rows = append(rows, []string{
			strconv.Itoa(s.Step),
			model.FromWei(s.VolumeA),
			model.FromWei(s.VolumeB),
			model.FromWei(s.Fees),
		})
	}
	return writeCSV(w, rows)
}

// WriteSlippage writes one row per executed swap.
func WriteSlippage(w io.Writer, res *sim.Result) error {
	rows := [][]string{{"tradeLotFraction", "slippage", "swapType"}}
	for _, rec := range res.Swaps {
		rows = append(rows, []string{
			formatFloat(rec.TradeLotFraction),
			formatFloat(rec.Slippage),
			string(rec.Direction),
		})
	}
	return writeCSV(w, rows)
}

// SlippageStats summarizes realized slippage over a run's swaps.
type SlippageStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

// Slippage computes slippage statistics; ok is false when no swap executed.
func Slippage(swaps []model.SwapRecord) (SlippageStats, bool) {
	if len(swaps) == 0 {
		return SlippageStats{}, false
	}
	values := make([]float64, len(swaps))
	for i, rec := range swaps {
		values[i] = rec.Slippage
	}
	sort.Float64s(values)

	st := SlippageStats{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    floats.Min(values),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Max:    floats.Max(values),
	}
	if len(values) > 1 {
		st.StdDev = stat.StdDev(values, nil)
	}
	return st, true
}

// WriteSummary writes run totals in a human-readable form.
func WriteSummary(w io.Writer, res *sim.Result) error {
	t := res.Totals
	lines := []string{
		fmt.Sprintf("Seed: %d", res.Seed),
		fmt.Sprintf("Total Swaps: %d", t.SwapCount),
		fmt.Sprintf("Total Swap Volume A: %s", model.FromWei(t.VolumeA)),
		fmt.Sprintf("Total Swap Volume B: %s", model.FromWei(t.VolumeB)),
		fmt.Sprintf("Total Fee Accumulation: %s (%s%% fee rate)", model.FromWei(t.Fees), formatFloat(res.Fee.Percent())),
		fmt.Sprintf("Fees A: %s", model.FromWei(t.FeeA)),
		fmt.Sprintf("Fees B: %s", model.FromWei(t.FeeB)),
		fmt.Sprintf("Final Reserves: %s A, %s B", model.FromWei(res.Final.ReserveA), model.FromWei(res.Final.ReserveB)),
		fmt.Sprintf("Final TVL: %s", model.FromWei(res.Final.TVL())),
	}
	if st, ok := Slippage(res.Swaps); ok {
		lines = append(lines, fmt.Sprintf(
			"Slippage %%: mean %s, stddev %s, min %s, median %s, max %s",
			formatFloat(st.Mean), formatFloat(st.StdDev), formatFloat(st.Min), formatFloat(st.Median), formatFloat(st.Max),
		))
	}
	lines = append(lines, fmt.Sprintf("Failed Steps: %d", countOutcome(res.Steps, metrics.OutcomeFailed)))

	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func countOutcome(steps []sim.StepLog, outcome metrics.StepOutcome) int {
	n := 0
	for _, s := range steps {
		if s.Outcome == outcome {
			n++
		}
	}
	return n
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
