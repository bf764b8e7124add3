package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tilesize/config"
	"github.com/sarchlab/tilesize/fabric"
	"github.com/sarchlab/tilesize/opt"
	"github.com/sarchlab/tilesize/record"
	"github.com/sarchlab/tilesize/report"
)

const (
	sizesFileName     = "sizes.yaml"
	snapshotsFileName = "snapshots.txt"
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Size every transistor of the tile and write a report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		defer logResourceUsage()
		return runSize(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sizeCmd)

	sizeCmd.Flags().String("arch", "",
		"Architecture YAML file. Defaults to $"+envArch+" or built-in defaults.")
	sizeCmd.Flags().String("out", "tilesize_out",
		"Output folder. Defaults to $"+envOut+".")
	sizeCmd.Flags().String("name", "tile", "Name of the tile.")
	sizeCmd.Flags().Int("workers", 0,
		"Number of parallel evaluators; 0 evaluates serially.")
	sizeCmd.Flags().Bool("record", false,
		"Record every evaluation in a new SQLite database in the output folder.")
	sizeCmd.Flags().String("record-mysql", "",
		"Record every evaluation in the MySQL database with this DSN.")
	sizeCmd.Flags().Bool("fixed-height", false,
		"Keep the tile square instead of searching its height.")
}

func runSize(cmd *cobra.Command) error {
	params, err := loadParams(cmd)
	if err != nil {
		return err
	}

	out := stringFlagOrEnv(cmd, "out", envOut)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return errors.Wrapf(err, "create output folder %s", out)
	}

	name, _ := cmd.Flags().GetString("name")
	builder := fabric.MakeBuilder().WithParams(params)

	f, err := builder.Build(name)
	if err != nil {
		return err
	}

	searcher, err := buildSearcher(cmd, f, builder, params, out)
	if err != nil {
		return err
	}

	start := time.Now()
	a := f.InitialAssignment()
	slog.Info("initial sizing",
		"Elements", len(a)-1,
		"Area", f.CostArea(),
		"Delay", f.Delay(),
	)

	groups := f.SizingGroups()

	fixed, _ := cmd.Flags().GetBool("fixed-height")
	if !fixed {
		h := searcher.LocalSearch(a, opt.HeightParam)
		a = h.Assignment
		slog.Info("tile height", "Value", h.Value, "Cost", h.Cost)

		groups = append(groups, opt.SingleParam(opt.HeightParam))
	} else {
		delete(a, opt.HeightParam)
	}

	res := searcher.CoordinateDescent(a, groups)

	e := f.Evaluate(res.Assignment)
	if !e.Valid {
		slog.Warn("final sizing has invalid measurements")
	}

	slog.Info("sizing done",
		"Passes", res.Passes,
		"Converged", res.Converged,
		"Cost", res.Cost,
		"Area", e.Area,
		"Delay", e.Delay,
		"Elapsed", time.Since(start),
	)

	return writeResults(f, res.Assignment, out)
}

func buildSearcher(
	cmd *cobra.Command,
	f *fabric.FPGA,
	builder fabric.Builder,
	params config.Params,
	out string,
) (*opt.Searcher, error) {
	sb := opt.MakeSearcherBuilder().
		WithProblem(f).
		WithLowerBounds(f.LowerBounds()).
		WithWeights(params.AreaWeight, params.DelayWeight).
		WithMaxIterations(params.MaxIterations).
		WithMaxPasses(params.MaxPasses)

	workers, _ := cmd.Flags().GetInt("workers")
	if workers > 0 {
		sb = sb.WithWorkers(workers, builder.Factory(f.Name()))
	}

	rec, err := openRecorder(cmd, out)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		slog.Info("recording evaluations", "RunID", rec.RunID())
		sb = sb.WithObserver(rec)
	}

	return sb.Build()
}

// openRecorder returns nil when recording is off. Every run records into a
// database of its own, so runs can share an output folder.
func openRecorder(cmd *cobra.Command, out string) (*record.Recorder, error) {
	if dsn, _ := cmd.Flags().GetString("record-mysql"); dsn != "" {
		return record.NewWithDriver("mysql", dsn)
	}

	if on, _ := cmd.Flags().GetBool("record"); on {
		return record.New(filepath.Join(out, "evaluations_"+xid.New().String()))
	}

	return nil, nil
}

func writeResults(f *fabric.FPGA, a opt.Assignment, out string) error {
	path := filepath.Join(out, report.DefaultReportName)
	if err := report.WriteFile(path, report.FromFPGA(f)); err != nil {
		return err
	}
	slog.Info("report written", "File", path)

	data, err := yaml.Marshal(map[string]float64(a))
	if err != nil {
		return errors.Wrap(err, "encode sizes")
	}

	sizes := filepath.Join(out, sizesFileName)
	if err := os.WriteFile(sizes, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", sizes)
	}

	return writeSnapshots(f, filepath.Join(out, snapshotsFileName))
}

func writeSnapshots(f *fabric.FPGA, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	areas, delays := displaySnapshots(f)
	tables := []struct {
		title, column string
		values        map[string]float64
	}{
		{"Areas", "Area (um^2)", areas},
		{"Widths", "Width (nm)", f.WidthSnapshot()},
		{"Delays", "Delay (ps)", delays},
	}

	for _, t := range tables {
		if err := report.WriteSnapshot(file, t.title, t.column, t.values); err != nil {
			return err
		}
	}

	return nil
}

// displaySnapshots returns the area snapshot in µm² and the delay snapshot in
// ps.
func displaySnapshots(f *fabric.FPGA) (map[string]float64, map[string]float64) {
	areas := make(map[string]float64)
	for k, v := range f.AreaSnapshot() {
		areas[k] = v / 1e6
	}

	delays := make(map[string]float64)
	for k, v := range f.DelaySnapshot() {
		delays[k] = float64(v) * 1e12
	}

	return areas, delays
}
