package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tilesize/fabric"
	"github.com/sarchlab/tilesize/opt"
	"github.com/sarchlab/tilesize/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Evaluate a sizing without searching and print its report.",
	Long: "`report --sizes sizes.yaml` evaluates the sizes written by a " +
		"previous `size` run. Without --sizes the default sizing is used.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("arch", "",
		"Architecture YAML file. Defaults to $"+envArch+" or built-in defaults.")
	reportCmd.Flags().String("sizes", "", "Sizes YAML file of a previous run.")
	reportCmd.Flags().Bool("snapshots", false,
		"Also print the area, width and delay of every component.")
}

func runReport(cmd *cobra.Command) error {
	params, err := loadParams(cmd)
	if err != nil {
		return err
	}

	f, err := fabric.MakeBuilder().WithParams(params).Build("tile")
	if err != nil {
		return err
	}

	a := f.InitialAssignment()

	if path, _ := cmd.Flags().GetString("sizes"); path != "" {
		a, err = readSizes(path, f)
		if err != nil {
			return err
		}
	}

	f.Evaluate(a)

	w := cmd.OutOrStdout()
	if err := report.Write(w, report.FromFPGA(f)); err != nil {
		return err
	}

	if snap, _ := cmd.Flags().GetBool("snapshots"); !snap {
		return nil
	}

	areas, delays := displaySnapshots(f)
	if err := report.WriteSnapshot(w, "Areas", "Area (um^2)", areas); err != nil {
		return err
	}

	return report.WriteSnapshot(w, "Delays", "Delay (ps)", delays)
}

// readSizes reads a sizes file and checks that f knows every entry.
func readSizes(path string, f *fabric.FPGA) (opt.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read sizes %s", path)
	}

	a := opt.Assignment{}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrapf(err, "parse sizes %s", path)
	}

	known := f.Generate()
	for k := range a {
		if _, ok := known[k]; !ok && k != opt.HeightParam {
			return nil, errors.Errorf("sizes %s: unknown element %s", path, k)
		}
	}

	return a, nil
}
