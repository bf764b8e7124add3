package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tilesize/report"
)

var collateCmd = &cobra.Command{
	Use:   "collate folder...",
	Short: "Collate the tile area contributions of many runs.",
	Long: "`collate -x N runs/` finds every report under the folders and " +
		"writes one row per run, ordered by the architecture key given with -x. " +
		"Keys: " + strings.Join(report.ArchKeys(), ", ") + ".",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(collateCmd)

	collateCmd.Flags().StringP("report-file", "r", report.DefaultReportName,
		"Report file name to look for.")
	collateCmd.Flags().StringP("x-axis", "x", "",
		"Architecture key to order the runs by.")
	collateCmd.Flags().StringP("output", "o", "",
		"CSV file to write. Without it a table is printed.")
	_ = collateCmd.MarkFlagRequired("x-axis")
}

func runCollate(cmd *cobra.Command, folders []string) error {
	name, _ := cmd.Flags().GetString("report-file")
	xAxis, _ := cmd.Flags().GetString("x-axis")
	output, _ := cmd.Flags().GetString("output")

	slog.Info("collating reports", "Folders", folders)

	c, err := report.Collate(folders, name, xAxis)
	if err != nil {
		return err
	}

	slog.Info("reports found", "Count", len(c.Reports))

	if output == "" {
		fmt.Fprintln(cmd.OutOrStdout(), c.Table().Render())
		return nil
	}

	if err := os.WriteFile(output, []byte(c.CSV()+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", output)
	}

	slog.Info("collation written", "File", output)

	return nil
}
