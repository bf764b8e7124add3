package main

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"

	"github.com/sarchlab/tilesize/config"
)

// Environment variables that provide flag defaults. They can be set in a
// .env file in the working directory.
const (
	envArch = "TILESIZE_ARCH"
	envOut  = "TILESIZE_OUT"
)

var rootCmd = &cobra.Command{
	Use:   "tilesize",
	Short: "Size the transistors of an FPGA tile.",
	Long: `tilesize builds the transistor-level model of an FPGA tile from an ` +
		`architecture file, sizes every transistor for the best ` +
		`area-delay cost, and writes a report of the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(err, "load .env")
		}

		return setupLogging(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("log-json", false,
		"Write logs as JSON instead of text.")
	rootCmd.PersistentFlags().String("log-level", "info",
		"Lowest level to log: debug, info, warn or error.")
}

func setupLogging(cmd *cobra.Command) error {
	asJSON, _ := cmd.Flags().GetBool("log-json")
	levelName, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return errors.Wrapf(err, "log level %q", levelName)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if asJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	return nil
}

// stringFlagOrEnv returns the flag value, or the environment variable when
// the flag is not given on the command line.
func stringFlagOrEnv(cmd *cobra.Command, flag, env string) string {
	v, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		return v
	}

	if e, ok := os.LookupEnv(env); ok && e != "" {
		return e
	}

	return v
}

// loadParams reads the architecture file, or returns the defaults when no
// file is given.
func loadParams(cmd *cobra.Command) (config.Params, error) {
	path := stringFlagOrEnv(cmd, "arch", envArch)
	if path == "" {
		slog.Info("no architecture file, using defaults")
		return config.Default(), nil
	}

	slog.Info("loading architecture", "File", path)

	return config.Load(path)
}

func logResourceUsage() {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Warn("cannot inspect process", "Error", err)
		return
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		slog.Warn("cannot read CPU usage", "Error", err)
		return
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		slog.Warn("cannot read memory usage", "Error", err)
		return
	}

	slog.Info("resource usage",
		"CPUPercent", cpu,
		"RSSBytes", mem.RSS,
		"VMSBytes", mem.VMS,
	)
}
