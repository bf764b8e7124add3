package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
)

const smallArch = `n: 2
k: 4
w: 40
l: 4
i: 8
max_iterations: 1
max_passes: 1
`

var _ = Describe("Command line", Ordered, func() {
	var (
		dir  string
		arch string
		out  string
	)

	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetArgs(append(args, "--log-level", "error"))
		err := rootCmd.Execute()

		return buf.String(), err
	}

	BeforeAll(func() {
		dir = GinkgoT().TempDir()
		arch = filepath.Join(dir, "arch.yaml")
		out = filepath.Join(dir, "runs", "n2")
		Expect(os.WriteFile(arch, []byte(smallArch), 0o644)).To(Succeed())
	})

	It("should size a tile and write its results", func() {
		_, err := run("size", "--arch", arch, "--out", out,
			"--record", "--fixed-height")
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{
			"report.txt", sizesFileName, snapshotsFileName,
		} {
			Expect(filepath.Join(out, name)).To(BeAnExistingFile())
		}

		dbs, err := filepath.Glob(filepath.Join(out, "evaluations_*.sqlite3"))
		Expect(err).NotTo(HaveOccurred())
		Expect(dbs).To(HaveLen(1))
	})

	It("should record a second run into the same folder", func() {
		_, err := run("size", "--arch", arch, "--out", out,
			"--record", "--fixed-height")
		Expect(err).NotTo(HaveOccurred())

		dbs, err := filepath.Glob(filepath.Join(out, "evaluations_*.sqlite3"))
		Expect(err).NotTo(HaveOccurred())
		Expect(dbs).To(HaveLen(2))
	})

	It("should report a previous sizing", func() {
		text, err := run("report", "--arch", arch,
			"--sizes", filepath.Join(out, sizesFileName))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(HavePrefix("ARCHITECTURE PARAMETERS:"))
		Expect(text).To(ContainSubstring("Number of BLEs per cluster (N): 2\n"))
	})

	It("should reject sizes of another architecture", func() {
		bad := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(bad, []byte("not_a_transistor: 2\n"), 0o644)).
			To(Succeed())

		_, err := run("report", "--arch", arch, "--sizes", bad)
		Expect(err).To(MatchError(ContainSubstring("unknown element")))
	})

	It("should collate the runs", func() {
		csv := filepath.Join(dir, "area.csv")
		_, err := run("collate", filepath.Join(dir, "runs"), "-x", "N", "-o", csv)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(csv)
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[1]).To(HavePrefix("2,"))
	})
})

var _ = Describe("Flag defaults", func() {
	var cmd *cobra.Command

	BeforeEach(func() {
		cmd = &cobra.Command{Use: "size"}
		cmd.Flags().String("out", "default_out", "")
		GinkgoT().Setenv(envOut, "from_env")
	})

	It("should fall back to the environment", func() {
		Expect(stringFlagOrEnv(cmd, "out", envOut)).To(Equal("from_env"))
	})

	It("should prefer a given flag", func() {
		Expect(cmd.Flags().Set("out", "from_flag")).To(Succeed())
		Expect(stringFlagOrEnv(cmd, "out", envOut)).To(Equal("from_flag"))
	})
})
