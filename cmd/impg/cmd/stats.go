package cmd

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/base/cmdutil"

	"github.com/grailbio/impg/impg"
)

func newCmdStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "stats",
		Short: "Print summary statistics about an indexed PAF file",
	}
	pafFlag := cmd.Flags.String("p", "", "Path to the PAF file (required)")
	forceReindex := cmd.Flags.Bool("I", false, "Force regeneration of the .impg snapshot even if it exists")
	strictIdentity := cmd.Flags.Bool("strict-identity", false, "Exclude CIGAR 'M' operations from identity metrics instead of counting them as matches")
	parallelism := cmd.Flags.Int("t", 0, "Worker-pool size for a cold build; 0 means runtime.NumCPU()")
	cpuProfile := cmd.Flags.String("cpuprofile", "", "Write a CPU profile to this directory")
	memProfile := cmd.Flags.String("memprofile", "", "Write a heap profile to this directory")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		defer startProfiling(*cpuProfile, *memProfile)()
		if *pafFlag == "" {
			return fmt.Errorf("stats: -p <paf file> is required")
		}
		g, err := loadOrBuildIndexParallel(*pafFlag, *forceReindex, *parallelism)
		if err != nil {
			return err
		}
		return printStats(g, *strictIdentity)
	})
	return cmd
}

// printStats follows original_source's print_stats (sequence count,
// overlap count), extended per the Domain Stack with gonum-computed
// identity summary statistics across every indexed alignment record.
func printStats(g *impg.Impg, strictIdentity bool) error {
	fmt.Printf("Number of sequences: %d\n", g.Seqs().Len())
	fmt.Printf("Number of alignment records: %d\n", g.RecordCount())

	gapCompressed, block := g.IdentitySamples(strictIdentity)
	if len(gapCompressed) == 0 {
		return nil
	}
	gcMean, gcStd := stat.MeanStdDev(gapCompressed, nil)
	blMean, blStd := stat.MeanStdDev(block, nil)
	fmt.Printf("Gap-compressed identity: mean=%.4f stddev=%.4f\n", gcMean, gcStd)
	fmt.Printf("Block identity:          mean=%.4f stddev=%.4f\n", blMean, blStd)
	return nil
}
