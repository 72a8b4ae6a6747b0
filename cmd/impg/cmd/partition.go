package cmd

import (
	"fmt"
	"os"

	"v.io/x/lib/cmdline"

	"github.com/grailbio/base/cmdutil"

	"github.com/grailbio/impg/partition"
)

func newCmdPartition() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "partition",
		Short: "Partition a reference into non-overlapping, alignment-covered windows",
	}
	pafFlag := cmd.Flags.String("p", "", "Path to the PAF file (required)")
	forceReindex := cmd.Flags.Bool("I", false, "Force regeneration of the .impg snapshot even if it exists")
	prefixFlag := cmd.Flags.String("prefix", "", "Only sequences whose name starts with this prefix seed the initial windows")
	windowFlag := cmd.Flags.Int("window-size", 1_000_000, "Tile width for seed windows")
	minLenFlag := cmd.Flags.Int("min-len", 0, "Minimum surviving interval length; shorter ones are extended")
	outPrefix := cmd.Flags.String("out", "partition", "Output path prefix; partition N is written to <out>.N.bed")
	parallelism := cmd.Flags.Int("t", 0, "Worker-pool size for a cold build; 0 means runtime.NumCPU()")
	cpuProfile := cmd.Flags.String("cpuprofile", "", "Write a CPU profile to this directory")
	memProfile := cmd.Flags.String("memprofile", "", "Write a heap profile to this directory")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		defer startProfiling(*cpuProfile, *memProfile)()
		if *pafFlag == "" {
			return fmt.Errorf("partition: -p <paf file> is required")
		}
		g, err := loadOrBuildIndexParallel(*pafFlag, *forceReindex, *parallelism)
		if err != nil {
			return err
		}
		p := partition.New(g, partition.Config{
			Prefix:     *prefixFlag,
			WindowSize: int32(*windowFlag),
			MinLen:     int32(*minLenFlag),
		})
		return p.Run(func(num int, entries []partition.Entry) error {
			return writePartitionFile(*outPrefix, num, entries)
		})
	})
	return cmd
}

func writePartitionFile(prefix string, num int, entries []partition.Entry) error {
	path := fmt.Sprintf("%s.%d.bed", prefix, num)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, e := range entries {
		if _, err := fmt.Fprintf(f, "%s\t%d\t%d\n", e.Name, e.Start, e.End); err != nil {
			return err
		}
	}
	return nil
}
