package cmd

import (
	"fmt"
	"os"
	"runtime"

	"v.io/x/lib/cmdline"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/syncqueue"

	"github.com/grailbio/impg/impg"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/project"
)

type queryFlags struct {
	paf            *string
	forceReindex   *bool
	targetRange    *string
	targetBED      *string
	transitive     *bool
	outputPAF      *bool
	outputBEDPE    *bool
	strictIdentity *bool
	parallelism    *int
	cpuProfile     *string
	memProfile     *string
}

func newCmdQuery() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "query",
		Short:    "Query overlaps against an indexed PAF file",
		ArgsName: "",
	}
	flags := queryFlags{
		paf:            cmd.Flags.String("p", "", "Path to the PAF file (required)"),
		forceReindex:   cmd.Flags.Bool("I", false, "Force regeneration of the .impg snapshot even if it exists"),
		targetRange:    cmd.Flags.String("r", "", "Target range in the format seq_name:start-end"),
		targetBED:      cmd.Flags.String("b", "", "Path to a BED file of target regions, queried in row order"),
		transitive:     cmd.Flags.Bool("x", false, "Follow transitive overlaps (QueryTransitive instead of Query)"),
		outputPAF:      cmd.Flags.Bool("P", false, "Emit PAF instead of BED/BEDPE"),
		outputBEDPE:    cmd.Flags.Bool("bedpe", false, "Emit BEDPE instead of BED (ignored with -P, and implied by -b)"),
		strictIdentity: cmd.Flags.Bool("strict-identity", false, "Exclude CIGAR 'M' operations from identity metrics instead of counting them as matches"),
		parallelism:    cmd.Flags.Int("t", 0, "Worker count for BED-file batch queries; 0 means runtime.NumCPU()"),
		cpuProfile:     cmd.Flags.String("cpuprofile", "", "Write a CPU profile to this directory"),
		memProfile:     cmd.Flags.String("memprofile", "", "Write a heap profile to this directory"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runQuery(flags)
	})
	return cmd
}

func runQuery(flags queryFlags) error {
	defer startProfiling(*flags.cpuProfile, *flags.memProfile)()
	if *flags.paf == "" {
		return fmt.Errorf("query: -p <paf file> is required")
	}
	if (*flags.targetRange == "") == (*flags.targetBED == "") {
		return fmt.Errorf("query: exactly one of -r or -b must be given")
	}

	g, err := loadOrBuildIndexParallel(*flags.paf, *flags.forceReindex, *flags.parallelism)
	if err != nil {
		return err
	}

	format := formatBED
	switch {
	case *flags.outputPAF:
		format = formatPAF
	case *flags.outputBEDPE || *flags.targetBED != "":
		format = formatBEDPE
	}

	if *flags.targetRange != "" {
		r, err := parseRegion(*flags.targetRange)
		if err != nil {
			return err
		}
		return queryOne(os.Stdout, g, format, *flags.strictIdentity, *flags.transitive, r)
	}

	regions, err := parseBEDFile(*flags.targetBED)
	if err != nil {
		return err
	}
	return queryBatch(os.Stdout, g, format, *flags.strictIdentity, *flags.transitive, regions, *flags.parallelism)
}

func queryOne(w *os.File, g *impg.Impg, format outputFormat, strictIdentity, transitive bool, r region) error {
	targetID, ok := g.Seqs().GetID(r.Name)
	if !ok {
		return impgerr.Ef(impgerr.UnknownSequence, "cmd.query", "unknown sequence %q", r.Name)
	}
	results, err := runOneQuery(g, targetID, r, transitive)
	if err != nil {
		return err
	}
	return writeResults(w, g, format, strictIdentity, targetID, r, results)
}

func runOneQuery(g *impg.Impg, targetID uint32, r region, transitive bool) ([]project.AdjustedInterval, error) {
	if transitive {
		return g.QueryTransitive(targetID, r.Start, r.End)
	}
	return g.Query(targetID, r.Start, r.End)
}

// queryBatch spreads the BED rows over a pool of parallelism worker
// goroutines, preserving row order in the emitted output via an
// OrderedQueue, following viewShards in cmd/bio-pamtool/cmd/view.go.
func queryBatch(w *os.File, g *impg.Impg, format outputFormat, strictIdentity, transitive bool, regions []region, parallelism int) error {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	type rowResult struct {
		targetID uint32
		region   region
		results  []project.AdjustedInterval
		err      error
	}
	oq := syncqueue.NewOrderedQueue(len(regions))
	rowCh := make(chan int, len(regions))
	for i := range regions {
		rowCh <- i
	}
	close(rowCh)

	for worker := 0; worker < parallelism; worker++ {
		go func() {
			for i := range rowCh {
				r := regions[i]
				targetID, ok := g.Seqs().GetID(r.Name)
				if !ok {
					oq.Insert(i, rowResult{region: r, err: impgerr.Ef(impgerr.UnknownSequence, "cmd.queryBatch", "row %d: unknown sequence %q", i, r.Name)})
					continue
				}
				results, err := runOneQuery(g, targetID, r, transitive)
				if err != nil {
					oq.Insert(i, rowResult{targetID: targetID, region: r, err: err})
					continue
				}
				oq.Insert(i, rowResult{targetID: targetID, region: r, results: results})
			}
		}()
	}

	for range regions {
		val, ok, err := oq.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		rr := val.(rowResult)
		if rr.err != nil {
			log.Error.Printf("impg: query row %q:%d-%d: %v", rr.region.Name, rr.region.Start, rr.region.End, rr.err)
			return rr.err
		}
		if err := writeResults(w, g, format, strictIdentity, rr.targetID, rr.region, rr.results); err != nil {
			return err
		}
	}
	return nil
}
