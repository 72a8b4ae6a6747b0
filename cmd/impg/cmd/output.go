package cmd

import (
	"fmt"
	"io"

	"github.com/grailbio/impg/impg"
	"github.com/grailbio/impg/project"
)

// outputFormat selects one of the three query result renderings
// original_source's output_results_{bed,bedpe,paf} produce.
type outputFormat int

const (
	formatBED outputFormat = iota
	formatBEDPE
	formatPAF
)

// writeResults renders results (the output of a single region's query,
// self-entry included) to w in the requested format. targetID/target
// are the region that was queried; target.Label is the optional BED
// fourth column, written as the BEDPE "name" column and as the PAF
// an:Z: tag.
func writeResults(w io.Writer, g *impg.Impg, format outputFormat, strictIdentity bool, targetID uint32, target region, results []project.AdjustedInterval) error {
	switch format {
	case formatBED:
		return writeBED(w, g, results)
	case formatBEDPE:
		return writeBEDPE(w, g, target, results)
	case formatPAF:
		return writePAF(w, g, strictIdentity, targetID, target, results)
	default:
		return fmt.Errorf("unknown output format %d", format)
	}
}

func writeBED(w io.Writer, g *impg.Impg, results []project.AdjustedInterval) error {
	for _, r := range results {
		lo, hi := r.Query.Span()
		name := g.Seqs().GetName(r.Query.SeqID)
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t.\t%s\n", name, lo, hi, r.Query.Strand()); err != nil {
			return err
		}
	}
	return nil
}

func writeBEDPE(w io.Writer, g *impg.Impg, target region, results []project.AdjustedInterval) error {
	label := target.Label
	if label == "" {
		label = "."
	}
	for _, r := range results {
		lo, hi := r.Query.Span()
		name := g.Seqs().GetName(r.Query.SeqID)
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%d\t%s\t0\t%s\t+\n",
			name, lo, hi, target.Name, target.Start, target.End, label, r.Query.Strand()); err != nil {
			return err
		}
	}
	return nil
}

func writePAF(w io.Writer, g *impg.Impg, strictIdentity bool, targetID uint32, target region, results []project.AdjustedInterval) error {
	targetLen, _ := g.Seqs().GetLength(targetID)
	for _, r := range results {
		if len(r.Cigar) == 0 {
			continue // the synthetic self-entry carries no CIGAR to format
		}
		lo, hi := r.Query.Span()
		name := g.Seqs().GetName(r.Query.SeqID)
		queryLen, _ := g.Seqs().GetLength(r.Query.SeqID)
		metrics := r.Cigar.Identity(strictIdentity)

		line := fmt.Sprintf("%s\t%d\t%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t255\tcg:Z:%s",
			name, queryLen, lo, hi, r.Query.Strand(),
			target.Name, targetLen, target.Start, target.End,
			metrics.Matches, metrics.BlockLen(), r.Cigar.String())
		if target.Label != "" {
			line += "\tan:Z:" + target.Label
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
