// Package impg is the facade over the whole system: it owns the sequence
// index, the per-target interval indexes, and the alignment record store,
// and exposes the query surface the rest of the system (CLI, partitioner)
// is built on.
package impg

import (
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/intervalindex"
	"github.com/grailbio/impg/project"
	"github.com/grailbio/impg/seqindex"
)

// Impg is immutable once built; all query methods take it by pointer but
// never mutate it, so a single Impg may be shared across concurrent
// queries without locking.
type Impg struct {
	seqs       *seqindex.Index
	records    []align.Record
	byTarget   map[uint32]*intervalindex.Index
	sourcePath string
}

// Build takes seqs as already populated by the PAF reader (which interns
// names as it tokenizes the input), validates and groups records by
// target id, and constructs one IntervalIndex per target. sourcePath is
// retained only for snapshot provenance.
//
// Per-target index construction runs concurrently across
// runtime.NumCPU() workers, one per target id, independent of one
// another; the first error from any worker wins. Use
// BuildParallel to inject a different worker-pool size.
func Build(seqs *seqindex.Index, records []align.Record, sourcePath string) (*Impg, error) {
	return BuildParallel(seqs, records, sourcePath, runtime.NumCPU())
}

// BuildParallel is Build with an explicit worker-pool size, so a caller
// (the CLI's -t flag) can inject the pool rather than this
// package assuming exclusive ownership of a process-wide one (spec
// section 5).
func BuildParallel(seqs *seqindex.Index, records []align.Record, sourcePath string, parallelism int) (*Impg, error) {
	const op = "Impg.Build"
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	var (
		valErr  errors.Once
		valWG   sync.WaitGroup
		valSem  = make(chan struct{}, parallelism)
		targets = make([]uint32, len(records))
	)
	for i := range records {
		i := i
		valWG.Add(1)
		valSem <- struct{}{}
		go func() {
			defer valWG.Done()
			defer func() { <-valSem }()
			if err := records[i].Validate(); err != nil {
				valErr.Set(err)
			}
		}()
	}
	valWG.Wait()
	if err := valErr.Err(); err != nil {
		kind := impgerr.KindOf(err)
		if kind == impgerr.Other {
			kind = impgerr.InputFormat
		}
		return nil, impgerr.E(kind, op, err)
	}

	byRecordTarget := make(map[uint32][]uint32)
	for i, r := range records {
		targets[i] = r.TargetID
		byRecordTarget[r.TargetID] = append(byRecordTarget[r.TargetID], uint32(i))
	}
	uniqueTargets := make([]uint32, 0, len(byRecordTarget))
	for t := range byRecordTarget {
		uniqueTargets = append(uniqueTargets, t)
	}

	var (
		idxErr   errors.Once
		mu       sync.Mutex
		byTarget = make(map[uint32]*intervalindex.Index, len(uniqueTargets))
		wg       sync.WaitGroup
		sem      = make(chan struct{}, parallelism)
	)
	for _, t := range uniqueTargets {
		t := t
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			b := intervalindex.NewBuilder()
			for _, ridx := range byRecordTarget[t] {
				r := &records[ridx]
				b.Add(r.TStart, r.TEnd, ridx)
			}
			idx := b.Build()
			mu.Lock()
			byTarget[t] = idx
			mu.Unlock()
		}()
	}
	wg.Wait()
	if err := idxErr.Err(); err != nil {
		return nil, impgerr.E(impgerr.InputFormat, op, err)
	}

	log.Printf("impg: built index over %d target(s), %d record(s), source %q", len(byTarget), len(records), sourcePath)
	return &Impg{seqs: seqs, records: records, byTarget: byTarget, sourcePath: sourcePath}, nil
}

// Seqs returns the sequence index backing this Impg.
func (g *Impg) Seqs() *seqindex.Index { return g.seqs }

// SourcePath returns the provenance path recorded at build time.
func (g *Impg) SourcePath() string { return g.sourcePath }

// RecordCount returns the number of alignment records indexed.
func (g *Impg) RecordCount() int { return len(g.records) }

// IdentitySamples returns, across every indexed alignment record, its
// gap-compressed and block identity, for summary
// statistics (the stats subcommand).
func (g *Impg) IdentitySamples(strict bool) (gapCompressed, block []float64) {
	gapCompressed = make([]float64, len(g.records))
	block = make([]float64, len(g.records))
	for i, r := range g.records {
		m := r.Cigar.Identity(strict)
		gapCompressed[i] = m.GapCompressed()
		block[i] = m.Block()
	}
	return gapCompressed, block
}

// Query stabs targetID's IntervalIndex with [start,end), projects each hit
// through the Projector, and prepends a synthetic self-entry (an identity
// projection of the input range) so callers can distinguish the seed from
// discovered coverage.
func (g *Impg) Query(targetID uint32, start, end int32) ([]project.AdjustedInterval, error) {
	const op = "Impg.Query"
	if start >= end {
		return nil, impgerr.Ef(impgerr.RangeInverted, op, "query range [%d,%d) is not increasing", start, end)
	}
	length, ok := g.seqs.GetLength(targetID)
	if !ok {
		return nil, impgerr.Ef(impgerr.UnknownSequence, op, "unknown target id %d", targetID)
	}
	if end > length {
		return nil, impgerr.Ef(impgerr.RangeOutOfBounds, op, "query end %d exceeds sequence length %d", end, length)
	}

	results := []project.AdjustedInterval{{
		Query:  project.Range{SeqID: targetID, First: start, Last: end},
		Target: project.Range{SeqID: targetID, First: start, Last: end},
	}}

	idx := g.byTarget[targetID]
	for _, hit := range idx.Query(start, end) {
		rec := &g.records[hit.Record]
		adj, err := project.Project(rec, start, end)
		if err != nil {
			return nil, impgerr.E(impgerr.CigarInconsistent, op, err)
		}
		if adj == nil {
			continue
		}
		results = append(results, *adj)
	}
	return results, nil
}

// CheckViolation reports a CheckIntervals failure. Record is the position
// of the offending entry within the results slice passed to
// CheckIntervals, not an alignment record index; Reason describes the
// mismatch found.
type CheckViolation struct {
	Record uint32
	Reason error
}

// CheckIntervals reports every result whose query span differs from the
// query-consumed length of its sub-CIGAR. That is the only invariant it
// checks: it does not re-walk the underlying alignment record's CIGAR and
// does not check the target side. It never mutates g; failures here are
// diagnostic, not fatal.
func (g *Impg) CheckIntervals(results []project.AdjustedInterval) []CheckViolation {
	var violations []CheckViolation
	for i, r := range results {
		if len(r.Cigar) == 0 {
			continue // the synthetic self-entry carries no sub-CIGAR to re-check
		}
		qlen := r.Query.Len()
		clen := int32(r.Cigar.QueryLen())
		if qlen != clen {
			violations = append(violations, CheckViolation{
				Record: uint32(i),
				Reason: impgerr.Ef(impgerr.CigarInconsistent, "Impg.CheckIntervals",
					"result %d: query span %d != sub-CIGAR query-consumed length %d", i, qlen, clen),
			})
		}
	}
	return violations
}
