// Package partition implements the greedy window/mask/missing-region
// fixed-point loop that covers a chosen set of sequences with
// non-overlapping, mutually projected regions.
package partition

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/grailbio/base/log"

	"github.com/grailbio/impg/impg"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/project"
	"github.com/grailbio/impg/span"
)

const (
	// nearMergeGap is the maximum gap between same-sequence intervals
	// discovered within one window that are merged before mask
	// subtraction.
	nearMergeGap int32 = 10000
	// maskAdjacentGap is the maximum gap that counts as "touching" when
	// unioning newly-covered ranges into masked_regions.
	maskAdjacentGap int32 = 1
)

// Entry is one emitted partition-file row: a query-side interval,
// normalized so Start < End.
type Entry struct {
	SeqID      uint32
	Name       string
	Start, End int32
}

// Writer is called once per partition with its sequential number and its
// (already non-overlapping) entries.
type Writer func(partitionNum int, entries []Entry) error

// Config holds the Partitioner's tunable inputs.
type Config struct {
	Prefix     string
	WindowSize int32
	MinLen     int32
}

// Partitioner runs the greedy partitioning loop against one built Impg.
type Partitioner struct {
	g      *impg.Impg
	cfg    Config
	masked map[uint32]*span.Set
	num    int
}

// New returns a Partitioner ready to Run against g.
func New(g *impg.Impg, cfg Config) *Partitioner {
	return &Partitioner{g: g, cfg: cfg, masked: make(map[uint32]*span.Set)}
}

type window struct {
	seqID      uint32
	start, end int32
}

// Run executes the fixed-point loop until every indexed sequence's
// missing region is empty, calling write once per emitted partition.
func (p *Partitioner) Run(write Writer) error {
	const op = "Partitioner.Run"

	windows := p.seedWindows()
	for {
		for _, w := range windows {
			entries, err := p.processWindow(w)
			if err != nil {
				return impgerr.E(impgerr.Other, op, err)
			}
			if err := write(p.num, entries); err != nil {
				return impgerr.E(impgerr.IoError, op, err)
			}
			p.num++
		}

		longest, ok := p.longestMissing()
		if !ok {
			return nil
		}
		windows = tileWindow(longest, p.cfg.WindowSize)
		log.Printf("partition: reseeding from longest missing region seq=%d [%d,%d)", longest.seqID, longest.start, longest.end)
	}
}

// seedWindows tiles every sequence whose name starts with Prefix.
func (p *Partitioner) seedWindows() []window {
	var windows []window
	p.g.Seqs().Each(func(id uint32, name string, length int32) {
		if !strings.HasPrefix(name, p.cfg.Prefix) {
			return
		}
		windows = append(windows, tileWindow(window{id, 0, length}, p.cfg.WindowSize)...)
	})
	return windows
}

func tileWindow(w window, size int32) []window {
	if size <= 0 {
		size = w.end - w.start
	}
	var out []window
	for s := w.start; s < w.end; s += size {
		e := s + size
		if e > w.end {
			e = w.end
		}
		out = append(out, window{w.seqID, s, e})
	}
	return out
}

// coverage is a query-side interval discovered by projecting one window,
// carrying enough of its target side to rescale proportionally after mask
// subtraction.
type coverage struct {
	seqID    uint32
	qLo, qHi int32
	targetID uint32
	tLo, tHi int32
}

func toCoverage(results []project.AdjustedInterval) []coverage {
	out := make([]coverage, 0, len(results))
	for _, r := range results {
		qLo, qHi := r.Query.Span()
		if qLo >= qHi {
			continue
		}
		tLo, tHi := r.Target.Span()
		out = append(out, coverage{
			seqID: r.Query.SeqID, qLo: qLo, qHi: qHi,
			targetID: r.Target.SeqID, tLo: tLo, tHi: tHi,
		})
	}
	return out
}

// nearMerge sorts by (seqID, qLo) and merges adjacent same-sequence
// intervals whose gap is <= nearMergeGap, taking the min/max of their
// spans. Target/cigar metadata is retained from the first contributor
// (approximate, used only for coverage tracking).
func nearMerge(cov []coverage) []coverage {
	slices.SortFunc(cov, func(a, b coverage) int {
		if a.seqID != b.seqID {
			if a.seqID < b.seqID {
				return -1
			}
			return 1
		}
		return int(a.qLo) - int(b.qLo)
	})
	out := cov[:0]
	for _, c := range cov {
		if n := len(out); n > 0 && out[n-1].seqID == c.seqID && c.qLo <= out[n-1].qHi+nearMergeGap {
			if c.qHi > out[n-1].qHi {
				out[n-1].qHi = c.qHi
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *Partitioner) processWindow(w window) ([]Entry, error) {
	const op = "Partitioner.processWindow"

	results, err := p.g.QueryTransitive(w.seqID, w.start, w.end)
	if err != nil {
		return nil, impgerr.E(impgerr.Other, op, err)
	}
	merged := nearMerge(toCoverage(results))

	type survivor struct {
		seqID      uint32
		start, end int32
		targetID   uint32
		tStart     int32
		tEnd       int32
	}
	var survivors []survivor
	for _, c := range merged {
		set := p.masked[c.seqID]
		if set == nil {
			set = &span.Set{}
			p.masked[c.seqID] = set
		}
		for _, sub := range set.Subtract(c.qLo, c.qHi) {
			ts, te := rescaleTarget(c.qLo, c.qHi, c.tLo, c.tHi, sub.Start, sub.End)
			survivors = append(survivors, survivor{c.seqID, sub.Start, sub.End, c.targetID, ts, te})
		}
	}
	if len(survivors) == 0 {
		return nil, impgerr.Ef(impgerr.Other, op,
			"window seq=%d [%d,%d) produced no surviving coverage; the seed window must always cover itself", w.seqID, w.start, w.end)
	}

	for _, s := range survivors {
		p.masked[s.seqID].Add(s.start, s.end, maskAdjacentGap)
	}

	entries := make([]Entry, 0, len(survivors))
	for _, s := range survivors {
		start, end := s.start, s.end
		if end-start < p.cfg.MinLen {
			length, _ := p.g.Seqs().GetLength(s.seqID)
			start -= p.cfg.MinLen
			end += p.cfg.MinLen
			if start < 0 {
				start = 0
			}
			if end > length {
				end = length
			}
			// Target side grows by the same absolute amount, unclamped: the
			// the asymmetry between clamped query and unclamped target is preserved rather than
			// silently fixed.
			s.tStart -= p.cfg.MinLen
			s.tEnd += p.cfg.MinLen
		}
		entries = append(entries, Entry{
			SeqID: s.seqID,
			Name:  p.g.Seqs().GetName(s.seqID),
			Start: start,
			End:   end,
		})
	}
	return entries, nil
}

// rescaleTarget linearly rescales the target sub-span corresponding to
// [subStart,subEnd) within the query span [qLo,qHi) -> [tLo,tHi). This is
// a coarse approximation: correct only when
// the underlying alignment is gap-light.
func rescaleTarget(qLo, qHi, tLo, tHi, subStart, subEnd int32) (int32, int32) {
	qLen := int64(qHi - qLo)
	if qLen == 0 {
		return tLo, tHi
	}
	tLen := int64(tHi - tLo)
	ts := tLo + int32(int64(subStart-qLo)*tLen/qLen)
	te := tLo + int32(int64(subEnd-qLo)*tLen/qLen)
	return ts, te
}

// longestMissing scans every indexed sequence's complement against
// masked_regions and returns the single longest missing range across the
// whole index (not limited to prefix-matching sequences,
// since transitive projection can cover arbitrary sequences).
func (p *Partitioner) longestMissing() (window, bool) {
	var (
		best    window
		bestLen int32
		found   bool
	)
	p.g.Seqs().Each(func(id uint32, name string, length int32) {
		set := p.masked[id]
		var missing []span.Range
		if set == nil {
			missing = []span.Range{{Start: 0, End: length}}
		} else {
			missing = set.Complement(length)
		}
		for _, m := range missing {
			if l := m.Len(); l > bestLen {
				bestLen = l
				best = window{id, m.Start, m.End}
				found = true
			}
		}
	})
	return best, found
}
