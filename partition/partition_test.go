package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impg"
	"github.com/grailbio/impg/seqindex"
	"github.com/grailbio/impg/span"
)

func mustVec(t *testing.T, s string) cigar.Vec {
	t.Helper()
	v, err := cigar.Parse(s)
	require.NoError(t, err)
	return v
}

// Single self-aligned sequence, partitioned into disjoint windows
// whose union covers the whole sequence.
func TestRunCoversWholeSequence(t *testing.T) {
	seqs := seqindex.New()
	sID, err := seqs.Intern("S", 100)
	require.NoError(t, err)
	records := []align.Record{
		{TargetID: sID, TStart: 0, TEnd: 100, QueryID: sID, QStart: 0, QEnd: 100, Strand: align.Forward, Cigar: mustVec(t, "100=")},
	}
	g, err := impg.Build(seqs, records, "s.paf")
	require.NoError(t, err)

	p := New(g, Config{Prefix: "S", WindowSize: 40, MinLen: 0})

	var covered span.Set
	err = p.Run(func(num int, entries []Entry) error {
		for i, e := range entries {
			require.Less(t, e.Start, e.End)
			if i > 0 {
				require.GreaterOrEqual(t, e.Start, entries[i-1].End)
			}
			covered.Add(e.Start, e.End, 0)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), covered.TotalLen())
	require.Equal(t, 1, covered.Len())
	assert.Equal(t, span.Range{Start: 0, End: 100}, covered.At(0))
}

func TestRunEmitsNameFromSeqIndex(t *testing.T) {
	seqs := seqindex.New()
	sID, err := seqs.Intern("chrS", 50)
	require.NoError(t, err)
	records := []align.Record{
		{TargetID: sID, TStart: 0, TEnd: 50, QueryID: sID, QStart: 0, QEnd: 50, Strand: align.Forward, Cigar: mustVec(t, "50=")},
	}
	g, err := impg.Build(seqs, records, "s.paf")
	require.NoError(t, err)

	p := New(g, Config{Prefix: "chr", WindowSize: 50, MinLen: 0})
	var names []string
	err = p.Run(func(num int, entries []Entry) error {
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, names, "chrS")
}

func TestRescaleTargetLinear(t *testing.T) {
	ts, te := rescaleTarget(0, 10, 100, 110, 2, 6)
	assert.EqualValues(t, 102, ts)
	assert.EqualValues(t, 106, te)
}

func TestNearMergeJoinsCloseIntervals(t *testing.T) {
	cov := []coverage{
		{seqID: 1, qLo: 0, qHi: 10, targetID: 2, tLo: 0, tHi: 10},
		{seqID: 1, qLo: 15, qHi: 25, targetID: 2, tLo: 15, tHi: 25},
		{seqID: 1, qLo: 100000, qHi: 100010, targetID: 2, tLo: 0, tHi: 10},
	}
	merged := nearMerge(cov)
	require.Len(t, merged, 2)
	assert.EqualValues(t, 0, merged[0].qLo)
	assert.EqualValues(t, 25, merged[0].qHi)
}
