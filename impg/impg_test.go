package impg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/seqindex"
)

func mustVec(t *testing.T, s string) cigar.Vec {
	t.Helper()
	v, err := cigar.Parse(s)
	require.NoError(t, err)
	return v
}

func newTestIndex(t *testing.T) (*Impg, map[string]uint32) {
	t.Helper()
	seqs := seqindex.New()
	ids := map[string]uint32{}
	for _, s := range []struct {
		name string
		n    int32
	}{{"T", 10}, {"Q", 10}} {
		id, err := seqs.Intern(s.name, s.n)
		require.NoError(t, err)
		ids[s.name] = id
	}
	records := []align.Record{
		{TargetID: ids["T"], TStart: 0, TEnd: 10, QueryID: ids["Q"], QStart: 0, QEnd: 10, Strand: align.Forward, Cigar: mustVec(t, "10=")},
	}
	g, err := Build(seqs, records, "test.paf")
	require.NoError(t, err)
	return g, ids
}

// Stabbing query across two overlapping alignments.
func TestQueryStabbingDedup(t *testing.T) {
	seqs := seqindex.New()
	tID, err := seqs.Intern("T", 20)
	require.NoError(t, err)
	qID, err := seqs.Intern("Q", 60)
	require.NoError(t, err)
	records := []align.Record{
		{TargetID: tID, TStart: 0, TEnd: 10, QueryID: qID, QStart: 0, QEnd: 10, Strand: align.Forward, Cigar: mustVec(t, "10=")},
		{TargetID: tID, TStart: 5, TEnd: 15, QueryID: qID, QStart: 50, QEnd: 60, Strand: align.Forward, Cigar: mustVec(t, "10=")},
	}
	g, err := Build(seqs, records, "test.paf")
	require.NoError(t, err)

	results, err := g.Query(tID, 7, 9)
	require.NoError(t, err)
	// self entry + one hit per overlapping alignment
	require.Len(t, results, 3)
	var totalQueryLen int32
	for _, r := range results[1:] {
		totalQueryLen += r.Query.Len()
	}
	assert.EqualValues(t, 4, totalQueryLen)
}

func TestQueryUnknownSequence(t *testing.T) {
	g, _ := newTestIndex(t)
	_, err := g.Query(999, 0, 5)
	require.Error(t, err)
	assert.Equal(t, impgerr.UnknownSequence, impgerr.KindOf(err))
}

func TestQueryOutOfBounds(t *testing.T) {
	g, ids := newTestIndex(t)
	_, err := g.Query(ids["T"], 0, 100)
	require.Error(t, err)
	assert.Equal(t, impgerr.RangeOutOfBounds, impgerr.KindOf(err))
}

func TestQueryInvertedRange(t *testing.T) {
	g, ids := newTestIndex(t)
	_, err := g.Query(ids["T"], 5, 5)
	require.Error(t, err)
	assert.Equal(t, impgerr.RangeInverted, impgerr.KindOf(err))
}

// Transitive closure across a two-hop alignment chain T->Q->R.
func TestQueryTransitiveChain(t *testing.T) {
	seqs := seqindex.New()
	tID, err := seqs.Intern("T", 10)
	require.NoError(t, err)
	qID, err := seqs.Intern("Q", 10)
	require.NoError(t, err)
	rID, err := seqs.Intern("R", 10)
	require.NoError(t, err)
	records := []align.Record{
		{TargetID: tID, TStart: 0, TEnd: 10, QueryID: qID, QStart: 0, QEnd: 10, Strand: align.Forward, Cigar: mustVec(t, "10=")},
		{TargetID: qID, TStart: 0, TEnd: 10, QueryID: rID, QStart: 0, QEnd: 10, Strand: align.Forward, Cigar: mustVec(t, "10=")},
	}
	g, err := Build(seqs, records, "test.paf")
	require.NoError(t, err)

	results, err := g.QueryTransitive(tID, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, tID, results[0].Query.SeqID)
	seen := map[uint32]bool{}
	for _, r := range results {
		seen[r.Query.SeqID] = true
	}
	assert.True(t, seen[tID])
	assert.True(t, seen[qID])
	assert.True(t, seen[rID])
}

func TestQueryTransitiveIdempotentOnOwnOutput(t *testing.T) {
	g, ids := newTestIndex(t)
	first, err := g.QueryTransitive(ids["T"], 2, 6)
	require.NoError(t, err)

	for _, r := range first {
		lo, hi := r.Query.Span()
		if lo >= hi {
			continue
		}
		again, err := g.QueryTransitive(r.Query.SeqID, lo, hi)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(again), len(first)+1)
	}
}

func TestCheckIntervalsNoViolationsOnCleanQuery(t *testing.T) {
	g, ids := newTestIndex(t)
	results, err := g.Query(ids["T"], 2, 8)
	require.NoError(t, err)
	assert.Empty(t, g.CheckIntervals(results))
}
