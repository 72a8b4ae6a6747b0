package impg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/seqindex"
)

// A restored snapshot must answer queries identically to the Impg it was taken from.
func TestSnapshotRoundTrip(t *testing.T) {
	seqs := seqindex.New()
	tID, err := seqs.Intern("T", 10)
	require.NoError(t, err)
	qID, err := seqs.Intern("Q", 30)
	require.NoError(t, err)
	records := []align.Record{
		{TargetID: tID, TStart: 0, TEnd: 10, QueryID: qID, QStart: 0, QEnd: 10, Strand: align.Forward, Cigar: mustVec(t, "4=1X5=")},
		{TargetID: tID, TStart: 2, TEnd: 9, QueryID: qID, QStart: 20, QEnd: 26, Strand: align.Reverse, Cigar: mustVec(t, "3=1D3=")},
	}
	g, err := Build(seqs, records, "orig.paf")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, g.ToSnapshot(&out))

	g2, err := FromSnapshot(&out, "restored.paf")
	require.NoError(t, err)
	assert.Equal(t, "restored.paf", g2.SourcePath())
	assert.Equal(t, g.RecordCount(), g2.RecordCount())

	want, err := g.Query(tID, 0, 10)
	require.NoError(t, err)
	got, err := g2.Query(tID, 0, 10)
	require.NoError(t, err)
	expect.EQ(t, got, want)
}

func TestSnapshotRejectsBadMagic(t *testing.T) {
	_, err := FromSnapshot(bytes.NewReader([]byte("not a snapshot")), "x.paf")
	require.Error(t, err)
}
