package paf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/seqindex"
)

func TestParseSingleRecord(t *testing.T) {
	line := "Q\t110\t100\t110\t+\tT\t10\t0\t10\t10\t10\t60\tcg:Z:10=\n"
	seqs := seqindex.New()
	records, err := Parse(strings.NewReader(line), seqs)
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.EqualValues(t, 0, r.TStart)
	assert.EqualValues(t, 10, r.TEnd)
	assert.EqualValues(t, 100, r.QStart)
	assert.EqualValues(t, 110, r.QEnd)
	assert.Equal(t, "10=", r.Cigar.String())

	tLen, ok := seqs.GetLength(r.TargetID)
	require.True(t, ok)
	assert.EqualValues(t, 10, tLen)
}

func TestParseMissingCigarTag(t *testing.T) {
	line := "Q\t10\t0\t10\t+\tT\t10\t0\t10\t10\t10\t60\n"
	seqs := seqindex.New()
	_, err := Parse(strings.NewReader(line), seqs)
	require.Error(t, err)
	assert.Equal(t, impgerr.MissingCigar, impgerr.KindOf(err))
}

func TestParseTooFewFields(t *testing.T) {
	line := "Q\t10\t0\t10\t+\tT\n"
	seqs := seqindex.New()
	_, err := Parse(strings.NewReader(line), seqs)
	require.Error(t, err)
	assert.Equal(t, impgerr.InputFormat, impgerr.KindOf(err))
}

func TestParseMultipleRecordsShareSequenceIndex(t *testing.T) {
	lines := "" +
		"Q\t20\t0\t10\t+\tT\t20\t0\t10\t10\t10\t60\tcg:Z:10=\n" +
		"Q\t20\t10\t20\t+\tT\t20\t10\t20\t10\t10\t60\tcg:Z:10=\n"
	seqs := seqindex.New()
	records, err := Parse(strings.NewReader(lines), seqs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, records[0].TargetID, records[1].TargetID)
	assert.Equal(t, 2, seqs.Len())
}
