package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
)

func mustCigar(t *testing.T, s string) cigar.Vec {
	t.Helper()
	v, err := cigar.Parse(s)
	require.NoError(t, err)
	return v
}

func TestValidateOK(t *testing.T) {
	r := &Record{TStart: 0, TEnd: 10, QStart: 100, QEnd: 110, Strand: Forward, Cigar: mustCigar(t, "10=")}
	require.NoError(t, r.Validate())
}

func TestValidateCigarInconsistent(t *testing.T) {
	r := &Record{TStart: 0, TEnd: 10, QStart: 100, QEnd: 110, Strand: Forward, Cigar: mustCigar(t, "5=")}
	err := r.Validate()
	require.Error(t, err)
	assert.Equal(t, impgerr.CigarInconsistent, impgerr.KindOf(err))
}

func TestValidateInvertedRange(t *testing.T) {
	r := &Record{TStart: 10, TEnd: 5, QStart: 0, QEnd: 10, Strand: Forward, Cigar: mustCigar(t, "5=")}
	err := r.Validate()
	require.Error(t, err)
	assert.Equal(t, impgerr.InputFormat, impgerr.KindOf(err))
}

func TestValidateMissingCigar(t *testing.T) {
	r := &Record{TStart: 0, TEnd: 10, QStart: 0, QEnd: 10, Strand: Forward}
	err := r.Validate()
	require.Error(t, err)
	assert.Equal(t, impgerr.MissingCigar, impgerr.KindOf(err))
}
