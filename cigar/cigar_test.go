package cigar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpPacking(t *testing.T) {
	op := NewOp(Equal, 42)
	assert.Equal(t, Equal, op.Kind())
	assert.EqualValues(t, 42, op.Len())
	assert.Equal(t, "42=", op.String())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Vec
		wantErr bool
	}{
		{"10=", Vec{NewOp(Equal, 10)}, false},
		{"2=2I4=", Vec{NewOp(Equal, 2), NewOp(Insertion, 2), NewOp(Equal, 4)}, false},
		{"3D5=", Vec{NewOp(Deletion, 3), NewOp(Equal, 5)}, false},
		{"", nil, true},
		{"10", nil, true},
		{"10Z", nil, true},
		{"0=", nil, true},
		{"5S", nil, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestVecStringRoundTrip(t *testing.T) {
	for _, s := range []string{"10=", "2=2I4=", "1=2X3M4I5D"} {
		v, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}
}

func TestTargetQueryLen(t *testing.T) {
	v, err := Parse("2=2I4=")
	require.NoError(t, err)
	assert.EqualValues(t, 6, v.TargetLen())
	assert.EqualValues(t, 8, v.QueryLen())
}

func TestIdentityNoM(t *testing.T) {
	v, err := Parse("8=2X1I1D")
	require.NoError(t, err)
	m := v.Identity(false)
	assert.EqualValues(t, 8, m.Matches)
	assert.EqualValues(t, 2, m.Mismatches)
	assert.EqualValues(t, 1, m.InsertionEvents)
	assert.EqualValues(t, 1, m.InsertedBP)
	assert.EqualValues(t, 1, m.DeletionEvents)
	assert.EqualValues(t, 1, m.DeletedBP)
	assert.InDelta(t, 8.0/12.0, m.GapCompressed(), 1e-9)
	assert.InDelta(t, 8.0/12.0, m.Block(), 1e-9)
}

func TestIdentityLegacyMOverestimate(t *testing.T) {
	v, err := Parse("5M2I")
	require.NoError(t, err)
	m := v.Identity(false)
	assert.EqualValues(t, 5, m.Matches)
	assert.EqualValues(t, 0, m.Mismatches)

	strict := v.Identity(true)
	assert.EqualValues(t, 0, strict.Matches)
	assert.EqualValues(t, 0, strict.GapCompressed())
}

func TestIdentityMIgnoresEqualAndMismatch(t *testing.T) {
	// A CIGAR mixing M with =/X is unusual, but the non-strict identity
	// convention ignores the =/X runs entirely once an M is present, for
	// output compatibility with the reference tool this system mirrors.
	v, err := Parse("3M2=1X")
	require.NoError(t, err)
	m := v.Identity(false)
	assert.EqualValues(t, 3, m.Matches)
	assert.EqualValues(t, 0, m.Mismatches)
}

func TestPanicsOnBadLength(t *testing.T) {
	assert.Panics(t, func() { NewOp(Equal, 0) })
	assert.Panics(t, func() { NewOp(Equal, maxLen+1) })
}
