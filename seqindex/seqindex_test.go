package seqindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternAssignsDenseFirstSeenIds(t *testing.T) {
	x := New()
	id0, err := x.Intern("chr1", 100)
	require.NoError(t, err)
	id1, err := x.Intern("chr2", 200)
	require.NoError(t, err)
	idAgain, err := x.Intern("chr1", 100)
	require.NoError(t, err)

	assert.EqualValues(t, 0, id0)
	assert.EqualValues(t, 1, id1)
	assert.Equal(t, id0, idAgain)
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, "chr1", x.GetName(id0))
	assert.Equal(t, "chr2", x.GetName(id1))
}

func TestInternLengthMismatchIsFatal(t *testing.T) {
	x := New()
	_, err := x.Intern("chr1", 100)
	require.NoError(t, err)
	_, err = x.Intern("chr1", 101)
	require.Error(t, err)
}

func TestGetIDNotFound(t *testing.T) {
	x := New()
	_, ok := x.GetID("nope")
	assert.False(t, ok)
}

func TestGetNamePanicsOnInvalidID(t *testing.T) {
	x := New()
	assert.Panics(t, func() { x.GetName(42) })
}

func TestEachOrdersByID(t *testing.T) {
	x := New()
	_, _ = x.Intern("a", 1)
	_, _ = x.Intern("b", 2)
	_, _ = x.Intern("c", 3)
	var seen []string
	x.Each(func(id uint32, name string, length int32) {
		seen = append(seen, name)
	})
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}
