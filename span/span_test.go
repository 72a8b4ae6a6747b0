package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddMergesOverlapping(t *testing.T) {
	var s Set
	s.Add(0, 10, 0)
	s.Add(5, 15, 0)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, Range{0, 15}, s.At(0))
}

func TestAddKeepsDisjointBeyondGap(t *testing.T) {
	var s Set
	s.Add(0, 10, 0)
	s.Add(20, 30, 0)
	assert.Equal(t, 2, s.Len())
}

func TestAddMergesWithinGap(t *testing.T) {
	var s Set
	s.Add(0, 10, 0)
	s.Add(11, 20, 1)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, Range{0, 20}, s.At(0))
}

func TestContainsAndCovers(t *testing.T) {
	var s Set
	s.Add(10, 20, 0)
	assert.True(t, s.Contains(15))
	assert.False(t, s.Contains(9))
	assert.True(t, s.Covers(12, 18))
	assert.False(t, s.Covers(5, 15))
}

func TestSubtractFullyCovered(t *testing.T) {
	var s Set
	s.Add(0, 100, 0)
	assert.Empty(t, s.Subtract(10, 20))
}

func TestSubtractPartial(t *testing.T) {
	var s Set
	s.Add(10, 20, 0)
	s.Add(30, 40, 0)
	got := s.Subtract(0, 50)
	assert.Equal(t, []Range{{0, 10}, {20, 30}, {40, 50}}, got)
}

func TestSubtractDisjointFromSet(t *testing.T) {
	var s Set
	s.Add(100, 200, 0)
	got := s.Subtract(0, 10)
	assert.Equal(t, []Range{{0, 10}}, got)
}

func TestComplement(t *testing.T) {
	var s Set
	s.Add(10, 20, 0)
	got := s.Complement(30)
	assert.Equal(t, []Range{{0, 10}, {20, 30}}, got)
}

func TestTotalLen(t *testing.T) {
	var s Set
	s.Add(0, 10, 0)
	s.Add(20, 25, 0)
	assert.EqualValues(t, 15, s.TotalLen())
}
