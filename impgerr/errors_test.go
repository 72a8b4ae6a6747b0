package impgerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(RangeInverted, "Impg.Query", errors.New("start >= end"))
	assert.Equal(t, RangeInverted, KindOf(err))
	assert.Equal(t, Other, KindOf(errors.New("plain")))
}

func TestErrorMessageIncludesOpAndKind(t *testing.T) {
	err := E(MissingCigar, "paf.Parse", errors.New("line 4"))
	assert.Contains(t, err.Error(), "paf.Parse")
	assert.Contains(t, err.Error(), "MissingCigar")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := E(IoError, "snapshot.Read", cause)
	assert.True(t, errors.Is(err, err))
	assert.NotNil(t, errors.Unwrap(err))
}
