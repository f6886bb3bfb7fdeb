package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New("  Ana  B. ")
	require.NoError(t, err)
	assert.Equal(t, "Ana  B.", s.Name)
	assert.Equal(t, "ana_b", s.ID)
}

func TestNewRejectsShortNames(t *testing.T) {
	for _, in := range []string{"", " ", "a", "  b  "} {
		_, err := New(in)
		assert.ErrorIs(t, err, ErrNameTooShort, "input %q", in)
	}
}

func TestNewRejectsNamesWithoutIdentifier(t *testing.T) {
	_, err := New("!!")
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestIsSelf(t *testing.T) {
	s, err := New("Lucas")
	require.NoError(t, err)
	assert.True(t, s.IsSelf("Lucas"))
	assert.False(t, s.IsSelf("lucas"))

	var none *Session
	assert.False(t, none.IsSelf("Lucas"))
}
