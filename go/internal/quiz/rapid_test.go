package quiz

import (
	"testing"

	"github.com/mcdev12/fluencyrush/go/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVocab() []content.VocabTerm {
	return []content.VocabTerm{{Word: "RESILIENT"}, {Word: "EPHEMERAL"}, {Word: "DILIGENT"}}
}

func TestRapidVerdicts(t *testing.T) {
	g := &fakeGranter{}
	n := &notes{}
	r, err := NewRapid(loggedIn(t), g, n, sampleVocab())
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Progress())

	require.NoError(t, r.Review(Knew))
	assert.Equal(t, []grant{{RapidKnewXP, `learned "RESILIENT" 📚`}}, g.grants)

	require.NoError(t, r.Review(Hard))
	require.Len(t, n.got, 1)
	assert.Len(t, g.grants, 1)

	require.NoError(t, r.Review(Skip))
	v := r.View()
	assert.Equal(t, 1, v.Known)
	assert.Equal(t, 2, v.Seen, "skip counts as neither known nor seen")
	assert.InDelta(t, 0.5, v.Progress, 1e-9)
	assert.Equal(t, 0, r.Index(), "deck wraps around")
	assert.Len(t, n.got, 1, "skip gives no feedback")
}

func TestRapidProgressClamped(t *testing.T) {
	r, err := NewRapid(loggedIn(t), &fakeGranter{}, nil, sampleVocab())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Review(Knew))
	}
	assert.Equal(t, 1.0, r.Progress())
}

func TestRapidRequiresSession(t *testing.T) {
	g := &fakeGranter{}
	r, err := NewRapid(StaticSession{}, g, nil, sampleVocab())
	require.NoError(t, err)
	require.ErrorIs(t, r.Review(Knew), ErrNotLoggedIn)
	assert.Empty(t, g.grants)
	assert.Equal(t, 0, r.Index())
}
