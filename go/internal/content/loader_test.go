package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context) ([]byte, error)

func (f fetcherFunc) FetchQuestionsConfig(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

func TestDefaultsAreValid(t *testing.T) {
	d := Defaults()
	assert.Len(t, d.Blitz, 5)
	assert.Len(t, d.Fill, 4)
	assert.Len(t, d.Vocab, 8)
	for _, q := range d.Blitz {
		assert.True(t, q.Valid(), q.Prompt)
	}
	for _, q := range d.Fill {
		assert.True(t, q.Valid(), q.Prompt)
	}
}

func TestParseJSONFallsBackPerCategory(t *testing.T) {
	doc := `{
		"blitz": [{"q": "2+2?", "opts": ["3", "4"], "c": 1}],
		"fill": "not a list",
		"vocab": []
	}`
	o, err := ParseJSON([]byte(doc))
	require.NoError(t, err)

	set := o.Apply(Defaults())
	require.Len(t, set.Blitz, 1)
	assert.Equal(t, "2+2?", set.Blitz[0].Prompt)
	assert.Equal(t, Defaults().Fill, set.Fill, "malformed category keeps defaults")
	assert.Equal(t, Defaults().Vocab, set.Vocab, "empty category keeps defaults")
}

func TestApplyRejectsInvalidItems(t *testing.T) {
	o := Override{
		Blitz: []ChoiceQuestion{{Prompt: "x", Options: []string{"a", "b"}, Correct: 5}},
		Fill:  []FillQuestion{{Prompt: "y", Answer: ""}},
	}
	set := o.Apply(Defaults())
	assert.Equal(t, Defaults().Blitz, set.Blitz)
	assert.Equal(t, Defaults().Fill, set.Fill)
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	_, err := ParseJSON([]byte("<html>"))
	assert.Error(t, err)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	doc := `
fill:
  - q: "I ___ (be) here."
    answer: have been
vocab:
  - w: GRIT
    m: Courage and resolve.
challenges: 12
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	o, err := LoadFile(path)
	require.NoError(t, err)
	set := o.Apply(Defaults())
	require.Len(t, set.Fill, 1)
	assert.Equal(t, "have been", set.Fill[0].Answer)
	require.Len(t, set.Vocab, 1)
	assert.Equal(t, "GRIT", set.Vocab[0].Word)
	assert.Equal(t, Defaults().Blitz, set.Blitz)
	assert.Equal(t, Defaults().Challenges, set.Challenges)
}

func TestLoadNeverFails(t *testing.T) {
	failing := fetcherFunc(func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	set := Load(context.Background(), failing, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, Defaults(), set)
}

func TestLoadRemoteOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocab:\n  - w: FILE\n    m: from file\n"), 0o644))

	remote := fetcherFunc(func(ctx context.Context) ([]byte, error) {
		return []byte(`{"vocab": [{"w": "REMOTE", "m": "from authority"}]}`), nil
	})
	set := Load(context.Background(), remote, path)
	require.Len(t, set.Vocab, 1)
	assert.Equal(t, "REMOTE", set.Vocab[0].Word)
}
