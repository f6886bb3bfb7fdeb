package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Ana", "ana"},
		{"collapses whitespace runs", "Ana  B.", "ana_b"},
		{"already normalized", "ana_b", "ana_b"},
		{"tabs and newlines", "Ana\t\nB", "ana_b"},
		{"strips punctuation and accents", "João-Pedro!", "joopedro"},
		{"digits kept", "Player 42", "player_42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}

func TestNormalizeIDIsStable(t *testing.T) {
	names := []string{"Ana  B.", "  Lucas M. ", "ZOE", "x y z"}
	for _, n := range names {
		first := NormalizeID(n)
		assert.Equal(t, first, NormalizeID(n))
		assert.Equal(t, first, NormalizeID(first), "normalizing twice must not change the id")
	}
	assert.Equal(t, NormalizeID("Ana  B."), NormalizeID("ana_b"))
	assert.NotEqual(t, NormalizeID("Ana B"), NormalizeID("Ana C"))
}
