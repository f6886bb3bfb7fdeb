// Package session holds the per-login context every game component is handed.
// A Session lives from login until the client exits; nothing in it is persisted.
package session

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mcdev12/fluencyrush/go/internal/models"
)

// MinNameLength is the minimum display-name length after trimming.
const MinNameLength = 2

var (
	// ErrNameTooShort is returned for display names under MinNameLength runes.
	ErrNameTooShort = errors.New("name must have at least 2 characters")
	// ErrEmptyID is returned when a name normalizes to an empty identifier.
	ErrEmptyID = errors.New("name must contain at least one letter or digit")
)

// Session identifies the logged-in player.
type Session struct {
	Name string
	ID   string
}

// New validates a display name and derives the session identity.
// No network call is made; callers register the user afterwards.
func New(displayName string) (*Session, error) {
	name := strings.TrimSpace(displayName)
	if utf8.RuneCountInString(name) < MinNameLength {
		return nil, ErrNameTooShort
	}

	id := models.NormalizeID(name)
	if strings.Trim(id, "_") == "" {
		return nil, ErrEmptyID
	}

	return &Session{Name: name, ID: id}, nil
}

// IsSelf reports whether a display name belongs to this session.
func (s *Session) IsSelf(name string) bool {
	return s != nil && s.Name == name
}
