package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Fetcher retrieves the optional questions-config document from the authority.
type Fetcher interface {
	FetchQuestionsConfig(ctx context.Context) ([]byte, error)
}

// Override carries one decoded category per field; nil means absent or malformed.
type Override struct {
	Blitz      []ChoiceQuestion
	Fill       []FillQuestion
	Vocab      []VocabTerm
	Challenges []Challenge
}

// Apply replaces each category of base that the override carries in a playable form.
// Categories are judged independently: an empty, missing or invalid category keeps base.
func (o Override) Apply(base Set) Set {
	if len(o.Blitz) > 0 && allValid(o.Blitz, ChoiceQuestion.Valid) {
		base.Blitz = o.Blitz
	}
	if len(o.Fill) > 0 && allValid(o.Fill, FillQuestion.Valid) {
		base.Fill = o.Fill
	}
	if len(o.Vocab) > 0 && allValid(o.Vocab, VocabTerm.Valid) {
		base.Vocab = o.Vocab
	}
	if len(o.Challenges) > 0 && allValid(o.Challenges, func(c Challenge) bool { return c.Name != "" && c.XP >= 0 }) {
		base.Challenges = o.Challenges
	}
	return base
}

func allValid[T any](items []T, valid func(T) bool) bool {
	for _, it := range items {
		if !valid(it) {
			return false
		}
	}
	return true
}

// ParseJSON decodes a questions-config document field by field.
// A field that fails to decode is dropped without affecting the others.
func ParseJSON(data []byte) (Override, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Override{}, fmt.Errorf("failed to parse questions config: %w", err)
	}

	var o Override
	decodeJSONField(raw, "blitz", &o.Blitz)
	decodeJSONField(raw, "fill", &o.Fill)
	decodeJSONField(raw, "vocab", &o.Vocab)
	decodeJSONField(raw, "challenges", &o.Challenges)
	return o, nil
}

func decodeJSONField[T any](raw map[string]json.RawMessage, key string, dst *[]T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var items []T
	if err := json.Unmarshal(msg, &items); err != nil {
		log.Warn().Err(err).Str("category", key).Msg("ignoring malformed questions category")
		return
	}
	*dst = items
}

// ParseYAML decodes a questions file field by field, like ParseJSON.
func ParseYAML(data []byte) (Override, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Override{}, fmt.Errorf("failed to parse questions file: %w", err)
	}

	var o Override
	decodeYAMLField(raw, "blitz", &o.Blitz)
	decodeYAMLField(raw, "fill", &o.Fill)
	decodeYAMLField(raw, "vocab", &o.Vocab)
	decodeYAMLField(raw, "challenges", &o.Challenges)
	return o, nil
}

func decodeYAMLField[T any](raw map[string]yaml.Node, key string, dst *[]T) {
	node, ok := raw[key]
	if !ok {
		return
	}
	var items []T
	if err := node.Decode(&items); err != nil {
		log.Warn().Err(err).Str("category", key).Msg("ignoring malformed questions category")
		return
	}
	*dst = items
}

// LoadFile reads a YAML questions file.
func LoadFile(path string) (Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Override{}, fmt.Errorf("failed to read questions file: %w", err)
	}
	return ParseYAML(data)
}

// Load resolves the content for a session: built-in defaults, then the local
// file (if path is set), then the authority's questions-config (if fetcher is set).
// Every failure is logged and skipped; Load never fails.
func Load(ctx context.Context, fetcher Fetcher, path string) Set {
	set := Defaults()

	if path != "" {
		o, err := LoadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("questions file unavailable, using defaults")
		} else {
			set = o.Apply(set)
		}
	}

	if fetcher != nil {
		data, err := fetcher.FetchQuestionsConfig(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("questions config unavailable, using local content")
			return set
		}
		o, err := ParseJSON(data)
		if err != nil {
			log.Warn().Err(err).Msg("questions config malformed, using local content")
			return set
		}
		set = o.Apply(set)
	}

	return set
}
