// Package content holds the question and vocabulary sets played by the quizzes.
package content

// ChoiceQuestion is a timed multiple-choice question.
type ChoiceQuestion struct {
	Prompt  string   `json:"q" yaml:"q"`
	Options []string `json:"opts" yaml:"opts"`
	Correct int      `json:"c" yaml:"c"`
}

// Valid reports whether the question can be played.
func (q ChoiceQuestion) Valid() bool {
	return q.Prompt != "" && len(q.Options) >= 2 && q.Correct >= 0 && q.Correct < len(q.Options)
}

// FillQuestion is a fill-in-the-blank sentence with a single canonical answer.
type FillQuestion struct {
	Prompt string `json:"q" yaml:"q"`
	Answer string `json:"answer" yaml:"answer"`
	Hint   string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Valid reports whether the question can be played.
func (q FillQuestion) Valid() bool {
	return q.Prompt != "" && q.Answer != ""
}

// VocabTerm is one rapid-review card.
type VocabTerm struct {
	Word          string `json:"w" yaml:"w"`
	Pronunciation string `json:"p,omitempty" yaml:"p,omitempty"`
	Meaning       string `json:"m" yaml:"m"`
}

// Valid reports whether the card can be shown.
func (v VocabTerm) Valid() bool {
	return v.Word != ""
}

// Challenge is a one-click task worth a fixed amount of XP.
type Challenge struct {
	Name string `json:"name" yaml:"name"`
	XP   int    `json:"xp" yaml:"xp"`
}

// Set is the complete content played by a session.
type Set struct {
	Blitz      []ChoiceQuestion `json:"blitz" yaml:"blitz"`
	Fill       []FillQuestion   `json:"fill" yaml:"fill"`
	Vocab      []VocabTerm      `json:"vocab" yaml:"vocab"`
	Challenges []Challenge      `json:"challenges,omitempty" yaml:"challenges,omitempty"`
}
