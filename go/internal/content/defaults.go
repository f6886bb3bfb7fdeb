package content

// Defaults returns the built-in content. Each call returns fresh slices.
func Defaults() Set {
	return Set{
		Blitz: []ChoiceQuestion{
			{
				Prompt:  "Which sentence uses the Present Perfect correctly?",
				Options: []string{"She went to Paris last year.", "She has been to Paris twice.", "She is going soon.", "She was going yesterday."},
				Correct: 1,
			},
			{
				Prompt:  "Choose the correct conditional:",
				Options: []string{"If he studies, he passed.", "If he will study, he passes.", "If he studies, he will pass.", "If he studied, he will pass."},
				Correct: 2,
			},
			{
				Prompt:  `Synonym of "resilient":`,
				Options: []string{"Fragile", "Stubborn", "Tenacious", "Anxious"},
				Correct: 2,
			},
			{
				Prompt:  `"I wish I ___ more time to study."`,
				Options: []string{"have", "had", "has", "will have"},
				Correct: 1,
			},
			{
				Prompt:  "Correct use of the Past Perfect:",
				Options: []string{"She had left before he arrived.", "She has left before he arrived.", "She left before he had arrived.", "She was leaving when he arrived."},
				Correct: 0,
			},
		},
		Fill: []FillQuestion{
			{Prompt: `"If I ___ (know) about the meeting, I would have attended."`, Answer: "had known", Hint: "3rd conditional: If + Past Perfect."},
			{Prompt: `"She ___ (live) here for 10 years by next month."`, Answer: "will have lived", Hint: "Future Perfect: will have + past participle."},
			{Prompt: `"He speaks English as ___ as a native speaker."`, Answer: "fluently", Hint: "Comparison with an -ly adverb."},
			{Prompt: `"By the time you arrive, I ___ (finish) cooking."`, Answer: "will have finished", Hint: "Future Perfect in time clauses."},
		},
		Vocab: []VocabTerm{
			{Word: "ELOQUENT", Pronunciation: "/ˈel.ə.kwənt/ · adj", Meaning: "Fluent and persuasive in speaking or writing."},
			{Word: "PERSEVERE", Pronunciation: "/ˌpɜː.sɪˈvɪər/ · verb", Meaning: "To keep going with determination despite difficulty."},
			{Word: "TENACIOUS", Pronunciation: "/tɪˈneɪ.ʃəs/ · adj", Meaning: "Very determined; not giving up easily."},
			{Word: "NUANCE", Pronunciation: "/ˈnjuː.ɑːns/ · noun", Meaning: "A subtle difference in meaning or expression."},
			{Word: "LEVERAGE", Pronunciation: "/ˈlev.ər.ɪdʒ/ · n/v", Meaning: "To use something to your advantage; power to influence."},
			{Word: "RESILIENT", Pronunciation: "/rɪˈzɪl.i.ənt/ · adj", Meaning: "Able to recover quickly from difficulties."},
			{Word: "ARTICULATE", Pronunciation: "/ɑːˈtɪk.jʊ.lət/ · adj", Meaning: "Able to express ideas clearly and fluently."},
			{Word: "PROFOUND", Pronunciation: "/prəˈfaʊnd/ · adj", Meaning: "Of great depth or intensity; significant."},
		},
		Challenges: []Challenge{
			{Name: "Daily Speaking Drill", XP: 50},
			{Name: "Listening Sprint", XP: 40},
			{Name: "Grammar Gauntlet", XP: 60},
		},
	}
}
