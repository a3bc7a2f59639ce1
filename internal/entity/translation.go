package entity

// TranslationPair keeps an original word next to its translation.
type TranslationPair struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// TranslationSet is the coordinated translation of one card.
// KeyWordPairs is parallel to the card's key words.
type TranslationSet struct {
	AnswerPair   TranslationPair   `json:"answer_pair"`
	KeyWordPairs []TranslationPair `json:"key_word_pairs"`
	// Degraded is set when the identity fallback replaced a failed translation.
	Degraded bool `json:"degraded"`
}

// IdentityTranslationSet maps every word onto itself.
func IdentityTranslationSet(answerWord string, keyWords []string) TranslationSet {
	pairs := make([]TranslationPair, len(keyWords))
	for i, kw := range keyWords {
		pairs[i] = TranslationPair{Original: kw, Translated: kw}
	}
	return TranslationSet{
		AnswerPair:   TranslationPair{Original: answerWord, Translated: answerWord},
		KeyWordPairs: pairs,
	}
}

// Originals returns the original key words in order.
func (t TranslationSet) Originals() []string {
	out := make([]string, len(t.KeyWordPairs))
	for i, p := range t.KeyWordPairs {
		out[i] = p.Original
	}
	return out
}

// Translated returns the translated key words in order.
func (t TranslationSet) Translated() []string {
	out := make([]string, len(t.KeyWordPairs))
	for i, p := range t.KeyWordPairs {
		out[i] = p.Translated
	}
	return out
}
