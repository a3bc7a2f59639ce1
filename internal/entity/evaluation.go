package entity

import "fmt"

// EvaluationSource tells which capability path produced an evaluation.
type EvaluationSource string

const (
	EvaluationSourceAI       EvaluationSource = "ai"
	EvaluationSourceFallback EvaluationSource = "fallback"
)

// Grammar is the AI grammar verdict on a description.
type Grammar string

const (
	GrammarUnknown     Grammar = ""
	GrammarCorrect     Grammar = "correct"
	GrammarMinorErrors Grammar = "minor_errors"
	GrammarMajorErrors Grammar = "major_errors"
)

// Valid reports whether g is one of the known verdicts.
func (g Grammar) Valid() bool {
	switch g {
	case GrammarUnknown, GrammarCorrect, GrammarMinorErrors, GrammarMajorErrors:
		return true
	}
	return false
}

// Neutral value used for naturalness and creativity when they were not assessed.
const NeutralQualitativeScore = 5

// QualitativeSignals are only meaningful on the AI path.
type QualitativeSignals struct {
	Naturalness int     `json:"naturalness"`
	Creativity  int     `json:"creativity"`
	Grammar     Grammar `json:"grammar"`
	Feedback    string  `json:"feedback,omitempty"`
}

// Validate rejects out of range signals.
func (q *QualitativeSignals) Validate() error {
	if q == nil {
		return nil
	}
	if q.Naturalness < 0 || q.Naturalness > 10 {
		return fmt.Errorf("%w: naturalness %d out of range", ErrScoringInputInvalid, q.Naturalness)
	}
	if q.Creativity < 0 || q.Creativity > 10 {
		return fmt.Errorf("%w: creativity %d out of range", ErrScoringInputInvalid, q.Creativity)
	}
	if !q.Grammar.Valid() {
		return fmt.Errorf("%w: unknown grammar verdict %q", ErrScoringInputInvalid, q.Grammar)
	}
	return nil
}

// WordDetail explains how a key word was (or was not) recognised.
type WordDetail struct {
	KeyWord  string `json:"key_word"`
	Original string `json:"original,omitempty"`
	Found    bool   `json:"found"`
	UsedAs   string `json:"used_as,omitempty"`
	Context  string `json:"context,omitempty"`
}

// EvaluationResult is the outcome of evaluating one description.
type EvaluationResult struct {
	WordsFound          []string            `json:"words_found"`
	WordsMissed         []string            `json:"words_missed"`
	AnswerWordMentioned bool                `json:"answer_word_mentioned"`
	WordDetails         []WordDetail        `json:"word_details"`
	Qualitative         *QualitativeSignals `json:"qualitative,omitempty"`
	Source              EvaluationSource    `json:"source"`
}

// Validate rejects malformed results before they reach scoring.
func (r EvaluationResult) Validate() error {
	switch r.Source {
	case EvaluationSourceAI, EvaluationSourceFallback:
	default:
		return fmt.Errorf("%w: unknown evaluation source %q", ErrScoringInputInvalid, r.Source)
	}
	found := NewWordSet(r.WordsFound...)
	if found.Len() != len(r.WordsFound) {
		return fmt.Errorf("%w: duplicate found words", ErrScoringInputInvalid)
	}
	for _, w := range r.WordsMissed {
		if found.Contains(w) {
			return fmt.Errorf("%w: %q is both found and missed", ErrScoringInputInvalid, w)
		}
	}
	return r.Qualitative.Validate()
}
