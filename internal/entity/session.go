package entity

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a game session.
type SessionStatus string

const (
	SessionStatusInitialized SessionStatus = "initialized"
	SessionStatusInProgress  SessionStatus = "in_progress"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusAbandoned   SessionStatus = "abandoned"
)

// ParseSessionStatus validates a raw status string.
func ParseSessionStatus(raw string) (SessionStatus, error) {
	switch s := SessionStatus(raw); s {
	case SessionStatusInitialized, SessionStatusInProgress, SessionStatusCompleted, SessionStatusAbandoned:
		return s, nil
	}
	return "", fmt.Errorf("unknown session status %q", raw)
}

// Open reports whether the session still accepts submissions.
func (s SessionStatus) Open() bool {
	return s == SessionStatusInitialized || s == SessionStatusInProgress
}

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbandoned
}

// AbandonReason records why a session was abandoned.
type AbandonReason string

const (
	AbandonReasonCancelled AbandonReason = "cancelled"
	AbandonReasonExpired   AbandonReason = "expired"
)

// Submission is one description submitted during a session.
type Submission struct {
	Description         string              `json:"description"`
	NewlyFoundWords     []string            `json:"newly_found_words"`
	AnswerWordMentioned bool                `json:"answer_word_mentioned"`
	Source              EvaluationSource    `json:"source"`
	Qualitative         *QualitativeSignals `json:"qualitative,omitempty"`
	Timestamp           time.Time           `json:"timestamp"`
}

// GameSession is one play-through of a card by one user in one target language.
type GameSession struct {
	ID             string   `json:"id"`
	CardID         int64    `json:"card_id"`
	UserID         int64    `json:"user_id"`
	TargetLanguage Language `json:"target_language"`

	// Frozen at creation.
	AnswerWord          string   `json:"answer_word"`
	OriginalAnswerWord  string   `json:"original_answer_word"`
	OriginalKeyWords    []string `json:"original_key_words"`
	TranslatedKeyWords  []string `json:"translated_key_words"`
	TranslationDegraded bool     `json:"translation_degraded"`

	Status             SessionStatus `json:"status"`
	AbandonReason      AbandonReason `json:"abandon_reason,omitempty"`
	WordsFound         []string      `json:"words_found"`
	WordsMissed        []string      `json:"words_missed"`
	Score              *int          `json:"score,omitempty"`
	ScoreDetail        *ScoreResult  `json:"score_detail,omitempty"`
	ExampleDescription string        `json:"example_description,omitempty"`
	SubmissionHistory  []Submission  `json:"submission_history"`
	AIUsage            []AIUsage     `json:"ai_usage"`

	// Version increases on every persisted mutation.
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewGameSession builds an initialized session from a card's translation.
func NewGameSession(id string, card *TabooCard, userID int64, target Language, set TranslationSet, now time.Time) *GameSession {
	s := &GameSession{
		ID:                  id,
		CardID:              card.ID,
		UserID:              userID,
		TargetLanguage:      target,
		AnswerWord:          set.AnswerPair.Translated,
		OriginalAnswerWord:  set.AnswerPair.Original,
		OriginalKeyWords:    set.Originals(),
		TranslatedKeyWords:  set.Translated(),
		TranslationDegraded: set.Degraded,
		Status:              SessionStatusInitialized,
		WordsFound:          []string{},
		SubmissionHistory:   []Submission{},
		AIUsage:             []AIUsage{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.refreshMissed()
	return s
}

// FoundSet returns the accumulated found words as a set.
func (s *GameSession) FoundSet() *WordSet {
	return NewWordSet(s.WordsFound...)
}

// ApplySubmission merges an evaluation into the session and returns the
// newly found key words. Found words are reported in key-word order.
func (s *GameSession) ApplySubmission(description string, result EvaluationResult, now time.Time) []string {
	found := s.FoundSet()
	reported := NewWordSet(result.WordsFound...)
	var candidates []string
	for _, kw := range s.TranslatedKeyWords {
		if reported.Contains(kw) {
			candidates = append(candidates, kw)
		}
	}
	added := found.Union(candidates)

	// Keep key-word order rather than discovery order.
	s.WordsFound, _ = found.Partition(s.TranslatedKeyWords)
	s.refreshMissed()

	s.SubmissionHistory = append(s.SubmissionHistory, Submission{
		Description:         description,
		NewlyFoundWords:     added,
		AnswerWordMentioned: result.AnswerWordMentioned,
		Source:              result.Source,
		Qualitative:         result.Qualitative,
		Timestamp:           now,
	})
	if s.Status == SessionStatusInitialized {
		s.Status = SessionStatusInProgress
	}
	s.UpdatedAt = now
	return added
}

// AnswerWordMentioned reports whether any submission named the answer word.
func (s *GameSession) AnswerWordMentioned() bool {
	for _, sub := range s.SubmissionHistory {
		if sub.AnswerWordMentioned {
			return true
		}
	}
	return false
}

// LatestQualitative returns the most recent AI qualitative signals, if any.
func (s *GameSession) LatestQualitative() *QualitativeSignals {
	for i := len(s.SubmissionHistory) - 1; i >= 0; i-- {
		sub := s.SubmissionHistory[i]
		if sub.Source == EvaluationSourceAI && sub.Qualitative != nil {
			return sub.Qualitative
		}
	}
	return nil
}

// AccumulatedEvaluation summarises the whole session as a single evaluation.
func (s *GameSession) AccumulatedEvaluation() EvaluationResult {
	source := EvaluationSourceFallback
	q := s.LatestQualitative()
	if q != nil {
		source = EvaluationSourceAI
	}
	return EvaluationResult{
		WordsFound:          append([]string{}, s.WordsFound...),
		WordsMissed:         append([]string{}, s.WordsMissed...),
		AnswerWordMentioned: s.AnswerWordMentioned(),
		Qualitative:         q,
		Source:              source,
	}
}

// Complete freezes the score and moves the session to completed.
func (s *GameSession) Complete(result ScoreResult, now time.Time) {
	score := result.FinalScore
	s.Score = &score
	s.ScoreDetail = &result
	s.Status = SessionStatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Abandon moves the session to abandoned.
func (s *GameSession) Abandon(reason AbandonReason, now time.Time) {
	s.Status = SessionStatusAbandoned
	s.AbandonReason = reason
	s.UpdatedAt = now
}

// Clone returns a deep copy safe to mutate.
func (s *GameSession) Clone() *GameSession {
	if s == nil {
		return nil
	}
	c := *s
	c.OriginalKeyWords = append([]string{}, s.OriginalKeyWords...)
	c.TranslatedKeyWords = append([]string{}, s.TranslatedKeyWords...)
	c.WordsFound = append([]string{}, s.WordsFound...)
	c.WordsMissed = append([]string{}, s.WordsMissed...)
	c.SubmissionHistory = append([]Submission{}, s.SubmissionHistory...)
	c.AIUsage = append([]AIUsage{}, s.AIUsage...)
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	if s.ScoreDetail != nil {
		d := *s.ScoreDetail
		d.Breakdown = append([]ScoreLine{}, s.ScoreDetail.Breakdown...)
		c.ScoreDetail = &d
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (s *GameSession) refreshMissed() {
	_, s.WordsMissed = s.FoundSet().Partition(s.TranslatedKeyWords)
}

// UserStats aggregates a user's sessions for reporting.
type UserStats struct {
	UserID          int64   `json:"user_id"`
	TotalSessions   int64   `json:"total_sessions"`
	InProgress      int64   `json:"in_progress"`
	Completed       int64   `json:"completed"`
	Abandoned       int64   `json:"abandoned"`
	AverageScore    float64 `json:"average_score"`
	BestScore       int     `json:"best_score"`
	TotalWordsFound int64   `json:"total_words_found"`
}
