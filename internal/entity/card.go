package entity

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty grades how hard a card is to describe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a raw string onto a Difficulty. Empty input yields medium.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	case "":
		return DifficultyMedium, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidCard, raw)
	}
}

// TabooCard is a puzzle unit: an answer word plus the key words used to describe it.
type TabooCard struct {
	ID         int64      `json:"id" yaml:"id,omitempty"`
	AnswerWord string     `json:"answer_word" yaml:"answer_word"`
	KeyWords   []string   `json:"key_words" yaml:"key_words"`
	Category   string     `json:"category" yaml:"category"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
	Language   Language   `json:"language" yaml:"language"`
	Active     bool       `json:"active" yaml:"active"`
	CreatedAt  time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"-"`
}

// Normalize canonicalises the card before persistence: the answer word is
// upper-cased, key words are trimmed and deduplicated case-insensitively,
// the language code is lower-cased.
func (c *TabooCard) Normalize(now time.Time) {
	c.AnswerWord = strings.ToUpper(strings.TrimSpace(c.AnswerWord))
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	trimmed := make([]string, 0, len(c.KeyWords))
	for _, kw := range c.KeyWords {
		trimmed = append(trimmed, strings.TrimSpace(kw))
	}
	c.KeyWords = NewWordSet(trimmed...).Words()
	// Unknown codes are kept, lower-cased, so Validate can reject them.
	c.Language = Language(strings.ToLower(c.Language.Code()))
	if c.Language == LanguageUnspecified {
		c.Language = LanguageEnglish
	}
	if c.Difficulty == "" {
		c.Difficulty = DifficultyMedium
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// Validate checks the invariants the engine relies on.
func (c *TabooCard) Validate() error {
	if strings.TrimSpace(c.AnswerWord) == "" {
		return fmt.Errorf("%w: answer word required", ErrInvalidCard)
	}
	if len(c.KeyWords) == 0 {
		return fmt.Errorf("%w: at least one key word required", ErrInvalidCard)
	}
	set := NewWordSet()
	for _, kw := range c.KeyWords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: empty key word", ErrInvalidCard)
		}
		if !set.Add(kw) {
			return fmt.Errorf("%w: duplicate key word %q", ErrInvalidCard, kw)
		}
	}
	if _, err := ParseDifficulty(string(c.Difficulty)); err != nil {
		return err
	}
	if !c.Language.Supported() {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidCard, c.Language)
	}
	return nil
}
