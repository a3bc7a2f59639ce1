package connectrpc

import (
	"time"

	"github.com/eslsoft/taboo/internal/entity"
)

type Pagination struct {
	PageNo   int32 `json:"page_no"`
	PageSize int32 `json:"page_size"`
}

type PaginationResponse struct {
	PageNo   int32 `json:"page_no"`
	PageSize int32 `json:"page_size"`
	Total    int64 `json:"total"`
}

type IDRequest struct {
	ID int64 `json:"id"`
}

type SessionIDRequest struct {
	SessionID string `json:"session_id"`
}

type StartSessionRequest struct {
	CardID         int64  `json:"card_id"`
	UserID         int64  `json:"user_id"`
	TargetLanguage string `json:"target_language"`
}

type SubmitDescriptionRequest struct {
	SessionID   string `json:"session_id"`
	Description string `json:"description"`
}

type CompleteSessionRequest struct {
	SessionID string `json:"session_id"`
	// IncludeExample overrides the server default when set.
	IncludeExample *bool `json:"include_example,omitempty"`
}

type ListSessionsRequest struct {
	UserID     int64      `json:"user_id"`
	Filter     string     `json:"filter"`
	OrderBy    string     `json:"order_by"`
	Pagination Pagination `json:"pagination"`
}

type UserStatsRequest struct {
	UserID int64 `json:"user_id"`
}

type ListCardsRequest struct {
	Filter          string     `json:"filter"`
	OrderBy         string     `json:"order_by"`
	IncludeInactive bool       `json:"include_inactive"`
	Pagination      Pagination `json:"pagination"`
}

type SetCardActiveRequest struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
}

// Session is the client view of a game session. The original key words and
// the AI usage log stay server side.
type Session struct {
	ID                  string              `json:"id"`
	CardID              int64               `json:"card_id"`
	UserID              int64               `json:"user_id"`
	TargetLanguage      string              `json:"target_language"`
	Status              string              `json:"status"`
	AbandonReason       string              `json:"abandon_reason,omitempty"`
	AnswerWord          string              `json:"answer_word"`
	KeyWords            []string            `json:"key_words"`
	WordsFound          []string            `json:"words_found"`
	WordsMissed         []string            `json:"words_missed"`
	TranslationDegraded bool                `json:"translation_degraded"`
	Submissions         []entity.Submission `json:"submissions"`
	Score               *int                `json:"score,omitempty"`
	ScoreDetail         *entity.ScoreResult `json:"score_detail,omitempty"`
	ExampleDescription  string              `json:"example_description,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	CompletedAt         *time.Time          `json:"completed_at,omitempty"`
}

type SubmitDescriptionResponse struct {
	Session             *Session                   `json:"session"`
	NewlyFound          []string                   `json:"newly_found"`
	WordDetails         []entity.WordDetail        `json:"word_details"`
	AnswerWordMentioned bool                       `json:"answer_word_mentioned"`
	Qualitative         *entity.QualitativeSignals `json:"qualitative,omitempty"`
	EvaluationSource    entity.EvaluationSource    `json:"evaluation_source"`
	TranslationDegraded bool                       `json:"translation_degraded"`
	ProvisionalScore    entity.ScoreResult         `json:"provisional_score"`
}

type CompleteSessionResponse struct {
	Session             *Session                `json:"session"`
	Score               entity.ScoreResult      `json:"score"`
	EvaluationSource    entity.EvaluationSource `json:"evaluation_source"`
	TranslationDegraded bool                    `json:"translation_degraded"`
}

type ListSessionsResponse struct {
	Items      []*Session         `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

type ListCardsResponse struct {
	Items      []entity.TabooCard `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

type Empty struct{}
