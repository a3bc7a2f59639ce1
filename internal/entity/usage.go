package entity

import "time"

// AIOperation names the capability an AI call served.
type AIOperation string

const (
	AIOperationTranslate AIOperation = "translate_word_set"
	AIOperationEvaluate  AIOperation = "evaluate_description"
	AIOperationSample    AIOperation = "generate_sample_description"
)

// AIUsage is the telemetry record of a single AI call.
type AIUsage struct {
	Operation        AIOperation   `json:"operation"`
	Provider         string        `json:"provider"`
	Model            string        `json:"model"`
	PromptTokens     int32         `json:"prompt_tokens"`
	CompletionTokens int32         `json:"completion_tokens"`
	TotalTokens      int32         `json:"total_tokens"`
	Cost             float64       `json:"cost"`
	Duration         time.Duration `json:"duration"`
	SessionID        string        `json:"session_id,omitempty"`
	UserID           int64         `json:"user_id,omitempty"`
	RecordedAt       time.Time     `json:"recorded_at"`
}
