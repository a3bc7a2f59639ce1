package usecase

import (
	"context"

	"github.com/eslsoft/taboo/internal/entity"
)

// TranslationRequest asks for one coordinated translation of a card's words.
type TranslationRequest struct {
	AnswerWord     string
	KeyWords       []string
	Category       string
	SourceLanguage entity.Language
	TargetLanguage entity.Language
}

// TranslationOutput is what a translation capability returns. Pairs may come
// back in any order; the Translator realigns and validates them.
type TranslationOutput struct {
	AnswerWord   string
	KeyWordPairs []entity.TranslationPair
	Usage        *entity.AIUsage
}

// EvaluationRequest asks which key words a description used.
type EvaluationRequest struct {
	Description string
	KeyWords    []string
	AnswerWord  string
	Language    entity.Language
}

// EvaluationOutput is the raw AI verdict on a description.
type EvaluationOutput struct {
	WordDetails         []entity.WordDetail
	AnswerWordMentioned bool
	Qualitative         *entity.QualitativeSignals
	Usage               *entity.AIUsage
}

// SampleRequest asks for an example description of a card.
type SampleRequest struct {
	AnswerWord string
	KeyWords   []string
	Language   entity.Language
}

// SampleOutput is a generated example description.
type SampleOutput struct {
	Description string
	Usage       *entity.AIUsage
}

// WordSetTranslator translates an answer word and its key words as one set.
type WordSetTranslator interface {
	TranslateWordSet(ctx context.Context, req TranslationRequest) (*TranslationOutput, error)
}

// DescriptionEvaluator detects key words and their inflected forms in a description.
type DescriptionEvaluator interface {
	EvaluateDescription(ctx context.Context, req EvaluationRequest) (*EvaluationOutput, error)
}

// SampleGenerator writes an example description for a card.
type SampleGenerator interface {
	GenerateSampleDescription(ctx context.Context, req SampleRequest) (*SampleOutput, error)
}

// UsageRecorder receives AI telemetry. Implementations must not block and
// have no way to fail the caller.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, usage entity.AIUsage)
}

// NopUsageRecorder discards telemetry.
type NopUsageRecorder struct{}

func (NopUsageRecorder) RecordUsage(context.Context, entity.AIUsage) {}
