package ai

import (
	"context"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/usecase"
)

// Disabled stands in when no provider is configured. Every call reports
// entity.ErrCapabilityUnavailable so the deterministic fallbacks run.
type Disabled struct{}

func (Disabled) TranslateWordSet(context.Context, usecase.TranslationRequest) (*usecase.TranslationOutput, error) {
	return nil, entity.ErrCapabilityUnavailable
}

func (Disabled) EvaluateDescription(context.Context, usecase.EvaluationRequest) (*usecase.EvaluationOutput, error) {
	return nil, entity.ErrCapabilityUnavailable
}

func (Disabled) GenerateSampleDescription(context.Context, usecase.SampleRequest) (*usecase.SampleOutput, error) {
	return nil, entity.ErrCapabilityUnavailable
}
