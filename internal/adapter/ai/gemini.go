package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/usecase"
)

const (
	ProviderGemini     = "gemini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// contentGenerator is the slice of genai.Models the capabilities call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Pricing converts token counts into a cost, in currency units per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Cost prices one call.
func (p Pricing) Cost(promptTokens, completionTokens int32) float64 {
	return (float64(promptTokens)*p.InputPerMillion + float64(completionTokens)*p.OutputPerMillion) / 1_000_000
}

// Gemini implements the translation, evaluation and sample capabilities on the Gemini API.
type Gemini struct {
	models  contentGenerator
	model   string
	pricing Pricing
	now     func() time.Time
}

var (
	_ usecase.WordSetTranslator    = (*Gemini)(nil)
	_ usecase.DescriptionEvaluator = (*Gemini)(nil)
	_ usecase.SampleGenerator      = (*Gemini)(nil)
)

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, apiKey, model string, pricing Pricing) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model, pricing), nil
}

func newGemini(models contentGenerator, model string, pricing Pricing) *Gemini {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model, pricing: pricing, now: time.Now}
}

func (g *Gemini) TranslateWordSet(ctx context.Context, req usecase.TranslationRequest) (*usecase.TranslationOutput, error) {
	text, usage, err := g.generate(ctx, entity.AIOperationTranslate, translationPrompt(req), 0.2)
	if err != nil {
		return nil, err
	}
	out := &usecase.TranslationOutput{Usage: usage}
	resp, err := parseTranslation(text)
	if err != nil {
		return out, err
	}
	out.AnswerWord = strings.TrimSpace(resp.AnswerWord)
	out.KeyWordPairs = make([]entity.TranslationPair, 0, len(resp.KeyWords))
	for _, kw := range resp.KeyWords {
		out.KeyWordPairs = append(out.KeyWordPairs, entity.TranslationPair{
			Original:   strings.TrimSpace(kw.Original),
			Translated: strings.TrimSpace(kw.Translated),
		})
	}
	return out, nil
}

func (g *Gemini) EvaluateDescription(ctx context.Context, req usecase.EvaluationRequest) (*usecase.EvaluationOutput, error) {
	text, usage, err := g.generate(ctx, entity.AIOperationEvaluate, evaluationPrompt(req), 0)
	if err != nil {
		return nil, err
	}
	out := &usecase.EvaluationOutput{Usage: usage}
	resp, err := parseEvaluation(text)
	if err != nil {
		return out, err
	}
	out.AnswerWordMentioned = resp.AnswerWordMentioned
	out.WordDetails = make([]entity.WordDetail, 0, len(resp.Words))
	for _, w := range resp.Words {
		out.WordDetails = append(out.WordDetails, entity.WordDetail{
			KeyWord: w.KeyWord,
			Found:   w.Found,
			UsedAs:  w.UsedAs,
			Context: w.Context,
		})
	}
	out.Qualitative = resp.qualitative()
	return out, nil
}

func (g *Gemini) GenerateSampleDescription(ctx context.Context, req usecase.SampleRequest) (*usecase.SampleOutput, error) {
	text, usage, err := g.generate(ctx, entity.AIOperationSample, samplePrompt(req), 0.7)
	if err != nil {
		return nil, err
	}
	out := &usecase.SampleOutput{Usage: usage}
	resp, err := parseSample(text)
	if err != nil {
		return out, err
	}
	out.Description = resp.Description
	return out, nil
}

// generate runs one JSON-mode completion. Usage is returned whenever the
// model answered, even if the answer is later rejected.
func (g *Gemini) generate(ctx context.Context, op entity.AIOperation, prompt string, temperature float32) (string, *entity.AIUsage, error) {
	started := g.now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(temperature),
	})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %v", entity.ErrCapabilityUnavailable, op, err)
	}
	usage := &entity.AIUsage{
		Operation:  op,
		Provider:   ProviderGemini,
		Model:      g.model,
		Duration:   g.now().Sub(started),
		RecordedAt: g.now(),
	}
	if md := resp.UsageMetadata; md != nil {
		usage.PromptTokens = md.PromptTokenCount
		usage.CompletionTokens = md.CandidatesTokenCount
		usage.TotalTokens = md.TotalTokenCount
		usage.Cost = g.pricing.Cost(md.PromptTokenCount, md.CandidatesTokenCount)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", usage, fmt.Errorf("%w: %s returned no text", entity.ErrMalformedAIResponse, op)
	}
	return text, usage, nil
}
