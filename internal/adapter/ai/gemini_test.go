package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/usecase"
)

type fakeModels struct {
	text    string
	err     error
	prompts []string
	cfg     *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for _, c := range contents {
		for _, p := range c.Parts {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	f.cfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1000,
			CandidatesTokenCount: 500,
			TotalTokenCount:      1500,
		},
	}, nil
}

func newTestGemini(f *fakeModels) *Gemini {
	g := newGemini(f, "", Pricing{InputPerMillion: 1, OutputPerMillion: 4})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	return g
}

func TestTranslateWordSet(t *testing.T) {
	f := &fakeModels{text: "```json\n" + `{"answer_word": "COCHE", "key_words": [
		{"original": "drive", "translated": "conducir"},
		{"original": "wheels", "translated": "ruedas"},
		{"original": "road", "translated": "carretera"}]}` + "\n```"}
	g := newTestGemini(f)

	out, err := g.TranslateWordSet(context.Background(), usecase.TranslationRequest{
		AnswerWord:     "CAR",
		KeyWords:       []string{"drive", "wheels", "road"},
		SourceLanguage: entity.LanguageEnglish,
		TargetLanguage: entity.LanguageSpanish,
	})
	if err != nil {
		t.Fatalf("TranslateWordSet returned error: %v", err)
	}
	if out.AnswerWord != "COCHE" {
		t.Fatalf("expected COCHE, got %q", out.AnswerWord)
	}
	want := []entity.TranslationPair{
		{Original: "drive", Translated: "conducir"},
		{Original: "wheels", Translated: "ruedas"},
		{Original: "road", Translated: "carretera"},
	}
	if diff := cmp.Diff(want, out.KeyWordPairs); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
	if f.cfg == nil || f.cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response mode, got %+v", f.cfg)
	}
	if len(f.prompts) != 1 || !strings.Contains(f.prompts[0], "English to Spanish") {
		t.Fatalf("unexpected prompt: %v", f.prompts)
	}
	if out.Usage == nil || out.Usage.Model != DefaultGeminiModel || out.Usage.TotalTokens != 1500 {
		t.Fatalf("unexpected usage: %+v", out.Usage)
	}
	if got, want := out.Usage.Cost, 0.003; got != want {
		t.Fatalf("expected cost %v, got %v", want, got)
	}
}

func TestTranslateWordSetMalformedKeepsUsage(t *testing.T) {
	g := newTestGemini(&fakeModels{text: "certainly! here is the translation"})
	out, err := g.TranslateWordSet(context.Background(), usecase.TranslationRequest{AnswerWord: "CAR", KeyWords: []string{"road"}})
	if !errors.Is(err, entity.ErrMalformedAIResponse) {
		t.Fatalf("expected ErrMalformedAIResponse, got %v", err)
	}
	if out == nil || out.Usage == nil {
		t.Fatalf("expected usage to be reported for a malformed answer, got %+v", out)
	}
}

func TestGenerateTransportError(t *testing.T) {
	g := newTestGemini(&fakeModels{err: errors.New("quota exceeded")})
	out, err := g.EvaluateDescription(context.Background(), usecase.EvaluationRequest{Description: "x", KeyWords: []string{"a"}})
	if !errors.Is(err, entity.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected no output, got %+v", out)
	}
}

func TestEvaluateDescription(t *testing.T) {
	f := &fakeModels{text: `{"words": [
		{"key_word": "pets", "found": true, "used_as": "pet", "context": "a common pet"},
		{"key_word": "bark", "found": false}],
		"answer_word_mentioned": false, "naturalness": 8, "creativity": 7, "grammar": "Correct", "feedback": " Nice. "}`}
	g := newTestGemini(f)

	out, err := g.EvaluateDescription(context.Background(), usecase.EvaluationRequest{
		Description: "It is a common pet",
		KeyWords:    []string{"pets", "bark"},
		AnswerWord:  "DOG",
		Language:    entity.LanguageEnglish,
	})
	if err != nil {
		t.Fatalf("EvaluateDescription returned error: %v", err)
	}
	wantDetails := []entity.WordDetail{
		{KeyWord: "pets", Found: true, UsedAs: "pet", Context: "a common pet"},
		{KeyWord: "bark"},
	}
	if diff := cmp.Diff(wantDetails, out.WordDetails); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}
	wantQ := &entity.QualitativeSignals{Naturalness: 8, Creativity: 7, Grammar: entity.GrammarCorrect, Feedback: "Nice."}
	if diff := cmp.Diff(wantQ, out.Qualitative); diff != "" {
		t.Fatalf("qualitative mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(f.prompts[0], "It is a common pet") {
		t.Fatalf("description missing from prompt: %s", f.prompts[0])
	}
}

func TestEvaluateDescriptionWithoutGrades(t *testing.T) {
	g := newTestGemini(&fakeModels{text: `{"words": [], "answer_word_mentioned": true}`})
	out, err := g.EvaluateDescription(context.Background(), usecase.EvaluationRequest{Description: "dog", KeyWords: []string{"pets"}})
	if err != nil {
		t.Fatalf("EvaluateDescription returned error: %v", err)
	}
	if out.Qualitative != nil {
		t.Fatalf("expected no qualitative signals, got %+v", out.Qualitative)
	}
	if !out.AnswerWordMentioned {
		t.Fatal("expected answer word mention to be reported")
	}
}

func TestEvaluationPromptRestrictsToInflections(t *testing.T) {
	prompt := evaluationPrompt(usecase.EvaluationRequest{
		Description: "Lo conduzco por la carretera",
		KeyWords:    []string{"conducir", "carretera"},
		AnswerWord:  "COCHE",
		Language:    entity.LanguageSpanish,
	})
	for _, want := range []string{
		"plural or singular",
		"verb conjugation or tense",
		"Synonyms, translations, derived words and merely related words do not count",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "inflected or derived form") {
		t.Fatalf("prompt must not accept derived forms:\n%s", prompt)
	}
}

func TestEvaluateDescriptionRoundsFractionalGrades(t *testing.T) {
	g := newTestGemini(&fakeModels{text: `{"words": [{"key_word": "road", "found": true, "used_as": "roads"}],
		"answer_word_mentioned": false, "naturalness": 7.5, "creativity": 6.4, "grammar": "minor_errors"}`})
	out, err := g.EvaluateDescription(context.Background(), usecase.EvaluationRequest{
		Description: "Many roads",
		KeyWords:    []string{"road"},
		AnswerWord:  "CAR",
		Language:    entity.LanguageEnglish,
	})
	if err != nil {
		t.Fatalf("EvaluateDescription returned error: %v", err)
	}
	wantQ := &entity.QualitativeSignals{Naturalness: 8, Creativity: 6, Grammar: entity.GrammarMinorErrors}
	if diff := cmp.Diff(wantQ, out.Qualitative); diff != "" {
		t.Fatalf("qualitative mismatch (-want +got):\n%s", diff)
	}
	if len(out.WordDetails) != 1 || !out.WordDetails[0].Found {
		t.Fatalf("expected the found word to survive, got %+v", out.WordDetails)
	}
}

func TestGenerateSampleDescription(t *testing.T) {
	g := newTestGemini(&fakeModels{text: `{"description": "  You drive it on the road on four wheels.  "}`})
	out, err := g.GenerateSampleDescription(context.Background(), usecase.SampleRequest{AnswerWord: "CAR", KeyWords: []string{"drive"}})
	if err != nil {
		t.Fatalf("GenerateSampleDescription returned error: %v", err)
	}
	if out.Description != "You drive it on the road on four wheels." {
		t.Fatalf("unexpected description %q", out.Description)
	}
	if out.Usage == nil || out.Usage.Operation != entity.AIOperationSample {
		t.Fatalf("unexpected usage %+v", out.Usage)
	}
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "plain", input: `{"description": "x"}`, ok: true},
		{name: "fenced", input: "```json\n{\"description\": \"x\"}\n```", ok: true},
		{name: "bare fence", input: "```\n{\"description\": \"x\"}```", ok: true},
		{name: "trailing object", input: `{"description": "x"} {"description": "y"}`},
		{name: "prose", input: "no json here"},
		{name: "empty", input: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v sampleResponse
			err := decodeJSON(tc.input, &v)
			if tc.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.ok && !errors.Is(err, entity.ErrMalformedAIResponse) {
				t.Fatalf("expected ErrMalformedAIResponse, got %v", err)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	var d Disabled
	if _, err := d.TranslateWordSet(context.Background(), usecase.TranslationRequest{}); !errors.Is(err, entity.ErrCapabilityUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := d.EvaluateDescription(context.Background(), usecase.EvaluationRequest{}); !errors.Is(err, entity.ErrCapabilityUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := d.GenerateSampleDescription(context.Background(), usecase.SampleRequest{}); !errors.Is(err, entity.ErrCapabilityUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type captureRecorder struct{ got []entity.AIUsage }

func (c *captureRecorder) RecordUsage(_ context.Context, u entity.AIUsage) { c.got = append(c.got, u) }

func TestTrackerAggregatesByOperation(t *testing.T) {
	next := &captureRecorder{}
	tr := NewTracker(next)
	ctx := context.Background()
	tr.RecordUsage(ctx, entity.AIUsage{Operation: entity.AIOperationEvaluate, PromptTokens: 10, CompletionTokens: 5, Cost: 0.5})
	tr.RecordUsage(ctx, entity.AIUsage{Operation: entity.AIOperationEvaluate, PromptTokens: 20, CompletionTokens: 5, Cost: 0.25})
	tr.RecordUsage(ctx, entity.AIUsage{Operation: entity.AIOperationTranslate, PromptTokens: 7, CompletionTokens: 3, Cost: 0.125})

	want := []OperationTotals{
		{Operation: entity.AIOperationEvaluate, Calls: 2, PromptTokens: 30, CompletionTokens: 10, Cost: 0.75},
		{Operation: entity.AIOperationTranslate, Calls: 1, PromptTokens: 7, CompletionTokens: 3, Cost: 0.125},
	}
	if diff := cmp.Diff(want, tr.Snapshot()); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
	if len(next.got) != 3 {
		t.Fatalf("expected 3 forwarded records, got %d", len(next.got))
	}
}
