package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/eslsoft/taboo/internal/entity"
)

type translationResponse struct {
	AnswerWord string `json:"answer_word"`
	KeyWords   []struct {
		Original   string `json:"original"`
		Translated string `json:"translated"`
	} `json:"key_words"`
}

type evaluationResponse struct {
	Words []struct {
		KeyWord string `json:"key_word"`
		Found   bool   `json:"found"`
		UsedAs  string `json:"used_as"`
		Context string `json:"context"`
	} `json:"words"`
	AnswerWordMentioned bool     `json:"answer_word_mentioned"`
	Naturalness         *float64 `json:"naturalness"`
	Creativity          *float64 `json:"creativity"`
	Grammar             *string  `json:"grammar"`
	Feedback            string   `json:"feedback"`
}

// qualitative returns nil unless the model graded both naturalness and creativity.
// Fractional grades are rounded.
func (r evaluationResponse) qualitative() *entity.QualitativeSignals {
	if r.Naturalness == nil || r.Creativity == nil {
		return nil
	}
	q := &entity.QualitativeSignals{
		Naturalness: int(math.Round(*r.Naturalness)),
		Creativity:  int(math.Round(*r.Creativity)),
		Feedback:    strings.TrimSpace(r.Feedback),
	}
	if r.Grammar != nil {
		q.Grammar = entity.Grammar(strings.ToLower(strings.TrimSpace(*r.Grammar)))
	}
	return q
}

type sampleResponse struct {
	Description string `json:"description"`
}

func parseTranslation(text string) (*translationResponse, error) {
	var resp translationResponse
	if err := decodeJSON(text, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.AnswerWord) == "" {
		return nil, fmt.Errorf("%w: translation without answer_word", entity.ErrMalformedAIResponse)
	}
	if len(resp.KeyWords) == 0 {
		return nil, fmt.Errorf("%w: translation without key_words", entity.ErrMalformedAIResponse)
	}
	return &resp, nil
}

func parseEvaluation(text string) (*evaluationResponse, error) {
	var resp evaluationResponse
	if err := decodeJSON(text, &resp); err != nil {
		return nil, err
	}
	if resp.Words == nil {
		return nil, fmt.Errorf("%w: evaluation without words", entity.ErrMalformedAIResponse)
	}
	return &resp, nil
}

func parseSample(text string) (*sampleResponse, error) {
	var resp sampleResponse
	if err := decodeJSON(text, &resp); err != nil {
		return nil, err
	}
	resp.Description = strings.TrimSpace(resp.Description)
	if resp.Description == "" {
		return nil, fmt.Errorf("%w: empty sample description", entity.ErrMalformedAIResponse)
	}
	return &resp, nil
}

// decodeJSON accepts exactly one JSON object, optionally wrapped in a markdown code fence.
func decodeJSON(text string, v any) error {
	body := stripCodeFence(text)
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrMalformedAIResponse, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", entity.ErrMalformedAIResponse)
	}
	return nil
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
