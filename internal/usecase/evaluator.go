package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/entity"
)

// EvaluationInput is one description to evaluate against a session's translated words.
type EvaluationInput struct {
	Description      string
	KeyWords         []string
	OriginalKeyWords []string
	AnswerWord       string
	Language         entity.Language
}

// Evaluation is an evaluation result plus the telemetry of the AI call, if any.
type Evaluation struct {
	Result entity.EvaluationResult
	Usage  *entity.AIUsage
	// Cause holds the capability failure when the fallback path ran.
	Cause error
}

// Evaluator decides which key words a description used. It never fails:
// when the AI path is unavailable or returns garbage the literal fallback runs.
type Evaluator interface {
	Evaluate(ctx context.Context, in EvaluationInput) *Evaluation
}

// NewEvaluator wraps an evaluation capability with validation and the substring fallback.
func NewEvaluator(capability DescriptionEvaluator, timeout time.Duration, logger logrus.FieldLogger) Evaluator {
	return &evaluator{capability: capability, timeout: timeout, logger: logger}
}

type evaluator struct {
	capability DescriptionEvaluator
	timeout    time.Duration
	logger     logrus.FieldLogger
}

func (e *evaluator) Evaluate(ctx context.Context, in EvaluationInput) *Evaluation {
	out, err := e.call(ctx, in)
	if err == nil {
		var result entity.EvaluationResult
		if result, err = resultFromAI(in, out); err == nil {
			return &Evaluation{Result: result, Usage: out.Usage}
		}
	}

	e.logger.WithError(err).WithField("key_words", len(in.KeyWords)).Warn("evaluation fell back to substring matching")
	ev := &Evaluation{Result: FallbackEvaluate(in), Cause: err}
	if out != nil {
		ev.Usage = out.Usage
	}
	return ev
}

func (e *evaluator) call(ctx context.Context, in EvaluationInput) (*EvaluationOutput, error) {
	if e.capability == nil {
		return nil, entity.ErrCapabilityUnavailable
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	out, err := e.capability.EvaluateDescription(ctx, EvaluationRequest{
		Description: in.Description,
		KeyWords:    append([]string{}, in.KeyWords...),
		AnswerWord:  in.AnswerWord,
		Language:    in.Language,
	})
	if err != nil {
		return out, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty evaluation", entity.ErrMalformedAIResponse)
	}
	return out, nil
}

// resultFromAI maps AI word details onto the session's key words. Details
// naming words outside the key-word set are dropped; every key word gets a
// detail line, found or not.
func resultFromAI(in EvaluationInput, out *EvaluationOutput) (entity.EvaluationResult, error) {
	if err := out.Qualitative.Validate(); err != nil {
		return entity.EvaluationResult{}, fmt.Errorf("%w: %v", entity.ErrMalformedAIResponse, err)
	}

	reported := make(map[string]entity.WordDetail, len(out.WordDetails))
	for _, d := range out.WordDetails {
		key := entity.NormalizeWordToken(d.KeyWord)
		if prev, ok := reported[key]; ok && prev.Found {
			continue
		}
		reported[key] = d
	}

	found := entity.NewWordSet()
	details := make([]entity.WordDetail, len(in.KeyWords))
	for i, kw := range in.KeyWords {
		d, ok := reported[entity.NormalizeWordToken(kw)]
		detail := entity.WordDetail{KeyWord: kw, Original: originalAt(in.OriginalKeyWords, i)}
		if ok && d.Found {
			detail.Found = true
			detail.UsedAs = strings.TrimSpace(d.UsedAs)
			detail.Context = strings.TrimSpace(d.Context)
			found.Add(kw)
		}
		details[i] = detail
	}

	wordsFound, wordsMissed := found.Partition(in.KeyWords)
	return entity.EvaluationResult{
		WordsFound:          wordsFound,
		WordsMissed:         wordsMissed,
		AnswerWordMentioned: out.AnswerWordMentioned,
		WordDetails:         details,
		Qualitative:         out.Qualitative,
		Source:              entity.EvaluationSourceAI,
	}, nil
}

// FallbackEvaluate is the deterministic literal matcher: a key word counts as
// used when the description contains it, ignoring case. It has no notion of
// inflection and produces no qualitative signals.
func FallbackEvaluate(in EvaluationInput) entity.EvaluationResult {
	text := strings.ToLower(in.Description)
	found := entity.NewWordSet()
	details := make([]entity.WordDetail, len(in.KeyWords))
	for i, kw := range in.KeyWords {
		detail := entity.WordDetail{KeyWord: kw, Original: originalAt(in.OriginalKeyWords, i)}
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle != "" && strings.Contains(text, needle) {
			detail.Found = true
			detail.UsedAs = kw
			detail.Context = "literal match"
			found.Add(kw)
		}
		details[i] = detail
	}
	wordsFound, wordsMissed := found.Partition(in.KeyWords)

	answer := strings.ToLower(strings.TrimSpace(in.AnswerWord))
	return entity.EvaluationResult{
		WordsFound:          wordsFound,
		WordsMissed:         wordsMissed,
		AnswerWordMentioned: answer != "" && strings.Contains(text, answer),
		WordDetails:         details,
		Source:              entity.EvaluationSourceFallback,
	}
}

func originalAt(originals []string, i int) string {
	if i < len(originals) {
		return originals[i]
	}
	return ""
}
