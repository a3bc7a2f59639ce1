package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/entity"
)

// Translation is a translated word set plus the telemetry of the call that produced it.
type Translation struct {
	Set   entity.TranslationSet
	Usage *entity.AIUsage
	// Cause holds the capability failure when Set is degraded.
	Cause error
}

// Translator converts a card's words into a target language as one operation.
type Translator interface {
	Translate(ctx context.Context, card *entity.TabooCard, target entity.Language) (*Translation, error)
}

// NewTranslator wraps a translation capability with validation and the identity fallback.
func NewTranslator(capability WordSetTranslator, timeout time.Duration, logger logrus.FieldLogger) Translator {
	return &translator{capability: capability, timeout: timeout, logger: logger}
}

type translator struct {
	capability WordSetTranslator
	timeout    time.Duration
	logger     logrus.FieldLogger
}

// Translate only fails on invalid input. Capability failures degrade to the
// identity translation.
func (t *translator) Translate(ctx context.Context, card *entity.TabooCard, target entity.Language) (*Translation, error) {
	if card == nil || strings.TrimSpace(card.AnswerWord) == "" || len(card.KeyWords) == 0 {
		return nil, entity.ErrInvalidCard
	}
	source := entity.NormalizeLanguage(card.Language)
	if target == source {
		return &Translation{Set: entity.IdentityTranslationSet(card.AnswerWord, card.KeyWords)}, nil
	}

	out, err := t.call(ctx, card, source, target)
	if err == nil {
		var set entity.TranslationSet
		if set, err = alignTranslation(card.AnswerWord, card.KeyWords, out); err == nil {
			return &Translation{Set: set, Usage: out.Usage}, nil
		}
	}

	t.logger.WithFields(logrus.Fields{
		"card_id": card.ID,
		"target":  target,
	}).WithError(err).Warn("translation degraded to identity")

	set := entity.IdentityTranslationSet(card.AnswerWord, card.KeyWords)
	set.Degraded = true
	res := &Translation{Set: set, Cause: err}
	if out != nil {
		res.Usage = out.Usage
	}
	return res, nil
}

func (t *translator) call(ctx context.Context, card *entity.TabooCard, source, target entity.Language) (*TranslationOutput, error) {
	if t.capability == nil {
		return nil, entity.ErrCapabilityUnavailable
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	out, err := t.capability.TranslateWordSet(ctx, TranslationRequest{
		AnswerWord:     card.AnswerWord,
		KeyWords:       append([]string{}, card.KeyWords...),
		Category:       card.Category,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return out, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty translation", entity.ErrMalformedAIResponse)
	}
	return out, nil
}

// alignTranslation rebuilds the key-word pairs in card order. Every key word
// must be translated exactly once, to a non-empty value, and no two key words
// may share a translation.
func alignTranslation(answerWord string, keyWords []string, out *TranslationOutput) (entity.TranslationSet, error) {
	answer := strings.TrimSpace(out.AnswerWord)
	if answer == "" {
		return entity.TranslationSet{}, fmt.Errorf("%w: answer word missing", entity.ErrTranslationMismatch)
	}
	if len(out.KeyWordPairs) != len(keyWords) {
		return entity.TranslationSet{}, fmt.Errorf("%w: got %d pairs for %d key words",
			entity.ErrTranslationMismatch, len(out.KeyWordPairs), len(keyWords))
	}

	byOriginal := make(map[string]string, len(out.KeyWordPairs))
	for _, p := range out.KeyWordPairs {
		key := entity.NormalizeWordToken(p.Original)
		if _, dup := byOriginal[key]; dup {
			return entity.TranslationSet{}, fmt.Errorf("%w: %q translated twice", entity.ErrTranslationMismatch, p.Original)
		}
		byOriginal[key] = strings.TrimSpace(p.Translated)
	}

	translated := entity.NewWordSet()
	pairs := make([]entity.TranslationPair, len(keyWords))
	for i, kw := range keyWords {
		tr, ok := byOriginal[entity.NormalizeWordToken(kw)]
		if !ok {
			return entity.TranslationSet{}, fmt.Errorf("%w: %q not translated", entity.ErrTranslationMismatch, kw)
		}
		if tr == "" {
			return entity.TranslationSet{}, fmt.Errorf("%w: empty translation for %q", entity.ErrTranslationMismatch, kw)
		}
		if !translated.Add(tr) {
			return entity.TranslationSet{}, fmt.Errorf("%w: %q shares translation %q", entity.ErrTranslationMismatch, kw, tr)
		}
		pairs[i] = entity.TranslationPair{Original: kw, Translated: tr}
	}

	return entity.TranslationSet{
		AnswerPair:   entity.TranslationPair{Original: answerWord, Translated: answer},
		KeyWordPairs: pairs,
	}, nil
}
