package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
)

const (
	defaultMaxDescriptionLength = 2000
	defaultExpiryBatch          = 100
	maxConflictRetries          = 3
)

// SessionConfig tunes the session manager.
type SessionConfig struct {
	// IdleTimeout abandons open sessions untouched for this long. Zero disables expiry.
	IdleTimeout          time.Duration
	SampleTimeout        time.Duration
	MaxDescriptionLength int
	ExpiryBatch          int
}

// StartSessionInput identifies the card, player and target language of a new session.
type StartSessionInput struct {
	CardID         int64
	UserID         int64
	TargetLanguage string
}

// CompleteOptions tunes session completion.
type CompleteOptions struct {
	IncludeExample bool
}

// SubmissionOutcome is the result of one description submission.
type SubmissionOutcome struct {
	Session    *entity.GameSession
	Evaluation entity.EvaluationResult
	NewlyFound []string
	// ProvisionalScore scores the accumulated state; it is not frozen.
	ProvisionalScore entity.ScoreResult
}

// CompletionOutcome is the result of completing a session.
type CompletionOutcome struct {
	Session *entity.GameSession
	Score   entity.ScoreResult
}

// SessionUsecase owns the game session state machine.
type SessionUsecase interface {
	StartSession(ctx context.Context, in StartSessionInput) (*entity.GameSession, error)
	SubmitDescription(ctx context.Context, sessionID, description string) (*SubmissionOutcome, error)
	CompleteSession(ctx context.Context, sessionID string, opts CompleteOptions) (*CompletionOutcome, error)
	AbandonSession(ctx context.Context, sessionID string) (*entity.GameSession, error)
	GetSession(ctx context.Context, sessionID string) (*entity.GameSession, error)
	ListSessions(ctx context.Context, query *repository.ListSessionQuery) ([]entity.GameSession, int64, error)
	GetUserStats(ctx context.Context, userID int64) (*entity.UserStats, error)
	ExpireSessions(ctx context.Context) (int, error)
}

// NewSessionUsecase wires the session manager with its collaborators.
func NewSessionUsecase(
	cards repository.CardRepository,
	sessions repository.SessionRepository,
	translator Translator,
	evaluator Evaluator,
	sampler SampleGenerator,
	usage UsageRecorder,
	cfg SessionConfig,
	logger logrus.FieldLogger,
) SessionUsecase {
	if cfg.MaxDescriptionLength <= 0 {
		cfg.MaxDescriptionLength = defaultMaxDescriptionLength
	}
	if cfg.ExpiryBatch <= 0 {
		cfg.ExpiryBatch = defaultExpiryBatch
	}
	if usage == nil {
		usage = NopUsageRecorder{}
	}
	return &sessionUsecase{
		cards:      cards,
		sessions:   sessions,
		translator: translator,
		evaluator:  evaluator,
		sampler:    sampler,
		usage:      usage,
		cfg:        cfg,
		logger:     logger,
		locks:      newKeyedMutex(),
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

type sessionUsecase struct {
	cards      repository.CardRepository
	sessions   repository.SessionRepository
	translator Translator
	evaluator  Evaluator
	sampler    SampleGenerator
	usage      UsageRecorder
	cfg        SessionConfig
	logger     logrus.FieldLogger
	locks      *keyedMutex
	clock      func() time.Time
	newID      func() string
}

func (u *sessionUsecase) StartSession(ctx context.Context, in StartSessionInput) (*entity.GameSession, error) {
	target := entity.ParseLanguage(in.TargetLanguage)
	if target == entity.LanguageUnspecified {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidLanguage, in.TargetLanguage)
	}
	if in.CardID <= 0 {
		return nil, entity.ErrCardNotFound
	}

	card, err := u.cards.FindActiveCard(ctx, in.CardID)
	if err != nil {
		return nil, fmt.Errorf("find card: %w", err)
	}
	if card == nil {
		return nil, entity.ErrCardNotFound
	}

	tr, err := u.translator.Translate(ctx, card, target)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	session := entity.NewGameSession(u.newID(), card, in.UserID, target, tr.Set, now)
	if rec := u.track(ctx, session, tr.Usage); rec != nil {
		session.AIUsage = append(session.AIUsage, *rec)
	}

	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	u.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"card_id":    card.ID,
		"target":     target,
		"degraded":   tr.Set.Degraded,
	}).Info("session started")
	return session, nil
}

func (u *sessionUsecase) SubmitDescription(ctx context.Context, sessionID, description string) (*SubmissionOutcome, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil, fmt.Errorf("%w: description is empty", entity.ErrInvalidDescription)
	}
	if utf8.RuneCountInString(desc) > u.cfg.MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description longer than %d characters", entity.ErrInvalidDescription, u.cfg.MaxDescriptionLength)
	}

	snapshot, err := u.openSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The AI call runs outside the session lock so an abandon is never held
	// up by it; the result is applied only if the session is still open.
	ev := u.evaluator.Evaluate(ctx, EvaluationInput{
		Description:      desc,
		KeyWords:         snapshot.TranslatedKeyWords,
		OriginalKeyWords: snapshot.OriginalKeyWords,
		AnswerWord:       snapshot.AnswerWord,
		Language:         snapshot.TargetLanguage,
	})
	if err := ev.Result.Validate(); err != nil {
		return nil, err
	}
	rec := u.track(ctx, snapshot, ev.Usage)

	var added []string
	updated, err := u.mutate(ctx, sessionID, func(s *entity.GameSession) error {
		if !s.Status.Open() {
			return fmt.Errorf("%w: session is %s", entity.ErrInvalidSessionState, s.Status)
		}
		added = s.ApplySubmission(desc, ev.Result, u.clock())
		if rec != nil {
			s.AIUsage = append(s.AIUsage, *rec)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrInvalidSessionState) {
			u.logger.WithField("session_id", sessionID).Info("discarded evaluation for closed session")
		}
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"source":     ev.Result.Source,
		"new_words":  len(added),
	}).Debug("description evaluated")

	return &SubmissionOutcome{
		Session:          updated,
		Evaluation:       ev.Result,
		NewlyFound:       added,
		ProvisionalScore: Score(updated.AccumulatedEvaluation()),
	}, nil
}

func (u *sessionUsecase) CompleteSession(ctx context.Context, sessionID string, opts CompleteOptions) (*CompletionOutcome, error) {
	snapshot, err := u.openSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var example string
	var rec *entity.AIUsage
	if opts.IncludeExample {
		var usage *entity.AIUsage
		example, usage = u.sample(ctx, snapshot)
		rec = u.track(ctx, snapshot, usage)
	}

	var result entity.ScoreResult
	updated, err := u.mutate(ctx, sessionID, func(s *entity.GameSession) error {
		if !s.Status.Open() {
			return fmt.Errorf("%w: session is %s", entity.ErrInvalidSessionState, s.Status)
		}
		if len(s.SubmissionHistory) == 0 {
			result = EmptyScore()
		} else {
			eval := s.AccumulatedEvaluation()
			if err := eval.Validate(); err != nil {
				return err
			}
			result = Score(eval)
		}
		s.ExampleDescription = example
		if rec != nil {
			s.AIUsage = append(s.AIUsage, *rec)
		}
		s.Complete(result, u.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"score":      result.FinalScore,
	}).Info("session completed")
	return &CompletionOutcome{Session: updated, Score: result}, nil
}

func (u *sessionUsecase) AbandonSession(ctx context.Context, sessionID string) (*entity.GameSession, error) {
	return u.mutate(ctx, sessionID, func(s *entity.GameSession) error {
		if !s.Status.Open() {
			return fmt.Errorf("%w: session is %s", entity.ErrInvalidSessionState, s.Status)
		}
		s.Abandon(entity.AbandonReasonCancelled, u.clock())
		return nil
	})
}

func (u *sessionUsecase) GetSession(ctx context.Context, sessionID string) (*entity.GameSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, entity.ErrSessionNotFound
	}
	return u.sessions.Get(ctx, sessionID)
}

func (u *sessionUsecase) ListSessions(ctx context.Context, query *repository.ListSessionQuery) ([]entity.GameSession, int64, error) {
	if query == nil {
		query = &repository.ListSessionQuery{}
	}
	query.Normalize()
	return u.sessions.List(ctx, query)
}

func (u *sessionUsecase) GetUserStats(ctx context.Context, userID int64) (*entity.UserStats, error) {
	return u.sessions.Stats(ctx, userID)
}

// ExpireSessions abandons open sessions idle for longer than the configured timeout.
func (u *sessionUsecase) ExpireSessions(ctx context.Context) (int, error) {
	if u.cfg.IdleTimeout <= 0 {
		return 0, nil
	}
	cutoff := u.clock().Add(-u.cfg.IdleTimeout)
	idle, err := u.sessions.ListIdle(ctx, cutoff, u.cfg.ExpiryBatch)
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	expired := 0
	for _, candidate := range idle {
		_, err := u.mutate(ctx, candidate.ID, func(s *entity.GameSession) error {
			if !s.Status.Open() || !s.UpdatedAt.Before(cutoff) {
				return errSkip
			}
			s.Abandon(entity.AbandonReasonExpired, u.clock())
			return nil
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, errSkip):
		default:
			return expired, err
		}
	}
	if expired > 0 {
		u.logger.WithField("count", expired).Info("expired idle sessions")
	}
	return expired, nil
}

var errSkip = errors.New("skip")

// openSnapshot loads a session under its lock and checks it is still open.
func (u *sessionUsecase) openSnapshot(ctx context.Context, sessionID string) (*entity.GameSession, error) {
	unlock := u.locks.Lock(sessionID)
	defer unlock()
	s, err := u.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.Status.Open() {
		return nil, fmt.Errorf("%w: session is %s", entity.ErrInvalidSessionState, s.Status)
	}
	return s, nil
}

// mutate applies fn to the latest stored session under the session lock and
// persists it. A conflicting write from another process is retried.
func (u *sessionUsecase) mutate(ctx context.Context, sessionID string, fn func(*entity.GameSession) error) (*entity.GameSession, error) {
	unlock := u.locks.Lock(sessionID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		s, err := u.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if err := fn(s); err != nil {
			return nil, err
		}
		err = u.sessions.Update(ctx, s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, entity.ErrSessionConflict) || attempt+1 >= maxConflictRetries {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}
}

func (u *sessionUsecase) sample(ctx context.Context, s *entity.GameSession) (string, *entity.AIUsage) {
	if u.sampler == nil {
		return "", nil
	}
	if u.cfg.SampleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.SampleTimeout)
		defer cancel()
	}
	out, err := u.sampler.GenerateSampleDescription(ctx, SampleRequest{
		AnswerWord: s.AnswerWord,
		KeyWords:   append([]string{}, s.TranslatedKeyWords...),
		Language:   s.TargetLanguage,
	})
	if err != nil || out == nil {
		u.logger.WithError(err).WithField("session_id", s.ID).Warn("sample description unavailable")
		if out != nil {
			return "", out.Usage
		}
		return "", nil
	}
	return strings.TrimSpace(out.Description), out.Usage
}

// track stamps usage with the session identity and hands it to the meter.
// The call happened whether or not its result is applied, so it is always recorded.
func (u *sessionUsecase) track(ctx context.Context, s *entity.GameSession, usage *entity.AIUsage) *entity.AIUsage {
	if usage == nil {
		return nil
	}
	rec := *usage
	rec.SessionID = s.ID
	rec.UserID = s.UserID
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = u.clock()
	}
	u.usage.RecordUsage(ctx, rec)
	return &rec
}
