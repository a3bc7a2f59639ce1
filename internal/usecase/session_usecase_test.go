package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/eslsoft/taboo/internal/entity"
)

type sessionFixture struct {
	uc       *sessionUsecase
	cards    *fakeCardRepo
	sessions *fakeSessionRepo
	usage    *recordingUsage
	clock    *fakeClock
}

type fixtureOptions struct {
	translation WordSetTranslator
	evaluation  DescriptionEvaluator
	sampler     SampleGenerator
	cfg         SessionConfig
	cards       []entity.TabooCard
}

func newSessionFixture(t *testing.T, opts fixtureOptions) *sessionFixture {
	t.Helper()
	if opts.cards == nil {
		opts.cards = []entity.TabooCard{carCard()}
	}
	f := &sessionFixture{
		cards:    newFakeCardRepo(opts.cards...),
		sessions: newFakeSessionRepo(),
		usage:    &recordingUsage{},
		clock:    newFakeClock(),
	}
	logger := quietLogger()
	uc := NewSessionUsecase(
		f.cards,
		f.sessions,
		NewTranslator(opts.translation, time.Second, logger),
		NewEvaluator(opts.evaluation, time.Second, logger),
		opts.sampler,
		f.usage,
		opts.cfg,
		logger,
	).(*sessionUsecase)
	uc.clock = f.clock.Now
	seq := 0
	uc.newID = func() string {
		seq++
		return fmt.Sprintf("session-%d", seq)
	}
	f.uc = uc
	return f
}

func assertPartition(t *testing.T, s *entity.GameSession) {
	t.Helper()
	found := entity.NewWordSet(s.WordsFound...)
	for _, w := range s.WordsMissed {
		if found.Contains(w) {
			t.Fatalf("%q is both found and missed", w)
		}
	}
	all := append(append([]string{}, s.WordsFound...), s.WordsMissed...)
	if entity.NewWordSet(all...).Len() != len(s.TranslatedKeyWords) || len(all) != len(s.TranslatedKeyWords) {
		t.Fatalf("found %v and missed %v do not partition %v", s.WordsFound, s.WordsMissed, s.TranslatedKeyWords)
	}
}

func TestSessionCarInSpanish(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{translation: spanishCar()})
	ctx := context.Background()

	s, err := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 7, TargetLanguage: "ES"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.Status != entity.SessionStatusInitialized || s.TargetLanguage != entity.LanguageSpanish {
		t.Fatalf("unexpected new session %+v", s)
	}
	if diff := cmp.Diff([]string{"conducir", "ruedas", "carretera"}, s.TranslatedKeyWords); diff != "" {
		t.Fatalf("translated key words (-want +got):\n%s", diff)
	}
	if s.AnswerWord != "COCHE" || s.OriginalAnswerWord != "CAR" || s.TranslationDegraded {
		t.Fatalf("unexpected answer fields %+v", s)
	}

	out, err := f.uc.SubmitDescription(ctx, s.ID, "Manejo este vehículo por la carretera todos los días")
	if err != nil {
		t.Fatalf("SubmitDescription: %v", err)
	}
	if diff := cmp.Diff([]string{"carretera"}, out.NewlyFound); diff != "" {
		t.Fatalf("newly found (-want +got):\n%s", diff)
	}
	if out.Session.Status != entity.SessionStatusInProgress {
		t.Fatalf("expected in_progress, got %s", out.Session.Status)
	}
	assertPartition(t, out.Session)

	done, err := f.uc.CompleteSession(ctx, s.ID, CompleteOptions{})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	got := done.Session
	if got.Status != entity.SessionStatusCompleted || got.Score == nil || got.CompletedAt == nil {
		t.Fatalf("expected completed session with score, got %+v", got)
	}
	if *got.Score < 0 || *got.Score > 100 || *got.Score != done.Score.FinalScore {
		t.Fatalf("score %d out of bounds or not frozen (%d)", *got.Score, done.Score.FinalScore)
	}
	if *got.Score != 48 {
		t.Fatalf("expected 33 base plus 15 neutral bonus, got %d", *got.Score)
	}
	if diff := cmp.Diff([]string{"conducir", "ruedas"}, got.WordsMissed); diff != "" {
		t.Fatalf("missed (-want +got):\n%s", diff)
	}

	records := f.usage.all()
	if len(records) != 1 || records[0].SessionID != s.ID || records[0].UserID != 7 {
		t.Fatalf("expected translation usage stamped with the session, got %+v", records)
	}
	if stored := f.sessions.stored(s.ID); len(stored.AIUsage) != 1 {
		t.Fatalf("expected usage on the session, got %+v", stored.AIUsage)
	}
}

func TestSubmitAccumulatesFoundWords(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{})
	ctx := context.Background()
	s, err := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.TranslationDegraded {
		t.Fatal("a game in the card language uses the card words as-is")
	}

	steps := []struct {
		description string
		newly       []string
		found       []string
	}{
		{description: "You drive it every day", newly: []string{"DRIVE"}, found: []string{"DRIVE"}},
		{description: "I drive it on the road", newly: []string{"ROAD"}, found: []string{"DRIVE", "ROAD"}},
		{description: "Still driving", newly: []string{}, found: []string{"DRIVE", "ROAD"}},
		{description: "It has four wheels", newly: []string{"WHEELS"}, found: []string{"DRIVE", "WHEELS", "ROAD"}},
	}
	for i, step := range steps {
		out, err := f.uc.SubmitDescription(ctx, s.ID, step.description)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if diff := cmp.Diff(step.newly, out.NewlyFound); diff != "" {
			t.Fatalf("step %d newly found (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(step.found, out.Session.WordsFound); diff != "" {
			t.Fatalf("step %d found (-want +got):\n%s", i, diff)
		}
		assertPartition(t, out.Session)
		if len(out.Session.SubmissionHistory) != i+1 {
			t.Fatalf("step %d: expected %d submissions, got %d", i, i+1, len(out.Session.SubmissionHistory))
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{cfg: SessionConfig{MaxDescriptionLength: 10}})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})

	for _, desc := range []string{"", "   ", strings.Repeat("ñ", 11)} {
		if _, err := f.uc.SubmitDescription(ctx, s.ID, desc); !errors.Is(err, entity.ErrInvalidDescription) {
			t.Fatalf("expected ErrInvalidDescription for %q, got %v", desc, err)
		}
	}
	if _, err := f.uc.SubmitDescription(ctx, s.ID, strings.Repeat("ñ", 10)); err != nil {
		t.Fatalf("description at the limit should pass: %v", err)
	}
	if _, err := f.uc.SubmitDescription(ctx, "missing", "road"); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStartSessionErrors(t *testing.T) {
	inactive := carCard()
	inactive.ID = 2
	inactive.Active = false
	f := newSessionFixture(t, fixtureOptions{cards: []entity.TabooCard{carCard(), inactive}})
	ctx := context.Background()

	cases := []struct {
		name string
		in   StartSessionInput
		want error
	}{
		{name: "unknown language", in: StartSessionInput{CardID: 1, TargetLanguage: "xx"}, want: entity.ErrInvalidLanguage},
		{name: "empty language", in: StartSessionInput{CardID: 1}, want: entity.ErrInvalidLanguage},
		{name: "missing card", in: StartSessionInput{CardID: 9, TargetLanguage: "en"}, want: entity.ErrCardNotFound},
		{name: "inactive card", in: StartSessionInput{CardID: 2, TargetLanguage: "en"}, want: entity.ErrCardNotFound},
		{name: "zero id", in: StartSessionInput{TargetLanguage: "en"}, want: entity.ErrCardNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.uc.StartSession(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTerminalSessionsRejectChanges(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{})
	ctx := context.Background()
	completed, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	if _, err := f.uc.SubmitDescription(ctx, completed.ID, "drive"); err != nil {
		t.Fatalf("SubmitDescription: %v", err)
	}
	if _, err := f.uc.CompleteSession(ctx, completed.ID, CompleteOptions{}); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	abandoned, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	if _, err := f.uc.AbandonSession(ctx, abandoned.ID); err != nil {
		t.Fatalf("AbandonSession: %v", err)
	}

	for _, id := range []string{completed.ID, abandoned.ID} {
		before := f.sessions.stored(id)
		if _, err := f.uc.SubmitDescription(ctx, id, "road and wheels"); !errors.Is(err, entity.ErrInvalidSessionState) {
			t.Fatalf("%s: expected ErrInvalidSessionState on submit, got %v", id, err)
		}
		if _, err := f.uc.CompleteSession(ctx, id, CompleteOptions{}); !errors.Is(err, entity.ErrInvalidSessionState) {
			t.Fatalf("%s: expected ErrInvalidSessionState on complete, got %v", id, err)
		}
		if _, err := f.uc.AbandonSession(ctx, id); !errors.Is(err, entity.ErrInvalidSessionState) {
			t.Fatalf("%s: expected ErrInvalidSessionState on abandon, got %v", id, err)
		}
		if diff := cmp.Diff(before, f.sessions.stored(id)); diff != "" {
			t.Fatalf("%s: terminal session changed (-before +after):\n%s", id, diff)
		}
	}
	if got := f.sessions.stored(abandoned.ID); got.AbandonReason != entity.AbandonReasonCancelled {
		t.Fatalf("expected cancelled reason, got %q", got.AbandonReason)
	}
}

func TestCompleteWithoutSubmissions(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})

	done, err := f.uc.CompleteSession(ctx, s.ID, CompleteOptions{})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if done.Score.FinalScore != 0 || *done.Session.Score != 0 {
		t.Fatalf("expected zero score, got %+v", done.Score)
	}
	if diff := cmp.Diff(s.TranslatedKeyWords, done.Session.WordsMissed); diff != "" {
		t.Fatalf("every key word should be missed (-want +got):\n%s", diff)
	}
}

func TestCompleteWithExample(t *testing.T) {
	usage := &entity.AIUsage{Operation: entity.AIOperationSample, CompletionTokens: 30}
	f := newSessionFixture(t, fixtureOptions{
		sampler: sampleFunc(func(_ context.Context, req SampleRequest) (*SampleOutput, error) {
			if req.AnswerWord != "CAR" {
				t.Errorf("unexpected sample request %+v", req)
			}
			return &SampleOutput{Description: "  You sit inside it and steer.  ", Usage: usage}, nil
		}),
	})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 3, TargetLanguage: "en"})

	done, err := f.uc.CompleteSession(ctx, s.ID, CompleteOptions{IncludeExample: true})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if done.Session.ExampleDescription != "You sit inside it and steer." {
		t.Fatalf("unexpected example %q", done.Session.ExampleDescription)
	}
	records := f.usage.all()
	if len(records) != 1 || records[0].Operation != entity.AIOperationSample || records[0].SessionID != s.ID {
		t.Fatalf("expected sample usage, got %+v", records)
	}
}

func TestCompleteSurvivesSampleFailure(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{
		sampler: sampleFunc(func(context.Context, SampleRequest) (*SampleOutput, error) {
			return nil, entity.ErrCapabilityUnavailable
		}),
	})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 3, TargetLanguage: "en"})

	done, err := f.uc.CompleteSession(ctx, s.ID, CompleteOptions{IncludeExample: true})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if done.Session.Status != entity.SessionStatusCompleted || done.Session.ExampleDescription != "" {
		t.Fatalf("unexpected session %+v", done.Session)
	}
}

func TestAbandonDiscardsInFlightEvaluation(t *testing.T) {
	defer goleak.VerifyNone(t)

	called := make(chan struct{})
	release := make(chan struct{})
	usage := &entity.AIUsage{Operation: entity.AIOperationEvaluate, PromptTokens: 5}
	f := newSessionFixture(t, fixtureOptions{
		evaluation: evalFunc(func(context.Context, EvaluationRequest) (*EvaluationOutput, error) {
			close(called)
			<-release
			return &EvaluationOutput{
				WordDetails: []entity.WordDetail{{KeyWord: "ROAD", Found: true}},
				Usage:       usage,
			}, nil
		}),
	})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})

	errCh := make(chan error, 1)
	go func() {
		_, err := f.uc.SubmitDescription(ctx, s.ID, "the road")
		errCh <- err
	}()

	<-called
	abandoned, err := f.uc.AbandonSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("abandon must not wait for the evaluation: %v", err)
	}
	if abandoned.Status != entity.SessionStatusAbandoned {
		t.Fatalf("expected abandoned, got %s", abandoned.Status)
	}
	close(release)

	if err := <-errCh; !errors.Is(err, entity.ErrInvalidSessionState) {
		t.Fatalf("expected late evaluation to be rejected, got %v", err)
	}
	stored := f.sessions.stored(s.ID)
	if len(stored.WordsFound) != 0 || len(stored.SubmissionHistory) != 0 || stored.Status != entity.SessionStatusAbandoned {
		t.Fatalf("late evaluation leaked into the session: %+v", stored)
	}
	if records := f.usage.all(); len(records) != 1 || records[0].Operation != entity.AIOperationEvaluate {
		t.Fatalf("the AI call still happened and must be metered, got %+v", records)
	}
}

func TestConcurrentSubmitsSerialize(t *testing.T) {
	defer goleak.VerifyNone(t)

	card := entity.TabooCard{
		ID: 1, AnswerWord: "KITCHEN", Active: true, Language: entity.LanguageEnglish,
		KeyWords: []string{"cook", "oven", "sink", "fridge", "table", "knife", "stove", "plate"},
	}
	f := newSessionFixture(t, fixtureOptions{cards: []entity.TabooCard{card}})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	other, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 2, TargetLanguage: "en"})

	var wg sync.WaitGroup
	errs := make(chan error, 2*len(card.KeyWords))
	for _, kw := range card.KeyWords {
		for _, id := range []string{s.ID, other.ID} {
			wg.Add(1)
			go func(id, kw string) {
				defer wg.Done()
				_, err := f.uc.SubmitDescription(ctx, id, "there is a "+kw+" here")
				errs <- err
			}(id, kw)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SubmitDescription: %v", err)
		}
	}

	for _, id := range []string{s.ID, other.ID} {
		stored := f.sessions.stored(id)
		if diff := cmp.Diff(card.KeyWords, stored.WordsFound); diff != "" {
			t.Fatalf("%s: lost a found word (-want +got):\n%s", id, diff)
		}
		if len(stored.SubmissionHistory) != len(card.KeyWords) {
			t.Fatalf("%s: expected %d submissions, got %d", id, len(card.KeyWords), len(stored.SubmissionHistory))
		}
		if stored.Version != int64(1+len(card.KeyWords)) {
			t.Fatalf("%s: expected version %d, got %d", id, 1+len(card.KeyWords), stored.Version)
		}
	}
	if n := f.uc.locks.size(); n != 0 {
		t.Fatalf("expected session locks to be released, %d left", n)
	}
}

func TestMutateRetriesConflicts(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})

	f.sessions.mu.Lock()
	f.sessions.conflicts = maxConflictRetries - 1
	f.sessions.mu.Unlock()
	if _, err := f.uc.SubmitDescription(ctx, s.ID, "road"); err != nil {
		t.Fatalf("expected retries to absorb conflicts, got %v", err)
	}

	f.sessions.mu.Lock()
	f.sessions.conflicts = maxConflictRetries
	f.sessions.mu.Unlock()
	if _, err := f.uc.SubmitDescription(ctx, s.ID, "wheels"); !errors.Is(err, entity.ErrSessionConflict) {
		t.Fatalf("expected ErrSessionConflict after %d attempts, got %v", maxConflictRetries, err)
	}
	if got := f.sessions.stored(s.ID).WordsFound; len(got) != 1 {
		t.Fatalf("failed write must not apply, found %v", got)
	}
}

func TestExpireSessions(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{cfg: SessionConfig{IdleTimeout: 30 * time.Minute}})
	ctx := context.Background()

	idle, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	done, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	if _, err := f.uc.CompleteSession(ctx, done.ID, CompleteOptions{}); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	f.clock.Advance(20 * time.Minute)
	active, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	f.clock.Advance(15 * time.Minute)

	n, err := f.uc.ExpireSessions(ctx)
	if err != nil {
		t.Fatalf("ExpireSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if got := f.sessions.stored(idle.ID); got.Status != entity.SessionStatusAbandoned || got.AbandonReason != entity.AbandonReasonExpired {
		t.Fatalf("expected idle session expired, got %s/%s", got.Status, got.AbandonReason)
	}
	if got := f.sessions.stored(active.ID); got.Status != entity.SessionStatusInitialized {
		t.Fatalf("recent session must stay open, got %s", got.Status)
	}
	if got := f.sessions.stored(done.ID); got.Status != entity.SessionStatusCompleted {
		t.Fatalf("completed session must not change, got %s", got.Status)
	}
}

func TestExpireSessionsDisabled(t *testing.T) {
	f := newSessionFixture(t, fixtureOptions{})
	ctx := context.Background()
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	f.clock.Advance(24 * time.Hour)

	if n, err := f.uc.ExpireSessions(ctx); err != nil || n != 0 {
		t.Fatalf("expected no expiry without a timeout, got %d, %v", n, err)
	}
	if got := f.sessions.stored(s.ID); !got.Status.Open() {
		t.Fatalf("session should stay open, got %s", got.Status)
	}
}

func TestRunSessionExpiryStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newSessionFixture(t, fixtureOptions{cfg: SessionConfig{IdleTimeout: time.Minute}})
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := f.uc.StartSession(ctx, StartSessionInput{CardID: 1, UserID: 1, TargetLanguage: "en"})
	f.clock.Advance(time.Hour)

	done := make(chan error, 1)
	go func() { done <- RunSessionExpiry(ctx, f.uc, time.Millisecond, quietLogger()) }()

	deadline := time.After(2 * time.Second)
	for f.sessions.stored(s.ID).Status.Open() {
		select {
		case <-deadline:
			t.Fatal("sweeper never expired the idle session")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunSessionExpiry: %v", err)
	}
}

func TestKeyedMutex(t *testing.T) {
	defer goleak.VerifyNone(t)

	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	if k.size() != 2 {
		t.Fatalf("expected two held keys, got %d", k.size())
	}

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()
	select {
	case <-acquired:
		t.Fatal("second holder of the same key must wait")
	case <-time.After(20 * time.Millisecond):
	}
	unlockB()
	unlockA()
	<-acquired

	deadline := time.Now().Add(time.Second)
	for k.size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if k.size() != 0 {
		t.Fatalf("expected all keys released, %d left", k.size())
	}
}
