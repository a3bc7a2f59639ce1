package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeCardRepo struct {
	mu    sync.RWMutex
	cards map[int64]entity.TabooCard
}

func newFakeCardRepo(cards ...entity.TabooCard) *fakeCardRepo {
	r := &fakeCardRepo{cards: make(map[int64]entity.TabooCard)}
	for _, c := range cards {
		r.cards[c.ID] = c
	}
	return r
}

func (r *fakeCardRepo) FindActiveCard(ctx context.Context, id int64) (*entity.TabooCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.cards[id]
	if !ok || !card.Active {
		return nil, nil
	}
	card.KeyWords = append([]string{}, card.KeyWords...)
	return &card, nil
}

func (r *fakeCardRepo) List(ctx context.Context, query *repository.ListCardQuery) ([]entity.TabooCard, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.TabooCard
	for _, c := range r.cards {
		if c.Active || query.IncludeInactive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeCardRepo) Upsert(ctx context.Context, cards []entity.TabooCard) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cards {
		r.cards[c.ID] = c
	}
	return len(cards), nil
}

func (r *fakeCardRepo) SetActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[id]
	if !ok {
		return entity.ErrCardNotFound
	}
	card.Active = active
	r.cards[id] = card
	return nil
}

type fakeSessionRepo struct {
	mu    sync.Mutex
	items map[string]*entity.GameSession
	// conflicts makes the next n updates fail as if another writer won.
	conflicts int
	updates   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{items: make(map[string]*entity.GameSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; ok {
		return errors.New("duplicate session id")
	}
	s.Version = 1
	r.items[s.ID] = s.Clone()
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, id string) (*entity.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[s.ID]
	if !ok {
		return entity.ErrSessionNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
		return entity.ErrSessionConflict
	}
	if stored.Version != s.Version {
		return entity.ErrSessionConflict
	}
	s.Version++
	r.updates++
	r.items[s.ID] = s.Clone()
	return nil
}

func (r *fakeSessionRepo) List(ctx context.Context, query *repository.ListSessionQuery) ([]entity.GameSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.GameSession
	for _, s := range r.items {
		if s.UserID == query.UserID {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) ListIdle(ctx context.Context, updatedBefore time.Time, limit int) ([]entity.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.GameSession
	for _, s := range r.items {
		if s.Status.Open() && s.UpdatedAt.Before(updatedBefore) {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) Stats(ctx context.Context, userID int64) (*entity.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entity.UserStats{UserID: userID}
	for _, s := range r.items {
		if s.UserID == userID {
			stats.TotalSessions++
		}
	}
	return stats, nil
}

func (r *fakeSessionRepo) stored(id string) *entity.GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Clone()
}

type fakeTranslationCap struct {
	mu    sync.Mutex
	calls int
	out   *TranslationOutput
	err   error
}

func (f *fakeTranslationCap) TranslateWordSet(ctx context.Context, req TranslationRequest) (*TranslationOutput, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.out, f.err
}

func (f *fakeTranslationCap) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// spanishCar translates the CAR card the way a well-behaved model would,
// with pairs deliberately out of order.
func spanishCar() *fakeTranslationCap {
	return &fakeTranslationCap{out: &TranslationOutput{
		AnswerWord: "COCHE",
		KeyWordPairs: []entity.TranslationPair{
			{Original: "road", Translated: "carretera"},
			{Original: "DRIVE", Translated: "conducir"},
			{Original: "Wheels", Translated: "ruedas"},
		},
		Usage: &entity.AIUsage{Operation: entity.AIOperationTranslate, PromptTokens: 120, CompletionTokens: 40},
	}}
}

type evalFunc func(ctx context.Context, req EvaluationRequest) (*EvaluationOutput, error)

func (f evalFunc) EvaluateDescription(ctx context.Context, req EvaluationRequest) (*EvaluationOutput, error) {
	return f(ctx, req)
}

type sampleFunc func(ctx context.Context, req SampleRequest) (*SampleOutput, error)

func (f sampleFunc) GenerateSampleDescription(ctx context.Context, req SampleRequest) (*SampleOutput, error) {
	return f(ctx, req)
}

type recordingUsage struct {
	mu      sync.Mutex
	records []entity.AIUsage
}

func (r *recordingUsage) RecordUsage(_ context.Context, u entity.AIUsage) {
	r.mu.Lock()
	r.records = append(r.records, u)
	r.mu.Unlock()
}

func (r *recordingUsage) all() []entity.AIUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AIUsage{}, r.records...)
}

func carCard() entity.TabooCard {
	return entity.TabooCard{
		ID:         1,
		AnswerWord: "CAR",
		KeyWords:   []string{"DRIVE", "WHEELS", "ROAD"},
		Category:   "vehicles",
		Difficulty: entity.DifficultyEasy,
		Language:   entity.LanguageEnglish,
		Active:     true,
	}
}
