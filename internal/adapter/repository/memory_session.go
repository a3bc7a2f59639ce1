package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/pkg/filterexpr"
)

// MemorySessionRepository keeps sessions in process memory. State is lost on restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.GameSession
}

// NewMemorySessionRepository constructs an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*entity.GameSession)}
}

var _ repository.SessionRepository = (*MemorySessionRepository)(nil)

func (r *MemorySessionRepository) Create(ctx context.Context, session *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	session.Version = 1
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*entity.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *MemorySessionRepository) Update(ctx context.Context, session *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[session.ID]
	if !ok {
		return entity.ErrSessionNotFound
	}
	if existing.Version != session.Version {
		return entity.ErrSessionConflict
	}
	session.Version++
	r.sessions[session.ID] = session.Clone()
	return nil
}

func (r *MemorySessionRepository) List(ctx context.Context, query *repository.ListSessionQuery) ([]entity.GameSession, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var params listSessionsParams
	order, err := filterexpr.Bind(query, &params, listSessionsSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", entity.ErrInvalidQuery, err)
	}
	statuses, ok := params.statuses()
	if !ok {
		return []entity.GameSession{}, 0, nil
	}

	r.mu.RLock()
	matched := make([]*entity.GameSession, 0)
	for _, s := range r.sessions {
		if s.UserID != query.UserID {
			continue
		}
		if len(statuses) > 0 && !lo.Contains(statuses, string(s.Status)) {
			continue
		}
		if params.CardID != nil && s.CardID != *params.CardID {
			continue
		}
		if params.TargetLanguage != nil && string(s.TargetLanguage) != *params.TargetLanguage {
			continue
		}
		matched = append(matched, s.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return lessSession(matched[i], matched[j], order) })

	total := int64(len(matched))
	start := int(query.Offset())
	if start >= len(matched) {
		return []entity.GameSession{}, total, nil
	}
	end := min(start+int(query.PageSize), len(matched))
	out := lo.Map(matched[start:end], func(s *entity.GameSession, _ int) entity.GameSession { return *s })
	return out, total, nil
}

func (r *MemorySessionRepository) ListIdle(ctx context.Context, updatedBefore time.Time, limit int) ([]entity.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idle := make([]entity.GameSession, 0)
	for _, s := range r.sessions {
		if s.Status.Open() && s.UpdatedAt.Before(updatedBefore) {
			idle = append(idle, *s.Clone())
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].UpdatedAt.Before(idle[j].UpdatedAt) })
	if limit > 0 && len(idle) > limit {
		idle = idle[:limit]
	}
	return idle, nil
}

func (r *MemorySessionRepository) Stats(ctx context.Context, userID int64) (*entity.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &entity.UserStats{UserID: userID}
	var scoreSum int64
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		stats.TotalSessions++
		stats.TotalWordsFound += int64(len(s.WordsFound))
		switch s.Status {
		case entity.SessionStatusCompleted:
			stats.Completed++
			if s.Score != nil {
				scoreSum += int64(*s.Score)
				stats.BestScore = max(stats.BestScore, *s.Score)
			}
		case entity.SessionStatusAbandoned:
			stats.Abandoned++
		default:
			stats.InProgress++
		}
	}
	if stats.Completed > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.Completed)
	}
	return stats, nil
}

func lessSession(a, b *entity.GameSession, order filterexpr.Order) bool {
	if c := compareSessionColumn(a, b, order.Column); c != 0 {
		return (c < 0) != order.Desc
	}
	if c := compareSessionColumn(a, b, order.TieColumn); c != 0 {
		return (c < 0) != order.TieDesc
	}
	return a.ID < b.ID
}

func compareSessionColumn(a, b *entity.GameSession, column string) int {
	switch column {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "id":
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
	}
	return 0
}
