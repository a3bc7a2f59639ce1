package repository

import (
	"context"
	"time"

	"github.com/eslsoft/taboo/internal/entity"
)

// ListSessionQuery holds parameters for listing a user's sessions.
type ListSessionQuery struct {
	Pagination
	FilterOrder

	UserID int64
}

// SessionRepository persists game sessions. Update is an optimistic write:
// it fails with entity.ErrSessionConflict unless the stored version equals
// session.Version, and bumps the version on success.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.GameSession) error
	Get(ctx context.Context, id string) (*entity.GameSession, error)
	Update(ctx context.Context, session *entity.GameSession) error
	List(ctx context.Context, query *ListSessionQuery) ([]entity.GameSession, int64, error)
	ListIdle(ctx context.Context, updatedBefore time.Time, limit int) ([]entity.GameSession, error)
	Stats(ctx context.Context, userID int64) (*entity.UserStats, error)
}
