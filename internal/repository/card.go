package repository

import (
	"context"

	"github.com/eslsoft/taboo/internal/entity"
)

// ListCardQuery holds parameters for listing taboo cards.
type ListCardQuery struct {
	Pagination
	FilterOrder

	// IncludeInactive lists cards that were retired from play.
	IncludeInactive bool
}

// CardRepository is the read side the engine consumes plus the write side used by deck imports.
type CardRepository interface {
	// FindActiveCard returns nil, nil when no active card has the id.
	FindActiveCard(ctx context.Context, id int64) (*entity.TabooCard, error)
	List(ctx context.Context, query *ListCardQuery) ([]entity.TabooCard, int64, error)
	Upsert(ctx context.Context, cards []entity.TabooCard) (int, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
