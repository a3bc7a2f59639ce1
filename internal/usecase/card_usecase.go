package usecase

import (
	"context"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
)

// CardUsecase exposes the card catalogue to the transport layer.
type CardUsecase interface {
	GetCard(ctx context.Context, id int64) (*entity.TabooCard, error)
	ListCards(ctx context.Context, query *repository.ListCardQuery) ([]entity.TabooCard, int64, error)
	SetCardActive(ctx context.Context, id int64, active bool) error
}

// NewCardUsecase wires the card repository.
func NewCardUsecase(repo repository.CardRepository) CardUsecase {
	return &cardUsecase{repo: repo}
}

type cardUsecase struct {
	repo repository.CardRepository
}

func (u *cardUsecase) GetCard(ctx context.Context, id int64) (*entity.TabooCard, error) {
	if id <= 0 {
		return nil, entity.ErrCardNotFound
	}
	card, err := u.repo.FindActiveCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, entity.ErrCardNotFound
	}
	return card, nil
}

func (u *cardUsecase) ListCards(ctx context.Context, query *repository.ListCardQuery) ([]entity.TabooCard, int64, error) {
	if query == nil {
		query = &repository.ListCardQuery{}
	}
	query.Normalize()
	return u.repo.List(ctx, query)
}

func (u *cardUsecase) SetCardActive(ctx context.Context, id int64, active bool) error {
	if id <= 0 {
		return entity.ErrCardNotFound
	}
	return u.repo.SetActive(ctx, id, active)
}
