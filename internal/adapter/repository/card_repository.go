package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/pkg/filterexpr"
)

const cardsTable = "taboo_cards"

var cardColumns = []string{
	"id", "answer_word", "key_words", "category", "difficulty", "language", "active", "created_at", "updated_at",
}

type cardRepository struct {
	drv dialect.Driver
	now func() time.Time
}

// NewCardRepository builds a card store on an ent SQL driver. Queries are
// rendered for the driver's dialect (postgres, sqlite3 or mysql).
func NewCardRepository(drv dialect.Driver) repository.CardRepository {
	return &cardRepository{drv: drv, now: time.Now}
}

func (r *cardRepository) builder() *entsql.DialectBuilder { return entsql.Dialect(r.drv.Dialect()) }

func (r *cardRepository) FindActiveCard(ctx context.Context, id int64) (*entity.TabooCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := r.builder()
	query, args := b.Select(cardColumns...).
		From(b.Table(cardsTable)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("active", true))).
		Query()
	cards, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("find card: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}

func (r *cardRepository) List(ctx context.Context, query *repository.ListCardQuery) ([]entity.TabooCard, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var p listCardsParams
	order, err := filterexpr.Bind(query, &p, listCardsSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", entity.ErrInvalidQuery, err)
	}

	cats, catsOK := p.categories()
	diffs, diffsOK := p.difficulties()
	if !catsOK || !diffsOK {
		return []entity.TabooCard{}, 0, nil
	}

	preds := make([]*entsql.Predicate, 0, 5)
	if !query.IncludeInactive {
		preds = append(preds, entsql.EQ("active", true))
	}
	if len(cats) > 0 {
		preds = append(preds, entsql.In("category", anyArgs(cats)...))
	}
	if len(diffs) > 0 {
		preds = append(preds, entsql.In("difficulty", anyArgs(diffs)...))
	}
	if p.Language != nil {
		preds = append(preds, entsql.EQ("language", entity.NormalizeLanguage(entity.Language(*p.Language)).Code()))
	}
	if p.AnswerPrefix != nil && strings.TrimSpace(*p.AnswerPrefix) != "" {
		preds = append(preds, entsql.HasPrefix("answer_word", strings.ToUpper(strings.TrimSpace(*p.AnswerPrefix))))
	}

	b := r.builder()
	sel := b.Select(cardColumns...).From(b.Table(cardsTable))
	cnt := b.Select(entsql.Count("*")).From(b.Table(cardsTable))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
		cnt.Where(entsql.And(preds...))
	}
	sel.OrderBy(orderTerm(order.Column, order.Desc))
	if order.TieColumn != "" {
		sel.OrderBy(orderTerm(order.TieColumn, order.TieDesc))
	}
	sel.Limit(int(query.PageSize)).Offset(int(query.Offset()))

	q, args := sel.Query()
	cards, err := r.query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	cq, cargs := cnt.Query()
	total, err := r.count(ctx, cq, cargs)
	if err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}
	return cards, total, nil
}

// Upsert inserts cards keyed by (language, answer_word); existing rows get
// their key words, category, difficulty and active flag replaced.
func (r *cardRepository) Upsert(ctx context.Context, cards []entity.TabooCard) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(cards) == 0 {
		return 0, nil
	}
	now := r.now().UTC()
	ins := r.builder().Insert(cardsTable).
		Columns("answer_word", "key_words", "category", "difficulty", "language", "active", "created_at", "updated_at")
	for _, card := range cards {
		kw, err := json.Marshal(lo.Ternary(card.KeyWords == nil, []string{}, card.KeyWords))
		if err != nil {
			return 0, fmt.Errorf("encode key words: %w", err)
		}
		created := lo.Ternary(card.CreatedAt.IsZero(), now, card.CreatedAt.UTC())
		ins.Values(card.AnswerWord, string(kw), card.Category, string(card.Difficulty),
			entity.NormalizeLanguage(card.Language).Code(), card.Active, created, now)
	}
	ins.OnConflict(
		entsql.ConflictColumns("language", "answer_word"),
		entsql.ResolveWith(func(u *entsql.UpdateSet) {
			u.SetExcluded("key_words")
			u.SetExcluded("category")
			u.SetExcluded("difficulty")
			u.SetExcluded("active")
			u.SetExcluded("updated_at")
		}),
	)
	q, args := ins.Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		return 0, fmt.Errorf("upsert cards: %w", err)
	}
	return len(cards), nil
}

func (r *cardRepository) SetActive(ctx context.Context, id int64, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q, args := r.builder().Update(cardsTable).
		Set("active", active).
		Set("updated_at", r.now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("set card active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set card active: %w", err)
	}
	if affected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the value did not change.
	b := r.builder()
	cq, cargs := b.Select(entsql.Count("*")).From(b.Table(cardsTable)).Where(entsql.EQ("id", id)).Query()
	n, err := r.count(ctx, cq, cargs)
	if err != nil {
		return fmt.Errorf("set card active: %w", err)
	}
	if n == 0 {
		return entity.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) query(ctx context.Context, q string, args []any) ([]entity.TabooCard, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	cards := make([]entity.TabooCard, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

func (r *cardRepository) count(ctx context.Context, q string, args []any) (int64, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*entity.TabooCard, error) {
	var (
		card       entity.TabooCard
		keyWords   string
		difficulty string
		language   string
	)
	if err := row.Scan(&card.ID, &card.AnswerWord, &keyWords, &card.Category, &difficulty, &language,
		&card.Active, &card.CreatedAt, &card.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(keyWords), &card.KeyWords); err != nil {
		return nil, fmt.Errorf("decode key words of card %d: %w", card.ID, err)
	}
	card.Difficulty = entity.Difficulty(difficulty)
	card.Language = entity.ParseLanguage(language)
	return &card, nil
}

func orderTerm(column string, desc bool) string {
	if desc {
		return entsql.Desc(column)
	}
	return entsql.Asc(column)
}
