package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/pkg/filterexpr"
)

const sessionsTable = "game_sessions"

// pgxQuerier is the subset of pgxpool.Pool the session store uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ pgxQuerier = (*pgxpool.Pool)(nil)

type sessionRepository struct{ db pgxQuerier }

// NewPostgresSessionRepository stores sessions as JSONB documents next to
// the columns used for filtering and optimistic locking.
func NewPostgresSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{db: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session.Version = 1
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO game_sessions
		(id, user_id, card_id, status, target_language, version, score, words_found, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		session.ID, session.UserID, session.CardID, string(session.Status), session.TargetLanguage.Code(),
		session.Version, session.Score, len(session.WordsFound), string(payload), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*entity.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT payload FROM game_sessions WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(payload)
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.GameSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expected := session.Version
	next := *session
	next.Version = expected + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE game_sessions
		SET status = $3, version = $4, score = $5, words_found = $6, payload = $7, updated_at = $8
		WHERE id = $1 AND version = $2`,
		session.ID, expected, string(session.Status), next.Version, session.Score, len(session.WordsFound),
		string(payload), session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM game_sessions WHERE id = $1)`, session.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if !exists {
			return entity.ErrSessionNotFound
		}
		return entity.ErrSessionConflict
	}
	session.Version = next.Version
	return nil
}

func (r *sessionRepository) List(ctx context.Context, query *repository.ListSessionQuery) ([]entity.GameSession, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var p listSessionsParams
	order, err := filterexpr.Bind(query, &p, listSessionsSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", entity.ErrInvalidQuery, err)
	}

	statuses, ok := p.statuses()
	if !ok {
		return []entity.GameSession{}, 0, nil
	}

	preds := []*entsql.Predicate{entsql.EQ("user_id", query.UserID)}
	if len(statuses) > 0 {
		preds = append(preds, entsql.In("status", anyArgs(statuses)...))
	}
	if p.CardID != nil {
		preds = append(preds, entsql.EQ("card_id", *p.CardID))
	}
	if p.TargetLanguage != nil {
		preds = append(preds, entsql.EQ("target_language", *p.TargetLanguage))
	}

	b := entsql.Dialect(dialect.Postgres)
	sel := b.Select("payload").From(b.Table(sessionsTable)).Where(entsql.And(preds...))
	sel.OrderBy(orderTerm(order.Column, order.Desc))
	if order.TieColumn != "" {
		sel.OrderBy(orderTerm(order.TieColumn, order.TieDesc))
	}
	sel.Limit(int(query.PageSize)).Offset(int(query.Offset()))
	q, args := sel.Query()

	sessions, err := r.collect(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	cq, cargs := b.Select(entsql.Count("*")).From(b.Table(sessionsTable)).Where(entsql.And(preds...)).Query()
	var total int64
	if err := r.db.QueryRow(ctx, cq, cargs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

func (r *sessionRepository) ListIdle(ctx context.Context, updatedBefore time.Time, limit int) ([]entity.GameSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions, err := r.collect(ctx, `SELECT payload FROM game_sessions
		WHERE status IN ('initialized', 'in_progress') AND updated_at < $1
		ORDER BY updated_at ASC LIMIT $2`, updatedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Stats(ctx context.Context, userID int64) (*entity.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stats := &entity.UserStats{UserID: userID}
	err := r.db.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('initialized', 'in_progress')),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'abandoned'),
			COALESCE(AVG(score) FILTER (WHERE status = 'completed'), 0)::float8,
			COALESCE(MAX(score) FILTER (WHERE status = 'completed'), 0)::int8,
			COALESCE(SUM(words_found), 0)::int8
		FROM game_sessions WHERE user_id = $1`, userID).Scan(
		&stats.TotalSessions, &stats.InProgress, &stats.Completed, &stats.Abandoned,
		&stats.AverageScore, &stats.BestScore, &stats.TotalWordsFound)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	return stats, nil
}

func (r *sessionRepository) collect(ctx context.Context, query string, args ...any) ([]entity.GameSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, err
	}
	sessions := make([]entity.GameSession, 0, len(payloads))
	for _, payload := range payloads {
		s, err := decodeSession(payload)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func decodeSession(payload []byte) (*entity.GameSession, error) {
	var s entity.GameSession
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
