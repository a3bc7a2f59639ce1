package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/infrastructure/config"
)

// NewSessionPool creates the pgx connection pool backing the Postgres session store.
func NewSessionPool(cfg *config.Config, logger *logrus.Logger) (*pgxpool.Pool, func(), error) {
	url := cfg.SessionPostgresURL()
	if url == "" {
		return nil, nil, fmt.Errorf("session store requires a PostgreSQL url")
	}

	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = 10

	if cfg.Database.LogSQL {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   tracelog.LoggerFunc(logrusTraceLogger(logger)),
			LogLevel: tracelog.LogLevelTrace,
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, pool.Close, nil
}

func logrusTraceLogger(logger *logrus.Logger) func(context.Context, tracelog.LogLevel, string, map[string]any) {
	return func(ctx context.Context, lvl tracelog.LogLevel, msg string, data map[string]any) {
		entry := logger.WithContext(ctx).WithField("component", "pgx").WithFields(logrus.Fields(data))
		switch lvl {
		case tracelog.LogLevelError:
			entry.Error(msg)
		case tracelog.LogLevelWarn:
			entry.Warn(msg)
		case tracelog.LogLevelInfo:
			entry.Info(msg)
		default:
			entry.Debug(msg)
		}
	}
}
