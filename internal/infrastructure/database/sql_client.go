package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/taboo/internal/infrastructure/config"
)

// OpenCardDB opens the card catalogue database for the configured driver.
func OpenCardDB(cfg *config.Config) (*entsql.Driver, func(), error) {
	dsn := cfg.DatabaseURL()
	if dsn == "" {
		return nil, nil, fmt.Errorf("database.dsn is required")
	}

	switch driver := cfg.DatabaseDriver(); driver {
	case config.DriverPostgres:
		return openSQL(dialect.Postgres, "postgres", dsn, nil)
	case config.DriverSQLite:
		return openSQL(dialect.SQLite, "sqlite3", dsn, prepareSQLite)
	case config.DriverMySQL:
		mcfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		mcfg.ParseTime = true
		return openSQL(dialect.MySQL, "mysql", mcfg.FormatDSN(), nil)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewCardDriver returns the driver repositories run on. With database.log_sql
// every statement is logged at debug level.
func NewCardDriver(drv *entsql.Driver, cfg *config.Config, logger *logrus.Logger) dialect.Driver {
	if !cfg.Database.LogSQL {
		return drv
	}
	return dialect.DebugWithContext(drv, func(ctx context.Context, v ...any) {
		logger.WithContext(ctx).WithField("component", "sql").Debug(v...)
	})
}

func openSQL(dialectName, driverName, dsn string, prepare func(context.Context, *sql.DB) error) (*entsql.Driver, func(), error) {
	rawDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s db: %w", driverName, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if prepare != nil {
		if err := prepare(ctx, rawDB); err != nil {
			rawDB.Close()
			return nil, nil, err
		}
	}
	if err := rawDB.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, nil, fmt.Errorf("ping %s db: %w", driverName, err)
	}

	drv := entsql.OpenDB(dialectName, rawDB)
	return drv, func() {
		_ = drv.Close()
	}, nil
}

func prepareSQLite(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return nil
}
