/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	"github.com/spf13/cobra"

	"github.com/eslsoft/taboo/internal/infrastructure/config"
	"github.com/eslsoft/taboo/internal/infrastructure/database"
)

// dbInitCmd creates the card catalogue tables and, for the Postgres store, the session table.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化数据库表结构",
	Long:  "在卡牌数据库上执行迁移; 当 session.store=postgres 时同时创建会话表。注意: go-sqlite3 需要 CGO_ENABLED=1 构建。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		return runMigrations(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}

func runMigrations(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	drv, cleanup, err := database.OpenCardDB(cfg)
	if err != nil {
		return fmt.Errorf("连接卡牌数据库失败: %w", err)
	}
	defer cleanup()

	tables := database.CardTables
	sessionsHere := cfg.SessionStore() == config.SessionStorePostgres &&
		cfg.DatabaseDriver() == config.DriverPostgres &&
		cfg.SessionPostgresURL() == cfg.DatabaseURL()
	if sessionsHere {
		tables = append(append(tables[:0:0], tables...), database.SessionTables...)
	}
	if err := database.Migrate(ctx, drv.DB(), drv.Dialect(), tables); err != nil {
		return fmt.Errorf("执行卡牌数据库迁移失败: %w", err)
	}
	cmd.Printf("卡牌数据库迁移完成 (%s)\n", cfg.DatabaseDriver())

	if cfg.SessionStore() != config.SessionStorePostgres || sessionsHere {
		return nil
	}

	db, err := sql.Open("postgres", cfg.SessionPostgresURL())
	if err != nil {
		return fmt.Errorf("连接会话数据库失败: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect.Postgres, database.SessionTables); err != nil {
		return fmt.Errorf("执行会话表迁移失败: %w", err)
	}
	cmd.Println("会话表迁移完成")
	return nil
}
