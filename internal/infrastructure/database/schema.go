package database

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// TabooCardsColumns holds the columns for the "taboo_cards" table.
	TabooCardsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "answer_word", Type: field.TypeString, Size: 128},
		{Name: "key_words", Type: field.TypeJSON},
		{Name: "category", Type: field.TypeString, Size: 64, Default: ""},
		{Name: "difficulty", Type: field.TypeEnum, Enums: []string{"easy", "medium", "hard"}, Default: "medium"},
		{Name: "language", Type: field.TypeString, Size: 8, Default: "en"},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// TabooCardsTable holds the schema information for the "taboo_cards" table.
	TabooCardsTable = &schema.Table{
		Name:       "taboo_cards",
		Columns:    TabooCardsColumns,
		PrimaryKey: []*schema.Column{TabooCardsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "taboocard_language_answer_word",
				Unique:  true,
				Columns: []*schema.Column{TabooCardsColumns[5], TabooCardsColumns[1]},
			},
			{
				Name:    "taboocard_category_difficulty",
				Unique:  false,
				Columns: []*schema.Column{TabooCardsColumns[3], TabooCardsColumns[4]},
			},
		},
	}

	// GameSessionsColumns holds the columns for the "game_sessions" table.
	GameSessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "card_id", Type: field.TypeInt64},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "target_language", Type: field.TypeString, Size: 8},
		{Name: "version", Type: field.TypeInt64},
		{Name: "score", Type: field.TypeInt, Nullable: true},
		{Name: "words_found", Type: field.TypeInt, Default: 0},
		{Name: "payload", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// GameSessionsTable holds the schema information for the "game_sessions" table.
	GameSessionsTable = &schema.Table{
		Name:       "game_sessions",
		Columns:    GameSessionsColumns,
		PrimaryKey: []*schema.Column{GameSessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "gamesession_user_id_created_at",
				Unique:  false,
				Columns: []*schema.Column{GameSessionsColumns[1], GameSessionsColumns[9]},
			},
			{
				Name:    "gamesession_status_updated_at",
				Unique:  false,
				Columns: []*schema.Column{GameSessionsColumns[3], GameSessionsColumns[10]},
			},
		},
	}

	// CardTables are migrated on the card database.
	CardTables = []*schema.Table{TabooCardsTable}
	// SessionTables are migrated on the Postgres session store.
	SessionTables = []*schema.Table{GameSessionsTable}
)

// Migrate creates or upgrades tables on db using ent's migration engine.
func Migrate(ctx context.Context, db *sql.DB, driver string, tables []*schema.Table) error {
	m, err := schema.NewMigrate(entsql.OpenDB(driver, db))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("migrate %s schema: %w", driver, err)
	}
	return nil
}
