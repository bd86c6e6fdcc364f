package sqlite

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureSchema switches the store to WAL and applies the embedded migrations.
// Every statement is CREATE ... IF NOT EXISTS, so running it against an
// already initialized store is a no-op.
func EnsureSchema(ctx context.Context, db *gorm.DB, log goose.Logger) error {
	if err := db.WithContext(ctx).Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}
	if err := db.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if log == nil {
		log = goose.NopLogger()
	}
	goose.SetLogger(log)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
