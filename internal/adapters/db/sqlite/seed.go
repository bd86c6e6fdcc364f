package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/domain"
	"github.com/atvirokodosprendimai/studio/internal/security"
	"gorm.io/gorm"
)

const metaAdminSeededAt = "admin_seeded_at"

type AdminSeed struct {
	Email    string
	Name     string
	Password string
}

func DefaultAdminSeed() AdminSeed {
	return AdminSeed{Email: "admin@local", Name: "Admin", Password: "admin"}
}

// SeedIfEmpty inserts one administrator when the users table is empty. It
// reports whether a row was inserted.
func SeedIfEmpty(ctx context.Context, db *gorm.DB, seed AdminSeed) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return false, errors.New("seed admin email and password are required")
	}

	inserted := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := NewStudioRepository(tx).CountUsers(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := security.HashPassword(seed.Password)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			name = "Admin"
		}
		if err := tx.Create(&UserModel{Email: email, Name: name, PasswordHash: hash, Role: domain.RoleAdmin}).Error; err != nil {
			return err
		}

		stamp := time.Now().UTC().Format(time.RFC3339)
		if err := tx.Save(&MetaModel{Key: metaAdminSeededAt, Value: &stamp}).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}
