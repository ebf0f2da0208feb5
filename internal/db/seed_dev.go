package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SeedDevOptions struct {
	// AdminPassword is the login password for the seeded admin account.
	// Defaults to "visitgate-dev".
	AdminPassword string
}

// SeedDev inserts a starter department and staff accounts so a fresh dev
// database is immediately usable.  Idempotent.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	password := opt.AdminPassword
	if password == "" {
		password = "visitgate-dev"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed password hash: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO departments(department_id, name, code, created_at_ms, updated_at_ms)
VALUES ('dept_eng', 'Engineering', 'ENG', ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed departments: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO staff(staff_id, email, name, password_hash, role, department_id, created_at_ms, updated_at_ms)
VALUES ('staff_admin', 'admin@visitgate.local', 'Dev Admin', ?, 'admin', 'dept_eng', ?, ?)
ON CONFLICT(staff_id) DO NOTHING;`, string(hash), now, now); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO staff(staff_id, email, name, password_hash, role, department_id, created_at_ms, updated_at_ms)
VALUES ('staff_reception', 'reception@visitgate.local', 'Front Desk', ?, 'reception', 'dept_eng', ?, ?)
ON CONFLICT(staff_id) DO NOTHING;`, string(hash), now, now); err != nil {
		return fmt.Errorf("seed reception: %w", err)
	}

	return nil
}
