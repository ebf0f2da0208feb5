package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

// StaffStore is read-only: staff accounts are provisioned by migrations,
// seeding or an admin tool, not by the credential core.
type StaffStore struct {
	db *sql.DB
}

func NewStaffStore(db *sql.DB) *StaffStore {
	return &StaffStore{db: db}
}

const staffColumns = `
staff_id, email, name, password_hash, COALESCE(role, 'host'), COALESCE(department_id, ''), created_at_ms`

func (s *StaffStore) GetStaff(ctx context.Context, id string) (store.StaffRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE staff_id = ?;`, id)
	return scanStaff(row)
}

func (s *StaffStore) GetStaffByEmail(ctx context.Context, email string) (store.StaffRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE email = ?;`, email)
	return scanStaff(row)
}

func scanStaff(row *sql.Row) (store.StaffRecord, error) {
	var (
		rec       store.StaffRecord
		createdMs int64
	)
	err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.PasswordHash, &rec.Role, &rec.DepartmentID, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return store.StaffRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.StaffRecord{}, err
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return rec, nil
}
