package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/visitgate/visitgate/internal/db"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

type VisitorStore struct {
	db     *sql.DB
	writer *dbpkg.Writer
}

func NewVisitorStore(db *sql.DB, writer *dbpkg.Writer) *VisitorStore {
	return &VisitorStore{db: db, writer: writer}
}

func (s *VisitorStore) CreateVisitor(ctx context.Context, rec store.VisitorRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if rec.Status == "" {
		rec.Status = types.StatusPending
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO visitors(
  visitor_id, first_name, last_name, email, phone, company, purpose,
  host_id, department_id, status, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.FirstName, rec.LastName, rec.Email, rec.Phone, rec.Company, rec.Purpose,
			rec.HostID, rec.DepartmentID, string(rec.Status),
			rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("CreateVisitor insert: %w", err)
		}
		return nil
	})
}

const visitorColumns = `
visitor_id, first_name, last_name, email, phone, company, purpose,
host_id, department_id, status, check_in_ms, check_out_ms,
created_at_ms, updated_at_ms`

func (s *VisitorStore) GetVisitor(ctx context.Context, id string) (store.VisitorRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors WHERE visitor_id = ?;`, id)
	rec, err := scanVisitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.VisitorRecord{}, store.ErrNotFound
	}
	return rec, err
}

func (s *VisitorStore) ListVisitorsByStatus(ctx context.Context, status types.Status) ([]store.VisitorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+visitorColumns+` FROM visitors WHERE status = ? ORDER BY created_at_ms;`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("ListVisitorsByStatus query: %w", err)
	}
	defer rows.Close()

	var out []store.VisitorRecord
	for rows.Next() {
		rec, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CompareAndSetStatus is the single conditional write the credential core
// performs: the status predicate lives in the UPDATE itself, so the swap
// either lands against the expected state or affects zero rows.  The
// timestamp column is additionally guarded with IS NULL, so a visit
// timestamp is written at most once, ever.
func (s *VisitorStore) CompareAndSetStatus(
	ctx context.Context,
	id string,
	expected, next types.Status,
	field store.TimestampField,
	at time.Time,
) (bool, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	atMs := at.UnixMilli()

	var swapped bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var (
			res sql.Result
			err error
		)
		switch field {
		case store.SetCheckIn:
			res, err = tx.ExecContext(ctx, `
UPDATE visitors SET status = ?, check_in_ms = ?, updated_at_ms = ?
WHERE visitor_id = ? AND status = ? AND check_in_ms IS NULL;`,
				string(next), atMs, atMs, id, string(expected))
		case store.SetCheckOut:
			res, err = tx.ExecContext(ctx, `
UPDATE visitors SET status = ?, check_out_ms = ?, updated_at_ms = ?
WHERE visitor_id = ? AND status = ? AND check_out_ms IS NULL;`,
				string(next), atMs, atMs, id, string(expected))
		default:
			res, err = tx.ExecContext(ctx, `
UPDATE visitors SET status = ?, updated_at_ms = ?
WHERE visitor_id = ? AND status = ?;`,
				string(next), atMs, id, string(expected))
		}
		if err != nil {
			return fmt.Errorf("CompareAndSetStatus update: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("CompareAndSetStatus rows affected: %w", err)
		}
		swapped = n == 1
		if swapped {
			return nil
		}

		// Zero rows is either a lost race or a missing visitor; tell the
		// two apart so callers get NotFound rather than a false conflict.
		var one int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM visitors WHERE visitor_id = ?;`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (store.VisitorRecord, error) {
	var (
		rec        store.VisitorRecord
		status     string
		checkInMs  sql.NullInt64
		checkOutMs sql.NullInt64
		createdMs  int64
		updatedMs  int64
	)
	err := row.Scan(
		&rec.ID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &rec.Company, &rec.Purpose,
		&rec.HostID, &rec.DepartmentID, &status, &checkInMs, &checkOutMs,
		&createdMs, &updatedMs,
	)
	if err != nil {
		return store.VisitorRecord{}, err
	}

	rec.Status = types.Status(status)
	if checkInMs.Valid {
		t := time.UnixMilli(checkInMs.Int64).UTC()
		rec.CheckInTime = &t
	}
	if checkOutMs.Valid {
		t := time.UnixMilli(checkOutMs.Int64).UTC()
		rec.CheckOutTime = &t
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return rec, nil
}
