package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/visitgate/visitgate/internal/db"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Writer backed by conn.  The writer is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Writer {
	t.Helper()

	w := db.NewWriter(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// seedDirectory inserts the department and staff rows the visitor foreign
// keys point at.
func seedDirectory(t *testing.T, conn *sql.DB) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := conn.Exec(`
INSERT INTO departments(department_id, name, code, created_at_ms, updated_at_ms)
VALUES ('dept-eng', 'Engineering', 'ENG', ?, ?);`, nowMs, nowMs); err != nil {
		t.Fatalf("seed department: %v", err)
	}
	if _, err := conn.Exec(`
INSERT INTO staff(staff_id, email, name, password_hash, role, department_id, created_at_ms, updated_at_ms)
VALUES ('staff-host', 'host@example.test', 'Harriet Host', 'x', 'employee', 'dept-eng', ?, ?);`,
		nowMs, nowMs); err != nil {
		t.Fatalf("seed staff: %v", err)
	}
}

func testVisitor(id string, status types.Status) store.VisitorRecord {
	return store.VisitorRecord{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.test",
		Purpose:      "interview",
		HostID:       "staff-host",
		DepartmentID: "dept-eng",
		Status:       status,
		CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}
