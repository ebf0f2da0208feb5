package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/visitgate/visitgate/internal/db"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

type NotificationStore struct {
	db     *sql.DB
	writer *dbpkg.Writer
}

func NewNotificationStore(db *sql.DB, writer *dbpkg.Writer) *NotificationStore {
	return &NotificationStore{db: db, writer: writer}
}

func (s *NotificationStore) CreateNotification(ctx context.Context, rec store.NotificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Priority == "" {
		rec.Priority = types.PriorityLow
	}

	data := []byte("{}")
	if len(rec.Data) > 0 {
		b, err := json.Marshal(rec.Data)
		if err != nil {
			return fmt.Errorf("CreateNotification marshal data: %w", err)
		}
		data = b
	}

	var read int
	if rec.Read {
		read = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications(
  notification_id, recipient_id, type, title, message, data, priority, read, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.RecipientID, rec.Type, rec.Title, rec.Message,
			string(data), string(rec.Priority), read, rec.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("CreateNotification insert: %w", err)
		}
		return nil
	})
}

const notificationColumns = `
notification_id, recipient_id, type, title, message, data, priority, read, created_at_ms`

func (s *NotificationStore) ListUnread(ctx context.Context, recipientID string, limit int) ([]store.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+notificationColumns+` FROM notifications
WHERE recipient_id = ? AND read = 0
ORDER BY created_at_ms DESC
LIMIT ?;`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnread query: %w", err)
	}
	defer rows.Close()

	var out []store.NotificationRecord
	for rows.Next() {
		rec, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *NotificationStore) MarkRead(ctx context.Context, id, recipientID string) (store.NotificationRecord, error) {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE notifications SET read = 1
WHERE notification_id = ? AND recipient_id = ?;`, id, recipientID)
		if err != nil {
			return fmt.Errorf("MarkRead update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return store.NotificationRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `
SELECT `+notificationColumns+` FROM notifications WHERE notification_id = ?;`, id)
	rec, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.NotificationRecord{}, store.ErrNotFound
	}
	return rec, err
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE notifications SET read = 1
WHERE recipient_id = ? AND read = 0;`, recipientID)
		if err != nil {
			return fmt.Errorf("MarkAllRead update: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (s *NotificationStore) PruneReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM notifications WHERE read = 1 AND created_at_ms < ?;`, cutoff.UnixMilli())
		if err != nil {
			return fmt.Errorf("PruneReadOlderThan delete: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func scanNotification(row rowScanner) (store.NotificationRecord, error) {
	var (
		rec       store.NotificationRecord
		data      string
		priority  string
		read      int
		createdMs int64
	)
	err := row.Scan(
		&rec.ID, &rec.RecipientID, &rec.Type, &rec.Title, &rec.Message,
		&data, &priority, &read, &createdMs,
	)
	if err != nil {
		return store.NotificationRecord{}, err
	}

	if data != "" && data != "{}" {
		if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
			return store.NotificationRecord{}, fmt.Errorf("scan notification data: %w", err)
		}
	}
	rec.Priority = types.Priority(priority)
	rec.Read = read != 0
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return rec, nil
}
