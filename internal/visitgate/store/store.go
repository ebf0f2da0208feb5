package store

import (
	"context"
	"errors"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/types"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")
)

// VisitorRecord is the persisted state of one visit.  The credential core
// only ever mutates Status, CheckInTime and CheckOutTime, and only through
// CompareAndSetStatus.
type VisitorRecord struct {
	ID           string       `json:"id"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	Company      string       `json:"company,omitempty"`
	Purpose      string       `json:"purpose"`
	HostID       string       `json:"host_id"`
	DepartmentID string       `json:"department_id"`
	Status       types.Status `json:"status"`
	CheckInTime  *time.Time   `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time   `json:"check_out_time,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Name returns the visitor's display name.
func (v VisitorRecord) Name() string {
	return v.FirstName + " " + v.LastName
}

// TimestampField selects which visit timestamp a status transition sets.
type TimestampField int

const (
	// SetNone leaves both visit timestamps untouched (e.g. cancellation).
	SetNone TimestampField = iota
	// SetCheckIn stamps CheckInTime.
	SetCheckIn
	// SetCheckOut stamps CheckOutTime.
	SetCheckOut
)

// VisitorStore persists visit records.
type VisitorStore interface {
	CreateVisitor(ctx context.Context, rec VisitorRecord) error
	GetVisitor(ctx context.Context, id string) (VisitorRecord, error)
	ListVisitorsByStatus(ctx context.Context, status types.Status) ([]VisitorRecord, error)

	// CompareAndSetStatus transitions the visitor from expected to next and
	// stamps the selected timestamp with at, all as one atomic conditional
	// write.  It returns false (and no error) when the stored status no
	// longer matches expected: the caller lost the race or the visitor has
	// moved on.  Timestamps are written at most once: a successful swap is
	// the only writer of the field it stamps.
	CompareAndSetStatus(ctx context.Context, id string, expected, next types.Status, field TimestampField, at time.Time) (bool, error)
}

// NotificationRecord is a durable notification, created for the recipient
// whether or not they are connected at the time of the event.
type NotificationRecord struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	Priority    types.Priority `json:"priority"`
	Read        bool           `json:"read"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NotificationStore persists notifications and serves the unread queue.
type NotificationStore interface {
	CreateNotification(ctx context.Context, rec NotificationRecord) error

	// ListUnread returns the recipient's unread notifications, newest
	// first, capped at limit.
	ListUnread(ctx context.Context, recipientID string, limit int) ([]NotificationRecord, error)

	// MarkRead marks one notification read.  The recipient scoping is part
	// of the lookup: a notification owned by someone else is ErrNotFound.
	MarkRead(ctx context.Context, id, recipientID string) (NotificationRecord, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	// PruneReadOlderThan deletes read notifications created before cutoff,
	// returning the number deleted.
	PruneReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaffRecord is a staff member who can log in, host visitors and receive
// notifications.
type StaffRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffStore resolves staff identities for login and notification routing.
type StaffStore interface {
	GetStaff(ctx context.Context, id string) (StaffRecord, error)
	GetStaffByEmail(ctx context.Context, email string) (StaffRecord, error)
}
