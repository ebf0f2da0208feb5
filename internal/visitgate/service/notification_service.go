package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// unreadLimit caps the unread queue returned to a client.
const unreadLimit = 50

// EventSink is the live-delivery side of notifications.  Implementations
// must never block the caller; delivery is at-most-once and best-effort.
// The hub's connection registry is the production implementation.
type EventSink interface {
	ToRecipient(recipientID string, ev types.Event)
	Broadcast(ev types.Event)
	ToRole(role string, ev types.Event)
	ToDepartment(departmentID string, ev types.Event)
}

// NopSink discards all events.  Useful in tests and in tools that run the
// services without a hub.
type NopSink struct{}

func (NopSink) ToRecipient(string, types.Event) {}
func (NopSink) Broadcast(types.Event)           {}
func (NopSink) ToRole(string, types.Event)      {}
func (NopSink) ToDepartment(string, types.Event) {}

// NotificationService creates durable notifications and mirrors them to
// live connections.  The two side effects are independent: the record is
// persisted whether or not the recipient is connected, and a live emit is
// attempted whether or not the persist succeeded.  Persistence failures
// are logged, not propagated: a notification hiccup must never fail the
// credential operation that produced the event.
type NotificationService struct {
	store  store.NotificationStore
	sink   EventSink
	logger *log.Logger
	now    func() time.Time
}

func NewNotificationService(st store.NotificationStore, sink EventSink, logger *log.Logger) *NotificationService {
	if sink == nil {
		sink = NopSink{}
	}
	return &NotificationService{
		store:  st,
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify persists a notification for recipientID and emits it to their
// live connections.  The created record is returned for callers that want
// to reuse it as an event payload.
func (s *NotificationService) Notify(
	ctx context.Context,
	recipientID, typ, title, message string,
	data map[string]any,
	priority types.Priority,
) store.NotificationRecord {
	rec := store.NotificationRecord{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        data,
		Priority:    priority,
		CreatedAt:   s.now(),
	}

	if err := s.store.CreateNotification(ctx, rec); err != nil {
		s.logger.Printf("notification persist failed (type=%s recipient=%s): %v", typ, recipientID, err)
	}

	s.sink.ToRecipient(recipientID, types.Event{Name: types.EventNotification, Payload: rec})
	return rec
}

// ── Domain events ────────────────────────────────────────────────────────────

func (s *NotificationService) VisitorRegistered(ctx context.Context, v store.VisitorRecord) {
	rec := s.Notify(ctx, v.HostID, types.EventNewVisitor,
		"New Visitor Arrival",
		fmt.Sprintf("%s has arrived to visit you", v.Name()),
		map[string]any{
			"visitor_id": v.ID,
			"name":       v.Name(),
			"purpose":    v.Purpose,
			"department": v.DepartmentID,
			"status":     v.Status,
		},
		types.PriorityMedium,
	)
	s.sink.Broadcast(types.Event{Name: types.EventNewVisitor, Payload: rec})
}

func (s *NotificationService) VisitorCheckedIn(ctx context.Context, v store.VisitorRecord) {
	rec := s.Notify(ctx, v.HostID, types.EventVisitorCheckIn,
		"Visitor Checked In",
		fmt.Sprintf("%s has checked in", v.Name()),
		map[string]any{
			"visitor_id":    v.ID,
			"name":          v.Name(),
			"department":    v.DepartmentID,
			"check_in_time": v.CheckInTime,
		},
		types.PriorityLow,
	)
	s.sink.Broadcast(types.Event{Name: types.EventVisitorCheckIn, Payload: rec})
	s.sink.ToDepartment(v.DepartmentID, types.Event{Name: types.EventVisitorCheckIn, Payload: rec})
}

func (s *NotificationService) VisitorCheckedOut(ctx context.Context, v store.VisitorRecord) {
	rec := s.Notify(ctx, v.HostID, types.EventVisitorCheckOut,
		"Visitor Checked Out",
		fmt.Sprintf("%s has checked out", v.Name()),
		map[string]any{
			"visitor_id":     v.ID,
			"name":           v.Name(),
			"department":     v.DepartmentID,
			"check_out_time": v.CheckOutTime,
		},
		types.PriorityLow,
	)
	s.sink.Broadcast(types.Event{Name: types.EventVisitorCheckOut, Payload: rec})
	s.sink.ToDepartment(v.DepartmentID, types.Event{Name: types.EventVisitorCheckOut, Payload: rec})
}

func (s *NotificationService) VisitorCancelled(ctx context.Context, v store.VisitorRecord) {
	rec := s.Notify(ctx, v.HostID, types.EventVisitorCancel,
		"Visit Cancelled",
		fmt.Sprintf("The visit by %s was cancelled", v.Name()),
		map[string]any{"visitor_id": v.ID, "name": v.Name()},
		types.PriorityLow,
	)
	s.sink.ToDepartment(v.DepartmentID, types.Event{Name: types.EventVisitorCancel, Payload: rec})
}

func (s *NotificationService) PassIssued(ctx context.Context, v store.VisitorRecord, usage types.Usage) {
	s.Notify(ctx, v.HostID, types.EventPassIssued,
		"Pass Issued",
		fmt.Sprintf("New %s pass issued for %s", usage, v.Name()),
		map[string]any{"visitor_id": v.ID, "name": v.Name(), "usage": usage},
		types.PriorityLow,
	)
}

// PassValidation records a validation outcome for the host.  Failures are
// high priority: a rejected pass at the gate is something the host (and
// security staff watching the role feed) should see promptly.
func (s *NotificationService) PassValidation(ctx context.Context, v store.VisitorRecord, usage types.Usage, valid bool) {
	priority := types.PriorityLow
	verdict := "succeeded"
	if !valid {
		priority = types.PriorityHigh
		verdict = "failed"
	}
	rec := s.Notify(ctx, v.HostID, types.EventPassValidation,
		"Pass Validation",
		fmt.Sprintf("%s's %s pass validation %s", v.Name(), usage, verdict),
		map[string]any{"visitor_id": v.ID, "name": v.Name(), "usage": usage, "valid": valid},
		priority,
	)
	if !valid {
		s.sink.ToRole("security", types.Event{Name: types.EventSecurityAlert, Payload: rec})
	}
}

// SecurityAlert persists a high-priority notification and pushes it to
// everyone connected in the security role group.
func (s *NotificationService) SecurityAlert(ctx context.Context, recipientID, message string, data map[string]any) {
	rec := s.Notify(ctx, recipientID, types.EventSecurityAlert,
		"Security Alert", message, data, types.PriorityHigh)
	s.sink.ToRole("security", types.Event{Name: types.EventSecurityAlert, Payload: rec})
}

// ── Read model ───────────────────────────────────────────────────────────────

// Unread returns the recipient's unread notifications, newest first.
func (s *NotificationService) Unread(ctx context.Context, recipientID string) ([]store.NotificationRecord, error) {
	return s.store.ListUnread(ctx, recipientID, unreadLimit)
}

// MarkRead marks a single notification read, scoped to its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) (store.NotificationRecord, error) {
	return s.store.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks every unread notification for the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.store.MarkAllRead(ctx, recipientID)
}
