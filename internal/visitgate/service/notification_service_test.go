package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/store/memory"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

func TestNotify_PersistsAndEmits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.notifier.Notify(ctx, "staff-host", "test", "Title", "Message",
		map[string]any{"k": "v"}, types.PriorityMedium)

	if rec.ID == "" {
		t.Error("expected a generated id")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	// Durable record exists.
	unread, err := env.notifier.Unread(ctx, "staff-host")
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != rec.ID {
		t.Fatalf("expected the notification in the unread queue, got %+v", unread)
	}

	// Live emit targeted the recipient's connections.
	calls := env.sink.named(types.EventNotification)
	if len(calls) != 1 {
		t.Fatalf("expected 1 live emit, got %d", len(calls))
	}
	if calls[0].Method != "recipient" || calls[0].Target != "staff-host" {
		t.Errorf("unexpected emit target: %+v", calls[0])
	}
}

// failingNotificationStore rejects every write.
type failingNotificationStore struct {
	memory.NotificationStore
}

func (*failingNotificationStore) CreateNotification(context.Context, store.NotificationRecord) error {
	return errors.New("disk full")
}

func TestNotify_EmitsEvenWhenPersistFails(t *testing.T) {
	sink := &recordingSink{}
	notifier := service.NewNotificationService(&failingNotificationStore{}, sink, silentLogger())

	notifier.Notify(context.Background(), "staff-host", "test", "Title", "Message", nil, types.PriorityLow)

	if got := sink.named(types.EventNotification); len(got) != 1 {
		t.Fatalf("expected the live emit despite the persist failure, got %d", len(got))
	}
}

func TestVisitorRegistered_NotifiesHostAndBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	v := env.seedVisitor(t, "visitor-001", types.StatusPending)

	env.notifier.VisitorRegistered(context.Background(), v)

	if got := env.sink.named(types.EventNotification); len(got) != 1 || got[0].Target != v.HostID {
		t.Errorf("expected the host's durable notification emit, got %+v", got)
	}
	broadcasts := env.sink.named(types.EventNewVisitor)
	if len(broadcasts) != 1 || broadcasts[0].Method != "broadcast" {
		t.Errorf("expected one newVisitor broadcast, got %+v", broadcasts)
	}
}

func TestVisitorCheckedIn_ReachesDepartment(t *testing.T) {
	env := newTestEnv(t)
	v := env.seedVisitor(t, "visitor-001", types.StatusCheckedIn)

	env.notifier.VisitorCheckedIn(context.Background(), v)

	var dept bool
	for _, c := range env.sink.named(types.EventVisitorCheckIn) {
		if c.Method == "department" && c.Target == v.DepartmentID {
			dept = true
		}
	}
	if !dept {
		t.Error("expected a visitorCheckIn emit to the visitor's department")
	}
}

func TestPassValidation_FailureAlertsSecurity(t *testing.T) {
	env := newTestEnv(t)
	v := env.seedVisitor(t, "visitor-001", types.StatusCheckedIn)
	ctx := context.Background()

	env.notifier.PassValidation(ctx, v, types.UsageCheckIn, false)

	alerts := env.sink.named(types.EventSecurityAlert)
	if len(alerts) != 1 || alerts[0].Method != "role" || alerts[0].Target != "security" {
		t.Fatalf("expected one securityAlert to the security role, got %+v", alerts)
	}

	unread, err := env.notifier.Unread(ctx, v.HostID)
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(unread) != 1 || unread[0].Priority != types.PriorityHigh {
		t.Fatalf("expected one high-priority record for the host, got %+v", unread)
	}
}

func TestPassValidation_SuccessIsQuiet(t *testing.T) {
	env := newTestEnv(t)
	v := env.seedVisitor(t, "visitor-001", types.StatusPending)

	env.notifier.PassValidation(context.Background(), v, types.UsageCheckIn, true)

	if alerts := env.sink.named(types.EventSecurityAlert); len(alerts) != 0 {
		t.Errorf("successful validation must not alert security, got %+v", alerts)
	}
}

func TestUnread_NewestFirstAndCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		env.notifier.Notify(ctx, "staff-host", "test",
			fmt.Sprintf("Title %d", i), "Message", nil, types.PriorityLow)
	}

	unread, err := env.notifier.Unread(ctx, "staff-host")
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(unread) != 50 {
		t.Fatalf("expected the unread queue capped at 50, got %d", len(unread))
	}
	for i := 1; i < len(unread); i++ {
		if unread[i].CreatedAt.After(unread[i-1].CreatedAt) {
			t.Fatalf("unread queue not newest-first at index %d", i)
		}
	}
}

func TestMarkRead_RemovesFromUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.notifier.Notify(ctx, "staff-host", "test", "Title", "Message", nil, types.PriorityLow)

	marked, err := env.notifier.MarkRead(ctx, rec.ID, "staff-host")
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !marked.Read {
		t.Error("expected read=true on the returned record")
	}

	unread, err := env.notifier.Unread(ctx, "staff-host")
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("expected an empty unread queue, got %d", len(unread))
	}
}

func TestMarkRead_ScopedToRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec := env.notifier.Notify(ctx, "staff-host", "test", "Title", "Message", nil, types.PriorityLow)

	if _, err := env.notifier.MarkRead(ctx, rec.ID, "someone-else"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("cross-recipient MarkRead: got %v, want ErrNotFound", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.notifier.Notify(ctx, "staff-host", "test", "Title", "Message", nil, types.PriorityLow)
	}
	env.notifier.Notify(ctx, "other-staff", "test", "Title", "Message", nil, types.PriorityLow)

	n, err := env.notifier.MarkAllRead(ctx, "staff-host")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 marked, got %d", n)
	}

	unread, err := env.notifier.Unread(ctx, "other-staff")
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if len(unread) != 1 {
		t.Errorf("other recipients must be untouched, got %d unread", len(unread))
	}
}
