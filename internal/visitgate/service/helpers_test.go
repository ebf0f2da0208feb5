package service_test

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/store/memory"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// sinkCall records one EventSink invocation for test inspection.
type sinkCall struct {
	Method string // "recipient" | "broadcast" | "role" | "department"
	Target string
	Event  types.Event
}

// recordingSink captures every emit so tests can assert on live delivery
// without a hub.
type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *recordingSink) ToRecipient(id string, ev types.Event) {
	s.record(sinkCall{Method: "recipient", Target: id, Event: ev})
}

func (s *recordingSink) Broadcast(ev types.Event) {
	s.record(sinkCall{Method: "broadcast", Event: ev})
}

func (s *recordingSink) ToRole(role string, ev types.Event) {
	s.record(sinkCall{Method: "role", Target: role, Event: ev})
}

func (s *recordingSink) ToDepartment(id string, ev types.Event) {
	s.record(sinkCall{Method: "department", Target: id, Event: ev})
}

func (s *recordingSink) record(c sinkCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *recordingSink) Calls() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *recordingSink) named(name string) []sinkCall {
	var out []sinkCall
	for _, c := range s.Calls() {
		if c.Event.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// testEnv is the in-memory dependency graph the service tests run against.
type testEnv struct {
	codec         *pass.Codec
	signer        *pass.Signer
	visitors      *memory.VisitorStore
	notifications *memory.NotificationStore
	staff         *memory.StaffStore
	sink          *recordingSink
	notifier      *service.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := pass.NewCodec(bytes.Repeat([]byte{0xA5}, pass.KeySize))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	signer, err := pass.NewSigner([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	env := &testEnv{
		codec:         codec,
		signer:        signer,
		visitors:      memory.NewVisitorStore(),
		notifications: memory.NewNotificationStore(),
		staff: memory.NewStaffStore([]store.StaffRecord{
			{ID: "staff-host", Email: "host@example.test", Name: "Harriet Host", Role: "employee", DepartmentID: "dept-eng"},
		}),
		sink: &recordingSink{},
	}
	env.notifier = service.NewNotificationService(env.notifications, env.sink, silentLogger())
	return env
}

func (e *testEnv) passService(t *testing.T, now func() time.Time) *service.PassService {
	t.Helper()
	return service.NewPassService(service.PassServiceDeps{
		Codec:    e.codec,
		Signer:   e.signer,
		Visitors: e.visitors,
		Notifier: e.notifier,
		Logger:   silentLogger(),
		Now:      now,
	})
}

func (e *testEnv) validationService(t *testing.T, now func() time.Time) *service.ValidationService {
	t.Helper()
	return service.NewValidationService(service.ValidationServiceDeps{
		Codec:    e.codec,
		Signer:   e.signer,
		Visitors: e.visitors,
		Notifier: e.notifier,
		Logger:   silentLogger(),
		Now:      now,
	})
}

func (e *testEnv) seedVisitor(t *testing.T, id string, status types.Status) store.VisitorRecord {
	t.Helper()
	rec := store.VisitorRecord{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.test",
		Purpose:      "interview",
		HostID:       "staff-host",
		DepartmentID: "dept-eng",
		Status:       status,
	}
	if err := e.visitors.CreateVisitor(context.Background(), rec); err != nil {
		t.Fatalf("seed visitor: %v", err)
	}
	return rec
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
