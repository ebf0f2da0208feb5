package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/service"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// issueBlob mints a real pass through the pass service so validation tests
// exercise the same blobs production produces.
func issueBlob(t *testing.T, env *testEnv, now func() time.Time, visitorID string, usage types.Usage) string {
	t.Helper()
	resp, err := env.passService(t, now).IssueVisitorPass(context.Background(), visitorID, usage)
	if err != nil {
		t.Fatalf("issue %s pass: %v", usage, err)
	}
	return resp.Blob
}

func TestValidate_FullVisitLifecycle(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := fixedClock(at)
	svc := env.validationService(t, clock)
	ctx := context.Background()

	env.seedVisitor(t, "visitor-001", types.StatusPending)

	// Check in.
	inBlob := issueBlob(t, env, clock, "visitor-001", types.UsageCheckIn)
	result, err := svc.Validate(ctx, inBlob)
	if err != nil {
		t.Fatalf("validate check-in: %v", err)
	}
	if !result.OK || result.Status != types.StatusCheckedIn {
		t.Fatalf("unexpected check-in result: %+v", result)
	}

	visitor, err := env.visitors.GetVisitor(ctx, "visitor-001")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if visitor.Status != types.StatusCheckedIn {
		t.Errorf("status after check-in: %s", visitor.Status)
	}
	if visitor.CheckInTime == nil || !visitor.CheckInTime.Equal(at) {
		t.Errorf("check-in time: got %v, want %v", visitor.CheckInTime, at)
	}
	if visitor.CheckOutTime != nil {
		t.Error("check-out time must stay unset after check-in")
	}

	// Check out.
	outAt := at.Add(2 * time.Hour)
	outClock := fixedClock(outAt)
	outBlob := issueBlob(t, env, outClock, "visitor-001", types.UsageCheckOut)
	result, err = env.validationService(t, outClock).Validate(ctx, outBlob)
	if err != nil {
		t.Fatalf("validate check-out: %v", err)
	}
	if result.Status != types.StatusCheckedOut {
		t.Fatalf("unexpected check-out result: %+v", result)
	}

	visitor, err = env.visitors.GetVisitor(ctx, "visitor-001")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if visitor.Status != types.StatusCheckedOut {
		t.Errorf("status after check-out: %s", visitor.Status)
	}
	if visitor.CheckInTime == nil || !visitor.CheckInTime.Equal(at) {
		t.Errorf("check-in time must survive check-out: got %v", visitor.CheckInTime)
	}
	if visitor.CheckOutTime == nil || !visitor.CheckOutTime.Equal(outAt) {
		t.Errorf("check-out time: got %v, want %v", visitor.CheckOutTime, outAt)
	}
}

func TestValidate_ReusedCheckInPassConflicts(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := fixedClock(at)
	svc := env.validationService(t, clock)
	ctx := context.Background()

	env.seedVisitor(t, "visitor-001", types.StatusPending)
	blob := issueBlob(t, env, clock, "visitor-001", types.UsageCheckIn)

	if _, err := svc.Validate(ctx, blob); err != nil {
		t.Fatalf("first validation: %v", err)
	}

	// The second scan of the same blob loses on state, not on crypto.
	later := env.validationService(t, fixedClock(at.Add(time.Minute)))
	if _, err := later.Validate(ctx, blob); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("second validation: got %v, want ErrStateConflict", err)
	}

	// The timestamp from the first scan is untouched.
	visitor, err := env.visitors.GetVisitor(ctx, "visitor-001")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if visitor.CheckInTime == nil || !visitor.CheckInTime.Equal(at) {
		t.Errorf("check-in time must be written exactly once: got %v, want %v", visitor.CheckInTime, at)
	}

	// The losing scan raises a high-priority validation failure.
	alerts := env.sink.named(types.EventSecurityAlert)
	if len(alerts) != 1 {
		t.Errorf("expected 1 security alert for the failed scan, got %d", len(alerts))
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	deadline := issuedAt.Add(service.DefaultVisitorPassTTL)
	ctx := context.Background()

	env.seedVisitor(t, "visitor-001", types.StatusPending)
	blob := issueBlob(t, env, fixedClock(issuedAt), "visitor-001", types.UsageCheckIn)

	// One nanosecond past the deadline the pass is dead.
	expired := env.validationService(t, fixedClock(deadline.Add(time.Nanosecond)))
	if _, err := expired.Validate(ctx, blob); !errors.Is(err, service.ErrExpired) {
		t.Fatalf("past deadline: got %v, want ErrExpired", err)
	}

	// At exactly the deadline the pass is still valid.
	atDeadline := env.validationService(t, fixedClock(deadline))
	result, err := atDeadline.Validate(ctx, blob)
	if err != nil {
		t.Fatalf("at deadline: %v", err)
	}
	if result.Status != types.StatusCheckedIn {
		t.Errorf("unexpected result at deadline: %+v", result)
	}
}

func TestValidate_ForgedSignatureRejected(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := env.validationService(t, fixedClock(at))
	ctx := context.Background()

	env.seedVisitor(t, "visitor-001", types.StatusPending)

	// A payload encrypted with the right key but signed with the wrong one:
	// what an attacker who stole the cipher key but not the signing key
	// could mint.
	forged := types.PassPayload{
		ID:         "forged-pass",
		Kind:       types.PassVisitor,
		ValidUntil: at.Add(time.Hour),
		VisitorID:  "visitor-001",
		Name:       "Ada Lovelace",
		Usage:      types.UsageCheckIn,
		IssuedAt:   at.UnixMilli(),
		Signature:  "0000000000000000000000000000000000000000000000000000000000000000",
	}
	blob, err := env.codec.Encrypt(forged)
	if err != nil {
		t.Fatalf("encrypt forged payload: %v", err)
	}

	if _, err := svc.Validate(ctx, blob); !errors.Is(err, pass.ErrIntegrity) {
		t.Fatalf("forged signature: got %v, want ErrIntegrity", err)
	}

	// The forgery must not have moved the visitor.
	visitor, err := env.visitors.GetVisitor(ctx, "visitor-001")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if visitor.Status != types.StatusPending {
		t.Errorf("visitor moved by a forged pass: %s", visitor.Status)
	}
}

func TestValidate_UnknownUsageRejected(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := env.validationService(t, fixedClock(at))

	payload := types.PassPayload{
		ID:         "pass-odd",
		Kind:       types.PassVisitor,
		ValidUntil: at.Add(time.Hour),
		VisitorID:  "visitor-001",
		Usage:      types.Usage("loiter"),
	}
	blob, err := env.codec.Encrypt(payload)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := svc.Validate(context.Background(), blob); !errors.Is(err, pass.ErrIntegrity) {
		t.Fatalf("unknown usage: got %v, want ErrIntegrity", err)
	}
}

func TestValidate_UnknownVisitor(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := env.validationService(t, fixedClock(at))

	payload := types.PassPayload{
		ID:         "pass-orphan",
		Kind:       types.PassVisitor,
		ValidUntil: at.Add(time.Hour),
		VisitorID:  "visitor-missing",
		Usage:      types.UsageCheckIn,
		IssuedAt:   at.UnixMilli(),
	}
	payload.Signature = env.signer.Sign(payload.VisitorID, payload.ID, payload.IssuedAt)
	blob, err := env.codec.Encrypt(payload)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := svc.Validate(context.Background(), blob); !errors.Is(err, service.ErrVisitorNotFound) {
		t.Fatalf("unknown visitor: got %v, want ErrVisitorNotFound", err)
	}
}

func TestValidate_MalformedBlobPropagates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.validationService(t, nil)

	if _, err := svc.Validate(context.Background(), "not a pass"); !errors.Is(err, pass.ErrMalformedBlob) {
		t.Fatalf("got %v, want ErrMalformedBlob", err)
	}
}

func TestValidate_TemporaryPassIsReusable(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := fixedClock(at)
	svc := env.validationService(t, clock)
	ctx := context.Background()

	resp, err := env.passService(t, clock).IssueTemporaryPass(ctx, types.TemporaryPassRequest{
		AccessType:      "contractor",
		Location:        "loading-dock",
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("issue temporary pass: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := svc.Validate(ctx, resp.Blob)
		if err != nil {
			t.Fatalf("validation %d: %v", i+1, err)
		}
		if !result.OK || result.Kind != types.PassTemporary {
			t.Fatalf("validation %d: unexpected result %+v", i+1, result)
		}
		if result.AccessType != "contractor" || result.Location != "loading-dock" {
			t.Errorf("validation %d: content mismatch %+v", i+1, result)
		}
	}
}

func TestValidate_TemporaryPassExpires(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	resp, err := env.passService(t, fixedClock(at)).IssueTemporaryPass(ctx, types.TemporaryPassRequest{
		Location:        "lobby",
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("issue temporary pass: %v", err)
	}

	late := env.validationService(t, fixedClock(at.Add(16*time.Minute)))
	if _, err := late.Validate(ctx, resp.Blob); !errors.Is(err, service.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
}

func TestValidate_ConcurrentScansAdmitExactlyOne(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := fixedClock(at)
	svc := env.validationService(t, clock)
	ctx := context.Background()

	env.seedVisitor(t, "visitor-001", types.StatusPending)
	blob := issueBlob(t, env, clock, "visitor-001", types.UsageCheckIn)

	const scans = 16
	errs := make([]error, scans)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(scans)
	for i := 0; i < scans; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			_, errs[i] = svc.Validate(ctx, blob)
		}(i)
	}
	start.Done()
	done.Wait()

	var ok, conflicts int
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrStateConflict):
			conflicts++
		default:
			t.Errorf("scan %d: unexpected error %v", i, err)
		}
	}
	if ok != 1 {
		t.Errorf("expected exactly 1 admitted scan, got %d", ok)
	}
	if conflicts != scans-1 {
		t.Errorf("expected %d conflicts, got %d", scans-1, conflicts)
	}

	visitor, err := env.visitors.GetVisitor(ctx, "visitor-001")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if visitor.Status != types.StatusCheckedIn {
		t.Errorf("status after the race: %s", visitor.Status)
	}
	if visitor.CheckInTime == nil || !visitor.CheckInTime.Equal(at) {
		t.Errorf("check-in time after the race: %v", visitor.CheckInTime)
	}
}
