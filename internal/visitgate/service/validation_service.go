package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// ValidationService decides whether a presented pass grants entry or exit
// and, for visitor passes, advances the visitor's state.  The state check
// and the transition are one conditional write: two concurrent validations
// of the same pass produce at most one success, the rest lose with
// ErrStateConflict.
type ValidationService struct {
	codec    *pass.Codec
	signer   *pass.Signer
	visitors store.VisitorStore
	notifier *NotificationService
	logger   *log.Logger
	now      func() time.Time
}

type ValidationServiceDeps struct {
	Codec    *pass.Codec
	Signer   *pass.Signer
	Visitors store.VisitorStore
	Notifier *NotificationService
	Logger   *log.Logger

	// Now overrides the clock; nil means UTC wall time.
	Now func() time.Time
}

func NewValidationService(d ValidationServiceDeps) *ValidationService {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ValidationService{
		codec:    d.Codec,
		signer:   d.Signer,
		visitors: d.Visitors,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      now,
	}
}

// Validate decodes a blob and applies it.  Codec errors propagate as-is;
// an expired pass is ErrExpired regardless of kind.  Temporary passes
// only echo their content and are reusable: validating one twice before
// expiry succeeds twice.
func (s *ValidationService) Validate(ctx context.Context, blob string) (types.ValidationResult, error) {
	payload, err := s.codec.Decrypt(blob)
	if err != nil {
		return types.ValidationResult{}, err
	}

	now := s.now()
	if payload.Expired(now) {
		return types.ValidationResult{}, ErrExpired
	}

	if payload.Kind == types.PassTemporary {
		return types.ValidationResult{
			OK:         true,
			Kind:       types.PassTemporary,
			AccessType: payload.AccessType,
			Location:   payload.Location,
			ValidUntil: payload.ValidUntil.Format(time.RFC3339),
			ServerTime: now.Format(time.RFC3339Nano),
		}, nil
	}

	return s.validateVisitorPass(ctx, payload, now)
}

func (s *ValidationService) validateVisitorPass(ctx context.Context, payload types.PassPayload, now time.Time) (types.ValidationResult, error) {
	if !payload.Usage.IsValid() {
		return types.ValidationResult{}, pass.ErrIntegrity
	}
	// The signature is what separates a minted payload from one forged
	// against the unauthenticated cipher, so an absent or wrong signature
	// is an integrity failure, not a state problem.
	if !s.signer.Verify(payload.VisitorID, payload.ID, payload.IssuedAt, payload.Signature) {
		return types.ValidationResult{}, pass.ErrIntegrity
	}

	visitor, err := s.visitors.GetVisitor(ctx, payload.VisitorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ValidationResult{}, ErrVisitorNotFound
		}
		return types.ValidationResult{}, err
	}

	expected := payload.Usage.ExpectedStatus()
	next := payload.Usage.NextStatus()
	field := store.SetCheckIn
	if payload.Usage == types.UsageCheckOut {
		field = store.SetCheckOut
	}

	swapped, err := s.visitors.CompareAndSetStatus(ctx, visitor.ID, expected, next, field, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ValidationResult{}, ErrVisitorNotFound
		}
		return types.ValidationResult{}, err
	}
	if !swapped {
		s.notifier.PassValidation(ctx, visitor, payload.Usage, false)
		return types.ValidationResult{}, ErrStateConflict
	}

	visitor.Status = next
	switch field {
	case store.SetCheckIn:
		t := now
		visitor.CheckInTime = &t
	case store.SetCheckOut:
		t := now
		visitor.CheckOutTime = &t
	}

	s.notifier.PassValidation(ctx, visitor, payload.Usage, true)
	if payload.Usage == types.UsageCheckIn {
		s.notifier.VisitorCheckedIn(ctx, visitor)
	} else {
		s.notifier.VisitorCheckedOut(ctx, visitor)
	}

	return types.ValidationResult{
		OK:         true,
		Kind:       types.PassVisitor,
		Usage:      payload.Usage,
		VisitorID:  visitor.ID,
		Name:       visitor.Name(),
		Status:     next,
		ValidUntil: payload.ValidUntil.Format(time.RFC3339),
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}
