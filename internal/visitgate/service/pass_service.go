package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/visitgate/visitgate/internal/barcode"
	"github.com/visitgate/visitgate/internal/mail"
	"github.com/visitgate/visitgate/internal/visitgate/pass"
	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

// DefaultVisitorPassTTL is how long a freshly issued visitor pass stays
// valid when no TTL is configured.
const DefaultVisitorPassTTL = 24 * time.Hour

// PassService mints passes.  Issuing never invalidates an older blob
// cryptographically; superseding is logical. Validation checks the
// visitor's current state, which naturally rejects a stale pass once the
// state has advanced.
type PassService struct {
	codec    *pass.Codec
	signer   *pass.Signer
	visitors store.VisitorStore
	renderer barcode.Renderer
	mailer   mail.Mailer
	notifier *NotificationService
	logger   *log.Logger

	visitorTTL time.Duration
	now        func() time.Time
}

type PassServiceDeps struct {
	Codec    *pass.Codec
	Signer   *pass.Signer
	Visitors store.VisitorStore
	Renderer barcode.Renderer
	Mailer   mail.Mailer
	Notifier *NotificationService
	Logger   *log.Logger

	// VisitorPassTTL overrides DefaultVisitorPassTTL when positive.
	VisitorPassTTL time.Duration

	// Now overrides the clock; nil means UTC wall time.
	Now func() time.Time
}

func NewPassService(d PassServiceDeps) *PassService {
	ttl := d.VisitorPassTTL
	if ttl <= 0 {
		ttl = DefaultVisitorPassTTL
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	renderer := d.Renderer
	if renderer == nil {
		renderer = barcode.NopRenderer{}
	}
	return &PassService{
		codec:      d.Codec,
		signer:     d.Signer,
		visitors:   d.Visitors,
		renderer:   renderer,
		mailer:     d.Mailer,
		notifier:   d.Notifier,
		logger:     d.Logger,
		visitorTTL: ttl,
		now:        now,
	}
}

// IssueVisitorPass mints a pass for one visitor and one usage.  The
// visitor's current state must be the one the usage is accepted in:
// a check-in pass for an already checked-in (or terminal) visitor is
// refused so staff cannot mint a usable duplicate.
func (s *PassService) IssueVisitorPass(ctx context.Context, visitorID string, usage types.Usage) (types.IssuePassResponse, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return types.IssuePassResponse{}, ErrInvalidVisitorID
	}
	if !usage.IsValid() {
		return types.IssuePassResponse{}, ErrInvalidUsage
	}

	visitor, err := s.visitors.GetVisitor(ctx, visitorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.IssuePassResponse{}, ErrVisitorNotFound
		}
		return types.IssuePassResponse{}, err
	}

	if visitor.Status != usage.ExpectedStatus() {
		return types.IssuePassResponse{}, fmt.Errorf("%w: visitor is %s, %s pass requires %s",
			ErrIssuanceConflict, visitor.Status, usage, usage.ExpectedStatus())
	}

	now := s.now()
	payload := types.PassPayload{
		ID:         uuid.NewString(),
		Kind:       types.PassVisitor,
		ValidUntil: now.Add(s.visitorTTL),
		Nonce:      newNonce(),
		VisitorID:  visitor.ID,
		Name:       visitor.Name(),
		Usage:      usage,
		IssuedAt:   now.UnixMilli(),
	}
	payload.Signature = s.signer.Sign(visitor.ID, payload.ID, payload.IssuedAt)

	blob, err := s.codec.Encrypt(payload)
	if err != nil {
		return types.IssuePassResponse{}, err
	}

	image, err := s.renderer.Render(blob)
	if err != nil {
		// The blob itself is still usable; rendering is presentation only.
		s.logger.Printf("barcode render failed for visitor=%s: %v", visitor.ID, err)
		image = nil
	}

	s.deliverPassMail(visitor, usage, image, payload.ValidUntil)
	s.notifier.PassIssued(ctx, visitor, usage)

	return types.IssuePassResponse{
		OK:         true,
		VisitorID:  visitor.ID,
		Usage:      usage,
		Blob:       blob,
		Image:      image,
		ValidUntil: payload.ValidUntil.Format(time.RFC3339),
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}

// IssueTemporaryPass mints a reusable access pass for a location.  It is
// bound to no visitor and carries no state, so it validates repeatedly
// until expiry.
func (s *PassService) IssueTemporaryPass(ctx context.Context, req types.TemporaryPassRequest) (types.TemporaryPassResponse, error) {
	req.AccessType = strings.TrimSpace(req.AccessType)
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		return types.TemporaryPassResponse{}, ErrInvalidLocation
	}
	if req.DurationMinutes <= 0 {
		return types.TemporaryPassResponse{}, ErrInvalidDuration
	}
	if req.AccessType == "" {
		req.AccessType = "general"
	}

	now := s.now()
	payload := types.PassPayload{
		ID:         uuid.NewString(),
		Kind:       types.PassTemporary,
		ValidUntil: now.Add(time.Duration(req.DurationMinutes) * time.Minute),
		Nonce:      newNonce(),
		AccessType: req.AccessType,
		Location:   req.Location,
	}

	blob, err := s.codec.Encrypt(payload)
	if err != nil {
		return types.TemporaryPassResponse{}, err
	}

	image, err := s.renderer.Render(blob)
	if err != nil {
		s.logger.Printf("barcode render failed for temporary pass location=%s: %v", req.Location, err)
		image = nil
	}

	return types.TemporaryPassResponse{
		OK:         true,
		Blob:       blob,
		Image:      image,
		AccessType: req.AccessType,
		Location:   req.Location,
		ValidUntil: payload.ValidUntil.Format(time.RFC3339),
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}

// deliverPassMail emails the pass to the visitor in the background.  Mail
// is a downstream collaborator: its failures are logged and never block
// or fail issuance.
func (s *PassService) deliverPassMail(v store.VisitorRecord, usage types.Usage, image []byte, validUntil time.Time) {
	if s.mailer == nil || strings.TrimSpace(v.Email) == "" {
		return
	}
	subject := fmt.Sprintf("Your %s pass", usage)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour %s pass is ready. Present it at the gate before %s.\n",
		v.Name(), usage, validUntil.Format(time.RFC1123),
	)
	if len(image) > 0 {
		body += "\nYour scannable code is attached.\n"
	}

	go func() {
		if err := s.mailer.Deliver(v.Email, subject, body); err != nil {
			s.logger.Printf("pass mail to %s failed: %v", v.Email, err)
		}
	}()
}

func newNonce() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
