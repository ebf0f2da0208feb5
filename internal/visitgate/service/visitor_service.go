package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/visitgate/visitgate/internal/visitgate/store"
	"github.com/visitgate/visitgate/internal/visitgate/types"
)

var (
	ErrInvalidVisitorName = errors.New("first_name and last_name are required")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidPurpose     = errors.New("purpose is required")
	ErrInvalidHost        = errors.New("host_id is required")
	ErrInvalidDepartment  = errors.New("department_id is required")
	ErrInvalidStatus      = errors.New("unknown visitor status")
)

// VisitorService owns the non-credential parts of the visitor lifecycle:
// registration and administrative cancellation.
type VisitorService struct {
	visitors store.VisitorStore
	staff    store.StaffStore
	notifier *NotificationService
	logger   *log.Logger
	now      func() time.Time
}

func NewVisitorService(visitors store.VisitorStore, staff store.StaffStore, notifier *NotificationService, logger *log.Logger) *VisitorService {
	return &VisitorService{
		visitors: visitors,
		staff:    staff,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a pending visitor and notifies the host.
func (s *VisitorService) Register(ctx context.Context, req types.RegisterVisitorRequest) (store.VisitorRecord, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.Purpose = strings.TrimSpace(req.Purpose)
	req.HostID = strings.TrimSpace(req.HostID)
	req.DepartmentID = strings.TrimSpace(req.DepartmentID)

	switch {
	case req.FirstName == "" || req.LastName == "":
		return store.VisitorRecord{}, ErrInvalidVisitorName
	case req.Email == "":
		return store.VisitorRecord{}, ErrInvalidEmail
	case req.Purpose == "":
		return store.VisitorRecord{}, ErrInvalidPurpose
	case req.HostID == "":
		return store.VisitorRecord{}, ErrInvalidHost
	case req.DepartmentID == "":
		return store.VisitorRecord{}, ErrInvalidDepartment
	}

	if _, err := s.staff.GetStaff(ctx, req.HostID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.VisitorRecord{}, ErrInvalidHost
		}
		return store.VisitorRecord{}, err
	}

	now := s.now()
	rec := store.VisitorRecord{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Company:      strings.TrimSpace(req.Company),
		Purpose:      req.Purpose,
		HostID:       req.HostID,
		DepartmentID: req.DepartmentID,
		Status:       types.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.visitors.CreateVisitor(ctx, rec); err != nil {
		return store.VisitorRecord{}, err
	}

	s.notifier.VisitorRegistered(ctx, rec)
	return rec, nil
}

// Get returns one visitor.
func (s *VisitorService) Get(ctx context.Context, id string) (store.VisitorRecord, error) {
	rec, err := s.visitors.GetVisitor(ctx, strings.TrimSpace(id))
	if errors.Is(err, store.ErrNotFound) {
		return store.VisitorRecord{}, ErrVisitorNotFound
	}
	return rec, err
}

// ListByStatus returns visitors in the given lifecycle state.
func (s *VisitorService) ListByStatus(ctx context.Context, status types.Status) ([]store.VisitorRecord, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.visitors.ListVisitorsByStatus(ctx, status)
}

// Cancel is the administrative action that voids a visit.  It applies the
// same compare-and-set discipline as validation: the transition only lands
// if the visitor is still in the state the admin saw.  Outstanding passes
// for the visitor die with the state: validation will reject them.
func (s *VisitorService) Cancel(ctx context.Context, id string) (store.VisitorRecord, error) {
	visitor, err := s.Get(ctx, id)
	if err != nil {
		return store.VisitorRecord{}, err
	}

	if !types.CanTransition(visitor.Status, types.StatusCancelled) {
		return store.VisitorRecord{}, ErrStateConflict
	}

	now := s.now()
	swapped, err := s.visitors.CompareAndSetStatus(ctx, visitor.ID, visitor.Status, types.StatusCancelled, store.SetNone, now)
	if err != nil {
		return store.VisitorRecord{}, err
	}
	if !swapped {
		return store.VisitorRecord{}, ErrStateConflict
	}

	visitor.Status = types.StatusCancelled
	visitor.UpdatedAt = now
	s.notifier.VisitorCancelled(ctx, visitor)
	return visitor, nil
}
