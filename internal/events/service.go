package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

// RepositoryPort defines data access methods for events and registrations.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, limit, offset int) ([]Event, error)
	BusinessOwner(ctx context.Context, businessID int64) (int64, error)
	Create(ctx context.Context, in NewEvent) (int64, error)
	Update(ctx context.Context, id int64, in NewEvent) error
	Delete(ctx context.Context, id int64) error
	ListRegistrations(ctx context.Context, userID int64) ([]Registration, error)
	CreateRegistration(ctx context.Context, userID, eventID int64, reserved bool) error
	UpdateRegistration(ctx context.Context, userID, eventID int64, reserved bool) error
	DeleteRegistration(ctx context.Context, userID, eventID int64) error
	OptedInEmails(ctx context.Context) ([]string, error)
}

// Notifier enqueues new-event notification jobs.
type Notifier interface {
	EnqueueEventNotify(ctx context.Context, eventID int64, name string) error
}

// Service handles event business logic. Event ownership follows the hosting
// business: the business owner (or an admin) may mutate its events.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service instance. notifier may be nil in tests.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// List returns events most recent first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Event, error) {
	return s.repo.List(ctx, limit, offset)
}

// Get fetches an event by id.
func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds an event to a business the caller owns and enqueues the
// new-event notification fan-out. Enqueue failures are logged, not surfaced.
func (s *Service) Create(ctx context.Context, caller policy.Identity, in NewEvent) (*Event, error) {
	ownerID, err := s.repo.BusinessOwner(ctx, in.BusinessID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown business", httpx.ErrValidation)
		}
		return nil, err
	}
	if err := policy.Authorize(caller, ownerID); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.EnqueueEventNotify(ctx, id, in.Name); err != nil {
			s.logger.Warn("enqueue event notification", slog.Int64("event_id", id), slog.Any("error", err))
		}
	}
	return s.repo.FindByID(ctx, id)
}

// Update mutates an event; hosting business owner or admin only. Moving the
// event to another business requires ownership of the target business too.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in NewEvent) (*Event, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return nil, err
	}
	if in.BusinessID != current.BusinessID {
		targetOwner, err := s.repo.BusinessOwner(ctx, in.BusinessID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown business", httpx.ErrValidation)
			}
			return nil, err
		}
		if err := policy.Authorize(caller, targetOwner); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes an event; hosting business owner or admin only.
func (s *Service) Delete(ctx context.Context, caller policy.Identity, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListRegistrations returns the caller's reservations.
func (s *Service) ListRegistrations(ctx context.Context, caller policy.Identity) ([]Registration, error) {
	return s.repo.ListRegistrations(ctx, caller.ID)
}

// Register reserves a spot for the caller. The event must exist and accept
// reservations.
func (s *Service) Register(ctx context.Context, caller policy.Identity, eventID int64, reserved bool) error {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.IsReservable {
		return fmt.Errorf("%w: event does not accept reservations", httpx.ErrValidation)
	}
	if err := s.repo.CreateRegistration(ctx, caller.ID, eventID, reserved); err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return fmt.Errorf("%w: already registered for this event", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// UpdateRegistration flips the caller's reserved flag for an event.
func (s *Service) UpdateRegistration(ctx context.Context, caller policy.Identity, eventID int64, reserved bool) error {
	return s.repo.UpdateRegistration(ctx, caller.ID, eventID, reserved)
}

// DeleteRegistration cancels the caller's reservation for an event.
func (s *Service) DeleteRegistration(ctx context.Context, caller policy.Identity, eventID int64) error {
	return s.repo.DeleteRegistration(ctx, caller.ID, eventID)
}
