package emergencies

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/citylink/citylink/internal/policy"
)

// RepositoryPort defines data access methods for emergency reports.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Emergency, error)
	List(ctx context.Context, limit, offset int) ([]Emergency, error)
	Create(ctx context.Context, in NewEmergency) (int64, error)
	Update(ctx context.Context, id int64, in EmergencyUpdate) error
	Delete(ctx context.Context, id int64) error
}

// Service handles emergency-report logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns reports most recent first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Emergency, error) {
	return s.repo.List(ctx, limit, offset)
}

// Get fetches a report by id.
func (s *Service) Get(ctx context.Context, id int64) (*Emergency, error) {
	return s.repo.FindByID(ctx, id)
}

// Create files a report for the caller. The report timestamp and the public
// reference are assigned here, never taken from the request.
func (s *Service) Create(ctx context.Context, caller policy.Identity, emergencyType, description string) (*Emergency, error) {
	id, err := s.repo.Create(ctx, NewEmergency{
		Reference:     uuid.NewString(),
		EmergencyType: emergencyType,
		Description:   description,
		OwnerID:       caller.ID,
		ReportDate:    s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update mutates a report; reporter or admin only.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in EmergencyUpdate) (*Emergency, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a report; reporter or admin only.
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
