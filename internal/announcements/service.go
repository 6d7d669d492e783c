package announcements

import (
	"context"

	"github.com/citylink/citylink/internal/policy"
)

// RepositoryPort defines data access methods for announcements.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Announcement, error)
	List(ctx context.Context, limit, offset int) ([]Announcement, error)
	Create(ctx context.Context, in NewAnnouncement) (int64, error)
	Update(ctx context.Context, id int64, in AnnouncementUpdate) error
	Delete(ctx context.Context, id int64) error
}

// Service handles announcement business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns announcements newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Announcement, error) {
	return s.repo.List(ctx, limit, offset)
}

// Get fetches an announcement by id.
func (s *Service) Get(ctx context.Context, id int64) (*Announcement, error) {
	return s.repo.FindByID(ctx, id)
}

// Create posts an announcement owned by the caller.
func (s *Service) Create(ctx context.Context, caller policy.Identity, title, content string) (*Announcement, error) {
	id, err := s.repo.Create(ctx, NewAnnouncement{Title: title, Content: content, OwnerID: caller.ID})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update mutates an announcement; owner or admin only. The row is loaded
// first so a missing announcement yields NotFound before the policy check.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in AnnouncementUpdate) (*Announcement, error) {
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

// Delete removes an announcement; owner or admin only.
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
