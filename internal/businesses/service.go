package businesses

import (
	"context"

	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

// RepositoryPort defines data access methods for businesses.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Business, error)
	List(ctx context.Context, foldedTerm string, limit, offset int) ([]Business, error)
	ListCategories(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, in NewBusiness) (int64, error)
	Update(ctx context.Context, id int64, in BusinessUpdate) error
	Delete(ctx context.Context, id int64) error
}

// Service handles business-listing logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the caller-supplied attributes for a new listing.
type CreateInput struct {
	Name        string
	Description string
	CategoryID  int64
	Address     string
	PhoneNumber *string
	Email       *string
	WebsiteURL  *string
}

// List returns listings, optionally filtered by a search term. The term is
// folded so "café" and "cafe" match the same rows.
func (s *Service) List(ctx context.Context, term string, limit, offset int) ([]Business, error) {
	return s.repo.List(ctx, shared.FoldSearchTerm(term), limit, offset)
}

// ListCategories returns the category reference rows.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// Get fetches a listing by id.
func (s *Service) Get(ctx context.Context, id int64) (*Business, error) {
	return s.repo.FindByID(ctx, id)
}

// Create registers a listing owned by the caller.
func (s *Service) Create(ctx context.Context, caller policy.Identity, in CreateInput) (*Business, error) {
	id, err := s.repo.Create(ctx, NewBusiness{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     caller.ID,
		CategoryID:  in.CategoryID,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
		WebsiteURL:  in.WebsiteURL,
		SearchName:  shared.FoldSearchTerm(in.Name),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update mutates a listing; owner or admin only.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in CreateInput) (*Business, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, current.OwnerID); err != nil {
		return nil, err
	}
	err = s.repo.Update(ctx, id, BusinessUpdate{
		Name:        in.Name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
		Email:       in.Email,
		WebsiteURL:  in.WebsiteURL,
		SearchName:  shared.FoldSearchTerm(in.Name),
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a listing; owner or admin only.
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
