package tags

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

// RepositoryPort defines data access methods for tags.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Tag, error)
	List(ctx context.Context) ([]Tag, error)
	Create(ctx context.Context, name string) (*Tag, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	ListInformations(ctx context.Context, tagID int64) ([]InformationRef, error)
}

// Auditor records admin tag mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles tag logic. Tags are global reference data: reads are
// public, mutations are admin only.
type Service struct {
	repo  RepositoryPort
	audit Auditor
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all tags.
func (s *Service) List(ctx context.Context) ([]Tag, error) {
	return s.repo.List(ctx)
}

// Get fetches a tag by id.
func (s *Service) Get(ctx context.Context, id int64) (*Tag, error) {
	return s.repo.FindByID(ctx, id)
}

// Create adds a tag; admin only. A taken name yields ErrDuplicate.
func (s *Service) Create(ctx context.Context, caller policy.Identity, name string) (*Tag, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	tag, err := s.repo.Create(ctx, name)
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return nil, fmt.Errorf("%w: tag name already exists", httpx.ErrDuplicate)
		}
		return nil, err
	}
	s.record(ctx, caller, "create", tag.ID, name)
	return tag, nil
}

// Update renames a tag; admin only.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, name string) (*Tag, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, name); err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return nil, fmt.Errorf("%w: tag name already exists", httpx.ErrDuplicate)
		}
		return nil, err
	}
	s.record(ctx, caller, "update", id, name)
	return s.repo.FindByID(ctx, id)
}

// Delete removes a tag; admin only.
func (s *Service) Delete(ctx context.Context, caller policy.Identity, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, caller, "delete", id, "")
	return nil
}

// ListInformations returns articles carrying the tag.
func (s *Service) ListInformations(ctx context.Context, tagID int64) ([]InformationRef, error) {
	if _, err := s.repo.FindByID(ctx, tagID); err != nil {
		return nil, err
	}
	return s.repo.ListInformations(ctx, tagID)
}

func (s *Service) record(ctx context.Context, caller policy.Identity, action string, id int64, name string) {
	if s.audit == nil {
		return
	}
	var meta map[string]any
	if name != "" {
		meta = map[string]any{"name": name}
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "tag",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
