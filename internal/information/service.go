package information

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
	"github.com/citylink/citylink/internal/tags"
)

// RepositoryPort defines data access methods for articles.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Information, error)
	List(ctx context.Context, limit, offset int) ([]Information, error)
	ListTags(ctx context.Context, informationID int64) ([]tags.Tag, error)
	Create(ctx context.Context, in NewInformation) (int64, error)
	Update(ctx context.Context, id int64, in NewInformation) error
	Delete(ctx context.Context, id int64) error
	TagExists(ctx context.Context, tagID int64) (bool, error)
	AttachTag(ctx context.Context, informationID, tagID int64) error
	DetachTag(ctx context.Context, informationID, tagID int64) error
}

// Auditor records admin article mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles article logic. Articles are municipal reference data:
// reads are public, mutations are admin only.
type Service struct {
	repo  RepositoryPort
	audit Auditor
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns articles, optionally decorated with their tags.
func (s *Service) List(ctx context.Context, withTags bool, limit, offset int) ([]Information, error) {
	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if !withTags {
		return items, nil
	}
	for i := range items {
		itemTags, err := s.repo.ListTags(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Tags = itemTags
	}
	return items, nil
}

// Get fetches an article, optionally with its tags.
func (s *Service) Get(ctx context.Context, id int64, withTags bool) (*Information, error) {
	info, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if withTags {
		info.Tags, err = s.repo.ListTags(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

// Create publishes an article; admin only. Initial tags are attached after
// the insert; an unknown tag id aborts with NotFound.
func (s *Service) Create(ctx context.Context, caller policy.Identity, in NewInformation, tagIDs []int64) (*Information, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	for _, tagID := range tagIDs {
		if err := s.attach(ctx, id, tagID); err != nil {
			return nil, err
		}
	}
	s.record(ctx, caller, "create", id)
	return s.Get(ctx, id, true)
}

// Update mutates an article; admin only.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in NewInformation) (*Information, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return nil, err
	}
	s.record(ctx, caller, "update", id)
	return s.Get(ctx, id, true)
}

// Delete removes an article; admin only.
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
	s.record(ctx, caller, "delete", id)
	return nil
}

// AttachTag links a tag to an article; admin only. Both sides must exist;
// a duplicate attachment yields a Duplicate error with a specific message.
func (s *Service) AttachTag(ctx context.Context, caller policy.Identity, informationID, tagID int64) (*Information, error) {
	if _, err := s.repo.FindByID(ctx, informationID); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.attach(ctx, informationID, tagID); err != nil {
		return nil, err
	}
	s.record(ctx, caller, "attach_tag", informationID)
	return s.Get(ctx, informationID, true)
}

// DetachTag unlinks a tag from an article; admin only.
func (s *Service) DetachTag(ctx context.Context, caller policy.Identity, informationID, tagID int64) (*Information, error) {
	if _, err := s.repo.FindByID(ctx, informationID); err != nil {
		return nil, err
	}
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	exists, err := s.repo.TagExists(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: tag %d", httpx.ErrNotFound, tagID)
	}
	if err := s.repo.DetachTag(ctx, informationID, tagID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: tag is not attached to this article", httpx.ErrValidation)
		}
		return nil, err
	}
	s.record(ctx, caller, "detach_tag", informationID)
	return s.Get(ctx, informationID, true)
}

func (s *Service) attach(ctx context.Context, informationID, tagID int64) error {
	exists, err := s.repo.TagExists(ctx, tagID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: tag %d", httpx.ErrNotFound, tagID)
	}
	if err := s.repo.AttachTag(ctx, informationID, tagID); err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return fmt.Errorf("%w: tag is already attached to this article", httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

func (s *Service) record(ctx context.Context, caller policy.Identity, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "information",
		EntityID: strconv.FormatInt(id, 10),
	})
}
