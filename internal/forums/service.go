package forums

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/ratelimit"
)

// RepositoryPort defines data access methods for forums and messages.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*Forum, error)
	List(ctx context.Context, limit, offset int) ([]Forum, error)
	CountCreatedSince(ctx context.Context, ownerID int64, cutoff time.Time) (int, error)
	Create(ctx context.Context, name, description string, ownerID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, forumID int64, limit, offset int) ([]Message, error)
	FindMessage(ctx context.Context, id int64) (*Message, error)
	LastMessageAt(ctx context.Context, ownerID int64) (time.Time, error)
	CreateMessage(ctx context.Context, forumID, ownerID int64, body string) (int64, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// Service handles forum business logic, including both rate-limit windows.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns forums newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Forum, error) {
	return s.repo.List(ctx, limit, offset)
}

// Get fetches a forum by id.
func (s *Service) Get(ctx context.Context, id int64) (*Forum, error) {
	return s.repo.FindByID(ctx, id)
}

// Create opens a forum, subject to the one-per-24h counting window.
func (s *Service) Create(ctx context.Context, caller policy.Identity, name, description string) (*Forum, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: name is required and at most %d characters", httpx.ErrValidation, MaxNameLength)
	}
	count, err := s.repo.CountCreatedSince(ctx, caller.ID, s.now().Add(-CreateWindow))
	if err != nil {
		return nil, err
	}
	if err := ratelimit.CheckCounting(count, 1, CreateWindow); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, name, description, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a forum; owner or admin only.
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

// ListMessages returns a forum's messages oldest first.
func (s *Service) ListMessages(ctx context.Context, forumID int64, limit, offset int) ([]Message, error) {
	if _, err := s.repo.FindByID(ctx, forumID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, forumID, limit, offset)
}

// PostMessage adds a message to a forum, subject to the one-per-5m
// last-event window computed across all forums.
func (s *Service) PostMessage(ctx context.Context, caller policy.Identity, forumID int64, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message is required and at most %d characters", httpx.ErrValidation, MaxMessageLength)
	}
	if _, err := s.repo.FindByID(ctx, forumID); err != nil {
		return nil, err
	}
	lastAt, err := s.repo.LastMessageAt(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if err := ratelimit.CheckLastEvent(s.now(), lastAt, MessageWindow); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateMessage(ctx, forumID, caller.ID, body)
	if err != nil {
		return nil, err
	}
	return s.repo.FindMessage(ctx, id)
}

// DeleteMessage removes a message; author or admin only. The message must
// belong to the forum in the request path.
func (s *Service) DeleteMessage(ctx context.Context, caller policy.Identity, forumID, messageID int64) error {
	msg, err := s.repo.FindMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ForumID != forumID {
		return httpx.ErrNotFound
	}
	if err := policy.Authorize(caller, msg.OwnerID); err != nil {
		return err
	}
	return s.repo.DeleteMessage(ctx, messageID)
}
