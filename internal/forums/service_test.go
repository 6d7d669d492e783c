package forums

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

type stubRepo struct {
	nextID   int64
	forums   map[int64]*Forum
	messages map[int64]*Message
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, forums: map[int64]*Forum{}, messages: map[int64]*Message{}}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*Forum, error) {
	if f, ok := s.forums[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]Forum, error) {
	out := make([]Forum, 0, len(s.forums))
	for _, f := range s.forums {
		out = append(out, *f)
	}
	return out, nil
}

func (s *stubRepo) CountCreatedSince(_ context.Context, ownerID int64, cutoff time.Time) (int, error) {
	count := 0
	for _, f := range s.forums {
		if f.OwnerID == ownerID && !f.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) Create(_ context.Context, name, description string, ownerID int64) (int64, error) {
	f := &Forum{ID: s.nextID, Name: name, Description: description, OwnerID: ownerID, CreatedAt: time.Now()}
	s.nextID++
	s.forums[f.ID] = f
	return f.ID, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.forums[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.forums, id)
	return nil
}

func (s *stubRepo) ListMessages(_ context.Context, forumID int64, limit, offset int) ([]Message, error) {
	var out []Message
	for _, m := range s.messages {
		if m.ForumID == forumID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *stubRepo) FindMessage(_ context.Context, id int64) (*Message, error) {
	if m, ok := s.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) LastMessageAt(_ context.Context, ownerID int64) (time.Time, error) {
	var last time.Time
	for _, m := range s.messages {
		if m.OwnerID == ownerID && m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return last, nil
}

func (s *stubRepo) CreateMessage(_ context.Context, forumID, ownerID int64, body string) (int64, error) {
	m := &Message{ID: s.nextID, ForumID: forumID, OwnerID: ownerID, Body: body, CreatedAt: time.Now()}
	s.nextID++
	s.messages[m.ID] = m
	return m.ID, nil
}

func (s *stubRepo) DeleteMessage(_ context.Context, id int64) error {
	if _, ok := s.messages[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

var (
	owner = policy.Identity{ID: 10, Role: policy.RoleStandard}
	admin = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	other = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func newService(repo *stubRepo) *Service {
	return &Service{repo: repo, now: time.Now}
}

func TestCreateValidatesName(t *testing.T) {
	svc := newService(newStubRepo())

	_, err := svc.Create(context.Background(), owner, "  ", "d")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), owner, strings.Repeat("x", MaxNameLength+1), "d")
	require.ErrorIs(t, err, httpx.ErrValidation)

	forum, err := svc.Create(context.Background(), owner, strings.Repeat("x", MaxNameLength), "d")
	require.NoError(t, err)
	require.Equal(t, owner.ID, forum.OwnerID)
}

func TestCreateCountingWindow(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)

	forum, err := svc.Create(context.Background(), owner, "First", "d")
	require.NoError(t, err)

	// A second forum inside 24h is rejected, even 23h59m after the first.
	repo.forums[forum.ID].CreatedAt = time.Now().Add(-23*time.Hour - 59*time.Minute)
	_, err = svc.Create(context.Background(), owner, "Second", "d")
	var limited *httpx.RateLimitedError
	require.True(t, errors.As(err, &limited))

	// Another identity is unaffected.
	_, err = svc.Create(context.Background(), other, "Theirs", "d")
	require.NoError(t, err)

	// Once the first forum falls outside the window, creation is allowed.
	repo.forums[forum.ID].CreatedAt = time.Now().Add(-25 * time.Hour)
	_, err = svc.Create(context.Background(), owner, "Second", "d")
	require.NoError(t, err)
}

func TestPostMessageLastEventWindow(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	forum, err := svc.Create(context.Background(), owner, "General", "d")
	require.NoError(t, err)

	msg, err := svc.PostMessage(context.Background(), owner, forum.ID, "hello")
	require.NoError(t, err)

	// 4m59s later: denied with about one second remaining.
	repo.messages[msg.ID].CreatedAt = time.Now().Add(-4*time.Minute - 59*time.Second)
	_, err = svc.PostMessage(context.Background(), owner, forum.ID, "again")
	var limited *httpx.RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.InDelta(t, 1, limited.RetrySeconds, 1)

	// 5m01s later: allowed.
	repo.messages[msg.ID].CreatedAt = time.Now().Add(-5*time.Minute - time.Second)
	_, err = svc.PostMessage(context.Background(), owner, forum.ID, "again")
	require.NoError(t, err)
}

func TestPostMessageValidation(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	forum, err := svc.Create(context.Background(), owner, "General", "d")
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), owner, forum.ID, "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.PostMessage(context.Background(), owner, forum.ID, strings.Repeat("x", MaxMessageLength+1))
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.PostMessage(context.Background(), owner, 9999, "hello")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteForumOwnership(t *testing.T) {
	svc := newService(newStubRepo())
	forum, err := svc.Create(context.Background(), owner, "General", "d")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), other, forum.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), admin, forum.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), admin, forum.ID), httpx.ErrNotFound)
}

func TestDeleteMessageOwnership(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo)
	forum, err := svc.Create(context.Background(), owner, "General", "d")
	require.NoError(t, err)
	msg, err := svc.PostMessage(context.Background(), owner, forum.ID, "hello")
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteMessage(context.Background(), other, forum.ID, msg.ID), httpx.ErrForbidden)

	// Wrong forum in the path yields NotFound.
	require.ErrorIs(t, svc.DeleteMessage(context.Background(), owner, forum.ID+1, msg.ID), httpx.ErrNotFound)

	require.NoError(t, svc.DeleteMessage(context.Background(), owner, forum.ID, msg.ID))
}
