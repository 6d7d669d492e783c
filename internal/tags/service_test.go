package tags_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
	"github.com/citylink/citylink/internal/tags"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]*tags.Tag
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, byID: map[int64]*tags.Tag{}}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*tags.Tag, error) {
	if t, ok := s.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context) ([]tags.Tag, error) {
	out := make([]tags.Tag, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) Create(_ context.Context, name string) (*tags.Tag, error) {
	for _, t := range s.byID {
		if t.Name == name {
			return nil, httpx.ErrDuplicate
		}
	}
	t := &tags.Tag{ID: s.nextID, Name: name}
	s.nextID++
	s.byID[t.ID] = t
	return t, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, name string) error {
	t, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	for otherID, other := range s.byID {
		if otherID != id && other.Name == name {
			return httpx.ErrDuplicate
		}
	}
	t.Name = name
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) ListInformations(_ context.Context, tagID int64) ([]tags.InformationRef, error) {
	return nil, nil
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (a *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

var (
	admin    = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	resident = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func TestCreateAdminOnly(t *testing.T) {
	audit := &recordingAuditor{}
	svc := tags.NewService(newStubRepo(), audit)

	_, err := svc.Create(context.Background(), resident, "roads")
	require.ErrorIs(t, err, httpx.ErrForbidden)

	tag, err := svc.Create(context.Background(), admin, "roads")
	require.NoError(t, err)
	require.Equal(t, "roads", tag.Name)
	require.Len(t, audit.logs, 1)
}

func TestCreateDuplicateName(t *testing.T) {
	svc := tags.NewService(newStubRepo(), nil)

	_, err := svc.Create(context.Background(), admin, "roads")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin, "roads")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Contains(t, err.Error(), "tag name already exists")
}

func TestUpdate(t *testing.T) {
	svc := tags.NewService(newStubRepo(), nil)
	tag, err := svc.Create(context.Background(), admin, "roads")
	require.NoError(t, err)
	taken, err := svc.Create(context.Background(), admin, "parks")
	require.NoError(t, err)

	// NotFound wins over Forbidden for an absent tag.
	_, err = svc.Update(context.Background(), resident, 9999, "x")
	require.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Update(context.Background(), resident, tag.ID, "streets")
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Update(context.Background(), admin, tag.ID, taken.Name)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	got, err := svc.Update(context.Background(), admin, tag.ID, "streets")
	require.NoError(t, err)
	require.Equal(t, "streets", got.Name)
}

func TestDeleteAdminOnly(t *testing.T) {
	svc := tags.NewService(newStubRepo(), nil)
	tag, err := svc.Create(context.Background(), admin, "roads")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), resident, tag.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), admin, tag.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), admin, tag.ID), httpx.ErrNotFound)
}
