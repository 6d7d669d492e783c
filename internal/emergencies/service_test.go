package emergencies_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/emergencies"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]*emergencies.Emergency
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, byID: map[int64]*emergencies.Emergency{}}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*emergencies.Emergency, error) {
	if e, ok := s.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]emergencies.Emergency, error) {
	out := make([]emergencies.Emergency, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, *e)
	}
	return out, nil
}

func (s *stubRepo) Create(_ context.Context, in emergencies.NewEmergency) (int64, error) {
	e := &emergencies.Emergency{
		ID:            s.nextID,
		Reference:     in.Reference,
		EmergencyType: in.EmergencyType,
		Description:   in.Description,
		OwnerID:       in.OwnerID,
		ReportDate:    in.ReportDate,
	}
	s.nextID++
	s.byID[e.ID] = e
	return e.ID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in emergencies.EmergencyUpdate) error {
	e, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	e.EmergencyType = in.EmergencyType
	e.Description = in.Description
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

var (
	reporter = policy.Identity{ID: 10, Role: policy.RoleStandard}
	admin    = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	other    = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func TestCreateAssignsReferenceAndDate(t *testing.T) {
	svc := emergencies.NewService(newStubRepo())

	em, err := svc.Create(context.Background(), reporter, "fire", "Smoke on Oak Avenue")
	require.NoError(t, err)
	require.Equal(t, reporter.ID, em.OwnerID)
	require.False(t, em.ReportDate.IsZero())

	_, err = uuid.Parse(em.Reference)
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), reporter, "flood", "Water rising")
	require.NoError(t, err)
	require.NotEqual(t, em.Reference, second.Reference)
}

func TestUpdateOwnership(t *testing.T) {
	svc := emergencies.NewService(newStubRepo())
	em, err := svc.Create(context.Background(), reporter, "fire", "Smoke")
	require.NoError(t, err)

	update := emergencies.EmergencyUpdate{EmergencyType: "fire", Description: "Contained"}

	_, err = svc.Update(context.Background(), other, em.ID, update)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Update(context.Background(), admin, em.ID, update)
	require.NoError(t, err)
	require.Equal(t, "Contained", got.Description)
	require.Equal(t, em.Reference, got.Reference)

	_, err = svc.Update(context.Background(), reporter, 9999, update)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteOwnership(t *testing.T) {
	svc := emergencies.NewService(newStubRepo())
	em, err := svc.Create(context.Background(), reporter, "fire", "Smoke")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), other, em.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), reporter, em.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), reporter, em.ID), httpx.ErrNotFound)
}
