package businesses_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/businesses"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]*businesses.Business
	folded map[int64]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, byID: map[int64]*businesses.Business{}, folded: map[int64]string{}}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*businesses.Business, error) {
	if b, ok := s.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, foldedTerm string, limit, offset int) ([]businesses.Business, error) {
	var out []businesses.Business
	for id, b := range s.byID {
		if foldedTerm == "" || strings.Contains(s.folded[id], foldedTerm) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubRepo) ListCategories(_ context.Context) ([]businesses.Category, error) {
	return []businesses.Category{{ID: 1, Name: "Restaurant"}, {ID: 2, Name: "Retail"}}, nil
}

func (s *stubRepo) Create(_ context.Context, in businesses.NewBusiness) (int64, error) {
	b := &businesses.Business{
		ID:          s.nextID,
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     in.OwnerID,
		CategoryID:  in.CategoryID,
		Address:     in.Address,
		CreatedAt:   time.Now(),
	}
	s.folded[b.ID] = in.SearchName
	s.nextID++
	s.byID[b.ID] = b
	return b.ID, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in businesses.BusinessUpdate) error {
	b, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	b.Name = in.Name
	b.Description = in.Description
	b.CategoryID = in.CategoryID
	b.Address = in.Address
	s.folded[id] = in.SearchName
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
	owner = policy.Identity{ID: 10, Role: policy.RoleBusiness}
	admin = policy.Identity{ID: 1, Role: policy.RoleAdmin}
	other = policy.Identity{ID: 20, Role: policy.RoleStandard}
)

func newListing(t *testing.T, svc *businesses.Service, name string) *businesses.Business {
	t.Helper()
	b, err := svc.Create(context.Background(), owner, businesses.CreateInput{
		Name: name, Description: "d", CategoryID: 1, Address: "1 Main St",
	})
	require.NoError(t, err)
	return b
}

func TestCreateRoundTrip(t *testing.T) {
	svc := businesses.NewService(newStubRepo())
	created := newListing(t, svc, "Boulangerie")

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, owner.ID, got.OwnerID)
	require.Equal(t, "Boulangerie", got.Name)
}

func TestSearchIgnoresDiacritics(t *testing.T) {
	svc := businesses.NewService(newStubRepo())
	newListing(t, svc, "Café de la Gare")
	newListing(t, svc, "Hardware Store")

	got, err := svc.List(context.Background(), "cafe", 100, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Café de la Gare", got[0].Name)

	got, err = svc.List(context.Background(), "CAFÉ", 100, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.List(context.Background(), "", 100, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestUpdateOwnership(t *testing.T) {
	svc := businesses.NewService(newStubRepo())
	created := newListing(t, svc, "Shop")

	in := businesses.CreateInput{Name: "Shop 2", Description: "d", CategoryID: 2, Address: "2 Main St"}

	_, err := svc.Update(context.Background(), other, created.ID, in)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Update(context.Background(), admin, created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "Shop 2", got.Name)
	require.Equal(t, owner.ID, got.OwnerID)

	_, err = svc.Update(context.Background(), owner, 9999, in)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteOwnership(t *testing.T) {
	svc := businesses.NewService(newStubRepo())
	created := newListing(t, svc, "Shop")

	require.ErrorIs(t, svc.Delete(context.Background(), other, created.ID), httpx.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), owner, created.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), owner, created.ID), httpx.ErrNotFound)
}
