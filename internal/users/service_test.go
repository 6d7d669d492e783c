package users_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
	"github.com/citylink/citylink/internal/users"
)

type stubRepo struct {
	nextID  int64
	byID    map[int64]*users.User
	findErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, byID: map[int64]*users.User{}}
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*users.User, error) {
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, u := range s.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]users.User, error) {
	out := make([]users.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) Create(_ context.Context, in users.NewUser) (*users.User, error) {
	for _, u := range s.byID {
		if u.Email == in.Email {
			return nil, httpx.ErrDuplicate
		}
	}
	u := &users.User{
		ID:           s.nextID,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    time.Now(),
	}
	s.nextID++
	s.byID[u.ID] = u
	return u, nil
}

func (s *stubRepo) Update(_ context.Context, id int64, in users.ProfileUpdate, role policy.Role) error {
	u, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.Firstname = in.Firstname
	u.Lastname = in.Lastname
	u.Email = in.Email
	u.Role = role
	return nil
}

func (s *stubRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := s.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) ListRoles(_ context.Context) ([]users.RoleInfo, error) {
	return []users.RoleInfo{{ID: 1, Name: "admin"}, {ID: 2, Name: "standard"}, {ID: 3, Name: "business"}}, nil
}

type stubTokens struct{}

func (stubTokens) Issue(userID int64) (string, time.Time, error) {
	return fmt.Sprintf("token-%d", userID), time.Now().Add(time.Hour), nil
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (a *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newService() (*users.Service, *stubRepo, *recordingAuditor) {
	repo := newStubRepo()
	audit := &recordingAuditor{}
	return users.NewService(repo, stubTokens{}, audit), repo, audit
}

func seed(t *testing.T, repo *stubRepo, email, password string, role policy.Role) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := repo.Create(context.Background(), users.NewUser{
		Firstname:    "Test",
		Lastname:     "User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAssignsStandardRole(t *testing.T) {
	svc, _, _ := newService()
	user, token, err := svc.Register(context.Background(), users.RegisterInput{
		Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.org", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, policy.RoleStandard, user.Role)
	require.Equal(t, "token-1", token)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, "ada@example.org", "pw", policy.RoleStandard)

	_, _, err := svc.Register(context.Background(), users.RegisterInput{
		Firstname: "Ada", Lastname: "L", Email: "ada@example.org", Password: "hunter2hunter2",
	})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestLogin(t *testing.T) {
	svc, repo, _ := newService()
	u := seed(t, repo, "ada@example.org", "correct-horse", policy.RoleStandard)

	got, token, err := svc.Login(context.Background(), "ada@example.org", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), "ada@example.org", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)

	_, _, err = svc.Login(context.Background(), "nobody@example.org", "correct-horse")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestLoginStorageFaultIsNotUnauthenticated(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, "ada@example.org", "correct-horse", policy.RoleStandard)

	repo.findErr = errors.New("connection refused")
	_, _, err := svc.Login(context.Background(), "ada@example.org", "correct-horse")
	require.ErrorIs(t, err, repo.findErr)
	require.NotErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestUpdateOwnership(t *testing.T) {
	svc, repo, _ := newService()
	owner := seed(t, repo, "owner@example.org", "pw", policy.RoleStandard)
	other := seed(t, repo, "other@example.org", "pw", policy.RoleStandard)

	update := users.ProfileUpdate{Firstname: "New", Lastname: "Name", Email: "owner@example.org"}

	got, err := svc.Update(context.Background(), owner.Identity(), owner.ID, update)
	require.NoError(t, err)
	require.Equal(t, "New", got.Firstname)

	_, err = svc.Update(context.Background(), other.Identity(), owner.ID, update)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Update(context.Background(), owner.Identity(), 9999, update)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateRoleAdminOnly(t *testing.T) {
	svc, repo, audit := newService()
	admin := seed(t, repo, "admin@example.org", "pw", policy.RoleAdmin)
	target := seed(t, repo, "target@example.org", "pw", policy.RoleStandard)

	business := policy.RoleBusiness
	update := users.ProfileUpdate{Firstname: "T", Lastname: "U", Email: "target@example.org", Role: &business}

	// A standard user cannot elevate their own role.
	got, err := svc.Update(context.Background(), target.Identity(), target.ID, update)
	require.NoError(t, err)
	require.Equal(t, policy.RoleStandard, got.Role)
	require.Empty(t, audit.logs)

	got, err = svc.Update(context.Background(), admin.Identity(), target.ID, update)
	require.NoError(t, err)
	require.Equal(t, policy.RoleBusiness, got.Role)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "role_change", audit.logs[0].Action)
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	svc, repo, _ := newService()
	admin := seed(t, repo, "admin@example.org", "pw", policy.RoleAdmin)
	target := seed(t, repo, "target@example.org", "pw", policy.RoleStandard)

	bogus := policy.Role(42)
	_, err := svc.Update(context.Background(), admin.Identity(), target.ID, users.ProfileUpdate{
		Firstname: "T", Lastname: "U", Email: "target@example.org", Role: &bogus,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newService()
	u := seed(t, repo, "ada@example.org", "old-password", policy.RoleStandard)

	err := svc.ChangePassword(context.Background(), u.ID, "wrong", "new-password")
	require.ErrorIs(t, err, httpx.ErrValidation)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "old-password", "new-password"))

	_, _, err = svc.Login(context.Background(), "ada@example.org", "new-password")
	require.NoError(t, err)
}

func TestDelete(t *testing.T) {
	svc, repo, audit := newService()
	admin := seed(t, repo, "admin@example.org", "pw", policy.RoleAdmin)
	target := seed(t, repo, "target@example.org", "pw", policy.RoleStandard)
	other := seed(t, repo, "other@example.org", "pw", policy.RoleStandard)

	err := svc.Delete(context.Background(), other.Identity(), target.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), admin.Identity(), target.ID))
	require.Len(t, audit.logs, 1)

	err = svc.Delete(context.Background(), admin.Identity(), target.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
