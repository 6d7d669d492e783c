package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

type stubRepo struct {
	accounts map[int64]*auth.Account
}

func (s *stubRepo) FindAccountByID(_ context.Context, id int64) (*auth.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, httpx.ErrNotFound
}

func (s *stubRepo) FindAccountByEmail(_ context.Context, email string) (*auth.Account, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func newService(t *testing.T, accounts map[int64]*auth.Account) (*auth.Service, *auth.TokenManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewService(&stubRepo{accounts: accounts}, tokens, auth.NewDenylist(client))
	return svc, tokens
}

func TestVerifyResolvesIdentity(t *testing.T) {
	svc, tokens := newService(t, map[int64]*auth.Account{
		5: {ID: 5, Email: "a@b.c", Role: policy.RoleStandard},
	})
	raw, _, err := tokens.Issue(5)
	require.NoError(t, err)

	id, err := svc.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, policy.Identity{ID: 5, Role: policy.RoleStandard}, id)
}

func TestVerifyMissingToken(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Verify(context.Background(), "")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyMalformedToken(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Verify(context.Background(), "not.a.token")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyExpiredToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	expired := auth.NewTokenManager("test-secret", -time.Minute)
	svc := auth.NewService(&stubRepo{}, expired, auth.NewDenylist(client))

	raw, _, err := expired.Issue(5)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), raw)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc, _ := newService(t, nil)
	other := auth.NewTokenManager("other-secret", time.Hour)
	raw, _, err := other.Issue(5)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), raw)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestVerifyDeletedAccount(t *testing.T) {
	svc, tokens := newService(t, nil)
	raw, _, err := tokens.Issue(123)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), raw)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

type faultyRepo struct {
	err error
}

func (f *faultyRepo) FindAccountByID(context.Context, int64) (*auth.Account, error) {
	return nil, f.err
}

func (f *faultyRepo) FindAccountByEmail(context.Context, string) (*auth.Account, error) {
	return nil, f.err
}

func TestVerifyStorageFaultIsNotUnauthenticated(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	dbErr := errors.New("connection refused")
	svc := auth.NewService(&faultyRepo{err: dbErr}, tokens, auth.NewDenylist(client))

	raw, _, err := tokens.Issue(5)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), raw)
	require.ErrorIs(t, err, dbErr)
	require.NotErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, tokens := newService(t, map[int64]*auth.Account{
		5: {ID: 5, Role: policy.RoleStandard},
	})
	raw, _, err := tokens.Issue(5)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), raw)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), raw))

	_, err = svc.Verify(context.Background(), raw)
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestRequireUserMiddleware(t *testing.T) {
	svc, tokens := newService(t, map[int64]*auth.Account{
		9: {ID: 9, Role: policy.RoleAdmin},
	})
	mw := auth.Middleware{Service: svc}

	var captured policy.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	raw, _, err := tokens.Issue(9)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res := httptest.NewRecorder()
	mw.RequireUser(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
	require.EqualValues(t, 9, captured.ID)

	// No header at all.
	res = httptest.NewRecorder()
	mw.RequireUser(next).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireAdminMiddleware(t *testing.T) {
	svc, tokens := newService(t, map[int64]*auth.Account{
		1: {ID: 1, Role: policy.RoleAdmin},
		2: {ID: 2, Role: policy.RoleStandard},
	})
	mw := auth.Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	adminToken, _, err := tokens.Issue(1)
	require.NoError(t, err)
	userToken, _, err := tokens.Issue(2)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	res := httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	res = httptest.NewRecorder()
	mw.RequireAdmin(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, auth.BearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	require.Empty(t, auth.BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	require.Equal(t, "abc.def.ghi", auth.BearerToken(req))
}
