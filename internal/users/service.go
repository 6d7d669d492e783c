package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	Create(ctx context.Context, in NewUser) (*User, error)
	Update(ctx context.Context, id int64, in ProfileUpdate, role policy.Role) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	ListRoles(ctx context.Context) ([]RoleInfo, error)
}

// TokenIssuer signs a bearer token for an account id.
type TokenIssuer interface {
	Issue(userID int64) (string, time.Time, error)
}

// Auditor records admin-relevant account mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account business logic.
type Service struct {
	repo   RepositoryPort
	tokens TokenIssuer
	audit  Auditor
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, tokens TokenIssuer, audit Auditor) *Service {
	return &Service{repo: repo, tokens: tokens, audit: audit}
}

// RegisterInput carries the registration attributes before hashing.
type RegisterInput struct {
	Firstname     string
	Lastname      string
	Company       *string
	Email         string
	Password      string
	Address       *string
	PostalCode    *string
	City          *string
	Phone         *string
	Birthday      *time.Time
	MailNewEvents bool
	MailEvents    bool
	PublicProfile bool
}

// Register creates an account with the standard role and signs a token for
// immediate login. A taken email yields ErrDuplicate.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.repo.Create(ctx, NewUser{
		Firstname:     in.Firstname,
		Lastname:      in.Lastname,
		Company:       in.Company,
		Email:         in.Email,
		PasswordHash:  string(hash),
		Address:       in.Address,
		PostalCode:    in.PostalCode,
		City:          in.City,
		Phone:         in.Phone,
		Birthday:      in.Birthday,
		MailNewEvents: in.MailNewEvents,
		MailEvents:    in.MailEvents,
		PublicProfile: in.PublicProfile,
		Role:          policy.RoleStandard,
	})
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: email already in use", httpx.ErrDuplicate)
		}
		return nil, "", err
	}
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login validates credentials and signs a token. Both an unknown email and a
// wrong password yield the same Unauthenticated error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthenticated)
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email or password", httpx.ErrUnauthenticated)
	}
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns accounts; admin only, enforced by the route middleware.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update mutates a profile. Allowed for the account holder and admins; only
// admins may change the role. The target is loaded first so a missing
// account surfaces as NotFound before the policy check.
func (s *Service) Update(ctx context.Context, caller policy.Identity, id int64, in ProfileUpdate) (*User, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(caller, current.ID); err != nil {
		return nil, err
	}
	role := current.Role
	if in.Role != nil && caller.Role.IsAdmin() {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
		}
		role = *in.Role
	}
	if err := s.repo.Update(ctx, id, in, role); err != nil {
		return nil, err
	}
	if role != current.Role && s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  caller.ID,
			Action:   "role_change",
			Entity:   "user",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"from": current.Role.String(), "to": role.String()},
		})
	}
	return s.repo.FindByID(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, callerID int64, current, next string) error {
	user, err := s.repo.FindByID(ctx, callerID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, callerID, string(hash))
}

// Delete removes an account; the holder and admins only.
func (s *Service) Delete(ctx context.Context, caller policy.Identity, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.Authorize(caller, current.ID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil && caller.ID != id {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  caller.ID,
			Action:   "delete",
			Entity:   "user",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// ListRoles returns the seeded capability levels.
func (s *Service) ListRoles(ctx context.Context) ([]RoleInfo, error) {
	return s.repo.ListRoles(ctx)
}
