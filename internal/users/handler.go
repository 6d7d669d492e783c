package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

// Handler wires HTTP endpoints for accounts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        auth.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers account routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Get("/profile", h.profile)
		r.Post("/change-password", h.changePassword)
		r.Get("/roles", h.listRoles)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})

	r.With(h.mw.RequireAdmin).Get("/", h.list)
}

type registerRequest struct {
	Firstname     string  `json:"firstname" validate:"required,max=100"`
	Lastname      string  `json:"lastname" validate:"required,max=100"`
	Company       *string `json:"company"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	Address       *string `json:"address"`
	PostalCode    *string `json:"postal_code"`
	City          *string `json:"city"`
	Phone         *string `json:"phone"`
	Birthday      *string `json:"birthday"`
	MailNewEvents bool    `json:"mail_new_events"`
	MailEvents    bool    `json:"mail_events"`
	PublicProfile bool    `json:"public_profile"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateRequest struct {
	Firstname     string  `json:"firstname" validate:"required,max=100"`
	Lastname      string  `json:"lastname" validate:"required,max=100"`
	Company       *string `json:"company"`
	Email         string  `json:"email" validate:"required,email"`
	Address       *string `json:"address"`
	PostalCode    *string `json:"postal_code"`
	City          *string `json:"city"`
	Phone         *string `json:"phone"`
	Birthday      *string `json:"birthday"`
	Avatar        *string `json:"avatar"`
	MailNewEvents bool    `json:"mail_new_events"`
	MailEvents    bool    `json:"mail_events"`
	PublicProfile bool    `json:"public_profile"`
	RoleID        *int64  `json:"role_id"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type userResponse struct {
	ID            int64      `json:"id"`
	Firstname     string     `json:"firstname"`
	Lastname      string     `json:"lastname"`
	Company       *string    `json:"company"`
	Email         string     `json:"email"`
	Address       *string    `json:"address"`
	PostalCode    *string    `json:"postal_code"`
	City          *string    `json:"city"`
	Phone         *string    `json:"phone"`
	Birthday      *time.Time `json:"birthday"`
	Avatar        *string    `json:"avatar"`
	MailNewEvents bool       `json:"mail_new_events"`
	MailEvents    bool       `json:"mail_events"`
	PublicProfile bool       `json:"public_profile"`
	RoleID        int64      `json:"role_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toUserResponse(u *User) userResponse {
	return userResponse{
		ID:            u.ID,
		Firstname:     u.Firstname,
		Lastname:      u.Lastname,
		Company:       u.Company,
		Email:         u.Email,
		Address:       u.Address,
		PostalCode:    u.PostalCode,
		City:          u.City,
		Phone:         u.Phone,
		Birthday:      u.Birthday,
		Avatar:        u.Avatar,
		MailNewEvents: u.MailNewEvents,
		MailEvents:    u.MailEvents,
		PublicProfile: u.PublicProfile,
		RoleID:        int64(u.Role),
		CreatedAt:     u.CreatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	birthday, err := parseDate(req.Birthday)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, token, err := h.service.Register(r.Context(), RegisterInput{
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		Company:       req.Company,
		Email:         req.Email,
		Password:      req.Password,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		Phone:         req.Phone,
		Birthday:      birthday,
		MailNewEvents: req.MailNewEvents,
		MailEvents:    req.MailEvents,
		PublicProfile: req.PublicProfile,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(user),
		"token": token,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	user, err := h.service.Get(r.Context(), identity.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	users, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	birthday, err := parseDate(req.Birthday)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	update := ProfileUpdate{
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		Company:       req.Company,
		Email:         req.Email,
		Address:       req.Address,
		PostalCode:    req.PostalCode,
		City:          req.City,
		Phone:         req.Phone,
		Birthday:      birthday,
		Avatar:        req.Avatar,
		MailNewEvents: req.MailNewEvents,
		MailEvents:    req.MailEvents,
		PublicProfile: req.PublicProfile,
	}
	if req.RoleID != nil {
		role := policy.Role(*req.RoleID)
		update.Role = &role
	}
	user, err := h.service.Update(r.Context(), identity, id, update)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	if err := h.service.ChangePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(roles))
	for _, role := range roles {
		out = append(out, map[string]any{"id": role.ID, "name": role.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// parseDate accepts a date-only or RFC3339 timestamp string.
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q", httpx.ErrValidation, *raw)
}
