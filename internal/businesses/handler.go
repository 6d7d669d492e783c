package businesses

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/shared"
)

// Handler wires HTTP endpoints for business listings.
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

// MountRoutes registers business routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/categories", h.listCategories)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type businessRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	Address     string  `json:"address" validate:"required"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email" validate:"omitempty,email"`
	WebsiteURL  *string `json:"website_url" validate:"omitempty,url"`
}

type businessResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CategoryID  int64     `json:"category_id"`
	Address     string    `json:"address"`
	PhoneNumber *string   `json:"phone_number"`
	Email       *string   `json:"email"`
	WebsiteURL  *string   `json:"website_url"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerName   string    `json:"owner_name"`
}

func toBusinessResponse(b *Business) businessResponse {
	return businessResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		UserID:      b.OwnerID,
		CategoryID:  b.CategoryID,
		Address:     b.Address,
		PhoneNumber: b.PhoneNumber,
		Email:       b.Email,
		WebsiteURL:  b.WebsiteURL,
		CreatedAt:   b.CreatedAt,
		OwnerName:   strings.TrimSpace(b.OwnerFirstname + " " + b.OwnerLastname),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	term := r.URL.Query().Get("q")
	items, err := h.service.List(r.Context(), term, win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]businessResponse, 0, len(items))
	for i := range items {
		out = append(out, toBusinessResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(cats))
	for _, c := range cats {
		out = append(out, map[string]any{"id": c.ID, "name": c.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBusinessResponse(b))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req businessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	b, err := h.service.Create(r.Context(), identity, CreateInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		WebsiteURL:  req.WebsiteURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("business created", slog.Int64("business_id", b.ID), slog.Int64("user_id", identity.ID))
	httpx.JSON(w, http.StatusCreated, toBusinessResponse(b))
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
	var req businessRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	b, err := h.service.Update(r.Context(), identity, id, CreateInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		WebsiteURL:  req.WebsiteURL,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBusinessResponse(b))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "business deleted"})
}
