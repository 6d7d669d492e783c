package emergencies

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

// Handler wires HTTP endpoints for emergency reports.
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

// MountRoutes registers emergency routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type emergencyRequest struct {
	EmergencyType string `json:"emergency_type" validate:"required,max=100"`
	Description   string `json:"description" validate:"required"`
}

type emergencyResponse struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	EmergencyType string    `json:"emergency_type"`
	Description   string    `json:"description"`
	UserID        int64     `json:"user_id"`
	ReportDate    time.Time `json:"report_date"`
	ReporterName  string    `json:"reporter_name"`
}

func toEmergencyResponse(e *Emergency) emergencyResponse {
	return emergencyResponse{
		ID:            e.ID,
		Reference:     e.Reference,
		EmergencyType: e.EmergencyType,
		Description:   e.Description,
		UserID:        e.OwnerID,
		ReportDate:    e.ReportDate,
		ReporterName:  strings.TrimSpace(e.ReporterFirstname + " " + e.ReporterLastname),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	items, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]emergencyResponse, 0, len(items))
	for i := range items {
		out = append(out, toEmergencyResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	em, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmergencyResponse(em))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req emergencyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	em, err := h.service.Create(r.Context(), identity, req.EmergencyType, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("emergency reported",
		slog.Int64("emergency_id", em.ID),
		slog.String("reference", em.Reference),
		slog.String("type", em.EmergencyType))
	httpx.JSON(w, http.StatusCreated, toEmergencyResponse(em))
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
	var req emergencyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	em, err := h.service.Update(r.Context(), identity, id, EmergencyUpdate{
		EmergencyType: req.EmergencyType,
		Description:   req.Description,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEmergencyResponse(em))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "emergency deleted"})
}
