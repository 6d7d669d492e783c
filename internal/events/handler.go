package events

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/shared"
)

// Handler wires HTTP endpoints for events.
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

// MountRoutes registers event routes on the provided router.
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

// MountRegistrationRoutes registers reservation routes; all require auth.
func (h *Handler) MountRegistrationRoutes(r chi.Router) {
	r.Use(h.mw.RequireUser)
	r.Get("/user", h.listRegistrations)
	r.Post("/", h.register)
	r.Put("/{eventId}", h.updateRegistration)
	r.Delete("/{eventId}", h.deleteRegistration)
}

type eventRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Description  string `json:"description" validate:"required"`
	EventDate    string `json:"event_date" validate:"required"`
	BusinessID   int64  `json:"business_id" validate:"required,gt=0"`
	IsReservable bool   `json:"is_reservable"`
}

type registrationRequest struct {
	EventID  int64 `json:"event_id" validate:"required,gt=0"`
	Reserved bool  `json:"reserved"`
}

type updateRegistrationRequest struct {
	Reserved bool `json:"reserved"`
}

type eventResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	EventDate    time.Time `json:"event_date"`
	BusinessID   int64     `json:"business_id"`
	IsReservable bool      `json:"is_reservable"`
	BusinessName string    `json:"business_name"`
}

type registrationResponse struct {
	UserID      int64     `json:"user_id"`
	EventID     int64     `json:"event_id"`
	Reserved    bool      `json:"reserved"`
	EventName   string    `json:"event_name"`
	EventDate   time.Time `json:"event_date"`
	Description string    `json:"description"`
}

func toEventResponse(e *Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		EventDate:    e.EventDate,
		BusinessID:   e.BusinessID,
		IsReservable: e.IsReservable,
		BusinessName: e.BusinessName,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	items, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]eventResponse, 0, len(items))
	for i := range items {
		out = append(out, toEventResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) decodeEvent(r *http.Request) (NewEvent, error) {
	var req eventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return NewEvent{}, fmt.Errorf("%w: invalid request body", httpx.ErrValidation)
	}
	if err := h.validator.Struct(req); err != nil {
		return NewEvent{}, httpx.ValidationError(err)
	}
	date, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return NewEvent{}, fmt.Errorf("%w: invalid event_date", httpx.ErrValidation)
	}
	return NewEvent{
		Name:         req.Name,
		Description:  req.Description,
		EventDate:    date,
		BusinessID:   req.BusinessID,
		IsReservable: req.IsReservable,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	in, err := h.decodeEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.Create(r.Context(), identity, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("event created", slog.Int64("event_id", event.ID), slog.Int64("business_id", event.BusinessID))
	httpx.JSON(w, http.StatusCreated, toEventResponse(event))
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
	in, err := h.decodeEvent(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.Update(r.Context(), identity, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponse(event))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	regs, err := h.service.ListRegistrations(r.Context(), identity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]registrationResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, registrationResponse{
			UserID:      reg.UserID,
			EventID:     reg.EventID,
			Reserved:    reg.Reserved,
			EventName:   reg.EventName,
			EventDate:   reg.EventDate,
			Description: reg.Description,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req registrationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	if err := h.service.Register(r.Context(), identity, req.EventID, req.Reserved); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user_id":  identity.ID,
		"event_id": req.EventID,
		"reserved": req.Reserved,
	})
}

func (h *Handler) updateRegistration(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	eventID, err := httpx.PathID(r, "eventId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRegistrationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.service.UpdateRegistration(r.Context(), identity, eventID, req.Reserved); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "registration updated"})
}

func (h *Handler) deleteRegistration(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	eventID, err := httpx.PathID(r, "eventId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRegistration(r.Context(), identity, eventID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "registration cancelled"})
}
