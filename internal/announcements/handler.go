package announcements

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

// Handler wires HTTP endpoints for announcements.
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

// MountRoutes registers announcement routes on the provided router.
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

type announcementRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type announcementResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"`
	UserID          int64     `json:"user_id"`
	AuthorName      string    `json:"author_name"`
}

func toAnnouncementResponse(a *Announcement) announcementResponse {
	return announcementResponse{
		ID:              a.ID,
		Title:           a.Title,
		Content:         a.Content,
		PublicationDate: a.PublicationDate,
		UserID:          a.OwnerID,
		AuthorName:      strings.TrimSpace(a.AuthorFirstname + " " + a.AuthorLastname),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	anns, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]announcementResponse, 0, len(anns))
	for i := range anns {
		out = append(out, toAnnouncementResponse(&anns[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ann, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAnnouncementResponse(ann))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req announcementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	ann, err := h.service.Create(r.Context(), identity, req.Title, req.Content)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("announcement created", slog.Int64("announcement_id", ann.ID), slog.Int64("user_id", identity.ID))
	httpx.JSON(w, http.StatusCreated, toAnnouncementResponse(ann))
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
	var req announcementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	ann, err := h.service.Update(r.Context(), identity, id, AnnouncementUpdate{Title: req.Title, Content: req.Content})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAnnouncementResponse(ann))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "announcement deleted"})
}
