package information

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

// Handler wires HTTP endpoints for articles.
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

// MountRoutes registers article routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{informationId}/tags/{tagId}", h.attachTag)
		r.Delete("/{informationId}/tags/{tagId}", h.detachTag)
	})
}

type informationRequest struct {
	Title   string  `json:"title" validate:"required,max=255"`
	Content string  `json:"content" validate:"required"`
	Summary *string `json:"summary"`
	Tags    []int64 `json:"tags"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type informationResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	Summary         *string       `json:"summary"`
	PublicationDate time.Time     `json:"publication_date"`
	Tags            []tagResponse `json:"tags,omitempty"`
}

func toInformationResponse(info *Information) informationResponse {
	out := informationResponse{
		ID:              info.ID,
		Title:           info.Title,
		Content:         info.Content,
		Summary:         info.Summary,
		PublicationDate: info.PublicationDate,
	}
	for _, t := range info.Tags {
		out.Tags = append(out.Tags, tagResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

func withTags(r *http.Request) bool {
	return r.URL.Query().Get("withTags") == "true"
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	items, err := h.service.List(r.Context(), withTags(r), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]informationResponse, 0, len(items))
	for i := range items {
		out = append(out, toInformationResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.service.Get(r.Context(), id, withTags(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInformationResponse(info))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req informationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	info, err := h.service.Create(r.Context(), identity, NewInformation{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
	}, req.Tags)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("information published", slog.Int64("information_id", info.ID))
	httpx.JSON(w, http.StatusCreated, toInformationResponse(info))
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
	var req informationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ValidationError(err))
		return
	}
	info, err := h.service.Update(r.Context(), identity, id, NewInformation{
		Title:   req.Title,
		Content: req.Content,
		Summary: req.Summary,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInformationResponse(info))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "information deleted"})
}

func (h *Handler) attachTag(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	informationID, err := httpx.PathID(r, "informationId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tagID, err := httpx.PathID(r, "tagId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.service.AttachTag(r.Context(), identity, informationID, tagID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInformationResponse(info))
}

func (h *Handler) detachTag(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	informationID, err := httpx.PathID(r, "informationId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tagID, err := httpx.PathID(r, "tagId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.service.DetachTag(r.Context(), identity, informationID, tagID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInformationResponse(info))
}
