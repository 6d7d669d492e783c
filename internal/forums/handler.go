package forums

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/shared"
)

// Handler wires HTTP endpoints for forums and their messages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers forum routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{forumId}/messages", h.listMessages)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.Post("/{forumId}/messages", h.postMessage)
		r.Delete("/{forumId}/messages/{messageId}", h.deleteMessage)
	})
}

type forumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type forumResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerName   string    `json:"owner_name"`
}

type messageResponse struct {
	ID         int64     `json:"id"`
	ForumID    int64     `json:"forum_id"`
	UserID     int64     `json:"user_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorName string    `json:"author_name"`
}

func toForumResponse(f *Forum) forumResponse {
	return forumResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		UserID:      f.OwnerID,
		CreatedAt:   f.CreatedAt,
		OwnerName:   f.OwnerName,
	}
}

func toMessageResponse(m *Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		ForumID:    m.ForumID,
		UserID:     m.OwnerID,
		Message:    m.Body,
		CreatedAt:  m.CreatedAt,
		AuthorName: m.AuthorName,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	items, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]forumResponse, 0, len(items))
	for i := range items {
		out = append(out, toForumResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	forum, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toForumResponse(forum))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req forumRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	forum, err := h.service.Create(r.Context(), identity, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("forum created", slog.Int64("forum_id", forum.ID), slog.Int64("user_id", identity.ID))
	httpx.JSON(w, http.StatusCreated, toForumResponse(forum))
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "forum deleted"})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	forumID, err := httpx.PathID(r, "forumId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	win := shared.ParseListWindow(r)
	msgs, err := h.service.ListMessages(r.Context(), forumID, win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	forumID, err := httpx.PathID(r, "forumId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req messageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	msg, err := h.service.PostMessage(r.Context(), identity, forumID, req.Message)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	forumID, err := httpx.PathID(r, "forumId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	messageID, err := httpx.PathID(r, "messageId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteMessage(r.Context(), identity, forumID, messageID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
