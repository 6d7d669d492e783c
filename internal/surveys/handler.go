package surveys

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/platform/httpx"
	"github.com/citylink/citylink/internal/policy"
	"github.com/citylink/citylink/internal/shared"
)

// Handler wires HTTP endpoints for surveys.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers survey routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.With(h.mw.OptionalUser).Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/vote", h.vote)
	})
}

type createRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type updateRequest struct {
	Question *string  `json:"question"`
	Options  []string `json:"options"`
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

type optionResponse struct {
	ID   int64  `json:"id"`
	Text string `json:"option"`
}

type statResponse struct {
	OptionID   int64  `json:"option_id"`
	Text       string `json:"option"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

type surveyResponse struct {
	ID           int64            `json:"id"`
	Question     string           `json:"question"`
	UserID       int64            `json:"user_id"`
	CreationDate time.Time        `json:"creation_date"`
	OwnerName    string           `json:"owner_name"`
	Options      []optionResponse `json:"options"`
}

type detailResponse struct {
	surveyResponse
	Stats    []statResponse `json:"stats"`
	UserVote *int64         `json:"user_vote"`
}

func toSurveyResponse(s *Survey) surveyResponse {
	opts := make([]optionResponse, 0, len(s.Options))
	for _, o := range s.Options {
		opts = append(opts, optionResponse{ID: o.ID, Text: o.Text})
	}
	return surveyResponse{
		ID:           s.ID,
		Question:     s.Question,
		UserID:       s.OwnerID,
		CreationDate: s.CreationDate,
		OwnerName:    s.OwnerName,
		Options:      opts,
	}
}

func toDetailResponse(d *Detail) detailResponse {
	stats := make([]statResponse, 0, len(d.Stats))
	for _, st := range d.Stats {
		stats = append(stats, statResponse{
			OptionID:   st.OptionID,
			Text:       st.Text,
			Count:      st.Count,
			Percentage: st.Percentage,
		})
	}
	return detailResponse{
		surveyResponse: toSurveyResponse(&d.Survey),
		Stats:          stats,
		UserVote:       d.UserVote,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	win := shared.ParseListWindow(r)
	items, err := h.service.List(r.Context(), win.Limit, win.Offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]surveyResponse, 0, len(items))
	for i := range items {
		out = append(out, toSurveyResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var viewer *policy.Identity
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		viewer = &identity
	}
	detail, err := h.service.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDetailResponse(detail))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid request body", httpx.ErrValidation))
		return
	}
	detail, err := h.service.Create(r.Context(), identity, req.Question, req.Options)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("survey created", slog.Int64("survey_id", detail.ID), slog.Int64("user_id", identity.ID))
	httpx.JSON(w, http.StatusCreated, toDetailResponse(detail))
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
	if err := h.service.Update(r.Context(), identity, id, req.Question, req.Options); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "survey updated"})
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
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "survey deleted"})
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
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
	var req voteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.OptionID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: option_id is required", httpx.ErrValidation))
		return
	}
	if err := h.service.Vote(r.Context(), identity, id, req.OptionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "vote recorded"})
}
