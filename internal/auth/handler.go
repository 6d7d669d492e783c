package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/citylink/citylink/internal/platform/httpx"
)

// Handler exposes token lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	raw := BearerToken(r)
	if raw == "" {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}
	if err := h.service.Logout(r.Context(), raw); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
