package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/citylink/citylink/internal/announcements"
	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/businesses"
	"github.com/citylink/citylink/internal/emergencies"
	"github.com/citylink/citylink/internal/events"
	"github.com/citylink/citylink/internal/forums"
	"github.com/citylink/citylink/internal/information"
	"github.com/citylink/citylink/internal/observability"
	"github.com/citylink/citylink/internal/surveys"
	"github.com/citylink/citylink/internal/tags"
	"github.com/citylink/citylink/internal/users"
	"github.com/citylink/citylink/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	AnnouncementsHandler *announcements.Handler
	BusinessesHandler    *businesses.Handler
	EventsHandler        *events.Handler
	EmergenciesHandler   *emergencies.Handler
	InformationHandler   *information.Handler
	TagsHandler          *tags.Handler
	ForumsHandler        *forums.Handler
	SurveysHandler       *surveys.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with CityLink defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
			params.AuthHandler.MountRoutes(r)
		})
		r.Route("/announcements", params.AnnouncementsHandler.MountRoutes)
		r.Route("/business", params.BusinessesHandler.MountRoutes)
		r.Route("/events", params.EventsHandler.MountRoutes)
		r.Route("/registrations", params.EventsHandler.MountRegistrationRoutes)
		r.Route("/emergency", params.EmergenciesHandler.MountRoutes)
		r.Route("/information", params.InformationHandler.MountRoutes)
		r.Route("/tags", params.TagsHandler.MountRoutes)
		r.Route("/forums", params.ForumsHandler.MountRoutes)
		r.Route("/surveys", params.SurveysHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
