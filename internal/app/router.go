package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/antares-fit/antares/internal/auth"
	"github.com/antares-fit/antares/internal/catalog"
	"github.com/antares-fit/antares/internal/gyms"
	"github.com/antares-fit/antares/internal/memberships"
	"github.com/antares-fit/antares/internal/observability"
	"github.com/antares-fit/antares/internal/scores"
	"github.com/antares-fit/antares/internal/shared"
	"github.com/antares-fit/antares/internal/users"
	"github.com/antares-fit/antares/internal/workouts"
	"github.com/antares-fit/antares/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	GymsHandler        *gyms.Handler
	MembershipsHandler *memberships.Handler
	CatalogHandler     *catalog.Handler
	WorkoutsHandler    *workouts.Handler
	ScoresHandler      *scores.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Antares defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Auth:           params.AuthService,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.GymsHandler != nil {
		r.Route("/gyms", params.GymsHandler.MountRoutes)
	}
	if params.MembershipsHandler != nil {
		r.Route("/memberships", params.MembershipsHandler.MountRoutes)
	}
	if params.CatalogHandler != nil {
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
	}
	if params.WorkoutsHandler != nil {
		r.Route("/workouts", params.WorkoutsHandler.MountRoutes)
	}
	if params.ScoresHandler != nil {
		r.Route("/scores", params.ScoresHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
