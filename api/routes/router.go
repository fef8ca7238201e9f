package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/entrydesk-backend/api/controllers"
	"github.com/angelmondragon/entrydesk-backend/api/middleware"
	"github.com/angelmondragon/entrydesk-backend/internal/auth"
	"github.com/angelmondragon/entrydesk-backend/internal/entries"
	"github.com/angelmondragon/entrydesk-backend/internal/notifications"
	"github.com/angelmondragon/entrydesk-backend/pkg/auth/session"
	"github.com/angelmondragon/entrydesk-backend/pkg/config"
	"github.com/angelmondragon/entrydesk-backend/pkg/db"
	"github.com/angelmondragon/entrydesk-backend/pkg/db/models"
	"github.com/angelmondragon/entrydesk-backend/pkg/enums"
	"github.com/angelmondragon/entrydesk-backend/pkg/logger"
	"github.com/angelmondragon/entrydesk-backend/pkg/metrics"
	"github.com/angelmondragon/entrydesk-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Services groups what the router dispatches to. AdminRegister may be nil,
// in which case the admin signup route is not mounted.
type Services struct {
	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.RegisterService
	Profile       auth.ProfileService
	Users         userLookup
	Sessions      sessionManager
	Entries       entries.Service
	Notifications notifications.Service
}

// Stores are the Redis-backed dependencies of the HTTP middleware and the
// readiness probe. Nil fields disable the matching feature.
type Stores struct {
	RateLimit   middleware.RateLimitStore
	Idempotency redis.IdempotencyStore
	Redis       controllers.Pinger
}

// NewStores exposes one Redis client through every store interface. A nil
// client yields empty Stores rather than interfaces holding a nil pointer.
func NewStores(client *redis.Client) Stores {
	if client == nil {
		return Stores{}
	}
	return Stores{RateLimit: client, Idempotency: client, Redis: client}
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	stores Stores,
	services Services,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	rateStore := stores.RateLimit
	readyChecks := map[string]controllers.Pinger{"db": dbP}
	if stores.Redis != nil {
		readyChecks["redis"] = stores.Redis
	}
	idempotent := middleware.Idempotency(stores.Idempotency, cfg.Eventing.HTTPIdempotencyTTL, logg)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterIdentityLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyChecks, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(services.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(services.Register, services.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(services.Sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(services.Sessions, services.Users, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, services.Sessions, logg))
			r.Get("/profile", controllers.GetProfile(services.Profile, logg))
			r.Patch("/profile", controllers.UpdateProfile(services.Profile, logg))
			r.Post("/change-password", controllers.ChangePassword(services.Profile, logg))
		})
	})

	if adminSignupEnabled(cfg) && services.AdminRegister != nil {
		r.Route("/api/admin/v1/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(services.AdminRegister, services.Auth, logg))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, services.Sessions, logg))

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", controllers.ListEntries(services.Entries, logg))
			r.With(idempotent).Post("/", controllers.CreateEntry(services.Entries, logg))
			r.Route("/{entryId}", func(r chi.Router) {
				r.Get("/", controllers.GetEntry(services.Entries, logg))
				r.Patch("/", controllers.UpdateEntry(services.Entries, logg))
				r.Delete("/", controllers.DeleteEntry(services.Entries, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
					r.With(idempotent).Post("/approve", controllers.ApproveEntry(services.Entries, logg))
					r.With(idempotent).Post("/reject", controllers.RejectEntry(services.Entries, logg))
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(services.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(services.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(services.Notifications, logg))
		})
	})

	return r
}

// adminSignupEnabled mounts admin registration outside production, or in
// production only when the feature flag is set explicitly.
func adminSignupEnabled(cfg *config.Config) bool {
	return !cfg.App.IsProd() || cfg.FeatureFlags.AdminSignup
}
