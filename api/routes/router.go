package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercadolocal/mercados-backend/api/controllers"
	"github.com/mercadolocal/mercados-backend/api/middleware"
	accountsvc "github.com/mercadolocal/mercados-backend/internal/accounts"
	favoritesvc "github.com/mercadolocal/mercados-backend/internal/favorites"
	itinerarysvc "github.com/mercadolocal/mercados-backend/internal/itineraries"
	marketsvc "github.com/mercadolocal/mercados-backend/internal/markets"
	reviewsvc "github.com/mercadolocal/mercados-backend/internal/reviews"
	vendorsvc "github.com/mercadolocal/mercados-backend/internal/vendors"
	"github.com/mercadolocal/mercados-backend/pkg/config"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/metrics"
	"github.com/mercadolocal/mercados-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          pinger
	Redis       *redis.Client
	Verifier    middleware.TokenVerifier
	Metrics     *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Accounts    accountsvc.Service
	Markets     marketsvc.Service
	Vendors     vendorsvc.Service
	Reviews     reviewsvc.Service
	Itineraries itinerarysvc.Service
	Favorites   favoritesvc.Service
}

// NewRouter assembles the HTTP surface: public reads behind the anonymous
// key, mutations behind token introspection, signup rate limited.
func NewRouter(deps Dependencies) http.Handler {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	var cache pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.Health())
		r.Get("/ready", controllers.Ready(deps.DB, cache, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	signupPolicy := middleware.SignupPolicy{}
	if deps.Config != nil {
		signupPolicy = middleware.SignupPolicyFromConfig(deps.Config.AuthRateLimit)
	}
	r.Route("/auth", func(r chi.Router) {
		signup := controllers.Signup(deps.Accounts, logg)
		if deps.Redis != nil {
			r.With(middleware.SignupRateLimit(signupPolicy, deps.Redis, logg)).
				Post("/signup", signup)
			return
		}
		r.Post("/signup", signup)
	})

	// Public catalog reads. The anonymous publishable key satisfies the
	// bearer requirement without introspection.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicKey(logg))
		r.Get("/markets", controllers.ListMarkets(deps.Markets, logg))
		r.Get("/markets/{id}", controllers.GetMarket(deps.Markets, logg))
		r.Get("/vendors", controllers.ListVendors(deps.Vendors, logg))
		r.Get("/vendors/{id}", controllers.GetVendor(deps.Vendors, logg))
		r.Get("/reviews", controllers.ListReviews(deps.Reviews, logg))
		r.Get("/itineraries", controllers.ListItineraries(deps.Itineraries, logg))
	})

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Verifier, logg))

		r.Get("/markets/my", controllers.ListMyMarkets(deps.Markets, logg))
		r.Post("/markets", controllers.CreateMarket(deps.Markets, logg))
		r.Put("/markets/{id}", controllers.UpdateMarket(deps.Markets, logg))
		r.Delete("/markets/{id}", controllers.DeleteMarket(deps.Markets, logg))

		r.Post("/vendors", controllers.CreateVendor(deps.Vendors, logg))
		r.Put("/vendors/{id}", controllers.UpdateVendor(deps.Vendors, logg))
		r.Delete("/vendors/{id}", controllers.DeleteVendor(deps.Vendors, logg))

		r.Post("/reviews", controllers.CreateReview(deps.Reviews, logg))
		r.Put("/reviews/{id}", controllers.UpdateReview(deps.Reviews, logg))
		r.Post("/reviews/{id}/helpful", controllers.ToggleReviewHelpful(deps.Reviews, logg))
		r.Delete("/reviews/{id}", controllers.DeleteReview(deps.Reviews, logg))

		r.Post("/itineraries", controllers.CreateItinerary(deps.Itineraries, logg))
		r.Put("/itineraries/{id}", controllers.UpdateItinerary(deps.Itineraries, logg))
		r.Delete("/itineraries/{id}", controllers.DeleteItinerary(deps.Itineraries, logg))

		r.Get("/favorites", controllers.GetFavorites(deps.Favorites, logg))
		r.Post("/favorites", controllers.AddFavorite(deps.Favorites, logg))
		r.Delete("/favorites/{type}/{id}", controllers.RemoveFavorite(deps.Favorites, logg))

		r.Get("/profile", controllers.GetProfile(logg))
		r.Put("/profile", controllers.UpdateProfile(deps.Accounts, logg))
	})

	return r
}
