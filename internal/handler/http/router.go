package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/page"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ServiceName labels metrics and spans.
const ServiceName = "storefront"

// RouterConfig holds transport settings.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
	// AuthRateLimit bounds sign-up and sign-in attempts per client IP and
	// second. Zero disables the limit.
	AuthRateLimit float64
	AuthBurst     int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	deps page.Deps,
	sessions *session.Manager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	h := NewHandler(deps, sessions, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Authenticate(sessions.Validate))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthBurst, logger))
			r.Post("/sign-up", h.SignUp)
			r.Post("/sign-in", h.SignIn)
			r.Post("/sign-out", h.SignOut)
		})

		r.Route("/shop", func(r chi.Router) {
			r.Get("/", h.Shop)
			r.Get("/new-arrivals", h.NewArrivals)
			r.Get("/best-sellers", h.BestSellers)
			r.Get("/{productId}", h.Product)
			r.Get("/{productId}/query-link", h.QueryLink)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart)
			r.Post("/items", h.AddToCart)
			r.Put("/items/{lineId}", h.SetQuantity)
			r.Delete("/items/{lineId}", h.RemoveLine)
		})

		// {id} is a product id for toggle and a wishlist entry id otherwise.
		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.Wishlist)
			r.Post("/{id}/toggle", h.ToggleWishlist)
			r.Post("/{id}/move-to-cart", h.MoveToCart)
			r.Delete("/{id}", h.RemoveWishlistEntry)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notifications)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})

		r.Get("/profile", h.Profile)
		r.Get("/session", h.Session)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/notifications", h.SendNotification)
		})
	})

	return r
}
