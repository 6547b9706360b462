package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mindovermyth/sessionhub/api/controllers"
	"github.com/mindovermyth/sessionhub/api/middleware"
	"github.com/mindovermyth/sessionhub/internal/cart"
	checkoutsvc "github.com/mindovermyth/sessionhub/internal/checkout"
	"github.com/mindovermyth/sessionhub/internal/playback"
	"github.com/mindovermyth/sessionhub/internal/realtime"
	"github.com/mindovermyth/sessionhub/internal/theme"
	"github.com/mindovermyth/sessionhub/pkg/config"
	"github.com/mindovermyth/sessionhub/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	CartService     cart.Service
	ThemeService    theme.Service
	PlaybackService playback.Service
	CheckoutService checkoutsvc.Service
	Hub             *realtime.Hub
	Health          map[string]controllers.Pinger
	Registry        *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Health))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Logger))

		r.Get("/ping", controllers.Ping())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.CartService, deps.Logger))
			r.Delete("/", controllers.CartClear(deps.CartService, deps.Logger))
			r.Post("/items", controllers.CartAddItem(deps.CartService, deps.Logger))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartService, deps.Logger))
		})

		r.Route("/theme", func(r chi.Router) {
			r.Get("/", controllers.ThemeGet(deps.ThemeService, deps.Logger))
			r.Put("/", controllers.ThemeSet(deps.ThemeService, deps.Logger))
		})

		r.Route("/playback", func(r chi.Router) {
			r.Get("/", controllers.PlaybackCurrent(deps.PlaybackService, deps.Logger))
			r.Post("/play", controllers.PlaybackPlay(deps.PlaybackService, deps.Logger))
			r.Post("/stop", controllers.PlaybackStop(deps.PlaybackService, deps.Logger))
		})

		r.Post("/checkout/initiate", controllers.CheckoutInitiate(deps.CheckoutService, deps.Logger))

		r.Get("/events", controllers.Events(deps.Hub, deps.Logger))
	})

	return r
}
