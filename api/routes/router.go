package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrealas/orderdesk/api/controllers"
	"github.com/entrealas/orderdesk/api/middleware"
	"github.com/entrealas/orderdesk/internal/catalog"
	"github.com/entrealas/orderdesk/internal/pricing"
	"github.com/entrealas/orderdesk/pkg/config"
	"github.com/entrealas/orderdesk/pkg/logger"
)

// Deps carries the services mounted on the router. Orders, DB and Redis are
// nil when the deployment runs without them.
type Deps struct {
	Catalog  *catalog.Catalog
	Rules    *pricing.Rules
	Sessions controllers.SessionStore
	Orders   controllers.OrderReader
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Shop.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", controllers.CatalogList(deps.Catalog))
		r.Get("/sauces", controllers.SauceList(deps.Rules))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", controllers.SessionCreate(deps.Sessions, logg))
			r.Get("/{sessionId}", controllers.SessionGet(deps.Sessions, logg))
			r.Delete("/{sessionId}", controllers.SessionDelete(deps.Sessions, logg))
			r.Post("/{sessionId}/actions", controllers.SessionAction(deps.Sessions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/stats", controllers.OrderStats(deps.Orders, logg))
			r.Get("/{code}", controllers.OrderByCode(deps.Orders, logg))
		})
	})

	return r
}
