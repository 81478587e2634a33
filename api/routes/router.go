package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quayline/stockdesk-backend/api/controllers"
	"github.com/quayline/stockdesk-backend/api/middleware"
	"github.com/quayline/stockdesk-backend/internal/drafts"
	"github.com/quayline/stockdesk-backend/internal/stockview"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/config"
	"github.com/quayline/stockdesk-backend/pkg/draftdb"
	"github.com/quayline/stockdesk-backend/pkg/logger"
	"github.com/quayline/stockdesk-backend/pkg/metrics"
	pkgredis "github.com/quayline/stockdesk-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DraftDB      draftdb.Pinger
	RedisPinger  pkgredis.Pinger
	Idempotency  pkgredis.IdempotencyStore
	Upstream     *upstream.Client
	StockService stockview.Service
	DraftService drafts.Service
	Metrics      *metrics.HTTPMetrics
	Registry     *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DraftDB, deps.RedisPinger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant(deps.Upstream, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/stock", controllers.StockList(deps.StockService, logg))
		r.Post("/stock/fields", controllers.StockUpdateField(deps.StockService, logg))
		r.Post("/stock/relocate", controllers.StockRelocate(deps.Upstream, logg))
		r.Get("/products", controllers.ProductList(deps.Upstream, logg))

		r.Route("/drafts", func(r chi.Router) {
			r.Get("/outgoing/delivery-note", controllers.DraftDeliveryNote(deps.DraftService, logg))
			r.Get("/{kind}", controllers.DraftList(deps.DraftService, logg))
			r.Post("/{kind}/lines", controllers.DraftAddLine(deps.DraftService, logg))
			r.Delete("/{kind}/lines/{index}", controllers.DraftRemoveLine(deps.DraftService, logg))
			r.Post("/{kind}/confirm", controllers.DraftConfirm(deps.DraftService, logg))
		})
	})

	return r
}
