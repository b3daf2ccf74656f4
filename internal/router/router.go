package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	_ "facility-portal/docs"
	"facility-portal/internal/adapters/cache/rediscache"
	"facility-portal/internal/domain/formlog"
	"facility-portal/internal/domain/formstats"
	"facility-portal/internal/middleware"
	"facility-portal/internal/platform/config"
	"facility-portal/internal/platform/logger"
	"facility-portal/internal/ports/blobstore"
)

type Options struct {
	Config config.Config
	Logger logger.Logger // nil => Nop

	// Store es obligatorio (ver OpenStore). Si además implementa
	// blobstore.Writer se monta la ingesta POST /formlog.
	Store blobstore.Reader

	// Opcionales.
	Redis    *redis.Client        // con Config.Stats.CacheTTL > 0 activa la caché de resultados
	Registry *prometheus.Registry // nil => registry propio
	Tracer   trace.Tracer         // nil => tracer global de otel
	Now      func() time.Time     // inyectable en tests
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	stats := opts.Config.Stats

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Estadísticas
	statsSvc := formstats.NewService(opts.Store, formstats.Options{
		Location:       stats.Timezone,
		Concurrency:    stats.Concurrency,
		ReadTimeout:    stats.ReadTimeout,
		RequestTimeout: stats.RequestTimeout,
		MaxDays:        stats.MaxDays,
		MaxFiles:       stats.MaxFiles,
		Logger:         log.With(map[string]any{"component": "formstats"}),
		Metrics:        formstats.NewMetrics(reg),
		Tracer:         opts.Tracer,
	})

	var agg formstats.Aggregator = statsSvc
	if opts.Redis != nil && stats.CacheTTL > 0 {
		agg = rediscache.New(statsSvc, opts.Redis, rediscache.Options{
			TTL:      stats.CacheTTL,
			Location: statsSvc.Location(),
			Logger:   log.With(map[string]any{"component": "rediscache"}),
		})
	}

	r.Group(func(gr chi.Router) {
		if stats.RateLimit > 0 {
			gr.Use(httprate.LimitByIP(stats.RateLimit, time.Minute))
		}
		formstats.RegisterRoutes(gr, agg, formstats.HandlerOptions{
			Location: statsSvc.Location(),
			Now:      opts.Now,
		})
	})

	// Ingesta + tail
	writer, _ := opts.Store.(blobstore.Writer)
	logSvc := formlog.NewService(opts.Store, writer, log.With(map[string]any{"component": "formlog"}))
	if shape, err := formlog.ParseShape(opts.Config.FormlogShape); err != nil {
		log.Warn("formlog shape ignored", map[string]any{"error": err.Error()})
	} else if err := logSvc.SetShape(shape); err != nil {
		log.Warn("formlog shape not supported by store, using event files", map[string]any{"shape": string(shape), "error": err.Error()})
	}
	formlog.RegisterRoutes(r, logSvc)

	return r
}
