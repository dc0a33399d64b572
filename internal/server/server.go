// Package server assembles the HTTP engine: middleware, API routes,
// operational endpoints and the web application's routing table.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prospectbingo/bingo/backend/go-services/handlers"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/handler"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/repository"
	"github.com/prospectbingo/bingo/backend/go-services/internal/bingo/service"
	"github.com/prospectbingo/bingo/backend/go-services/internal/cache"
	"github.com/prospectbingo/bingo/backend/go-services/internal/config"
	"github.com/prospectbingo/bingo/backend/go-services/internal/webapp"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/logger"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/metrics"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deps are the optional external connections. Nil Mongo selects the
// in-memory store, nil Redis disables caching and the shared rate limiter,
// and nil Registry gets a fresh registry with the Go runtime collectors.
type Deps struct {
	Mongo    *mongo.Client
	Redis    *redis.Client
	Registry *prometheus.Registry
}

type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	Criteria *service.Service[bingo.CriteriaArray]
	Cards    *service.CardService
	started  time.Time
}

// New wires stores, services and routes.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Server, error) {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	criteriaRepo, cardRepo, err := stores(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		Criteria: service.NewCriteriaService(criteriaRepo),
		Cards:    service.NewCardService(cardRepo),
		started:  time.Now(),
	}

	r := s.engine
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger.L()), middleware.Metrics())
	r.Use(middleware.CORS(strings.Split(cfg.Server.AllowedOrigin, ",")...))

	handlers.RegisterHealth(r, s.started, readiness(deps))
	handlers.RegisterSwagger(r)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && deps.Redis != nil {
			api.Use(middleware.RedisRateLimitMiddleware(deps.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handler.RegisterResourceRoutes(api, "/criteria", s.Criteria)
	handler.RegisterCardRoutes(api, "/cards", s.Cards)

	web, err := webapp.NewRouter(cfg.Server.BasePath, webapp.DefaultRoutes(),
		webapp.WithAssets(cfg.Web.AssetURL, cfg.Web.DistDir))
	if err != nil {
		return nil, err
	}
	web.Register(r)

	return s, nil
}

func stores(ctx context.Context, cfg *config.Config, deps Deps) (repository.Repository[bingo.CriteriaArray], repository.Repository[bingo.BingoCard], error) {
	var (
		criteria repository.Repository[bingo.CriteriaArray]
		cards    repository.Repository[bingo.BingoCard]
	)
	if deps.Mongo != nil {
		db := deps.Mongo.Database(cfg.MongoDB.Database)
		mc := repository.NewMongoRepo[bingo.CriteriaArray](db.Collection(repository.CollectionName(bingo.KindCriteria)))
		mb := repository.NewMongoRepo[bingo.BingoCard](db.Collection(repository.CollectionName(bingo.KindBingoCard)))
		if err := mc.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		if err := mb.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		criteria, cards = mc, mb
		logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
	} else {
		criteria = repository.NewMemoryRepo[bingo.CriteriaArray]()
		cards = repository.NewMemoryRepo[bingo.BingoCard]()
		logger.Warnf("using in-memory store; data is lost on restart")
	}
	if deps.Redis != nil {
		criteria = cache.NewRedisRepository(criteria, deps.Redis, "", cfg.Redis.CacheTTL)
		cards = cache.NewRedisRepository(cards, deps.Redis, "", cfg.Redis.CacheTTL)
	}
	return criteria, cards, nil
}

func readiness(deps Deps) map[string]handlers.ReadinessCheck {
	checks := map[string]handlers.ReadinessCheck{}
	if deps.Mongo != nil {
		checks["mongodb"] = func(ctx context.Context) error { return deps.Mongo.Ping(ctx, nil) }
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}
	return checks
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down within the configured
// grace period.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
