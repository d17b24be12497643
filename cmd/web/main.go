package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/noah-isme/thesurve-web/api/swagger"
	"github.com/noah-isme/thesurve-web/internal/handler"
	internalmiddleware "github.com/noah-isme/thesurve-web/internal/middleware"
	"github.com/noah-isme/thesurve-web/internal/repository"
	"github.com/noah-isme/thesurve-web/internal/service"
	"github.com/noah-isme/thesurve-web/pkg/cache"
	"github.com/noah-isme/thesurve-web/pkg/config"
	"github.com/noah-isme/thesurve-web/pkg/directus"
	"github.com/noah-isme/thesurve-web/pkg/events"
	"github.com/noah-isme/thesurve-web/pkg/jobs"
	"github.com/noah-isme/thesurve-web/pkg/logger"
	corsmiddleware "github.com/noah-isme/thesurve-web/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/thesurve-web/pkg/middleware/requestid"
	"github.com/noah-isme/thesurve-web/pkg/tracing"
	"github.com/noah-isme/thesurve-web/web"
)

// @title TheSurve API
// @version 1.0.0
// @description Read-only listing API and autocomplete for TheSurve survey postings.
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to init tracing", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()

	api, err := directus.New(directus.Config{
		BaseURL:    cfg.API.URL,
		Token:      cfg.API.Token,
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		RateLimit:  cfg.API.RateLimit,
		RateBurst:  cfg.API.RateBurst,
		Transport:  otelhttp.NewTransport(http.DefaultTransport),
		Observer:   metricsSvc.ObserveUpstream,
	})
	if err != nil {
		logr.Fatal("failed to init data API client", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(cfg.Cache, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "thesurve:")
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	postingRepo := repository.NewPostingRepository(api, cfg.API.PostingsCollection)
	reportRepo := repository.NewReportRepository(api, cfg.API.ReportsCollection)

	listingPolicy := service.QueryPolicy{MinLength: cfg.Feed.MinQueryLength, Debounce: cfg.Feed.Debounce, AllowEmpty: true}
	suggestPolicy := service.QueryPolicy{MinLength: cfg.Feed.MinQueryLength, Debounce: cfg.Feed.Debounce}
	validate := service.NewValidator()

	fetcher := service.NewListingFetcher(postingRepo, cfg.Feed.PageSize, listingPolicy, logr)
	suggestionSvc := service.NewSuggestionService(postingRepo, cacheSvc, suggestPolicy, cfg.Feed.SuggestionsLimit, logr)
	postingSvc := service.NewPostingService(postingRepo, cacheSvc, validate, cfg.Feed.RelatedLimit, logr)
	reportSvc := service.NewReportService(reportRepo, validate, logr)
	feedSvc := service.NewFeedService(fetcher, suggestionSvc, suggestPolicy, metricsSvc, logr)

	var publisher service.EventPublisher
	if cfg.Analytics.Enabled {
		producer := events.NewProducer(cfg.Analytics.Brokers, cfg.Analytics.Topic)
		defer producer.Close() //nolint:errcheck
		publisher = producer
	}
	analyticsSvc := service.NewAnalyticsService(publisher, jobs.QueueConfig{
		Workers:    cfg.Analytics.Workers,
		MaxRetries: 2,
		RetryDelay: time.Second,
	}, metricsSvc, logr)
	analyticsSvc.Start(ctx)

	tmpl, err := web.Templates(template.FuncMap{})
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	pages := handler.NewPagesHandler(fetcher, postingSvc, reportSvc, analyticsSvc, cfg.BaseURL, logr)
	apiHandler := handler.NewAPIHandler(fetcher, postingSvc, suggestionSvc, metricsSvc)
	feedHandler := handler.NewFeedHandler(feedSvc, metricsSvc, cfg.CORS.AllowedOrigins, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc,
		handler.ReadinessCheck{Name: "data_api", Probe: api.Ping},
		handler.ReadinessCheck{Name: "cache", Probe: cacheRepo.Ping},
	)

	submitLimiter := internalmiddleware.NewRateLimiter(cfg.Submissions.RateLimit, cfg.Submissions.RateBurst, logr)
	submitLimiter.StartCleanup(time.Minute, ctx.Done())

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.Recovery(logr, "error.html"))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	r.GET("/", pages.Home)
	r.GET("/post", pages.NewPosting)
	r.POST("/post", submitLimiter.Middleware(pages.RateLimited), pages.CreatePosting)
	r.GET("/postings/:id", pages.Posting)
	r.GET("/postings/:id/report", pages.ReportForm)
	r.POST("/postings/:id/report", submitLimiter.Middleware(pages.RateLimited), pages.SubmitReport)
	r.GET("/ws/feed", feedHandler.Serve)

	apiGroup := r.Group("/api")
	apiGroup.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	apiGroup.GET("/postings", apiHandler.ListPostings)
	apiGroup.GET("/postings/:id", apiHandler.GetPosting)
	apiGroup.GET("/suggestions/:field", apiHandler.Suggestions)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.NoRoute(pages.NotFound)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(r, "thesurve-web"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	analyticsSvc.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logr.Warn("tracing shutdown failed", zap.Error(err))
	}
}
