package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lifeguard-api/api/swagger"
	"github.com/noah-isme/lifeguard-api/internal/handler"
	"github.com/noah-isme/lifeguard-api/internal/middleware"
	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	"github.com/noah-isme/lifeguard-api/internal/repository"
	"github.com/noah-isme/lifeguard-api/internal/service"
	"github.com/noah-isme/lifeguard-api/pkg/cache"
	"github.com/noah-isme/lifeguard-api/pkg/config"
	"github.com/noah-isme/lifeguard-api/pkg/database"
	"github.com/noah-isme/lifeguard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lifeguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lifeguard-api/pkg/middleware/requestid"
)

// @title Lifeguard Certification API
// @version 1.0.0
// @description Certification lifecycle, recycling alerts and trainer rosters for lifeguards.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, alerts cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app := buildApp(cfg, db, redisClient, logr)
	app.dispatcher.Start(context.Background())

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	app.dispatcher.Stop()
}

type application struct {
	metrics        *service.MetricsService
	tokens         *service.TokenService
	dispatcher     *service.RelationshipDispatcher
	recycling      *handler.RecyclingHandler
	formations     *handler.FormationHandler
	trainerStudent *handler.TrainerStudentHandler
	health         *handler.MetricsHandler
	logger         *zap.Logger
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()

	catalog := recycling.DefaultCatalogWithReminder(cfg.Recycling.ReminderMonths)
	evaluator := recycling.NewEvaluator(catalog)

	formationRepo := repository.NewFormationRepository(db)
	linkRepo := repository.NewTrainerStudentRepository(db)
	directoryRepo := repository.NewTrainerDirectoryRepository(db)

	checks := map[string]handler.CheckFunc{
		"database": db.PingContext,
	}

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, "lifeguard", logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Alerts.CacheTTL, logr, cfg.Alerts.CacheEnabled)
		checks["redis"] = cacheRepo.Ping
	}

	recyclingSvc := service.NewRecyclingService(evaluator, formationRepo, cacheSvc, metrics, validate, logr, service.RecyclingConfig{
		Location: cfg.Recycling.Location(),
		CacheTTL: cfg.Alerts.CacheTTL,
	})

	syncSvc := service.NewRelationshipSyncService(directoryRepo, linkRepo, catalog, cfg.Sync.Timeout, metrics, logr)
	dispatcher := service.NewRelationshipDispatcher(syncSvc, service.SyncDispatcherConfig{
		Workers:    cfg.Sync.Workers,
		QueueSize:  cfg.Sync.QueueSize,
		MaxRetries: cfg.Sync.MaxRetries,
		RetryDelay: cfg.Sync.RetryDelay,
	}, metrics, logr)
	formationSvc := service.NewFormationService(formationRepo, recyclingSvc, dispatcher, validate, logr)

	loader := service.NewHistoryLoader(formationRepo, service.HistoryBatchConfig{
		BatchSize:    cfg.Classifier.BatchSize,
		Concurrency:  cfg.Classifier.Concurrency,
		BatchTimeout: cfg.Classifier.BatchTimeout,
	}, metrics, logr)
	classificationSvc := service.NewClassificationService(linkRepo, formationRepo, loader, recycling.NewClassifier(catalog), logr)
	trainerStudentSvc := service.NewTrainerStudentService(linkRepo, formationRepo, loader, recyclingSvc, classificationSvc, logr)

	return &application{
		metrics:        metrics,
		tokens:         service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience}),
		dispatcher:     dispatcher,
		recycling:      handler.NewRecyclingHandler(recyclingSvc),
		formations:     handler.NewFormationHandler(formationSvc),
		trainerStudent: handler.NewTrainerStudentHandler(trainerStudentSvc, classificationSvc),
		health:         handler.NewMetricsHandler(metrics, checks),
		logger:         logr,
	}
}

func (a *application) router(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", a.health.Health)
	r.GET("/ready", a.health.Ready)
	r.GET("/metrics", a.health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/certifications", a.recycling.Certifications)
	api.POST("/recycling/evaluate", a.recycling.Evaluate)

	me := api.Group("/me", middleware.JWT(a.tokens))
	me.GET("/formations", a.formations.List)
	me.POST("/formations", a.formations.Create)
	me.PUT("/formations/:id", a.formations.Update)
	me.DELETE("/formations/:id", a.formations.Delete)
	me.GET("/recycling/alerts", a.recycling.Alerts)

	trainer := api.Group("/trainer", middleware.JWT(a.tokens), middleware.RequireRoles(models.RoleTrainer, models.RoleAdmin))
	trainer.GET("/students", a.trainerStudent.List)
	trainer.GET("/students/brevets", a.trainerStudent.Brevets)
	trainer.GET("/students/export", a.trainerStudent.Export)
	trainer.GET("/students/classification", a.trainerStudent.Classification)
	trainer.GET("/students/:studentId/formations", a.trainerStudent.StudentFormations)

	return r
}
