package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/youscore-api/api/swagger"
	"github.com/noah-isme/youscore-api/internal/extraction"
	"github.com/noah-isme/youscore-api/internal/handler"
	"github.com/noah-isme/youscore-api/internal/middleware"
	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/repository"
	"github.com/noah-isme/youscore-api/internal/service"
	"github.com/noah-isme/youscore-api/pkg/cache"
	"github.com/noah-isme/youscore-api/pkg/config"
	"github.com/noah-isme/youscore-api/pkg/database"
	"github.com/noah-isme/youscore-api/pkg/logger"
	reqidmiddleware "github.com/noah-isme/youscore-api/pkg/middleware/requestid"
	"github.com/noah-isme/youscore-api/pkg/storage"
)

// @title YouScore API
// @version 1.0.0
// @description Personal academic score tracking with AI-assisted extraction
// @BasePath /api/v1
// @schemes http
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The Redis mirror is an availability layer, not a dependency.
		logr.Warn("redis unavailable, mirror disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, metricsSvc, logr)
	defer cacheRepo.Close() //nolint:errcheck

	authSvc := service.NewAuthService(userRepo, cacheRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "youscore-api",
		Audience:           []string{"youscore"},
	})

	settingsDefaults := models.DefaultSettings()
	if cfg.Scoring.DefaultMaxScore > 0 {
		settingsDefaults.DefaultMaxScore = cfg.Scoring.DefaultMaxScore
	}
	if cfg.Scoring.SemestersPerYear > 0 {
		settingsDefaults.SemestersPerYear = cfg.Scoring.SemestersPerYear
	}

	gateway := extraction.NewGateway(cfg.Gemini, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, cacheRepo, settingsDefaults, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, cacheRepo, gateway, settingsSvc, validate, logr)
	summarySvc := service.NewSummaryService(scoreSvc, settingsSvc, cacheRepo, logr)
	profileSvc := service.NewProfileService(userRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc, metricsSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc := service.NewReportService(reportRepo, summarySvc, store, signer, service.ReportQueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
		}, logr)
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
		reportHandler = handler.NewReportHandler(reportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	{
		secured.POST("/auth/logout", authHandler.Logout)
		secured.PUT("/auth/password", authHandler.ChangePassword)
		secured.GET("/auth/me", authHandler.Me)
		secured.DELETE("/auth/me", authHandler.DeleteAccount)

		secured.GET("/scores", scoreHandler.List)
		secured.POST("/scores", scoreHandler.Create)
		secured.POST("/scores/extract", scoreHandler.Extract)
		secured.POST("/scores/extract/bulk", scoreHandler.ExtractBulk)
		secured.POST("/scores/extract/image", scoreHandler.ExtractImage)
		secured.PATCH("/scores/:id", scoreHandler.Update)
		secured.DELETE("/scores/:id", scoreHandler.Delete)
		secured.POST("/scores/batch-delete", scoreHandler.BatchDelete)
		secured.DELETE("/scores", scoreHandler.DeleteAll)

		secured.GET("/summary", summaryHandler.Get)

		secured.GET("/settings", settingsHandler.Get)
		secured.PUT("/settings", settingsHandler.Update)
		secured.DELETE("/settings", settingsHandler.Reset)

		secured.GET("/profile", profileHandler.Get)
		secured.PUT("/profile", profileHandler.Update)

		if reportHandler != nil {
			secured.POST("/reports", reportHandler.Create)
			secured.GET("/reports", reportHandler.List)
			secured.GET("/reports/:id", reportHandler.Get)
			secured.POST("/reports/:id/link", reportHandler.Link)
		}
	}

	if reportHandler != nil {
		// Download is authorized by the signed token, not a JWT.
		api.GET("/reports/download", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
