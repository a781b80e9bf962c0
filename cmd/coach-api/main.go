package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fitcoach/fitcoach-api/api/swagger"
	"github.com/fitcoach/fitcoach-api/internal/handler"
	"github.com/fitcoach/fitcoach-api/internal/middleware"
	"github.com/fitcoach/fitcoach-api/internal/models"
	"github.com/fitcoach/fitcoach-api/internal/repository"
	"github.com/fitcoach/fitcoach-api/internal/service"
	"github.com/fitcoach/fitcoach-api/pkg/cache"
	"github.com/fitcoach/fitcoach-api/pkg/config"
	"github.com/fitcoach/fitcoach-api/pkg/database"
	"github.com/fitcoach/fitcoach-api/pkg/jobs"
	"github.com/fitcoach/fitcoach-api/pkg/logger"
	corsmiddleware "github.com/fitcoach/fitcoach-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fitcoach/fitcoach-api/pkg/middleware/requestid"
	"github.com/fitcoach/fitcoach-api/pkg/storage"
)

// @title FitCoach API
// @version 1.0.0
// @description Schedule, check-in and nutrition tracking backend for the FitCoach mobile apps
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	weightLogRepo := repository.NewWeightLogRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	mealRepo := repository.NewMealRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "fitcoach-api",
	})
	classSvc := service.NewClassService(classRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, classRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(enrollmentRepo, classRepo, logr)
	weightSvc := service.NewWeightLogService(weightLogRepo, validate, logr, metricsSvc, cfg.Limits.MaxWeightLogsPerWeek)
	checkInSvc := service.NewCheckInService(checkInRepo, classRepo, validate, logr, metricsSvc)
	dashboardSvc := service.NewDashboardService(checkInRepo, weightLogRepo, enrollmentRepo, weightSvc, scheduleSvc, cacheSvc, logr, cfg.Dashboard.CacheTTL)
	exportSvc := service.NewExportService(weightLogRepo, checkInRepo, enrollmentRepo, logr)

	mealStore, err := storage.NewLocalStorage(cfg.Meals.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init meal storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Meals.SignedURLSecret, cfg.Meals.SignedURLTTL)

	aiOpts := []option.RequestOption{option.WithAPIKey(cfg.Meals.APIKey)}
	if cfg.Meals.APIBaseURL != "" {
		aiOpts = append(aiOpts, option.WithBaseURL(cfg.Meals.APIBaseURL))
	}
	aiClient := openai.NewClient(aiOpts...)

	mealSvc := service.NewMealService(mealRepo, mealStore, signer, aiClient, cfg.Meals.Model, cfg.Meals.AnalysisEnabled, validate, logr, metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mealQueue := jobs.NewQueue("meal-analysis", mealSvc.HandleAnalysisJob, jobs.QueueConfig{
		Workers:    cfg.Meals.WorkerConcurrency,
		MaxRetries: cfg.Meals.WorkerRetries,
		Logger:     logr,
	})
	mealQueue.Start(ctx)
	defer mealQueue.Stop()
	mealSvc.AttachQueue(mealQueue)

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	weightHandler := handler.NewWeightLogHandler(weightSvc, dashboardSvc)
	checkInHandler := handler.NewCheckInHandler(checkInSvc, dashboardSvc)
	mealHandler := handler.NewMealHandler(mealSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	// Photo streaming authenticates via the signed token itself.
	api.GET("/meals/photos/:token", mealHandler.Photo)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleTrainer, models.RoleManager)

	classes := protected.Group("/classes")
	classes.GET("", classHandler.List)
	classes.GET("/:id", classHandler.Get)
	classes.POST("", staff, classHandler.Create)
	classes.PUT("/:id", staff, classHandler.Update)
	classes.PUT("/:id/status", staff, classHandler.UpdateStatus)
	classes.DELETE("/:id", middleware.RequireRoles(models.RoleManager), classHandler.Delete)
	classes.GET("/:id/roster", staff, enrollmentHandler.Roster)
	classes.GET("/:id/roster/export", staff, exportHandler.ClassRoster)

	enrollments := protected.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.POST("", enrollmentHandler.Create)
	enrollments.PUT("/:id/pause", enrollmentHandler.Pause)
	enrollments.PUT("/:id/resume", enrollmentHandler.Resume)
	enrollments.DELETE("/:id", enrollmentHandler.Cancel)

	protected.GET("/schedule", scheduleHandler.Calendar)
	protected.GET("/schedule/today", scheduleHandler.Today)

	weightLogs := protected.Group("/weight-logs")
	weightLogs.GET("", weightHandler.List)
	weightLogs.GET("/quota", weightHandler.Quota)
	weightLogs.POST("", weightHandler.Create)

	checkIns := protected.Group("/check-ins")
	checkIns.GET("", checkInHandler.List)
	checkIns.POST("", checkInHandler.Create)

	meals := protected.Group("/meals")
	meals.GET("", mealHandler.List)
	meals.GET("/:id", mealHandler.Get)
	meals.POST("", mealHandler.Create)

	if cfg.Dashboard.Enabled {
		protected.GET("/dashboard", dashboardHandler.Summary)
	}

	exports := protected.Group("/exports")
	exports.GET("/weight-history", exportHandler.WeightHistory)
	exports.GET("/check-ins", exportHandler.CheckInHistory)

	protected.GET("/ops/metrics", middleware.RequireRoles(models.RoleManager), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
