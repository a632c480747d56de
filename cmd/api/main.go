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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/vetcare/clinic-api/api/swagger"
	"github.com/vetcare/clinic-api/internal/handler"
	"github.com/vetcare/clinic-api/internal/middleware"
	"github.com/vetcare/clinic-api/internal/repository"
	"github.com/vetcare/clinic-api/internal/router"
	"github.com/vetcare/clinic-api/internal/service"
	"github.com/vetcare/clinic-api/pkg/cache"
	"github.com/vetcare/clinic-api/pkg/config"
	"github.com/vetcare/clinic-api/pkg/database"
	"github.com/vetcare/clinic-api/pkg/logger"
	corsmiddleware "github.com/vetcare/clinic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/vetcare/clinic-api/pkg/middleware/requestid"
	"github.com/vetcare/clinic-api/pkg/storage"
)

// @title VetCare Clinic API
// @version 1.0.0
// @description Availability and scheduling engine for veterinary clinics
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	if cfg.Scheduling.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Scheduling.CacheTTL, logr, true)
		}
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	vetRepo := repository.NewVetRepository(db)
	petRepo := repository.NewPetRepository(db)
	userRepo := repository.NewUserRepository(db)

	availabilitySvc := service.NewAvailabilityService(scheduleRepo, blockRepo, holidayRepo, appointmentRepo, vetRepo, cacheSvc, cfg.Scheduling, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, vetRepo, availabilitySvc, validate, logr)
	blockSvc := service.NewBlockService(blockRepo, availabilitySvc, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, availabilitySvc, validate, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, petRepo, vetRepo, availabilitySvc, metrics, validate, logr)
	vetSvc := service.NewVetService(vetRepo, petRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, 15*time.Minute)
		exportSvc = service.NewExportService(appointmentRepo, vetRepo, petRepo, store, signer, service.ExportQueueConfig{
			Workers:   cfg.Exports.Workers,
			QueueSize: cfg.Exports.QueueSize,
		}, logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		exportSvc.CleanupArtifacts(cfg.Exports.RetentionTTL)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Schedules:    handler.NewScheduleHandler(scheduleSvc),
		Blocks:       handler.NewBlockHandler(blockSvc),
		Holidays:     handler.NewHolidayHandler(holidaySvc),
		Appointments: handler.NewAppointmentHandler(appointmentSvc),
		Vets:         handler.NewVetHandler(vetSvc),
		Metrics:      metricsHandler,
	}
	if exportSvc != nil {
		handlers.Exports = handler.NewExportHandler(exportSvc)
	}
	router.Register(r, cfg.APIPrefix, handlers, authSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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
