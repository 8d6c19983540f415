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
	"go.uber.org/zap"

	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/di"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/domain"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/dto"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/service"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/internal/worker"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/config"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/database"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/kafka"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/logger"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/middleware"
	pkgredis "github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/redis"
	"github.com/ReservacionDirecta/clasedesurf.com-sub005/pkg/telemetry"
)

const serviceName = "class-service"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Class Service...", zap.String("version", cfg.App.Version))

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Telemetry initialization failed, continuing without export", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
		ServiceName:     serviceName,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected", zap.Int32("max_conns", dbCfg.MaxConns))

	// Initialize Redis connection
	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
		EnableTracing: cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	// Initialize Kafka producer for the outbox relay
	var producer *kafka.Producer
	if cfg.Outbox.Enabled {
		producerCfg := kafka.DefaultProducerConfig()
		producerCfg.Brokers = cfg.Kafka.Brokers
		if cfg.Kafka.ClientID != "" {
			producerCfg.ClientID = cfg.Kafka.ClientID
		}
		producer, err = kafka.NewProducer(ctx, producerCfg)
		if err != nil {
			appLog.Fatal("Kafka connection failed", zap.Error(err))
		}
		defer producer.Close()
		appLog.Info("Kafka producer connected", zap.Strings("brokers", producerCfg.Brokers))
	}

	if err := dto.RegisterValidators(); err != nil {
		appLog.Fatal("Failed to register validators", zap.Error(err))
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:       db,
		Redis:    redisClient,
		Producer: producer,
		ServiceConfig: &service.Config{
			Location: cfg.Location(),
		},
		OutboxConfig: &worker.OutboxWorkerConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			RetentionPeriod: cfg.Outbox.RetentionPeriod,
		},
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if container.OutboxWorker != nil {
		if err := container.OutboxWorker.Start(workerCtx); err != nil {
			appLog.Fatal("Failed to start outbox worker", zap.Error(err))
		}
	}

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(serviceName, telemetry.WithSkipPaths("/health", "/ready")))
	router.Use(middleware.Logger(appLog))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	jwtCfg := &middleware.JWTConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}
	optionalJWT := &middleware.JWTConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Optional: true}

	idempotencyCfg := middleware.DefaultIdempotencyConfig(redisClient)
	idempotencyCfg.TTL = cfg.Server.IdempotencyTTL
	idempotent := middleware.IdempotencyMiddleware(idempotencyCfg)

	managers := middleware.RequireRole(domain.RoleAdmin, domain.RoleSchoolAdmin)

	v1 := router.Group("/api/v1")
	{
		// Public catalogue and calendar
		public := v1.Group("/classes", middleware.JWTMiddleware(optionalJWT))
		{
			public.GET("", container.ClassHandler.ListClasses)
			public.GET("/:id", container.ClassHandler.GetClass)
			public.GET("/:id/calendar", container.CalendarHandler.GetCalendar)
		}

		// Class management
		classes := v1.Group("/classes", middleware.JWTMiddleware(jwtCfg), managers)
		{
			classes.POST("/bulk", idempotent, container.ClassHandler.CreateRecurringClass)
			classes.POST("/:id/sessions/bulk", idempotent, container.ClassHandler.AppendOccurrences)
			classes.PUT("/:id", container.ClassHandler.UpdateClass)
			classes.DELETE("/:id", container.ClassHandler.ArchiveClass)
			classes.POST("/:id/availability", container.ClassHandler.OverrideSlot)
		}

		reservations := v1.Group("/reservations", middleware.JWTMiddleware(jwtCfg))
		{
			reservations.POST("", idempotent, container.ReservationHandler.CreateReservation)
			reservations.GET("", managers, container.ReservationHandler.ListReservations)
			reservations.GET("/all", middleware.RequireRole(domain.RoleAdmin), container.ReservationHandler.ListReservations)
			reservations.GET("/me", container.ReservationHandler.ListMyReservations)
			reservations.GET("/:id", container.ReservationHandler.GetReservation)
			reservations.POST("/:id/cancel", container.ReservationHandler.CancelReservation)
			reservations.PATCH("/:id/status", managers, container.ReservationHandler.UpdateReservationStatus)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLog.Info("Class Service listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}

	if container.OutboxWorker != nil {
		container.OutboxWorker.Stop()
	}
	stopWorkers()

	appLog.Info("Server exited gracefully")
}
