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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-roster-api/api/swagger"
	"github.com/noah-isme/school-roster-api/internal/handler"
	"github.com/noah-isme/school-roster-api/internal/middleware"
	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/internal/repository"
	"github.com/noah-isme/school-roster-api/internal/service"
	"github.com/noah-isme/school-roster-api/pkg/cache"
	"github.com/noah-isme/school-roster-api/pkg/config"
	"github.com/noah-isme/school-roster-api/pkg/database"
	"github.com/noah-isme/school-roster-api/pkg/export"
	"github.com/noah-isme/school-roster-api/pkg/jobs"
	"github.com/noah-isme/school-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-roster-api/pkg/middleware/requestid"
)

// @title School Roster API
// @version 1.0.0
// @description Families, duplicates, class rosters and attendance for a two-program school.
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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving without cache", zap.Error(err))
			redisClient = nil
		}
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()
	cacheSvc := service.NewCacheService(
		cacheRepo,
		metricsSvc,
		cfg.Cache.TTL,
		logr,
		cfg.Cache.Enabled && redisClient != nil,
	)
	invalidationRetries := jobs.NewQueue[string]("cache-invalidation", cacheSvc.RetryInvalidation, jobs.Config{
		Workers:    1,
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	invalidationRetries.Start(context.Background())
	defer invalidationRetries.Stop()
	cacheSvc.UseRetryQueue(invalidationRetries)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	personSvc := service.NewPersonService(
		repository.NewPersonRepository(db),
		repository.NewDuplicateRepository(db),
		cacheSvc, metricsSvc, validate, logr,
		service.PersonServiceConfig{RecentWindow: cfg.Duplicates.RecentWindow},
	)
	familySvc := service.NewFamilyService(repository.NewFamilyRepository(db), cacheSvc, export.NewRenderer(), validate, logr)
	attendanceSvc := service.NewAttendanceService(repository.NewAttendanceRepository(db), cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(
		repository.NewClassEnrollmentRepository(db),
		cacheSvc, metricsSvc, validate, logr,
		service.EnrollmentConfig{TxTimeout: cfg.Enrollment.TxTimeout},
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	checks := []handler.HealthCheck{{Name: "postgres", Required: true, Probe: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks...)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix, middleware.JWT(authSvc)), routeHandlers{
		persons:     handler.NewPersonHandler(personSvc),
		duplicates:  handler.NewDuplicateHandler(personSvc),
		families:    handler.NewFamilyHandler(familySvc),
		attendance:  handler.NewAttendanceHandler(attendanceSvc),
		enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		metrics:     metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type routeHandlers struct {
	persons     *handler.PersonHandler
	duplicates  *handler.DuplicateHandler
	families    *handler.FamilyHandler
	attendance  *handler.AttendanceHandler
	enrollments *handler.EnrollmentHandler
	metrics     *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers) {
	office := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	everyone := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	admin := middleware.RequireRoles(models.RoleAdmin)

	persons := api.Group("/persons", office)
	persons.GET("/lookup", h.persons.Lookup)
	persons.GET("/:id", h.persons.Get)
	persons.GET("/:id/guardians", h.persons.Guardians)
	persons.GET("/:id/dependents", h.persons.Dependents)
	persons.GET("/:id/siblings", h.persons.Siblings)
	persons.POST("/:id/guardians", h.persons.LinkGuardian)
	api.DELETE("/guardians/:id", office, h.persons.DeactivateGuardian)
	api.POST("/siblings", office, h.persons.LinkSiblings)

	api.GET("/duplicates", admin, h.duplicates.List)
	api.POST("/duplicates/resolve", admin, h.duplicates.Resolve)

	api.GET("/families", office, h.families.List)
	api.GET("/families/export", office, h.families.Export)

	attendance := api.Group("/attendance", everyone)
	attendance.GET("/stats", h.attendance.Stats)
	attendance.GET("/trend", h.attendance.Trend)
	attendance.POST("/sessions", h.attendance.Mark)

	api.GET("/classes/:id/roster", everyone, h.attendance.Roster)
	api.POST("/classes/:id/enrollments/bulk", office, h.enrollments.BulkEnroll)
	api.GET("/class-enrollments/:profileId", office, h.enrollments.Placement)
	api.DELETE("/class-enrollments/:profileId", office, h.enrollments.Remove)

	api.GET("/system/metrics", admin, h.metrics.Summary)
}
