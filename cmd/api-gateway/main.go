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
	"go.uber.org/zap"

	_ "github.com/noah-isme/teacher-ratings-api/api/swagger"
	"github.com/noah-isme/teacher-ratings-api/internal/handler"
	"github.com/noah-isme/teacher-ratings-api/internal/middleware"
	"github.com/noah-isme/teacher-ratings-api/internal/repository"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	"github.com/noah-isme/teacher-ratings-api/pkg/cache"
	"github.com/noah-isme/teacher-ratings-api/pkg/config"
	"github.com/noah-isme/teacher-ratings-api/pkg/logger"
	"github.com/noah-isme/teacher-ratings-api/pkg/storage"
)

// @title Teacher Ratings API
// @version 1.0.0
// @description Browse teachers, rate them once per browser, and moderate as an administrator.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey AdminToken
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

	ctx := context.Background()

	teacherStore, teacherFile, err := storage.ForFile(cfg.Storage.TeachersFile)
	if err != nil {
		logr.Fatal("failed to prepare teacher storage", zap.String("file", cfg.Storage.TeachersFile), zap.Error(err))
	}
	teacherRepo := repository.NewTeacherRepository(teacherStore, teacherFile, logr.Named("teachers"))
	loadedTeachers, err := teacherRepo.Load(ctx)
	if err != nil {
		logr.Fatal("failed to load teachers", zap.Error(err))
	}
	logr.Info("teachers loaded", zap.String("path", teacherStore.Path(teacherFile)), zap.Int("count", loadedTeachers))

	var ratingRepo *repository.RatingRepository
	if cfg.Storage.RatingsFile != "" {
		ratingStore, ratingFile, err := storage.ForFile(cfg.Storage.RatingsFile)
		if err != nil {
			logr.Fatal("failed to prepare rating storage", zap.String("file", cfg.Storage.RatingsFile), zap.Error(err))
		}
		ratingRepo = repository.NewRatingRepository(ratingStore, ratingFile, logr.Named("ratings"))
		loaded, err := ratingRepo.Load(ctx)
		if err != nil {
			logr.Fatal("failed to load ratings", zap.Error(err))
		}
		logr.Info("ratings loaded", zap.Int("count", loaded))
	} else {
		ratingRepo = repository.NewRatingRepository(nil, "", logr.Named("ratings"))
		logr.Warn("RATINGS_FILE not set, ratings are kept in memory only")
	}

	var (
		redisClient *redis.Client
		limiter     middleware.Limiter
		cacheRepo   service.CacheRepository
	)
	if cfg.NeedsRedis() {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching and rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			if cfg.RateLimit.Enabled {
				limiter = cache.NewRateLimiter(redisClient, "ratelimit:")
			}
			if cfg.Cache.Enabled {
				cacheRepo = repository.NewCacheRepository(redisClient, "teacher-ratings:", logr.Named("cache"))
			}
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr.Named("cache"), cfg.Cache.Enabled)

	authenticator, err := service.NewAuthenticator(cfg.Admin, cfg.JWT)
	if err != nil {
		logr.Fatal("failed to configure admin authentication", zap.Error(err))
	}

	writes := service.NewStoreLock()
	teacherSvc := service.NewTeacherService(teacherRepo, ratingRepo, cacheSvc, metrics, writes, validate, logr.Named("teacher_service"))
	ratingSvc := service.NewRatingService(ratingRepo, teacherRepo, cacheSvc, metrics, writes, validate, logr.Named("rating_service"))
	authSvc := service.NewAuthService(authenticator, validate, logr.Named("auth_service"))
	exportSvc := service.NewExportService(teacherRepo, ratingRepo, logr.Named("export_service"), nil, nil)
	if _, err := teacherSvc.PruneOrphanRatings(ctx); err != nil {
		logr.Warn("failed to prune orphan ratings", zap.Error(err))
	}
	metrics.SetTeacherCount(teacherSvc.Count(ctx))

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:       cfg.APIPrefix,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AdminCookieName: cfg.Admin.CookieName,
		SecureCookies:   cfg.Votes.SecureCookie,
		VoteCookie: handler.VoteCookie{
			Name:   cfg.Votes.CookieName,
			MaxAge: cfg.Votes.CookieMaxAge,
			Secure: cfg.Votes.SecureCookie,
		},
		EnableDocs:      cfg.Env != config.EnvProduction,
		RateLimit:       cfg.RateLimit.Requests,
		RateLimitWindow: cfg.RateLimit.Window,
	}, handler.RouterDeps{
		Teachers: teacherSvc,
		Ratings:  ratingSvc,
		Auth:     authSvc,
		Exports:  exportSvc,
		Metrics:  metrics,
		Limiter:  limiter,
		Logger:   logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("admin_auth", cfg.Admin.AuthMode),
			zap.Bool("ratings_durable", ratingRepo.Durable()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
