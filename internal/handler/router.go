package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/middleware"
	"github.com/noah-isme/teacher-ratings-api/internal/service"
	"github.com/noah-isme/teacher-ratings-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/teacher-ratings-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teacher-ratings-api/pkg/middleware/requestid"
)

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	APIPrefix       string
	MaxBodyBytes    int64
	AllowedOrigins  []string
	AdminCookieName string
	SecureCookies   bool
	VoteCookie      VoteCookie
	EnableDocs      bool
	RateLimit       int
	RateLimitWindow time.Duration
}

// RouterDeps are the services behind the routes. Limiter and Metrics may be nil.
type RouterDeps struct {
	Teachers *service.TeacherService
	Ratings  *service.RatingService
	Auth     *service.AuthService
	Exports  *service.ExportService
	Metrics  *service.MetricsService
	Limiter  middleware.Limiter
	Logger   *zap.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg RouterConfig, deps RouterDeps) *gin.Engine {
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}
	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.SecurityHeaders())
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	metricsHandler := NewMetricsHandler(deps.Metrics, deps.Teachers)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	teacherHandler := NewTeacherHandler(deps.Teachers)
	ratingHandler := NewRatingHandler(deps.Ratings, cfg.VoteCookie)
	authHandler := NewAuthHandler(deps.Auth, cfg.AdminCookieName, cfg.SecureCookies)
	exportHandler := NewExportHandler(deps.Exports)

	throttle := middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateLimitWindow, logr)
	requireAdmin := middleware.RequireAdmin(deps.Auth.Authenticator(), cfg.AdminCookieName)
	audit := func(resource, action string) gin.HandlerFunc {
		return middleware.Audit(logr, resource, action)
	}

	api := r.Group(prefix)
	api.GET("/teachers", teacherHandler.List)
	api.GET("/teachers/:id", teacherHandler.Get)
	api.POST("/teachers", requireAdmin, audit("teacher", "create"), teacherHandler.Create)
	api.POST("/ratings", throttle, ratingHandler.Submit)

	admin := api.Group("/admin")
	admin.POST("/login", throttle, authHandler.Login)
	admin.POST("/logout", authHandler.Logout)

	protected := admin.Group("", requireAdmin)
	protected.GET("/teachers/export", audit("teacher", "export"), exportHandler.Teachers)
	protected.PUT("/teachers/:id", audit("teacher", "update"), teacherHandler.Update)
	protected.DELETE("/teachers/:id", audit("teacher", "delete"), teacherHandler.Delete)
	protected.GET("/votes", ratingHandler.ListVotes)
	protected.PUT("/votes/:teacherId", audit("rating", "update"), ratingHandler.UpdateVote)
	protected.PUT("/votes/:teacherId/:ratingId", audit("rating", "update"), ratingHandler.UpdateVote)
	protected.DELETE("/votes/:teacherId", audit("rating", "delete"), ratingHandler.DeleteVote)
	protected.DELETE("/votes/:teacherId/:ratingId", audit("rating", "delete"), ratingHandler.DeleteVote)

	return r
}
