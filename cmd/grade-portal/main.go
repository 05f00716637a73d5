package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushub/grade-portal-api/api/swagger"
	"github.com/campushub/grade-portal-api/internal/handler"
	"github.com/campushub/grade-portal-api/internal/middleware"
	"github.com/campushub/grade-portal-api/internal/repository"
	"github.com/campushub/grade-portal-api/internal/service"
	"github.com/campushub/grade-portal-api/pkg/cache"
	"github.com/campushub/grade-portal-api/pkg/config"
	"github.com/campushub/grade-portal-api/pkg/database"
	"github.com/campushub/grade-portal-api/pkg/logger"
	corsmiddleware "github.com/campushub/grade-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/grade-portal-api/pkg/middleware/requestid"
)

// @title Grade Portal API
// @version 1.0.0
// @description Student grade records, GPA statistics, and grade correction workflow
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	gradeRepo := repository.NewGradeRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	gradeSvc := service.NewGradeService(gradeRepo, cacheSvc, logr)
	correctionSvc := service.NewCorrectionService(correctionRepo, gradeRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(gradeRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc, exportSvc)
	correctionHandler := handler.NewCorrectionHandler(correctionSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authRequired := api.Group("")
	authRequired.Use(middleware.JWT(authSvc))
	{
		authRequired.POST("/auth/logout", authHandler.Logout)
		authRequired.GET("/auth/me", authHandler.Me)

		grades := authRequired.Group("/grades")
		{
			grades.GET("", gradeHandler.List)
			grades.GET("/gpa", gradeHandler.GPA)
			grades.GET("/credits", gradeHandler.Credits)
			grades.GET("/semesters", gradeHandler.Semesters)
			grades.GET("/statistics", gradeHandler.Statistics)
			grades.GET("/export", gradeHandler.Export)
			grades.GET("/:id", gradeHandler.Get)
		}

		corrections := authRequired.Group("/corrections")
		{
			corrections.POST("", correctionHandler.Submit)
			corrections.GET("", correctionHandler.List)
			corrections.GET("/summary", correctionHandler.Summary)
			corrections.GET("/can-submit", correctionHandler.CanSubmit)
			corrections.GET("/attempts", correctionHandler.Attempts)
			corrections.GET("/:id", correctionHandler.Get)
			corrections.PATCH("/:id/review", correctionHandler.Review)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
