package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campustools/timetable-api/api/swagger"
	"github.com/campustools/timetable-api/internal/handler"
	"github.com/campustools/timetable-api/internal/middleware"
	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/repository"
	"github.com/campustools/timetable-api/internal/service"
	"github.com/campustools/timetable-api/pkg/cache"
	"github.com/campustools/timetable-api/pkg/config"
	"github.com/campustools/timetable-api/pkg/database"
	"github.com/campustools/timetable-api/pkg/logger"
	corsmiddleware "github.com/campustools/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campustools/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Class-session scheduling service: slot suggestion, batch commit and bulk auto-scheduling.
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	if !cfg.Catalog.CacheEnabled {
		redisClient = nil
	}

	sessionRepo := repository.NewClassSessionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timetable-api",
	})
	timetableSvc := service.NewTimetableService(sessionRepo, roomRepo, subjectRepo, sectionRepo, termRepo, cacheRepo, db, cfg.Catalog.CacheTTL, nil, logr)
	autoSvc := service.NewAutoScheduleService(sessionRepo, roomRepo, sectionRepo, termRepo, cacheRepo, db, service.AutoScheduleConfig{
		ProposalTTL:        cfg.Scheduler.ProposalTTL,
		StepMinutes:        cfg.Scheduler.StepMinutes,
		AttemptsPerSession: cfg.Scheduler.AttemptsPerSession,
		RandomSeed:         cfg.Scheduler.RandomSeed,
	}, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, subjectRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	exportSvc := service.NewExportService(timetableSvc, logr)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, metricsSvc)
	autoHandler := handler.NewAutoScheduleHandler(autoSvc, metricsSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	termHandler := handler.NewTermHandler(termSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	scheduling := protected.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleRegistrar))
	scheduling.POST("/timetable/suggest-slot", timetableHandler.SuggestSlot)
	scheduling.POST("/timetable/batch", timetableHandler.CommitBatch)
	scheduling.POST("/timetable/auto-schedule", autoHandler.Generate)
	scheduling.POST("/timetable/auto-schedule/save", autoHandler.Save)

	protected.GET("/sections/:id/timetable", timetableHandler.SectionTimetable)
	protected.GET("/sections/:id/demand", timetableHandler.SectionDemand)
	protected.GET("/rooms/:id/timetable", timetableHandler.RoomTimetable)

	if cfg.Exports.Enabled {
		protected.GET("/sections/:id/timetable/export", exportHandler.SectionExport)
		protected.GET("/sections/:id/demand/export", exportHandler.DemandExport)
		protected.GET("/rooms/:id/timetable/export", exportHandler.RoomExport)
	}

	protected.GET("/rooms", roomHandler.List)
	protected.GET("/rooms/:id", roomHandler.Get)
	protected.GET("/subjects", subjectHandler.List)
	protected.GET("/subjects/:id", subjectHandler.Get)
	protected.GET("/sections", sectionHandler.List)
	protected.GET("/sections/:id", sectionHandler.Get)
	protected.GET("/terms", termHandler.List)
	protected.GET("/terms/active", termHandler.GetActive)
	protected.GET("/terms/:id", termHandler.Get)

	admin := protected.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/rooms", roomHandler.Create)
	admin.PATCH("/rooms/:id", roomHandler.Update)
	admin.DELETE("/rooms/:id", roomHandler.Delete)
	admin.POST("/subjects", subjectHandler.Create)
	admin.PATCH("/subjects/:id", subjectHandler.Update)
	admin.DELETE("/subjects/:id", subjectHandler.Delete)
	admin.POST("/sections", sectionHandler.Create)
	admin.PATCH("/sections/:id", sectionHandler.Update)
	admin.DELETE("/sections/:id", sectionHandler.Delete)
	admin.POST("/sections/:id/subjects", sectionHandler.AssignSubject)
	admin.DELETE("/sections/:id/subjects/:subjectId", sectionHandler.UnassignSubject)
	admin.POST("/terms", termHandler.Create)
	admin.POST("/terms/:id/activate", termHandler.Activate)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
