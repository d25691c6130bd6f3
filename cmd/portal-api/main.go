package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/openvol/portal-api/api/swagger"
	"github.com/openvol/portal-api/internal/handler"
	"github.com/openvol/portal-api/internal/middleware"
	"github.com/openvol/portal-api/internal/notify"
	"github.com/openvol/portal-api/internal/repository"
	"github.com/openvol/portal-api/internal/service"
	"github.com/openvol/portal-api/internal/sheet"
	"github.com/openvol/portal-api/pkg/cache"
	"github.com/openvol/portal-api/pkg/config"
	"github.com/openvol/portal-api/pkg/database"
	"github.com/openvol/portal-api/pkg/logger"
	"github.com/openvol/portal-api/pkg/mailer"
	corsmiddleware "github.com/openvol/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openvol/portal-api/pkg/middleware/requestid"
)

// @title Volunteer Portal API
// @version 1.0.0
// @description Spreadsheet-backed volunteer signup portal
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

	usersDB, err := database.NewSQLite(cfg.Users.DBPath)
	if err != nil {
		logr.Fatal("failed to open users database", zap.Error(err))
	}
	defer usersDB.Close()

	forumDB, err := database.NewSQLite(cfg.Forum.DBPath)
	if err != nil {
		logr.Fatal("failed to open forum database", zap.Error(err))
	}
	defer forumDB.Close()

	userRepo, err := repository.NewUserRepository(usersDB)
	if err != nil {
		logr.Fatal("failed to init users schema", zap.Error(err))
	}
	forumRepo, err := repository.NewForumRepository(forumDB)
	if err != nil {
		logr.Fatal("failed to init forum schema", zap.Error(err))
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, slot cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer client.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	store := sheet.NewStore(cfg.Sheet, logr)
	smtp := mailer.NewSMTP(cfg.SMTP, logr)
	notifier := notify.New(smtp, cfg.OrgName, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if err := authSvc.EnsureBootstrapAdmin(context.Background(),
		cfg.Users.BootstrapEmail, cfg.Users.BootstrapPassword,
		cfg.Users.BootstrapFirstName, cfg.Users.BootstrapLastName); err != nil {
		logr.Fatal("failed to ensure bootstrap admin", zap.Error(err))
	}

	var slotSvc *service.SlotService
	if cacheRepo != nil {
		slotSvc = service.NewSlotService(store, notifier, cacheRepo, cfg.Cache.TTL, metrics, validate, logr)
	} else {
		slotSvc = service.NewSlotService(store, notifier, nil, 0, metrics, validate, logr)
	}
	forumSvc := service.NewForumService(forumRepo, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(slotSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	slotHandler := handler.NewSlotHandler(slotSvc, exportSvc)
	forumHandler := handler.NewForumHandler(forumSvc)
	adminHandler := handler.NewAdminHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	slots := api.Group("/slots", middleware.JWT(authSvc))
	slots.GET("", slotHandler.List)
	slots.POST("/:row/reserve", slotHandler.Reserve)
	slots.POST("/:row/cancel", slotHandler.Cancel)
	slots.POST("", middleware.AdminOnly(), slotHandler.Add)
	slots.GET("/export", middleware.AdminOnly(), slotHandler.Export)

	forum := api.Group("/forum", middleware.JWT(authSvc))
	forum.GET("/posts", forumHandler.ListPosts)
	forum.POST("/posts", forumHandler.CreatePost)
	forum.GET("/posts/:id", forumHandler.GetPost)
	forum.POST("/posts/:id/replies", forumHandler.CreateReply)
	forum.POST("/posts/:id/lock", middleware.AdminOnly(), forumHandler.Lock)
	forum.POST("/posts/:id/unlock", middleware.AdminOnly(), forumHandler.Unlock)
	forum.POST("/posts/:id/delete", middleware.AdminOnly(), forumHandler.DeletePost)
	forum.POST("/replies/:id/delete", middleware.AdminOnly(), forumHandler.DeleteReply)

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.AdminOnly())
	admin.PUT("/users/:email/admin", adminHandler.SetAdmin)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
