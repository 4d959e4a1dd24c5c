package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "churchsite/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"churchsite/internal/auth"
	"churchsite/internal/cache"
	"churchsite/internal/config"
	"churchsite/internal/db"
	"churchsite/internal/handler"
	"churchsite/internal/idp"
	"churchsite/internal/logger"
	"churchsite/internal/metrics"
	"churchsite/internal/middleware"
	"churchsite/internal/model"
	"churchsite/internal/repository"
	"churchsite/internal/router"
	"churchsite/internal/service"
	"churchsite/internal/view"
)

// @title Church Members API
// @version 1.0
// @description Members area API: member directory and prayer requests, authenticated with identity provider access tokens.
// @host localhost:8080
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}
	ipExtractor, err := middleware.ClientIPExtractor(cfg.TrustedProxies)
	if err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(&model.Member{}, &model.PrayerRequest{}); err != nil {
		zl.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Identity provider and sessions
	provider := idp.NewClient(cfg.IDPBaseURL, cfg.IDPAnonKey, cfg.IDPTimeout)
	jwtService := auth.NewJWTService(cfg.IDPJWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	sessions := auth.NewSessionManager(provider, jwtService, tokenStore, auth.CookieConfig{
		MaxAge: cfg.SessionMaxAge,
		Secure: !cfg.IsDevelopment(),
	}, m, zl)

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(gormDB)
	prayerRepo := repository.NewPrayerRequestRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(provider, m, zl)
	completion := service.NewLoginCompletionService(provider, memberRepo, m, zl)
	memberService := service.NewMemberService(memberRepo, cacheClient, m, zl)
	prayerService := service.NewPrayerService(prayerRepo)

	renderer, err := view.New()
	if err != nil {
		zl.Fatal("templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	router.Register(e, router.Deps{
		Config:        cfg,
		Logger:        zl,
		Metrics:       m,
		Gatherer:      reg,
		Sessions:      sessions,
		JWT:           jwtService,
		Tokens:        tokenStore,
		LookupLimiter: middleware.NewRedisRateLimiterStore(cacheClient, "member_lookup", cfg.LookupRateLimit, time.Minute),
		IPExtractor:   ipExtractor,
		Health: func(c echo.Context) error {
			ctx := c.Request().Context()
			sqlDB, err := gormDB.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				zl.Warn("health: database", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			}
			redis := "up"
			if err := cacheClient.Ping(ctx); err != nil {
				redis = "degraded"
			}
			return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "up", "redis": redis})
		},
		AuthHandler:   handler.NewAuthHandler(authService, completion, sessions, memberRepo, cfg, zl),
		MemberHandler: handler.NewMemberHandler(memberService, memberRepo, sessions, zl),
		PrayerHandler: handler.NewPrayerHandler(prayerService, memberService, zl),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.ServerPort
	go func() {
		zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
}
