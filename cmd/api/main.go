package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/config"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/gateway"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler"
	engagementHandler "github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler/engagement"
	notificationHandler "github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler/notification"
	wsHandler "github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler/ws"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/middleware"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/repository/postgres"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/router"
	engagementService "github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/engagement"
	notificationService "github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/notification"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/auth"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/logger"
	"github.com/InfofriyendsTechnology/RateOn-sub001/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("rateon", "api")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(base)
	userRepo := postgres.NewUserRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	registry := gateway.NewMemoryRegistry()
	gw := gateway.New(gateway.Config{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		ReadBufferSize:  cfg.Gateway.ReadBufferSize,
		WriteBufferSize: cfg.Gateway.WriteBufferSize,
	}, registry, jwtSvc, appLogger, appMetrics)

	notificationSvc := notificationService.NewService(notificationRepo, userRepo, gw, appLogger, appMetrics)
	engagementSvc := engagementService.NewService(notificationSvc, outboxRepo, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	h := handler.NewHandler(gw.ConnectedUsers)
	notificationH := notificationHandler.NewHandler(notificationSvc)
	engagementH := engagementHandler.NewHandler(engagementSvc)
	wsH := wsHandler.NewHandler(gw)

	r := router.NewRouter(authMiddleware, notificationH, engagementH, wsH, h, router.Config{
		RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:     cfg.Server.RateLimitBurst,
		CORSConfig:    corsConfig,
		MetricsPrefix: "rateon_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	gw.Close()

	log.Info().Msg("server exited properly")
}
