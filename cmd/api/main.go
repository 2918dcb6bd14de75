package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emilythestrangee/decision-board/backend/internal/auth"
	"github.com/emilythestrangee/decision-board/backend/internal/cache"
	"github.com/emilythestrangee/decision-board/backend/internal/config"
	"github.com/emilythestrangee/decision-board/backend/internal/database"
	"github.com/emilythestrangee/decision-board/backend/internal/events"
	"github.com/emilythestrangee/decision-board/backend/internal/handlers"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/middleware"
	"github.com/emilythestrangee/decision-board/backend/internal/server"
	"github.com/emilythestrangee/decision-board/backend/internal/service"
	"github.com/emilythestrangee/decision-board/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.LogLevel, "decision-board-api")

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DB.DSN(), cfg.DB.Name)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	rc := cache.New(cfg.RedisURL)
	defer rc.Close()

	pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("kafka unavailable, events disabled")
		pub = events.Nop{}
	}
	defer pub.Close()

	// Left as a nil interface when storage is not configured so the services
	// reject uploads instead of calling a nil store.
	var images service.ImageStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewImageStore(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.Secure)
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("object storage unavailable, uploads disabled")
		} else {
			images = store
		}
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	decisions := service.NewDecisionService(db.GetDB(), images, rc, pub)
	accounts := service.NewAccountService(db.GetDB(), tokens, images)

	limiter := middleware.NewLimiter(rc, middleware.RateLimitConfig{Max: cfg.VoteRateLimit, Window: cfg.VoteRateWindow})
	srv := server.New(cfg, db, handlers.NewHandler(decisions, accounts, cfg.MaxUploadBytes), tokens, limiter).HTTPServer()

	// signal.Notify requires the channel to be buffered
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logging.Logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logging.Logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
