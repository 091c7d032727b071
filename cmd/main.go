package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chatsync/internal/app/registry"
	"chatsync/internal/app/server"
	"chatsync/internal/app/worker"
	"chatsync/internal/config"
	"chatsync/internal/core/services"
	"chatsync/internal/platform/logger"
	"chatsync/internal/platform/telemetry"
	firebasePlugin "chatsync/internal/plugins/firebase"
	"chatsync/internal/plugins/postgres"
	redisPlugin "chatsync/internal/plugins/redis"
	"chatsync/internal/plugins/s3"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN)
		return
	}
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL)
		return
	}
	log.Info("redis connected")
	verifier, err := firebasePlugin.NewIdentityVerifier(ctx, *cfg.Firebase)
	if err != nil {
		log.Error("firebase initialization failed", "err", err)
		return
	}
	mediaStore, err := s3.NewMediaStore(ctx, *cfg.Media)
	if err != nil {
		log.Error("media store initialization failed", "bucket", cfg.Media.Bucket, "err", err)
		return
	}

	// Adapters
	profileRepo := postgres.NewProfileRepo(pdb)
	convRepo := postgres.NewConversationRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	peerRepo := postgres.NewMembershipRepo(pdb)
	groupRepo := postgres.NewGroupRepo(pdb)
	presStore := redisPlugin.NewPresenceStore(rdb)
	msgQueue := redisPlugin.NewMessageQueue(log, rdb)

	// Core Services
	hub := registry.NewRegistry()
	txManager := postgres.NewTxManager(pdb)
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	profileSvc := services.NewProfileService(log, profileRepo, verifier)
	membershipSvc := services.NewMembershipService(log, peerRepo, groupRepo, convRepo, txManager)
	messageSvc := services.NewMessageService(log, msgQueue, hub, msgRepo, peerRepo, groupRepo, txManager)
	inboxSvc := services.NewInboxService(log, profileRepo, peerRepo, groupRepo, msgRepo)
	mediaSvc := services.NewMediaService(log, mediaStore)
	managerSvc := services.NewManagerService(log, profileRepo, groupRepo, membershipSvc, messageSvc, presStore, msgQueue, hub)

	wrkr := worker.NewConversationWorker(log, msgQueue, messageSvc, cfg.Worker.MessageGroup)
	hub.RunWorker(wrkr.Run)

	// Server
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr,
		profileSvc, tokenSvc, managerSvc, inboxSvc, membershipSvc, messageSvc, mediaSvc, hub)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}
