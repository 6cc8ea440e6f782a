package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/auth"
	"github.com/docbot-ai/docbot/internal/chat"
	"github.com/docbot-ai/docbot/internal/config"
	"github.com/docbot-ai/docbot/internal/db"
	"github.com/docbot-ai/docbot/internal/httpapi"
	"github.com/docbot-ai/docbot/internal/httpapi/handlers"
	"github.com/docbot-ai/docbot/internal/rag"
	"github.com/docbot-ai/docbot/internal/store/rabbitmq"
	"github.com/docbot-ai/docbot/internal/store/redisstore"
	"github.com/docbot-ai/docbot/internal/users"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var log *zap.Logger
	var err error
	if cfg.Debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	var ingestPub handlers.IngestPublisher
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn("rabbit unavailable, ingestion trigger disabled", zap.Error(err))
	} else {
		ingestPub = pub
		defer pub.Close()
	}

	userRepo := users.NewRepo(gdb)
	sessionRepo := chat.NewRepo(gdb)
	authSvc := auth.NewService(
		userRepo,
		auth.NewBcryptHasher(),
		auth.NewJWTCodec(cfg.JWTSecret),
		log,
		cfg.MaxLoginAttempts,
		cfg.AccessTokenTTL,
	)
	gen := rag.NewClient(cfg.RAGBaseURL, cfg.RAGAPIKey)

	h := handlers.NewHandler(authSvc, userRepo, sessionRepo, gen, ingestPub, log)
	router := httpapi.NewRouter(h, cfg, rds, log)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
