package main

import (
	"context"
	"log"
	"time"

	"chatkeep/internal/api"
	"chatkeep/internal/chat"
	"chatkeep/internal/config"
	"chatkeep/internal/notify"
	"chatkeep/internal/redis"
	"chatkeep/internal/service/account"
	"chatkeep/internal/service/querylog"
	"chatkeep/internal/session"
	"chatkeep/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	client, db, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	indexCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := storage.EnsureIndexes(indexCtx, db); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	rdb, err := redis.NewClient(cfg)
	if err != nil {
		logger.Fatal("create redis client", zap.Error(err))
	}
	defer rdb.Close()

	relay, err := chat.NewRelay(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("init chat relay", zap.Error(err))
	}

	sessions := session.NewStore(rdb, session.DefaultTTL, logger)
	accounts := account.NewService(db, logger)
	queries := querylog.NewService(db)
	blobs := storage.NewBlobStore(db)
	hub := notify.NewHub(cfg.Origin, logger)

	handler := api.NewHandler(accounts, queries, relay, blobs, sessions, hub, logger)

	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))
	handler.RegisterRoutes(router)
	router.GET("/ws", hub.Handle)

	logger.Info("starting server", zap.String("addr", cfg.ServerAddress))
	if err := router.Run(cfg.ServerAddress); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	origins := []string{"http://localhost:3000"}
	if cfg.Origin != "" {
		origins = append([]string{cfg.Origin}, origins...)
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type", "Authorization"}
	return corsCfg
}
