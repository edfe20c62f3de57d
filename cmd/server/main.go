package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"watchtogether/internal/cache"
	"watchtogether/internal/config"
	"watchtogether/internal/repository"
	"watchtogether/internal/service"
	"watchtogether/internal/transport/rest"
	"watchtogether/internal/transport/ws"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Repositories and caches
	roomRepo := repository.NewRoomRepo(db)
	videoRepo := repository.NewVideoRepo(db)
	roomCache := cache.NewRoomCache(rdb)
	presence := cache.NewPresenceCache(rdb)

	// Services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	roomSvc := service.NewRoomService(roomRepo, videoRepo, roomCache, authSvc)

	// Sync coordinator hub
	hub := ws.NewHub(logger)
	hub.SetPresence(presence)
	hub.SetContext(ctx)
	roomSvc.SetBroadcaster(hub)

	wsHandler := ws.NewHandler(hub, authSvc, logger, cfg)

	router := rest.NewRouter(&rest.Container{
		Config:      cfg,
		AuthService: authSvc,
		RoomService: roomSvc,
		VideoRepo:   videoRepo,
		Presence:    presence,
		WSHandler:   wsHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/rooms")
		log.Println("  POST /v1/rooms/{code}/join")
		log.Println("  GET  /v1/rooms/{code}")
		log.Println("  POST /v1/rooms/{code}/close")
		log.Println("  GET  /videos/{filename}")
		log.Println("  WS   /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	hub.Close()

	log.Println("Server exited")
}
