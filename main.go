package main

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/CarbonSMASH/push-relay/config"
	"github.com/CarbonSMASH/push-relay/handlers"
	"github.com/CarbonSMASH/push-relay/logger"
	"github.com/CarbonSMASH/push-relay/models"
	"github.com/CarbonSMASH/push-relay/router"
	"github.com/CarbonSMASH/push-relay/services"
	"github.com/CarbonSMASH/push-relay/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() {
		_ = logger.Close()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client with TLS in production deployments that ask for it
	redisOptions := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	if cfg.Redis.UseTLS {
		host := cfg.Redis.Address
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}
		redisOptions.TLSConfig = &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		}
	}

	redisClient := redis.NewClient(redisOptions)

	// Storage, registry and dispatcher
	kv := store.NewRedisStore(redisClient)
	registry := models.NewDeviceRegistry(kv, log.Desugar())
	dispatcher := services.NewExpoDispatcher(
		cfg.Push.ServiceURL,
		time.Duration(cfg.Push.TimeoutSeconds)*time.Second,
		log.Desugar(),
	)
	healthService := services.NewHealthService(redisClient, cfg.Server.Version)

	// Handlers and router
	relayHandler := handlers.NewRelayHandler(registry, dispatcher, log.Desugar())
	healthHandler := handlers.NewHealthHandler(healthService)

	r := router.SetupRouter(router.Dependencies{
		Config:        cfg,
		RelayHandler:  relayHandler,
		HealthHandler: healthHandler,
		RedisClient:   redisClient,
	})

	log.Infof("Starting relay on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
