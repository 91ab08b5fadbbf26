package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/victoria/internal/api/rest"
	"github.com/fortuna/victoria/internal/api/websocket"
	"github.com/fortuna/victoria/internal/cache"
	"github.com/fortuna/victoria/internal/config"
	"github.com/fortuna/victoria/internal/publisher"
	"github.com/fortuna/victoria/internal/service"
	"github.com/fortuna/victoria/internal/store"
)

const (
	serviceName    = "victoria"
	serviceVersion = "1.0.0"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	log.Printf("Starting %s v%s - Mini Games Leaderboard Service", serviceName, serviceVersion)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	db, err := store.NewDatabase(cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("Database migrations applied")

	// Initialize Redis cache with retry logic
	var redisCache *cache.RedisCache
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Println("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisCache.Close()

	log.Println("Connected to Redis")

	// Initialize Redis publisher
	redisPublisher, err := publisher.NewRedisPublisher(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis publisher: %v", err)
	}
	defer redisPublisher.Close()

	log.Println("Redis publisher initialized")

	// Wire services
	reportService := service.NewReportService(db, redisCache, cfg.Games.Names, cfg.Games.ExcludedSenders)
	ingestService := service.NewIngestService(db, redisCache, redisPublisher)

	// Initialize WebSocket server
	wsServer := websocket.NewServer()
	go func() {
		if err := wsServer.Start(cfg.HTTP.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	log.Printf("WebSocket server listening on :%s", cfg.HTTP.WSPort)

	// Initialize REST API server
	restServer := rest.NewServer(cfg.HTTP.RESTPort, reportService, ingestService, wsServer)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.HTTP.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("%s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.HTTP.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s", cfg.HTTP.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}
