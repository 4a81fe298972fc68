package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/directory"
	"github.com/hostcampaign/site/internal/drafting"
	"github.com/hostcampaign/site/internal/mpservice"
	"github.com/hostcampaign/site/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("HOST MP service (cmd/mpservice)")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := directory.NewCache(redisClient, cfg.Directory.CacheTTL())
	dir := directory.New(cfg.Directory, directory.WithCache(cache))

	templates, err := drafting.NewTemplateDrafter(cfg.Drafting.CampaignName, cfg.Drafting.SignOff)
	if err != nil {
		log.Fatalf("Failed to parse letter templates: %v", err)
	}
	var drafter drafting.Drafter = templates
	if cfg.Drafting.BedrockEnabled {
		bd, err := drafting.NewBedrockDrafterFromConfig(ctx, cfg.Drafting, templates)
		if err != nil {
			log.Printf("Warning: Bedrock unavailable, using template letters: %v", err)
		} else {
			drafter = bd
		}
	} else {
		log.Println("Bedrock disabled, using template letters")
	}

	if cfg.MPService.APIKey == "" {
		log.Println("Warning: MPSERVICE_API_KEY not set, endpoints are open")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.MPService.Host, cfg.MPService.Port),
		Handler:           mpservice.NewRouter(cfg.MPService, mpservice.NewHandlers(dir, drafter)),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("MP service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down MP service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("MP service stopped")
}

// connectRedis returns nil when Redis is unset or unreachable; lookups
// then go upstream every time.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Println("Redis not configured (REDIS_URL not set), lookup cache disabled")
		return nil
	}
	client, err := directory.RedisFromURL(url)
	if err != nil {
		log.Printf("Warning: %v, lookup cache disabled", err)
		return nil
	}
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v, lookup cache disabled", err)
		client.Close()
		return nil
	}
	log.Println("Redis connected (lookup cache enabled)")
	return client
}
