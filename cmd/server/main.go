package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostcampaign/site/internal/api"
	"github.com/hostcampaign/site/internal/config"
	"github.com/hostcampaign/site/internal/mpclient"
	"github.com/hostcampaign/site/internal/mpcontact"
	"github.com/hostcampaign/site/internal/pages"
	"github.com/hostcampaign/site/internal/pkg/logger"
	"github.com/hostcampaign/site/internal/sessions"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("HOST campaign site (cmd/server)")

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

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	client := mpclient.NewFromConfig(cfg.ContactMP)
	log.Printf("Contact-MP collaborators: directory=%s generator=%s", client.DirectoryURL(), client.GeneratorURL())

	registry := sessions.NewRegistry(func() *mpcontact.Wizard {
		return mpcontact.New(client, client)
	}, cfg.ContactMP.SessionTTL())

	renderer, err := pages.New(cfg.Drafting.CampaignName)
	if err != nil {
		log.Fatalf("Failed to parse page templates: %v", err)
	}

	handlers := api.NewHandlers(registry, renderer, cfg.ContactMP.Wait())
	handlers.SetCookieSecure(cfg.Server.CookieSecure)
	health := api.NewHealthChecker(client.DirectoryURL(), client.GeneratorURL(), registry)

	server := api.NewServer(cfg.Server, handlers, health)

	ctx, cancel := context.WithCancel(context.Background())
	go registry.Run(ctx, cfg.ContactMP.SweepInterval())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	// Stops the sweeper, which closes every live wizard on its way out.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
