package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hostcampaign/site/internal/mpclient"
	"github.com/hostcampaign/site/internal/pkg/httputil"
)

// unknownPostcode is answered with a 404 so the error path can be exercised.
const unknownPostcode = "ZZ99 9ZZ"

func main() {
	log.Println("WARNING: This is a STUB MP service for local testing ONLY.")
	log.Println("All responses are HARDCODED placeholders. For real lookups run cmd/mpservice.")

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "hostcampaign-stub-api")
			w.Header().Set("X-Server-Warning", "STUB - hardcoded responses only")
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httputil.OK(w, map[string]string{
			"status":  "healthy",
			"service": "hostcampaign-stub-api",
			"warning": "THIS IS A STUB - responses are hardcoded",
		})
	})

	r.Post("/api/mp/lookup", func(w http.ResponseWriter, req *http.Request) {
		var in mpclient.LookupRequest
		if !httputil.Decode(w, req, &in) {
			return
		}
		pc := strings.ToUpper(strings.TrimSpace(in.Postcode))
		switch pc {
		case "":
			httputil.BadRequest(w, "Please enter a postcode")
			return
		case unknownPostcode:
			httputil.NotFound(w, "Postcode not found")
			return
		}
		httputil.OK(w, mpclient.LookupResponse{
			MP:           &mpclient.MP{Name: "Jane Doe", Party: "X", Email: "jane.doe@parliament.uk"},
			Constituency: "Cityborough",
			Postcode:     pc,
		})
	})

	r.Post("/api/mp/generate-email", func(w http.ResponseWriter, req *http.Request) {
		var in mpclient.GenerateRequest
		if !httputil.Decode(w, req, &in) {
			return
		}
		if len(in.Issues) == 0 {
			httputil.BadRequest(w, "At least one issue is required")
			return
		}
		body := "Dear " + in.MPName + ",\n\nI am writing about: " + strings.Join(in.Issues, ", ") + "."
		if in.PersonalImpact != "" {
			body += "\n\n" + in.PersonalImpact
		}
		httputil.OK(w, mpclient.GenerateResponse{
			MPEmail: "jane.doe@parliament.uk",
			Subject: "Short-term rental concerns",
			Body:    body,
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Stub listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
