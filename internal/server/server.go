// Package server exposes the catalog over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Run starts the HTTP server with graceful shutdown.
func (s *Server) Run(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.HandleHealth)

	mux.HandleFunc("POST /api/files", s.HandleUpload)
	mux.HandleFunc("GET /api/files/{hash}", s.HandleFile)
	mux.HandleFunc("PUT /api/files/{hash}", s.HandleUpdate)
	mux.HandleFunc("DELETE /api/files/{hash}", s.HandleDelete)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/tags", s.HandleTags)
	mux.HandleFunc("GET /api/tags/{tag}", s.HandleTagInfo)
	mux.HandleFunc("POST /api/tags/{tag}/sync", s.HandleTagSync)
	mux.HandleFunc("GET /api/stats", s.HandleStats)

	limiter := NewRateLimiter(s.config.RateLimitPerSec, s.config.RateLimitBurst)
	limiter.StartPeriodicCleanup(time.Hour)

	// Middleware chain (order matters: Recovery -> RequestID -> Logger -> RequestSizeLimit -> CORS -> RateLimiter -> handlers)
	handler := Recovery(RequestID(Logger(RequestSizeLimit(s.config.MaxUploadBytes)(CORS(s.config.CORSAllowedOrigin)(limiter.Middleware(mux))))))

	log.Printf("Starting server on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.APITimeout,
		WriteTimeout: s.config.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Println("Server is ready to handle requests")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal %v, starting graceful shutdown", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Could not gracefully shutdown server: %v", err)
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Println("Server stopped gracefully")
		return nil
	}
}
