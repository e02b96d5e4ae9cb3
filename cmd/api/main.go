package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libris.dev/internal/auth"
	"libris.dev/internal/catalog"
	"libris.dev/internal/config"
	"libris.dev/internal/httpapi"
	"libris.dev/internal/obs"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.AuthSecret == "" {
		log.Fatal("LIBRIS_AUTH_SECRET is required")
	}
	codec, err := auth.NewTokenCodec(cfg.AuthSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	accounts := auth.NewInMemory()
	books := catalog.NewInMemory()

	authSvc, err := auth.NewService(accounts, codec)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	if err := seed(authSvc, books); err != nil {
		log.Fatalf("seed: %v", err)
	}

	api := httpapi.New(version, authSvc, books)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting libris-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

// seed installs the demo accounts and catalog entry the service ships with.
func seed(authSvc *auth.Service, books *catalog.InMemory) error {
	ctx := context.Background()

	if err := authSvc.Register(ctx, "john_doe", "securepassword", auth.RoleLibrarian); err != nil {
		return err
	}
	if err := authSvc.Register(ctx, "rahul", "password@123", auth.RoleMember); err != nil {
		return err
	}
	_, err := books.Insert(ctx, catalog.Book{
		Title:       "Harry Potter",
		Author:      "JK Rowling",
		Description: "series",
	})
	return err
}
