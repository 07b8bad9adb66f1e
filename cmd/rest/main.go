package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citation-assist-be/internal/bootstrap"
	"citation-assist-be/internal/config"
	"citation-assist-be/internal/server"
	"citation-assist-be/internal/tracer"
	"citation-assist-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Warm the indexes so lexical queries work from the first request.
	// A failure is not fatal: vector queries fall back to pgvector until the
	// next rebuild succeeds.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := container.IndexManager.Rebuild(ctx); err != nil {
			log.Printf("Background: index warm-up failed: %v", err)
		}
	}()

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// 7. Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	container.IndexManager.Close()
	if err := container.Logger.Sync(); err != nil {
		// Stdout sync fails on some platforms; nothing to do about it.
		_ = err
	}
	log.Println("Bye")
}
