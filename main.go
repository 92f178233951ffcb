package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goanalyst/adapters/api"
	"goanalyst/internal/config"
	"goanalyst/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	// Connect, migrate and build the model store
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = appContainer.Open(openCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	server, err := api.NewServer(api.Dependencies{
		Analyzer: appContainer.Analyzer,
		Models:   appContainer.Models,
		Config:   appConfig,
		Logger:   appContainer.Logger.With("API"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting goanalyst server on port %s", appConfig.Server.Port)
	if err := server.Run(ctx); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
