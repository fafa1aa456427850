package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/junzhu/rotor/internal/api"
	"github.com/junzhu/rotor/internal/api/handlers"
	"github.com/junzhu/rotor/internal/store"
	"github.com/junzhu/rotor/pkg/config"
	"github.com/junzhu/rotor/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server over the results store.

Endpoints:
  GET  /health                        - Health check
  GET  /api/runs                      - List persisted runs
  GET  /api/runs/{id}                 - One run record
  GET  /api/runs/{id}/transactions    - A run's trade log
  GET  /api/runs/{id}/summary         - Headline metrics

Example:
  go run ./cmd/rotor api
  go run ./cmd/rotor api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Rotor API Server ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	results, err := store.NewSQLiteResults(cfg.ResultsPath)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer results.Close()

	runHandler := handlers.NewRunHandler(results, log)
	router := api.NewRouter(runHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/runs")
	fmt.Println("  GET  /api/runs/{id}")
	fmt.Println("  GET  /api/runs/{id}/transactions")
	fmt.Println("  GET  /api/runs/{id}/summary")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
