package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-ocr/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	c, err := app.NewContainer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := c.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.OpenStore(ctx); err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	pool := c.NewWorkerPool(c.Config.Worker.Count)
	logger.Info("worker process started", "workers", c.Config.Worker.Count, "queue", c.Store.Dialect())

	<-ctx.Done()
	logger.Info("shutting down...")
	// running jobs are never interrupted; give them the job timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Worker.JobTimeout+10*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)
}
