package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-ocr/internal/app"
	"github.com/joseph-ayodele/docs-ocr/internal/async"
	"github.com/joseph-ayodele/docs-ocr/internal/export"
	"github.com/joseph-ayodele/docs-ocr/internal/server"
)

func main() {
	workers := flag.Int("workers", 0, "run N in-process workers next to the API (0 = API only)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	c, err := app.NewContainer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := c.Logger
	cfg := c.Config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.OpenStore(ctx); err != nil {
		logger.Error("failed to open job store", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	var pool *async.WorkerPool
	if *workers > 0 {
		pool = c.NewWorkerPool(*workers)
	}

	health := server.NewHealthChecker(c.Queue, c.LLM.Configured(), logger)
	go health.Watch(ctx, 15*time.Second)

	srv := server.New(server.Config{
		AllowedOrigins: cfg.Server.Origins(),
		MaxFileSize:    cfg.Server.MaxFileSize,
	}, c.Queue, export.NewService(c.Jobs, logger), health, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http serving", "addr", httpServer.Addr, "origins", cfg.Server.Origins())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	if cfg.Server.GRPCAddr != "" {
		grpcServer := health.NewGRPCServer()
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("grpc health serving", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve failed", "error", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if pool != nil {
		pool.Shutdown(shutdownCtx)
	}
	logger.Info("stopped")
}
