package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/app"
)

func main() {
	_ = godotenv.Load()

	c, err := app.NewContainer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.OpenStore(ctx); err != nil {
		log.Fatalf("opening job store: %v", err)
	}
	defer c.Close()

	if err := c.Store.Ping(ctx, time.Second); err != nil {
		log.Fatalf("queue health: FAIL (%v)", err)
	}
	log.Printf("queue health: OK (%s)", c.Store.Dialect())

	counts, err := c.Jobs.CountByStatus(ctx)
	if err != nil {
		log.Fatalf("counting jobs: %v", err)
	}
	for _, s := range []constants.JobStatus{
		constants.JobStatusQueued,
		constants.JobStatusRunning,
		constants.JobStatusFinished,
		constants.JobStatusFailed,
		constants.JobStatusCanceled,
	} {
		log.Printf("- %-8s %d", s, counts[s])
	}
}
