package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-ocr/internal/app"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/server"
)

// runocr runs the whole document pipeline on a local file, without the queue.
func main() {
	_ = godotenv.Load()

	if len(os.Args) != 2 {
		log.Println("usage: runocr <path-to-image-or-pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	c, err := app.NewContainer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := c.Logger

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Config.Worker.JobTimeout)
	defer cancel()

	filename := filepath.Base(path)
	job := &entity.Job{
		ID:          uuid.NewString(),
		DocumentKey: server.DocumentKey(filename),
		Filename:    filename,
		ContentType: contentType,
		Payload:     base64.StdEncoding.EncodeToString(content),
	}

	start := time.Now()
	out := c.NewProcessor().Process(ctx, job)
	logger.Info("pipeline finished", "job_id", job.ID, "failed", out.Failure != nil, "duration_ms", time.Since(start).Milliseconds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if out.Failure != nil {
		_ = enc.Encode(out.Failure)
		os.Exit(1)
	}
	_ = enc.Encode(out.Result)
}
