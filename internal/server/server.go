package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/joseph-ayodele/docs-ocr/internal/async"
)

// APIPrefix is where the OCR routes live.
const APIPrefix = "/api/v1/ocr"

// Exporter renders finished jobs as a spreadsheet.
type Exporter interface {
	ExportJobsXLSX(ctx context.Context, since time.Time) ([]byte, error)
}

type Config struct {
	AllowedOrigins []string
	MaxFileSize    int64 // request body limit for uploads
}

// Server holds the HTTP handlers of the OCR API.
type Server struct {
	queue    async.Queue
	exporter Exporter
	health   *HealthChecker
	cfg      Config
	logger   *slog.Logger
}

func New(cfg Config, queue async.Queue, exporter Exporter, health *HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 << 20
	}
	return &Server{queue: queue, exporter: exporter, health: health, cfg: cfg, logger: logger}
}

// Handler builds the router with CORS and request logging.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestID)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/process-documents", s.handleProcessDocuments).Methods(http.MethodPost)
	api.HandleFunc("/job-status/{job_id}", s.handleJobStatus).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{job_id}/cancel", s.handleCancelJob).Methods(http.MethodPost)
	api.HandleFunc("/export.xlsx", s.handleExport).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(router)
}
