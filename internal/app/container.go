package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/docs-ocr/internal/async"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/llm"
	"github.com/joseph-ayodele/docs-ocr/internal/llm/openai"
	"github.com/joseph-ayodele/docs-ocr/internal/logging"
	"github.com/joseph-ayodele/docs-ocr/internal/ocr"
	"github.com/joseph-ayodele/docs-ocr/internal/pipeline"
	"github.com/joseph-ayodele/docs-ocr/internal/repository"
)

// Container holds the dependencies shared by the binaries.
type Container struct {
	Config *common.Config
	Logger *slog.Logger
	LLM    *openai.Client

	Store *repository.Store
	Jobs  repository.JobRepository
	Queue *async.StoreQueue
}

// NewContainer loads configuration (CONFIG_FILE, then env) and builds the logger
// and LLM client. The job store is opened separately by OpenStore.
func NewContainer() (*Container, error) {
	cfg, err := common.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if !client.Configured() {
		logger.Warn("OPENAI_API_KEY not set; jobs will fail at the extraction step")
	}
	return &Container{Config: cfg, Logger: logger, LLM: client}, nil
}

// OpenStore connects the job store and builds the queue on top of it.
func (c *Container) OpenStore(ctx context.Context) error {
	st, err := repository.Open(ctx, repository.Config{
		URL:             c.Config.Queue.URL,
		MaxConns:        c.Config.Queue.MaxConns,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		DialTimeout:     c.Config.Queue.DialTimeout,
	}, c.Logger)
	if err != nil {
		return err
	}
	c.Store = st
	c.Jobs = repository.NewJobRepository(st, c.Logger)
	c.Queue = async.NewStoreQueue(c.Jobs, st, c.Logger)
	return nil
}

// Extractor is the LLM client behind the configured rate limit.
func (c *Container) Extractor() llm.FieldExtractor {
	return llm.NewLimiter(c.LLM, c.Config.LLM.RateLimit, c.Config.LLM.RateBurst)
}

func (c *Container) OCRConfig() ocr.Config {
	o := c.Config.OCR
	return ocr.Config{
		Tesseract:     o.Tesseract,
		Pdftotext:     o.Pdftotext,
		Pdftoppm:      o.Pdftoppm,
		TesseractLang: o.Lang,
		TessdataDir:   o.TessdataDir,
		HeicConverter: o.HeicConverter,
		DPI:           o.DPI,
		MaxPages:      o.MaxPages,
	}
}

// NewProcessor builds a processor owning one lazily loaded OCR engine.
func (c *Container) NewProcessor() *pipeline.Processor {
	engine := ocr.NewLazy(ocr.NewExtractorLoader(c.OCRConfig(), c.Logger), c.Logger)
	return pipeline.NewProcessor(c.Logger, engine, c.Extractor())
}

// NewWorkerPool starts n workers plus the retention janitor.
func (c *Container) NewWorkerPool(n int) *async.WorkerPool {
	w := c.Config.Worker
	return async.NewWorkerPool(c.Jobs, c.NewProcessor(), c.Logger,
		async.WithWorkers(n),
		async.WithPollInterval(w.PollInterval),
		async.WithProcessTimeout(w.JobTimeout),
		async.WithRetention(w.ResultTTL, w.StaleAfter, time.Minute),
		async.WithWakeup(c.Queue.Wakeup()),
	)
}

func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}
