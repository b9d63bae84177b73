package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Loader builds an engine; it runs at most once per Lazy.
type Loader func(ctx context.Context) (Engine, error)

// Lazy defers engine construction to the first Recognize call and shares the
// result across goroutines. A failed load is remembered and returned on every call.
type Lazy struct {
	load   Loader
	logger *slog.Logger

	once   sync.Once
	engine Engine
	err    error
}

func NewLazy(load Loader, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lazy{load: load, logger: logger}
}

// NewExtractorLoader returns a Loader that builds and probes an Extractor.
func NewExtractorLoader(cfg Config, logger *slog.Logger) Loader {
	return func(ctx context.Context) (Engine, error) {
		e := NewExtractor(cfg, logger)
		if err := e.Load(ctx); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (l *Lazy) get(ctx context.Context) (Engine, error) {
	l.once.Do(func() {
		start := time.Now()
		l.logger.Info("loading ocr engine")
		// a canceled first caller must not poison the shared handle
		l.engine, l.err = l.load(context.WithoutCancel(ctx))
		if l.err != nil {
			l.logger.Error("ocr engine load failed", "error", l.err)
			return
		}
		l.logger.Info("ocr engine loaded", "duration_ms", time.Since(start).Milliseconds())
	})
	return l.engine, l.err
}

func (l *Lazy) Recognize(ctx context.Context, content []byte, contentType string) ([]string, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ocr engine: %w", err)
	}
	return e.Recognize(ctx, content, contentType)
}
