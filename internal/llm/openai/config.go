package openai

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // empty makes every call fail before the network
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-4o-mini
	Temperature float32       // 0 leaves the provider default
	Timeout     time.Duration // http client timeout, default 60s
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client; its Timeout is kept as given.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}
