package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SendJSON posts body as JSON and returns the 2xx response body.
//
// Failures are already classified: a request that never got an HTTP answer is
// KindNetwork, and a non-2xx answer is KindHTTPStatus carrying status and body.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	log := logger.With("req_id", uuid.NewString())
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("llm.http.encode_error", "error", err)
		return nil, NewNetworkError(fmt.Errorf("encode json: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Error("llm.http.build_request_error", "error", err)
		return nil, NewNetworkError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	log.Debug("llm.http.request", "url", url, "content_length", len(payload))

	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, NewNetworkError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.response_body_close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("llm.http.read_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, NewNetworkError(fmt.Errorf("read response: %w", err))
	}
	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPStatusError(resp.StatusCode, raw)
	}
	return raw, nil
}
