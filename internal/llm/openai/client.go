package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/joseph-ayodele/docs-ocr/internal/llm"
)

var _ llm.FieldExtractor = (*Client)(nil)

// ExtractFields sends the OCR text to chat/completions in JSON mode and parses the
// answer. One attempt only; the caller decides what a failure means for the job.
func (c *Client) ExtractFields(ctx context.Context, rawText string) (llm.Extraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Configured() {
		c.logger.Error("llm.extract.missing_credential", "req_id", rid)
		return llm.Extraction{}, llm.NewMissingCredentialError()
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(rawText),
	)

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(llm.BuildPrompt(rawText)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(float64(c.cfg.Temperature))
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, err := llm.SendJSON(ctx, c.http, endpoint, params, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.request_failed",
			"req_id", rid,
			"kind", llm.KindOf(err),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Extraction{}, err
	}

	var cc openai.ChatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Extraction{}, llm.NewUnexpectedResponseError(err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Extraction{}, llm.NewUnexpectedResponseError(errors.New("no choices in openai response"))
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	fields, err := llm.ParseContent(content)
	if err != nil {
		c.logger.Warn("llm.extract.rejected",
			"req_id", rid,
			"kind", llm.KindOf(err),
			"content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Extraction{}, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Extraction{Fields: fields, Content: []byte(content)}, nil
}
