package llm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 90 * time.Second

// OpenAIClient implements Client using the OpenAI chat completions API with
// strict structured outputs.
type OpenAIClient struct {
	client      *openai.Client
	logger      *zap.Logger
	model       string
	temperature float32
	timeout     time.Duration
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *OpenAIClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(c *OpenAIClient) {
		c.temperature = t
	}
}

// NewOpenAIClient creates a new OpenAI collaborator. An empty baseURL uses the
// public API.
func NewOpenAIClient(apiKey, baseURL, model string, logger *zap.Logger, opts ...OpenAIOption) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	c := &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		logger:      logger,
		model:       model,
		temperature: 0.3,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateObject requests a JSON response constrained to the schema of out and
// validates it before decoding.
func (c *OpenAIClient) GenerateObject(ctx context.Context, req Request, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("llm: %s: out must be a non-nil pointer", req.Name)
	}

	schema, err := jsonschema.GenerateSchemaForType(rv.Elem().Interface())
	if err != nil {
		return fmt.Errorf("llm: %s: generate schema: %w", req.Name, err)
	}

	content, err := c.complete(ctx, req, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.Name,
			Schema: schema,
			Strict: true,
		},
	})
	if err != nil {
		return err
	}

	if err := schema.Unmarshal(content, out); err != nil {
		return &SchemaError{Name: req.Name, Err: err}
	}
	return nil
}

// GenerateText requests a free-text response.
func (c *OpenAIClient) GenerateText(ctx context.Context, req Request) (string, error) {
	return c.complete(ctx, req, nil)
}

func (c *OpenAIClient) complete(ctx context.Context, req Request, format *openai.ChatCompletionResponseFormat) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		ResponseFormat: format,
	})
	if err != nil {
		c.logger.Warn("chat completion failed",
			zap.String("call", req.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		// The caller gave up; report that rather than an unavailable collaborator.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("llm: %s: %w", req.Name, ctxErr)
		}
		return "", fmt.Errorf("%w: %s: %s", ErrUnavailable, req.Name, describe(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: no choices in response", ErrUnavailable, req.Name)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrUnavailable, req.Name)
	}

	c.logger.Debug("chat completion",
		zap.String("call", req.Name),
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return content, nil
}

// describe flattens API errors so the status code survives into logs.
func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("api error (HTTP %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("request error (HTTP %d): %v", reqErr.HTTPStatusCode, reqErr.Err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return err.Error()
}

// Compile-time check that OpenAIClient implements Client.
var _ Client = (*OpenAIClient)(nil)
