// Package mock provides test doubles for the collaborator interfaces.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/clintrovert/relnotes/internal/llm"
)

// Compile-time interface verification.
var _ llm.Client = (*LLMClient)(nil)

// LLMClient is a mock implementation of llm.Client. It is safe for concurrent
// use and records the name of every call it receives.
type LLMClient struct {
	GenerateObjectFn func(ctx context.Context, req llm.Request, out any) error
	GenerateTextFn   func(ctx context.Context, req llm.Request) (string, error)

	mu    sync.Mutex
	calls []llm.Request
}

func (c *LLMClient) GenerateObject(ctx context.Context, req llm.Request, out any) error {
	c.record(req)
	return c.GenerateObjectFn(ctx, req, out)
}

func (c *LLMClient) GenerateText(ctx context.Context, req llm.Request) (string, error) {
	c.record(req)
	return c.GenerateTextFn(ctx, req)
}

// Calls returns the names of the calls received so far, in arrival order.
func (c *LLMClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.calls))
	for i, req := range c.calls {
		names[i] = req.Name
	}
	return names
}

// Requests returns a copy of the requests received so far.
func (c *LLMClient) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.calls...)
}

func (c *LLMClient) record(req llm.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
}

// Fill copies v into out through JSON, the way a structured response is decoded.
func Fill(out any, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
