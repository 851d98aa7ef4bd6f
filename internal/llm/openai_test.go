package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
)

type answer struct {
	Items []string `json:"items"`
	Done  bool     `json:"done"`
}

// chatServer fakes the chat completions endpoint and records the last request.
func chatServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) (*httptest.Server, *map[string]any) {
	t.Helper()

	var last map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			return
		}
		last = body
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": content,
			},
		}},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	})
}

func TestOpenAIClient_GenerateObject_DecodesValidResponse(t *testing.T) {
	t.Parallel()

	srv, last := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		writeCompletion(w, `{"items":["a","b"],"done":true}`)
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "gpt-4o-mini", zap.NewNop())

	var got answer
	err := client.GenerateObject(context.Background(), llm.Request{Name: "answer", System: "sys", User: "user"}, &got)

	require.NoError(t, err)
	assert.Equal(t, answer{Items: []string{"a", "b"}, Done: true}, got)

	format, ok := (*last)["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing from request")
	assert.Equal(t, "json_schema", format["type"])
	schema, ok := format["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "answer", schema["name"])
	assert.Equal(t, true, schema["strict"])

	messages, ok := (*last)["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAIClient_GenerateObject_SchemaMismatch(t *testing.T) {
	t.Parallel()

	srv, _ := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		writeCompletion(w, `{"items":"not a list"}`)
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop())

	var got answer
	err := client.GenerateObject(context.Background(), llm.Request{Name: "answer", User: "user"}, &got)

	require.Error(t, err)
	assert.True(t, llm.IsSchemaError(err))
	assert.False(t, errors.Is(err, llm.ErrUnavailable))
}

func TestOpenAIClient_GenerateObject_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	client := llm.NewOpenAIClient("key", "http://127.0.0.1:1/v1", "", zap.NewNop())

	err := client.GenerateObject(context.Background(), llm.Request{Name: "answer"}, answer{})
	require.Error(t, err)
}

func TestOpenAIClient_APIErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	srv, _ := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop())

	_, err := client.GenerateText(context.Background(), llm.Request{Name: "refine", User: "user"})

	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.False(t, llm.IsSchemaError(err))
}

func TestOpenAIClient_EmptyContentIsUnavailable(t *testing.T) {
	t.Parallel()

	srv, _ := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		writeCompletion(w, "   ")
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop())

	_, err := client.GenerateText(context.Background(), llm.Request{Name: "refine", User: "user"})

	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestOpenAIClient_TimeoutIsUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop(), llm.WithTimeout(50*time.Millisecond))

	_, err := client.GenerateText(context.Background(), llm.Request{Name: "refine", User: "user"})

	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestOpenAIClient_CallerCancellationIsNotUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := client.GenerateText(ctx, llm.Request{Name: "refine", User: "user"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, llm.ErrUnavailable)
}

func TestOpenAIClient_WithTemperature(t *testing.T) {
	t.Parallel()

	srv, last := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		writeCompletion(w, "ok")
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop(), llm.WithTemperature(0.7))

	_, err := client.GenerateText(context.Background(), llm.Request{Name: "refine", User: "user"})

	require.NoError(t, err)
	assert.InDelta(t, 0.7, (*last)["temperature"], 0.001)
}

func TestOpenAIClient_GenerateText_OmitsResponseFormat(t *testing.T) {
	t.Parallel()

	srv, last := chatServer(t, func(w http.ResponseWriter, _ map[string]any) {
		writeCompletion(w, "## v1.0.0\n")
	})
	client := llm.NewOpenAIClient("key", srv.URL+"/v1", "", zap.NewNop())

	got, err := client.GenerateText(context.Background(), llm.Request{Name: "refine", User: "user"})

	require.NoError(t, err)
	assert.Equal(t, "## v1.0.0", got)
	_, hasFormat := (*last)["response_format"]
	assert.False(t, hasFormat)
	messages := (*last)["messages"].([]any)
	assert.Len(t, messages, 1, "system message is omitted when empty")
}
