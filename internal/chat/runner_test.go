/*
Copyright 2026 The 0g-chat Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longcipher/0g-chat/internal/inference"
	"github.com/longcipher/0g-chat/internal/openai"
)

// TestRunner aggregates all chat runner test cases
// Run with: go test -run TestRunner
func TestRunner(t *testing.T) {
	t.Run("Success", testRunSuccess)
	t.Run("RequestShape", testRunRequestShape)
	t.Run("EmptyChoices", testRunEmptyChoices)
	t.Run("UpstreamError", testRunUpstreamError)
	t.Run("Idempotency", testRunIdempotency)
	t.Run("WriterFailure", testRunWriterFailure)
}

func defaultOptions() Options {
	return Options{
		Model:        "phala/deepseek-r1-70b",
		SystemPrompt: "you are a helpful assistant that speaks Chinese.",
		Prompt:       "Hello, from 0g user!",
		Temperature:  0.9,
	}
}

func completionJSON(content string) []byte {
	resp := openai.ChatCompletionResponse{
		ID:     "chatcmpl-runner",
		Object: "chat.completion",
		Model:  "phala/deepseek-r1-70b",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatMessage{Role: openai.RoleAssistant, Content: content}, FinishReason: "stop"},
		},
		Usage: &openai.Usage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25},
	}
	b, _ := json.Marshal(resp)
	return b
}

func newRunnerAgainst(baseURL string, out *bytes.Buffer) *Runner {
	client := inference.NewHTTPClient(inference.HTTPClientConfig{
		BaseURL: baseURL,
		APIKey:  "sk-test",
	})
	return NewRunner(client, out)
}

func testRunSuccess(t *testing.T) {
	t.Run("should print the first choice's content followed by a newline", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(completionJSON("你好"))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)

		err := runner.Run(context.Background(), defaultOptions())
		require.NoError(t, err)
		assert.Equal(t, "你好\n", out.String())
	})

	t.Run("should skip the system message when the system prompt is empty", func(t *testing.T) {
		var body openai.ChatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Write(completionJSON("ok"))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)

		opts := defaultOptions()
		opts.SystemPrompt = ""
		require.NoError(t, runner.Run(context.Background(), opts))

		require.Len(t, body.Messages, 1)
		assert.Equal(t, openai.RoleUser, body.Messages[0].Role)
	})
}

func testRunRequestShape(t *testing.T) {
	t.Run("should send exactly two messages in order with the configured literals", func(t *testing.T) {
		var body openai.ChatCompletionRequest
		var gotReqID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReqID = r.Header.Get("X-Request-ID")
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Write(completionJSON("ok"))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)
		require.NoError(t, runner.Run(context.Background(), defaultOptions()))

		assert.Equal(t, "phala/deepseek-r1-70b", body.Model)
		assert.Equal(t, 0.9, body.Temperature)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, openai.RoleSystem, body.Messages[0].Role)
		assert.Equal(t, "you are a helpful assistant that speaks Chinese.", body.Messages[0].Content)
		assert.Equal(t, openai.RoleUser, body.Messages[1].Role)
		assert.Equal(t, "Hello, from 0g user!", body.Messages[1].Content)
		assert.NotEmpty(t, gotReqID, "a request id header should be stamped")
	})

	t.Run("should stamp a fresh request id per run", func(t *testing.T) {
		var reqIDs []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqIDs = append(reqIDs, r.Header.Get("X-Request-ID"))
			w.Write(completionJSON("ok"))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)
		require.NoError(t, runner.Run(context.Background(), defaultOptions()))
		require.NoError(t, runner.Run(context.Background(), defaultOptions()))

		require.Len(t, reqIDs, 2)
		assert.NotEqual(t, reqIDs[0], reqIDs[1])
	})
}

func testRunEmptyChoices(t *testing.T) {
	t.Run("should fail with a named error and write nothing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[]}`))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)

		err := runner.Run(context.Background(), defaultOptions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyChoices)
		assert.Empty(t, out.String())
	})
}

func testRunUpstreamError(t *testing.T) {
	t.Run("should fail on 401 without printing a content line", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key","type":"authentication_error"}}`))
		}))
		defer server.Close()

		var out bytes.Buffer
		runner := newRunnerAgainst(server.URL, &out)

		err := runner.Run(context.Background(), defaultOptions())
		require.Error(t, err)
		assert.Empty(t, out.String())

		var cerr *inference.ClientError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, inference.ErrCategoryAuth, cerr.Category)
	})
}

func testRunIdempotency(t *testing.T) {
	t.Run("should produce identical output across runs against the same upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(completionJSON("你好"))
		}))
		defer server.Close()

		var first, second bytes.Buffer
		require.NoError(t, newRunnerAgainst(server.URL, &first).Run(context.Background(), defaultOptions()))
		require.NoError(t, newRunnerAgainst(server.URL, &second).Run(context.Background(), defaultOptions()))

		assert.Equal(t, first.String(), second.String())
		assert.Equal(t, "你好\n", second.String())
	})
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func testRunWriterFailure(t *testing.T) {
	t.Run("should surface output write failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(completionJSON("ok"))
		}))
		defer server.Close()

		client := inference.NewHTTPClient(inference.HTTPClientConfig{BaseURL: server.URL})
		runner := NewRunner(client, failingWriter{})

		err := runner.Run(context.Background(), defaultOptions())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write")
	})
}
