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

// The chat request runner: builds one conversation, submits it, prints the
// first choice's content.

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/longcipher/0g-chat/internal/inference"
	"github.com/longcipher/0g-chat/internal/metrics"
	"github.com/longcipher/0g-chat/internal/openai"
	"github.com/longcipher/0g-chat/internal/util/logging"
)

// ErrEmptyChoices is returned when the upstream answers 200 with no choices.
// Surfacing this as a named error (rather than an index fault) is deliberate.
var ErrEmptyChoices = errors.New("completion response contained no choices")

// CompletionClient is the slice of the inference client the runner needs.
type CompletionClient interface {
	Complete(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, *inference.ClientError)
}

// Options are the per-invocation request parameters.
type Options struct {
	Model        string
	SystemPrompt string // optional; empty means no system message
	Prompt       string
	Temperature  float64
}

// Runner performs a single synchronous chat completion and writes the
// response text to out. It holds no state between runs.
type Runner struct {
	client CompletionClient
	out    io.Writer
}

func NewRunner(client CompletionClient, out io.Writer) *Runner {
	return &Runner{
		client: client,
		out:    out,
	}
}

// Run builds the conversation (system message first, then the user prompt),
// submits it, and writes choices[0].message.content plus a newline to out.
// Any failure is terminal; nothing is written to out on error.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	requestID := uuid.NewString()

	var messages []openai.ChatMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatMessage{
			Role:    openai.RoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatMessage{
		Role:    openai.RoleUser,
		Content: opts.Prompt,
	})

	params := &openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
	}

	klog.V(logging.INFO).Infof("Running chat completion request_id=%s model=%s temperature=%v",
		requestID, opts.Model, opts.Temperature)

	start := time.Now()
	resp, cerr := r.client.Complete(ctx, &inference.ChatRequest{
		RequestID: requestID,
		Params:    params,
	})
	metrics.RecordRequestDuration(time.Since(start), opts.Model)

	if cerr != nil {
		metrics.RecordRequest(metrics.ResultFailed, strings.ToLower(string(cerr.Category)))
		return fmt.Errorf("chat completion failed (request_id=%s): %w", requestID, cerr)
	}

	completion := resp.Completion
	if len(completion.Choices) == 0 {
		metrics.RecordRequest(metrics.ResultFailed, strings.ToLower(string(inference.ErrCategoryResponse)))
		return fmt.Errorf("%w (request_id=%s)", ErrEmptyChoices, requestID)
	}

	if completion.Usage != nil {
		metrics.RecordUsage(opts.Model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	}
	metrics.RecordRequest(metrics.ResultSuccess, metrics.ReasonNone)

	if _, err := fmt.Fprintln(r.out, completion.Choices[0].Message.Content); err != nil {
		return fmt.Errorf("failed to write completion output: %w", err)
	}

	klog.V(logging.DEBUG).Infof("Chat completion finished request_id=%s finish_reason=%s",
		requestID, completion.Choices[0].FinishReason)
	return nil
}
