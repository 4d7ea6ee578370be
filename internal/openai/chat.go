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

// The file defines the Chat Completions API data structures matching the OpenAI specification.
package openai

// https://platform.openai.com/docs/api-reference/chat

// Message roles accepted by the chat completions endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single role-tagged message in a conversation.
// Order within a request is meaningful: the system message comes first,
// followed by the user turns.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the request body POSTed to /v1/chat/completions.
type ChatCompletionRequest struct {
	// ID of the model to use.
	Model string `json:"model"`

	// The conversation so far, ordered.
	Messages []ChatMessage `json:"messages"`

	// Sampling temperature. Providers commonly accept 0.0 - 2.0; higher
	// values increase variability. Always serialized so the upstream never
	// substitutes its own default.
	Temperature float64 `json:"temperature"`

	// Maximum number of tokens to generate, 0 = provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// ChatCompletionChoice is one generated completion.
type ChatCompletionChoice struct {
	Index int `json:"index"`

	Message ChatMessage `json:"message"`

	// The reason the model stopped generating, e.g. "stop" or "length".
	FinishReason string `json:"finish_reason,omitempty"`
}

// Usage reports token accounting for the request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the response body of /v1/chat/completions.
// The only field this program consumes is Choices[0].Message.Content.
type ChatCompletionResponse struct {
	ID string `json:"id"`

	// The object type, which is always `chat.completion`.
	Object string `json:"object"`

	// The Unix timestamp (in seconds) for when the completion was created.
	Created int64 `json:"created"`

	Model string `json:"model"`

	Choices []ChatCompletionChoice `json:"choices"`

	Usage *Usage `json:"usage,omitempty"`
}

// ErrorEnvelope is the OpenAI-style error response body returned with
// non-2xx statuses.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single upstream error.
type ErrorDetail struct {
	Code    any     `json:"code,omitempty"`
	Type    string  `json:"type,omitempty"`
	Message string  `json:"message"`
	Param   *string `json:"param,omitempty"`
}
