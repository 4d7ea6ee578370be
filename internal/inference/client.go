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

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"k8s.io/klog/v2"

	"github.com/longcipher/0g-chat/internal/openai"
	"github.com/longcipher/0g-chat/internal/util/logging"
	utls "github.com/longcipher/0g-chat/internal/util/tls"
)

// ChatCompletionsPath is the chat-completions convention path, appended to
// the configured base URL.
const ChatCompletionsPath = "/v1/chat/completions"

// HTTPClient submits chat-completion requests to an OpenAI-compatible
// HTTP endpoint.
type HTTPClient struct {
	client *resty.Client
}

// HTTPClientConfig holds configuration for the HTTP client
type HTTPClientConfig struct {
	BaseURL         string        // Base URL of the inference endpoint (e.g., "https://inference.example.com")
	Timeout         time.Duration // Request timeout (default: 5 minutes)
	MaxIdleConns    int           // Maximum idle connections (default: 100)
	IdleConnTimeout time.Duration // Idle connection timeout (default: 90 seconds)
	APIKey          string        // API key sent as a bearer token

	// TLS configuration (optional)
	TLSInsecureSkipVerify bool              // Skip TLS certificate verification (testing only)
	TLSCertificates       utls.Certificates // Custom CA and/or mTLS client pair
}

// ChatRequest pairs the wire-level request parameters with a per-call
// request ID, propagated upstream as the X-Request-ID header.
type ChatRequest struct {
	RequestID string
	Params    *openai.ChatCompletionRequest
}

// ChatResponse is a decoded completion plus the raw body it was decoded from.
type ChatResponse struct {
	RequestID  string
	Completion *openai.ChatCompletionResponse
	Raw        []byte
}

// NewHTTPClient creates a new HTTP-based inference client
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	// Set defaults for HTTP client
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	// Bearer auth: adds "Authorization: Bearer <token>" to all requests
	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	// Configure transport - start with Go's secure defaults (http.DefaultTransport)
	// This gives us: TLS 1.2+, system root CAs, certificate verification, proper timeouts
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = config.MaxIdleConns
	transport.MaxIdleConnsPerHost = config.MaxIdleConns
	transport.IdleConnTimeout = config.IdleConnTimeout

	if config.TLSInsecureSkipVerify || !config.TLSCertificates.IsEmpty() {
		tlsConfig, err := utls.GetClientTlsConfig(config.TLSInsecureSkipVerify, config.TLSCertificates)
		if err != nil {
			klog.Errorf("Failed to build TLS config: %v", err)
			// Fall back to default (system root CAs)
		} else {
			if tlsConfig.InsecureSkipVerify {
				klog.Warning("TLS certificate verification is disabled - this is insecure and should only be used for testing")
			}
			transport.TLSClientConfig = tlsConfig
		}
	}
	// Otherwise, TLSClientConfig stays nil = Go uses system root CAs + TLS 1.2+ defaults

	client.SetTransport(transport)

	return &HTTPClient{
		client: client,
	}
}

// Complete makes a single synchronous chat-completion request. The call
// blocks until the upstream responds, the configured timeout fires, or ctx
// is cancelled. There is no retry: a failure is returned to the caller as-is.
func (c *HTTPClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, *ClientError) {
	if req == nil || req.Params == nil {
		return nil, &ClientError{
			Category: ErrCategoryInvalidReq,
			Message:  "request cannot be nil",
		}
	}
	if req.Params.Model == "" {
		return nil, &ClientError{
			Category: ErrCategoryInvalidReq,
			Message:  "model cannot be empty",
		}
	}
	if len(req.Params.Messages) == 0 {
		return nil, &ClientError{
			Category: ErrCategoryInvalidReq,
			Message:  "messages cannot be empty",
		}
	}

	restyReq := c.client.R().SetContext(ctx)

	if req.RequestID != "" {
		restyReq.SetHeader("X-Request-ID", req.RequestID)
	}

	// resty handles JSON marshaling
	restyReq.SetBody(req.Params)

	klog.V(logging.DEBUG).Infof("Sending chat completion request to %s with request_id=%s, model=%s",
		ChatCompletionsPath, req.RequestID, req.Params.Model)

	resp, err := restyReq.Post(ChatCompletionsPath)

	// Handle request-level errors (network, timeout, etc.)
	if err != nil {
		return c.handleRequestError(ctx, err, req)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode(), resp.Body())
	}

	var completion openai.ChatCompletionResponse
	if jsonErr := json.Unmarshal(resp.Body(), &completion); jsonErr != nil {
		klog.V(logging.INFO).Infof("Failed to unmarshal response for request_id=%s: %v",
			req.RequestID, jsonErr)
		return nil, &ClientError{
			Category: ErrCategoryResponse,
			Message:  fmt.Sprintf("failed to decode completion response: %v", jsonErr),
			RawError: jsonErr,
		}
	}

	klog.V(logging.DEBUG).Infof("Received successful response for request_id=%s, status=%d, body_size=%d",
		req.RequestID, resp.StatusCode(), len(resp.Body()))

	return &ChatResponse{
		RequestID:  req.RequestID,
		Completion: &completion,
		Raw:        resp.Body(),
	}, nil
}

// handleRequestError processes request-level errors (network, timeout, cancellation)
func (c *HTTPClient) handleRequestError(ctx context.Context, err error, req *ChatRequest) (*ChatResponse, *ClientError) {
	if errors.Is(ctx.Err(), context.Canceled) {
		klog.V(logging.INFO).Infof("Request cancelled for request_id=%s", req.RequestID)
		return nil, &ClientError{
			Category: ErrCategoryUnknown,
			Message:  "request cancelled",
			RawError: err,
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		klog.V(logging.INFO).Infof("Request timeout for request_id=%s", req.RequestID)
		return nil, &ClientError{
			Category: ErrCategoryServer,
			Message:  "request timeout",
			RawError: err,
		}
	}

	klog.V(logging.INFO).Infof("Request failed with network error for request_id=%s: %v", req.RequestID, err)
	return nil, &ClientError{
		Category: ErrCategoryServer,
		Message:  fmt.Sprintf("failed to execute request: %v", err),
		RawError: err,
	}
}

// handleErrorResponse parses an error response body and maps it to a ClientError
func (c *HTTPClient) handleErrorResponse(statusCode int, body []byte) *ClientError {
	// Try to parse OpenAI-style error response
	var errorResp openai.ErrorEnvelope

	message := string(body)
	if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
		message = errorResp.Error.Message
	}

	category := c.mapStatusCodeToCategory(statusCode)

	klog.V(logging.INFO).Infof("Chat completion request failed with status=%d, category=%s, message=%s",
		statusCode, category, message)

	return &ClientError{
		Category: category,
		Message:  fmt.Sprintf("HTTP %d: %s", statusCode, message),
		RawError: fmt.Errorf("status code: %d, body: %s", statusCode, string(body)),
	}
}

// mapStatusCodeToCategory maps HTTP status codes to error categories
func (c *HTTPClient) mapStatusCodeToCategory(statusCode int) ErrorCategory {
	switch statusCode {
	case http.StatusBadRequest: // 400
		return ErrCategoryInvalidReq
	case http.StatusUnauthorized, http.StatusForbidden: // 401, 403
		return ErrCategoryAuth
	case http.StatusTooManyRequests: // 429
		return ErrCategoryRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout: // 500, 502, 503, 504
		return ErrCategoryServer
	default:
		if statusCode >= 500 {
			return ErrCategoryServer
		}
		return ErrCategoryUnknown
	}
}
