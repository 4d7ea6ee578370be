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

// The file defines the error taxonomy for the inference client.

package inference

// ErrorCategory classifies a failed inference call. The categories separate
// caller mistakes (INVALID_REQ, AUTH_ERROR), upstream conditions (RATE_LIMIT,
// SERVER_ERROR), malformed upstream payloads (RESPONSE_ERROR) and everything
// else (UNKNOWN).
type ErrorCategory string

const (
	ErrCategoryRateLimit  ErrorCategory = "RATE_LIMIT"
	ErrCategoryServer     ErrorCategory = "SERVER_ERROR"
	ErrCategoryInvalidReq ErrorCategory = "INVALID_REQ"
	ErrCategoryAuth       ErrorCategory = "AUTH_ERROR"
	ErrCategoryResponse   ErrorCategory = "RESPONSE_ERROR"
	ErrCategoryUnknown    ErrorCategory = "UNKNOWN"
)

// ClientError is the error type returned by the inference client.
type ClientError struct {
	Category ErrorCategory
	Message  string
	RawError error // original error message
}

func (e *ClientError) Error() string {
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.RawError
}

// Transient reports whether the failure is an upstream condition that may
// clear on its own (rate limiting, server faults). This process never
// retries; the classification is surfaced for callers and metrics.
func (e *ClientError) Transient() bool {
	return e.Category == ErrCategoryRateLimit || e.Category == ErrCategoryServer
}
