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

// Prometheus metrics for chat completion requests.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// labels definition
const (
	// result labels
	ResultSuccess = "success"
	ResultFailed  = "failed"

	// reason label used when a request succeeds
	ReasonNone = "none"
)

var (
	// number of chat completion requests attempted so far
	chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat completion requests",
		}, []string{"result", "reason"},
	)

	// duration of a single chat completion round trip
	chatRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_request_duration_seconds",
			Help: "Duration of chat completion requests in seconds",
			// Bucket 1: ~ 0.1s
			// Bucket 2: ~ 0.2s
			// ...
			// Bucket 13: ~ 409.6s (approx. 6.8m)
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 13),
		}, []string{"model"},
	)

	// tokens reported in the usage block of completions
	chatTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_tokens_total",
			Help: "Total tokens reported by the upstream, by kind",
		}, []string{"model", "kind"},
	)
)

func init() {
	prometheus.MustRegister(chatRequests)
	prometheus.MustRegister(chatRequestDuration)
	prometheus.MustRegister(chatTokens)
}

// Recorder funcs

// RecordRequest increments the request counter. reason is ReasonNone for a
// success, otherwise the error category.
func RecordRequest(result string, reason string) {
	chatRequests.WithLabelValues(result, reason).Inc()
}

// RecordRequestDuration observes the time taken by a completion round trip.
func RecordRequestDuration(duration time.Duration, model string) {
	chatRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordUsage adds the upstream-reported token counts for a completion.
func RecordUsage(model string, promptTokens, completionTokens int) {
	chatTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	chatTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// NewMetricsHandler exposes the default registry for the optional
// observability listener.
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}
