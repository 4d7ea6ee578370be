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

// The entry point for the single-shot chat CLI.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/longcipher/0g-chat/internal/chat"
	"github.com/longcipher/0g-chat/internal/config"
	"github.com/longcipher/0g-chat/internal/inference"
	"github.com/longcipher/0g-chat/internal/metrics"
	utls "github.com/longcipher/0g-chat/internal/util/tls"
)

func main() {
	// initialize klog
	klog.InitFlags(nil)
	defer klog.Flush()

	// load configuration & logging setup
	cfg := config.NewConfig()
	fs := flag.NewFlagSet("0g-chat", flag.ExitOnError)

	cfgFilePath := fs.String("config", "", "Path to configuration file")
	baseURL := fs.String("base-url", "", "Base URL of the OpenAI-compatible endpoint")
	model := fs.String("model", "", "Model identifier")
	system := fs.String("system", "", "System message fixing the assistant persona")
	prompt := fs.String("prompt", "", "User prompt to send")
	temperature := fs.Float64("temperature", -1, "Sampling temperature in [0, 2]")
	timeout := fs.Duration("timeout", 0, "Request timeout")
	metricsAddress := fs.String("metrics-address", "", "Address for the observability listener (disabled when empty)")
	klog.InitFlags(fs)
	fs.Parse(os.Args[1:])

	if *cfgFilePath != "" {
		if err := cfg.LoadFromYAML(*cfgFilePath); err != nil {
			klog.ErrorS(err, "Failed to load config file", "path", *cfgFilePath)
			os.Exit(1)
		}
	}

	// flags override config file values
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *system != "" {
		cfg.SystemPrompt = *system
	}
	if *prompt != "" {
		cfg.Prompt = *prompt
	}
	if *temperature >= 0 {
		cfg.Temperature = *temperature
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *metricsAddress != "" {
		cfg.MetricsAddress = *metricsAddress
	}

	// the secret is never a flag: environment or config file only
	cfg.LoadAPIKeyFromEnv()

	// configuration errors are reported before any network attempt
	if err := cfg.Validate(); err != nil {
		klog.ErrorS(err, "Invalid configuration")
		os.Exit(1)
	}

	// setup context with graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 2)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signalChan
		klog.InfoS("Received shutdown signal, cancelling in-flight request...", "signal", sig)
		cancel() // abort the blocking completion call

		sig = <-signalChan
		klog.InfoS("Received second shutdown signal, forcing shutdown...", "signal", sig)
		os.Exit(1) // force exit immediately for second signal
	}()

	// optional metrics endpoint (background goroutine), useful when the tool
	// is invoked in a loop by a supervisor
	if cfg.MetricsAddress != "" {
		go func() {
			m := http.NewServeMux()

			m.Handle("/metrics", metrics.NewMetricsHandler())
			m.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			klog.InfoS("Starting observability server", "address", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, m); err != nil {
				klog.ErrorS(err, "Observability server failed")
			}
		}()
	}

	client := inference.NewHTTPClient(inference.HTTPClientConfig{
		BaseURL:               cfg.BaseURL,
		Timeout:               cfg.Timeout,
		APIKey:                cfg.APIKey,
		TLSInsecureSkipVerify: cfg.TLSInsecureSkipVerify,
		TLSCertificates: utls.Certificates{
			CertFile:   cfg.TLSClientCertFile,
			KeyFile:    cfg.TLSClientKeyFile,
			CaCertFile: cfg.TLSCACertFile,
		},
	})

	runner := chat.NewRunner(client, os.Stdout)

	klog.V(3).InfoS("Submitting chat completion", "model", cfg.Model, "timeout", cfg.Timeout.String())
	start := time.Now()
	if err := runner.Run(ctx, chat.Options{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		Prompt:       cfg.Prompt,
		Temperature:  cfg.Temperature,
	}); err != nil {
		klog.ErrorS(err, "Chat completion failed", "elapsed", time.Since(start).String())
		klog.Flush()
		os.Exit(1)
	}
	klog.V(3).InfoS("Chat completion succeeded", "elapsed", time.Since(start).String())
}
