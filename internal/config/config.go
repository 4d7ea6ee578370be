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

// The chat runner's configuration definitions.

package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted for the API key, in order. The key is
// never read from a source literal or written to logs.
const (
	APIKeyEnvVar         = "ZG_API_KEY"
	APIKeyFallbackEnvVar = "OPENAI_API_KEY"
)

type Config struct {
	// BaseURL is the root of the OpenAI-compatible endpoint; the
	// /v1/chat/completions path is appended by the client.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the bearer token. Left out of JSON serialization so a dumped
	// config never leaks it; normally sourced from the environment.
	APIKey string `json:"-" yaml:"api_key" mapstructure:"api_key"`

	Model        string  `json:"model" yaml:"model" mapstructure:"model"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt" mapstructure:"system_prompt"`
	Prompt       string  `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Temperature  float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MetricsAddress enables the observability listener when non-empty.
	MetricsAddress string `json:"metrics_address" yaml:"metrics_address" mapstructure:"metrics_address"`

	// TLS configuration (optional)
	TLSInsecureSkipVerify bool   `json:"tls_insecure_skip_verify" yaml:"tls_insecure_skip_verify" mapstructure:"tls_insecure_skip_verify"`
	TLSCACertFile         string `json:"tls_ca_cert_file" yaml:"tls_ca_cert_file" mapstructure:"tls_ca_cert_file"`
	TLSClientCertFile     string `json:"tls_client_cert_file" yaml:"tls_client_cert_file" mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile      string `json:"tls_client_key_file" yaml:"tls_client_key_file" mapstructure:"tls_client_key_file"`
}

// LoadFromYAML loads the configuration from a YAML file on top of the
// values already present.
func (c *Config) LoadFromYAML(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return err
	}
	return nil
}

// LoadAPIKeyFromEnv fills APIKey from the environment when the config file
// did not provide one.
func (c *Config) LoadAPIKeyFromEnv() {
	if c.APIKey != "" {
		return
	}
	if key := os.Getenv(APIKeyEnvVar); key != "" {
		c.APIKey = key
		return
	}
	c.APIKey = os.Getenv(APIKeyFallbackEnvVar)
}

// Validate reports configuration errors before any network attempt.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required: set %s (or %s) or api_key in the config file",
			APIKeyEnvVar, APIKeyFallbackEnvVar)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url %q is not a valid URL: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must use http or https", c.BaseURL)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v is outside the supported range [0, 2]", c.Temperature)
	}
	if c.Prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// NewConfig returns a new Config with default values. The defaults reproduce
// the historical single-shot invocation; everything is overridable via config
// file or flags.
func NewConfig() *Config {
	return &Config{
		BaseURL:        "https://176f7ae0891796d17e505edcb4a9a5177bd59b4b-3000.dstack-prod5.phala.network",
		Model:          "phala/deepseek-r1-70b",
		SystemPrompt:   "you are a helpful assistant that speaks Chinese.",
		Prompt:         "Hello, from 0g user!",
		Temperature:    0.9,
		Timeout:        5 * time.Minute,
		MetricsAddress: "",
	}
}
