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

// This file provides tls utilities for the outbound inference connection.

package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// Certificates names the PEM files used for the upstream TLS session.
// CertFile/KeyFile form an optional mTLS client pair, CaCertFile an
// optional private root CA.
type Certificates struct {
	Dir        string
	CertFile   string
	KeyFile    string
	CaCertFile string
}

func (c Certificates) IsEmpty() bool {
	return reflect.ValueOf(c).IsZero()
}

// GetClientTlsConfig builds a client-side *tls.Config. A nil/empty input
// yields the zero config, which keeps Go's defaults (system root CAs,
// TLS 1.2+). insecure disables certificate verification and must only be
// used against test endpoints.
func GetClientTlsConfig(insecure bool, certs Certificates) (*tls.Config, error) {
	var tlsConf tls.Config

	certFile := JoinCertPath(certs.Dir, certs.CertFile)
	keyFile := JoinCertPath(certs.Dir, certs.KeyFile)
	caCertFile := JoinCertPath(certs.Dir, certs.CaCertFile)

	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			return nil, fmt.Errorf("GetClientTlsConfig: both CertFile and KeyFile must be set for mTLS")
		}
		certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("GetClientTlsConfig: LoadX509KeyPair failed: %v", err) // pragma: allowlist secret
		}
		tlsConf.Certificates = []tls.Certificate{certificate}
	}

	if insecure {
		tlsConf.InsecureSkipVerify = true
	} else if caCertFile != "" {
		ca, err := os.ReadFile(caCertFile)
		if err != nil {
			return nil, fmt.Errorf("GetClientTlsConfig: Could not read CA certificate file: %v", err) // pragma: allowlist secret
		}
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM(ca); !ok {
			return nil, fmt.Errorf("GetClientTlsConfig: AppendCertsFromPEM failed") // pragma: allowlist secret
		}
		tlsConf.RootCAs = certPool
	}
	return &tlsConf, nil
}

// Return the cert path only when file is not empty.
func JoinCertPath(dir, file string) string {
	if len(file) > 0 {
		return filepath.Join(dir, file)
	}
	return ""
}
