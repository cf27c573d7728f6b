// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package http is the transport layer for the ops backend API. It wraps a
// shared HTTP/1.1 client with typed generic requesters, latency tracking
// and an error taxonomy the higher layers branch on.
package http

import (
	"crypto/tls"
	"net/http"
	"sync"
	"time"
)

// Config carries the per-deployment connection parameters. Callers thread
// one Config through all requesters instead of a client struct because the
// requesters are generic functions (methods cannot have type parameters).
type Config struct {
	// BaseURL is the backend origin, e.g. "https://ops.example.com".
	// An empty BaseURL means the backend is not configured; requesters
	// fail fast with ErrNoBaseURL.
	BaseURL string

	// InsecureTLS skips certificate verification. Lab backends run with
	// self-signed certificates more often than not.
	InsecureTLS bool
}

var (
	clientInstance *http.Client
	clientOnce     sync.Once
)

// GetClient returns the shared HTTP client. Some proxies in operator
// networks mangle HTTP/2 streams, so the client is pinned to HTTP/1.1.
// The overall timeout is a backstop; per-request deadlines come from the
// caller's context.
func GetClient(insecureTLS bool) *http.Client {
	clientOnce.Do(func() {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: insecureTLS,
			},
			ForceAttemptHTTP2: false,
			TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
		}
		clientInstance = &http.Client{
			Transport: transport,
			Timeout:   90 * time.Second,
		}
	})
	return clientInstance
}
