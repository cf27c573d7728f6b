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

package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a transport failure so higher layers can branch on it
// without string-matching error text.
type Kind string

const (
	// KindNetwork is a connection-level failure: refused, reset, DNS.
	KindNetwork Kind = "NETWORK"
	// KindTimeout is a deadline exceeded before the response arrived.
	KindTimeout Kind = "TIMEOUT"
	// KindCancelled means the caller's context was cancelled.
	KindCancelled Kind = "CANCELLED"
	// KindNotFound is an HTTP 404 on the requested resource.
	KindNotFound Kind = "REMOTE_404"
	// KindRemote is any other non-2xx response from the backend.
	KindRemote Kind = "REMOTE"
	// KindParse means the response body could not be decoded.
	KindParse Kind = "PARSE_ERROR"
	// KindUnknown is a failure we could not classify.
	KindUnknown Kind = "UNKNOWN"
)

// ErrNoBaseURL is returned when the backend base URL is not configured.
var ErrNoBaseURL = errors.New("api base URL is not configured")

// Error is the transport error type. StatusCode is zero when the request
// never produced a response.
type Error struct {
	Kind       Kind
	StatusCode int
	Endpoint   Endpoint
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned %d: %v", e.Kind, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from an error chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether the error is a 404 from the backend.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsRetryable reports whether the failure is worth retrying with backoff.
// Cancellation, 404s and parse failures are not.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout, KindRemote:
		return true
	default:
		return false
	}
}

// classifyTransportError maps a request-phase failure (no response) onto a Kind.
func classifyTransportError(endpoint Endpoint, err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCancelled, Endpoint: endpoint, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Endpoint: endpoint, Err: err}
		}
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	return &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
}

// classifyStatusError maps a non-2xx response onto a Kind.
func classifyStatusError(endpoint Endpoint, statusCode int, body []byte) *Error {
	kind := KindRemote
	if statusCode == http.StatusNotFound {
		kind = KindNotFound
	}
	detail := fmt.Errorf("unexpected status")
	if len(body) > 0 {
		const maxBodyInError = 512
		if len(body) > maxBodyInError {
			body = body[:maxBodyInError]
		}
		detail = fmt.Errorf("unexpected status, body: %s", string(body))
	}
	return &Error{Kind: kind, StatusCode: statusCode, Endpoint: endpoint, Err: detail}
}
