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
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/api/errorhandler"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/encoding/safejson"
	"go.uber.org/zap"
)

// GetRequest does a GET to the endpoint and decodes the JSON response into R.
// A nil result with a nil error means the backend answered 2xx with an empty
// body.
func GetRequest[R any](ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, logger *zap.SugaredLogger) (*R, int, error) {
	bodyBytes, statusCode, err := doRequest(ctx, cfg, http.MethodGet, endpoint, query, nil, "", logger)
	if err != nil {
		return nil, statusCode, err
	}
	return decodeBody[R](endpoint, bodyBytes, statusCode)
}

// PostRequest marshals data as JSON, POSTs it and decodes the response into R.
func PostRequest[R any, T any](ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, data *T, logger *zap.SugaredLogger) (*R, int, error) {
	body, err := safejson.Marshal(data)
	if err != nil {
		return nil, 0, &Error{Kind: KindParse, Endpoint: endpoint, Err: err}
	}
	bodyBytes, statusCode, err := doRequest(ctx, cfg, http.MethodPost, endpoint, query, body, "application/json", logger)
	if err != nil {
		return nil, statusCode, err
	}
	return decodeBody[R](endpoint, bodyBytes, statusCode)
}

// PutRequest marshals data as JSON, PUTs it and decodes the response into R.
func PutRequest[R any, T any](ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, data *T, logger *zap.SugaredLogger) (*R, int, error) {
	body, err := safejson.Marshal(data)
	if err != nil {
		return nil, 0, &Error{Kind: KindParse, Endpoint: endpoint, Err: err}
	}
	bodyBytes, statusCode, err := doRequest(ctx, cfg, http.MethodPut, endpoint, query, body, "application/json", logger)
	if err != nil {
		return nil, statusCode, err
	}
	return decodeBody[R](endpoint, bodyBytes, statusCode)
}

// DeleteRequest does a DELETE to the endpoint, discarding any response body.
func DeleteRequest(ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, logger *zap.SugaredLogger) (int, error) {
	_, statusCode, err := doRequest(ctx, cfg, http.MethodDelete, endpoint, query, nil, "", logger)
	return statusCode, err
}

// GetRaw does a GET and returns the raw response body. Used for downloads
// whose payload is not JSON, like preference exports.
func GetRaw(ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, logger *zap.SugaredLogger) ([]byte, int, error) {
	return doRequest(ctx, cfg, http.MethodGet, endpoint, query, nil, "", logger)
}

// PostMultipartFile uploads a single file as a multipart form POST and
// decodes the response into R.
func PostMultipartFile[R any](ctx context.Context, cfg Config, endpoint Endpoint, query url.Values, fieldName, fileName string, content []byte, logger *zap.SugaredLogger) (*R, int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
	}

	bodyBytes, statusCode, err := doRequest(ctx, cfg, http.MethodPost, endpoint, query, buf.Bytes(), writer.FormDataContentType(), logger)
	if err != nil {
		return nil, statusCode, err
	}
	return decodeBody[R](endpoint, bodyBytes, statusCode)
}

// setupClientTrace returns an http trace recording time to first byte.
func setupClientTrace(requestStart *time.Time, firstByte *time.Duration) *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			*firstByte = time.Since(*requestStart)
		},
	}
}

// doRequest is the shared request core: build, trace, send, classify.
func doRequest(ctx context.Context, cfg Config, method string, endpoint Endpoint, query url.Values, body []byte, contentType string, logger *zap.SugaredLogger) (responseBody []byte, statusCode int, responseErr error) {
	if cfg.BaseURL == "" {
		return nil, 0, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: ErrNoBaseURL}
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
		defer cancel()
	}

	requestURL := cfg.BaseURL + string(endpoint)
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, 0, &Error{Kind: KindUnknown, Endpoint: endpoint, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	var requestStart time.Time
	var timeTillFirstByte time.Duration
	trace := setupClientTrace(&requestStart, &timeTillFirstByte)

	requestStart = time.Now()
	response, err := GetClient(cfg.InsecureTLS).Do(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
	if err != nil {
		// The caller's context takes precedence over whatever the
		// transport wrapped around it.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		if response != nil {
			return nil, response.StatusCode, classifyTransportError(endpoint, err)
		}
		return nil, 0, classifyTransportError(endpoint, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			if responseErr != nil {
				logger.Errorf("Error closing response body: %v", err)
			} else {
				responseErr = fmt.Errorf("error closing response body: %w", err)
			}
		}
	}()

	now := time.Now()
	latenciesFRB.Set(now, timeTillFirstByte)
	latenciesReal.Set(now, time.Since(requestStart))

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, classifyTransportError(endpoint, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 399 {
		apiErr := classifyStatusError(endpoint, response.StatusCode, bodyBytes)
		// 404s are an expected answer on first contact (no remote slot yet,
		// job already reaped); they never count towards error reporting.
		if apiErr.Kind != KindNotFound {
			errorhandler.ReportHTTPErrors(apiErr, response.StatusCode, string(endpoint), method, logger)
		}
		return bodyBytes, response.StatusCode, apiErr
	}

	errorhandler.ResetErrorCounter(string(endpoint))
	return bodyBytes, response.StatusCode, nil
}

func decodeBody[R any](endpoint Endpoint, bodyBytes []byte, statusCode int) (*R, int, error) {
	if len(bodyBytes) == 0 {
		return nil, statusCode, nil
	}
	var typedResult R
	if err := safejson.Unmarshal(bodyBytes, &typedResult); err != nil {
		return nil, statusCode, &Error{Kind: KindParse, StatusCode: statusCode, Endpoint: endpoint, Err: err}
	}
	return &typedResult, statusCode, nil
}
