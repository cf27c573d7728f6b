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

// Package errorhandler suppresses log noise from transient HTTP failures.
//
// The console talks to the ops backend over links that flap (VPN drops,
// backend restarts during maintenance windows). A single 503 is not worth
// an error-level log line; ten in a row on the same endpoint is. Permanent
// failures (404 on a resource that should exist, 401, protocol errors)
// are reported immediately.
package errorhandler

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"go.uber.org/zap"
)

// transientErrorCodes are status codes that commonly resolve on their own.
var transientErrorCodes = []int{
	http.StatusRequestTimeout,      // 408
	http.StatusMisdirectedRequest,  // 421
	http.StatusUnprocessableEntity, // 422
	http.StatusTooEarly,            // 425
	http.StatusTooManyRequests,     // 429
	http.StatusInternalServerError, // 500
	http.StatusBadGateway,          // 502
	http.StatusServiceUnavailable,  // 503
	http.StatusGatewayTimeout,      // 504
}

// transientErrorThreshold is the number of consecutive transient failures
// on one endpoint before we escalate to an error-level report.
const transientErrorThreshold = 10

var (
	transientErrorCountMap   = make(map[string]int)
	transientErrorCountMutex sync.Mutex
)

func isTransientError(statusCode int) bool {
	for _, code := range transientErrorCodes {
		if code == statusCode {
			return true
		}
	}
	return false
}

// ReportHTTPErrors records an HTTP failure against the endpoint, escalating
// to an error log only once the transient threshold is reached. It returns
// true when the failure was reported at error level.
func ReportHTTPErrors(err error, statusCode int, endpoint string, method string, log *zap.SugaredLogger) bool {
	if log == nil {
		log = logger.For(logger.ComponentAPIClient)
	}

	if statusCode < http.StatusBadRequest || statusCode > 599 {
		// Only report invalid codes outside the 4xx/5xx range; anything
		// else that reached us with a sub-400 code is a caller bug.
		if statusCode < http.StatusOK || statusCode >= 600 {
			log.Errorf("invalid HTTP status code %d from %s %s: %s", statusCode, method, endpoint, errMessage(err))
			return true
		}
		return false
	}

	if isTransientError(statusCode) {
		transientErrorCountMutex.Lock()
		transientErrorCountMap[endpoint]++
		count := transientErrorCountMap[endpoint]
		transientErrorCountMutex.Unlock()

		if count < transientErrorThreshold {
			log.Debugf("transient HTTP error %d from %s %s (%d/%d before escalation): %s",
				statusCode, method, endpoint, count, transientErrorThreshold, errMessage(err))
			return false
		}
		log.Errorf("persistent HTTP error %d from %s %s (%d consecutive failures): %s",
			statusCode, method, endpoint, count, errMessage(err))
		return true
	}

	log.Errorf("HTTP error %d from %s %s: %s", statusCode, method, endpoint, errMessage(err))
	return true
}

// ResetErrorCounter clears the consecutive-failure count for an endpoint.
// Call it after any successful request to that endpoint.
func ResetErrorCounter(endpoint string) {
	transientErrorCountMutex.Lock()
	defer transientErrorCountMutex.Unlock()
	delete(transientErrorCountMap, endpoint)
}

func errMessage(err error) string {
	if err == nil {
		return "<no error detail>"
	}
	return fmt.Sprintf("%v", err)
}
