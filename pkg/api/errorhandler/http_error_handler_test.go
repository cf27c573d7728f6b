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

package errorhandler_test

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/api/errorhandler"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
)

var _ = Describe("ReportHTTPErrors", func() {

	var testErr error

	BeforeEach(func() {
		testErr = errors.New("backend unhappy")
	})

	AfterEach(func() {
		errorhandler.ResetErrorCounter("/api/test")
	})

	It("suppresses transient errors below the threshold", func() {
		log := logger.For(logger.ComponentAPIClient)
		for i := 0; i < 9; i++ {
			reported := errorhandler.ReportHTTPErrors(testErr, http.StatusServiceUnavailable, "/api/test", http.MethodGet, log)
			Expect(reported).To(BeFalse())
		}
	})

	It("escalates transient errors once the threshold is reached", func() {
		log := logger.For(logger.ComponentAPIClient)
		var reported bool
		for i := 0; i < 10; i++ {
			reported = errorhandler.ReportHTTPErrors(testErr, http.StatusServiceUnavailable, "/api/test", http.MethodGet, log)
		}
		Expect(reported).To(BeTrue())
	})

	It("reports permanent errors immediately", func() {
		log := logger.For(logger.ComponentAPIClient)
		reported := errorhandler.ReportHTTPErrors(testErr, http.StatusUnauthorized, "/api/test", http.MethodGet, log)
		Expect(reported).To(BeTrue())
	})

	It("starts counting again after a reset", func() {
		log := logger.For(logger.ComponentAPIClient)
		for i := 0; i < 9; i++ {
			errorhandler.ReportHTTPErrors(testErr, http.StatusBadGateway, "/api/test", http.MethodGet, log)
		}
		errorhandler.ResetErrorCounter("/api/test")
		reported := errorhandler.ReportHTTPErrors(testErr, http.StatusBadGateway, "/api/test", http.MethodGet, log)
		Expect(reported).To(BeFalse())
	})
})
