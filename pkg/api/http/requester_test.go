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

package http_test

import (
	"context"
	"net/url"

	"github.com/h2non/gock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	apihttp "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
)

type settingsPayload struct {
	Theme    string `json:"theme"`
	PageSize int    `json:"page_size"`
}

var _ = Describe("Requester", Ordered, func() {

	const baseURL = "https://ops.example.com"

	var log *zap.SugaredLogger
	var cfg apihttp.Config

	BeforeAll(func() {
		log = logger.For(logger.ComponentAPIClient)
		cfg = apihttp.Config{BaseURL: baseURL}
		gock.InterceptClient(apihttp.GetClient(false))
	})

	AfterEach(func() {
		gock.OffAll()
	})

	Context("GetRequest", func() {
		It("decodes a JSON response into the typed result", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(200).
				JSON(map[string]any{"theme": "dark", "page_size": 50})

			result, statusCode, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(200))
			Expect(result).ToNot(BeNil())
			Expect(result.Theme).To(Equal("dark"))
			Expect(result.PageSize).To(Equal(50))
		})

		It("returns a nil result for an empty 2xx body", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(204)

			result, statusCode, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(204))
			Expect(result).To(BeNil())
		})

		It("classifies a 404 as not found", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(404)

			_, statusCode, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).To(HaveOccurred())
			Expect(statusCode).To(Equal(404))
			Expect(apihttp.IsNotFound(err)).To(BeTrue())
			Expect(apihttp.IsRetryable(err)).To(BeFalse())
		})

		It("classifies a 503 as a retryable remote error", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(503)

			_, _, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).To(HaveOccurred())
			Expect(apihttp.KindOf(err)).To(Equal(apihttp.KindRemote))
			Expect(apihttp.IsRetryable(err)).To(BeTrue())
		})

		It("classifies an undecodable body as a parse error", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(200).
				BodyString("{not json")

			_, _, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).To(HaveOccurred())
			Expect(apihttp.KindOf(err)).To(Equal(apihttp.KindParse))
		})

		It("appends query parameters to the request", func() {
			gock.New(baseURL).
				Get(string(apihttp.AnalysisResultsV2Endpoint)).
				MatchParam("page", "3").
				MatchParam("size", "20").
				Reply(200).
				JSON(map[string]any{"theme": "x"})

			query := url.Values{}
			query.Set("page", "3")
			query.Set("size", "20")
			_, statusCode, err := apihttp.GetRequest[settingsPayload](context.Background(), cfg, apihttp.AnalysisResultsV2Endpoint, query, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(200))
		})

		It("classifies context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, _, err := apihttp.GetRequest[settingsPayload](ctx, cfg, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).To(HaveOccurred())
			Expect(apihttp.KindOf(err)).To(Equal(apihttp.KindCancelled))
		})

		It("fails fast when no base URL is configured", func() {
			_, _, err := apihttp.GetRequest[settingsPayload](context.Background(), apihttp.Config{}, apihttp.PreferenceSettingsEndpoint, nil, log)
			Expect(err).To(MatchError(apihttp.ErrNoBaseURL))
		})
	})

	Context("PostRequest", func() {
		It("sends the JSON body and decodes the response", func() {
			gock.New(baseURL).
				Post(string(apihttp.AsyncAnalysisStartEndpoint)).
				MatchType("json").
				JSON(map[string]any{"theme": "light", "page_size": 10}).
				Reply(200).
				JSON(map[string]any{"theme": "light", "page_size": 10})

			data := settingsPayload{Theme: "light", PageSize: 10}
			result, _, err := apihttp.PostRequest[settingsPayload](context.Background(), cfg, apihttp.AsyncAnalysisStartEndpoint, nil, &data, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).ToNot(BeNil())
			Expect(result.Theme).To(Equal("light"))
		})
	})

	Context("PutRequest", func() {
		It("sends the JSON body to the endpoint", func() {
			gock.New(baseURL).
				Put(string(apihttp.PreferenceSettingsEndpoint)).
				Reply(200)

			data := settingsPayload{Theme: "dark"}
			_, statusCode, err := apihttp.PutRequest[settingsPayload](context.Background(), cfg, apihttp.PreferenceSettingsEndpoint, nil, &data, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(200))
		})
	})

	Context("DeleteRequest", func() {
		It("returns the status code without a body", func() {
			endpoint := apihttp.AnalysisResultEndpoint("42")
			gock.New(baseURL).
				Delete(string(endpoint)).
				Reply(200)

			statusCode, err := apihttp.DeleteRequest(context.Background(), cfg, endpoint, nil, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(200))
		})
	})

	Context("GetRaw", func() {
		It("returns the raw body bytes", func() {
			gock.New(baseURL).
				Get(string(apihttp.PreferenceExportEndpoint)).
				Reply(200).
				BodyString(`{"exported":true}`)

			body, statusCode, err := apihttp.GetRaw(context.Background(), cfg, apihttp.PreferenceExportEndpoint, nil, log)
			Expect(err).ToNot(HaveOccurred())
			Expect(statusCode).To(Equal(200))
			Expect(string(body)).To(Equal(`{"exported":true}`))
		})
	})
})
