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

import "fmt"

// Endpoint is a path below the API base URL.
type Endpoint string

const (
	// Preference endpoints.
	PreferenceSettingsEndpoint Endpoint = "/api/preference/settings"
	PreferenceExportEndpoint   Endpoint = "/api/preference/export"
	PreferenceImportEndpoint   Endpoint = "/api/preference/import"

	// Analysis result endpoints. ResultsV2 is the authoritative paginated
	// surface; the unversioned one survives for older backends.
	AnalysisResultsV2Endpoint Endpoint = "/api/analysis/results-v2"
	AnalysisResultsEndpoint   Endpoint = "/api/analysis/results"

	// Async analysis job endpoints.
	AsyncAnalysisStartEndpoint Endpoint = "/api/async-analysis/start"
)

// AnalysisResultEndpoint returns the detail endpoint for a single result.
func AnalysisResultEndpoint(id string) Endpoint {
	return Endpoint(fmt.Sprintf("%s/%s", AnalysisResultsEndpoint, id))
}

// AsyncAnalysisStatusEndpoint returns the status endpoint for a job.
func AsyncAnalysisStatusEndpoint(analysisID string) Endpoint {
	return Endpoint(fmt.Sprintf("/api/async-analysis/status/%s", analysisID))
}

// AsyncAnalysisResultEndpoint returns the result endpoint for a finished job.
func AsyncAnalysisResultEndpoint(analysisID string) Endpoint {
	return Endpoint(fmt.Sprintf("/api/async-analysis/result/%s", analysisID))
}

// AsyncAnalysisCancelEndpoint returns the cancel endpoint for a job.
func AsyncAnalysisCancelEndpoint(analysisID string) Endpoint {
	return Endpoint(fmt.Sprintf("/api/async-analysis/cancel/%s", analysisID))
}
