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

package models

// AnalysisRequest is the payload submitted to start an async analysis.
// Time windows are `YYYY-MM-DD HH:MM` strings in the backend's timezone.
type AnalysisRequest struct {
	NeID       string   `json:"ne_id"`
	CellID     string   `json:"cell_id"`
	SwName     string   `json:"swname,omitempty"`
	Time1Start string   `json:"time1_start"`
	Time1End   string   `json:"time1_end"`
	Time2Start string   `json:"time2_start"`
	Time2End   string   `json:"time2_end"`
	Pegs       []string `json:"pegs,omitempty"`
}

// AnalysisStartResponse acknowledges job submission.
type AnalysisStartResponse struct {
	AnalysisID string `json:"analysis_id"`
}

// JobStatus is the server-side lifecycle state of an analysis job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobStatusResponse is one poll answer for a running job.
type JobStatusResponse struct {
	Status       JobStatus       `json:"status"`
	Progress     float64         `json:"progress"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ResultData   *AnalysisResult `json:"result_data,omitempty"`
}

// JobResultResponse carries the terminal artifact of a completed job.
type JobResultResponse struct {
	Result *AnalysisResult `json:"result"`
}
