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

// Package models holds the wire structs exchanged with the analysis backend.
// Field names follow the backend's snake_case JSON contract.
package models

// ChoiStatus is the algorithmic verdict attached to an analysis.
type ChoiStatus string

const (
	ChoiStatusNormal   ChoiStatus = "normal"
	ChoiStatusWarning  ChoiStatus = "warning"
	ChoiStatusCritical ChoiStatus = "critical"
)

// ChoiResult is the algorithmic verdict of one N-1/N comparison.
type ChoiResult struct {
	Status  ChoiStatus `json:"status"`
	Score   float64    `json:"score"`
	Message string     `json:"message"`
}

// LLMAnalysis is the model-generated assessment of an analysis run.
type LLMAnalysis struct {
	Summary         string   `json:"summary"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// PegComparison compares one PEG counter between the reference window (N-1)
// and the current window (N).
type PegComparison struct {
	PegName    string   `json:"peg_name"`
	ValueN1    *float64 `json:"value_n1"`
	ValueN     *float64 `json:"value_n"`
	Delta      *float64 `json:"delta"`
	DeltaPct   *float64 `json:"delta_pct"`
	Rsd        *float64 `json:"rsd,omitempty"`
	IsDegraded bool     `json:"is_degraded"`
}

// AnalysisResult is one stored analysis verdict. The core treats it as
// read-only; only the listed fields are interpreted.
type AnalysisResult struct {
	ID             string          `json:"id"`
	NeID           string          `json:"ne_id"`
	CellID         string          `json:"cell_id"`
	SwName         string          `json:"swname"`
	RelVer         string          `json:"rel_ver,omitempty"`
	CreatedAt      string          `json:"created_at"`
	ChoiResult     *ChoiResult     `json:"choi_result,omitempty"`
	LLMAnalysis    *LLMAnalysis    `json:"llm_analysis,omitempty"`
	PegComparisons []PegComparison `json:"peg_comparisons,omitempty"`
}

// ResultPage is one page of the analysis result list.
type ResultPage struct {
	Items   []AnalysisResult `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
	HasNext bool             `json:"has_next"`
}
