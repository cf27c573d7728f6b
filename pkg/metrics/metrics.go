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

// Package metrics holds the prometheus instrumentation for the console
// core: sync engine health, result fetch timings and job polling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "ran"
	subsystem = "console"

	syncAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_attempts_total",
			Help:      "Total number of settings sync attempts",
		},
	)

	syncFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_failures_total",
			Help:      "Total number of failed settings sync attempts",
		},
	)

	engineState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sync_engine_state",
			Help:      "Current sync engine state (0=idle, 1=polling, 2=syncing, 3=waiting, 4=offline, 5=error, -1=unknown)",
		},
	)

	// Error counter by component.
	errorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors encountered by component",
		},
		[]string{"component"},
	)

	// Result fetch timing per view.
	fetchDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "result_fetch_duration_milliseconds",
			Help:      "Time taken to fetch a result page (in milliseconds)",
			Objectives: map[float64]float64{
				0.5:  0.01,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.01,
			},
		},
		[]string{"view"},
	)

	// Query requests by view and outcome (committed or superseded).
	queryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "query_requests_total",
			Help:      "Total result list requests by view and outcome",
		},
		[]string{"view", "outcome"},
	)

	jobPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_polls_total",
			Help:      "Total number of async analysis status polls",
		},
	)
)

// Query request outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// IncSyncAttempts counts one sync attempt.
func IncSyncAttempts() {
	syncAttemptsTotal.Inc()
}

// IncSyncFailures counts one failed sync attempt.
func IncSyncFailures() {
	syncFailuresTotal.Inc()
}

// UpdateEngineState exposes the sync engine state as a numeric gauge.
func UpdateEngineState(state string) {
	engineState.Set(engineStateValue(state))
}

func engineStateValue(state string) float64 {
	switch state {
	case "idle":
		return 0
	case "polling":
		return 1
	case "syncing":
		return 2
	case "waiting":
		return 3
	case "offline":
		return 4
	case "error":
		return 5
	default:
		return -1
	}
}

// IncErrorCount increments the error counter for a component.
func IncErrorCount(component string) {
	errorCounter.WithLabelValues(component).Inc()
}

// ObserveFetchTime records the time taken to fetch a result page.
func ObserveFetchTime(view string, duration time.Duration) {
	fetchDuration.WithLabelValues(view).Observe(float64(duration.Milliseconds()))
}

// IncQueryRequest counts a result list request with its outcome.
func IncQueryRequest(view, outcome string) {
	queryRequestsTotal.WithLabelValues(view, outcome).Inc()
}

// IncJobPolls counts one job status poll.
func IncJobPolls() {
	jobPollsTotal.Inc()
}
