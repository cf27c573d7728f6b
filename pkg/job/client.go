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

// Package job manages one long-running analysis job end-to-end: submit,
// poll, cancel, fetch the terminal artifact. One Client owns at most one
// job at a time; Reset returns it to idle after a terminal state.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/ran-console-core/internal/fsm"
	httpapi "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/metrics"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/models"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/watchdog"
)

var (
	// ErrJobActive is returned by Start while a job is not idle.
	ErrJobActive = errors.New("a job is already active, reset first")
	// ErrNotCompleted is returned by Result before the job completed.
	ErrNotCompleted = errors.New("job has not completed")
	// ErrNotTerminal is returned by Reset while the job is still live.
	ErrNotTerminal = errors.New("job is still running")
)

// Snapshot is the observable state of the client.
type Snapshot struct {
	State        string
	JobID        string
	Progress     float64
	ElapsedSec   int
	ErrorMessage string
	Result       *models.AnalysisResult
}

// Config parameterises a Client. Zero values fall back to the package
// defaults.
type Config struct {
	API             httpapi.Config
	PollInterval    time.Duration
	MaxPollFailures int
	// Dog, when set, supervises the poll loop.
	Dog watchdog.Iface
	// OnChange, when set, receives a snapshot after every change. It runs
	// on its own goroutine.
	OnChange func(Snapshot)
}

// Client drives the idle/starting/running/terminal lifecycle of one
// analysis job.
type Client struct {
	cfg     Config
	log     *zap.SugaredLogger
	machine *fsm.Machine

	mu         sync.Mutex
	jobID      string
	progress   float64
	elapsedSec int
	errMsg     string
	result     *models.AnalysisResult
	cancelPoll context.CancelFunc
	pollDone   chan struct{}
}

func NewClient(cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.JobPollInterval
	}
	if cfg.MaxPollFailures <= 0 {
		cfg.MaxPollFailures = constants.JobMaxPollFailures
	}
	log := logger.For(logger.ComponentJobClient)
	return &Client{
		cfg: cfg,
		log: log,
		machine: fsm.NewMachine(fsm.Config{
			ID:           "async-analysis",
			InitialState: StateIdle,
			Transitions:  transitions(),
		}, log),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() string {
	return c.machine.Current()
}

// Snapshot returns the observable state of the client.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start submits the analysis request. On success the client moves to
// running, begins polling and returns the job id.
func (c *Client) Start(ctx context.Context, params models.AnalysisRequest) (string, error) {
	if !c.machine.Is(StateIdle) {
		return "", ErrJobActive
	}
	if err := c.machine.SendEvent(ctx, eventStart); err != nil {
		return "", err
	}
	c.notify()

	submitCtx, cancelSubmit := context.WithTimeout(ctx, constants.AnalysisSubmitTimeout)
	resp, _, err := httpapi.PostRequest[models.AnalysisStartResponse](submitCtx, c.cfg.API, httpapi.AsyncAnalysisStartEndpoint, nil, &params, c.log)
	cancelSubmit()
	if err != nil || resp == nil || resp.AnalysisID == "" {
		if err == nil {
			err = fmt.Errorf("start response carried no analysis id")
		}
		c.fail(err)
		return "", err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.jobID = resp.AnalysisID
	c.progress = 0
	c.elapsedSec = 0
	c.errMsg = ""
	c.result = nil
	c.cancelPoll = cancel
	c.pollDone = done
	c.mu.Unlock()

	if err := c.machine.SendEvent(ctx, eventStarted); err != nil {
		cancel()
		close(done)
		return "", err
	}
	c.log.Infow("Analysis job started", "job_id", resp.AnalysisID)
	c.notify()

	go c.pollLoop(pollCtx, done, resp.AnalysisID)
	return resp.AnalysisID, nil
}

// Cancel asks the backend to stop the job and moves the client to
// cancelled regardless of the backend's answer. The transport error, if
// any, is returned for visibility.
func (c *Client) Cancel(ctx context.Context) error {
	state := c.machine.Current()
	if state != StateStarting && state != StateRunning {
		return nil
	}

	c.mu.Lock()
	jobID := c.jobID
	c.mu.Unlock()

	var postErr error
	if jobID != "" {
		_, _, postErr = httpapi.PostRequest[struct{}, struct{}](ctx, c.cfg.API, httpapi.AsyncAnalysisCancelEndpoint(jobID), nil, nil, c.log)
		if postErr != nil {
			c.log.Warnw("Cancel request failed, cancelling locally", "job_id", jobID, "error", postErr)
		}
	}

	c.stopPolling()
	if err := c.machine.SendEvent(context.Background(), eventCancel); err != nil {
		return err
	}
	c.notify()
	return postErr
}

// Result returns the terminal artifact of a completed job, fetching it
// from the backend on first call.
func (c *Client) Result(ctx context.Context) (*models.AnalysisResult, error) {
	if c.machine.Current() != StateCompleted {
		return nil, ErrNotCompleted
	}

	c.mu.Lock()
	cached := c.result
	jobID := c.jobID
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	resp, _, err := httpapi.GetRequest[models.JobResultResponse](ctx, c.cfg.API, httpapi.AsyncAnalysisResultEndpoint(jobID), nil, c.log)
	if err != nil {
		return nil, err
	}
	var result *models.AnalysisResult
	if resp != nil {
		result = resp.Result
	}

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()
	c.notify()
	return result, nil
}

// Reset returns a terminal client to idle, clearing job state. Calling it
// from a live state is an error.
func (c *Client) Reset() error {
	if !IsTerminal(c.machine.Current()) {
		return ErrNotTerminal
	}
	if err := c.machine.SendEvent(context.Background(), eventReset); err != nil {
		return err
	}

	c.mu.Lock()
	c.jobID = ""
	c.progress = 0
	c.elapsedSec = 0
	c.errMsg = ""
	c.result = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// pollLoop polls the status endpoint until the job reaches a terminal
// state, the failure budget is exhausted or the context ends. A 1 Hz
// ticker keeps elapsedSec moving while the job runs.
func (c *Client) pollLoop(ctx context.Context, done chan struct{}, jobID string) {
	defer close(done)

	var heartbeat uuid.UUID
	if c.cfg.Dog != nil {
		heartbeat = c.cfg.Dog.RegisterHeartbeat("job-poll", 3, uint64((c.cfg.PollInterval * 4).Seconds()), false)
		defer c.cfg.Dog.UnregisterHeartbeat(heartbeat)
	}

	poll := time.NewTicker(c.cfg.PollInterval)
	defer poll.Stop()
	elapsed := time.NewTicker(constants.JobElapsedTick)
	defer elapsed.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-elapsed.C:
			c.mu.Lock()
			c.elapsedSec++
			c.mu.Unlock()
			c.notify()
		case <-poll.C:
			if c.cfg.Dog != nil {
				c.cfg.Dog.ReportHeartbeatStatus(heartbeat, watchdog.HEARTBEAT_STATUS_OK)
			}
			metrics.IncJobPolls()
			status, _, err := httpapi.GetRequest[models.JobStatusResponse](ctx, c.cfg.API, httpapi.AsyncAnalysisStatusEndpoint(jobID), nil, c.log)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				c.log.Warnw("Status poll failed", "job_id", jobID, "attempt", failures, "error", err)
				if failures >= c.cfg.MaxPollFailures {
					c.fail(err)
					return
				}
				continue
			}
			failures = 0
			if status == nil {
				continue
			}

			c.mu.Lock()
			c.progress = clamp01(status.Progress)
			if status.ResultData != nil {
				c.result = status.ResultData
			}
			c.mu.Unlock()

			switch status.Status {
			case models.JobStatusCompleted:
				if err := c.machine.SendEvent(ctx, eventComplete); err == nil {
					c.log.Infow("Analysis job completed", "job_id", jobID)
				}
				c.notify()
				return
			case models.JobStatusFailed:
				c.mu.Lock()
				c.errMsg = status.ErrorMessage
				c.mu.Unlock()
				if err := c.machine.SendEvent(ctx, eventFail); err == nil {
					c.log.Warnw("Analysis job failed", "job_id", jobID, "message", status.ErrorMessage)
				}
				c.notify()
				return
			case models.JobStatusCancelled:
				_ = c.machine.SendEvent(ctx, eventCancel)
				c.notify()
				return
			default:
				c.notify()
			}
		}
	}
}

func (c *Client) fail(err error) {
	metrics.IncErrorCount(logger.ComponentJobClient)
	c.mu.Lock()
	c.errMsg = err.Error()
	c.mu.Unlock()
	if sendErr := c.machine.SendEvent(context.Background(), eventFail); sendErr != nil {
		c.log.Debugw("Failure transition refused", "error", sendErr)
	}
	c.notify()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (c *Client) stopPolling() {
	c.mu.Lock()
	cancel := c.cancelPoll
	done := c.pollDone
	c.cancelPoll = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Client) snapshotLocked() Snapshot {
	return Snapshot{
		State:        c.machine.Current(),
		JobID:        c.jobID,
		Progress:     c.progress,
		ElapsedSec:   c.elapsedSec,
		ErrorMessage: c.errMsg,
		Result:       c.result,
	}
}

func (c *Client) notify() {
	if c.cfg.OnChange == nil {
		return
	}
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	go c.cfg.OnChange(snap)
}
