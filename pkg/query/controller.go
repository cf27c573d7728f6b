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

// Package query drives one pageable, filterable view of the analysis
// result list. A generation counter makes the last issued request the only
// one allowed to commit, so stale responses never overwrite newer state.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	httpapi "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/metrics"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/models"
)

type fetchMode int

const (
	modeReplace fetchMode = iota
	modeAppend
)

// State is the observable snapshot of one list view.
type State struct {
	Items         []models.AnalysisResult
	Loading       bool
	Err           error
	Filters       Filters
	Page          int
	Size          int
	Total         int
	HasNext       bool
	LastFetchedAt time.Time
}

// Config parameterises a Controller. Zero values fall back to the
// package defaults.
type Config struct {
	API      httpapi.Config
	View     string // metrics label, defaults to "results"
	PageSize int
	Debounce time.Duration
	Filters  Filters
	// OnChange, when set, receives a snapshot after every state change.
	// It runs on its own goroutine and must not assume ordering.
	OnChange func(State)
}

// Controller owns the filter, pagination and loading state of one list
// view. All mutations go through its mutex; fetches run on short-lived
// goroutines that commit back under the same lock.
type Controller struct {
	cfg Config
	log *zap.SugaredLogger

	mu             sync.Mutex
	ctx            context.Context
	stopped        bool
	state          State
	gen            uint64
	cancelInflight context.CancelFunc
	debounce       *time.Timer
}

func NewController(cfg Config) *Controller {
	if cfg.View == "" {
		cfg.View = "results"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = constants.DefaultPageSize
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = constants.DefaultFilterDebounce
	}
	c := &Controller{
		cfg: cfg,
		log: logger.For(logger.ComponentQueryController),
	}
	c.state = State{
		Filters: Filters{}.merged(cfg.Filters),
		Page:    1,
		Size:    cfg.PageSize,
	}
	return c
}

// Start binds the controller to its lifetime context and issues the
// initial page-1 fetch. Calling Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.ctx != nil || c.stopped {
		c.mu.Unlock()
		return
	}
	c.ctx = ctx
	c.mu.Unlock()
	c.fetch(modeReplace, 1)
}

// Stop cancels the in-flight fetch and the pending debounce. After Stop
// returns no further state mutation is observable. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.gen++ // orphan any response still in flight
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}
}

// SetFilters merges the partial into the filter map, resets pagination to
// page 1 and schedules a fetch once the edits have been quiet for the
// debounce window. Rapid successive calls collapse into one request.
func (c *Controller) SetFilters(partial Filters) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.state.Filters = c.state.Filters.merged(partial)
	c.state.Items = nil
	c.state.Page = 1
	c.state.Total = 0
	c.state.HasNext = false
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.cfg.Debounce, func() {
		c.fetch(modeReplace, 1)
	})
	c.notifyLocked()
	c.mu.Unlock()
}

// GoToPage requests the given page, replacing the current items.
func (c *Controller) GoToPage(page int) {
	if page < 1 {
		return
	}
	c.fetch(modeReplace, page)
}

// LoadMore appends the next page. No-op when there is no next page or a
// fetch is already in flight.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.stopped || c.state.Loading || !c.state.HasNext {
		c.mu.Unlock()
		return
	}
	next := c.state.Page + 1
	c.mu.Unlock()
	c.fetch(modeAppend, next)
}

// Refresh re-fetches page 1 in replace mode.
func (c *Controller) Refresh() {
	c.fetch(modeReplace, 1)
}

// Delete removes the result optimistically and issues the delete. On
// failure the item is put back and the error recorded.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return context.Canceled
	}
	index := -1
	for i, item := range c.state.Items {
		if item.ID == id {
			index = i
			break
		}
	}
	var removed models.AnalysisResult
	if index >= 0 {
		removed = c.state.Items[index]
		c.state.Items = append(c.state.Items[:index], c.state.Items[index+1:]...)
		if c.state.Total > 0 {
			c.state.Total--
		}
		c.notifyLocked()
	}
	c.mu.Unlock()

	_, err := httpapi.DeleteRequest(ctx, c.cfg.API, httpapi.AnalysisResultEndpoint(id), nil, c.log)
	if err == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && !c.stopped {
		if index > len(c.state.Items) {
			index = len(c.state.Items)
		}
		c.state.Items = append(c.state.Items[:index], append([]models.AnalysisResult{removed}, c.state.Items[index:]...)...)
		c.state.Total++
	}
	c.state.Err = err
	c.log.Warnw("Result delete failed", "id", id, "error", err)
	c.notifyLocked()
	return err
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) fetch(mode fetchMode, page int) {
	c.mu.Lock()
	if c.stopped || c.ctx == nil {
		c.mu.Unlock()
		return
	}
	c.gen++
	myGen := c.gen
	if c.cancelInflight != nil {
		c.cancelInflight()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelInflight = cancel
	c.state.Loading = true
	params := wireParams(c.state.Filters, page, c.state.Size)
	legacyParams := legacyWireParams(c.state.Filters, page, c.state.Size)
	c.notifyLocked()
	c.mu.Unlock()

	requestID := uuid.NewString()
	go func() {
		start := time.Now()
		result, _, err := httpapi.GetRequest[models.ResultPage](ctx, c.cfg.API, httpapi.AnalysisResultsV2Endpoint, params, c.log)
		if err != nil && httpapi.IsNotFound(err) {
			// Older backends only serve the v1 route with limit/skip
			// pagination.
			result, _, err = httpapi.GetRequest[models.ResultPage](ctx, c.cfg.API, httpapi.AnalysisResultsEndpoint, legacyParams, c.log)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stopped || myGen != c.gen {
			// A newer request owns the state now.
			metrics.IncQueryRequest(c.cfg.View, metrics.OutcomeSuperseded)
			return
		}
		if err != nil {
			if httpapi.KindOf(err) == httpapi.KindCancelled {
				return
			}
			c.state.Loading = false
			c.state.Err = err
			metrics.IncQueryRequest(c.cfg.View, metrics.OutcomeFailed)
			c.log.Warnw("Result fetch failed", "request_id", requestID, "page", page, "error", err)
			c.notifyLocked()
			return
		}

		metrics.ObserveFetchTime(c.cfg.View, time.Since(start))
		metrics.IncQueryRequest(c.cfg.View, metrics.OutcomeCommitted)
		c.log.Debugw("Result page committed", "request_id", requestID, "page", page)

		var items []models.AnalysisResult
		total, hasNext, size := 0, false, c.state.Size
		if result != nil {
			items = result.Items
			total = result.Total
			hasNext = result.HasNext
			if result.Size > 0 {
				size = result.Size
			}
		}
		if mode == modeAppend {
			c.state.Items = append(c.state.Items, items...)
		} else {
			c.state.Items = items
		}
		c.state.Page = page
		c.state.Size = size
		c.state.Total = total
		c.state.HasNext = hasNext
		c.state.Err = nil
		c.state.Loading = false
		c.state.LastFetchedAt = time.Now()
		c.notifyLocked()
	}()
}

func (c *Controller) snapshotLocked() State {
	snap := c.state
	snap.Filters = c.state.Filters.merged(nil)
	snap.Items = nil
	if len(c.state.Items) > 0 {
		items := make([]models.AnalysisResult, 0, len(c.state.Items))
		if err := deepcopy.Copy(&items, &c.state.Items); err != nil {
			c.log.Errorw("Failed to copy result items", "error", err)
			items = append(items, c.state.Items...)
		}
		snap.Items = items
	}
	return snap
}

func (c *Controller) notifyLocked() {
	if c.cfg.OnChange == nil {
		return
	}
	snap := c.snapshotLocked()
	go c.cfg.OnChange(snap)
}
