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

// Package fsm wraps looplab/fsm with the shared plumbing every state
// machine in this codebase needs: a transition table, per-state enter
// callbacks, a retry backoff manager and context-protected event dispatch.
package fsm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/backoff"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/ctxutil"
)

// expectedMaxTransitionTime is how much context lifetime a transition needs
// before we refuse to start it. A transition interrupted mid-flight leaves
// looplab's internal state wedged, which is worse than not starting.
const expectedMaxTransitionTime = 100 * time.Millisecond

// Config holds parameters for setting up a machine.
type Config struct {
	// ID names the machine in logs and backoff errors.
	ID string
	// InitialState is where the machine starts.
	InitialState string
	// Transitions is the full event table.
	Transitions []fsm.EventDesc
	// Backoff overrides the default retry policy when non-nil.
	Backoff *backoff.Config
}

// Machine is a mutex-guarded state machine with backoff-tracked errors.
type Machine struct {
	cfg       Config
	mu        sync.RWMutex
	fsm       *fsm.FSM
	callbacks map[string]fsm.Callback
	backoff   *backoff.Manager
	logger    *zap.SugaredLogger
}

// NewMachine builds a machine from the transition table. Callbacks
// registered with AddCallback fire on state entry.
func NewMachine(cfg Config, logger *zap.SugaredLogger) *Machine {
	m := &Machine{
		cfg:       cfg,
		callbacks: make(map[string]fsm.Callback),
		logger:    logger,
	}

	backoffCfg := backoff.DefaultConfig(cfg.ID, logger)
	if cfg.Backoff != nil {
		backoffCfg = *cfg.Backoff
	}
	m.backoff = backoff.NewManager(backoffCfg)

	m.fsm = fsm.NewFSM(
		cfg.InitialState,
		fsm.Events(cfg.Transitions),
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				if cb, ok := m.callbacks["enter_"+e.Dst]; ok {
					cb(ctx, e)
				}
			},
		},
	)

	return m
}

// AddCallback registers a callback for "enter_<state>". Register before the
// machine starts receiving events; registration is not synchronised with
// dispatch.
func (m *Machine) AddCallback(eventName string, callback fsm.Callback) {
	m.callbacks[eventName] = callback
}

// Current returns the machine's current state.
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// SetState forces the machine into a state. Tests only.
func (m *Machine) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fsm.SetState(state)
}

// Is reports whether the machine is in the given state.
func (m *Machine) Is(state string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Is(state)
}

// Can reports whether the event can fire from the current state.
func (m *Machine) Can(eventName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(eventName)
}

// SendEvent dispatches an event. It refuses to start a transition on a
// cancelled context or one about to expire, because an interrupted
// transition leaves the machine unable to process further events.
func (m *Machine) SendEvent(ctx context.Context, eventName string, args ...interface{}) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, sufficient, err := ctxutil.HasSufficientTime(ctx, expectedMaxTransitionTime); err == nil && !sufficient {
		return fmt.Errorf("insufficient context lifetime for transition %q on %s", eventName, m.cfg.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fsm.Event(ctx, eventName, args...)
}

// SetError records a failure against the backoff budget and returns true
// once the failure is permanent.
func (m *Machine) SetError(err error, now time.Time) bool {
	permanent := m.backoff.SetError(err, now)
	if permanent {
		m.logger.Errorf("machine %s reached permanent failure: %v", m.cfg.ID, err)
	}
	return permanent
}

// ShouldSkipOperation reports whether the backoff window is still open.
func (m *Machine) ShouldSkipOperation(now time.Time) bool {
	return m.backoff.ShouldSkipOperation(now)
}

// IsPermanentlyFailed reports whether the retry budget is exhausted.
func (m *Machine) IsPermanentlyFailed() bool {
	return m.backoff.IsPermanentlyFailed()
}

// LastError returns the most recent recorded failure.
func (m *Machine) LastError() error {
	return m.backoff.LastError()
}

// RetryCount returns the number of consecutive recorded failures.
func (m *Machine) RetryCount() int {
	return m.backoff.RetryCount()
}

// NextRetryAt returns when the backoff window closes.
func (m *Machine) NextRetryAt() time.Time {
	return m.backoff.NextRetryAt()
}

// ClearError resets the backoff after a successful operation.
func (m *Machine) ClearError() {
	m.backoff.Reset()
}

// ID returns the machine's name.
func (m *Machine) ID() string {
	return m.cfg.ID
}
