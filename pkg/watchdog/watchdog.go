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

// Package watchdog supervises the long-lived goroutines of the console core
// (sync loop, job poll loop). Each loop registers a heartbeat and reports its
// status every iteration; a loop that stops reporting, or reports too many
// consecutive warnings, panics the process so the supervisor restarts it in a
// clean state.
//
// An "observer" here is an attached UI client awaiting state updates. Loops
// registered with onlyIfObservers only escalate while at least one observer
// is attached; a stalled sync loop with nobody watching is not worth a
// restart.
package watchdog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeartbeatStatus is the status of a heartbeat
type HeartbeatStatus int

const (
	// HEARTBEAT_STATUS_OK is the status of a healthy heartbeat
	HEARTBEAT_STATUS_OK HeartbeatStatus = iota
	// HEARTBEAT_STATUS_WARNING is the status of a heartbeat with a warning; enough consecutive warnings escalate
	HEARTBEAT_STATUS_WARNING
	// HEARTBEAT_STATUS_ERROR immediately escalates
	HEARTBEAT_STATUS_ERROR
)

// Heartbeat tracks the liveness of one registered goroutine.
type Heartbeat struct {
	uniqueIdentifier     uuid.UUID
	lastHeartbeatTime    atomic.Int64
	warningCount         atomic.Uint32
	heartbeatsReceived   atomic.Uint64
	warningsUntilFailure uint64
	timeout              uint64
	onlyIfObservers      bool
}

// Watchdog is a simple watchdog for goroutines
type Watchdog struct {
	registeredHeartbeats      map[string]*Heartbeat
	registeredHeartbeatsMutex sync.Mutex
	badHeartbeatChan          chan uuid.UUID
	hasObservers              atomic.Bool
	ctx                       context.Context
	ticker                    *time.Ticker
	watchdogID                uuid.UUID
	logger                    *zap.SugaredLogger
}

// NewWatchdog creates a new Watchdog
func NewWatchdog(ctx context.Context, ticker *time.Ticker, logger *zap.SugaredLogger) *Watchdog {
	return &Watchdog{
		registeredHeartbeats: make(map[string]*Heartbeat),
		// badHeartbeatChan is buffered to avoid blocking reporters while the
		// watchdog itself has not been started yet
		badHeartbeatChan: make(chan uuid.UUID, 100),
		ctx:              ctx,
		ticker:           ticker,
		watchdogID:       uuid.New(),
		logger:           logger,
	}
}

// Start synchronously runs the watchdog loop.
func (s *Watchdog) Start() {
	for {
		select {
		case uniqueIdentifier := <-s.badHeartbeatChan:
			name := s.getHeartbeatNameByUUID(uniqueIdentifier)
			panic(fmt.Sprintf("Heartbeat errored: [%s] %s (%s)", s.watchdogID, name, uniqueIdentifier))
		case <-s.ticker.C:
			s.checkHeartbeats()
		case <-s.ctx.Done():
			s.logger.Infof("Watchdog context done: [%s]", s.watchdogID)
			return
		}
	}
}

func (s *Watchdog) checkHeartbeats() {
	now := time.Now().UTC().Unix()
	hasObs := s.hasObservers.Load()

	var overdueName string
	var overdue *Heartbeat
	var secondsOverdue int64

	s.registeredHeartbeatsMutex.Lock()
	for name, hb := range s.registeredHeartbeats {
		// timeout == 0 disables the liveness check
		if hb.timeout == 0 {
			continue
		}
		if hb.onlyIfObservers && !hasObs {
			continue
		}
		elapsed := now - hb.lastHeartbeatTime.Load()
		if elapsed > int64(hb.timeout) {
			overdueName = name
			overdue = hb
			secondsOverdue = elapsed - int64(hb.timeout)
			delete(s.registeredHeartbeats, name)
			break
		}
	}
	// Unlock before any potential panic
	s.registeredHeartbeatsMutex.Unlock()

	if overdue != nil {
		panic(fmt.Sprintf("Heartbeat too old: [%s] %s (%s) [Lifetime heartbeats: %d] (%d seconds overdue)",
			s.watchdogID, overdueName, overdue.uniqueIdentifier,
			overdue.heartbeatsReceived.Load(), secondsOverdue))
	}

	s.logger.Debugf("Heartbeats are ok: [%s]", s.watchdogID)
}

// RegisterHeartbeat registers a new heartbeat and returns its identifier.
// Keep the identifier to unregister the heartbeat later.
func (s *Watchdog) RegisterHeartbeat(name string, warningsUntilFailure uint64, timeout uint64, onlyIfObservers bool) uuid.UUID {
	uniqueIdentifier := uuid.New()

	hb := Heartbeat{
		uniqueIdentifier:     uniqueIdentifier,
		warningsUntilFailure: warningsUntilFailure,
		timeout:              timeout,
		onlyIfObservers:      onlyIfObservers,
	}
	hb.lastHeartbeatTime.Store(time.Now().UTC().Unix())

	s.registeredHeartbeatsMutex.Lock()
	if v, ok := s.registeredHeartbeats[name]; ok {
		s.registeredHeartbeatsMutex.Unlock()
		panic(fmt.Sprintf("Heartbeat already registered: %s (%s)", name, v.uniqueIdentifier))
	}
	s.registeredHeartbeats[name] = &hb
	s.registeredHeartbeatsMutex.Unlock()

	s.logger.Infof("[%s] Registered heartbeat %s (%s)", s.watchdogID, name, uniqueIdentifier)
	return uniqueIdentifier
}

// UnregisterHeartbeat unregisters a heartbeat.
// Call this when the goroutine is doing a normal exit.
func (s *Watchdog) UnregisterHeartbeat(uniqueIdentifier uuid.UUID) {
	name := s.getHeartbeatNameByUUID(uniqueIdentifier)
	if name == "" {
		s.logger.Warnf("[%s] Unregister heartbeat called with unknown identifier: %s", s.watchdogID, uniqueIdentifier)
		return
	}

	s.registeredHeartbeatsMutex.Lock()
	delete(s.registeredHeartbeats, name)
	s.registeredHeartbeatsMutex.Unlock()
	s.logger.Infof("[%s] Unregistered heartbeat %s", s.watchdogID, uniqueIdentifier)
}

// ReportHeartbeatStatus reports the status of a heartbeat. Report on every
// loop iteration: OK normally, WARNING when the loop is degraded, ERROR when
// the loop cannot continue.
func (s *Watchdog) ReportHeartbeatStatus(uniqueIdentifier uuid.UUID, status HeartbeatStatus) {
	name := s.getHeartbeatNameByUUID(uniqueIdentifier)
	if name == "" {
		s.logger.Warnf("[%s] Report heartbeat called with unknown identifier: %s", s.watchdogID, uniqueIdentifier)
		return
	}

	s.registeredHeartbeatsMutex.Lock()
	hb := s.registeredHeartbeats[name]
	if hb == nil {
		s.registeredHeartbeatsMutex.Unlock()
		return
	}

	hb.lastHeartbeatTime.Store(time.Now().UTC().Unix())
	hb.heartbeatsReceived.Add(1)

	var warnings uint32
	switch status {
	case HEARTBEAT_STATUS_WARNING:
		warnings = hb.warningCount.Add(1)
	case HEARTBEAT_STATUS_OK:
		hb.warningCount.Store(0)
	}

	escalate := warnings >= uint32(hb.warningsUntilFailure) && hb.warningsUntilFailure != 0 &&
		(!hb.onlyIfObservers || s.hasObservers.Load())
	s.registeredHeartbeatsMutex.Unlock()

	if escalate {
		s.logger.Errorf("[%s] Heartbeat %s (%s) sent too many consecutive warnings (%d/%d)",
			s.watchdogID, name, uniqueIdentifier, warnings, hb.warningsUntilFailure)
		s.badHeartbeatChan <- uniqueIdentifier
	}

	if status == HEARTBEAT_STATUS_ERROR {
		s.logger.Errorf("[%s] Heartbeat %s (%s) reported an error", s.watchdogID, name, uniqueIdentifier)
		s.badHeartbeatChan <- uniqueIdentifier
	}
}

// SetHasObservers marks whether any UI observer is currently attached.
func (s *Watchdog) SetHasObservers(has bool) {
	s.hasObservers.Store(has)
}

func (s *Watchdog) getHeartbeatNameByUUID(uniqueIdentifier uuid.UUID) string {
	s.registeredHeartbeatsMutex.Lock()
	defer s.registeredHeartbeatsMutex.Unlock()

	for name, hb := range s.registeredHeartbeats {
		if hb.uniqueIdentifier == uniqueIdentifier {
			return name
		}
	}

	return ""
}
