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

// Package backoff provides retry suppression for operations that talk to
// flaky collaborators (the remote preference service, the slot file on a
// possibly-full disk). Repeated transient errors escalate to a permanent
// failure once the retry budget is exhausted; a successful operation or an
// explicit Reset clears the counter.
package backoff

import (
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Config holds parameters for a backoff Manager.
type Config struct {
	// Name identifies the guarded operation in logs and error messages.
	Name string

	// InitialInterval is the first retry delay.
	InitialInterval time.Duration

	// MaxInterval caps the retry delay.
	MaxInterval time.Duration

	// MaxRetries is the number of consecutive failures tolerated before the
	// manager reports a permanent failure. 0 means unlimited.
	MaxRetries int

	Logger *zap.SugaredLogger
}

// DefaultConfig returns a Config with the standard exponential settings.
func DefaultConfig(name string, logger *zap.SugaredLogger) Config {
	return Config{
		Name:            name,
		InitialInterval: 1 * time.Second,
		MaxInterval:     2 * time.Minute,
		MaxRetries:      5,
		Logger:          logger,
	}
}

// Manager tracks consecutive failures of one operation and decides when the
// next attempt is allowed. It is safe for concurrent use.
type Manager struct {
	cfg Config

	mu             sync.Mutex
	exp            *backoff.ExponentialBackOff
	retries        int
	lastError      error
	suspendedUntil time.Time
	permanent      bool
}

// NewManager creates a Manager from the given config.
func NewManager(cfg Config) *Manager {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialInterval
	exp.MaxInterval = cfg.MaxInterval
	// The manager owns the retry budget; cenkalti's elapsed-time cutoff would
	// silently turn NextBackOff into Stop.
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &Manager{cfg: cfg, exp: exp}
}

// ShouldSkipOperation reports whether the operation is still suspended at now.
// Permanently failed managers always skip.
func (m *Manager) ShouldSkipOperation(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.permanent {
		return true
	}

	return now.Before(m.suspendedUntil)
}

// SetError records a failed attempt and schedules the next one. It returns
// true once the retry budget is exhausted and the failure is permanent.
func (m *Manager) SetError(err error, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err
	m.retries++

	if m.cfg.MaxRetries > 0 && m.retries > m.cfg.MaxRetries {
		m.permanent = true
		if m.cfg.Logger != nil {
			m.cfg.Logger.Errorf("%s: retry budget exhausted after %d attempts, last error: %v", m.cfg.Name, m.retries, err)
		}
		return true
	}

	delay := m.exp.NextBackOff()
	m.suspendedUntil = now.Add(delay)

	if m.cfg.Logger != nil {
		m.cfg.Logger.Warnf("%s: attempt %d failed, next retry in %s: %v", m.cfg.Name, m.retries, delay, err)
	}
	return false
}

// BackoffError returns the marker error matching the manager's state, or nil
// when no failure is recorded.
func (m *Manager) BackoffError() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastError == nil {
		return nil
	}

	if m.permanent {
		return fmt.Errorf("%s: %s: %w", m.cfg.Name, PermanentFailureError, m.lastError)
	}

	return fmt.Errorf("%s: %s: %w", m.cfg.Name, TemporaryBackoffError, m.lastError)
}

// NextRetryAt returns when the next attempt is allowed. Zero when unsuspended.
func (m *Manager) NextRetryAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.suspendedUntil
}

// IsPermanentlyFailed reports whether the retry budget is exhausted.
func (m *Manager) IsPermanentlyFailed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.permanent
}

// LastError returns the error recorded by the most recent SetError.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastError
}

// RetryCount returns the number of consecutive failures recorded so far.
func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.retries
}

// Reset clears all failure state. Called after a successful attempt or a
// successful connectivity probe.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retries = 0
	m.lastError = nil
	m.suspendedUntil = time.Time{}
	m.permanent = false
	m.exp.Reset()
}
