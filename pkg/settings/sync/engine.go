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

// Package sync keeps the local settings slot and the remote preference
// service coherent without blocking the caller. One goroutine owns all
// scheduling; triggers arrive over channels and collapse into single sync
// attempts.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	loopfsm "github.com/looplab/fsm"
	"go.uber.org/zap"

	internalfsm "github.com/united-manufacturing-hub/ran-console-core/internal/fsm"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/backoff"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/metrics"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/remote"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/store"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/watchdog"
)

// Config tunes the engine. Zero durations fall back to the defaults.
type Config struct {
	UserID          string
	Strategy        Strategy
	Conflict        ConflictStrategy
	Interval        time.Duration
	SaveDebounce    time.Duration
	VisibilityDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyHybrid
	}
	if c.Conflict == "" {
		c.Conflict = ConflictMerge
	}
	if c.Interval <= 0 {
		c.Interval = constants.DefaultSyncInterval
	}
	if c.SaveDebounce <= 0 {
		c.SaveDebounce = constants.DefaultSaveDebounce
	}
	if c.VisibilityDelay <= 0 {
		c.VisibilityDelay = constants.DefaultVisibilityDelay
	}
}

// Status is a point-in-time view of the engine for diagnostics.
type Status struct {
	State             string    `json:"state"`
	HasUnsavedChanges bool      `json:"has_unsaved_changes"`
	LastSyncAt        time.Time `json:"last_sync_at"`
	LastError         string    `json:"last_error,omitempty"`
	RetryCount        int       `json:"retry_count"`
	RemoteConfigured  bool      `json:"remote_configured"`
}

// Engine owns the durable store and remote client for one user's settings.
type Engine struct {
	cfg      Config
	store    *store.FileStore
	remote   *remote.Client
	machine  *internalfsm.Machine
	dog      watchdog.Iface
	logger   *zap.SugaredLogger
	defaults settings.Settings

	mu                gosync.Mutex
	current           settings.Settings
	hasUnsavedChanges bool
	lastSyncAt        time.Time
	lastError         error

	mutated chan struct{}
	online  chan bool
	visible chan struct{}

	startOnce gosync.Once
	stopOnce  *gosync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewEngine wires an engine; call Bootstrap before Start.
func NewEngine(cfg Config, fileStore *store.FileStore, remoteClient *remote.Client, defaults settings.Settings, dog watchdog.Iface) *Engine {
	cfg.applyDefaults()

	log := logger.For(logger.ComponentSyncEngine)
	backoffCfg := backoff.Config{
		Name:            "sync-engine",
		InitialInterval: constants.SyncBackoffInitial,
		MaxInterval:     constants.SyncBackoffMax,
		MaxRetries:      constants.SyncMaxRetries,
		Logger:          log,
	}

	e := &Engine{
		cfg:      cfg,
		store:    fileStore,
		remote:   remoteClient,
		dog:      dog,
		logger:   log,
		defaults: defaults,
		current:  defaults,
		mutated:  make(chan struct{}, 1),
		online:   make(chan bool, 4),
		visible:  make(chan struct{}, 1),
		stopOnce: &gosync.Once{},
		done:     make(chan struct{}),
	}
	e.machine = internalfsm.NewMachine(internalfsm.Config{
		ID:           "sync-engine",
		InitialState: StateIdle,
		Transitions:  transitions,
		Backoff:      &backoffCfg,
	}, log)
	for _, state := range []string{StateIdle, StatePolling, StateSyncing, StateWaiting, StateOffline, StateError} {
		state := state
		e.machine.AddCallback("enter_"+state, func(_ context.Context, _ *loopfsm.Event) {
			metrics.UpdateEngineState(state)
		})
	}
	return e
}

// Bootstrap loads the slot, sanitizes it against the defaults, optionally
// pulls the remote document and resolves conflicts. It returns the settings
// the caller should treat as live. A fresh install (empty slot, no remote)
// yields the defaults with no unsaved changes and no error.
func (e *Engine) Bootstrap(ctx context.Context) (settings.Settings, error) {
	local := e.defaults
	raw, err := e.store.Load()
	switch {
	case err != nil:
		e.logger.Warnw("durable slot unreadable, starting from defaults", "error", err)
	case raw != nil:
		local = settings.Sanitize(raw, e.defaults)
	}

	resolved := local
	if e.remote != nil && e.remote.Configured() {
		result, err := e.remote.Get(ctx, e.cfg.UserID)
		if err != nil {
			e.logger.Warnw("remote pull failed during bootstrap, continuing with local", "error", err)
		} else if !result.IsNew {
			remoteSettings := settings.Sanitize(result.Data, e.defaults)
			resolved = Resolve(e.cfg.Conflict, local, remoteSettings)
			if err := e.remote.Put(ctx, e.cfg.UserID, resolved); err != nil {
				e.logger.Warnw("pushing resolved settings failed during bootstrap", "error", err)
			}
		}
	}

	e.mu.Lock()
	e.current = resolved
	e.hasUnsavedChanges = false
	e.mu.Unlock()
	return resolved, nil
}

// Start launches the scheduling loop. Safe to call once; Stop ends it.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		e.cancel = cancel
		if err := e.machine.SendEvent(runCtx, eventStart); err != nil {
			e.logger.Errorf("cannot start sync engine: %v", err)
			cancel()
			close(e.done)
			return
		}
		go e.run(runCtx)
	})
}

// Stop is idempotent: it cancels the loop, waits for it to drain and
// returns the machine to idle.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
			<-e.done
		}
		if !e.machine.Is(StateIdle) {
			if err := e.machine.SendEvent(context.Background(), eventStop); err != nil {
				e.logger.Debugf("stop transition skipped: %v", err)
			}
		}
	})
}

// NotifyMutation records a new settings value. The durable save is
// debounced; the latest value wins.
func (e *Engine) NotifyMutation(s settings.Settings) {
	e.mu.Lock()
	e.current = s
	e.hasUnsavedChanges = true
	e.mu.Unlock()

	select {
	case e.mutated <- struct{}{}:
	default:
	}
}

// SaveNow records s and writes it to the durable slot immediately,
// bypassing the save debounce.
func (e *Engine) SaveNow(s settings.Settings) error {
	e.mu.Lock()
	e.current = s
	e.hasUnsavedChanges = true
	e.mu.Unlock()

	if _, err := e.store.Save(s); err != nil {
		return err
	}

	e.mu.Lock()
	e.hasUnsavedChanges = false
	e.mu.Unlock()
	return nil
}

// ReplaceCurrent swaps the live value without marking it dirty, for
// callers that just re-read the durable slot.
func (e *Engine) ReplaceCurrent(s settings.Settings) {
	e.mu.Lock()
	e.current = s
	e.mu.Unlock()
}

// NotifyOnline reports a connectivity transition observed by the embedder.
func (e *Engine) NotifyOnline(online bool) {
	select {
	case e.online <- online:
	default:
	}
}

// NotifyVisible reports that the view became visible again.
func (e *Engine) NotifyVisible() {
	select {
	case e.visible <- struct{}{}:
	default:
	}
}

// State returns the engine's current machine state.
func (e *Engine) State() string {
	return e.machine.Current()
}

// GetStatus returns a snapshot for diagnostics.
func (e *Engine) GetStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status{
		State:             e.machine.Current(),
		HasUnsavedChanges: e.hasUnsavedChanges,
		LastSyncAt:        e.lastSyncAt,
		RetryCount:        e.machine.RetryCount(),
		RemoteConfigured:  e.remote != nil && e.remote.Configured(),
	}
	if e.lastError != nil {
		status.LastError = e.lastError.Error()
	}
	return status
}

// Current returns the live settings value.
func (e *Engine) Current() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// run is the scheduling loop. All timers live here; triggers only nudge it.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	heartbeat := e.dog.RegisterHeartbeat("sync-engine", 3, uint64((e.cfg.Interval * 2).Seconds()), false)
	defer e.dog.UnregisterHeartbeat(heartbeat)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	saveTimer := time.NewTimer(0)
	stopTimer(saveTimer)
	defer saveTimer.Stop()

	visibilityTimer := time.NewTimer(0)
	stopTimer(visibilityTimer)
	defer visibilityTimer.Stop()

	retryTimer := time.NewTimer(0)
	stopTimer(retryTimer)
	defer retryTimer.Stop()

	for {
		e.dog.ReportHeartbeatStatus(heartbeat, watchdog.HEARTBEAT_STATUS_OK)

		select {
		case <-ctx.Done():
			e.flushLocal()
			return

		case <-ticker.C:
			if e.cfg.Strategy.periodic() {
				e.attemptSync(ctx, retryTimer)
			}

		case <-e.mutated:
			resetTimer(saveTimer, e.cfg.SaveDebounce)

		case <-saveTimer.C:
			e.flushLocal()
			if e.cfg.Strategy.onChange() {
				e.attemptSync(ctx, retryTimer)
			}

		case online := <-e.online:
			if online {
				if e.machine.Is(StateOffline) {
					if err := e.machine.SendEvent(ctx, eventConnectivityRestored); err != nil {
						e.logger.Debugf("connectivity restore transition skipped: %v", err)
					}
					// A successful connectivity probe resets the retry
					// budget before the immediate sync.
					e.machine.ClearError()
				}
				e.attemptSync(ctx, retryTimer)
			} else if !e.machine.Is(StateOffline) && !e.machine.Is(StateIdle) {
				if err := e.machine.SendEvent(ctx, eventConnectivityLost); err != nil {
					e.logger.Debugf("connectivity loss transition skipped: %v", err)
				}
			}

		case <-e.visible:
			if e.cfg.Strategy.onVisibility() {
				resetTimer(visibilityTimer, e.cfg.VisibilityDelay)
			}

		case <-visibilityTimer.C:
			e.attemptSync(ctx, retryTimer)

		case <-retryTimer.C:
			if e.machine.Is(StateWaiting) || e.machine.Is(StateError) {
				if err := e.machine.SendEvent(ctx, eventRetry); err != nil {
					e.logger.Debugf("retry transition skipped: %v", err)
					continue
				}
				e.attemptSync(ctx, retryTimer)
			}
		}
	}
}

// attemptSync runs one sync pass, driving the machine through
// polling → syncing → polling, or into waiting/error on failure.
func (e *Engine) attemptSync(ctx context.Context, retryTimer *time.Timer) {
	if e.machine.Is(StateOffline) || e.machine.Is(StateIdle) {
		return
	}
	now := time.Now()
	if e.machine.ShouldSkipOperation(now) && !e.machine.IsPermanentlyFailed() {
		return
	}
	if err := e.machine.SendEvent(ctx, eventSync); err != nil {
		e.logger.Debugf("sync transition skipped: %v", err)
		return
	}

	metrics.IncSyncAttempts()
	err := e.syncOnce(ctx)
	if err == nil {
		e.machine.ClearError()
		e.mu.Lock()
		e.lastSyncAt = time.Now()
		e.lastError = nil
		e.mu.Unlock()
		if sendErr := e.machine.SendEvent(ctx, eventSynced); sendErr != nil {
			e.logger.Debugf("synced transition skipped: %v", sendErr)
		}
		return
	}

	metrics.IncSyncFailures()
	e.mu.Lock()
	e.lastError = err
	e.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		return
	}

	permanent := e.machine.SetError(err, now)
	if permanent {
		if sendErr := e.machine.SendEvent(ctx, eventFail); sendErr != nil {
			e.logger.Debugf("fail transition skipped: %v", sendErr)
		}
		// Leave the error state on the capped backoff interval.
		resetTimer(retryTimer, constants.SyncBackoffMax)
		return
	}
	if sendErr := e.machine.SendEvent(ctx, eventBackoff); sendErr != nil {
		e.logger.Debugf("backoff transition skipped: %v", sendErr)
	}
	resetTimer(retryTimer, time.Until(e.machine.NextRetryAt()))
}

// syncOnce persists the current value locally and, when a remote is
// configured, reconciles with the backend.
func (e *Engine) syncOnce(ctx context.Context) error {
	e.flushLocal()

	if e.remote == nil || !e.remote.Configured() {
		return nil
	}

	local := e.Current()
	result, err := e.remote.Get(ctx, e.cfg.UserID)
	if err != nil {
		return fmt.Errorf("remote pull: %w", err)
	}

	resolved := local
	if result.IsNew {
		if err := e.remote.Post(ctx, e.cfg.UserID, local); err != nil {
			return fmt.Errorf("remote create: %w", err)
		}
	} else {
		remoteSettings := settings.Sanitize(result.Data, e.defaults)
		resolved = Resolve(e.cfg.Conflict, local, remoteSettings)
		if err := e.remote.Put(ctx, e.cfg.UserID, resolved); err != nil {
			return fmt.Errorf("remote push: %w", err)
		}
	}

	e.commitResolved(resolved)
	return nil
}

// commitResolved adopts the conflict-resolved value and persists it.
func (e *Engine) commitResolved(resolved settings.Settings) {
	e.mu.Lock()
	e.current = resolved
	e.hasUnsavedChanges = true
	e.mu.Unlock()
	e.flushLocal()
}

// flushLocal writes the current value to the durable slot when there are
// unsaved changes.
func (e *Engine) flushLocal() {
	e.mu.Lock()
	current := e.current
	dirty := e.hasUnsavedChanges
	e.mu.Unlock()

	if !dirty {
		return
	}
	if _, err := e.store.Save(current); err != nil {
		e.logger.Warnw("durable save failed", "kind", store.KindOf(err), "error", err)
		return
	}
	e.mu.Lock()
	e.hasUnsavedChanges = false
	e.mu.Unlock()
}

// Resolve applies the conflict strategy to a (local, remote) pair.
func Resolve(strategy ConflictStrategy, local, remoteSettings settings.Settings) settings.Settings {
	switch strategy {
	case ConflictPreferLocal:
		return local
	case ConflictPreferRemote:
		return remoteSettings
	default:
		// Section-wise shallow merge, remote wins per field.
		return settings.Merge(remoteSettings, local)
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}
