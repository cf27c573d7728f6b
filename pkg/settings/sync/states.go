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

package sync

import loopfsm "github.com/looplab/fsm"

// Engine states.
const (
	StateIdle    = "idle"
	StatePolling = "polling"
	StateSyncing = "syncing"
	StateWaiting = "waiting"
	StateOffline = "offline"
	StateError   = "error"
)

// Engine events.
const (
	eventStart                = "start"
	eventSync                 = "sync"
	eventSynced               = "synced"
	eventBackoff              = "backoff"
	eventRetry                = "retry"
	eventConnectivityLost     = "connectivity_lost"
	eventConnectivityRestored = "connectivity_restored"
	eventFail                 = "fail"
	eventStop                 = "stop"
)

// transitions is the engine's full event table. Offline is reachable from
// anywhere but idle; the error state is left only after its backoff.
var transitions = []loopfsm.EventDesc{
	{Name: eventStart, Src: []string{StateIdle}, Dst: StatePolling},
	{Name: eventSync, Src: []string{StatePolling}, Dst: StateSyncing},
	{Name: eventSynced, Src: []string{StateSyncing}, Dst: StatePolling},
	{Name: eventBackoff, Src: []string{StatePolling, StateSyncing}, Dst: StateWaiting},
	{Name: eventRetry, Src: []string{StateWaiting, StateError}, Dst: StatePolling},
	{Name: eventConnectivityLost, Src: []string{StatePolling, StateSyncing, StateWaiting, StateError}, Dst: StateOffline},
	{Name: eventConnectivityRestored, Src: []string{StateOffline}, Dst: StatePolling},
	{Name: eventFail, Src: []string{StatePolling, StateSyncing, StateWaiting}, Dst: StateError},
	{Name: eventStop, Src: []string{StatePolling, StateSyncing, StateWaiting, StateOffline, StateError}, Dst: StateIdle},
}

// Strategy selects which triggers schedule a sync.
type Strategy string

const (
	// StrategyPeriodic polls on a fixed interval.
	StrategyPeriodic Strategy = "periodic"
	// StrategyVisibility syncs when the view becomes visible again.
	StrategyVisibility Strategy = "visibility"
	// StrategyChange syncs after local mutations, debounced.
	StrategyChange Strategy = "change"
	// StrategyHybrid combines all three.
	StrategyHybrid Strategy = "hybrid"
)

func (s Strategy) periodic() bool {
	return s == StrategyPeriodic || s == StrategyHybrid
}

func (s Strategy) onVisibility() bool {
	return s == StrategyVisibility || s == StrategyHybrid
}

func (s Strategy) onChange() bool {
	return s == StrategyChange || s == StrategyHybrid
}

// ConflictStrategy picks the winner when local and remote diverge.
type ConflictStrategy string

const (
	ConflictPreferLocal  ConflictStrategy = "prefer-local"
	ConflictPreferRemote ConflictStrategy = "prefer-remote"
	// ConflictMerge merges section-wise with remote winning per field.
	ConflictMerge ConflictStrategy = "merge"
)
