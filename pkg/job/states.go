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

package job

import "github.com/looplab/fsm"

// Lifecycle states of one analysis job.
const (
	StateIdle      = "idle"
	StateStarting  = "starting"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

const (
	eventStart    = "start"
	eventStarted  = "started"
	eventComplete = "complete"
	eventFail     = "fail"
	eventCancel   = "cancel"
	eventReset    = "reset"
)

// IsTerminal reports whether the state is one a job cannot leave except
// through Reset.
func IsTerminal(state string) bool {
	switch state {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

func transitions() []fsm.EventDesc {
	return []fsm.EventDesc{
		{Name: eventStart, Src: []string{StateIdle}, Dst: StateStarting},
		{Name: eventStarted, Src: []string{StateStarting}, Dst: StateRunning},
		{Name: eventComplete, Src: []string{StateRunning}, Dst: StateCompleted},
		{Name: eventFail, Src: []string{StateStarting, StateRunning}, Dst: StateFailed},
		{Name: eventCancel, Src: []string{StateStarting, StateRunning}, Dst: StateCancelled},
		{Name: eventReset, Src: []string{StateCompleted, StateFailed, StateCancelled}, Dst: StateIdle},
	}
}
