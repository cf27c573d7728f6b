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

package constants

import "time"

const (
	// DefaultSyncInterval is the periodic polling interval of the sync engine.
	DefaultSyncInterval = 60 * time.Second

	// DefaultSaveDebounce collapses bursts of settings mutations into one
	// durable save.
	DefaultSaveDebounce = 2 * time.Second

	// DefaultVisibilityDelay is the small delay before a visibility-gated sync
	// after the console becomes visible again.
	DefaultVisibilityDelay = 500 * time.Millisecond

	// SyncBackoffInitial is the first retry delay after a remote failure.
	SyncBackoffInitial = 1 * time.Second

	// SyncBackoffMax caps the retry delay.
	SyncBackoffMax = 2 * time.Minute

	// SyncMaxRetries is the number of consecutive remote failures tolerated
	// before the engine enters its error state.
	SyncMaxRetries = 5
)
