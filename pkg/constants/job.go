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
	// JobPollInterval is the delay between status polls of a running analysis job.
	JobPollInterval = 2 * time.Second

	// JobMaxPollFailures is the number of consecutive transport failures
	// tolerated while polling before the job is failed.
	JobMaxPollFailures = 3

	// JobElapsedTick drives the elapsed-seconds counter of a running job.
	JobElapsedTick = 1 * time.Second
)
