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

const (
	// EnvelopeVersion is the current version of the durable settings envelope.
	// Envelopes with an older version run through the migration table on load.
	EnvelopeVersion = 1

	// SlotFileMode is the permission of the per-user preference slot file.
	SlotFileMode = 0o600

	// SlotDirName is the directory below the data dir holding preference slots.
	SlotDirName = "preferences"
)
