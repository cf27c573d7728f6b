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

package store

import (
	"fmt"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/constants"
)

// migration upgrades an envelope from one version to the next.
type migration func(Envelope) (Envelope, error)

// migrations maps a source version to its upgrade step. Version 0 predates
// the checksum field; the document shape is unchanged, so the step only
// restamps the version.
var migrations = map[int]migration{
	0: func(e Envelope) (Envelope, error) {
		e.Version = 1
		return e, nil
	},
}

// migrate walks the envelope forward to the current version. An envelope
// from the future, or one with no migration path, is a version mismatch.
func migrate(e Envelope) (Envelope, error) {
	if e.Version > constants.EnvelopeVersion {
		return e, newError(KindVersionMismatch,
			fmt.Errorf("slot version %d is newer than supported version %d", e.Version, constants.EnvelopeVersion))
	}
	for e.Version < constants.EnvelopeVersion {
		step, ok := migrations[e.Version]
		if !ok {
			return e, newError(KindVersionMismatch,
				fmt.Errorf("no migration path from slot version %d", e.Version))
		}
		upgraded, err := step(e)
		if err != nil {
			return e, newError(KindVersionMismatch, err)
		}
		if upgraded.Version <= e.Version {
			return e, newError(KindVersionMismatch,
				fmt.Errorf("migration from version %d did not advance", e.Version))
		}
		e = upgraded
	}
	return e, nil
}
