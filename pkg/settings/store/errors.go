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
	"errors"
	"fmt"
)

// Kind classifies a durable-slot failure.
type Kind string

const (
	KindUnavailable     Kind = "UNAVAILABLE"
	KindQuotaExceeded   Kind = "QUOTA_EXCEEDED"
	KindParseError      Kind = "PARSE_ERROR"
	KindInvalidFormat   Kind = "INVALID_FORMAT"
	KindVersionMismatch Kind = "VERSION_MISMATCH"
	KindChecksumFailed  Kind = "CHECKSUM_FAILED"
	KindUnknown         Kind = "UNKNOWN"
)

// Error is a classified slot failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from an error chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
