// Copyright 2026 Crewlens Authors
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

package vectorstore

import (
	"errors"
	"fmt"
)

// Kind classifies storage-initialization failures. Adapters translate
// whatever their runtime reports into a Kind once, at the boundary, so
// retry policy upstream never inspects error strings.
type Kind int

const (
	// KindUnknown is an unclassified failure. Not retryable.
	KindUnknown Kind = iota

	// KindLockContention means another handle holds the location's
	// directory lock. Retryable at a fresh location.
	KindLockContention

	// KindMissingSchema means the location exists but its internal
	// structure is absent or corrupt (a half-built index). Retryable at
	// a fresh location after erasing the damaged one.
	KindMissingSchema

	// KindReadOnly means the filesystem refused writes. Retryable at a
	// fresh location.
	KindReadOnly
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindLockContention:
		return "lock contention"
	case KindMissingSchema:
		return "missing schema"
	case KindReadOnly:
		return "read-only storage"
	default:
		return "unknown"
	}
}

// Retryable reports whether an ingestion attempt may retry at a fresh
// location after this kind of failure.
func (k Kind) Retryable() bool {
	return k != KindUnknown
}

// InitError is a classified storage-initialization failure.
type InitError struct {
	Kind     Kind
	Location string
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("vector index init at %s: %s: %v", e.Location, e.Kind, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// AsInitError unwraps err into an *InitError, if it is one.
func AsInitError(err error) (*InitError, bool) {
	var initErr *InitError
	if errors.As(err, &initErr) {
		return initErr, true
	}
	return nil, false
}
