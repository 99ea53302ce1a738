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

package core

import "fmt"

// ValidateDatasetRecord validates a DatasetRecord according to domain rules.
//
// Validation rules:
//   - Hash must not be empty
//   - IndexLocation must not be empty
//
// NOT validated:
//   - SnapshotPath (legacy registries may reference a snapshot that was
//     never written; the registry reports such inconsistencies on access)
//   - CreatedAt (legacy registry entries carry no timestamp)
func ValidateDatasetRecord(record *DatasetRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Hash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyHash)
	}

	if record.IndexLocation == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyIndexLocation)
	}

	return nil
}

// ValidateRole validates that a conversation Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}
