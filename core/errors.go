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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a DatasetRecord failed validation.
	ErrInvalidRecord = errors.New("invalid dataset record")

	// ErrEmptyHash indicates the content hash field is empty.
	ErrEmptyHash = errors.New("content hash cannot be empty")

	// ErrEmptyIndexLocation indicates the index location field is empty.
	ErrEmptyIndexLocation = errors.New("index location cannot be empty")

	// ErrEmptyDataset indicates an upload produced zero usable records.
	ErrEmptyDataset = errors.New("no readable data found")

	// ErrInvalidRole indicates an invalid conversation turn role.
	ErrInvalidRole = errors.New("invalid conversation role")
)
