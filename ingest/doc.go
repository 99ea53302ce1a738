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

// Package ingest builds datasets from raw uploads.
//
// An upload is deduplicated by content hash against the tenant's
// registry before any work happens. New content flows through
// normalization, batched embedding over a worker pool, vector index
// construction (with retries at fresh locations), snapshot writing and
// finally a registry commit. The commit is last: a failure at any
// earlier stage removes everything the attempt created.
package ingest
