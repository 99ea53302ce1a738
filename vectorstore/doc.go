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

// Package vectorstore defines the contract between the ingestion and
// retrieval layers and the vector index runtime.
//
// An index lives in one filesystem directory (its location); each
// dataset owns exactly one location, and locations are never shared or
// reused across ingestion attempts. The concrete runtime lives in the
// badger subpackage; this package holds the interfaces, the classified
// initialization errors the retry policy keys on, and the HandlePool
// that tracks open handles for the teardown manager.
package vectorstore
