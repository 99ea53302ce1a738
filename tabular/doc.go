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

// Package tabular turns uploaded spreadsheets into cleaned tables and
// information-dense row chunks ready for embedding.
//
// Supported inputs are CSV (UTF-8, with a latin-1 fallback) and xlsx
// workbooks. Normalization drops wholly-empty rows and columns,
// canonicalizes column names, classifies person/project/date columns by
// keyword, formats date-like columns through an ordered list of
// candidate layouts, and fills missing numeric cells with zero while
// remembering which cells were genuinely missing. That last distinction
// matters downstream: "0 hours logged" is a fact worth embedding,
// "hours unknown" is not.
//
// Normalization is deterministic: identical input bytes produce an
// identical table snapshot and an identical chunk sequence, which is
// what makes content-hash dedup sound.
package tabular
