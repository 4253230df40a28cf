// Copyright 2025 Poiesic Systems
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


// Package storage provides the persistence abstraction for vsloader.
//
// Two repositories are defined here:
//
//   - RunRepository: a ledger of ingestion runs, one record per
//     FreshDataLoad or RecreateDataLoad, with per-stage counts and errors.
//   - DocumentRepository: embedded documents grouped into named indexes,
//     used by the local vector store backend.
//
// # Constructor Return Type Pattern
//
// Public constructors return the repository interface:
//
//	runs, err := badger.NewRunRepository(backend)  // returns storage.RunRepository
//
// Internal helpers may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
// Open a backend and build repositories on it:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	runs, err := badger.NewRunRepository(backend)
//
// Use in tests with in-memory storage:
//
//	runs, docs, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
