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


// Package vectorstore defines the vector store client abstraction and the
// batching shared by every backend.
//
// A Client owns one named index (or collection). StoreData splits documents
// into fixed-size batches and performs one embed-and-upsert call per batch,
// in order. Writes are at-least-once and non-transactional: when a batch
// fails, its error is returned immediately and every earlier batch stays
// committed.
//
// Backends live in sub-packages:
//
//   - vectorstore/opensearch: OpenSearch k-NN indexes
//   - vectorstore/chroma: Chroma collections
//   - vectorstore/pgvector: Postgres with the pgvector extension
//   - vectorstore/local: embedded BadgerDB index with brute-force search
//   - vectorstore/mock: test double
//
// Exists followed by Create is not atomic; another process may create or
// delete the index in between.
package vectorstore
