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


// Package ai provides the embedding abstraction used by vector stores.
//
// Vector stores never call an embedder on behalf of the pipeline directly;
// the embedder is injected into a store client, which embeds each batch as it
// writes it.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs via langchaingo
//   - ai/bedrock: Amazon Bedrock embedding models via langchaingo
//   - ai/sagemaker: SageMaker inference endpoints (sentence-similarity models)
//   - ai/mock: Deterministic test double
//
// Production constructors return the ai.Embedder interface. The mock
// constructor returns its concrete type so tests can inspect call counts and
// inject behavior.
package ai
