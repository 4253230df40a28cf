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


// Package loader resolves logical source file names to raw data.
//
// Two implementations exist:
//
//   - FileLoader: resolves names under <project>/data/ on local disk and
//     returns a path without touching the filesystem. Reading a missing file
//     fails later, in the processor, with core.ErrNotFound.
//   - S3Loader: fetches bucket/key from object storage and returns the full
//     body in memory. Remote failures wrap core.ErrStorageUnavailable.
//
// Loaders never retry.
package loader
