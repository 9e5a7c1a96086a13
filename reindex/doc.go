// Copyright 2025 Quorial Labs
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


// Package reindex rebuilds the vector index for a project's documents.
//
// Switching embedding models invalidates every stored vector: distances
// between old and new embeddings are meaningless. The Reindexer walks a
// project's completed documents, re-extracts and re-chunks each file,
// embeds the chunks in batches with the current embedder, and replaces
// the document's records in the index. Progress is reported to a
// writer, and embedding calls retry with exponential backoff.
package reindex
