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


// Package search provides direct semantic search over a project's
// indexed document chunks, outside of any conversation.
//
// The Searcher embeds a query, retrieves the nearest chunks from the
// vector index, and ranks them by similarity with a verbatim-match
// boost: chunks containing every meaningful query word (after
// stop-word filtering) score higher than pure vector neighbors.
package search
