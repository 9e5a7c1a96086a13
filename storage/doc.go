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


// Package storage provides the row-store abstraction layer for grounddesk.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. Projects, documents, conversations,
// messages, and document references live here; chunk embeddings do not,
// they belong to the vector index (see package vectorstore).
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable alternative backends:
//
//	repo, err := badger.NewRepository(path)  // returns storage.Repository
//
// Internal constructors may return concrete types since they are only
// used within the implementation package.
//
// # Cascade Deletes
//
// DeleteProject and DeleteConversation are transactional cascades:
// children are removed before parents inside a single transaction, so a
// crash mid-delete never leaves orphaned children pointing at a missing
// parent.
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
