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


package core

import "errors"

// Domain validation errors. Callers match these with errors.Is; the
// wrapped message carries the specifics.
var (
	// ErrInvalidProject indicates a project failed domain validation.
	ErrInvalidProject = errors.New("invalid project")

	// ErrInvalidDocument indicates a document failed domain validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidConversation indicates a conversation failed domain validation.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrInvalidMessage indicates a message failed domain validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidRole indicates a message role outside the known set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStatus indicates a document status outside the known set.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrEmptyName indicates a required name field was empty.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrEmptyContent indicates message content was empty.
	ErrEmptyContent = errors.New("content must not be empty")

	// ErrEmptyFilename indicates a document without a filename.
	ErrEmptyFilename = errors.New("filename must not be empty")

	// ErrNonPositiveWindow indicates a context window of zero or less.
	ErrNonPositiveWindow = errors.New("max context tokens must be positive")
)
