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


package storage

import "errors"

var (
	// ErrNotFound indicates that a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID indicates an attempt to create a record whose ID
	// already exists.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrCorruptRecord indicates a stored value that could not be
	// deserialized.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrClosed indicates an operation against a closed repository.
	ErrClosed = errors.New("repository is closed")
)
