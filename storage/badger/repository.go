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


// Package badger implements the storage interfaces on BadgerDB.
//
// Each entity is stored under a primary key (prefix plus UUID) with
// composite index keys maintained alongside for scoped listings. The
// conversation message index embeds a BigEndian timestamp so iterating
// the index yields messages in chronological order without sorting.
package badger

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quorial/grounddesk/storage"
)

// Repository implements storage.Repository for BadgerDB.
type Repository struct {
	backend *Backend
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens a BadgerDB-backed repository at the given path,
// creating the directory if needed.
func NewRepository(path string) (storage.Repository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &Repository{backend: backend}, nil
}

// NewRepositoryWithBackend wraps an already opened backend.
func NewRepositoryWithBackend(backend *Backend) *Repository {
	return &Repository{backend: backend}
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.backend.Close()
}

// readValue reads and copies the value stored under key. Returns
// storage.ErrNotFound when the key is absent.
func readValue(tx *badger.Txn, key []byte) ([]byte, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// exists reports whether a key is present without reading its value.
func exists(tx *badger.Txn, key []byte) (bool, error) {
	_, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// idFromIndexKey extracts the trailing UUID from a composite index key.
func idFromIndexKey(key []byte) (uuid.UUID, error) {
	if len(key) < 16 {
		return uuid.Nil, storage.ErrCorruptRecord
	}
	var id uuid.UUID
	copy(id[:], key[len(key)-16:])
	return id, nil
}
