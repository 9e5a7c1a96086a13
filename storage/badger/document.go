package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/quorial/grounddesk/core"
	"github.com/quorial/grounddesk/storage"
)

// CreateDocument stores a new document row and its project index entry.
func (r *Repository) CreateDocument(ctx context.Context, document *core.Document) error {
	if err := core.ValidateDocument(document); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if document.ID == uuid.Nil {
			document.ID = core.NewID()
		}

		key := makeEntityKey(documentPrefix, document.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateID
		}

		document.CreatedAt = time.Now().UTC()
		document.UpdatedAt = document.CreatedAt

		value, err := storage.MarshalDocument(document)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}

		projectKey := makeScopeKey(documentProjectPrefix, document.ProjectID, document.ID)
		if err := tx.Set(projectKey, document.ID[:]); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document row by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error) {
	var document *core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(documentPrefix, id))
		if err != nil {
			return err
		}
		document, err = storage.UnmarshalDocument(value)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return document, nil
}

// ListDocumentsByProject returns all documents in a project, oldest first.
func (r *Repository) ListDocumentsByProject(ctx context.Context, projectID uuid.UUID) ([]*core.Document, error) {
	var documents []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ids, err := collectScopeIDs(tx, documentProjectPrefix, projectID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			value, err := readValue(tx, makeEntityKey(documentPrefix, id))
			if err != nil {
				return err
			}
			document, err := storage.UnmarshalDocument(value)
			if err != nil {
				return err
			}
			documents = append(documents, document)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	slices.SortFunc(documents, func(a, b *core.Document) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return documents, nil
}

// UpdateDocument overwrites an existing document row.
func (r *Repository) UpdateDocument(ctx context.Context, document *core.Document) error {
	if err := core.ValidateDocument(document); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntityKey(documentPrefix, document.ID)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}

		document.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(document)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document row and its project index entry.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeEntityKey(documentPrefix, id))
		if err != nil {
			return err
		}
		document, err := storage.UnmarshalDocument(value)
		if err != nil {
			return err
		}

		if err := tx.Delete(makeScopeKey(documentProjectPrefix, document.ProjectID, id)); err != nil {
			return err
		}
		if err := tx.Delete(makeEntityKey(documentPrefix, id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
